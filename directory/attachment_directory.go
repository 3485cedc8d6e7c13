package directory

import (
	"github.com/carlzeiss/czi/errs"
	"github.com/carlzeiss/czi/section"
)

// AttachmentDirectory is the in-memory model of every attachment entry in a
// CZI file.
type AttachmentDirectory struct {
	entries []section.AttachmentEntry
	keys    map[section.AttachmentKey]int
}

// NewAttachmentDirectory constructs an empty attachment directory.
func NewAttachmentDirectory() *AttachmentDirectory {
	return &AttachmentDirectory{keys: make(map[section.AttachmentKey]int)}
}

// Add inserts e, rejecting duplicates by (guid, content-file-type, name)
// with errs.ErrAddAttachmentAlreadyExisting.
func (d *AttachmentDirectory) Add(e section.AttachmentEntry) (int, error) {
	key := e.Key()
	if _, exists := d.keys[key]; exists {
		return -1, errs.ErrAddAttachmentAlreadyExisting
	}

	index := len(d.entries)
	d.entries = append(d.entries, e)
	d.keys[key] = index

	return index, nil
}

// Remove deletes the entry at index i, shifting no other indices (the
// caller is responsible for reconciling any file-position bookkeeping the
// removal implies; this mirrors directory.SubblockDirectory's philosophy of
// the owning reader/writer driving segment lifecycle).
func (d *AttachmentDirectory) Remove(i int) error {
	if i < 0 || i >= len(d.entries) {
		return errs.ErrInvalidAttachmentID
	}

	key := d.entries[i].Key()
	delete(d.keys, key)
	d.entries = append(d.entries[:i], d.entries[i+1:]...)

	for k, idx := range d.keys {
		if idx > i {
			d.keys[k] = idx - 1
		}
	}

	return nil
}

// Replace overwrites the entry at index i with e, re-keying it if its
// uniqueness triple changed.
func (d *AttachmentDirectory) Replace(i int, e section.AttachmentEntry) error {
	if i < 0 || i >= len(d.entries) {
		return errs.ErrInvalidAttachmentID
	}

	old := d.entries[i]
	if old.Key() != e.Key() {
		if existing, exists := d.keys[e.Key()]; exists && existing != i {
			return errs.ErrAddAttachmentAlreadyExisting
		}
		delete(d.keys, old.Key())
		d.keys[e.Key()] = i
	}
	d.entries[i] = e

	return nil
}

// Len returns the number of attachment entries.
func (d *AttachmentDirectory) Len() int { return len(d.entries) }

// At returns the entry at index i.
func (d *AttachmentDirectory) At(i int) section.AttachmentEntry { return d.entries[i] }

// Entries returns the entries in storage order. Callers must not mutate the
// returned slice.
func (d *AttachmentDirectory) Entries() []section.AttachmentEntry { return d.entries }

// Find returns the index of the entry matching key, if any.
func (d *AttachmentDirectory) Find(key section.AttachmentKey) (int, bool) {
	idx, ok := d.keys[key]
	return idx, ok
}
