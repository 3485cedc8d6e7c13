package section

import (
	"bytes"

	"github.com/carlzeiss/czi/endian"
	"github.com/carlzeiss/czi/errs"
	"github.com/carlzeiss/czi/format"
)

// AttachmentEntry is the fixed 128-byte "A1" record identifying one
// attachment segment. Attachments are uniquely
// identified by the triple (ContentGUID, ContentFileType, Name).
type AttachmentEntry struct {
	FilePosition    int64
	FilePart        int32
	ContentGUID     format.GUID
	ContentFileType [8]byte // ASCII
	Name            [80]byte // ASCII, NUL-padded
}

// NewAttachmentEntry builds an entry, truncating contentFileType and name
// to their on-disk capacity (8 and 80 bytes respectively).
func NewAttachmentEntry(filePosition int64, guid format.GUID, contentFileType, name string) AttachmentEntry {
	var e AttachmentEntry
	e.FilePosition = filePosition
	e.ContentGUID = guid
	copy(e.ContentFileType[:], contentFileType)
	copy(e.Name[:], name)

	return e
}

// ContentFileTypeString returns the ASCII content-file-type with trailing
// NUL bytes trimmed.
func (e AttachmentEntry) ContentFileTypeString() string {
	return trimNUL(e.ContentFileType[:])
}

// NameString returns the ASCII name with trailing NUL bytes trimmed.
func (e AttachmentEntry) NameString() string {
	return trimNUL(e.Name[:])
}

// Key returns the (guid, content-file-type, name) triple used for
// uniqueness checks when adding attachments.
func (e AttachmentEntry) Key() AttachmentKey {
	return AttachmentKey{
		GUID:            e.ContentGUID,
		ContentFileType: e.ContentFileTypeString(),
		Name:            e.NameString(),
	}
}

// AttachmentKey is the uniqueness key for attachments.
type AttachmentKey struct {
	GUID            format.GUID
	ContentFileType string
	Name            string
}

func trimNUL(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}

	return string(b)
}

// ParseAttachmentEntry decodes a 128-byte AttachmentEntryA1 record.
func ParseAttachmentEntry(data []byte, engine endian.EndianEngine) (AttachmentEntry, error) {
	if len(data) < AttachmentEntrySize {
		return AttachmentEntry{}, errs.ErrInvalidHeaderSize
	}

	// schema[2]="A1", spare[10]
	var e AttachmentEntry
	e.FilePosition = int64(engine.Uint64(data[12:20])) //nolint:gosec
	e.FilePart = int32(engine.Uint32(data[20:24]))      //nolint:gosec

	guid, err := format.ParseGUID(data[24:40], engine)
	if err != nil {
		return AttachmentEntry{}, err
	}
	e.ContentGUID = guid

	copy(e.ContentFileType[:], data[40:48])
	copy(e.Name[:], data[48:128])

	return e, nil
}

// Bytes serializes the attachment entry.
func (e AttachmentEntry) Bytes(engine endian.EndianEngine) []byte {
	b := make([]byte, AttachmentEntrySize)
	copy(b[0:2], "A1")
	// b[2:12] spare
	engine.PutUint64(b[12:20], uint64(e.FilePosition)) //nolint:gosec
	engine.PutUint32(b[20:24], uint32(e.FilePart))     //nolint:gosec
	copy(b[24:40], e.ContentGUID.Bytes(engine))
	copy(b[40:48], e.ContentFileType[:])
	copy(b[48:128], e.Name[:])

	return b
}
