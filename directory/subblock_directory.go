// Package directory holds the in-memory subblock and attachment directory
// models: entry storage, incremental statistics, and the geometric pyramid
// classifier. It follows the shape of a sorted collection of entries with
// cross-entry statistics and named lookups, generalized here to
// subblocks keyed by coordinate.
package directory

import (
	"sort"
	"strconv"

	"github.com/carlzeiss/czi/errs"
	"github.com/carlzeiss/czi/format"
	"github.com/carlzeiss/czi/internal/hash"
	"github.com/carlzeiss/czi/section"
)

// virtualScene is the statistics key used for entries lacking an S
// dimension, so single-scene files still get one scene bucket.
const virtualScene int32 = 0

// SubblockDirectory is the in-memory model of every subblock directory
// entry in a CZI file. Entries are stored in insertion
// order; ordering for accessors is a caller concern.
type SubblockDirectory struct {
	entries            []section.DirectoryEntry
	strict             bool
	minificationFactor int32

	stats       Statistics
	pyramid     PyramidStatistics
	consolidated bool

	keys map[subblockKey]int // coordinate+M -> entry index, for duplicate detection
}

// subblockKey uniquely identifies a subblock by its plane coordinate plus
// M-index. The coordinate is reduced to a 64-bit identity hash (see
// internal/hash) rather than keeping the full string around as the map
// key.
type subblockKey struct {
	coordHash uint64
	m         int32
}

func coordKey(e section.DirectoryEntry) subblockKey {
	coord := e.Coordinate()
	dims := make([]format.Dimension, 0, len(coord))
	for d := range coord {
		dims = append(dims, d)
	}
	sort.Slice(dims, func(i, j int) bool { return dims[i] < dims[j] })

	buf := make([]byte, 0, len(dims)*8)
	for _, d := range dims {
		buf = append(buf, byte(d))
		buf = strconv.AppendInt(buf, int64(coord[d]), 10)
		buf = append(buf, ',')
	}

	return subblockKey{coordHash: hash.ID(string(buf)), m: e.MIndex()}
}

// NewSubblockDirectory constructs an empty directory. strict enables the
// stricter structural checks (X/Y required, non-M dimensions must have
// Size=1, etc.); minificationFactor feeds ClassifyPyramidLayer
// (typically 2).
func NewSubblockDirectory(strict bool, minificationFactor int32) *SubblockDirectory {
	if minificationFactor < 2 {
		minificationFactor = 2
	}

	return &SubblockDirectory{
		strict:             strict,
		minificationFactor: minificationFactor,
		stats:              newStatistics(),
		pyramid:            newPyramidStatistics(minificationFactor),
		keys:               make(map[subblockKey]int),
	}
}

// Add validates and inserts e, updating statistics incrementally. Returns
// errs.ErrAddCoordinateAlreadyExisting if an entry with the same
// (coordinate, M) already exists.
func (d *SubblockDirectory) Add(e section.DirectoryEntry) (int, error) {
	if err := d.validate(e); err != nil {
		return -1, err
	}

	key := coordKey(e)
	if _, exists := d.keys[key]; exists {
		return -1, errs.ErrAddCoordinateAlreadyExisting
	}

	index := len(d.entries)
	d.entries = append(d.entries, e)
	d.keys[key] = index
	d.absorb(e)
	d.consolidated = false

	return index, nil
}

// AddAllowingDuplicates inserts e without rejecting a (coordinate, M) match
// already present, for writers configured to permit duplicate coordinates
//. The first entry at a given key
// keeps the lookup in Find/keys; later duplicates are stored and counted in
// statistics but not separately addressable by coordinate.
func (d *SubblockDirectory) AddAllowingDuplicates(e section.DirectoryEntry) (int, error) {
	if err := d.validate(e); err != nil {
		return -1, err
	}

	key := coordKey(e)
	index := len(d.entries)
	d.entries = append(d.entries, e)
	if _, exists := d.keys[key]; !exists {
		d.keys[key] = index
	}
	d.absorb(e)
	d.consolidated = false

	return index, nil
}

func (d *SubblockDirectory) validate(e section.DirectoryEntry) error {
	x, xok := e.Find(format.DimX)
	y, yok := e.Find(format.DimY)

	if d.strict {
		if !xok || !yok {
			return errs.ErrCorruptedData
		}
		for _, de := range e.Dimensions {
			if de.Dimension == format.DimX || de.Dimension == format.DimY {
				continue
			}
			if de.Dimension == format.DimM {
				if de.Size != 1 && !e.IsLayer0() {
					return errs.ErrCorruptedData
				}
				continue
			}
			if de.Size != 1 || de.StoredSize != 1 {
				return errs.ErrCorruptedData
			}
		}
	}

	if len(e.Dimensions) < 2 {
		return errs.ErrCorruptedData
	}
	_ = x
	_ = y

	return nil
}

func (d *SubblockDirectory) absorb(e section.DirectoryEntry) {
	x, y, w, h := e.LogicalRect()
	rect := Rect{X: x, Y: y, Width: w, Height: h}
	isLayer0 := e.IsLayer0()

	d.stats.BoundingBox = d.stats.BoundingBox.Union(rect)
	if isLayer0 {
		d.stats.Layer0BoundingBox = d.stats.Layer0BoundingBox.Union(rect)
	}
	d.stats.Count++

	scene := virtualScene
	if s, ok := e.Find(format.DimS); ok {
		scene = s.Start
	}
	sceneStats := d.stats.PerScene[scene]
	sceneStats.BoundingBox = sceneStats.BoundingBox.Union(rect)
	if isLayer0 {
		sceneStats.Layer0BoundingBox = sceneStats.Layer0BoundingBox.Union(rect)
	}
	d.stats.PerScene[scene] = sceneStats

	if e.HasValidMIndex() {
		m := e.MIndex()
		if !d.stats.HasValidMIndex {
			d.stats.MIndexMin, d.stats.MIndexMax = m, m
			d.stats.HasValidMIndex = true
		} else {
			d.stats.MIndexMin = min(d.stats.MIndexMin, m)
			d.stats.MIndexMax = max(d.stats.MIndexMax, m)
		}
	}

	for _, de := range e.Dimensions {
		b, ok := d.stats.DimBounds[de.Dimension]
		end := de.Start + de.Size
		if !ok {
			b = Bounds{Start: de.Start, End: end}
		} else {
			b.Start = min(b.Start, de.Start)
			b.End = max(b.End, end)
		}
		d.stats.DimBounds[de.Dimension] = b
	}

	storedW, storedH := e.StoredSize()
	layer := ClassifyPyramidLayer(w, h, storedW, storedH, d.minificationFactor)
	if layer.Representable {
		d.pyramid.Histogram[layer.Layer]++
	} else {
		d.pyramid.Unrepresentable++
	}
}

// Replace overwrites the entry at index i with e, re-keying it and
// rebuilding statistics from scratch.
func (d *SubblockDirectory) Replace(i int, e section.DirectoryEntry) error {
	if i < 0 || i >= len(d.entries) {
		return errs.ErrInvalidSubBlockID
	}
	if err := d.validate(e); err != nil {
		return err
	}

	oldKey := coordKey(d.entries[i])
	newKey := coordKey(e)
	if newKey != oldKey {
		if existing, exists := d.keys[newKey]; exists && existing != i {
			return errs.ErrAddCoordinateAlreadyExisting
		}
		delete(d.keys, oldKey)
		d.keys[newKey] = i
	}

	d.entries[i] = e
	d.rebuildStats()
	d.consolidated = false

	return nil
}

// Remove deletes the entry at index i, shifting later indices down by one
// and rebuilding statistics from scratch.
func (d *SubblockDirectory) Remove(i int) error {
	if i < 0 || i >= len(d.entries) {
		return errs.ErrInvalidSubBlockID
	}

	key := coordKey(d.entries[i])
	d.entries = append(d.entries[:i], d.entries[i+1:]...)
	delete(d.keys, key)

	for k, idx := range d.keys {
		if idx > i {
			d.keys[k] = idx - 1
		}
	}

	d.rebuildStats()
	d.consolidated = false

	return nil
}

func (d *SubblockDirectory) rebuildStats() {
	d.stats = newStatistics()
	d.pyramid = newPyramidStatistics(d.minificationFactor)
	for _, e := range d.entries {
		d.absorb(e)
	}
}

// Consolidate finalizes the incrementally-maintained statistics. It is
// idempotent and cheap to call repeatedly; Statistics/PyramidStatistics
// already reflect every Add call, so Consolidate exists to mark the view
// stable for callers that gate on it.
func (d *SubblockDirectory) Consolidate() {
	d.consolidated = true
}

// Statistics returns a copy of the consolidated statistics.
func (d *SubblockDirectory) Statistics() Statistics {
	return d.stats
}

// PyramidStatistics returns a copy of the consolidated pyramid histogram.
func (d *SubblockDirectory) PyramidStatistics() PyramidStatistics {
	return d.pyramid
}

// Len returns the number of entries.
func (d *SubblockDirectory) Len() int { return len(d.entries) }

// At returns the entry at index i.
func (d *SubblockDirectory) At(i int) section.DirectoryEntry { return d.entries[i] }

// Entries returns the entries in storage order. Callers must not mutate the
// returned slice.
func (d *SubblockDirectory) Entries() []section.DirectoryEntry { return d.entries }

// Find returns the index of the entry matching coordinate and m, if any.
func (d *SubblockDirectory) Find(coord map[format.Dimension]int32, m int32) (int, bool) {
	probe := section.DirectoryEntry{}
	for dim, v := range coord {
		probe.Dimensions = append(probe.Dimensions, section.DimensionEntry{Dimension: dim, Start: v, Size: 1, StoredSize: 1})
	}
	probe.Dimensions = append(probe.Dimensions, section.DimensionEntry{Dimension: format.DimM, Start: m, Size: 1, StoredSize: 1})

	idx, ok := d.keys[coordKey(probe)]

	return idx, ok
}

// SortedByM returns entry indices ordered by ascending M, with entries
// lacking a valid M sorted first.
func (d *SubblockDirectory) SortedByM() []int {
	idx := make([]int, len(d.entries))
	for i := range idx {
		idx[i] = i
	}

	sort.SliceStable(idx, func(a, b int) bool {
		ea, eb := d.entries[idx[a]], d.entries[idx[b]]
		aValid, bValid := ea.HasValidMIndex(), eb.HasValidMIndex()
		if aValid != bValid {
			return !aValid // invalid (false) sorts first
		}

		return ea.MIndex() < eb.MIndex()
	})

	return idx
}
