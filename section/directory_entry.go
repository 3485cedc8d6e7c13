package section

import (
	"github.com/carlzeiss/czi/endian"
	"github.com/carlzeiss/czi/errs"
	"github.com/carlzeiss/czi/format"
)

// schema tags recognized on parse; DE is legacy (fixed 128 bytes, decoded
// but never emitted by this module), DV is current (variable length).
const (
	schemaDV = "DV"
	schemaDE = "DE"
)

const deEntrySize = 128

// DirectoryEntry is the in-memory, schema-agnostic representation of one
// subblock directory record. The parser recognizes
// both DE and DV on-disk schemas; Bytes always emits DV.
type DirectoryEntry struct {
	PixelType       format.PixelType
	FilePosition    int64
	FilePart        int32
	RawCompression  int32
	PyramidType     format.PyramidType
	Dimensions      []DimensionEntry
}

// Compression classifies RawCompression, preserving unknown values as
// format.CompressionInvalid.
func (e DirectoryEntry) Compression() format.CompressionMode {
	return format.ClassifyCompression(e.RawCompression)
}

// Find returns the dimension entry for d, if present.
func (e DirectoryEntry) Find(d format.Dimension) (DimensionEntry, bool) {
	for _, de := range e.Dimensions {
		if de.Dimension == d {
			return de, true
		}
	}

	return DimensionEntry{}, false
}

// LogicalRect returns the entry's logical (x, y, width, height) rectangle.
// Missing X or Y dimensions yield zero values (lax-mode files); callers in
// strict mode should validate presence separately.
func (e DirectoryEntry) LogicalRect() (x, y, width, height int32) {
	if dx, ok := e.Find(format.DimX); ok {
		x, width = dx.Start, dx.Size
	}
	if dy, ok := e.Find(format.DimY); ok {
		y, height = dy.Start, dy.Size
	}

	return x, y, width, height
}

// StoredSize returns the entry's stored (width, height), which for pyramid
// subblocks is smaller than the logical size.
func (e DirectoryEntry) StoredSize() (width, height int32) {
	if dx, ok := e.Find(format.DimX); ok {
		width = dx.StoredSize
	}
	if dy, ok := e.Find(format.DimY); ok {
		height = dy.StoredSize
	}

	return width, height
}

// IsLayer0 reports whether every spatial dimension has StoredSize == Size.
func (e DirectoryEntry) IsLayer0() bool {
	x, ok := e.Find(format.DimX)
	if !ok || !x.IsLayer0() {
		return false
	}
	y, ok := e.Find(format.DimY)

	return ok && y.IsLayer0()
}

// MIndex returns the M dimension's Start value, or format.InvalidMIndex if
// M is absent.
func (e DirectoryEntry) MIndex() int32 {
	if m, ok := e.Find(format.DimM); ok {
		return m.Start
	}

	return format.InvalidMIndex
}

// HasValidMIndex reports whether the entry carries a real (non-sentinel) M value.
func (e DirectoryEntry) HasValidMIndex() bool {
	m, ok := e.Find(format.DimM)
	return ok && format.IsValidMIndex(m.Start)
}

// Coordinate returns the plane-coordinate dimensions (excludes X, Y, M).
func (e DirectoryEntry) Coordinate() map[format.Dimension]int32 {
	out := make(map[format.Dimension]int32, len(e.Dimensions))
	for _, d := range e.Dimensions {
		if d.Dimension.IsPlaneCoordinate() {
			out[d.Dimension] = d.Start
		}
	}

	return out
}

// byteSize returns the on-disk size in bytes of this entry's DV encoding.
func (e DirectoryEntry) byteSize() int {
	return DVFixedHeaderSize + len(e.Dimensions)*DimensionEntrySize
}

// ParseDirectoryEntry decodes one directory entry, dispatching on the first
// two bytes ("DE" or "DV"), and returns the number of bytes consumed so the
// caller can advance sequentially through the directory segment.
func ParseDirectoryEntry(data []byte, engine endian.EndianEngine) (DirectoryEntry, int, error) {
	if len(data) < 2 {
		return DirectoryEntry{}, 0, errs.ErrInvalidHeaderSize
	}

	switch string(data[0:2]) {
	case schemaDV:
		return parseDVEntry(data, engine)
	case schemaDE:
		return parseDEEntry(data, engine)
	default:
		return DirectoryEntry{}, 0, errs.ErrCorruptedData
	}
}

func parseDVEntry(data []byte, engine endian.EndianEngine) (DirectoryEntry, int, error) {
	if len(data) < DVFixedHeaderSize {
		return DirectoryEntry{}, 0, errs.ErrInvalidHeaderSize
	}

	var e DirectoryEntry
	e.PixelType = format.PixelType(int32(engine.Uint32(data[2:6]))) //nolint:gosec
	e.FilePosition = int64(engine.Uint64(data[6:14]))               //nolint:gosec
	e.FilePart = int32(engine.Uint32(data[14:18]))                  //nolint:gosec
	e.RawCompression = int32(engine.Uint32(data[18:22]))            //nolint:gosec
	e.PyramidType = format.PyramidType(data[22])
	// data[23:28] remaining spare bytes, unused
	count := int32(engine.Uint32(data[28:32])) //nolint:gosec

	if count < 0 || count > MaxDimensionEntries {
		return DirectoryEntry{}, 0, errs.ErrTooManyDimensionEntries
	}

	need := DVFixedHeaderSize + int(count)*DimensionEntrySize
	if len(data) < need {
		return DirectoryEntry{}, 0, errs.ErrInvalidHeaderSize
	}

	e.Dimensions = make([]DimensionEntry, count)
	for i := range int(count) {
		off := DVFixedHeaderSize + i*DimensionEntrySize
		de, err := ParseDimensionEntry(data[off:off+DimensionEntrySize], engine)
		if err != nil {
			return DirectoryEntry{}, 0, err
		}
		e.Dimensions[i] = de
	}

	if len(e.Dimensions) < 2 {
		return DirectoryEntry{}, 0, errs.ErrCorruptedData
	}

	return e, need, nil
}

// parseDEEntry decodes the legacy fixed 128-byte DE schema. Unlike DV, DE
// carries no dimension_count field: it has a fixed six dimension slots
// (DEDimensionSlots) of 16 bytes each (DEDimensionEntrySize) starting right
// after the 28-byte fixed header, and an unused slot is recognized by a
// zero dimension byte and skipped.
func parseDEEntry(data []byte, engine endian.EndianEngine) (DirectoryEntry, int, error) {
	if len(data) < deEntrySize {
		return DirectoryEntry{}, 0, errs.ErrInvalidHeaderSize
	}

	var e DirectoryEntry
	e.PixelType = format.PixelType(int32(engine.Uint32(data[2:6]))) //nolint:gosec
	e.FilePosition = int64(engine.Uint64(data[6:14]))               //nolint:gosec
	e.FilePart = int32(engine.Uint32(data[14:18]))                  //nolint:gosec
	e.RawCompression = int32(engine.Uint32(data[18:22]))            //nolint:gosec
	e.PyramidType = format.PyramidType(data[22])
	// data[23:28] spare bytes, unused

	e.Dimensions = make([]DimensionEntry, 0, DEDimensionSlots)
	for i := range DEDimensionSlots {
		off := DEFixedHeaderSize + i*DEDimensionEntrySize
		if off+DEDimensionEntrySize > deEntrySize {
			break
		}
		de, err := ParseDEDimensionEntry(data[off:off+DEDimensionEntrySize], engine)
		if err != nil {
			return DirectoryEntry{}, 0, err
		}
		if de.Dimension != 0 {
			e.Dimensions = append(e.Dimensions, de)
		}
	}

	return e, deEntrySize, nil
}

// Bytes serializes the entry in DV schema (new writers always emit DV).
func (e DirectoryEntry) Bytes(engine endian.EndianEngine) []byte {
	if len(e.Dimensions) > MaxDimensionEntries {
		panic("section: directory entry exceeds MaxDimensionEntries")
	}

	b := make([]byte, e.byteSize())
	copy(b[0:2], schemaDV)
	engine.PutUint32(b[2:6], uint32(int32(e.PixelType))) //nolint:gosec
	engine.PutUint64(b[6:14], uint64(e.FilePosition))    //nolint:gosec
	engine.PutUint32(b[14:18], uint32(e.FilePart))       //nolint:gosec
	engine.PutUint32(b[18:22], uint32(e.RawCompression)) //nolint:gosec
	b[22] = byte(e.PyramidType)
	// b[23:28] spare, left zero
	engine.PutUint32(b[28:32], uint32(len(e.Dimensions))) //nolint:gosec

	for i, de := range e.Dimensions {
		off := DVFixedHeaderSize + i*DimensionEntrySize
		copy(b[off:off+DimensionEntrySize], de.Bytes(engine))
	}

	return b
}
