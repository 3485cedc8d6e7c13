package section

import (
	"math"

	"github.com/carlzeiss/czi/endian"
	"github.com/carlzeiss/czi/errs"
	"github.com/carlzeiss/czi/format"
)

// DimensionEntry is one 20-byte (dim, start, size, start_coord, stored_size)
// record within a DV directory entry. StoredSize of 0 means
// "equal to Size" and is resolved to Size by ParseDimensionEntry so callers
// never see the 0 sentinel.
type DimensionEntry struct {
	Dimension   format.Dimension
	Start       int32
	Size        int32
	StartCoord  float32 // unused semantically by the core
	StoredSize  int32
}

// ParseDimensionEntry decodes one 20-byte dimension entry.
func ParseDimensionEntry(data []byte, engine endian.EndianEngine) (DimensionEntry, error) {
	if len(data) < DimensionEntrySize {
		return DimensionEntry{}, errs.ErrInvalidHeaderSize
	}

	e := DimensionEntry{
		Dimension:  format.Dimension(data[0]),
		Start:      int32(engine.Uint32(data[4:8])),  //nolint:gosec
		Size:       int32(engine.Uint32(data[8:12])), //nolint:gosec
	}
	e.StartCoord = math.Float32frombits(engine.Uint32(data[12:16]))
	stored := int32(engine.Uint32(data[16:20])) //nolint:gosec
	if stored == 0 {
		stored = e.Size
	}
	e.StoredSize = stored

	return e, nil
}

// Bytes serializes the dimension entry. A StoredSize equal to Size is
// emitted as 0 (the on-disk "equal to size" sentinel), matching the
// encoding convention of the original format.
func (e DimensionEntry) Bytes(engine endian.EndianEngine) []byte {
	b := make([]byte, DimensionEntrySize)
	b[0] = byte(e.Dimension)
	// b[1:4] reserved
	engine.PutUint32(b[4:8], uint32(e.Start)) //nolint:gosec
	engine.PutUint32(b[8:12], uint32(e.Size)) //nolint:gosec
	engine.PutUint32(b[12:16], math.Float32bits(e.StartCoord))

	stored := e.StoredSize
	if stored == e.Size {
		stored = 0
	}
	engine.PutUint32(b[16:20], uint32(stored)) //nolint:gosec

	return b
}

// IsLayer0 reports whether this dimension's stored size equals its logical
// size.
func (e DimensionEntry) IsLayer0() bool {
	return e.StoredSize == e.Size
}

// ParseDEDimensionEntry decodes one 16-byte legacy DE dimension record
// (dim, start, size, start_coord). DE predates pyramid subblocks, so it
// carries no stored_size field; StoredSize is resolved to Size.
func ParseDEDimensionEntry(data []byte, engine endian.EndianEngine) (DimensionEntry, error) {
	if len(data) < DEDimensionEntrySize {
		return DimensionEntry{}, errs.ErrInvalidHeaderSize
	}

	e := DimensionEntry{
		Dimension: format.Dimension(data[0]),
		Start:     int32(engine.Uint32(data[4:8])),  //nolint:gosec
		Size:      int32(engine.Uint32(data[8:12])), //nolint:gosec
	}
	e.StartCoord = math.Float32frombits(engine.Uint32(data[12:16]))
	e.StoredSize = e.Size

	return e, nil
}
