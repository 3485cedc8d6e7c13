package section

import (
	"github.com/carlzeiss/czi/endian"
	"github.com/carlzeiss/czi/errs"
)

// SegmentHeader is the 32-byte header shared by every segment in the file:
// a 16-byte magic, an 8-byte AllocatedSize and an 8-byte UsedSize. It is
// always little-endian, even when the payload it precedes is not.
type SegmentHeader struct {
	ID            [16]byte
	AllocatedSize int64
	UsedSize      int64
}

// NewSegmentHeader builds a header for magic with the given used size,
// rounding AllocatedSize up to the 32-byte alignment boundary.
func NewSegmentHeader(magic string, usedSize int64) SegmentHeader {
	return SegmentHeader{
		ID:            fixedMagic(magic),
		AllocatedSize: endian.AlignSegmentSize(usedSize),
		UsedSize:      usedSize,
	}
}

// Magic returns the magic string with trailing NUL bytes trimmed.
func (h SegmentHeader) Magic() string {
	n := 0
	for n < len(h.ID) && h.ID[n] != 0 {
		n++
	}

	return string(h.ID[:n])
}

// Is reports whether the header's magic equals want.
func (h SegmentHeader) Is(want string) bool {
	return h.Magic() == want
}

// IsKnown reports whether the header's magic is one of the seven
// recognized segment kinds.
func (h SegmentHeader) IsKnown() bool {
	_, ok := knownMagics[h.ID]
	return ok
}

// ParseSegmentHeader decodes a SegmentHeader from exactly SegmentHeaderSize
// bytes. It never validates the magic against a caller's expectation; use
// ExpectMagic for that.
func ParseSegmentHeader(data []byte) (SegmentHeader, error) {
	if len(data) < SegmentHeaderSize {
		return SegmentHeader{}, errs.ErrInvalidHeaderSize
	}

	engine := endian.LittleEndian()

	var h SegmentHeader
	copy(h.ID[:], data[0:16])
	h.AllocatedSize = int64(engine.Uint64(data[16:24])) //nolint:gosec
	h.UsedSize = int64(engine.Uint64(data[24:32]))      //nolint:gosec

	return h, nil
}

// ExpectMagic parses a segment header and validates its magic against want.
// A recognized-but-wrong magic is ErrIllegalData; an unrecognized magic is
// ErrCorruptedData.
func ExpectMagic(data []byte, want string) (SegmentHeader, error) {
	h, err := ParseSegmentHeader(data)
	if err != nil {
		return SegmentHeader{}, err
	}

	if !h.IsKnown() {
		return SegmentHeader{}, errs.ErrCorruptedData
	}

	if !h.Is(want) {
		return SegmentHeader{}, errs.ErrIllegalData
	}

	return h, nil
}

// Bytes serializes the header.
func (h SegmentHeader) Bytes() []byte {
	b := make([]byte, SegmentHeaderSize)
	engine := endian.LittleEndian()

	copy(b[0:16], h.ID[:])
	engine.PutUint64(b[16:24], uint64(h.AllocatedSize)) //nolint:gosec
	engine.PutUint64(b[24:32], uint64(h.UsedSize))      //nolint:gosec

	return b
}

// MarkDeleted returns a copy of h with its magic overwritten with the
// DELETED marker, preserving AllocatedSize/UsedSize.
func (h SegmentHeader) MarkDeleted() SegmentHeader {
	h.ID = fixedMagic(MagicDeleted)
	return h
}
