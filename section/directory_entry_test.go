package section

import (
	"testing"

	"github.com/carlzeiss/czi/endian"
	"github.com/carlzeiss/czi/format"
	"github.com/stretchr/testify/require"
)

func sampleEntry() DirectoryEntry {
	return DirectoryEntry{
		PixelType:      format.PixelGray8,
		FilePosition:   1024,
		FilePart:       0,
		RawCompression: int32(format.CompressionUncompressed),
		PyramidType:    format.PyramidNone,
		Dimensions: []DimensionEntry{
			{Dimension: format.DimX, Start: -10, Size: 256, StoredSize: 256},
			{Dimension: format.DimY, Start: 5, Size: 128, StoredSize: 128},
			{Dimension: format.DimC, Start: 1, Size: 1, StoredSize: 1},
			{Dimension: format.DimM, Start: 3, Size: 1, StoredSize: 1},
		},
	}
}

func TestDirectoryEntryDVRoundTrip(t *testing.T) {
	engine := endian.LittleEndian()
	e := sampleEntry()

	b := e.Bytes(engine)
	parsed, n, err := ParseDirectoryEntry(b, engine)
	require.NoError(t, err)
	require.Equal(t, len(b), n)
	require.Equal(t, e, parsed)

	x, y, w, h := parsed.LogicalRect()
	require.Equal(t, int32(-10), x)
	require.Equal(t, int32(5), y)
	require.Equal(t, int32(256), w)
	require.Equal(t, int32(128), h)
	require.True(t, parsed.IsLayer0())
	require.Equal(t, int32(3), parsed.MIndex())
	require.True(t, parsed.HasValidMIndex())
}

func TestDirectoryEntryPyramidSubblock(t *testing.T) {
	engine := endian.LittleEndian()
	e := sampleEntry()
	e.Dimensions[0].StoredSize = 64 // X stored < logical
	e.Dimensions[1].StoredSize = 32

	b := e.Bytes(engine)
	parsed, _, err := ParseDirectoryEntry(b, engine)
	require.NoError(t, err)
	require.False(t, parsed.IsLayer0())

	w, h := parsed.StoredSize()
	require.Equal(t, int32(64), w)
	require.Equal(t, int32(32), h)
}

func TestDirectoryEntryInvalidMIndex(t *testing.T) {
	engine := endian.LittleEndian()
	e := sampleEntry()
	e.Dimensions = e.Dimensions[:3] // drop M

	b := e.Bytes(engine)
	parsed, _, err := ParseDirectoryEntry(b, engine)
	require.NoError(t, err)
	require.Equal(t, format.InvalidMIndex, parsed.MIndex())
	require.False(t, parsed.HasValidMIndex())
}

func TestDirectoryEntryUnknownCompressionRoundTrips(t *testing.T) {
	engine := endian.LittleEndian()
	e := sampleEntry()
	e.RawCompression = 99

	b := e.Bytes(engine)
	parsed, _, err := ParseDirectoryEntry(b, engine)
	require.NoError(t, err)
	require.Equal(t, int32(99), parsed.RawCompression)
	require.Equal(t, format.CompressionInvalid, parsed.Compression())
}

func TestDirectoryEntryTooFewDimensionsRejected(t *testing.T) {
	engine := endian.LittleEndian()
	e := sampleEntry()
	e.Dimensions = e.Dimensions[:1]

	b := e.Bytes(engine)
	_, _, err := ParseDirectoryEntry(b, engine)
	require.Error(t, err)
}

// putDEDimension writes one 16-byte legacy DE dimension record (dim, start,
// size, start_coord; no stored_size field) at b[off:].
func putDEDimension(b []byte, off int, engine endian.EndianEngine, dim format.Dimension, start, size int32) {
	b[off] = byte(dim)
	engine.PutUint32(b[off+4:off+8], uint32(start))
	engine.PutUint32(b[off+8:off+12], uint32(size))
}

func TestDirectoryEntryDELegacyParse(t *testing.T) {
	engine := endian.LittleEndian()
	// Build a minimal DE-schema record by hand: schema "DE" then its fixed
	// 28-byte header, then up to six 16-byte dimension slots within the
	// fixed 128-byte record.
	b := make([]byte, deEntrySize)
	copy(b[0:2], "DE")
	engine.PutUint32(b[2:6], uint32(int32(format.PixelGray8)))
	engine.PutUint64(b[6:14], 2048)

	putDEDimension(b, DEFixedHeaderSize, engine, format.DimX, 0, 64)
	putDEDimension(b, DEFixedHeaderSize+DEDimensionEntrySize, engine, format.DimY, 0, 64)

	parsed, n, err := ParseDirectoryEntry(b, engine)
	require.NoError(t, err)
	require.Equal(t, deEntrySize, n)
	require.Len(t, parsed.Dimensions, 2)
	require.Equal(t, int64(2048), parsed.FilePosition)
	require.Equal(t, int32(64), parsed.Dimensions[0].StoredSize, "DE has no stored_size field; it resolves to Size")
}

func TestDirectoryEntryDELegacyParse_SixDimensions(t *testing.T) {
	engine := endian.LittleEndian()
	b := make([]byte, deEntrySize)
	copy(b[0:2], "DE")
	engine.PutUint32(b[2:6], uint32(int32(format.PixelGray8)))

	dims := []format.Dimension{format.DimX, format.DimY, format.DimZ, format.DimC, format.DimT, format.DimS}
	for i, d := range dims {
		putDEDimension(b, DEFixedHeaderSize+i*DEDimensionEntrySize, engine, d, int32(i), 1)
	}

	parsed, n, err := ParseDirectoryEntry(b, engine)
	require.NoError(t, err)
	require.Equal(t, deEntrySize, n)
	require.Len(t, parsed.Dimensions, 6, "all six fixed DE dimension slots must be decoded, not silently truncated")
}

func TestMaxDimensionEntriesEnforced(t *testing.T) {
	engine := endian.LittleEndian()
	e := sampleEntry()
	e.Dimensions = make([]DimensionEntry, MaxDimensionEntries+1)
	for i := range e.Dimensions {
		e.Dimensions[i] = DimensionEntry{Dimension: format.DimX, Start: 0, Size: 1, StoredSize: 1}
	}

	require.Panics(t, func() { e.Bytes(engine) })
}
