package segment

import (
	"bytes"
	"testing"

	"github.com/carlzeiss/czi/endian"
	"github.com/carlzeiss/czi/format"
	"github.com/carlzeiss/czi/section"
	"github.com/stretchr/testify/require"
)

func sampleSubblock() Subblock {
	entry := section.DirectoryEntry{
		PixelType:      format.PixelGray8,
		RawCompression: int32(format.CompressionUncompressed),
		Dimensions: []section.DimensionEntry{
			{Dimension: format.DimX, Start: 0, Size: 4, StoredSize: 4},
			{Dimension: format.DimY, Start: 0, Size: 4, StoredSize: 4},
			{Dimension: format.DimM, Start: 0, Size: 1, StoredSize: 1},
		},
	}

	return Subblock{
		Entry:      entry,
		Metadata:   []byte("<Meta/>"),
		Data:       []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
		Attachment: nil,
	}
}

func TestSubblockRoundTrip(t *testing.T) {
	engine := endian.LittleEndian()
	sb := sampleSubblock()

	buf := sb.Bytes(engine)
	r := bytes.NewReader(buf)

	parsed, err := ParseSubblock(r, 0, engine)
	require.NoError(t, err)
	require.True(t, parsed.Header.Is(section.MagicSubblock))
	require.Equal(t, sb.Entry, parsed.Entry)
	require.Equal(t, sb.Metadata, parsed.Metadata)
	require.Equal(t, sb.Data, parsed.Data)
	require.Empty(t, parsed.Attachment)
}

func TestSubblockAllocatedSizeAligned(t *testing.T) {
	engine := endian.LittleEndian()
	sb := sampleSubblock()
	buf := sb.Bytes(engine)

	header, err := section.ParseSegmentHeader(buf)
	require.NoError(t, err)
	require.Equal(t, int64(0), header.AllocatedSize%32)
	require.GreaterOrEqual(t, header.AllocatedSize, header.UsedSize)
}
