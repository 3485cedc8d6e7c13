package segment

import (
	"bytes"
	"testing"

	"github.com/carlzeiss/czi/endian"
	"github.com/carlzeiss/czi/format"
	"github.com/carlzeiss/czi/section"
	"github.com/stretchr/testify/require"
)

func sampleDirEntry(m int32) section.DirectoryEntry {
	return section.DirectoryEntry{
		PixelType: format.PixelGray8,
		Dimensions: []section.DimensionEntry{
			{Dimension: format.DimX, Start: 0, Size: 2, StoredSize: 2},
			{Dimension: format.DimY, Start: 0, Size: 2, StoredSize: 2},
			{Dimension: format.DimM, Start: m, Size: 1, StoredSize: 1},
		},
	}
}

func TestSubblockDirectorySegmentRoundTrip(t *testing.T) {
	engine := endian.LittleEndian()
	seg := SubblockDirectorySegment{Entries: []section.DirectoryEntry{sampleDirEntry(0), sampleDirEntry(1)}}

	buf := seg.Bytes(engine)
	r := bytes.NewReader(buf)

	parsed, err := ParseSubblockDirectorySegment(r, 0, engine)
	require.NoError(t, err)
	require.Equal(t, seg.Entries, parsed.Entries)
}

func TestSubblockDirectorySegmentEmpty(t *testing.T) {
	engine := endian.LittleEndian()
	seg := SubblockDirectorySegment{}

	buf := seg.Bytes(engine)
	r := bytes.NewReader(buf)

	parsed, err := ParseSubblockDirectorySegment(r, 0, engine)
	require.NoError(t, err)
	require.Empty(t, parsed.Entries)

	header, err := section.ParseSegmentHeader(buf)
	require.NoError(t, err)
	require.Equal(t, int64(0), header.AllocatedSize%32)
}

func TestAttachmentDirectorySegmentRoundTrip(t *testing.T) {
	engine := endian.LittleEndian()
	entries := []section.AttachmentEntry{
		section.NewAttachmentEntry(0, format.GUID{Data1: 1}, "JPG", "A"),
		section.NewAttachmentEntry(0, format.GUID{Data1: 2}, "PNG", "B"),
	}
	seg := AttachmentDirectorySegment{Entries: entries}

	buf := seg.Bytes(engine)
	r := bytes.NewReader(buf)

	parsed, err := ParseAttachmentDirectorySegment(r, 0, engine)
	require.NoError(t, err)
	require.Equal(t, entries, parsed.Entries)
}
