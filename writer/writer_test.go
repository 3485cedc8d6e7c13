package writer

import (
	"io"
	"testing"

	"github.com/carlzeiss/czi/directory"
	"github.com/carlzeiss/czi/errs"
	"github.com/carlzeiss/czi/format"
	"github.com/carlzeiss/czi/reader"
	"github.com/stretchr/testify/require"
)

type memStream struct {
	buf []byte
}

func (m *memStream) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(m.buf)) {
		return 0, io.EOF
	}
	n := copy(p, m.buf[off:])
	if n < len(p) {
		return n, io.EOF
	}

	return n, nil
}

func (m *memStream) WriteAt(p []byte, off int64) (int, error) {
	end := off + int64(len(p))
	if end > int64(len(m.buf)) {
		grown := make([]byte, end)
		copy(grown, m.buf)
		m.buf = grown
	}
	copy(m.buf[off:end], p)

	return len(p), nil
}

func chunks(b []byte) PayloadSource {
	return func(yield func([]byte) bool) {
		yield(b)
	}
}

func TestWriterRoundTripSingleSubblock(t *testing.T) {
	m := &memStream{}

	w, err := Create(m, Info{
		DeclaredDimensions: []DeclaredDimension{
			{Dimension: format.DimC, Bounds: directory.Bounds{Start: 0, End: 2}},
		},
	})
	require.NoError(t, err)

	idx, err := w.AddSubblock(AddSubblockInfo{
		Coordinate:     map[format.Dimension]int32{format.DimC: 0},
		MIndex:         format.InvalidMIndex,
		LogicalWidth:   2,
		LogicalHeight:  2,
		PixelType:      format.PixelGray8,
		Compression:    format.CompressionUncompressed,
		DataSize:       4,
		Data:           chunks([]byte{1, 2, 3, 4}),
		MetadataSize:   0,
		AttachmentSize: 0,
	})
	require.NoError(t, err)
	require.Equal(t, 0, idx)

	attIdx, err := w.AddAttachment(AddAttachmentInfo{
		ContentGUID:     format.GUID{Data1: 7},
		ContentFileType: "CZI",
		Name:            "thumbnail",
		DataSize:        3,
		Data:            chunks([]byte{9, 9, 9}),
	})
	require.NoError(t, err)
	require.Equal(t, 0, attIdx)

	require.NoError(t, w.WriteMetadata([]byte("<xml/>"), nil))
	require.NoError(t, w.Close())

	rd, err := reader.Open(m, nil)
	require.NoError(t, err)

	sb, err := rd.ReadSubblock(0)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3, 4}, sb.Data)

	att, err := rd.ReadAttachment(0)
	require.NoError(t, err)
	require.Equal(t, []byte{9, 9, 9}, att.Data)

	md, err := rd.ReadMetadata()
	require.NoError(t, err)
	require.Equal(t, []byte("<xml/>"), md.XML)
}

func TestAddSubblockRejectsUnexpectedDimension(t *testing.T) {
	m := &memStream{}
	w, err := Create(m, Info{})
	require.NoError(t, err)

	_, err = w.AddSubblock(AddSubblockInfo{
		Coordinate:    map[format.Dimension]int32{format.DimC: 0},
		MIndex:        format.InvalidMIndex,
		LogicalWidth:  1,
		LogicalHeight: 1,
		PixelType:     format.PixelGray8,
		Compression:   format.CompressionUncompressed,
	})
	require.ErrorIs(t, err, errs.ErrAddCoordinateUnexpectedDimension)
}

func TestAddSubblockRejectsDuplicateCoordinate(t *testing.T) {
	m := &memStream{}
	w, err := Create(m, Info{})
	require.NoError(t, err)

	info := AddSubblockInfo{
		MIndex:        0,
		LogicalWidth:  1,
		LogicalHeight: 1,
		PixelType:     format.PixelGray8,
		Compression:   format.CompressionUncompressed,
	}

	_, err = w.AddSubblock(info)
	require.NoError(t, err)

	_, err = w.AddSubblock(info)
	require.ErrorIs(t, err, errs.ErrAddCoordinateAlreadyExisting)
}

func newNoopSubblockInfo() AddSubblockInfo {
	return AddSubblockInfo{
		MIndex:        format.InvalidMIndex,
		LogicalWidth:  1,
		LogicalHeight: 1,
		PixelType:     format.PixelGray8,
		Compression:   format.CompressionUncompressed,
	}
}

func TestWriteMetadataReusesReservedSlot(t *testing.T) {
	m := &memStream{}
	w, err := Create(m, Info{ReserveMetadataSize: 4096})
	require.NoError(t, err)

	_, err = w.AddSubblock(newNoopSubblockInfo())
	require.NoError(t, err)

	reservedPos := w.reservedMetadataPos
	cursorBeforeMetadata := w.nextPos

	require.NoError(t, w.WriteMetadata([]byte("<xml/>"), nil))

	require.Equal(t, reservedPos, w.metadataPosition, "metadata should land in the reserved slot")
	require.Equal(t, cursorBeforeMetadata, w.nextPos, "reusing a reserved slot must not move the write cursor")
	require.Equal(t, int64(0), w.reservedMetadataSize, "the reservation is spent after first use")

	require.NoError(t, w.Close())

	rd, err := reader.Open(m, nil)
	require.NoError(t, err)
	md, err := rd.ReadMetadata()
	require.NoError(t, err)
	require.Equal(t, []byte("<xml/>"), md.XML)
}

func TestWriteMetadataAppendsWhenReservationTooSmall(t *testing.T) {
	m := &memStream{}
	w, err := Create(m, Info{ReserveMetadataSize: 32})
	require.NoError(t, err)

	require.NoError(t, w.WriteMetadata([]byte("<xml>much larger than the reservation</xml>"), nil))

	require.NotEqual(t, w.reservedMetadataPos, w.metadataPosition, "content too large for the reservation must append instead")
}

func TestCloseReusesReservedDirectorySlots(t *testing.T) {
	m := &memStream{}
	w, err := Create(m, Info{
		ReserveSubblockDirectorySize:   4096,
		ReserveAttachmentDirectorySize: 4096,
	})
	require.NoError(t, err)

	_, err = w.AddSubblock(newNoopSubblockInfo())
	require.NoError(t, err)

	_, err = w.AddAttachment(AddAttachmentInfo{ContentFileType: "CZI", Name: "thumb"})
	require.NoError(t, err)

	reservedSubblockDir := w.reservedSubblockDirPos
	reservedAttachmentDir := w.reservedAttachmentDirPos
	cursorBeforeClose := w.nextPos

	require.NoError(t, w.Close())

	require.Equal(t, cursorBeforeClose, w.nextPos, "reusing both reserved directory slots must not move the write cursor")

	rd, err := reader.Open(m, nil)
	require.NoError(t, err)

	sb, err := rd.ReadSubblock(0)
	require.NoError(t, err)
	require.Equal(t, int32(format.PixelGray8), int32(sb.Entry.PixelType))

	att, err := rd.ReadAttachment(0)
	require.NoError(t, err)
	require.Equal(t, "thumb", att.Entry.NameString())
}

func TestWriterCloseThenOperationFails(t *testing.T) {
	m := &memStream{}
	w, err := Create(m, Info{})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = w.AddSubblock(AddSubblockInfo{LogicalWidth: 1, LogicalHeight: 1, Compression: format.CompressionUncompressed, MIndex: format.InvalidMIndex})
	require.ErrorIs(t, err, errs.ErrNotOperational)

	require.ErrorIs(t, w.Close(), errs.ErrNotOperational)
}
