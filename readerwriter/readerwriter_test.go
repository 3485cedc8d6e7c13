package readerwriter

import (
	"io"
	"testing"

	"github.com/carlzeiss/czi/format"
	"github.com/carlzeiss/czi/writer"
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

func chunks(b []byte) writer.PayloadSource {
	return func(yield func([]byte) bool) {
		yield(b)
	}
}

func buildFixture(t *testing.T) *memStream {
	t.Helper()
	m := &memStream{}

	w, err := writer.Create(m, writer.Info{})
	require.NoError(t, err)

	_, err = w.AddSubblock(writer.AddSubblockInfo{
		MIndex:        format.InvalidMIndex,
		LogicalWidth:  2,
		LogicalHeight: 2,
		PixelType:     format.PixelGray8,
		Compression:   format.CompressionUncompressed,
		DataSize:      4,
		Data:          chunks([]byte{1, 2, 3, 4}),
	})
	require.NoError(t, err)

	_, err = w.AddAttachment(writer.AddAttachmentInfo{
		ContentGUID:     format.GUID{Data1: 1},
		ContentFileType: "CZI",
		Name:            "thumb",
		DataSize:        2,
		Data:            chunks([]byte{5, 6}),
	})
	require.NoError(t, err)

	require.NoError(t, w.WriteMetadata([]byte("<a/>"), nil))
	require.NoError(t, w.Close())

	return m
}

func TestReplaceSubblockInPlaceWhenItFits(t *testing.T) {
	m := buildFixture(t)
	before := len(m.buf)

	eng, err := Create(m, nil)
	require.NoError(t, err)

	err = eng.ReplaceSubblock(0, ReplaceSubblockInfo{
		PixelType:   format.PixelGray8,
		Compression: format.CompressionUncompressed,
		DataSize:    4,
		Data:        chunks([]byte{9, 9, 9, 9}),
	})
	require.NoError(t, err)
	require.NoError(t, eng.Close())

	require.Equal(t, before, len(m.buf))

	eng2, err := Create(m, nil)
	require.NoError(t, err)
	sb, err := eng2.ReadSubblock(0)
	require.NoError(t, err)
	require.Equal(t, []byte{9, 9, 9, 9}, sb.Data)
}

func TestReplaceSubblockAppendsWhenLarger(t *testing.T) {
	m := buildFixture(t)
	before := len(m.buf)

	eng, err := Create(m, nil)
	require.NoError(t, err)

	bigger := make([]byte, 4096)
	for i := range bigger {
		bigger[i] = byte(i)
	}

	err = eng.ReplaceSubblock(0, ReplaceSubblockInfo{
		PixelType:   format.PixelGray8,
		Compression: format.CompressionUncompressed,
		DataSize:    int64(len(bigger)),
		Data:        chunks(bigger),
	})
	require.NoError(t, err)
	require.NoError(t, eng.Close())

	require.Greater(t, len(m.buf), before)

	eng2, err := Create(m, nil)
	require.NoError(t, err)
	sb, err := eng2.ReadSubblock(0)
	require.NoError(t, err)
	require.Equal(t, bigger, sb.Data)
}

func TestRemoveSubblock(t *testing.T) {
	m := buildFixture(t)

	eng, err := Create(m, nil)
	require.NoError(t, err)

	require.NoError(t, eng.RemoveSubblock(0))
	require.Equal(t, 0, eng.Statistics().Count)
	require.NoError(t, eng.Close())

	eng2, err := Create(m, nil)
	require.NoError(t, err)
	require.Equal(t, 0, eng2.Statistics().Count)
}
