package accessor

import (
	"io"
	"testing"

	"github.com/carlzeiss/czi/directory"
	"github.com/carlzeiss/czi/format"
	"github.com/carlzeiss/czi/libconfig"
	"github.com/carlzeiss/czi/reader"
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
	return func(yield func([]byte) bool) { yield(b) }
}

func solidBytes(n int, v byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = v
	}

	return b
}

// buildTwoTileFixture writes two adjacent 2x2 layer-0 subblocks at
// (0,0) and (2,0), filled with distinct pixel values, plus one pyramid
// layer-1 subblock spanning both (logical 4x2, stored 2x1). All three share
// the empty plane coordinate, so each gets its own M index.
func buildTwoTileFixture(t *testing.T) *memStream {
	t.Helper()
	m := &memStream{}

	w, err := writer.Create(m, writer.Info{})
	require.NoError(t, err)

	_, err = w.AddSubblock(writer.AddSubblockInfo{
		MIndex: 0, LogicalX: 0, LogicalY: 0, LogicalWidth: 2, LogicalHeight: 2,
		PixelType: format.PixelGray8, Compression: format.CompressionUncompressed,
		DataSize: 4, Data: chunks(solidBytes(4, 1)),
	})
	require.NoError(t, err)

	_, err = w.AddSubblock(writer.AddSubblockInfo{
		MIndex: 1, LogicalX: 2, LogicalY: 0, LogicalWidth: 2, LogicalHeight: 2,
		PixelType: format.PixelGray8, Compression: format.CompressionUncompressed,
		DataSize: 4, Data: chunks(solidBytes(4, 2)),
	})
	require.NoError(t, err)

	_, err = w.AddSubblock(writer.AddSubblockInfo{
		MIndex: 2, LogicalX: 0, LogicalY: 0, LogicalWidth: 4, LogicalHeight: 2,
		StoredWidth: 2, StoredHeight: 1,
		PixelType: format.PixelGray8, Compression: format.CompressionUncompressed,
		DataSize: 2, Data: chunks(solidBytes(2, 9)),
	})
	require.NoError(t, err)

	require.NoError(t, w.Close())

	return m
}

func TestRenderLayer0ComposesAdjacentTiles(t *testing.T) {
	m := buildTwoTileFixture(t)
	r, err := reader.Open(m, nil)
	require.NoError(t, err)

	cfg, err := libconfig.New()
	require.NoError(t, err)

	roi := directory.Rect{X: 0, Y: 0, Width: 4, Height: 2}
	bmp, err := RenderLayer0(cfg, r, map[format.Dimension]int32{}, roi, Options{})
	require.NoError(t, err)

	require.Equal(t, 4, bmp.Width)
	require.Equal(t, 2, bmp.Height)
	require.Equal(t, byte(1), bmp.Pixels[0])
	require.Equal(t, byte(2), bmp.Pixels[2])
}

func TestRenderPyramidLayerSelectsClassifiedLayer(t *testing.T) {
	m := buildTwoTileFixture(t)
	r, err := reader.Open(m, nil)
	require.NoError(t, err)

	cfg, err := libconfig.New()
	require.NoError(t, err)

	roi := directory.Rect{X: 0, Y: 0, Width: 4, Height: 2}
	bmp, err := RenderPyramidLayer(cfg, r, map[format.Dimension]int32{}, roi, 2, 1, Options{})
	require.NoError(t, err)

	require.Equal(t, 2, bmp.Width)
	require.Equal(t, 1, bmp.Height)
	require.Equal(t, byte(9), bmp.Pixels[0])
}

func TestRenderScaledPicksBestLayerFromBelow(t *testing.T) {
	m := buildTwoTileFixture(t)
	r, err := reader.Open(m, nil)
	require.NoError(t, err)

	cfg, err := libconfig.New()
	require.NoError(t, err)

	roi := directory.Rect{X: 0, Y: 0, Width: 4, Height: 2}
	bmp, err := RenderScaled(cfg, r, map[format.Dimension]int32{}, roi, 1.0, Options{})
	require.NoError(t, err)

	require.Equal(t, 4, bmp.Width)
	require.Equal(t, 2, bmp.Height)
	require.Equal(t, byte(1), bmp.Pixels[0])
	require.Equal(t, byte(2), bmp.Pixels[2])
}

func TestCoverageScenarioThreeOverlapping(t *testing.T) {
	rects := []directory.Rect{
		{X: 0, Y: 0, Width: 2, Height: 2},
		{X: 1, Y: 1, Width: 2, Height: 2},
		{X: 2, Y: 2, Width: 2, Height: 2},
	}
	roi := directory.Rect{X: 1, Y: 1, Width: 1, Height: 1}

	require.Equal(t, []int{1}, VisibleIndices(rects, roi))
}

func TestCoverageScenarioFullyCovered(t *testing.T) {
	rects := []directory.Rect{
		{X: 0, Y: 0, Width: 2, Height: 1},
		{X: 0, Y: 0, Width: 3, Height: 3},
	}
	roi := directory.Rect{X: 0, Y: 0, Width: 3, Height: 3}

	require.Equal(t, []int{1}, VisibleIndices(rects, roi))
}
