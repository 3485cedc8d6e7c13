package directory

import (
	"testing"

	"github.com/carlzeiss/czi/errs"
	"github.com/carlzeiss/czi/format"
	"github.com/carlzeiss/czi/section"
	"github.com/stretchr/testify/require"
)

func entryAt(x, y, w, h int32, m int32, storedW, storedH int32, scene int32) section.DirectoryEntry {
	dims := []section.DimensionEntry{
		{Dimension: format.DimX, Start: x, Size: w, StoredSize: storedW},
		{Dimension: format.DimY, Start: y, Size: h, StoredSize: storedH},
		{Dimension: format.DimM, Start: m, Size: 1, StoredSize: 1},
		{Dimension: format.DimS, Start: scene, Size: 1, StoredSize: 1},
	}

	return section.DirectoryEntry{PixelType: format.PixelGray8, Dimensions: dims}
}

func TestSubblockDirectoryAddAndStatistics(t *testing.T) {
	d := NewSubblockDirectory(false, 2)

	_, err := d.Add(entryAt(0, 0, 10, 10, 0, 10, 10, 0))
	require.NoError(t, err)
	_, err = d.Add(entryAt(5, 5, 10, 10, 1, 5, 5, 0))
	require.NoError(t, err)

	stats := d.Statistics()
	require.Equal(t, 2, stats.Count)
	require.Equal(t, Rect{X: 0, Y: 0, Width: 15, Height: 15}, stats.BoundingBox)
	require.Equal(t, Rect{X: 0, Y: 0, Width: 10, Height: 10}, stats.Layer0BoundingBox)
	require.True(t, stats.HasValidMIndex)
	require.Equal(t, int32(0), stats.MIndexMin)
	require.Equal(t, int32(1), stats.MIndexMax)
}

func TestSubblockDirectoryDuplicateRejected(t *testing.T) {
	d := NewSubblockDirectory(false, 2)

	_, err := d.Add(entryAt(0, 0, 10, 10, 0, 10, 10, 0))
	require.NoError(t, err)

	_, err = d.Add(entryAt(0, 0, 10, 10, 0, 10, 10, 0))
	require.ErrorIs(t, err, errs.ErrAddCoordinateAlreadyExisting)
}

func TestSubblockDirectoryPyramidHistogram(t *testing.T) {
	d := NewSubblockDirectory(false, 2)

	_, err := d.Add(entryAt(0, 0, 16, 16, 0, 16, 16, 0)) // layer 0
	require.NoError(t, err)
	_, err = d.Add(entryAt(0, 0, 16, 16, 1, 8, 8, 0)) // layer 1
	require.NoError(t, err)
	_, err = d.Add(entryAt(0, 0, 16, 16, 2, 4, 4, 0)) // layer 2
	require.NoError(t, err)

	pyramid := d.PyramidStatistics()
	require.Equal(t, 1, pyramid.Histogram[0])
	require.Equal(t, 1, pyramid.Histogram[1])
	require.Equal(t, 1, pyramid.Histogram[2])
	require.Equal(t, 0, pyramid.Unrepresentable)
}

func TestSubblockDirectorySortedByM(t *testing.T) {
	d := NewSubblockDirectory(false, 2)

	_, err := d.Add(entryAt(0, 0, 2, 2, 5, 2, 2, 0))
	require.NoError(t, err)
	e2 := entryAt(2, 2, 2, 2, format.InvalidMIndex, 2, 2, 0)
	_, err = d.Add(e2)
	require.NoError(t, err)
	_, err = d.Add(entryAt(4, 4, 2, 2, 1, 2, 2, 0))
	require.NoError(t, err)

	order := d.SortedByM()
	require.Len(t, order, 3)
	// invalid-M entry sorts first, then ascending M.
	require.False(t, d.At(order[0]).HasValidMIndex())
	require.Equal(t, int32(1), d.At(order[1]).MIndex())
	require.Equal(t, int32(5), d.At(order[2]).MIndex())
}

func TestClassifyPyramidLayerNotRepresentable(t *testing.T) {
	layer := ClassifyPyramidLayer(16, 16, 5, 5, 2)
	require.False(t, layer.Representable)
}

func TestClassifyPyramidLayerLayer0(t *testing.T) {
	layer := ClassifyPyramidLayer(16, 16, 16, 16, 2)
	require.True(t, layer.Representable)
	require.Equal(t, int32(0), layer.Layer)
}

func TestRectIntersectAndUnion(t *testing.T) {
	a := Rect{X: 0, Y: 0, Width: 3, Height: 3}
	b := Rect{X: 1, Y: 1, Width: 3, Height: 3}

	require.Equal(t, Rect{X: 1, Y: 1, Width: 2, Height: 2}, a.Intersect(b))
	require.Equal(t, Rect{X: 0, Y: 0, Width: 4, Height: 4}, a.Union(b))

	disjoint := Rect{X: 10, Y: 10, Width: 1, Height: 1}
	require.True(t, a.Intersect(disjoint).IsEmpty())
}
