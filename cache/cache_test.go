package cache

import (
	"testing"

	"github.com/carlzeiss/czi/format"
	"github.com/stretchr/testify/require"
)

func TestLRUCacheGetInsert(t *testing.T) {
	c, err := NewLRUCache(10)
	require.NoError(t, err)

	_, ok := c.Get(1)
	require.False(t, ok)

	bmp := Bitmap{Pixels: []byte{1, 2, 3, 4}, PixelType: format.PixelGray8, Width: 2, Height: 2}
	c.Insert(1, bmp, len(bmp.Pixels))

	got, ok := c.Get(1)
	require.True(t, ok)
	require.Equal(t, bmp, got)
}

func TestLRUCachePrune(t *testing.T) {
	c, err := NewLRUCache(100)
	require.NoError(t, err)

	for i := range 5 {
		c.Insert(i, Bitmap{Pixels: make([]byte, 10)}, 10)
	}
	require.Equal(t, int64(50), c.totalSize)

	c.Prune(20)
	require.LessOrEqual(t, c.totalSize, int64(20))

	// Oldest entries (0, 1, 2) should have been evicted first.
	_, ok := c.Get(0)
	require.False(t, ok)
	_, ok = c.Get(4)
	require.True(t, ok)
}
