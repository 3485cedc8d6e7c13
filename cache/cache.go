// Package cache provides the optional subblock-bitmap cache collaborator
//, backed by github.com/hashicorp/golang-lru/v2. Accessors
// fetch decoded bitmaps through a Cache when one is configured; a miss
// decodes and inserts.
package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/carlzeiss/czi/format"
)

// Bitmap is a decoded subblock pixel buffer plus the shape needed to
// interpret it.
type Bitmap struct {
	Pixels    []byte
	PixelType format.PixelType
	Width     int
	Height    int
}

// Cache is the subblock-bitmap cache contract.
type Cache interface {
	// Get returns the cached bitmap for subblockIndex, if present.
	Get(subblockIndex int) (Bitmap, bool)

	// Insert stores bitmap for subblockIndex, counting sizeInBytes toward
	// the memory bound enforced by Prune.
	Insert(subblockIndex int, bitmap Bitmap, sizeInBytes int)

	// Prune evicts least-recently-used entries until total tracked size is
	// <= maxMemoryBytes.
	Prune(maxMemoryBytes int64)
}

type entry struct {
	bitmap Bitmap
	size   int64
}

// LRUCache is a size-bounded LRU implementation of Cache, grounded on
// github.com/hashicorp/golang-lru/v2 (adopted here as the out-of-pack
// ecosystem library named for this concern; see DESIGN.md).
type LRUCache struct {
	entries   *lru.Cache[int, entry]
	totalSize int64
}

// NewLRUCache builds an LRUCache with room for capacity entries. capacity
// bounds entry count, not bytes; call Prune after inserts to enforce a byte
// budget.
func NewLRUCache(capacity int) (*LRUCache, error) {
	inner, err := lru.New[int, entry](capacity)
	if err != nil {
		return nil, err
	}

	return &LRUCache{entries: inner}, nil
}

func (c *LRUCache) Get(subblockIndex int) (Bitmap, bool) {
	e, ok := c.entries.Get(subblockIndex)
	if !ok {
		return Bitmap{}, false
	}

	return e.bitmap, true
}

func (c *LRUCache) Insert(subblockIndex int, bitmap Bitmap, sizeInBytes int) {
	if _, existed := c.entries.Peek(subblockIndex); existed {
		if old, ok := c.entries.Get(subblockIndex); ok {
			c.totalSize -= old.size
		}
	}

	c.entries.Add(subblockIndex, entry{bitmap: bitmap, size: int64(sizeInBytes)})
	c.totalSize += int64(sizeInBytes)
}

func (c *LRUCache) Prune(maxMemoryBytes int64) {
	for c.totalSize > maxMemoryBytes {
		key, e, ok := c.entries.RemoveOldest()
		if !ok {
			return
		}
		_ = key
		c.totalSize -= e.size
	}
}
