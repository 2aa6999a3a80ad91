package overlay

import (
	"fmt"
	"image"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/ivlev/bubble2video/internal/frame"
)

// Cache memoizes prepared overlays so recurring placements of the same
// asset (one region per speaker) are resampled once. Cached frames are
// shared and must be treated as read-only.
type Cache struct {
	store *cache.Cache
}

// NewCache creates a cache whose entries expire after ttl of inactivity.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{store: cache.New(ttl, 2*ttl)}
}

func cacheKey(asset *frame.Frame, region image.Rectangle, mirror bool) string {
	return fmt.Sprintf("%p/%dx%d/%t", asset, region.Dx(), region.Dy(), mirror)
}

// Prepare returns the cached overlay for (asset, size, mirror) or builds it.
func (c *Cache) Prepare(asset *frame.Frame, region image.Rectangle, mirror bool) *frame.Frame {
	if c == nil {
		return Prepare(asset, region, mirror)
	}
	key := cacheKey(asset, region, mirror)
	if v, ok := c.store.Get(key); ok {
		return v.(*frame.Frame)
	}
	f := Prepare(asset, region, mirror)
	c.store.SetDefault(key, f)
	return f
}

// Len reports the number of cached overlays.
func (c *Cache) Len() int {
	return c.store.ItemCount()
}
