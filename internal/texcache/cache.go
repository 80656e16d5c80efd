// Package texcache keeps one rasterized texture per item, reused until the
// item's content changes. Placement (transform) never invalidates an entry.
package texcache

import (
	"context"
	"encoding/json"
	"errors"
	"hash/fnv"
	"log/slog"
	"sync"

	"github.com/lucent/lucent/core-go/internal/document"
	"github.com/lucent/lucent/core-go/internal/geom"
	"github.com/lucent/lucent/core-go/internal/raster"
)

// Entry is a cached raster with the version it was rendered at. Consumers
// read it but never mutate the image.
type Entry struct {
	Key     string
	Version uint64
	Raster  *raster.Raster
}

// Offset is the geometry-space position of the texture's top-left corner.
func (e *Entry) Offset() geom.Point { return e.Raster.Offset() }

// DisplaySize is the texture size in geometry units.
func (e *Entry) DisplaySize() (float64, float64) { return e.Raster.DisplaySize() }

// Bounds is the untransformed painted area, without padding.
func (e *Entry) Bounds() geom.Rect { return e.Raster.Bounds }

// Stats reports cache activity.
type Stats struct {
	Hits    uint64
	Misses  uint64
	Entries int
}

type Option func(*Cache)

func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// WithRasterizer replaces the default scale, padding and size limit.
func WithRasterizer(r raster.Rasterizer) Option {
	return func(c *Cache) { c.rasterizer = r }
}

func WithScale(s float64) Option {
	return func(c *Cache) {
		if s > 0 {
			c.rasterizer.Scale = s
		}
	}
}

func WithPadding(p float64) Option {
	return func(c *Cache) {
		if p >= 0 {
			c.rasterizer.Padding = p
		}
	}
}

// WithMaxSize bounds the texture side length in pixels. Zero falls back
// to raster.HardMaxSize.
func WithMaxSize(n int) Option {
	return func(c *Cache) { c.rasterizer.MaxSize = n }
}

// Cache maps an item key to its current texture.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*Entry
	rasterizer raster.Rasterizer
	logger     *slog.Logger

	hits   uint64
	misses uint64
}

func New(opts ...Option) *Cache {
	c := &Cache{
		entries:    make(map[string]*Entry),
		rasterizer: raster.New(),
		logger:     slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Limit is the side length cap applied to textures and composites.
func (c *Cache) Limit() int { return c.rasterizer.Limit() }

// Version hashes the item's content: geometry, text fields and
// appearances. Transform, identity, name and flags do not contribute.
func Version(it *document.Item) uint64 {
	h := fnv.New64a()
	// Map keys marshal sorted, so the encoding is canonical.
	b, err := json.Marshal(it.ContentData())
	if err != nil {
		return 0
	}
	h.Write(b)
	return h.Sum64()
}

// GetOrCreate returns the texture for it under key, rasterizing only when
// no entry exists or the stored version is stale. Organizational items,
// empty bounds and oversize textures yield nil; a stale entry is dropped
// in that case.
func (c *Cache) GetOrCreate(it *document.Item, key string) *Entry {
	if it == nil || !it.IsShape() {
		return nil
	}
	v := Version(it)

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok && e.Version == v {
		c.hits++
		return e
	}
	c.misses++

	r, err := c.rasterizer.Rasterize(it)
	if err != nil {
		delete(c.entries, key)
		level := slog.LevelWarn
		if errors.Is(err, document.ErrEmptyBounds) {
			level = slog.LevelDebug
		}
		c.logger.Log(context.Background(), level, "rasterize failed", "id", key, "error", err)
		return nil
	}
	e := &Entry{Key: key, Version: v, Raster: r}
	c.entries[key] = e
	return e
}

// Get returns the stored entry without checking its version.
func (c *Cache) Get(key string) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e, ok
}

func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Retain drops every entry whose key is not in keep.
func (c *Cache) Retain(keep map[string]bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k := range c.entries {
		if !keep[k] {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*Entry)
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Hits: c.hits, Misses: c.misses, Entries: len(c.entries)}
}
