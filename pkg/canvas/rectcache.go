package canvas

import (
	"sync"

	"github.com/screenloom/screenloom/pkg/layout"
)

// RectCache holds source-local element rectangles between render passes.
//
// This is the only state the renderer keeps across invocations. Entries are
// keyed by (screen id, element descriptor) and tagged with a generation
// token identifying the sub-document instance they were measured against.
// When a sub-document reloads, its generation changes and every rectangle
// for that screen is dropped at once; stale entries are never patched
// individually.
//
// Safe for concurrent use.
type RectCache struct {
	mu    sync.RWMutex
	gens  map[string]string
	rects map[string]map[string]layout.Rect
}

// NewRectCache returns an empty cache.
func NewRectCache() *RectCache {
	return &RectCache{
		gens:  make(map[string]string),
		rects: make(map[string]map[string]layout.Rect),
	}
}

// Put records one element rectangle measured against the given sub-document
// generation. A generation change wipes all prior rectangles for the screen
// before the new one is stored.
func (c *RectCache) Put(screenID, generation, descriptor string, r layout.Rect) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[screenID] != generation {
		c.gens[screenID] = generation
		c.rects[screenID] = make(map[string]layout.Rect)
	}
	c.rects[screenID][descriptor] = r
}

// Locate returns the cached rectangle for an element under the screen's
// current generation. Implements ElementLocator.
func (c *RectCache) Locate(screenID, descriptor string) (layout.Rect, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.rects[screenID][descriptor]
	return r, ok
}

// Invalidate drops every rectangle for a screen, regardless of generation.
func (c *RectCache) Invalidate(screenID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.gens, screenID)
	delete(c.rects, screenID)
}

// Reset drops the whole cache.
func (c *RectCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens = make(map[string]string)
	c.rects = make(map[string]map[string]layout.Rect)
}
