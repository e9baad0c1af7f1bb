package interaction

import (
	"sync"

	"canvasearth-client/core"
)

// gestureSet holds the live rectangle of every in-progress drag or
// resize, keyed by object id. Overlay positioners read it through
// Controller.LiveGesture so they can track an object mid-gesture
// without waiting for the committed cache value.
type gestureSet struct {
	mu    sync.RWMutex
	rects map[int64]core.Rect
}

func newGestureSet() *gestureSet {
	return &gestureSet{rects: make(map[int64]core.Rect)}
}

func (g *gestureSet) get(id int64) (core.Rect, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	rect, ok := g.rects[id]
	return rect, ok
}

func (g *gestureSet) set(id int64, rect core.Rect) {
	g.mu.Lock()
	g.rects[id] = rect
	g.mu.Unlock()
}

func (g *gestureSet) clear(id int64) {
	g.mu.Lock()
	delete(g.rects, id)
	g.mu.Unlock()
}
