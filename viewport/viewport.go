// Package viewport derives the visible canvas rectangle from the
// current pan/zoom transform and schedules debounced refetches when it
// changes.
package viewport

import (
	"sync"
	"time"

	"canvasearth-client/core"
)

// DefaultDebounce is how long the transform must stay unchanged before
// a viewport refetch fires.
const DefaultDebounce = 300 * time.Millisecond

// ComputeBounds converts the transform and surface size into the
// canvas-coordinate rectangle currently visible.
func ComputeBounds(t core.CanvasTransform, surface core.Size) core.ViewportBounds {
	minX := -t.X / t.Scale
	minY := -t.Y / t.Scale
	return core.ViewportBounds{
		MinX: minX,
		MinY: minY,
		MaxX: minX + surface.Width/t.Scale,
		MaxY: minY + surface.Height/t.Scale,
	}
}

// Tracker watches transform changes and invokes the refetch callback
// with fresh bounds once the transform has been stable for the debounce
// interval. Each change cancels and restarts the timer, so only the
// last scheduled refetch wins during a drag or zoom gesture.
type Tracker struct {
	debounce time.Duration
	refetch  func(core.ViewportBounds)

	mu        sync.Mutex
	surface   core.Size
	transform core.CanvasTransform
	timer     *time.Timer
	closed    bool
}

// NewTracker returns a tracker for the given surface size. The refetch
// callback runs on a timer goroutine.
func NewTracker(surface core.Size, debounce time.Duration, refetch func(core.ViewportBounds)) *Tracker {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Tracker{
		debounce:  debounce,
		refetch:   refetch,
		surface:   surface,
		transform: core.CanvasTransform{Scale: 1},
	}
}

// TransformChanged records the new transform and restarts the debounce
// timer.
func (t *Tracker) TransformChanged(transform core.CanvasTransform) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.transform = transform
	t.restartLocked()
}

// SurfaceResized records the new rendering surface size and restarts
// the debounce timer, since the visible rectangle changed.
func (t *Tracker) SurfaceResized(surface core.Size) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.surface = surface
	t.restartLocked()
}

// Bounds returns the bounds for the last recorded transform without
// waiting for the debounce. Used for the initial fetch.
func (t *Tracker) Bounds() core.ViewportBounds {
	t.mu.Lock()
	defer t.mu.Unlock()
	return ComputeBounds(t.transform, t.surface)
}

// Close cancels any pending refetch. The tracker is dead afterwards.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

func (t *Tracker) restartLocked() {
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(t.debounce, t.fire)
}

func (t *Tracker) fire() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	bounds := ComputeBounds(t.transform, t.surface)
	t.mu.Unlock()

	t.refetch(bounds)
}
