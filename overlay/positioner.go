// Package overlay keeps screen-space widgets (text editor, video
// players) glued to their canvas objects. Widgets live outside the
// canvas layer, so each open overlay runs its own per-frame
// re-projection loop independent of the UI re-render cycle.
package overlay

import (
	"sync"
	"time"

	"canvasearth-client/core"
)

// DefaultFrameInterval approximates a 60fps animation-frame callback.
const DefaultFrameInterval = time.Second / 60

// ObjectSource is the committed cache read by positioners.
type ObjectSource interface {
	Get(id int64) (core.CanvasObject, bool)
}

// GestureSource exposes the live rectangle of an in-progress drag or
// resize, published by the interaction controller. Reading it instead
// of the cache lets an overlay track its object with no perceptible lag
// during a gesture.
type GestureSource interface {
	LiveGesture(id int64) (core.Rect, bool)
}

// TransformSource provides the current pan/zoom transform.
type TransformSource interface {
	Transform() core.CanvasTransform
}

// ClampToSurface shifts the rectangle so it never renders fully
// off-screen: each axis is clamped into the surface when the overlay
// fits, otherwise pinned to the near edge.
func ClampToSurface(r core.Rect, surface core.Size) core.Rect {
	r.X = clampAxis(r.X, r.Width, surface.Width)
	r.Y = clampAxis(r.Y, r.Height, surface.Height)
	return r
}

func clampAxis(pos, size, limit float64) float64 {
	if size >= limit {
		return 0
	}
	if pos < 0 {
		return 0
	}
	if pos+size > limit {
		return limit - size
	}
	return pos
}

// PlaceBeside positions a panel next to an anchor rectangle: to the
// right by default, flipped to the left side when it would overflow the
// right edge, and clamped top-to-bottom.
func PlaceBeside(anchor core.Rect, size core.Size, surface core.Size) core.Rect {
	placed := core.Rect{
		X:      anchor.X + anchor.Width,
		Y:      anchor.Y,
		Width:  size.Width,
		Height: size.Height,
	}
	if placed.X+placed.Width > surface.Width {
		placed.X = anchor.X - placed.Width
	}
	placed.X = clampAxis(placed.X, placed.Width, surface.Width)
	placed.Y = clampAxis(placed.Y, placed.Height, surface.Height)
	return placed
}

// Positioner re-projects one overlay to screen coordinates every frame.
type Positioner struct {
	objectID  int64
	transform TransformSource
	objects   ObjectSource
	gestures  GestureSource
	surface   func() core.Size
	apply     func(core.Rect)
	interval  time.Duration

	mu         sync.Mutex
	fullscreen bool
	timer      *time.Timer
	closed     bool
}

// NewPositioner returns a positioner for the given object. gestures may
// be nil for overlays that only track committed positions. apply is
// invoked with the clamped screen rectangle once per frame.
func NewPositioner(objectID int64, transform TransformSource, objects ObjectSource, gestures GestureSource, surface func() core.Size, apply func(core.Rect)) *Positioner {
	return &Positioner{
		objectID:  objectID,
		transform: transform,
		objects:   objects,
		gestures:  gestures,
		surface:   surface,
		apply:     apply,
		interval:  DefaultFrameInterval,
	}
}

// Start begins the per-frame loop. It returns immediately.
func (p *Positioner) Start() {
	p.scheduleFrame()
}

// Close stops the loop. The scheduled frame handle is canceled directly
// so no dangling final invocation fires after teardown.
func (p *Positioner) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

// SetFullscreen suspends tracking while the overlay covers the whole
// surface; the loop keeps running and resumes placement when fullscreen
// ends.
func (p *Positioner) SetFullscreen(fullscreen bool) {
	p.mu.Lock()
	p.fullscreen = fullscreen
	p.mu.Unlock()
}

func (p *Positioner) scheduleFrame() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.timer = time.AfterFunc(p.interval, p.frame)
}

func (p *Positioner) frame() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	fullscreen := p.fullscreen
	p.mu.Unlock()

	if !fullscreen {
		if rect, ok := p.currentRect(); ok {
			screen := p.transform.Transform().ProjectRect(rect)
			p.apply(ClampToSurface(screen, p.surface()))
		}
		// a removed object simply stops updating position
	}

	p.scheduleFrame()
}

// currentRect prefers the live gesture rectangle so the overlay tracks
// its object mid-drag and mid-resize, falling back to the committed
// cache value.
func (p *Positioner) currentRect() (core.Rect, bool) {
	if p.gestures != nil {
		if rect, ok := p.gestures.LiveGesture(p.objectID); ok {
			return rect, true
		}
	}
	obj, ok := p.objects.Get(p.objectID)
	if !ok {
		return core.Rect{}, false
	}
	return obj.Rect(), true
}
