package core

// Point is a position in either canvas or screen coordinates, depending
// on context.
type Point struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle with a top-left origin.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// Size is the pixel size of the rendering surface.
type Size struct {
	Width, Height float64
}

// CanvasTransform is the current pan/zoom state of the canvas: a uniform
// scale plus the screen-space translation of the canvas origin. Owned
// exclusively by the interaction controller.
type CanvasTransform struct {
	Scale float64 `json:"scale"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// ToCanvas converts a screen-space point to canvas coordinates.
func (t CanvasTransform) ToCanvas(p Point) Point {
	return Point{
		X: (p.X - t.X) / t.Scale,
		Y: (p.Y - t.Y) / t.Scale,
	}
}

// ToScreen converts a canvas-space point to screen coordinates.
func (t CanvasTransform) ToScreen(p Point) Point {
	return Point{
		X: p.X*t.Scale + t.X,
		Y: p.Y*t.Scale + t.Y,
	}
}

// ProjectRect converts a canvas-space rectangle to screen coordinates.
func (t CanvasTransform) ProjectRect(r Rect) Rect {
	origin := t.ToScreen(Point{X: r.X, Y: r.Y})
	return Rect{
		X:      origin.X,
		Y:      origin.Y,
		Width:  r.Width * t.Scale,
		Height: r.Height * t.Scale,
	}
}
