package core

import (
	"context"
	"errors"
	"time"
)

// ObjectType discriminates what a canvas object renders as.
type ObjectType string

const (
	ObjectImage   ObjectType = "IMAGE"
	ObjectText    ObjectType = "TEXT"
	ObjectYouTube ObjectType = "YOUTUBE"
	ObjectVideo   ObjectType = "VIDEO"
)

// MinObjectSize is the smallest width/height an object may be resized to,
// in canvas units. Enforced client-side before any resize is committed.
const MinObjectSize = 5.0

// ErrNotFound is returned when the server reports no object for an id.
var ErrNotFound = errors.New("object not found")

type (
	// CanvasObject is an object placed on the shared canvas. The id is
	// server-assigned and immutable, as are ObjectType and CreatedAt.
	// Positions are top-left in canvas coordinates. The text styling
	// fields are only meaningful for TEXT objects.
	CanvasObject struct {
		ID         int64      `json:"id"`
		ObjectType ObjectType `json:"objectType"`
		ContentURL string     `json:"contentUrl"`
		PositionX  float64    `json:"positionX"`
		PositionY  float64    `json:"positionY"`
		Width      float64    `json:"width"`
		Height     float64    `json:"height"`
		ZIndex     int        `json:"zIndex"`
		UserID     int64      `json:"userId"`
		CreatedAt  time.Time  `json:"createdAt"`
		FontSize   *int       `json:"fontSize,omitempty"`
		FontWeight *string    `json:"fontWeight,omitempty"`
		TextColor  *string    `json:"textColor,omitempty"`
	}

	// CreateObjectRequest carries every field of a new object except the
	// server-assigned id and timestamp.
	CreateObjectRequest struct {
		ObjectType ObjectType `json:"objectType"`
		ContentURL string     `json:"contentUrl"`
		PositionX  float64    `json:"positionX"`
		PositionY  float64    `json:"positionY"`
		Width      float64    `json:"width"`
		Height     float64    `json:"height"`
		ZIndex     int        `json:"zIndex"`
		UserID     int64      `json:"userId"`
		FontSize   *int       `json:"fontSize,omitempty"`
		FontWeight *string    `json:"fontWeight,omitempty"`
		TextColor  *string    `json:"textColor,omitempty"`
	}

	// UpdateObjectRequest is a partial update; nil fields are left
	// untouched by the server.
	UpdateObjectRequest struct {
		PositionX  *float64 `json:"positionX,omitempty"`
		PositionY  *float64 `json:"positionY,omitempty"`
		Width      *float64 `json:"width,omitempty"`
		Height     *float64 `json:"height,omitempty"`
		ZIndex     *int     `json:"zIndex,omitempty"`
		ContentURL *string  `json:"contentUrl,omitempty"`
		FontSize   *int     `json:"fontSize,omitempty"`
		FontWeight *string  `json:"fontWeight,omitempty"`
		TextColor  *string  `json:"textColor,omitempty"`
	}

	// FileUpload carries a validated file plus the placement fields of
	// the object the server will create for it.
	FileUpload struct {
		Filename    string
		ContentType string
		Data        []byte
		ObjectType  ObjectType
		PositionX   float64
		PositionY   float64
		Width       float64
		Height      float64
		ZIndex      int
		UserID      int64
	}

	// ViewportBounds is the canvas-coordinate rectangle currently
	// visible. Derived from the transform, never persisted.
	ViewportBounds struct {
		MinX float64 `json:"minX"`
		MinY float64 `json:"minY"`
		MaxX float64 `json:"maxX"`
		MaxY float64 `json:"maxY"`
	}

	// ObjectAPI is the server's REST surface as consumed by the
	// repository. The server, not the client, is authoritative for
	// which objects lie in a viewport and for every created object's
	// canonical form.
	ObjectAPI interface {
		ObjectsInViewport(ctx context.Context, bounds ViewportBounds) ([]CanvasObject, error)
		CreateObject(ctx context.Context, req CreateObjectRequest) (*CanvasObject, error)
		UpdateObject(ctx context.Context, id int64, req UpdateObjectRequest) (*CanvasObject, error)
		DeleteObject(ctx context.Context, id int64) error
		UploadFile(ctx context.Context, upload FileUpload) (*CanvasObject, error)
	}
)

// Intersects reports whether the object's rectangle overlaps the bounds.
func (b ViewportBounds) Intersects(obj CanvasObject) bool {
	return obj.PositionX <= b.MaxX && obj.PositionX+obj.Width >= b.MinX &&
		obj.PositionY <= b.MaxY && obj.PositionY+obj.Height >= b.MinY
}

// Rect returns the object's bounding rectangle in canvas coordinates.
func (o CanvasObject) Rect() Rect {
	return Rect{X: o.PositionX, Y: o.PositionY, Width: o.Width, Height: o.Height}
}
