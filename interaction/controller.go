// Package interaction translates raw pointer, wheel and keyboard input
// into pan/zoom transform updates and object-level intents, and owns
// the live transform of any in-progress drag or resize gesture.
package interaction

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"canvasearth-client/core"
	"canvasearth-client/repository"
	"canvasearth-client/state"
	"canvasearth-client/upload"
)

// Scale limits and zoom step for wheel zoom.
const (
	DefaultMinScale = 0.1
	DefaultMaxScale = 5.0
	DefaultScaleBy  = 1.05
)

// Embedded video objects may not be resized past this bound; larger
// players break overlay synchronization.
const (
	MaxVideoWidth  = 1920.0
	MaxVideoHeight = 1080.0
)

// Defaults for newly placed objects, in canvas units.
const (
	defaultTextWidth   = 200.0
	defaultTextHeight  = 50.0
	defaultVideoWidth  = 560.0
	defaultVideoHeight = 315.0
	defaultTextContent = "Double click to edit text"
)

// maxImageDimension caps the longest side of a newly placed image.
const maxImageDimension = 800.0

// FitImageSize scales natural image dimensions down so the longest side
// is at most 800 canvas units, preserving the aspect ratio. Smaller
// images are placed at their natural size.
func FitImageSize(naturalWidth, naturalHeight float64) (float64, float64) {
	longest := naturalWidth
	if naturalHeight > longest {
		longest = naturalHeight
	}
	if longest <= maxImageDimension || longest == 0 {
		return naturalWidth, naturalHeight
	}
	ratio := maxImageDimension / longest
	return naturalWidth * ratio, naturalHeight * ratio
}

// PointerTarget says what a pointer event actually hit. A drag on an
// object must not be mistaken for a background pan.
type PointerTarget int

const (
	TargetSurface PointerTarget = iota
	TargetObject
)

// Keyboard keys the controller reacts to.
const (
	KeyDelete    = "Delete"
	KeyBackspace = "Backspace"
	KeyEscape    = "Escape"
)

// Controller owns the canvas transform and turns input into repository
// intents and typed commands.
type Controller struct {
	state *state.Store
	repo  *repository.Repository

	minScale float64
	maxScale float64
	scaleBy  float64

	surface  core.Size
	userID   int64
	commands chan Command

	gestures    *gestureSet
	textEditing func() bool
}

// New returns a controller with the default scale limits.
func New(st *state.Store, repo *repository.Repository, surface core.Size, userID int64) *Controller {
	return &Controller{
		state:       st,
		repo:        repo,
		minScale:    DefaultMinScale,
		maxScale:    DefaultMaxScale,
		scaleBy:     DefaultScaleBy,
		surface:     surface,
		userID:      userID,
		commands:    make(chan Command, 16),
		gestures:    newGestureSet(),
		textEditing: func() bool { return false },
	}
}

// Commands is the typed message queue consumed by overlay owners.
func (c *Controller) Commands() <-chan Command {
	return c.commands
}

// SetTextEditingGuard installs the predicate that reports whether a
// text-edit overlay is open. While it returns true, keyboard shortcuts
// are suppressed so editing keystrokes pass through.
func (c *Controller) SetTextEditingGuard(guard func() bool) {
	if guard != nil {
		c.textEditing = guard
	}
}

// SurfaceResized records the new rendering surface size.
func (c *Controller) SurfaceResized(surface core.Size) {
	c.surface = surface
}

// WheelZoom performs a pointer-anchored zoom step. The canvas point
// under the pointer stays fixed under the pointer's screen position,
// so there is no visible jump at the cursor.
func (c *Controller) WheelZoom(pointer core.Point, deltaY float64) {
	old := c.state.Transform()
	anchor := old.ToCanvas(pointer)

	newScale := old.Scale * c.scaleBy
	if deltaY > 0 {
		newScale = old.Scale / c.scaleBy
	}
	if newScale < c.minScale {
		newScale = c.minScale
	}
	if newScale > c.maxScale {
		newScale = c.maxScale
	}

	c.state.SetTransform(core.CanvasTransform{
		Scale: newScale,
		X:     pointer.X - anchor.X*newScale,
		Y:     pointer.Y - anchor.Y*newScale,
	})
}

// PanEnd commits the translation a background drag ended at. Drags
// whose target was an object are ignored; those are object moves.
func (c *Controller) PanEnd(target PointerTarget, position core.Point) {
	if target != TargetSurface {
		return
	}
	t := c.state.Transform()
	t.X = position.X
	t.Y = position.Y
	c.state.SetTransform(t)
}

// Click handles a click or tap: an object becomes the selection, empty
// background clears it.
func (c *Controller) Click(target PointerTarget, objectID int64) {
	if target == TargetObject {
		c.state.Select(objectID)
		return
	}
	c.state.Deselect()
}

// KeyDown handles a keyboard shortcut. Disabled entirely while a
// text-edit overlay is open.
func (c *Controller) KeyDown(ctx context.Context, key string) {
	if c.textEditing() {
		return
	}
	switch key {
	case KeyDelete, KeyBackspace:
		if _, ok := c.state.Selected(); ok {
			if err := c.DeleteSelected(ctx); err != nil {
				logrus.WithError(err).Error("delete shortcut failed")
			}
		}
	case KeyEscape:
		c.state.Deselect()
	}
}

// DeleteSelected deletes the selected object, if any.
func (c *Controller) DeleteSelected(ctx context.Context) error {
	id, ok := c.state.Selected()
	if !ok {
		return nil
	}
	return c.repo.Delete(ctx, id)
}

// DragMove publishes the live position of an in-progress object drag.
func (c *Controller) DragMove(id int64, x, y float64) {
	rect, ok := c.gestures.get(id)
	if !ok {
		obj, found := c.repo.Get(id)
		if !found {
			return
		}
		rect = obj.Rect()
	}
	rect.X = x
	rect.Y = y
	c.gestures.set(id, rect)
}

// DragEnd commits the object's new position as an update intent and
// retires the live gesture.
func (c *Controller) DragEnd(ctx context.Context, id int64, x, y float64) error {
	defer c.gestures.clear(id)
	_, err := c.repo.Update(ctx, id, core.UpdateObjectRequest{
		PositionX: &x,
		PositionY: &y,
	})
	return err
}

// ResizeMove publishes the live rectangle of an in-progress resize.
func (c *Controller) ResizeMove(id int64, rect core.Rect) {
	c.gestures.set(id, rect)
}

// ResizeEnd commits the object's new size. Sizes under the 5x5 floor
// are rejected, as is any embedded-video resize past the maximum video
// bound; on rejection the prior size is retained and no intent is sent.
func (c *Controller) ResizeEnd(ctx context.Context, id int64, width, height float64) error {
	defer c.gestures.clear(id)

	if width < core.MinObjectSize || height < core.MinObjectSize {
		return fmt.Errorf("resize to %.1fx%.1f below minimum %vx%v", width, height, core.MinObjectSize, core.MinObjectSize)
	}
	if obj, ok := c.repo.Get(id); ok && obj.ObjectType == core.ObjectVideo {
		if width > MaxVideoWidth || height > MaxVideoHeight {
			return fmt.Errorf("video resize to %.0fx%.0f exceeds maximum %vx%v", width, height, MaxVideoWidth, MaxVideoHeight)
		}
	}

	_, err := c.repo.Update(ctx, id, core.UpdateObjectRequest{
		Width:  &width,
		Height: &height,
	})
	return err
}

// LiveGesture returns the in-progress rectangle for the object if a
// drag or resize is underway.
func (c *Controller) LiveGesture(id int64) (core.Rect, bool) {
	return c.gestures.get(id)
}

// AddText creates a text object centered in the viewport.
func (c *Controller) AddText(ctx context.Context) (*core.CanvasObject, error) {
	center := c.viewportCenter()
	fontSize := 16
	fontWeight := "normal"
	textColor := "#333333"

	return c.repo.Create(ctx, core.CreateObjectRequest{
		ObjectType: core.ObjectText,
		ContentURL: defaultTextContent,
		PositionX:  center.X - defaultTextWidth/2,
		PositionY:  center.Y - defaultTextHeight/2,
		Width:      defaultTextWidth,
		Height:     defaultTextHeight,
		ZIndex:     c.repo.Len(),
		UserID:     c.userID,
		FontSize:   &fontSize,
		FontWeight: &fontWeight,
		TextColor:  &textColor,
	})
}

// AddYouTube creates a YouTube object for the given URL, centered in
// the viewport.
func (c *Controller) AddYouTube(ctx context.Context, url string) (*core.CanvasObject, error) {
	center := c.viewportCenter()
	return c.repo.Create(ctx, core.CreateObjectRequest{
		ObjectType: core.ObjectYouTube,
		ContentURL: url,
		PositionX:  center.X - defaultVideoWidth/2,
		PositionY:  center.Y - defaultVideoHeight/2,
		Width:      defaultVideoWidth,
		Height:     defaultVideoHeight,
		ZIndex:     c.repo.Len(),
		UserID:     c.userID,
	})
}

// AddImage validates the file locally and uploads it, placing the
// object at the given canvas point or at the viewport center. Width and
// height are the source image's natural dimensions; they are scaled
// down so the longest side is at most 800.
func (c *Controller) AddImage(ctx context.Context, filename, contentType string, data []byte, at *core.Point, width, height float64) (*core.CanvasObject, error) {
	if err := upload.ValidateImage(filename, contentType, data); err != nil {
		return nil, err
	}
	width, height = FitImageSize(width, height)
	pos := c.viewportCenter()
	if at != nil {
		pos = *at
	}
	return c.repo.Upload(ctx, core.FileUpload{
		Filename:    filename,
		ContentType: contentType,
		Data:        data,
		ObjectType:  core.ObjectImage,
		PositionX:   pos.X - width/2,
		PositionY:   pos.Y - height/2,
		Width:       width,
		Height:      height,
		ZIndex:      c.repo.Len(),
		UserID:      c.userID,
	})
}

// AddVideo validates the file locally and uploads it at the viewport
// center with the default player size.
func (c *Controller) AddVideo(ctx context.Context, filename, contentType string, data []byte, at *core.Point) (*core.CanvasObject, error) {
	if err := upload.ValidateVideo(filename, contentType, data); err != nil {
		return nil, err
	}
	pos := c.viewportCenter()
	if at != nil {
		pos = *at
	}
	return c.repo.Upload(ctx, core.FileUpload{
		Filename:    filename,
		ContentType: contentType,
		Data:        data,
		ObjectType:  core.ObjectVideo,
		PositionX:   pos.X - defaultVideoWidth/2,
		PositionY:   pos.Y - defaultVideoHeight/2,
		Width:       defaultVideoWidth,
		Height:      defaultVideoHeight,
		ZIndex:      c.repo.Len(),
		UserID:      c.userID,
	})
}

// PlayObject emits the play command matching the object's type. Unknown
// ids and non-playable types are ignored.
func (c *Controller) PlayObject(id int64) {
	obj, ok := c.repo.Get(id)
	if !ok {
		return
	}
	switch obj.ObjectType {
	case core.ObjectYouTube:
		c.emit(PlayYouTubeCommand{ObjectID: obj.ID, URL: obj.ContentURL})
	case core.ObjectVideo:
		c.emit(PlayVideoCommand{ObjectID: obj.ID, URL: obj.ContentURL})
	}
}

// NotifyTextChanged emits the text-changed command after an editor
// commit.
func (c *Controller) NotifyTextChanged(id int64, text string) {
	c.emit(TextChangedCommand{ObjectID: id, Text: text})
}

func (c *Controller) emit(cmd Command) {
	select {
	case c.commands <- cmd:
	default:
		logrus.WithField("command", fmt.Sprintf("%T", cmd)).Warn("command queue full, dropping")
	}
}

// viewportCenter is the canvas point at the middle of the surface.
func (c *Controller) viewportCenter() core.Point {
	t := c.state.Transform()
	return t.ToCanvas(core.Point{
		X: c.surface.Width / 2,
		Y: c.surface.Height / 2,
	})
}
