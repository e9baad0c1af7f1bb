package overlay

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"canvasearth-client/core"
	"canvasearth-client/state"
)

// ObjectUpdater commits text edits; satisfied by the repository.
type ObjectUpdater interface {
	Update(ctx context.Context, id int64, req core.UpdateObjectRequest) (*core.CanvasObject, error)
}

// EditorState is the snapshot a text-edit widget renders from.
type EditorState struct {
	ObjectID   int64
	Text       string
	FontSize   int
	FontWeight string
	TextColor  string
	CanvasX    float64
	CanvasY    float64
	Width      float64
	Height     float64
}

// Editor owns the text-edit overlay lifecycle. It opens when a TEXT
// object becomes selected and closes on save, cancel, deselection or
// deletion of the object (including remote deletes, which clear the
// selection through the repository).
type Editor struct {
	updater ObjectUpdater
	objects ObjectSource
	state   *state.Store

	mu      sync.Mutex
	current *EditorState
}

// NewEditor wires an editor to the selection. It starts closed.
func NewEditor(updater ObjectUpdater, objects ObjectSource, st *state.Store) *Editor {
	e := &Editor{
		updater: updater,
		objects: objects,
		state:   st,
	}
	st.OnSelectionChange(e.selectionChanged)
	return e
}

// Editing reports whether the editor is open. The interaction
// controller uses this as its keyboard-shortcut guard.
func (e *Editor) Editing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current != nil
}

// Current returns the open editor state, if any.
func (e *Editor) Current() (EditorState, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return EditorState{}, false
	}
	return *e.current, true
}

// Save commits the edited text and styling, then closes the editor by
// clearing the selection. Width and height are clamped to the minimum
// object size before the intent is sent.
func (e *Editor) Save(ctx context.Context, text string, fontSize int, fontWeight, textColor string, width, height float64) error {
	e.mu.Lock()
	if e.current == nil {
		e.mu.Unlock()
		return nil
	}
	id := e.current.ObjectID
	e.mu.Unlock()

	if width < core.MinObjectSize {
		width = core.MinObjectSize
	}
	if height < core.MinObjectSize {
		height = core.MinObjectSize
	}

	_, err := e.updater.Update(ctx, id, core.UpdateObjectRequest{
		ContentURL: &text,
		FontSize:   &fontSize,
		FontWeight: &fontWeight,
		TextColor:  &textColor,
		Width:      &width,
		Height:     &height,
	})
	if err != nil {
		logrus.WithError(err).WithField("object_id", id).Error("text save failed")
		return err
	}

	e.state.Deselect()
	return nil
}

// Cancel discards the edit and closes the editor.
func (e *Editor) Cancel() {
	e.state.Deselect()
}

// selectionChanged opens the editor for TEXT selections and closes it
// for anything else, including a cleared selection.
func (e *Editor) selectionChanged(id int64, selected bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !selected {
		e.current = nil
		return
	}

	obj, ok := e.objects.Get(id)
	if !ok || obj.ObjectType != core.ObjectText {
		e.current = nil
		return
	}

	editor := &EditorState{
		ObjectID:   obj.ID,
		Text:       obj.ContentURL,
		FontSize:   16,
		FontWeight: "normal",
		TextColor:  "#333333",
		CanvasX:    obj.PositionX,
		CanvasY:    obj.PositionY,
		Width:      obj.Width,
		Height:     obj.Height,
	}
	if obj.FontSize != nil {
		editor.FontSize = *obj.FontSize
	}
	if obj.FontWeight != nil {
		editor.FontWeight = *obj.FontWeight
	}
	if obj.TextColor != nil {
		editor.TextColor = *obj.TextColor
	}
	e.current = editor
}
