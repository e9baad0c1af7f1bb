// Package state holds the mutable UI state shared across the client:
// the pan/zoom transform, the current selection, the loading flag and
// the grid toggle. It is an explicit, injectable container; every other
// component receives it by reference and goes through its mutators.
package state

import (
	"sync"

	"canvasearth-client/core"
)

// Store is the client-side UI state container.
type Store struct {
	mu        sync.RWMutex
	transform core.CanvasTransform
	selected  int64
	hasSel    bool
	loading   bool
	showGrid  bool

	transformListeners []func(core.CanvasTransform)
	selectionListeners []func(id int64, selected bool)
}

// NewStore returns a store with the initial canvas state: identity
// transform at scale 1, nothing selected, grid shown.
func NewStore() *Store {
	return &Store{
		transform: core.CanvasTransform{Scale: 1},
		showGrid:  true,
	}
}

// Transform returns the current pan/zoom transform.
func (s *Store) Transform() core.CanvasTransform {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.transform
}

// SetTransform replaces the transform and notifies transform listeners.
func (s *Store) SetTransform(t core.CanvasTransform) {
	s.mu.Lock()
	s.transform = t
	listeners := s.transformListeners
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(t)
	}
}

// OnTransformChange registers a listener invoked after every transform
// change. Listeners must not block.
func (s *Store) OnTransformChange(fn func(core.CanvasTransform)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transformListeners = append(s.transformListeners, fn)
}

// Selected returns the selected object id, if any.
func (s *Store) Selected() (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected, s.hasSel
}

// Select marks the given object as the single selected object.
func (s *Store) Select(id int64) {
	s.mu.Lock()
	s.selected = id
	s.hasSel = true
	listeners := s.selectionListeners
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(id, true)
	}
}

// Deselect clears the selection.
func (s *Store) Deselect() {
	s.mu.Lock()
	s.selected = 0
	s.hasSel = false
	listeners := s.selectionListeners
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(0, false)
	}
}

// ClearSelectionIf deselects only if the given object is the selected
// one. Used when an object is deleted locally or remotely.
func (s *Store) ClearSelectionIf(id int64) {
	s.mu.Lock()
	if !s.hasSel || s.selected != id {
		s.mu.Unlock()
		return
	}
	s.selected = 0
	s.hasSel = false
	listeners := s.selectionListeners
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(0, false)
	}
}

// OnSelectionChange registers a listener invoked after every selection
// change with the new selection.
func (s *Store) OnSelectionChange(fn func(id int64, selected bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectionListeners = append(s.selectionListeners, fn)
}

// Loading reports whether a viewport query is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// SetLoading sets the loading flag.
func (s *Store) SetLoading(loading bool) {
	s.mu.Lock()
	s.loading = loading
	s.mu.Unlock()
}

// ShowGrid reports whether the background grid is drawn.
func (s *Store) ShowGrid() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.showGrid
}

// ToggleGrid flips the grid toggle.
func (s *Store) ToggleGrid() {
	s.mu.Lock()
	s.showGrid = !s.showGrid
	s.mu.Unlock()
}
