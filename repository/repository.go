// Package repository holds the single client-side source of truth for
// canvas objects. All mutations go through it: local intents are sent to
// the server first and only the canonical response is written back (no
// optimistic pre-commit), and foreign mutations arrive through
// ApplyRemote from the transport channel. The rendering layer only reads.
package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"canvasearth-client/core"
	"canvasearth-client/state"
)

// Repository is the canvas object cache.
//
// Consistency model: last write observed wins at object granularity.
// There are no version numbers, so a local update whose response arrives
// after a remote push for the same object clobbers it, and vice versa.
// Every write path is idempotent by id equality plus full-object
// replacement, which keeps duplicate deliveries harmless.
type Repository struct {
	api   core.ObjectAPI
	state *state.Store

	mu      sync.RWMutex
	objects map[int64]core.CanvasObject

	deleteListeners []func(id int64)
}

// New returns an empty repository backed by the given API client and
// UI state container.
func New(api core.ObjectAPI, st *state.Store) *Repository {
	return &Repository{
		api:     api,
		state:   st,
		objects: make(map[int64]core.CanvasObject),
	}
}

// Query fetches the objects in the given viewport and replaces the
// cached set with the response; the server is authoritative for which
// objects lie in a viewport. The cache is untouched on failure.
func (r *Repository) Query(ctx context.Context, bounds core.ViewportBounds) ([]core.CanvasObject, error) {
	r.state.SetLoading(true)
	defer r.state.SetLoading(false)

	fetched, err := r.api.ObjectsInViewport(ctx, bounds)
	if err != nil {
		logrus.WithError(err).Error("viewport query failed")
		return nil, err
	}

	r.mu.Lock()
	r.objects = make(map[int64]core.CanvasObject, len(fetched))
	for _, obj := range fetched {
		r.objects[obj.ID] = obj
	}
	r.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"count": len(fetched),
		"minX":  bounds.MinX,
		"minY":  bounds.MinY,
	}).Debug("viewport refreshed")
	return fetched, nil
}

// Objects returns a snapshot of the cached set ordered by stacking
// order (zIndex, then id for a stable tie-break).
func (r *Repository) Objects() []core.CanvasObject {
	r.mu.RLock()
	snapshot := make([]core.CanvasObject, 0, len(r.objects))
	for _, obj := range r.objects {
		snapshot = append(snapshot, obj)
	}
	r.mu.RUnlock()

	sort.Slice(snapshot, func(i, j int) bool {
		if snapshot[i].ZIndex == snapshot[j].ZIndex {
			return snapshot[i].ID < snapshot[j].ID
		}
		return snapshot[i].ZIndex < snapshot[j].ZIndex
	})
	return snapshot
}

// Get returns the cached object with the given id.
func (r *Repository) Get(id int64) (core.CanvasObject, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	obj, ok := r.objects[id]
	return obj, ok
}

// Len returns the number of cached objects.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.objects)
}

// Create sends a creation intent and inserts the canonical response.
// If a push notification for the same object already arrived, the
// insert is a no-op so the object never appears twice.
func (r *Repository) Create(ctx context.Context, req core.CreateObjectRequest) (*core.CanvasObject, error) {
	created, err := r.api.CreateObject(ctx, req)
	if err != nil {
		logrus.WithError(err).WithField("object_type", req.ObjectType).Error("create failed")
		return nil, err
	}

	r.insertIfAbsent(*created)
	return created, nil
}

// Upload sends a file upload and inserts the created object with the
// same dedup guard as Create.
func (r *Repository) Upload(ctx context.Context, upload core.FileUpload) (*core.CanvasObject, error) {
	created, err := r.api.UploadFile(ctx, upload)
	if err != nil {
		logrus.WithError(err).WithField("filename", upload.Filename).Error("upload failed")
		return nil, err
	}

	r.insertIfAbsent(*created)
	return created, nil
}

// Update sends a partial update and replaces the cached object with the
// canonical response. Client-held fields are never merged in; the
// response is the new truth.
func (r *Repository) Update(ctx context.Context, id int64, req core.UpdateObjectRequest) (*core.CanvasObject, error) {
	updated, err := r.api.UpdateObject(ctx, id, req)
	if err != nil {
		logrus.WithError(err).WithField("object_id", id).Error("update failed")
		return nil, err
	}

	r.mu.Lock()
	r.objects[updated.ID] = *updated
	r.mu.Unlock()
	return updated, nil
}

// Delete sends a delete intent, then removes the object from the cache
// and clears the selection if it pointed at the object.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if err := r.api.DeleteObject(ctx, id); err != nil {
		logrus.WithError(err).WithField("object_id", id).Error("delete failed")
		return err
	}

	r.remove(id)
	return nil
}

// ApplyRemote merges a push-received change into the cache. Guards make
// at-least-once delivery safe: CREATE is a no-op when the id already
// exists, UPDATE replaces only an existing object, DELETE removes by id
// and clears a matching selection.
func (r *Repository) ApplyRemote(change core.ChangeNotification) {
	if !change.Valid() {
		logrus.WithField("type", change.Type).Warn("dropping invalid change notification")
		return
	}

	switch change.Type {
	case core.ChangeCreate:
		r.insertIfAbsent(*change.Object)
	case core.ChangeUpdate:
		r.mu.Lock()
		if _, ok := r.objects[change.Object.ID]; ok {
			r.objects[change.Object.ID] = *change.Object
		}
		r.mu.Unlock()
	case core.ChangeDelete:
		r.remove(change.ObjectID)
	}
}

// OnDelete registers a listener invoked after any object is removed
// from the cache, whether by a local delete or a remote push. Overlay
// owners use this to close players tracking a vanished object.
func (r *Repository) OnDelete(fn func(id int64)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleteListeners = append(r.deleteListeners, fn)
}

func (r *Repository) insertIfAbsent(obj core.CanvasObject) {
	r.mu.Lock()
	_, exists := r.objects[obj.ID]
	if !exists {
		r.objects[obj.ID] = obj
	}
	r.mu.Unlock()

	if exists {
		logrus.WithField("object_id", obj.ID).Debug("object already cached, skipping insert")
	}
}

func (r *Repository) remove(id int64) {
	r.mu.Lock()
	_, existed := r.objects[id]
	delete(r.objects, id)
	listeners := r.deleteListeners
	r.mu.Unlock()

	r.state.ClearSelectionIf(id)
	if existed {
		for _, fn := range listeners {
			fn(id)
		}
	}
}
