package interaction

import (
	"context"
	"math"
	"testing"

	"canvasearth-client/core"
	"canvasearth-client/repository"
	"canvasearth-client/state"
)

type mockAPI struct {
	updates int
	deletes int
	nextID  int64
	objects []core.CanvasObject
}

func (m *mockAPI) ObjectsInViewport(ctx context.Context, bounds core.ViewportBounds) ([]core.CanvasObject, error) {
	return m.objects, nil
}

func (m *mockAPI) CreateObject(ctx context.Context, req core.CreateObjectRequest) (*core.CanvasObject, error) {
	m.nextID++
	return &core.CanvasObject{
		ID:         m.nextID,
		ObjectType: req.ObjectType,
		ContentURL: req.ContentURL,
		PositionX:  req.PositionX,
		PositionY:  req.PositionY,
		Width:      req.Width,
		Height:     req.Height,
		ZIndex:     req.ZIndex,
		UserID:     req.UserID,
		FontSize:   req.FontSize,
		FontWeight: req.FontWeight,
		TextColor:  req.TextColor,
	}, nil
}

func (m *mockAPI) UpdateObject(ctx context.Context, id int64, req core.UpdateObjectRequest) (*core.CanvasObject, error) {
	m.updates++
	updated := core.CanvasObject{ID: id}
	if req.PositionX != nil {
		updated.PositionX = *req.PositionX
	}
	if req.PositionY != nil {
		updated.PositionY = *req.PositionY
	}
	if req.Width != nil {
		updated.Width = *req.Width
	}
	if req.Height != nil {
		updated.Height = *req.Height
	}
	return &updated, nil
}

func (m *mockAPI) DeleteObject(ctx context.Context, id int64) error {
	m.deletes++
	return nil
}

func (m *mockAPI) UploadFile(ctx context.Context, upload core.FileUpload) (*core.CanvasObject, error) {
	m.nextID++
	return &core.CanvasObject{ID: m.nextID, ObjectType: upload.ObjectType}, nil
}

func newController(t *testing.T, objects ...core.CanvasObject) (*Controller, *mockAPI, *state.Store, *repository.Repository) {
	t.Helper()
	api := &mockAPI{objects: objects}
	st := state.NewStore()
	repo := repository.New(api, st)
	if len(objects) > 0 {
		if _, err := repo.Query(context.Background(), core.ViewportBounds{}); err != nil {
			t.Fatalf("seeding repository: %v", err)
		}
	}
	return New(st, repo, core.Size{Width: 800, Height: 600}, 1), api, st, repo
}

func TestWheelZoom_CursorStaysFixed(t *testing.T) {
	transforms := []core.CanvasTransform{
		{Scale: 1, X: 0, Y: 0},
		{Scale: 1.5, X: 30, Y: -20},
		{Scale: 0.2, X: -400, Y: 250},
	}
	pointers := []core.Point{{X: 200, Y: 150}, {X: 0, Y: 0}, {X: 799, Y: 599}}

	for _, transform := range transforms {
		for _, pointer := range pointers {
			for _, deltaY := range []float64{-120, 120} {
				controller, _, st, _ := newController(t)
				st.SetTransform(transform)

				before := st.Transform().ToCanvas(pointer)
				controller.WheelZoom(pointer, deltaY)
				after := st.Transform().ToCanvas(pointer)

				if math.Abs(before.X-after.X) > 1e-9 || math.Abs(before.Y-after.Y) > 1e-9 {
					t.Errorf("transform %+v pointer %+v deltaY %v: canvas point under cursor moved from %+v to %+v",
						transform, pointer, deltaY, before, after)
				}
			}
		}
	}
}

func TestWheelZoom_ScaleDirectionAndStep(t *testing.T) {
	controller, _, st, _ := newController(t)

	controller.WheelZoom(core.Point{X: 400, Y: 300}, -120) // wheel up zooms in
	if got := st.Transform().Scale; math.Abs(got-DefaultScaleBy) > 1e-12 {
		t.Errorf("scale after zoom in = %v, want %v", got, DefaultScaleBy)
	}

	controller.WheelZoom(core.Point{X: 400, Y: 300}, 120) // wheel down zooms out
	if got := st.Transform().Scale; math.Abs(got-1) > 1e-12 {
		t.Errorf("scale after zooming back out = %v, want 1", got)
	}
}

func TestWheelZoom_ClampsToScaleBounds(t *testing.T) {
	controller, _, st, _ := newController(t)

	st.SetTransform(core.CanvasTransform{Scale: DefaultMaxScale})
	controller.WheelZoom(core.Point{X: 100, Y: 100}, -120)
	if got := st.Transform().Scale; got != DefaultMaxScale {
		t.Errorf("scale exceeded max: %v", got)
	}

	st.SetTransform(core.CanvasTransform{Scale: DefaultMinScale})
	controller.WheelZoom(core.Point{X: 100, Y: 100}, 120)
	if got := st.Transform().Scale; got != DefaultMinScale {
		t.Errorf("scale went under min: %v", got)
	}
}

func TestPanEnd_IgnoresObjectDrags(t *testing.T) {
	controller, _, st, _ := newController(t)

	controller.PanEnd(TargetObject, core.Point{X: 500, Y: 500})
	if got := st.Transform(); got.X != 0 || got.Y != 0 {
		t.Fatalf("object drag moved the canvas to (%v, %v)", got.X, got.Y)
	}

	controller.PanEnd(TargetSurface, core.Point{X: -120, Y: 80})
	got := st.Transform()
	if got.X != -120 || got.Y != 80 {
		t.Fatalf("background pan ended at (%v, %v), want (-120, 80)", got.X, got.Y)
	}
	if got.Scale != 1 {
		t.Errorf("pan changed the scale to %v", got.Scale)
	}
}

func TestClick_SelectionLifecycle(t *testing.T) {
	controller, _, st, _ := newController(t)

	controller.Click(TargetObject, 9)
	if id, ok := st.Selected(); !ok || id != 9 {
		t.Fatalf("selection = (%d, %v), want (9, true)", id, ok)
	}

	controller.Click(TargetSurface, 0)
	if _, ok := st.Selected(); ok {
		t.Fatal("clicking empty background did not clear the selection")
	}
}

func TestResizeEnd_RejectsBelowFloor(t *testing.T) {
	obj := core.CanvasObject{ID: 1, ObjectType: core.ObjectImage, Width: 50, Height: 50}
	controller, api, _, repo := newController(t, obj)

	if err := controller.ResizeEnd(context.Background(), 1, 4, 40); err == nil {
		t.Fatal("resize below the 5x5 floor was accepted")
	}
	if api.updates != 0 {
		t.Fatal("a rejected resize still sent an update intent")
	}
	cached, _ := repo.Get(1)
	if cached.Width != 50 || cached.Height != 50 {
		t.Errorf("prior size not retained: %vx%v", cached.Width, cached.Height)
	}
}

func TestResizeEnd_CapsVideoSize(t *testing.T) {
	video := core.CanvasObject{ID: 2, ObjectType: core.ObjectVideo, Width: 560, Height: 315}
	controller, api, _, _ := newController(t, video)

	if err := controller.ResizeEnd(context.Background(), 2, 2400, 900); err == nil {
		t.Fatal("video resize past the maximum bound was accepted")
	}
	if api.updates != 0 {
		t.Fatal("a rejected video resize still sent an update intent")
	}

	// images have no upper cap
	image := core.CanvasObject{ID: 3, ObjectType: core.ObjectImage, Width: 100, Height: 100}
	controller, api, _, _ = newController(t, image)
	if err := controller.ResizeEnd(context.Background(), 3, 2400, 900); err != nil {
		t.Fatalf("large image resize rejected: %v", err)
	}
	if api.updates != 1 {
		t.Fatal("accepted resize did not send an update intent")
	}
}

func TestDrag_PublishesLiveGestureThenCommits(t *testing.T) {
	obj := core.CanvasObject{ID: 4, ObjectType: core.ObjectImage, Width: 50, Height: 50}
	controller, api, _, repo := newController(t, obj)

	controller.DragMove(4, 200, 120)
	rect, ok := controller.LiveGesture(4)
	if !ok {
		t.Fatal("no live gesture during a drag")
	}
	if rect.X != 200 || rect.Y != 120 || rect.Width != 50 {
		t.Fatalf("live gesture = %+v, want position (200, 120) at size 50x50", rect)
	}

	if err := controller.DragEnd(context.Background(), 4, 210, 130); err != nil {
		t.Fatalf("DragEnd() failed: %v", err)
	}
	if api.updates != 1 {
		t.Fatal("drag end did not send an update intent")
	}
	if _, ok := controller.LiveGesture(4); ok {
		t.Fatal("live gesture survived the drag end")
	}
	cached, _ := repo.Get(4)
	if cached.PositionX != 210 || cached.PositionY != 130 {
		t.Errorf("committed position = (%v, %v), want (210, 130)", cached.PositionX, cached.PositionY)
	}
}

func TestKeyDown_DeleteShortcut(t *testing.T) {
	obj := core.CanvasObject{ID: 5, ObjectType: core.ObjectText, Width: 200, Height: 50}
	controller, api, st, repo := newController(t, obj)
	st.Select(5)

	controller.KeyDown(context.Background(), KeyDelete)

	if api.deletes != 1 {
		t.Fatal("Delete did not trigger delete-selected")
	}
	if _, ok := repo.Get(5); ok {
		t.Fatal("object still cached after the delete shortcut")
	}
}

func TestKeyDown_DisabledWhileTextEditing(t *testing.T) {
	obj := core.CanvasObject{ID: 6, ObjectType: core.ObjectText, Width: 200, Height: 50}
	controller, api, st, _ := newController(t, obj)
	st.Select(6)
	controller.SetTextEditingGuard(func() bool { return true })

	controller.KeyDown(context.Background(), KeyBackspace)
	controller.KeyDown(context.Background(), KeyEscape)

	if api.deletes != 0 {
		t.Fatal("delete shortcut fired while a text editor was open")
	}
	if _, ok := st.Selected(); !ok {
		t.Fatal("escape cleared the selection while a text editor was open")
	}
}

func TestKeyDown_EscapeDeselects(t *testing.T) {
	controller, _, st, _ := newController(t)
	st.Select(7)

	controller.KeyDown(context.Background(), KeyEscape)

	if _, ok := st.Selected(); ok {
		t.Fatal("escape did not clear the selection")
	}
}

func TestAddText_PlacedAtViewportCenter(t *testing.T) {
	controller, _, _, repo := newController(t)

	created, err := controller.AddText(context.Background())
	if err != nil {
		t.Fatalf("AddText() failed: %v", err)
	}

	// identity transform, 800x600 surface: center (400, 300)
	if created.PositionX != 300 || created.PositionY != 275 {
		t.Errorf("text placed at (%v, %v), want (300, 275)", created.PositionX, created.PositionY)
	}
	if created.ObjectType != core.ObjectText || created.Width != 200 || created.Height != 50 {
		t.Errorf("unexpected text object: %+v", created)
	}
	if created.FontSize == nil || *created.FontSize != 16 {
		t.Error("default font size not applied")
	}
	if _, ok := repo.Get(created.ID); !ok {
		t.Error("created text object not cached")
	}
}

func TestAddImage_RejectedLocallyBeforeUpload(t *testing.T) {
	controller, api, _, _ := newController(t)

	oversized := make([]byte, 6<<20)
	copy(oversized, []byte{0x89, 0x50, 0x4E, 0x47})

	_, err := controller.AddImage(context.Background(), "big.png", "image/png", oversized, nil, 300, 300)
	if err == nil {
		t.Fatal("6 MiB png was accepted")
	}
	if api.nextID != 0 {
		t.Fatal("a locally rejected upload still reached the network")
	}
}

func TestFitImageSize(t *testing.T) {
	cases := []struct {
		name         string
		w, h         float64
		wantW, wantH float64
	}{
		{name: "small image unchanged", w: 300, h: 200, wantW: 300, wantH: 200},
		{name: "at the cap unchanged", w: 800, h: 600, wantW: 800, wantH: 600},
		{name: "wide image scaled", w: 1600, h: 400, wantW: 800, wantH: 200},
		{name: "tall image scaled", w: 500, h: 2000, wantW: 200, wantH: 800},
		{name: "zero size unchanged", w: 0, h: 0, wantW: 0, wantH: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, h := FitImageSize(tc.w, tc.h)
			if w != tc.wantW || h != tc.wantH {
				t.Errorf("FitImageSize(%v, %v) = (%v, %v), want (%v, %v)", tc.w, tc.h, w, h, tc.wantW, tc.wantH)
			}
		})
	}
}

func TestPlayObject_EmitsTypedCommands(t *testing.T) {
	youtube := core.CanvasObject{ID: 8, ObjectType: core.ObjectYouTube, ContentURL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ"}
	video := core.CanvasObject{ID: 9, ObjectType: core.ObjectVideo, ContentURL: "https://cdn.example.com/clip.mp4"}
	controller, _, _, _ := newController(t, youtube, video)

	controller.PlayObject(8)
	controller.PlayObject(9)
	controller.PlayObject(404) // unknown id is ignored

	cmd := <-controller.Commands()
	play, ok := cmd.(PlayYouTubeCommand)
	if !ok || play.ObjectID != 8 {
		t.Fatalf("first command = %#v, want PlayYouTubeCommand for object 8", cmd)
	}

	cmd = <-controller.Commands()
	playVideo, ok := cmd.(PlayVideoCommand)
	if !ok || playVideo.ObjectID != 9 {
		t.Fatalf("second command = %#v, want PlayVideoCommand for object 9", cmd)
	}

	select {
	case extra := <-controller.Commands():
		t.Fatalf("unexpected extra command %#v", extra)
	default:
	}
}
