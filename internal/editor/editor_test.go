package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/voltmap/voltmap/internal/diagram"
	"github.com/voltmap/voltmap/internal/store"
)

// fakeStore records every write and lets tests inject failures per method.
type fakeStore struct {
	mu sync.Mutex

	loadFn func() *diagram.Diagram
	loads  int

	moves         []map[string]store.PointPos
	inserted      []store.PointRecord
	resequenced   []map[string]int
	deletedPoints []string
	polygonSets   map[string]bool
	deletedShapes []string
	createdShapes []store.ShapeRecord
	createdPoints []store.PointRecord
	createdGlues  []string

	failOn map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		polygonSets: make(map[string]bool),
		failOn:      make(map[string]error),
	}
}

func (f *fakeStore) fail(method string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failOn[method] = errors.New(method + " rejected")
}

func (f *fakeStore) err(method string) error {
	return f.failOn[method]
}

func (f *fakeStore) LoadDiagram(ctx context.Context, diagramID string) (*diagram.Diagram, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	if err := f.err("LoadDiagram"); err != nil {
		return nil, err
	}
	return f.loadFn(), nil
}

func (f *fakeStore) MovePoints(ctx context.Context, moves map[string]store.PointPos) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("MovePoints"); err != nil {
		return err
	}
	f.moves = append(f.moves, moves)
	return nil
}

func (f *fakeStore) InsertPoint(ctx context.Context, rec store.PointRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("InsertPoint"); err != nil {
		return err
	}
	f.inserted = append(f.inserted, rec)
	return nil
}

func (f *fakeStore) Resequence(ctx context.Context, seqs map[string]int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("Resequence"); err != nil {
		return err
	}
	f.resequenced = append(f.resequenced, seqs)
	return nil
}

func (f *fakeStore) DeletePoint(ctx context.Context, pointID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("DeletePoint"); err != nil {
		return err
	}
	f.deletedPoints = append(f.deletedPoints, pointID)
	return nil
}

func (f *fakeStore) SetPolygon(ctx context.Context, shapeID string, polygon bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("SetPolygon"); err != nil {
		return err
	}
	f.polygonSets[shapeID] = polygon
	return nil
}

func (f *fakeStore) DeleteShape(ctx context.Context, shapeID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("DeleteShape"); err != nil {
		return err
	}
	f.deletedShapes = append(f.deletedShapes, shapeID)
	return nil
}

func (f *fakeStore) CreateShape(ctx context.Context, rec store.ShapeRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("CreateShape"); err != nil {
		return err
	}
	f.createdShapes = append(f.createdShapes, rec)
	return nil
}

func (f *fakeStore) CreatePoint(ctx context.Context, rec store.PointRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("CreatePoint"); err != nil {
		return err
	}
	f.createdPoints = append(f.createdPoints, rec)
	return nil
}

func (f *fakeStore) CreateGlue(ctx context.Context, glueID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("CreateGlue"); err != nil {
		return err
	}
	f.createdGlues = append(f.createdGlues, glueID)
	return nil
}

type fakeClipboard struct {
	text     string
	readErr  error
	writeErr error
}

func (c *fakeClipboard) ReadAll() (string, error) { return c.text, c.readErr }

func (c *fakeClipboard) WriteAll(text string) error {
	if c.writeErr != nil {
		return c.writeErr
	}
	c.text = text
	return nil
}

// lineShape builds a non-polygon shape with dense sequence numbers.
func lineShape(id string, coords ...[2]float64) *diagram.Shape {
	s := &diagram.Shape{ID: id, Name: "shape " + id}
	for i, c := range coords {
		s.Points = append(s.Points, &diagram.Point{
			ID: fmt.Sprintf("%s-p%d", id, i),
			X:  c[0],
			Y:  c[1],
		})
	}
	return s
}

// newTestEditor wires an editor to a fake store with an identity view, so
// screen and world coordinates coincide. hitThreshold is in screen units.
func newTestEditor(st *fakeStore, clip *fakeClipboard, hitThreshold float64, shapes ...*diagram.Shape) *Editor {
	d := diagram.New("urn:voltmap:diag_test", "test diagram")
	for _, s := range shapes {
		d.AddShape(s)
	}
	if clip == nil {
		clip = &fakeClipboard{}
	}
	e := New(st, d.ID, Options{
		GridSize:      5,
		HitThreshold:  hitThreshold,
		DragThreshold: 0.5,
		HoverDebounce: 150 * time.Millisecond,
		CommitTimeout: time.Second,
		CanvasW:       800,
		CanvasH:       600,
		Clipboard:     clip,
	})
	e.d = d
	return e
}

func waitCommit(t *testing.T, e *Editor) commitResult {
	t.Helper()
	select {
	case res := <-e.Commits():
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for commit result")
		return commitResult{}
	}
}

func TestLoadResetsStateAndFitsView(t *testing.T) {
	st := newFakeStore()
	st.loadFn = func() *diagram.Diagram {
		d := diagram.New("urn:voltmap:diag_test", "substation west")
		d.AddShape(lineShape("s1", [2]float64{0, 0}, [2]float64{2000, 1000}))
		return d
	}

	var statuses []string
	e := newTestEditor(st, nil, 10)
	e.SetCallbacks(nil, func(text string) { statuses = append(statuses, text) }, nil)
	e.sel.Add("stale-id")
	e.mode = ModeDrag

	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if e.CurrentMode() != ModeIdle {
		t.Error("mode not reset on load")
	}
	if e.Selection().Len() != 0 {
		t.Error("selection not cleared on load")
	}
	if e.View().Scale >= 1 {
		t.Errorf("large diagram should zoom out, scale = %v", e.View().Scale)
	}
	if len(statuses) == 0 {
		t.Fatal("no load status emitted")
	}
	if statuses[len(statuses)-1] != "loaded substation west: 1 shapes, 2 points" {
		t.Errorf("unexpected status %q", statuses[len(statuses)-1])
	}
}

func TestLoadFailureSurfacesError(t *testing.T) {
	st := newFakeStore()
	st.fail("LoadDiagram")
	e := newTestEditor(st, nil, 10)
	if err := e.Load(context.Background()); err == nil {
		t.Fatal("expected load error")
	}
}

func TestSceneCarriesSelectionAndRubberBand(t *testing.T) {
	st := newFakeStore()
	e := newTestEditor(st, nil, 10, lineShape("s1", [2]float64{0, 0}, [2]float64{50, 0}))
	e.sel.Add("s1-p0")

	scene := e.Scene()
	if !scene.Selected["s1-p0"] || scene.Selected["s1-p1"] {
		t.Errorf("selection snapshot wrong: %v", scene.Selected)
	}
	if scene.SelectRect != nil {
		t.Error("rubber band present outside Select mode")
	}

	e.PointerDown(200, 200, true)
	e.PointerMove(240, 260, false)
	scene = e.Scene()
	if scene.SelectRect == nil {
		t.Fatal("rubber band missing in Select mode")
	}
	if scene.SelectRect.MinX != 200 || scene.SelectRect.MaxY != 260 {
		t.Errorf("rubber band rect wrong: %+v", scene.SelectRect)
	}
}

func TestHoverDebounce(t *testing.T) {
	st := newFakeStore()
	var tips []*Tooltip
	e := newTestEditor(st, nil, 10, lineShape("s1", [2]float64{100, 100}, [2]float64{200, 100}))
	e.SetCallbacks(nil, nil, func(tip *Tooltip) { tips = append(tips, tip) })

	e.PointerMove(101, 99, false)
	e.HoverTick(time.Now())
	if len(tips) != 0 {
		t.Fatal("tooltip fired before the debounce window")
	}

	e.HoverTick(time.Now().Add(200 * time.Millisecond))
	if len(tips) != 1 || tips[0] == nil {
		t.Fatalf("expected one tooltip, got %v", tips)
	}
	if tips[0].PointID != "s1-p0" || tips[0].ShapeID != "s1" || tips[0].Seq != 0 {
		t.Errorf("tooltip fields wrong: %+v", tips[0])
	}

	// Moving away from any point hides the tooltip after the next settle.
	e.PointerMove(500, 500, false)
	e.HoverTick(time.Now().Add(400 * time.Millisecond))
	if len(tips) != 2 || tips[1] != nil {
		t.Fatalf("expected hide, got %v", tips)
	}
}

func TestHoverOnlyRunsInIdle(t *testing.T) {
	st := newFakeStore()
	var tips []*Tooltip
	e := newTestEditor(st, nil, 10, lineShape("s1", [2]float64{100, 100}, [2]float64{200, 100}))
	e.SetCallbacks(nil, nil, func(tip *Tooltip) { tips = append(tips, tip) })

	e.PointerDown(400, 400, false) // Pan
	e.PointerMove(101, 99, false)
	e.HoverTick(time.Now().Add(time.Second))
	if len(tips) != 0 {
		t.Errorf("tooltip fired while panning: %v", tips)
	}
	e.PointerUp(101, 99)
}

func TestResizeFeedsAutoFit(t *testing.T) {
	st := newFakeStore()
	st.loadFn = func() *diagram.Diagram {
		d := diagram.New("urn:voltmap:diag_test", "test")
		d.AddShape(lineShape("s1", [2]float64{0, 0}, [2]float64{4000, 100}))
		return d
	}
	e := newTestEditor(st, nil, 10)
	e.Resize(400, 300)
	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if e.View().Scale > 400.0/4000.0 {
		t.Errorf("auto-fit ignored resized canvas: scale %v", e.View().Scale)
	}
}
