// Package editor implements the interactive manipulation core: the pointer
// state machine, selection, grid snapping and the optimistic mutate/commit/
// rollback pipeline that keeps the in-memory diagram and the remote graph
// consistent. An Editor is owned by exactly one goroutine (its session loop);
// only the asynchronous commit goroutines run elsewhere, and they communicate
// back through the commit channel.
package editor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/voltmap/voltmap/internal/diagram"
	"github.com/voltmap/voltmap/internal/geometry"
	"github.com/voltmap/voltmap/internal/render"
	"github.com/voltmap/voltmap/internal/store"
	"github.com/voltmap/voltmap/internal/view"
)

// Store is the persistence backend as the editor consumes it. Implemented by
// store.Client; tests substitute fakes. Writes are "applied or failed" with
// no transaction guarantee.
type Store interface {
	LoadDiagram(ctx context.Context, diagramID string) (*diagram.Diagram, error)
	MovePoints(ctx context.Context, moves map[string]store.PointPos) error
	InsertPoint(ctx context.Context, rec store.PointRecord) error
	Resequence(ctx context.Context, seqs map[string]int) error
	DeletePoint(ctx context.Context, pointID string) error
	SetPolygon(ctx context.Context, shapeID string, polygon bool) error
	DeleteShape(ctx context.Context, shapeID string) error
	CreateShape(ctx context.Context, rec store.ShapeRecord) error
	CreatePoint(ctx context.Context, rec store.PointRecord) error
	CreateGlue(ctx context.Context, glueID string) error
}

// Clipboard abstracts the system clipboard so copy/paste is testable.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

// Tooltip describes the hovered point for the detail panel.
type Tooltip struct {
	PointID   string  `json:"pointId"`
	ShapeID   string  `json:"shapeId"`
	ShapeName string  `json:"shapeName"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Seq       int     `json:"seq"`
}

// Mode is the interaction state machine's current state.
type Mode int

const (
	ModeIdle Mode = iota
	ModePan
	ModeSelect
	ModeDrag
)

// Options configures an Editor. Zero-value callbacks are allowed.
type Options struct {
	GridSize      float64
	HitThreshold  float64 // base pick threshold, screen units
	DragThreshold float64 // minimum drag delta per axis, world units
	HoverDebounce time.Duration
	CommitTimeout time.Duration
	CanvasW       float64
	CanvasH       float64
	Clipboard     Clipboard
	OnFrame       func()
	OnStatus      func(text string)
	OnTooltip     func(t *Tooltip) // nil hides the tooltip
}

// Editor owns one editing surface: the diagram, the viewport transform, the
// selection and the interaction state.
type Editor struct {
	store Store
	opts  Options

	diagramID string
	d         *diagram.Diagram
	view      *view.Transform
	sel       *Selection

	mode Mode

	// Panning (screen coordinates).
	panX, panY float64

	// Selecting and dragging (world coordinates).
	dragStart geometry.Pt
	dragEnd   geometry.Pt
	anchorID  string
	original  map[string]geometry.Pt // pre-drag positions, never mutated mid-drag
	snapOff   bool

	// Last known pointer position, world coordinates. Paste target.
	pointerWorld geometry.Pt

	// Hover debounce state.
	hoverAt      geometry.Pt
	hoverSince   time.Time
	hoverPending bool
	hoveredPoint string

	// Commit pipeline. gen is bumped on every (re)load; in-flight commits
	// tagged with an older generation are dropped on arrival.
	gen     uint64
	commits chan commitResult
}

// New creates an editor bound to a backing store and a diagram id. Call Load
// before feeding events.
func New(st Store, diagramID string, opts Options) *Editor {
	if opts.Clipboard == nil {
		opts.Clipboard = systemClipboard{}
	}
	return &Editor{
		store:     st,
		opts:      opts,
		diagramID: diagramID,
		view:      view.New(1, 0, 0),
		sel:       NewSelection(),
		commits:   make(chan commitResult, 16),
	}
}

// SetCallbacks wires the frame, status and tooltip sinks. The session owns
// the connection and cannot exist before the editor, so the callbacks are
// attached after construction. Must be called before Load.
func (e *Editor) SetCallbacks(onFrame func(), onStatus func(string), onTooltip func(*Tooltip)) {
	e.opts.OnFrame = onFrame
	e.opts.OnStatus = onStatus
	e.opts.OnTooltip = onTooltip
}

// Commits exposes the commit-result channel for the session loop to select
// on. Results must be passed to Resolve on the editor's goroutine.
func (e *Editor) Commits() <-chan commitResult { return e.commits }

// Diagram returns the current in-memory diagram.
func (e *Editor) Diagram() *diagram.Diagram { return e.d }

// View returns the viewport transform.
func (e *Editor) View() *view.Transform { return e.view }

// Selection returns the selection model.
func (e *Editor) Selection() *Selection { return e.sel }

// CurrentMode returns the interaction state machine's state.
func (e *Editor) CurrentMode() Mode { return e.mode }

// Load fetches the diagram from the store, replacing all local state. The
// selection is cleared, the interaction state reset, and the view auto-fitted
// to the diagram bounds.
func (e *Editor) Load(ctx context.Context) error {
	d, err := e.store.LoadDiagram(ctx, e.diagramID)
	if err != nil {
		e.status(fmt.Sprintf("load failed: %v", err))
		return err
	}
	e.gen++
	e.d = d
	e.sel.Clear()
	e.mode = ModeIdle
	e.original = nil
	e.anchorID = ""
	e.clearHover()

	e.view.Reset()
	if bounds, ok := d.Bounds(); ok && e.opts.CanvasW > 0 && e.opts.CanvasH > 0 {
		e.view.AutoFit(bounds, e.opts.CanvasW, e.opts.CanvasH, 0.05)
	}
	e.status(fmt.Sprintf("loaded %s: %d shapes, %d points", d.Name, len(d.Shapes), d.PointCount()))
	e.frame()
	return nil
}

// Reload discards local state and re-fetches the diagram. Used whenever a
// failed multi-step write may have left the backend half applied: the reload
// always wins over anything still in flight.
func (e *Editor) Reload(ctx context.Context) {
	if err := e.Load(ctx); err != nil {
		slog.Error("reload after failed commit", "diagram", e.diagramID, "error", err)
	}
}

// Resize updates the canvas dimensions used for auto-fit.
func (e *Editor) Resize(w, h float64) {
	e.opts.CanvasW = w
	e.opts.CanvasH = h
}

// Scene builds a read-only rendering snapshot of the current state.
func (e *Editor) Scene() render.Scene {
	scene := render.Scene{
		Diagram:  e.d,
		View:     e.view,
		Hovered:  e.hoveredPoint,
		BaseSize: e.opts.HitThreshold / 2,
		Selected: make(map[string]bool, e.sel.Len()),
	}
	for _, id := range e.sel.IDs() {
		scene.Selected[id] = true
	}
	if e.mode == ModeSelect {
		r := geometry.RectFromCorners(e.dragStart, e.dragEnd)
		scene.SelectRect = &r
	}
	return scene
}

func (e *Editor) status(text string) {
	if e.opts.OnStatus != nil {
		e.opts.OnStatus(text)
	}
}

func (e *Editor) frame() {
	if e.opts.OnFrame != nil {
		e.opts.OnFrame()
	}
}

func (e *Editor) clearHover() {
	e.hoverPending = false
	if e.hoveredPoint != "" {
		e.hoveredPoint = ""
		if e.opts.OnTooltip != nil {
			e.opts.OnTooltip(nil)
		}
	}
}

// HoverTick samples the debounced hover position. Called periodically by the
// session loop; hover scanning runs only in Idle, once pointer movement has
// settled for the debounce window. The point scan is O(n), which is exactly
// why it is kept off the raw pointer-move path.
func (e *Editor) HoverTick(now time.Time) {
	if e.mode != ModeIdle {
		e.clearHover()
		return
	}
	if !e.hoverPending || now.Sub(e.hoverSince) < e.opts.HoverDebounce {
		return
	}
	e.hoverPending = false

	if e.d == nil {
		return
	}
	hit := findNearestPoint(e.d, e.hoverAt, e.view.PickRadius(e.opts.HitThreshold))
	if hit == nil {
		if e.hoveredPoint != "" {
			e.hoveredPoint = ""
			if e.opts.OnTooltip != nil {
				e.opts.OnTooltip(nil)
			}
		}
		return
	}
	if hit.ID == e.hoveredPoint {
		return
	}
	e.hoveredPoint = hit.ID
	if e.opts.OnTooltip != nil {
		e.opts.OnTooltip(&Tooltip{
			PointID:   hit.ID,
			ShapeID:   hit.Shape.ID,
			ShapeName: hit.Shape.Name,
			X:         hit.X,
			Y:         hit.Y,
			Seq:       hit.Seq,
		})
	}
}
