package editor

import (
	"fmt"
	"math"
	"time"

	"github.com/voltmap/voltmap/internal/diagram"
	"github.com/voltmap/voltmap/internal/geometry"
)

// Rubber-band rectangles with a width or height at or below this many screen
// units are discarded as misclicks.
const misclickLimit = 3

// PointerDown drives the Idle → {Pan, Select, Drag} transitions. ctrl is the
// multi-select modifier.
func (e *Editor) PointerDown(sx, sy float64, ctrl bool) {
	if e.d == nil {
		return
	}
	w := e.view.ScreenToWorld(sx, sy)
	e.pointerWorld = w
	e.clearHover()

	hit := findNearestPoint(e.d, w, e.view.PickRadius(e.opts.HitThreshold))

	switch {
	case ctrl && hit != nil:
		// Toggle membership, stay Idle.
		e.sel.Toggle(hit.ID)
		e.frame()

	case ctrl:
		e.mode = ModeSelect
		e.dragStart = w
		e.dragEnd = w

	case e.sel.Len() > 0 && hit != nil && e.sel.Has(hit.ID):
		e.beginDrag(w, hit.ID)

	case e.sel.Len() > 0 && hit == nil:
		e.sel.Clear()
		e.mode = ModePan
		e.panX, e.panY = sx, sy
		e.frame()

	default:
		e.mode = ModePan
		e.panX, e.panY = sx, sy
	}
}

func (e *Editor) beginDrag(w geometry.Pt, anchorID string) {
	e.mode = ModeDrag
	e.dragStart = w
	e.dragEnd = w
	if anchorID == "" {
		anchorID = e.sel.First()
	}
	e.anchorID = anchorID
	e.snapOff = false

	// Snapshot of pre-drag positions: the sole source of truth for deltas
	// and for reverting.
	e.original = make(map[string]geometry.Pt, e.sel.Len())
	for _, id := range e.sel.IDs() {
		if p := e.d.PointByID(id); p != nil {
			e.original[id] = p.Pt()
		}
	}
}

// PointerMove advances the active mode. alt suppresses grid snapping for the
// duration of the drag.
func (e *Editor) PointerMove(sx, sy float64, alt bool) {
	if e.d == nil {
		return
	}
	w := e.view.ScreenToWorld(sx, sy)
	e.pointerWorld = w

	switch e.mode {
	case ModePan:
		e.view.Pan(sx-e.panX, sy-e.panY)
		e.panX, e.panY = sx, sy
		e.frame()

	case ModeSelect:
		e.dragEnd = w
		e.frame()

	case ModeDrag:
		e.snapOff = alt
		delta := geometry.Pt{X: w.X - e.dragStart.X, Y: w.Y - e.dragStart.Y}
		if !alt {
			delta = e.snapDelta(delta)
		}
		for id, orig := range e.original {
			if p := e.d.PointByID(id); p != nil {
				p.X = orig.X + delta.X
				p.Y = orig.Y + delta.Y
			}
		}
		e.frame()

	default:
		// Idle: record the hover candidate; the scan itself is deferred
		// to HoverTick once movement settles.
		e.hoverAt = w
		e.hoverSince = time.Now()
		e.hoverPending = true
	}
}

// snapDelta adjusts a raw drag delta so the anchor point's post-delta
// position lands exactly on the nearest grid intersection. The correction is
// uniform, so the whole selection translates rigidly.
func (e *Editor) snapDelta(delta geometry.Pt) geometry.Pt {
	orig, ok := e.original[e.anchorID]
	if !ok || e.opts.GridSize <= 0 {
		return delta
	}
	tx := orig.X + delta.X
	ty := orig.Y + delta.Y
	return geometry.Pt{
		X: delta.X + geometry.Snap(tx, e.opts.GridSize) - tx,
		Y: delta.Y + geometry.Snap(ty, e.opts.GridSize) - ty,
	}
}

// PointerUp finalizes the active mode and returns to Idle.
func (e *Editor) PointerUp(sx, sy float64) {
	if e.d == nil {
		return
	}
	switch e.mode {
	case ModePan:
		e.mode = ModeIdle

	case ModeSelect:
		e.finishSelect()

	case ModeDrag:
		e.finishDrag()
	}
}

func (e *Editor) finishSelect() {
	e.mode = ModeIdle
	rect := geometry.RectFromCorners(e.dragStart, e.dragEnd)

	// A rectangle this small is a misclick, not a selection.
	if rect.Width()*e.view.Scale <= misclickLimit || rect.Height()*e.view.Scale <= misclickLimit {
		e.frame()
		return
	}

	// Existing selection is a superset seed; rectangle select never clears.
	e.d.EachPoint(func(p *diagram.Point) bool {
		if rect.Contains(p.Pt()) {
			e.sel.Add(p.ID)
		}
		return true
	})
	e.status(statusSelected(e.sel.Len()))
	e.frame()
}

func (e *Editor) finishDrag() {
	e.mode = ModeIdle
	anchorOrig, ok := e.original[e.anchorID]
	anchor := e.d.PointByID(e.anchorID)
	if !ok || anchor == nil {
		e.revertOriginals()
		e.original = nil
		e.frame()
		return
	}

	dx := anchor.X - anchorOrig.X
	dy := anchor.Y - anchorOrig.Y
	if math.Abs(dx) <= e.opts.DragThreshold && math.Abs(dy) <= e.opts.DragThreshold {
		// Non-event: put everything back.
		e.revertOriginals()
		e.original = nil
		e.frame()
		return
	}

	e.commitMove()
	e.original = nil
}

func (e *Editor) revertOriginals() {
	for id, orig := range e.original {
		if p := e.d.PointByID(id); p != nil {
			p.X = orig.X
			p.Y = orig.Y
		}
	}
}

// Wheel always zooms around the cursor, regardless of mode.
func (e *Editor) Wheel(sx, sy, delta float64) {
	e.view.ZoomAt(sx, sy, delta)
	e.frame()
}

// DoubleClick deletes the vertex under the cursor, or inserts one on the
// closest segment within a larger insertion threshold.
func (e *Editor) DoubleClick(sx, sy float64) {
	if e.d == nil {
		return
	}
	w := e.view.ScreenToWorld(sx, sy)
	e.pointerWorld = w

	if hit := findNearestPoint(e.d, w, e.view.PickRadius(e.opts.HitThreshold)); hit != nil {
		e.DeleteVertex(hit.ID)
		return
	}
	if seg, ok := findClosestInsertionSegment(e.d, w, e.view.PickRadius(e.opts.HitThreshold*2)); ok {
		e.InsertVertex(seg.Shape.ID, seg.Index, seg.Pos)
	}
}

// Key bindings handled by KeyPress.
const (
	KeyCopy          = "copy"
	KeyPaste         = "paste"
	KeyDelete        = "delete"
	KeyRotateLeft    = "rotate-left"
	KeyRotateRight   = "rotate-right"
	KeyTogglePolygon = "toggle-polygon"
)

// KeyPress dispatches the discrete keyboard actions. Keys never change the
// interaction mode.
func (e *Editor) KeyPress(key string) {
	if e.d == nil {
		return
	}
	switch key {
	case KeyCopy:
		e.Copy()
	case KeyPaste:
		e.Paste()
	case KeyDelete:
		e.DeleteSelectedShapes()
	case KeyRotateLeft:
		e.RotateSelection(-90)
	case KeyRotateRight:
		e.RotateSelection(90)
	case KeyTogglePolygon:
		shapes := e.selectedShapes()
		if len(shapes) == 0 {
			e.status("nothing selected")
			return
		}
		for _, s := range shapes {
			e.TogglePolygon(s.ID)
		}
	}
}

func statusSelected(n int) string {
	if n == 1 {
		return "1 point selected"
	}
	return fmt.Sprintf("%d points selected", n)
}
