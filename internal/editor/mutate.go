package editor

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/voltmap/voltmap/internal/diagram"
	"github.com/voltmap/voltmap/internal/geometry"
	"github.com/voltmap/voltmap/internal/store"
	"github.com/voltmap/voltmap/internal/typeid"
)

// Every persisted mutation is applied to the in-memory diagram synchronously
// (the user sees the result with no latency) and committed to the backend
// asynchronously. The write function runs in its own goroutine and reports a
// commitResult on the editor's commit channel; the session loop hands it to
// Resolve on the editor goroutine. On failure the result's revert is applied
// when the exact inverse is known, otherwise the whole diagram is reloaded.

// commitResult is the outcome of one asynchronous backend commit.
type commitResult struct {
	gen     uint64
	op      string
	err     error
	created []string      // point ids to select on success
	revert  func(*Editor) // surgical inverse; nil means reload on failure
}

// commitAsync runs write in a goroutine bounded by the commit timeout. write
// returns the revert to use if it fails; a nil revert forces a reload.
func (e *Editor) commitAsync(op string, created []string, write func(ctx context.Context) (func(*Editor), error)) {
	gen := e.gen
	timeout := e.opts.CommitTimeout
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		revert, err := write(ctx)
		e.commits <- commitResult{gen: gen, op: op, err: err, created: created, revert: revert}
	}()
}

// Resolve processes a finished commit on the editor goroutine. Results from a
// generation older than the current diagram are stale (a reload has already
// replaced everything they touched) and are dropped.
func (e *Editor) Resolve(ctx context.Context, res commitResult) {
	if res.gen != e.gen {
		slog.Debug("dropping stale commit result", "op", res.op)
		return
	}
	if res.err == nil {
		if len(res.created) > 0 {
			e.sel.Clear()
			for _, id := range res.created {
				e.sel.Add(id)
			}
		}
		e.status(res.op + " saved")
		e.frame()
		return
	}

	slog.Warn("commit failed", "op", res.op, "error", res.err)
	e.status(fmt.Sprintf("%s failed: %v", res.op, res.err))
	if res.revert != nil {
		res.revert(e)
		e.frame()
		return
	}
	e.Reload(ctx)
}

// commitMove persists the already-applied positions of the dragged selection
// as one absolute-position batch write.
func (e *Editor) commitMove() {
	moves := make(map[string]store.PointPos, len(e.original))
	orig := make(map[string]geometry.Pt, len(e.original))
	for id, o := range e.original {
		p := e.d.PointByID(id)
		if p == nil {
			continue
		}
		moves[id] = store.PointPos{X: p.X, Y: p.Y}
		orig[id] = o
	}
	e.frame()
	e.commitAsync("move", nil, func(ctx context.Context) (func(*Editor), error) {
		err := e.store.MovePoints(ctx, moves)
		return revertPositions(orig), err
	})
}

// revertPositions restores a snapshot of absolute positions.
func revertPositions(orig map[string]geometry.Pt) func(*Editor) {
	return func(e *Editor) {
		for id, o := range orig {
			if p := e.d.PointByID(id); p != nil {
				p.X = o.X
				p.Y = o.Y
			}
		}
	}
}

// InsertVertex splices a freshly minted point into the shape at idx and
// persists the new point plus the full renumbering. The two writes are not
// atomic: a failure after the first leaves the backend without the
// renumbering, recoverable only by reload.
func (e *Editor) InsertVertex(shapeID string, idx int, pos geometry.Pt) {
	s := e.d.ShapeByID(shapeID)
	if s == nil {
		return
	}
	p := &diagram.Point{
		ID: typeid.NewEntityIRI(typeid.PrefixPoint),
		X:  pos.X,
		Y:  pos.Y,
	}
	e.d.InsertPoint(s, idx, p)
	e.frame()

	rec := store.PointRecord{ID: p.ID, ShapeID: s.ID, X: p.X, Y: p.Y, Seq: p.Seq}
	seqs := shapeSeqs(s)
	e.commitAsync("insert vertex", nil, func(ctx context.Context) (func(*Editor), error) {
		if err := e.store.InsertPoint(ctx, rec); err != nil {
			// Exact inverse is known: drop the point again.
			return func(e *Editor) {
				if q := e.d.PointByID(rec.ID); q != nil {
					e.d.RemovePoint(q)
				}
			}, err
		}
		if err := e.store.Resequence(ctx, seqs); err != nil {
			return nil, err
		}
		return nil, nil
	})
}

// DeleteVertex removes a point. The first and last points of a non-polygon
// shape are structurally load-bearing and cannot be vertex-deleted; that is a
// validation rejection with no backend call.
func (e *Editor) DeleteVertex(pointID string) {
	p := e.d.PointByID(pointID)
	if p == nil {
		return
	}
	s := p.Shape
	if !s.IsPolygon && (p.Seq == 0 || p.Seq == len(s.Points)-1) {
		e.status("cannot delete the endpoint of a line")
		return
	}

	_, polygonCleared := e.d.RemovePoint(p)
	e.sel.Remove(pointID)
	e.frame()

	seqs := shapeSeqs(s)
	shapeID := s.ID
	e.commitAsync("delete vertex", nil, func(ctx context.Context) (func(*Editor), error) {
		// Any failure in this cascade reloads: the backend may hold any
		// prefix of the writes.
		if err := e.store.DeletePoint(ctx, pointID); err != nil {
			return nil, err
		}
		if err := e.store.Resequence(ctx, seqs); err != nil {
			return nil, err
		}
		if polygonCleared {
			if err := e.store.SetPolygon(ctx, shapeID, false); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
}

// TogglePolygon flips a shape's polygon flag. Turning it on requires at
// least three points.
func (e *Editor) TogglePolygon(shapeID string) {
	s := e.d.ShapeByID(shapeID)
	if s == nil {
		return
	}
	if !s.IsPolygon && len(s.Points) < 3 {
		e.status("a polygon needs at least 3 points")
		return
	}
	s.IsPolygon = !s.IsPolygon
	e.frame()

	val := s.IsPolygon
	e.commitAsync("toggle polygon", nil, func(ctx context.Context) (func(*Editor), error) {
		err := e.store.SetPolygon(ctx, shapeID, val)
		return func(e *Editor) {
			if s := e.d.ShapeByID(shapeID); s != nil {
				s.IsPolygon = !val
			}
		}, err
	})
}

// RotateSelection rotates the selected shapes by the given angle in degrees
// about the centroid of their combined bounds. Rotation is whole-shape: every
// point of every touched shape is forced into the selection first.
func (e *Editor) RotateSelection(degrees float64) {
	shapes := e.selectedShapes()
	if len(shapes) == 0 {
		e.status("nothing selected")
		return
	}
	var pts []geometry.Pt
	for _, s := range shapes {
		for _, p := range s.Points {
			e.sel.Add(p.ID)
			pts = append(pts, p.Pt())
		}
	}
	bounds, _ := geometry.BoundsOf(pts)
	center := bounds.Center()
	radians := degrees * degToRad

	moves := make(map[string]store.PointPos)
	orig := make(map[string]geometry.Pt)
	for _, s := range shapes {
		for _, p := range s.Points {
			orig[p.ID] = p.Pt()
			rotated := geometry.RotateAbout(p.Pt(), center, radians)
			p.X = rotated.X
			p.Y = rotated.Y
			moves[p.ID] = store.PointPos{X: p.X, Y: p.Y}
		}
	}
	e.frame()

	e.commitAsync("rotate", nil, func(ctx context.Context) (func(*Editor), error) {
		err := e.store.MovePoints(ctx, moves)
		return revertPositions(orig), err
	})
}

// DeleteSelectedShapes removes every shape owning a selected point, each with
// its full point cascade.
func (e *Editor) DeleteSelectedShapes() {
	shapes := e.selectedShapes()
	if len(shapes) == 0 {
		e.status("nothing selected")
		return
	}

	ids := make([]string, len(shapes))
	for i, s := range shapes {
		ids[i] = s.ID
		e.d.RemoveShape(s.ID)
		for _, p := range s.Points {
			e.sel.Remove(p.ID)
		}
	}
	e.frame()

	e.commitAsync("delete shapes", nil, func(ctx context.Context) (func(*Editor), error) {
		// Bulk delete touches shared state; any failure reloads.
		for _, id := range ids {
			if err := e.store.DeleteShape(ctx, id); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
}

// selectedShapes returns the distinct shapes owning the selected points, in
// selection order.
func (e *Editor) selectedShapes() []*diagram.Shape {
	var shapes []*diagram.Shape
	seen := make(map[string]bool)
	for _, id := range e.sel.IDs() {
		p := e.d.PointByID(id)
		if p == nil || seen[p.Shape.ID] {
			continue
		}
		seen[p.Shape.ID] = true
		shapes = append(shapes, p.Shape)
	}
	return shapes
}

// shapeSeqs captures a shape's current id→sequence mapping.
func shapeSeqs(s *diagram.Shape) map[string]int {
	seqs := make(map[string]int, len(s.Points))
	for _, p := range s.Points {
		seqs[p.ID] = p.Seq
	}
	return seqs
}

const degToRad = math.Pi / 180
