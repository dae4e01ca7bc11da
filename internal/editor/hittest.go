package editor

import (
	"github.com/voltmap/voltmap/internal/diagram"
	"github.com/voltmap/voltmap/internal/geometry"
)

// findNearestPoint scans every point in the diagram and returns the one
// closest to worldPos within radius (world units), or nil.
func findNearestPoint(d *diagram.Diagram, worldPos geometry.Pt, radius float64) *diagram.Point {
	var best *diagram.Point
	bestSq := radius * radius
	d.EachPoint(func(p *diagram.Point) bool {
		if sq := geometry.DistSq(worldPos, p.Pt()); sq <= bestSq {
			best = p
			bestSq = sq
		}
		return true
	})
	return best
}

// segmentHit identifies where a new vertex would be spliced into a shape:
// Index is the array position for the new point, Pos its projected position.
type segmentHit struct {
	Shape *diagram.Shape
	Index int
	Pos   geometry.Pt
}

// findClosestInsertionSegment scans every consecutive point pair of every
// shape with at least two points, plus the closing segment of polygons with
// more than two points, and returns the globally closest segment within
// maxDist of worldPos. For a regular segment the insertion index is after the
// earlier endpoint; for the polygon-closing segment the new point becomes the
// new first vertex.
func findClosestInsertionSegment(d *diagram.Diagram, worldPos geometry.Pt, maxDist float64) (segmentHit, bool) {
	var best segmentHit
	bestSq := maxDist * maxDist
	found := false

	for _, s := range d.Shapes {
		if len(s.Points) < 2 {
			continue
		}
		for i := 0; i < len(s.Points)-1; i++ {
			proj, sq := geometry.ProjectOntoSegment(worldPos, s.Points[i].Pt(), s.Points[i+1].Pt())
			if sq <= bestSq {
				best = segmentHit{Shape: s, Index: i + 1, Pos: proj}
				bestSq = sq
				found = true
			}
		}
		if s.IsPolygon && len(s.Points) > 2 {
			last := s.Points[len(s.Points)-1]
			proj, sq := geometry.ProjectOntoSegment(worldPos, last.Pt(), s.Points[0].Pt())
			if sq <= bestSq {
				best = segmentHit{Shape: s, Index: 0, Pos: proj}
				bestSq = sq
				found = true
			}
		}
	}
	return best, found
}
