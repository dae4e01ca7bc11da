// Package diagram holds the in-memory model of a power-grid diagram layout:
// shapes (lines, polygons, text placements) owning ordered sequences of 2D
// points, plus a flat point index for hit testing.
package diagram

import "github.com/voltmap/voltmap/internal/geometry"

// Point is a 2D vertex owned by exactly one Shape. Glue optionally references
// a glue-point entity linking this vertex to a structural anchor outside its
// own shape.
type Point struct {
	ID    string
	X     float64
	Y     float64
	Seq   int    // order within the owning shape, dense 0..n-1
	Glue  string // glue-point IRI, empty if none
	Shape *Shape // non-owning back-reference
}

// Pt returns the point's coordinates as a geometry value.
func (p *Point) Pt() geometry.Pt { return geometry.Pt{X: p.X, Y: p.Y} }

// Shape is an ordered, owned collection of points with paint order and
// polygon/text flags.
type Shape struct {
	ID           string
	Name         string
	DrawingOrder int
	IsPolygon    bool // closes last point to first; requires >= 3 points
	IsText       bool
	Text         string
	Points       []*Point
}

// Bounds returns the bounding box over the shape's points.
func (s *Shape) Bounds() (geometry.Rect, bool) {
	pts := make([]geometry.Pt, len(s.Points))
	for i, p := range s.Points {
		pts[i] = p.Pt()
	}
	return geometry.BoundsOf(pts)
}

// renumber reissues dense sequence numbers in array order.
func (s *Shape) renumber() {
	for i, p := range s.Points {
		p.Seq = i
	}
}

// Diagram is the aggregate root: a flat list of shapes and a flat index of
// every point across all shapes. Every point appears in exactly one shape's
// list and in the index, or not at all.
type Diagram struct {
	ID     string
	Name   string
	Shapes []*Shape

	points map[string]*Point
}

// New creates an empty diagram.
func New(id, name string) *Diagram {
	return &Diagram{
		ID:     id,
		Name:   name,
		points: make(map[string]*Point),
	}
}

// ShapeByID returns the shape with the given id, or nil.
func (d *Diagram) ShapeByID(id string) *Shape {
	for _, s := range d.Shapes {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// PointByID returns the point with the given id, or nil.
func (d *Diagram) PointByID(id string) *Point {
	return d.points[id]
}

// PointCount returns the number of points across all shapes.
func (d *Diagram) PointCount() int { return len(d.points) }

// EachPoint calls fn for every point in the diagram. Iteration order follows
// shape order, then point order within each shape.
func (d *Diagram) EachPoint(fn func(*Point) bool) {
	for _, s := range d.Shapes {
		for _, p := range s.Points {
			if !fn(p) {
				return
			}
		}
	}
}

// Bounds returns the bounding box over every point in the diagram. Recomputed
// on every call, never cached.
func (d *Diagram) Bounds() (geometry.Rect, bool) {
	var pts []geometry.Pt
	for _, s := range d.Shapes {
		for _, p := range s.Points {
			pts = append(pts, p.Pt())
		}
	}
	return geometry.BoundsOf(pts)
}

// AddShape appends a shape and indexes its points. The shape's points must
// not already belong to the diagram.
func (d *Diagram) AddShape(s *Shape) {
	d.Shapes = append(d.Shapes, s)
	for _, p := range s.Points {
		p.Shape = s
		d.points[p.ID] = p
	}
	s.renumber()
}

// RemoveShape removes a shape and de-indexes all of its points.
func (d *Diagram) RemoveShape(id string) *Shape {
	for i, s := range d.Shapes {
		if s.ID != id {
			continue
		}
		d.Shapes = append(d.Shapes[:i], d.Shapes[i+1:]...)
		for _, p := range s.Points {
			delete(d.points, p.ID)
		}
		return s
	}
	return nil
}

// InsertPoint splices p into the shape's point list at idx and renumbers the
// shape's sequence numbers to match array order.
func (d *Diagram) InsertPoint(s *Shape, idx int, p *Point) {
	if idx < 0 {
		idx = 0
	}
	if idx > len(s.Points) {
		idx = len(s.Points)
	}
	s.Points = append(s.Points, nil)
	copy(s.Points[idx+1:], s.Points[idx:])
	s.Points[idx] = p
	p.Shape = s
	d.points[p.ID] = p
	s.renumber()
}

// RemovePoint detaches a point from its shape, renumbers the remaining
// siblings and de-indexes it. If the owning shape was a polygon and has
// dropped below 3 points, the polygon flag is force-cleared; the second
// return reports that cascade.
func (d *Diagram) RemovePoint(p *Point) (idx int, polygonCleared bool) {
	s := p.Shape
	idx = -1
	for i, q := range s.Points {
		if q == p {
			idx = i
			break
		}
	}
	if idx < 0 {
		return -1, false
	}
	s.Points = append(s.Points[:idx], s.Points[idx+1:]...)
	delete(d.points, p.ID)
	p.Shape = nil
	s.renumber()
	if s.IsPolygon && len(s.Points) < 3 {
		s.IsPolygon = false
		polygonCleared = true
	}
	return idx, polygonCleared
}
