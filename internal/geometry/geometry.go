// Package geometry provides the pure 2D math used by the editor: distances,
// segment projection, bounds, rotation and grid quantization. Everything here
// operates on plain coordinates and is independent of diagram entities.
package geometry

import "math"

// Pt is a point in world coordinates.
type Pt struct {
	X float64
	Y float64
}

// Rect is an axis-aligned bounding box.
type Rect struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// Width returns the horizontal extent of the rect.
func (r Rect) Width() float64 { return r.MaxX - r.MinX }

// Height returns the vertical extent of the rect.
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Contains checks if a point is inside the rect, borders included.
func (r Rect) Contains(p Pt) bool {
	return p.X >= r.MinX && p.X <= r.MaxX && p.Y >= r.MinY && p.Y <= r.MaxY
}

// Union returns the smallest rect containing both rects.
func (r Rect) Union(other Rect) Rect {
	return Rect{
		MinX: min(r.MinX, other.MinX),
		MinY: min(r.MinY, other.MinY),
		MaxX: max(r.MaxX, other.MaxX),
		MaxY: max(r.MaxY, other.MaxY),
	}
}

// Center returns the midpoint of the rect.
func (r Rect) Center() Pt {
	return Pt{X: (r.MinX + r.MaxX) / 2, Y: (r.MinY + r.MaxY) / 2}
}

// Pad grows the rect by a fraction of its own size on every side.
func (r Rect) Pad(frac float64) Rect {
	dx := r.Width() * frac
	dy := r.Height() * frac
	return Rect{MinX: r.MinX - dx, MinY: r.MinY - dy, MaxX: r.MaxX + dx, MaxY: r.MaxY + dy}
}

// RectFromCorners builds a normalized rect from two opposite corners, in any
// order.
func RectFromCorners(a, b Pt) Rect {
	return Rect{
		MinX: min(a.X, b.X),
		MinY: min(a.Y, b.Y),
		MaxX: max(a.X, b.X),
		MaxY: max(a.Y, b.Y),
	}
}

// BoundsOf returns the axis-aligned bounding box over the given points.
// The second return is false when the slice is empty.
func BoundsOf(points []Pt) (Rect, bool) {
	if len(points) == 0 {
		return Rect{}, false
	}
	r := Rect{MinX: points[0].X, MinY: points[0].Y, MaxX: points[0].X, MaxY: points[0].Y}
	for _, p := range points[1:] {
		r.MinX = min(r.MinX, p.X)
		r.MinY = min(r.MinY, p.Y)
		r.MaxX = max(r.MaxX, p.X)
		r.MaxY = max(r.MaxY, p.Y)
	}
	return r, true
}

// DistSq returns the squared distance between two points. Hit-radius
// comparisons use squared distances to avoid the square root.
func DistSq(a, b Pt) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}

// ProjectOntoSegment projects p onto the segment a-b, clamping the projection
// parameter to [0,1]. A degenerate segment (a == b) projects to a. Returns the
// projected point and the squared distance from p to it.
func ProjectOntoSegment(p, a, b Pt) (Pt, float64) {
	abx := b.X - a.X
	aby := b.Y - a.Y
	lenSq := abx*abx + aby*aby
	if lenSq == 0 {
		return a, DistSq(p, a)
	}
	t := ((p.X-a.X)*abx + (p.Y-a.Y)*aby) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	proj := Pt{X: a.X + t*abx, Y: a.Y + t*aby}
	return proj, DistSq(p, proj)
}

// RotateAbout rotates p around center by the given angle in radians.
func RotateAbout(p, center Pt, radians float64) Pt {
	sin := math.Sin(radians)
	cos := math.Cos(radians)
	dx := p.X - center.X
	dy := p.Y - center.Y
	return Pt{
		X: center.X + dx*cos - dy*sin,
		Y: center.Y + dx*sin + dy*cos,
	}
}

// Snap quantizes a value to the nearest multiple of grid.
func Snap(v, grid float64) float64 {
	if grid <= 0 {
		return v
	}
	return math.Round(v/grid) * grid
}
