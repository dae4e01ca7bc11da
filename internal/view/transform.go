// Package view implements the screen/world coordinate mapping for the canvas
// viewport: pan offset, zoom scale, zoom-at-cursor and auto-fit.
package view

import (
	"math"

	"github.com/voltmap/voltmap/internal/geometry"
)

// Zoom factor applied per wheel notch.
const zoomStep = 1.1

// Transform maps world coordinates to screen pixels: screen = world*Scale + Offset.
type Transform struct {
	Scale   float64
	OffsetX float64
	OffsetY float64

	initialScale   float64
	initialOffsetX float64
	initialOffsetY float64
}

// New creates a transform with the given initial scale and offsets. Reset
// restores these values.
func New(scale, offsetX, offsetY float64) *Transform {
	return &Transform{
		Scale:          scale,
		OffsetX:        offsetX,
		OffsetY:        offsetY,
		initialScale:   scale,
		initialOffsetX: offsetX,
		initialOffsetY: offsetY,
	}
}

// Reset restores the configured initial scale and offsets. Used on diagram
// (re)load.
func (t *Transform) Reset() {
	t.Scale = t.initialScale
	t.OffsetX = t.initialOffsetX
	t.OffsetY = t.initialOffsetY
}

// ScreenToWorld converts canvas pixel coordinates to world coordinates.
func (t *Transform) ScreenToWorld(sx, sy float64) geometry.Pt {
	return geometry.Pt{
		X: (sx - t.OffsetX) / t.Scale,
		Y: (sy - t.OffsetY) / t.Scale,
	}
}

// WorldToScreen converts world coordinates to canvas pixel coordinates.
func (t *Transform) WorldToScreen(p geometry.Pt) (float64, float64) {
	return p.X*t.Scale + t.OffsetX, p.Y*t.Scale + t.OffsetY
}

// ZoomAt zooms in (wheelDelta < 0) or out around a screen-space center point.
// The world point under the center stays fixed across the zoom.
func (t *Transform) ZoomAt(centerX, centerY, wheelDelta float64) {
	factor := zoomStep
	if wheelDelta >= 0 {
		factor = 1 / zoomStep
	}
	t.Scale *= factor
	t.OffsetX = centerX - (centerX-t.OffsetX)*factor
	t.OffsetY = centerY - (centerY-t.OffsetY)*factor
}

// Pan shifts the view by a screen-space delta.
func (t *Transform) Pan(dx, dy float64) {
	t.OffsetX += dx
	t.OffsetY += dy
}

// AutoFit sets scale and offsets so the padded bounds fill the canvas. Scale
// never exceeds 1.0, so small diagrams are not blown up.
func (t *Transform) AutoFit(bounds geometry.Rect, canvasW, canvasH, padFrac float64) {
	padded := bounds.Pad(padFrac)
	if padded.Width() <= 0 || padded.Height() <= 0 {
		t.Reset()
		return
	}
	scale := min(canvasW/padded.Width(), canvasH/padded.Height(), 1.0)
	t.Scale = scale
	t.OffsetX = -padded.MinX * scale
	t.OffsetY = -padded.MinY * scale
}

// PickRadius converts a base screen-space threshold into a world-space radius
// that keeps the on-screen tolerance roughly constant: the radius grows as the
// user zooms out and shrinks as they zoom in. The same law sizes rendered
// points and line widths.
func (t *Transform) PickRadius(base float64) float64 {
	return base * math.Pow(t.Scale, -0.3)
}
