// Package render turns a read-only snapshot of the editor state into draw
// commands for the canvas frontend, and rasterizes the same commands for PNG
// export. It never mutates editor state.
package render

import (
	"sort"

	"github.com/voltmap/voltmap/internal/diagram"
	"github.com/voltmap/voltmap/internal/geometry"
	"github.com/voltmap/voltmap/internal/view"
)

// Scene is the read-only snapshot handed over by the editor.
type Scene struct {
	Diagram    *diagram.Diagram
	View       *view.Transform
	Selected   map[string]bool // selected point ids
	Hovered    string          // hovered point id, "" if none
	SelectRect *geometry.Rect  // world coordinates, only while selecting
	BaseSize   float64         // base marker size, screen units
}

// DrawCommand is a single drawing operation for the frontend to execute on a
// Canvas2D context. All coordinates are screen space, commands are in
// painter's order.
type DrawCommand struct {
	Op       string       `json:"op"` // "polyline", "dot", "text", "rect"
	ObjectID string       `json:"objectId,omitempty"`
	Points   [][2]float64 `json:"points,omitempty"`
	Closed   bool         `json:"closed,omitempty"`
	Size     float64      `json:"size,omitempty"`
	Selected bool         `json:"selected,omitempty"`
	Text     string       `json:"text,omitempty"`
}

// Compile produces the draw command buffer for a scene: shapes sorted by
// drawing order (ties by insertion order), single-point shapes as dots,
// multi-point shapes as connected lines (closed for polygons), text shapes
// with their text at the first point, selection and hover markers on top, and
// the rubber-band rectangle last. Marker and line sizes follow the same
// zoom-adaptive law as the hit radii.
func Compile(scene Scene) []DrawCommand {
	if scene.Diagram == nil || scene.View == nil {
		return nil
	}

	size := scene.View.PickRadius(scene.BaseSize) * scene.View.Scale

	shapes := make([]*diagram.Shape, len(scene.Diagram.Shapes))
	copy(shapes, scene.Diagram.Shapes)
	sort.SliceStable(shapes, func(i, j int) bool {
		return shapes[i].DrawingOrder < shapes[j].DrawingOrder
	})

	var commands []DrawCommand
	for _, s := range shapes {
		if len(s.Points) == 0 {
			continue
		}
		pts := make([][2]float64, len(s.Points))
		for i, p := range s.Points {
			x, y := scene.View.WorldToScreen(p.Pt())
			pts[i] = [2]float64{x, y}
		}

		if len(pts) == 1 {
			commands = append(commands, DrawCommand{
				Op:       "dot",
				ObjectID: s.ID,
				Points:   pts,
				Size:     size,
			})
		} else {
			commands = append(commands, DrawCommand{
				Op:       "polyline",
				ObjectID: s.ID,
				Points:   pts,
				Closed:   s.IsPolygon,
				Size:     size / 2,
			})
		}

		if s.IsText && s.Text != "" {
			commands = append(commands, DrawCommand{
				Op:       "text",
				ObjectID: s.ID,
				Points:   pts[:1],
				Text:     s.Text,
				Size:     size,
			})
		}
	}

	// Point markers for the selection and the hover target draw above the
	// shape geometry.
	scene.Diagram.EachPoint(func(p *diagram.Point) bool {
		selected := scene.Selected[p.ID]
		if !selected && p.ID != scene.Hovered {
			return true
		}
		x, y := scene.View.WorldToScreen(p.Pt())
		commands = append(commands, DrawCommand{
			Op:       "dot",
			ObjectID: p.ID,
			Points:   [][2]float64{{x, y}},
			Size:     size,
			Selected: selected,
		})
		return true
	})

	if scene.SelectRect != nil {
		x0, y0 := scene.View.WorldToScreen(geometry.Pt{X: scene.SelectRect.MinX, Y: scene.SelectRect.MinY})
		x1, y1 := scene.View.WorldToScreen(geometry.Pt{X: scene.SelectRect.MaxX, Y: scene.SelectRect.MaxY})
		commands = append(commands, DrawCommand{
			Op:     "rect",
			Points: [][2]float64{{x0, y0}, {x1, y1}},
		})
	}

	return commands
}
