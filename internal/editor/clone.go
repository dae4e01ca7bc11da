package editor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/voltmap/voltmap/internal/diagram"
	"github.com/voltmap/voltmap/internal/geometry"
	"github.com/voltmap/voltmap/internal/store"
	"github.com/voltmap/voltmap/internal/typeid"
)

// clipboardPayload is the tagged JSON written to and read from the system
// clipboard. Copy always promotes the point selection to whole shapes, so the
// payload carries shape IRIs, never bare point ids.
type clipboardPayload struct {
	Type string   `json:"type"`
	IRIs []string `json:"IRIs"`
}

const clipboardTag = "DiagramObject"

// Copy serializes the parent shapes of the current point selection to the
// system clipboard.
func (e *Editor) Copy() {
	shapes := e.selectedShapes()
	if len(shapes) == 0 {
		e.status("nothing selected")
		return
	}
	payload := clipboardPayload{Type: clipboardTag}
	for _, s := range shapes {
		payload.IRIs = append(payload.IRIs, s.ID)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		e.status(fmt.Sprintf("copy failed: %v", err))
		return
	}
	if err := e.opts.Clipboard.WriteAll(string(data)); err != nil {
		e.status(fmt.Sprintf("copy failed: %v", err))
		return
	}
	e.status(fmt.Sprintf("copied %d shapes", len(shapes)))
}

// Paste reads the clipboard, validates the payload and clones the referenced
// shapes, offset so their combined centroid lands at the last known pointer
// position. A malformed or foreign payload is a no-op with a status message.
func (e *Editor) Paste() {
	text, err := e.opts.Clipboard.ReadAll()
	if err != nil {
		e.status("nothing to paste")
		return
	}
	var payload clipboardPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil || payload.Type != clipboardTag || len(payload.IRIs) == 0 {
		e.status("nothing to paste")
		return
	}

	var src []*diagram.Shape
	var pts []geometry.Pt
	for _, iri := range payload.IRIs {
		s := e.d.ShapeByID(iri)
		if s == nil {
			continue
		}
		src = append(src, s)
		for _, p := range s.Points {
			pts = append(pts, p.Pt())
		}
	}
	if len(src) == 0 || len(pts) == 0 {
		e.status("nothing to paste")
		return
	}

	bounds, _ := geometry.BoundsOf(pts)
	center := bounds.Center()
	offset := geometry.Pt{X: e.pointerWorld.X - center.X, Y: e.pointerWorld.Y - center.Y}
	e.cloneShapes(src, offset)
}

// cloneShapes produces an identifier-remapped duplicate of the given shapes:
// new ids for every shape, every owned point and every distinct glue point,
// with ownership and glue edges rebound to the clones and the offset applied
// to every coordinate. Each entity is persisted as its own backend write with
// no cross-step transaction; a failure mid-sequence reloads, accepting that
// the backend may retain a partial clone.
func (e *Editor) cloneShapes(src []*diagram.Shape, offset geometry.Pt) {
	glueMap := make(map[string]string)
	var shapeRecs []store.ShapeRecord
	var pointRecs []store.PointRecord
	var created []string

	for _, s := range src {
		clone := &diagram.Shape{
			ID:           typeid.NewEntityIRI(typeid.PrefixShape),
			Name:         s.Name,
			DrawingOrder: s.DrawingOrder,
			IsPolygon:    s.IsPolygon,
			IsText:       s.IsText,
			Text:         s.Text,
		}
		shapeRecs = append(shapeRecs, store.ShapeRecord{
			ID:           clone.ID,
			DiagramID:    e.d.ID,
			Name:         clone.Name,
			DrawingOrder: clone.DrawingOrder,
			IsPolygon:    clone.IsPolygon,
			IsText:       clone.IsText,
			Text:         clone.Text,
		})

		for _, p := range s.Points {
			glue := ""
			if p.Glue != "" {
				glue = glueMap[p.Glue]
				if glue == "" {
					glue = typeid.NewEntityIRI(typeid.PrefixGlue)
					glueMap[p.Glue] = glue
				}
			}
			cp := &diagram.Point{
				ID:   typeid.NewEntityIRI(typeid.PrefixPoint),
				X:    p.X + offset.X,
				Y:    p.Y + offset.Y,
				Glue: glue,
			}
			clone.Points = append(clone.Points, cp)
			created = append(created, cp.ID)
		}

		e.d.AddShape(clone)
		for _, cp := range clone.Points {
			pointRecs = append(pointRecs, store.PointRecord{
				ID:      cp.ID,
				ShapeID: clone.ID,
				X:       cp.X,
				Y:       cp.Y,
				Seq:     cp.Seq,
				Glue:    cp.Glue,
			})
		}
	}
	e.frame()

	glueIDs := make([]string, 0, len(glueMap))
	for _, id := range glueMap {
		glueIDs = append(glueIDs, id)
	}

	e.commitAsync("paste", created, func(ctx context.Context) (func(*Editor), error) {
		for _, rec := range shapeRecs {
			if err := e.store.CreateShape(ctx, rec); err != nil {
				return nil, err
			}
		}
		for _, id := range glueIDs {
			if err := e.store.CreateGlue(ctx, id); err != nil {
				return nil, err
			}
		}
		for _, rec := range pointRecs {
			if err := e.store.CreatePoint(ctx, rec); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
}
