// Package export serves server-side PNG snapshots of a diagram, rendered
// independently of any live editing session.
package export

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/voltmap/voltmap/internal/render"
	"github.com/voltmap/voltmap/internal/store"
	"github.com/voltmap/voltmap/internal/view"
)

const (
	defaultWidth  = 1600
	defaultHeight = 1200
	maxDimension  = 8192
)

type Handler struct {
	store *store.Client
}

func NewHandler(st *store.Client) *Handler {
	return &Handler{store: st}
}

// ExportPNG handles GET /export/png?diagram=<iri>&width=&height=. The
// diagram is loaded fresh from the store, auto-fitted and rasterized.
func (h *Handler) ExportPNG(w http.ResponseWriter, r *http.Request) {
	diagramID := r.URL.Query().Get("diagram")
	if diagramID == "" {
		http.Error(w, "diagram parameter is required", http.StatusBadRequest)
		return
	}
	width := dimension(r.URL.Query().Get("width"), defaultWidth)
	height := dimension(r.URL.Query().Get("height"), defaultHeight)

	d, err := h.store.LoadDiagram(r.Context(), diagramID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "diagram not found", http.StatusNotFound)
			return
		}
		slog.Error("load diagram for export", "diagram", diagramID, "error", err)
		http.Error(w, "failed to load diagram", http.StatusBadGateway)
		return
	}

	vt := view.New(1, 0, 0)
	if bounds, ok := d.Bounds(); ok {
		vt.AutoFit(bounds, float64(width), float64(height), 0.05)
	}

	commands := render.Compile(render.Scene{
		Diagram:  d,
		View:     vt,
		BaseSize: 5,
	})
	png, err := render.RenderPNG(commands, width, height)
	if err != nil {
		slog.Error("render png", "diagram", diagramID, "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.png"`, safeName(d.Name)))
	w.Write(png)
}

func dimension(raw string, def int) int {
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 || v > maxDimension {
		return def
	}
	return v
}

func safeName(name string) string {
	if name == "" {
		return "diagram"
	}
	out := make([]rune, 0, len(name))
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			out = append(out, r)
		} else {
			out = append(out, '-')
		}
	}
	return string(out)
}
