package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/voltmap/voltmap/internal/diagram"
)

// Client issues SPARQL queries and updates against an HTTP endpoint.
type Client struct {
	queryURL  string
	updateURL string
	http      *http.Client
}

// NewClient creates a store client for the given query and update endpoint
// URLs. The timeout bounds every individual request.
func NewClient(queryURL, updateURL string, timeout time.Duration) *Client {
	return &Client{
		queryURL:  queryURL,
		updateURL: updateURL,
		http:      &http.Client{Timeout: timeout},
	}
}

// ExecuteQuery runs a SELECT query and returns the result bindings.
func (c *Client) ExecuteQuery(ctx context.Context, query string) ([]Binding, error) {
	form := url.Values{"query": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.queryURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/sparql-results+json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("query endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result queryResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode query result: %w", err)
	}
	return result.Results.Bindings, nil
}

// ExecuteUpdate runs a SPARQL update. There is no structured error payload
// beyond the HTTP status and body text.
func (c *Client) ExecuteUpdate(ctx context.Context, update string) error {
	form := url.Values{"update": {update}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.updateURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build update request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute update: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("update endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// ListDiagrams returns every diagram in the store.
func (c *Client) ListDiagrams(ctx context.Context) ([]DiagramInfo, error) {
	bindings, err := c.ExecuteQuery(ctx, listDiagramsQuery())
	if err != nil {
		return nil, err
	}
	infos := make([]DiagramInfo, 0, len(bindings))
	for _, b := range bindings {
		infos = append(infos, DiagramInfo{
			ID:   b["diagram"].Value,
			Name: b["name"].Value,
		})
	}
	return infos, nil
}

// LoadDiagram reads the full diagram graph and materializes it. Each binding
// row carries one point plus its parent shape's fields; rows sharing a shape
// IRI are grouped, and shape fields come from the first row seen for that IRI.
func (c *Client) LoadDiagram(ctx context.Context, diagramID string) (*diagram.Diagram, error) {
	bindings, err := c.ExecuteQuery(ctx, loadDiagramQuery(diagramID))
	if err != nil {
		return nil, err
	}
	if len(bindings) == 0 {
		return nil, ErrNotFound
	}

	d := diagram.New(diagramID, "")
	var order []string
	shapes := make(map[string]*diagram.Shape)
	for _, b := range bindings {
		if name, ok := b["diagramName"]; ok && d.Name == "" {
			d.Name = name.Value
		}

		shapeID := b["shape"].Value
		s, ok := shapes[shapeID]
		if !ok {
			s = &diagram.Shape{
				ID:           shapeID,
				Name:         b["shapeName"].Value,
				DrawingOrder: intTerm(b, "drawingOrder", 0),
				IsPolygon:    boolTerm(b, "isPolygon"),
				IsText:       boolTerm(b, "isText"),
				Text:         b["text"].Value,
			}
			shapes[shapeID] = s
			order = append(order, shapeID)
		}

		s.Points = append(s.Points, &diagram.Point{
			ID:   b["point"].Value,
			X:    floatTerm(b, "x"),
			Y:    floatTerm(b, "y"),
			Seq:  intTerm(b, "seq", 0),
			Glue: b["glue"].Value,
		})
	}

	// AddShape renumbers densely, so persisted sequence gaps are healed on
	// load once each shape's points are in sequence order.
	for _, id := range order {
		s := shapes[id]
		sort.SliceStable(s.Points, func(i, j int) bool { return s.Points[i].Seq < s.Points[j].Seq })
		d.AddShape(s)
	}
	return d, nil
}

// MovePoints persists absolute positions for a batch of points in one update.
func (c *Client) MovePoints(ctx context.Context, moves map[string]PointPos) error {
	return c.ExecuteUpdate(ctx, movePointsUpdate(moves))
}

// InsertPoint persists a newly created point with its owning-shape edge.
func (c *Client) InsertPoint(ctx context.Context, rec PointRecord) error {
	return c.ExecuteUpdate(ctx, insertPointUpdate(rec))
}

// Resequence persists new sequence numbers for a shape's points.
func (c *Client) Resequence(ctx context.Context, seqs map[string]int) error {
	return c.ExecuteUpdate(ctx, resequenceUpdate(seqs))
}

// DeletePoint removes a point entity and every triple referencing it.
func (c *Client) DeletePoint(ctx context.Context, pointID string) error {
	return c.ExecuteUpdate(ctx, deleteEntityUpdate(pointID))
}

// SetPolygon persists a shape's polygon flag.
func (c *Client) SetPolygon(ctx context.Context, shapeID string, polygon bool) error {
	return c.ExecuteUpdate(ctx, setPolygonUpdate(shapeID, polygon))
}

// DeleteShape removes a shape entity and all of its points.
func (c *Client) DeleteShape(ctx context.Context, shapeID string) error {
	return c.ExecuteUpdate(ctx, deleteShapeUpdate(shapeID))
}

// CreateShape persists a new diagram object bound to its diagram.
func (c *Client) CreateShape(ctx context.Context, rec ShapeRecord) error {
	return c.ExecuteUpdate(ctx, createShapeUpdate(rec))
}

// CreatePoint persists a new point with shape and optional glue edges.
func (c *Client) CreatePoint(ctx context.Context, rec PointRecord) error {
	return c.ExecuteUpdate(ctx, createPointUpdate(rec))
}

// CreateGlue persists a new glue-point entity.
func (c *Client) CreateGlue(ctx context.Context, glueID string) error {
	return c.ExecuteUpdate(ctx, createGlueUpdate(glueID))
}

// PointPos is an absolute position write for one point.
type PointPos struct {
	X float64
	Y float64
}

func floatTerm(b Binding, key string) float64 {
	v, err := strconv.ParseFloat(b[key].Value, 64)
	if err != nil {
		return 0
	}
	return v
}

func intTerm(b Binding, key string, def int) int {
	t, ok := b[key]
	if !ok || t.Value == "" {
		return def
	}
	v, err := strconv.Atoi(t.Value)
	if err != nil {
		return def
	}
	return v
}

func boolTerm(b Binding, key string) bool {
	return b[key].Value == "true" || b[key].Value == "1"
}
