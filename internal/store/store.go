// Package store talks to the remote SPARQL graph endpoint that persists
// diagram layouts. The endpoint offers no transactions: every update is
// applied or failed on its own, and multi-step mutations can be left half
// applied. Callers recover from that with a full diagram reload.
package store

import "errors"

var (
	// ErrNotFound is returned when a diagram IRI resolves to no bindings.
	ErrNotFound = errors.New("diagram not found")
)

// Term is one RDF term of a SPARQL result binding.
type Term struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Binding maps result variables to terms for one result row.
type Binding map[string]Term

// queryResult is the SPARQL 1.1 JSON results envelope.
type queryResult struct {
	Results struct {
		Bindings []Binding `json:"bindings"`
	} `json:"results"`
}

// DiagramInfo describes one diagram available in the store.
type DiagramInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PointRecord is the persisted form of a diagram point.
type PointRecord struct {
	ID      string
	ShapeID string
	X       float64
	Y       float64
	Seq     int
	Glue    string // glue-point IRI, empty if none
}

// ShapeRecord is the persisted form of a diagram object.
type ShapeRecord struct {
	ID           string
	DiagramID    string
	Name         string
	DrawingOrder int
	IsPolygon    bool
	IsText       bool
	Text         string
}
