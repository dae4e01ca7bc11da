package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixDiagram = "diag"
	PrefixShape   = "shape"
	PrefixPoint   = "pt"
	PrefixGlue    = "glue"
	PrefixSession = "sess"
)

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewDiagramID() string { return New(PrefixDiagram) }
func NewShapeID() string   { return New(PrefixShape) }
func NewPointID() string   { return New(PrefixPoint) }
func NewGlueID() string    { return New(PrefixGlue) }
func NewSessionID() string { return New(PrefixSession) }

// NewEntityIRI mints a fresh IRI for a persisted entity. Diagram entities are
// addressed by IRI in the graph store, so minted ids are wrapped in the
// voltmap entity namespace.
func NewEntityIRI(prefix string) string {
	return fmt.Sprintf("urn:voltmap:%s", New(prefix))
}

func Validate(id, expectedPrefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	if parsed.Prefix() != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, parsed.Prefix(), id)
	}
	return nil
}
