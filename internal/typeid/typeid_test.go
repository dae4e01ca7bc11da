package typeid

import (
	"strings"
	"testing"
)

func TestNewCarriesPrefix(t *testing.T) {
	for _, prefix := range []string{PrefixDiagram, PrefixShape, PrefixPoint, PrefixGlue, PrefixSession} {
		id := New(prefix)
		if !strings.HasPrefix(id, prefix+"_") {
			t.Errorf("New(%q) = %q", prefix, id)
		}
		if err := Validate(id, prefix); err != nil {
			t.Errorf("Validate(%q, %q): %v", id, prefix, err)
		}
	}
}

func TestNewIsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewPointID()
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestValidateRejectsWrongPrefix(t *testing.T) {
	id := NewShapeID()
	if err := Validate(id, PrefixPoint); err == nil {
		t.Error("prefix mismatch accepted")
	}
	if err := Validate("not a typeid", PrefixPoint); err == nil {
		t.Error("garbage accepted")
	}
}

func TestNewEntityIRI(t *testing.T) {
	iri := NewEntityIRI(PrefixPoint)
	if !strings.HasPrefix(iri, "urn:voltmap:pt_") {
		t.Errorf("IRI = %q", iri)
	}
}
