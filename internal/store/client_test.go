package store

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// sparqlServer fakes the query endpoint, capturing the submitted query text
// and answering with canned bindings.
func sparqlServer(t *testing.T, status int, body string) (*httptest.Server, *string) {
	t.Helper()
	var lastQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("bad form: %v", err)
		}
		if r.Header.Get("Content-Type") != "application/x-www-form-urlencoded" {
			t.Errorf("content type = %q", r.Header.Get("Content-Type"))
		}
		if q := r.PostForm.Get("query"); q != "" {
			lastQuery = q
		} else {
			lastQuery = r.PostForm.Get("update")
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &lastQuery
}

func TestExecuteQueryParsesBindings(t *testing.T) {
	srv, sent := sparqlServer(t, http.StatusOK, `{
	  "head": {"vars": ["diagram", "name"]},
	  "results": {"bindings": [
	    {"diagram": {"type": "uri", "value": "urn:voltmap:diag_a"},
	     "name": {"type": "literal", "value": "feeder north"}}
	  ]}
	}`)
	c := NewClient(srv.URL, srv.URL, time.Second)

	bindings, err := c.ExecuteQuery(context.Background(), "SELECT ?diagram ?name WHERE {}")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if *sent == "" {
		t.Error("query text not submitted")
	}
	if len(bindings) != 1 {
		t.Fatalf("got %d bindings", len(bindings))
	}
	if bindings[0]["diagram"].Value != "urn:voltmap:diag_a" || bindings[0]["diagram"].Type != "uri" {
		t.Errorf("diagram term = %+v", bindings[0]["diagram"])
	}
}

func TestExecuteQueryNonOKStatus(t *testing.T) {
	srv, _ := sparqlServer(t, http.StatusBadRequest, "parse error at line 3")
	c := NewClient(srv.URL, srv.URL, time.Second)

	_, err := c.ExecuteQuery(context.Background(), "broken")
	if err == nil {
		t.Fatal("expected error")
	}
	if want := "parse error at line 3"; !strings.Contains(err.Error(), want) {
		t.Errorf("error %q does not carry the endpoint body", err)
	}
}

func TestExecuteUpdateAcceptsNoContent(t *testing.T) {
	srv, sent := sparqlServer(t, http.StatusNoContent, "")
	c := NewClient(srv.URL, srv.URL, time.Second)

	if err := c.ExecuteUpdate(context.Background(), "INSERT DATA {}"); err != nil {
		t.Fatalf("update: %v", err)
	}
	if *sent != "INSERT DATA {}" {
		t.Errorf("update text = %q", *sent)
	}
}

func TestListDiagrams(t *testing.T) {
	srv, _ := sparqlServer(t, http.StatusOK, `{
	  "results": {"bindings": [
	    {"diagram": {"type": "uri", "value": "urn:voltmap:diag_a"},
	     "name": {"type": "literal", "value": "feeder north"}},
	    {"diagram": {"type": "uri", "value": "urn:voltmap:diag_b"}}
	  ]}
	}`)
	c := NewClient(srv.URL, srv.URL, time.Second)

	infos, err := c.ListDiagrams(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("got %d diagrams", len(infos))
	}
	if infos[0].Name != "feeder north" {
		t.Errorf("name = %q", infos[0].Name)
	}
	// Missing OPTIONAL name comes back empty, not an error.
	if infos[1].ID != "urn:voltmap:diag_b" || infos[1].Name != "" {
		t.Errorf("unnamed diagram = %+v", infos[1])
	}
}

func pointRow(shape, point, x, y, seq string) string {
	return `{"diagramName": {"type": "literal", "value": "west substation"},
	 "shape": {"type": "uri", "value": "` + shape + `"},
	 "shapeName": {"type": "literal", "value": "busbar"},
	 "drawingOrder": {"type": "literal", "value": "2"},
	 "isPolygon": {"type": "literal", "value": "false"},
	 "point": {"type": "uri", "value": "` + point + `"},
	 "x": {"type": "literal", "value": "` + x + `"},
	 "y": {"type": "literal", "value": "` + y + `"},
	 "seq": {"type": "literal", "value": "` + seq + `"}}`
}

func TestLoadDiagramGroupsAndOrders(t *testing.T) {
	// Rows arrive unordered with sparse sequence numbers, as triple stores
	// are free to return them.
	srv, _ := sparqlServer(t, http.StatusOK, `{"results": {"bindings": [
	  `+pointRow("urn:s1", "urn:p2", "20", "0", "17")+`,
	  `+pointRow("urn:s2", "urn:q0", "5", "5", "0")+`,
	  `+pointRow("urn:s1", "urn:p0", "0", "0", "3")+`,
	  `+pointRow("urn:s1", "urn:p1", "10", "0", "8")+`
	]}}`)
	c := NewClient(srv.URL, srv.URL, time.Second)

	d, err := c.LoadDiagram(context.Background(), "urn:voltmap:diag_a")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if d.Name != "west substation" {
		t.Errorf("diagram name = %q", d.Name)
	}
	if len(d.Shapes) != 2 {
		t.Fatalf("got %d shapes", len(d.Shapes))
	}

	// Shapes keep encounter order.
	s1 := d.Shapes[0]
	if s1.ID != "urn:s1" || s1.Name != "busbar" || s1.DrawingOrder != 2 {
		t.Errorf("s1 = %+v", s1)
	}

	// Points sort by persisted sequence, then renumber densely.
	wantOrder := []string{"urn:p0", "urn:p1", "urn:p2"}
	for i, p := range s1.Points {
		if p.ID != wantOrder[i] {
			t.Errorf("point[%d] = %s, want %s", i, p.ID, wantOrder[i])
		}
		if p.Seq != i {
			t.Errorf("point[%d] seq = %d, want dense %d", i, p.Seq, i)
		}
	}
	if p := d.PointByID("urn:p1"); p == nil || p.X != 10 {
		t.Errorf("point index broken: %+v", p)
	}
}

func TestLoadDiagramNotFound(t *testing.T) {
	srv, _ := sparqlServer(t, http.StatusOK, `{"results": {"bindings": []}}`)
	c := NewClient(srv.URL, srv.URL, time.Second)

	_, err := c.LoadDiagram(context.Background(), "urn:voltmap:diag_missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestTermHelpers(t *testing.T) {
	b := Binding{
		"x":    Term{Type: "literal", Value: "12.5"},
		"bad":  Term{Type: "literal", Value: "oops"},
		"seq":  Term{Type: "literal", Value: "4"},
		"flag": Term{Type: "literal", Value: "true"},
		"one":  Term{Type: "literal", Value: "1"},
	}
	if v := floatTerm(b, "x"); v != 12.5 {
		t.Errorf("floatTerm = %v", v)
	}
	if v := floatTerm(b, "bad"); v != 0 {
		t.Errorf("unparseable float = %v, want 0", v)
	}
	if v := intTerm(b, "seq", -1); v != 4 {
		t.Errorf("intTerm = %v", v)
	}
	if v := intTerm(b, "missing", -1); v != -1 {
		t.Errorf("intTerm default = %v", v)
	}
	if !boolTerm(b, "flag") || !boolTerm(b, "one") || boolTerm(b, "missing") {
		t.Error("boolTerm truth table wrong")
	}
}
