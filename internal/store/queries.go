package store

import (
	"fmt"
	"sort"
	"strings"
)

// SPARQL text construction for the CIM DiagramLayout profile. Query details
// are deliberately contained here; nothing outside this package builds or
// inspects query text.

const prologue = `PREFIX cim: <http://iec.ch/TC57/CIM100#>
PREFIX rdf: <http://www.w3.org/1999/02/22-rdf-syntax-ns#>
`

func listDiagramsQuery() string {
	return prologue + `SELECT ?diagram ?name WHERE {
 ?diagram rdf:type cim:Diagram .
 OPTIONAL { ?diagram cim:IdentifiedObject.name ?name . }
} ORDER BY ?name`
}

func loadDiagramQuery(diagramID string) string {
	return prologue + fmt.Sprintf(`SELECT ?diagramName ?shape ?shapeName ?drawingOrder ?isPolygon ?isText ?text ?point ?x ?y ?seq ?glue WHERE {
 BIND(<%s> AS ?diagram) .
 OPTIONAL { ?diagram cim:IdentifiedObject.name ?diagramName . }
 ?shape cim:DiagramObject.Diagram ?diagram .
 OPTIONAL { ?shape cim:IdentifiedObject.name ?shapeName . }
 OPTIONAL { ?shape cim:DiagramObject.drawingOrder ?drawingOrder . }
 OPTIONAL { ?shape cim:DiagramObject.isPolygon ?isPolygon . }
 OPTIONAL { ?shape cim:DiagramObject.isText ?isText . }
 OPTIONAL { ?shape cim:TextDiagramObject.text ?text . }
 ?point cim:DiagramObjectPoint.DiagramObject ?shape .
 ?point cim:DiagramObjectPoint.xPosition ?x .
 ?point cim:DiagramObjectPoint.yPosition ?y .
 OPTIONAL { ?point cim:DiagramObjectPoint.sequenceNumber ?seq . }
 OPTIONAL { ?point cim:DiagramObjectPoint.DiagramObjectGluePoint ?glue . }
}`, diagramID)
}

func movePointsUpdate(moves map[string]PointPos) string {
	ids := make([]string, 0, len(moves))
	for id := range moves {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var del, ins, where strings.Builder
	for i, id := range ids {
		pos := moves[id]
		fmt.Fprintf(&del, " <%s> cim:DiagramObjectPoint.xPosition ?x%d . <%s> cim:DiagramObjectPoint.yPosition ?y%d .\n", id, i, id, i)
		fmt.Fprintf(&ins, " <%s> cim:DiagramObjectPoint.xPosition \"%g\" . <%s> cim:DiagramObjectPoint.yPosition \"%g\" .\n", id, pos.X, id, pos.Y)
		fmt.Fprintf(&where, " <%s> cim:DiagramObjectPoint.xPosition ?x%d . <%s> cim:DiagramObjectPoint.yPosition ?y%d .\n", id, i, id, i)
	}
	return prologue + "DELETE {\n" + del.String() + "} INSERT {\n" + ins.String() + "} WHERE {\n" + where.String() + "}"
}

func insertPointUpdate(rec PointRecord) string {
	return createPointUpdate(rec)
}

func createPointUpdate(rec PointRecord) string {
	var b strings.Builder
	b.WriteString(prologue)
	b.WriteString("INSERT DATA {\n")
	fmt.Fprintf(&b, " <%s> rdf:type cim:DiagramObjectPoint .\n", rec.ID)
	fmt.Fprintf(&b, " <%s> cim:DiagramObjectPoint.DiagramObject <%s> .\n", rec.ID, rec.ShapeID)
	fmt.Fprintf(&b, " <%s> cim:DiagramObjectPoint.xPosition \"%g\" .\n", rec.ID, rec.X)
	fmt.Fprintf(&b, " <%s> cim:DiagramObjectPoint.yPosition \"%g\" .\n", rec.ID, rec.Y)
	fmt.Fprintf(&b, " <%s> cim:DiagramObjectPoint.sequenceNumber \"%d\" .\n", rec.ID, rec.Seq)
	if rec.Glue != "" {
		fmt.Fprintf(&b, " <%s> cim:DiagramObjectPoint.DiagramObjectGluePoint <%s> .\n", rec.ID, rec.Glue)
	}
	b.WriteString("}")
	return b.String()
}

func resequenceUpdate(seqs map[string]int) string {
	ids := make([]string, 0, len(seqs))
	for id := range seqs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var del, ins, where strings.Builder
	for i, id := range ids {
		fmt.Fprintf(&del, " <%s> cim:DiagramObjectPoint.sequenceNumber ?s%d .\n", id, i)
		fmt.Fprintf(&ins, " <%s> cim:DiagramObjectPoint.sequenceNumber \"%d\" .\n", id, seqs[id])
		fmt.Fprintf(&where, " OPTIONAL { <%s> cim:DiagramObjectPoint.sequenceNumber ?s%d . }\n", id, i)
	}
	return prologue + "DELETE {\n" + del.String() + "} INSERT {\n" + ins.String() + "} WHERE {\n" + where.String() + "}"
}

func deleteEntityUpdate(id string) string {
	return prologue + fmt.Sprintf(`DELETE WHERE { <%s> ?p ?o . };
DELETE WHERE { ?s ?p <%s> . }`, id, id)
}

func setPolygonUpdate(shapeID string, polygon bool) string {
	return prologue + fmt.Sprintf(`DELETE { <%s> cim:DiagramObject.isPolygon ?v . }
INSERT { <%s> cim:DiagramObject.isPolygon "%t" . }
WHERE { OPTIONAL { <%s> cim:DiagramObject.isPolygon ?v . } }`, shapeID, shapeID, polygon, shapeID)
}

func deleteShapeUpdate(shapeID string) string {
	// Cascades to the shape's points before removing the shape itself.
	return prologue + fmt.Sprintf(`DELETE WHERE { ?point cim:DiagramObjectPoint.DiagramObject <%s> . ?point ?p ?o . };
DELETE WHERE { <%s> ?p ?o . };
DELETE WHERE { ?s ?p <%s> . }`, shapeID, shapeID, shapeID)
}

func createShapeUpdate(rec ShapeRecord) string {
	var b strings.Builder
	b.WriteString(prologue)
	b.WriteString("INSERT DATA {\n")
	fmt.Fprintf(&b, " <%s> rdf:type cim:DiagramObject .\n", rec.ID)
	fmt.Fprintf(&b, " <%s> cim:DiagramObject.Diagram <%s> .\n", rec.ID, rec.DiagramID)
	if rec.Name != "" {
		fmt.Fprintf(&b, " <%s> cim:IdentifiedObject.name %s .\n", rec.ID, quoteLiteral(rec.Name))
	}
	fmt.Fprintf(&b, " <%s> cim:DiagramObject.drawingOrder \"%d\" .\n", rec.ID, rec.DrawingOrder)
	fmt.Fprintf(&b, " <%s> cim:DiagramObject.isPolygon \"%t\" .\n", rec.ID, rec.IsPolygon)
	fmt.Fprintf(&b, " <%s> cim:DiagramObject.isText \"%t\" .\n", rec.ID, rec.IsText)
	if rec.IsText {
		fmt.Fprintf(&b, " <%s> cim:TextDiagramObject.text %s .\n", rec.ID, quoteLiteral(rec.Text))
	}
	b.WriteString("}")
	return b.String()
}

func createGlueUpdate(glueID string) string {
	return prologue + fmt.Sprintf(`INSERT DATA { <%s> rdf:type cim:DiagramObjectGluePoint . }`, glueID)
}

func quoteLiteral(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return `"` + s + `"`
}
