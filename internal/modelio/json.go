// Package modelio provides the JSON adapter used by tests and the `run`
// command's --input/--output flags. The binary 3D-model reader/writer and
// the structural database reader named in spec.md §1 are external
// collaborators outside this module's scope; this adapter exists so the
// pipeline has a concrete, testable ingest/materialize path without
// depending on either.
package modelio

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/strucgrid/bimalign/internal/model"
)

// Document is the on-disk JSON shape: a flat element list.
type Document struct {
	Elements []ElementDoc `json:"elements"`
}

// ElementDoc mirrors model.Element with string-tagged enums for a stable
// wire format independent of the internal iota ordering.
type ElementDoc struct {
	ID           int         `json:"id"`
	Name         string      `json:"name"`
	Kind         string      `json:"kind"`
	GeometryKind string      `json:"geometry_kind"`
	Vertices     []VertexDoc `json:"vertices"`
}

// VertexDoc mirrors model.Vertex.
type VertexDoc struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Ingest reads a Document from r and converts it to the internal model.
func Ingest(r io.Reader) ([]*model.Element, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode model document: %w", err)
	}

	elements := make([]*model.Element, 0, len(doc.Elements))
	for _, ed := range doc.Elements {
		kind, err := parseKind(ed.Kind)
		if err != nil {
			return nil, err
		}
		geom, err := parseGeometryKind(ed.GeometryKind)
		if err != nil {
			return nil, err
		}
		vertices := make([]model.Vertex, len(ed.Vertices))
		for i, vd := range ed.Vertices {
			vertices[i] = model.Vertex{ElementID: ed.ID, VertexIndex: i, X: vd.X, Y: vd.Y, Z: vd.Z}
		}
		elements = append(elements, &model.Element{
			ID:           ed.ID,
			Name:         ed.Name,
			Kind:         kind,
			GeometryKind: geom,
			Vertices:     vertices,
		})
	}
	return elements, nil
}

// Materialize writes the aligned vertex stream and edit diff back out as
// JSON ({"vertices": [...], "edits": [...]}). This is not the Document
// shape Ingest reads, so the output cannot be fed back into Ingest.
func Materialize(w io.Writer, vertices []model.AlignedVertex, edits []model.ObjectEdit) error {
	out := struct {
		Vertices []model.AlignedVertex `json:"vertices"`
		Edits    []model.ObjectEdit    `json:"edits"`
	}{Vertices: vertices, Edits: edits}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode materialized output: %w", err)
	}
	return nil
}

func parseKind(s string) (model.Kind, error) {
	switch s {
	case "COLUMN":
		return model.Column, nil
	case "WALL":
		return model.Wall, nil
	case "SLAB":
		return model.Slab, nil
	case "SUPPORT":
		return model.Support, nil
	case "BEAM":
		return model.Beam, nil
	default:
		return 0, model.NewAppError(model.CodeInvalidInput, model.SeverityFatal,
			fmt.Sprintf("unrecognized element kind %q", s), nil)
	}
}

func parseGeometryKind(s string) (model.GeometryKind, error) {
	switch s {
	case "", "BREP":
		return model.Brep, nil
	case "LINE_CURVE":
		return model.LineCurve, nil
	case "POLY_CURVE":
		return model.PolyCurve, nil
	case "NURBS_CURVE":
		return model.NurbsCurve, nil
	case "POINT":
		return model.Point, nil
	default:
		return 0, model.NewAppError(model.CodeInvalidInput, model.SeverityFatal,
			fmt.Sprintf("unrecognized geometry kind %q", s), nil)
	}
}
