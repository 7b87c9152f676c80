package objectrules

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/strucgrid/bimalign/internal/axis"
	"github.com/strucgrid/bimalign/internal/config"
	"github.com/strucgrid/bimalign/internal/model"
)

// supportPoint is an emitted point support, carried between rule 6 and
// rule 7 (centerline emission needs the floor span each support sits in).
type supportPoint struct {
	x, y, z float64
	name    string
}

// applyRule6 emits a point SUPPORT at every (x-line, y-line, support-floor)
// triple that has an aligned COLUMN nearby, emits the fixed set of line
// supports along building edges by element-edge incidence, deduplicates
// both within dedup_radius, and retires any pre-existing support off the
// discovered axis set.
func applyRule6(elements []AlignedElement, lines axis.Result, params config.Parameters) []model.ObjectEdit {
	var edits []model.ObjectEdit
	var emitted []supportPoint

	columnCentroids := make([]struct{ x, y float64 }, 0)
	for _, ae := range elements {
		if ae.Kind != model.Column {
			continue
		}
		bounds, ok := elementBounds(ae)
		if !ok {
			continue
		}
		cx, cy := bounds.centroid()
		columnCentroids = append(columnCentroids, struct{ x, y float64 }{cx, cy})
	}

	for _, z := range params.SupportFloors {
		for _, xl := range lines.X {
			for _, yl := range lines.Y {
				if !nearAnyColumn(columnCentroids, xl.Position, yl.Position, params.ProximityTolerance) {
					continue
				}
				if isDuplicate(emitted, xl.Position, yl.Position, z, params.DedupRadius) {
					continue
				}
				name := fmt.Sprintf("SUPPORT-%s", uuid.NewString())
				emitted = append(emitted, supportPoint{x: xl.Position, y: yl.Position, z: z, name: name})
				edits = append(edits, model.ObjectEdit{
					Kind:         model.EditAdd,
					ElementKind:  model.Support,
					GeometryKind: model.Point,
					Name:         name,
					Vertices:     []model.Vertex{{X: xl.Position, Y: yl.Position, Z: z}},
					SourceRule:   6,
				})
			}
		}
	}

	edits = append(edits, applyEdgeLineSupports(elements, lines, params, &emitted)...)
	edits = append(edits, retireOffAxisSupports(elements, lines)...)
	return edits
}

// boundary is one of the building's four perimeter axis lines (min/max on
// each of X and Y).
type boundary struct {
	axis     model.Axis
	position float64
}

func boundaryLines(lines axis.Result) []boundary {
	extremes := func(axisLines []model.AxisLine, a model.Axis) []boundary {
		if len(axisLines) == 0 {
			return nil
		}
		min, max := axisLines[0].Position, axisLines[0].Position
		for _, l := range axisLines[1:] {
			if l.Position < min {
				min = l.Position
			}
			if l.Position > max {
				max = l.Position
			}
		}
		if min == max {
			return []boundary{{axis: a, position: min}}
		}
		return []boundary{{axis: a, position: min}, {axis: a, position: max}}
	}
	var out []boundary
	out = append(out, extremes(lines.X, model.X)...)
	out = append(out, extremes(lines.Y, model.Y)...)
	return out
}

// applyEdgeLineSupports emits one line SUPPORT per (perimeter boundary,
// support-floor) pair for every WALL or BEAM element incident to that
// boundary edge: an element whose cross-axis extent collapses to the
// boundary's position once aligned. This is the "small, fixed set of line
// supports along building edges" of spec.md §4.4 Rule 6.
func applyEdgeLineSupports(elements []AlignedElement, lines axis.Result, params config.Parameters, emitted *[]supportPoint) []model.ObjectEdit {
	boundaries := boundaryLines(lines)
	if len(boundaries) == 0 {
		return nil
	}
	tolerance := params.RoundingPrecision
	if tolerance <= 0 {
		tolerance = 1e-9
	}

	var edits []model.ObjectEdit
	for _, ae := range elements {
		if ae.Kind != model.Wall && ae.Kind != model.Beam {
			continue
		}
		bounds, ok := elementBounds(ae)
		if !ok {
			continue
		}
		for _, b := range boundaries {
			lo, hi, incident := edgeIncidence(bounds, b, tolerance)
			if !incident {
				continue
			}
			for _, z := range params.SupportFloors {
				mx, my := edgeMidpoint(b, lo, hi)
				if isDuplicate(*emitted, mx, my, z, params.DedupRadius) {
					continue
				}
				name := fmt.Sprintf("SUPPORT-EDGE-%s", uuid.NewString())
				*emitted = append(*emitted, supportPoint{x: mx, y: my, z: z, name: name})
				edits = append(edits, model.ObjectEdit{
					Kind:         model.EditAdd,
					ElementKind:  model.Support,
					GeometryKind: model.LineCurve,
					Name:         name,
					Vertices:     edgeVertices(b, lo, hi, z),
					LayerHint:    "edge-supports",
					SourceRule:   6,
				})
			}
		}
	}
	return edits
}

// edgeIncidence reports whether an element's cross-axis extent collapses
// to boundary's position (within tolerance), and if so the element's
// along-axis extent.
func edgeIncidence(bounds rect, b boundary, tolerance float64) (lo, hi float64, ok bool) {
	if b.axis == model.X {
		if math.Abs(bounds.maxX-bounds.minX) > tolerance || math.Abs(bounds.minX-b.position) > tolerance {
			return 0, 0, false
		}
		return bounds.minY, bounds.maxY, true
	}
	if math.Abs(bounds.maxY-bounds.minY) > tolerance || math.Abs(bounds.minY-b.position) > tolerance {
		return 0, 0, false
	}
	return bounds.minX, bounds.maxX, true
}

func edgeMidpoint(b boundary, lo, hi float64) (x, y float64) {
	mid := (lo + hi) / 2
	if b.axis == model.X {
		return b.position, mid
	}
	return mid, b.position
}

func edgeVertices(b boundary, lo, hi, z float64) []model.Vertex {
	if b.axis == model.X {
		return []model.Vertex{{X: b.position, Y: lo, Z: z}, {X: b.position, Y: hi, Z: z}}
	}
	return []model.Vertex{{X: lo, Y: b.position, Z: z}, {X: hi, Y: b.position, Z: z}}
}

func nearAnyColumn(centroids []struct{ x, y float64 }, x, y, tolerance float64) bool {
	for _, c := range centroids {
		if math.Hypot(c.x-x, c.y-y) <= tolerance {
			return true
		}
	}
	return false
}

func isDuplicate(emitted []supportPoint, x, y, z, radius float64) bool {
	for _, s := range emitted {
		if s.z != z {
			continue
		}
		if math.Hypot(s.x-x, s.y-y) <= radius {
			return true
		}
	}
	return false
}

// retireOffAxisSupports removes any pre-existing SUPPORT element whose XY
// position does not lie on any discovered axis line.
func retireOffAxisSupports(elements []AlignedElement, lines axis.Result) []model.ObjectEdit {
	var edits []model.ObjectEdit
	for _, ae := range elements {
		if ae.Kind != model.Support {
			continue
		}
		if len(ae.Aligned) == 0 {
			continue
		}
		x, y := ae.Aligned[0].AlignedX, ae.Aligned[0].AlignedY
		if !onAxis(lines.X, x) || !onAxis(lines.Y, y) {
			edits = append(edits, model.ObjectEdit{Kind: model.EditRemove, RemovedElementID: ae.ID, SourceRule: 6})
		}
	}
	return edits
}

func onAxis(lines []model.AxisLine, pos float64) bool {
	for _, l := range lines {
		if math.Abs(l.Position-pos) < 1e-9 {
			return true
		}
	}
	return false
}

// applyRule7 emits one vertical centerline per support added in rule 6,
// spanning the floor span the support's Z belongs to.
func applyRule7(rule6 []model.ObjectEdit, params config.Parameters) []model.ObjectEdit {
	var edits []model.ObjectEdit
	for _, e := range rule6 {
		if e.Kind != model.EditAdd || e.ElementKind != model.Support || len(e.Vertices) == 0 {
			continue
		}
		v := e.Vertices[0]
		span, ok := model.SpanContaining(params.FloorLadder, v.Z)
		if !ok {
			continue
		}
		edits = append(edits, model.ObjectEdit{
			Kind:         model.EditAdd,
			ElementKind:  model.Beam,
			GeometryKind: centerlineGeometryKind(span),
			Name:         fmt.Sprintf("CENTERLINE-%s", uuid.NewString()),
			Vertices: []model.Vertex{
				{X: v.X, Y: v.Y, Z: span.Bottom},
				{X: v.X, Y: v.Y, Z: span.Top},
			},
			LayerHint:  "centerlines",
			SourceRule: 7,
		})
	}
	return edits
}

// centerlineGeometryKind is a presentational choice carried from the
// reference output: which floor span a centerline spans determines its
// curve representation.
func centerlineGeometryKind(span model.FloorSpan) model.GeometryKind {
	switch {
	case span.Height() > 4.5:
		return model.NurbsCurve
	case span.Height() > 3.0:
		return model.PolyCurve
	default:
		return model.LineCurve
	}
}
