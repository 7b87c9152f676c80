// Package validator implements the Validator (spec.md §4.5): assertions
// over the AlignedVertex stream and the object-edit diff, checked after
// the Snap Engine and Object Transform Engine have both run.
package validator

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"github.com/strucgrid/bimalign/internal/config"
	"github.com/strucgrid/bimalign/internal/model"
)

// Report summarizes validator findings: critical failures abort the run
// (wrapped as a fatal AppError), while non-critical findings are recorded
// as warnings only.
type Report struct {
	Critical []*model.AppError
	Warnings []*model.AppError
	Bounds   orb.Bound
}

// OK reports whether no critical failure was found.
func (r Report) OK() bool {
	return len(r.Critical) == 0
}

// ElementVertices maps an element ID to its vertex list. Validate does not
// take or use it; the element-level consistency check groups vertices by
// element ID and axis-line ID instead.
type ElementVertices map[int][]model.Vertex

// Validate runs every assertion of spec.md §4.5 over the aligned vertex
// stream and the object-edit diff, and reports element/object count drift
// against the reference model when one is supplied.
func Validate(vertices []model.AlignedVertex, edits []model.ObjectEdit, params config.Parameters, referenceObjectCount *int) Report {
	var rep Report

	checkZInvariant(vertices, &rep)
	checkAxisPositionInvariant(vertices, params, &rep)
	checkElementConsistency(vertices, &rep)

	if referenceObjectCount != nil {
		checkObjectCountDrift(edits, *referenceObjectCount, &rep)
	}

	if b, ok := boundsOf(vertices); ok {
		rep.Bounds = b
	}

	return rep
}

// checkZInvariant asserts aligned.z == original.z for every vertex.
func checkZInvariant(vertices []model.AlignedVertex, rep *Report) {
	for _, v := range vertices {
		if v.AlignedZ != v.OriginalZ {
			rep.Critical = append(rep.Critical, model.NewAppError(
				model.CodeValidationFailed, model.SeverityFatal,
				fmt.Sprintf("z invariant violated on element %d vertex %d: %v != %v", v.ElementID, v.VertexIndex, v.AlignedZ, v.OriginalZ), nil,
			).WithDetails("element_id", v.ElementID).WithDetails("vertex_index", v.VertexIndex))
		}
	}
}

// checkAxisPositionInvariant checks, for every vertex carrying an axis-line
// assignment, that the aligned coordinate lies within rounding_precision of
// its nearest multiple of rounding_precision. Validate receives no axis
// lines, so the aligned coordinate is not compared with the assigned
// line's position; and the Snap Engine does not round aligned coordinates.
func checkAxisPositionInvariant(vertices []model.AlignedVertex, params config.Parameters, rep *Report) {
	for _, v := range vertices {
		if v.AxisLineX != nil {
			if diff := abs(v.AlignedX - round(v.AlignedX, params.RoundingPrecision)); diff > params.RoundingPrecision {
				rep.Critical = append(rep.Critical, model.NewAppError(
					model.CodeValidationFailed, model.SeverityFatal,
					fmt.Sprintf("element %d vertex %d aligned x %.6f not within rounding precision", v.ElementID, v.VertexIndex, v.AlignedX), nil,
				))
			}
		}
		if v.AxisLineY != nil {
			if diff := abs(v.AlignedY - round(v.AlignedY, params.RoundingPrecision)); diff > params.RoundingPrecision {
				rep.Critical = append(rep.Critical, model.NewAppError(
					model.CodeValidationFailed, model.SeverityFatal,
					fmt.Sprintf("element %d vertex %d aligned y %.6f not within rounding precision", v.ElementID, v.VertexIndex, v.AlignedY), nil,
				))
			}
		}
	}
}

// checkElementConsistency asserts that within a single element, every
// vertex assigned to the same axis on the same side resolves to the same
// aligned coordinate (no element can straddle two different endpoint
// targets it wasn't resolved to).
func checkElementConsistency(vertices []model.AlignedVertex, rep *Report) {
	type key struct {
		elementID int
		lineID    int
	}
	seenX := make(map[key]float64)
	seenY := make(map[key]float64)

	for _, v := range vertices {
		if v.AxisLineX != nil {
			k := key{elementID: v.ElementID, lineID: *v.AxisLineX}
			if prev, ok := seenX[k]; ok && prev != v.AlignedX {
				rep.Critical = append(rep.Critical, model.NewAppError(
					model.CodeValidationFailed, model.SeverityFatal,
					fmt.Sprintf("element %d: inconsistent x alignment for axis line %d", v.ElementID, *v.AxisLineX), nil,
				))
			}
			seenX[k] = v.AlignedX
		}
		if v.AxisLineY != nil {
			k := key{elementID: v.ElementID, lineID: *v.AxisLineY}
			if prev, ok := seenY[k]; ok && prev != v.AlignedY {
				rep.Critical = append(rep.Critical, model.NewAppError(
					model.CodeValidationFailed, model.SeverityFatal,
					fmt.Sprintf("element %d: inconsistent y alignment for axis line %d", v.ElementID, *v.AxisLineY), nil,
				))
			}
			seenY[k] = v.AlignedY
		}
	}
}

// checkObjectCountDrift warns whenever the edits' net count (adds minus
// removes) is non-zero and the reference object count is positive. The
// reference count only enables the check: the output object count is not
// compared against it, and counts are not broken down per kind.
func checkObjectCountDrift(edits []model.ObjectEdit, referenceCount int, rep *Report) {
	net := 0
	for _, e := range edits {
		switch e.Kind {
		case model.EditAdd:
			net++
		case model.EditRemove:
			net--
		}
	}
	const driftWindow = 0 // any drift beyond the edit stream itself is a warning
	if abs(float64(net)) > float64(driftWindow) && referenceCount > 0 {
		rep.Warnings = append(rep.Warnings, model.NewAppError(
			model.CodeObjectCountDrift, model.SeverityWarning,
			fmt.Sprintf("net object-count delta %d against reference count %d", net, referenceCount), nil,
		))
	}
}

// boundsOf is a small orb-backed helper used by callers that want the
// aggregate plan extent of a vertex set, e.g. for reporting.
func boundsOf(vertices []model.AlignedVertex) (orb.Bound, bool) {
	if len(vertices) == 0 {
		return orb.Bound{}, false
	}
	b := orb.Bound{
		Min: orb.Point{vertices[0].AlignedX, vertices[0].AlignedY},
		Max: orb.Point{vertices[0].AlignedX, vertices[0].AlignedY},
	}
	for _, v := range vertices[1:] {
		b = b.Extend(orb.Point{v.AlignedX, v.AlignedY})
	}
	return b, true
}

func round(v, precision float64) float64 {
	return math.Round(v/precision) * precision
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
