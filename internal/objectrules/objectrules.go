// Package objectrules implements the Object Transform Engine (spec.md
// §4.4): seven deterministic rules that remove and re-emit structural
// elements once the vertex cloud has been aligned. Rule 4 depends on
// footprints captured during rule 3, so the rules run in a fixed sequence
// rather than in parallel.
package objectrules

import (
	"sort"

	"github.com/paulmach/orb"

	"github.com/strucgrid/bimalign/internal/axis"
	"github.com/strucgrid/bimalign/internal/config"
	"github.com/strucgrid/bimalign/internal/model"
)

// AlignedElement pairs an ingested Element with its snapped vertices, in
// the same order as Element.Vertices.
type AlignedElement struct {
	*model.Element
	Aligned []model.AlignedVertex
}

// rect is an axis-aligned bounding rectangle in plan.
type rect struct {
	minX, maxX, minY, maxY float64
}

func (r rect) centroid() (float64, float64) {
	return (r.minX + r.maxX) / 2, (r.minY + r.maxY) / 2
}

func (r rect) toOrb() orb.Bound {
	return orb.Bound{
		Min: orb.Point{r.minX, r.minY},
		Max: orb.Point{r.maxX, r.maxY},
	}
}

// Apply runs the seven rules in order and returns their combined, ordered
// edit stream.
func Apply(elements []AlignedElement, lines axis.Result, params config.Parameters) ([]model.ObjectEdit, []*model.AppError) {
	var warnings []*model.AppError

	removedSlabs, roofSlabs := applyRule3(elements, params)
	rule4 := applyRule4(removedSlabs, params)
	rule5, wallWarnings := applyRule5(elements, params)
	warnings = append(warnings, wallWarnings...)
	rule6 := applyRule6(elements, lines, params)
	rule7 := applyRule7(rule6, params)
	grid := applyGrid(lines, elements)

	var edits []model.ObjectEdit
	for _, s := range removedSlabs {
		edits = append(edits, model.ObjectEdit{Kind: model.EditRemove, RemovedElementID: s.elementID, SourceRule: 3})
	}
	_ = roofSlabs // kept: roof slabs are retained, i.e. produce no edit
	edits = append(edits, rule4...)
	edits = append(edits, rule5...)
	edits = append(edits, rule6...)
	edits = append(edits, rule7...)
	edits = append(edits, grid...)

	sort.SliceStable(edits, func(i, j int) bool { return edits[i].SourceRule < edits[j].SourceRule })
	return edits, warnings
}

func elementBounds(ae AlignedElement) (rect, bool) {
	if len(ae.Aligned) == 0 {
		return rect{}, false
	}
	r := rect{minX: ae.Aligned[0].AlignedX, maxX: ae.Aligned[0].AlignedX, minY: ae.Aligned[0].AlignedY, maxY: ae.Aligned[0].AlignedY}
	for _, v := range ae.Aligned[1:] {
		if v.AlignedX < r.minX {
			r.minX = v.AlignedX
		}
		if v.AlignedX > r.maxX {
			r.maxX = v.AlignedX
		}
		if v.AlignedY < r.minY {
			r.minY = v.AlignedY
		}
		if v.AlignedY > r.maxY {
			r.maxY = v.AlignedY
		}
	}
	return r, true
}

func maxZ(ae AlignedElement) (float64, bool) {
	if len(ae.Aligned) == 0 {
		return 0, false
	}
	m := ae.Aligned[0].AlignedZ
	for _, v := range ae.Aligned[1:] {
		if v.AlignedZ > m {
			m = v.AlignedZ
		}
	}
	return m, true
}

func rectVertices(r rect, z float64, elementID int) []model.Vertex {
	return []model.Vertex{
		{ElementID: elementID, VertexIndex: 0, X: r.minX, Y: r.minY, Z: z},
		{ElementID: elementID, VertexIndex: 1, X: r.maxX, Y: r.minY, Z: z},
		{ElementID: elementID, VertexIndex: 2, X: r.maxX, Y: r.maxY, Z: z},
		{ElementID: elementID, VertexIndex: 3, X: r.minX, Y: r.maxY, Z: z},
	}
}
