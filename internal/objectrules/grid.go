package objectrules

import (
	"github.com/strucgrid/bimalign/internal/axis"
	"github.com/strucgrid/bimalign/internal/model"
)

// applyGrid emits one unnamed horizontal curve per Y-axis line, spanning
// the building's X extent, on the "grid" logical layer.
func applyGrid(lines axis.Result, elements []AlignedElement) []model.ObjectEdit {
	minX, maxX, ok := buildingXExtent(elements)
	if !ok {
		return nil
	}

	var edits []model.ObjectEdit
	for _, yl := range lines.Y {
		edits = append(edits, model.ObjectEdit{
			Kind:         model.EditAdd,
			ElementKind:  model.Beam,
			GeometryKind: model.LineCurve,
			Vertices: []model.Vertex{
				{X: minX, Y: yl.Position, Z: 0},
				{X: maxX, Y: yl.Position, Z: 0},
			},
			LayerHint:  "grid",
			SourceRule: 8,
		})
	}
	return edits
}

func buildingXExtent(elements []AlignedElement) (minX, maxX float64, ok bool) {
	for _, ae := range elements {
		bounds, has := elementBounds(ae)
		if !has {
			continue
		}
		if !ok {
			minX, maxX, ok = bounds.minX, bounds.maxX, true
			continue
		}
		if bounds.minX < minX {
			minX = bounds.minX
		}
		if bounds.maxX > maxX {
			maxX = bounds.maxX
		}
	}
	return minX, maxX, ok
}
