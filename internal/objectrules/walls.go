package objectrules

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/strucgrid/bimalign/internal/config"
	"github.com/strucgrid/bimalign/internal/model"
)

// applyRule5 removes every multi-face or sub-threshold-thickness WALL and
// emits one replacement per floor span the original wall crosses.
func applyRule5(elements []AlignedElement, params config.Parameters) ([]model.ObjectEdit, []*model.AppError) {
	var edits []model.ObjectEdit
	var warnings []*model.AppError

	for _, ae := range elements {
		if ae.Kind != model.Wall {
			continue
		}
		if !needsSimplification(ae, params) {
			continue
		}

		bounds, ok := elementBounds(ae)
		if !ok {
			continue
		}
		zr, ok := wallZRange(ae)
		if !ok {
			continue
		}

		edits = append(edits, model.ObjectEdit{Kind: model.EditRemove, RemovedElementID: ae.ID, SourceRule: 5})

		spans := model.Spans(params.FloorLadder)
		found := false
		for _, span := range spans {
			if span.Top <= zr.bottom || span.Bottom >= zr.top {
				continue
			}
			found = true
			verts := []model.Vertex{
				{X: bounds.minX, Y: bounds.minY, Z: span.Bottom},
				{X: bounds.maxX, Y: bounds.minY, Z: span.Bottom},
				{X: bounds.maxX, Y: bounds.maxY, Z: span.Top},
				{X: bounds.minX, Y: bounds.maxY, Z: span.Top},
			}
			edits = append(edits, model.ObjectEdit{
				Kind:         model.EditAdd,
				ElementKind:  model.Wall,
				GeometryKind: model.LineCurve,
				Name:         fmt.Sprintf("WALL-SIMPLIFIED-%s", uuid.NewString()),
				Vertices:     verts,
				SourceRule:   5,
			})
		}
		if !found {
			warnings = append(warnings, model.NewAppError(
				model.CodeSlabFootprintUnreconstructable, model.SeverityRecoverable,
				fmt.Sprintf("wall element %d spans no floor span in the ladder", ae.ID), nil,
			).WithDetails("element_id", ae.ID))
		}
	}
	return edits, warnings
}

func needsSimplification(ae AlignedElement, params config.Parameters) bool {
	if ae.GeometryKind == model.Brep {
		return true // multi-face geometry, per spec always simplified
	}
	bounds, ok := elementBounds(ae)
	if !ok {
		return false
	}
	dx, dy := bounds.maxX-bounds.minX, bounds.maxY-bounds.minY
	thickness := dx
	if dy < thickness {
		thickness = dy
	}
	return thickness < params.ThinWallThreshold
}

type zRange struct{ bottom, top float64 }

func wallZRange(ae AlignedElement) (zRange, bool) {
	if len(ae.Aligned) == 0 {
		return zRange{}, false
	}
	r := zRange{bottom: ae.Aligned[0].AlignedZ, top: ae.Aligned[0].AlignedZ}
	for _, v := range ae.Aligned[1:] {
		if v.AlignedZ < r.bottom {
			r.bottom = v.AlignedZ
		}
		if v.AlignedZ > r.top {
			r.top = v.AlignedZ
		}
	}
	return r, true
}
