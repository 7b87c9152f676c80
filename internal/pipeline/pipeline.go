// Package pipeline orchestrates the alignment engine end to end: axis
// discovery, endpoint resolution, snapping, the object-transform rules,
// and validation, in that order.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/strucgrid/bimalign/internal/axis"
	"github.com/strucgrid/bimalign/internal/config"
	"github.com/strucgrid/bimalign/internal/model"
	"github.com/strucgrid/bimalign/internal/objectrules"
	"github.com/strucgrid/bimalign/internal/snap"
	"github.com/strucgrid/bimalign/internal/validator"
)

// Output is everything a caller (CLI command, test) needs from one run.
type Output struct {
	Axis      axis.Result
	Vertices  []model.AlignedVertex
	Edits     []model.ObjectEdit
	Validator validator.Report
	Warnings  []*model.AppError
}

// Run executes the full pipeline over elements using params, optionally
// against a reference model that drives the axis-discovery recall
// fallback and the validator's object-count drift check.
func Run(ctx context.Context, logger *zap.Logger, elements []*model.Element, params config.Parameters, ref *axis.Reference, referenceObjectCount *int) (Output, error) {
	if len(elements) == 0 {
		return Output{}, model.ErrNilElements
	}

	vertices := flattenVertices(elements)

	logger.Debug("discovering axis lines", zap.Int("vertex_count", len(vertices)))
	axisResult, err := axis.Discover(ctx, vertices, params, ref)
	if err != nil {
		return Output{}, fmt.Errorf("axis discovery: %w", err)
	}
	logger.Info("axis discovery complete",
		zap.Int("x_lines", len(axisResult.X)), zap.Int("y_lines", len(axisResult.Y)))

	logger.Debug("snapping vertices")
	snapResult, err := snap.Snap(ctx, elements, axisResult, params)
	if err != nil {
		return Output{}, fmt.Errorf("snap: %w", err)
	}

	aligned := toAlignedElements(elements, snapResult.Vertices)

	logger.Debug("applying object transform rules")
	edits, ruleWarnings := objectrules.Apply(aligned, axisResult, params)

	rep := validator.Validate(snapResult.Vertices, edits, params, referenceObjectCount)

	var warnings []*model.AppError
	warnings = append(warnings, axisResult.Warnings...)
	warnings = append(warnings, snapResult.Warnings...)
	warnings = append(warnings, ruleWarnings...)
	warnings = append(warnings, rep.Warnings...)

	if !rep.OK() {
		return Output{Axis: axisResult, Vertices: snapResult.Vertices, Edits: edits, Validator: rep, Warnings: warnings},
			model.NewAppError(model.CodeValidationFailed, model.SeverityFatal,
				fmt.Sprintf("%d critical validation failures", len(rep.Critical)), nil)
	}

	logger.Info("pipeline complete",
		zap.Int("vertex_count", len(snapResult.Vertices)),
		zap.Int("edit_count", len(edits)),
		zap.Int("warning_count", len(warnings)))

	return Output{
		Axis:      axisResult,
		Vertices:  snapResult.Vertices,
		Edits:     edits,
		Validator: rep,
		Warnings:  warnings,
	}, nil
}

func flattenVertices(elements []*model.Element) []model.Vertex {
	var out []model.Vertex
	for _, e := range elements {
		out = append(out, e.Vertices...)
	}
	return out
}

// toAlignedElements re-groups the flat AlignedVertex stream back by
// element, preserving each element's original vertex order.
func toAlignedElements(elements []*model.Element, vertices []model.AlignedVertex) []objectrules.AlignedElement {
	byElement := make(map[int][]model.AlignedVertex)
	for _, v := range vertices {
		byElement[v.ElementID] = append(byElement[v.ElementID], v)
	}

	out := make([]objectrules.AlignedElement, 0, len(elements))
	for _, e := range elements {
		avs := byElement[e.ID]
		ordered := make([]model.AlignedVertex, len(e.Vertices))
		byIndex := make(map[int]model.AlignedVertex, len(avs))
		for _, av := range avs {
			byIndex[av.VertexIndex] = av
		}
		for i := range e.Vertices {
			ordered[i] = byIndex[i]
		}
		out = append(out, objectrules.AlignedElement{Element: e, Aligned: ordered})
	}
	return out
}
