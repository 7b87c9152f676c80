package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/strucgrid/bimalign/internal/config"
	"github.com/strucgrid/bimalign/internal/model"
)

func testLogger(t *testing.T) *zap.Logger {
	t.Helper()
	return zap.NewNop()
}

func TestRunNoElementsIsError(t *testing.T) {
	_, err := Run(context.Background(), testLogger(t), nil, config.Defaults(), nil, nil)
	require.ErrorIs(t, err, model.ErrNilElements)
}

func TestRunSingleColumnAligned(t *testing.T) {
	params := config.Defaults()
	params.MinFloors = 2

	elements := []*model.Element{
		{
			ID:   1,
			Kind: model.Column,
			Vertices: []model.Vertex{
				{ElementID: 1, VertexIndex: 0, X: 10.000, Y: 20.000, Z: -4.44},
				{ElementID: 1, VertexIndex: 1, X: 10.000, Y: 20.000, Z: 2.12},
			},
		},
		// A second column near the first, within rounding precision, so the
		// merged candidate clears min_floors=2 on both axes.
		{
			ID:   2,
			Kind: model.Column,
			Vertices: []model.Vertex{
				{ElementID: 2, VertexIndex: 0, X: 10.001, Y: 20.001, Z: -4.44},
				{ElementID: 2, VertexIndex: 1, X: 10.001, Y: 20.001, Z: 2.12},
			},
		},
	}

	out, err := Run(context.Background(), testLogger(t), elements, params, nil, nil)
	require.NoError(t, err)
	assert.True(t, out.Validator.OK())

	for _, v := range out.Vertices {
		assert.LessOrEqual(t, v.Displacement, 0.01)
		assert.Equal(t, v.OriginalZ, v.AlignedZ)
	}
}

func TestRunIsIdempotentOnAlignedOutput(t *testing.T) {
	params := config.Defaults()
	params.MinFloors = 2

	elements := []*model.Element{
		{ID: 1, Kind: model.Column, Vertices: []model.Vertex{
			{ElementID: 1, X: 10.001, Y: 20.001, Z: -4.44},
			{ElementID: 1, X: 9.999, Y: 19.999, Z: 2.12},
		}},
		{ID: 2, Kind: model.Column, Vertices: []model.Vertex{
			{ElementID: 2, X: 10.002, Y: 20.000, Z: -4.44},
			{ElementID: 2, X: 9.998, Y: 20.002, Z: 2.12},
		}},
	}

	first, err := Run(context.Background(), testLogger(t), elements, params, nil, nil)
	require.NoError(t, err)

	rerunElements := make([]*model.Element, len(elements))
	for i, e := range elements {
		verts := make([]model.Vertex, len(e.Vertices))
		for j, v := range e.Vertices {
			verts[j] = v
		}
		for _, av := range first.Vertices {
			if av.ElementID == e.ID {
				for j := range verts {
					if verts[j].VertexIndex == av.VertexIndex {
						verts[j].X = av.AlignedX
						verts[j].Y = av.AlignedY
					}
				}
			}
		}
		rerunElements[i] = &model.Element{ID: e.ID, Kind: e.Kind, Vertices: verts}
	}

	second, err := Run(context.Background(), testLogger(t), rerunElements, params, nil, nil)
	require.NoError(t, err)

	for i := range first.Vertices {
		assert.InDelta(t, first.Vertices[i].AlignedX, second.Vertices[i].AlignedX, 1e-9)
		assert.InDelta(t, first.Vertices[i].AlignedY, second.Vertices[i].AlignedY, 1e-9)
	}
}

func TestRunSlabRemovalAndRoofPreservation(t *testing.T) {
	params := config.Defaults()
	params.MinFloors = 2
	params.RoofZThreshold = 30.0

	elements := []*model.Element{
		{ID: 1, Kind: model.Column, Vertices: []model.Vertex{
			{ElementID: 1, X: 0, Y: 0, Z: -4.44},
			{ElementID: 1, X: 0, Y: 0, Z: 2.12},
		}},
		{ID: 2, Kind: model.Slab, GeometryKind: model.PolyCurve, Vertices: []model.Vertex{
			{ElementID: 2, X: -5, Y: -5, Z: 2.12},
			{ElementID: 2, X: 5, Y: 5, Z: 2.12},
		}},
		{ID: 3, Kind: model.Slab, GeometryKind: model.PolyCurve, Vertices: []model.Vertex{
			{ElementID: 3, X: -5, Y: -5, Z: 32.36},
			{ElementID: 3, X: 5, Y: 5, Z: 32.36},
		}},
	}

	out, err := Run(context.Background(), testLogger(t), elements, params, nil, nil)
	require.NoError(t, err)

	var removedLowSlab, removedRoofSlab bool
	for _, e := range out.Edits {
		if e.Kind == model.EditRemove && e.RemovedElementID == 2 {
			removedLowSlab = true
		}
		if e.Kind == model.EditRemove && e.RemovedElementID == 3 {
			removedRoofSlab = true
		}
	}
	assert.True(t, removedLowSlab)
	assert.False(t, removedRoofSlab)
}
