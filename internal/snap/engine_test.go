package snap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strucgrid/bimalign/internal/axis"
	"github.com/strucgrid/bimalign/internal/config"
	"github.com/strucgrid/bimalign/internal/model"
)

func TestSnapSingleColumnAligned(t *testing.T) {
	params := config.Defaults()
	elements := []*model.Element{
		{
			ID:   1,
			Kind: model.Column,
			Vertices: []model.Vertex{
				{ElementID: 1, VertexIndex: 0, X: -39.775, Y: 22.500, Z: -4.44},
				{ElementID: 1, VertexIndex: 1, X: -39.770, Y: 22.502, Z: -1.56},
				{ElementID: 1, VertexIndex: 2, X: -39.772, Y: 22.500, Z: 2.12},
				{ElementID: 1, VertexIndex: 3, X: -39.773, Y: 22.501, Z: 5.48},
			},
		},
	}
	lines := axis.Result{
		X: []model.AxisLine{{ID: 0, Axis: model.X, Position: -39.700, FloorCount: 6}},
		Y: []model.AxisLine{{ID: 0, Axis: model.Y, Position: 22.500, FloorCount: 8}},
	}

	res, err := Snap(context.Background(), elements, lines, params)
	require.NoError(t, err)
	require.Len(t, res.Vertices, 4)
	for _, v := range res.Vertices {
		assert.InDelta(t, -39.700, v.AlignedX, 1e-9)
		assert.InDelta(t, 22.500, v.AlignedY, 1e-9)
		assert.Equal(t, v.OriginalZ, v.AlignedZ)
		assert.LessOrEqual(t, v.Displacement, 0.1)
	}
}

func TestSnapZInvariant(t *testing.T) {
	params := config.Defaults()
	elements := []*model.Element{
		{ID: 1, Kind: model.Column, Vertices: []model.Vertex{{ElementID: 1, X: 0, Y: 0, Z: 42.123}}},
	}
	lines := axis.Result{
		X: []model.AxisLine{{ID: 0, Position: 0.001}},
		Y: []model.AxisLine{{ID: 0, Position: 0.001}},
	}
	res, err := Snap(context.Background(), elements, lines, params)
	require.NoError(t, err)
	require.Len(t, res.Vertices, 1)
	assert.Equal(t, 42.123, res.Vertices[0].AlignedZ)
}

func TestSnapOutOfRangeProducesWarning(t *testing.T) {
	params := config.Defaults()
	params.MaxSnapDistance = 0.1
	params.OutlierSnapDistance = 0.2
	elements := []*model.Element{
		{ID: 1, Kind: model.Column, Vertices: []model.Vertex{{ElementID: 1, X: 50, Y: 50, Z: 0}}},
	}
	lines := axis.Result{
		X: []model.AxisLine{{ID: 0, Position: 0}},
		Y: []model.AxisLine{{ID: 0, Position: 0}},
	}
	res, err := Snap(context.Background(), elements, lines, params)
	require.NoError(t, err)
	require.Len(t, res.Vertices, 1)
	assert.Nil(t, res.Vertices[0].AxisLineX)
	assert.NotEmpty(t, res.Warnings)
	assert.Equal(t, model.CodeVertexUnsnapped, res.Warnings[0].Code)
}

func TestSnapEquidistantPrefersHigherFloorCount(t *testing.T) {
	params := config.Defaults()
	elements := []*model.Element{
		{ID: 1, Kind: model.Column, Vertices: []model.Vertex{{ElementID: 1, X: 10.5, Y: 0, Z: 0}}},
	}
	lines := axis.Result{
		X: []model.AxisLine{
			{ID: 0, Axis: model.X, Position: 10.0, FloorCount: 8, VertexCount: 40},
			{ID: 1, Axis: model.X, Position: 11.0, FloorCount: 3, VertexCount: 90},
		},
		Y: []model.AxisLine{{ID: 0, Axis: model.Y, Position: 0, FloorCount: 8}},
	}

	res, err := Snap(context.Background(), elements, lines, params)
	require.NoError(t, err)
	require.Len(t, res.Vertices, 1)
	assert.InDelta(t, 10.0, res.Vertices[0].AlignedX, 1e-9)
}

func TestSnapSlabPassesThrough(t *testing.T) {
	params := config.Defaults()
	elements := []*model.Element{
		{ID: 1, Kind: model.Slab, Vertices: []model.Vertex{{ElementID: 1, X: 3.14159, Y: 2.71828, Z: 2.12}}},
	}
	lines := axis.Result{
		X: []model.AxisLine{{ID: 0, Position: 0}},
		Y: []model.AxisLine{{ID: 0, Position: 0}},
	}
	res, err := Snap(context.Background(), elements, lines, params)
	require.NoError(t, err)
	require.Len(t, res.Vertices, 1)
	assert.Equal(t, 3.14159, res.Vertices[0].AlignedX)
	assert.Nil(t, res.Vertices[0].AxisLineX)
}
