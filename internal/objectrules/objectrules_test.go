package objectrules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strucgrid/bimalign/internal/axis"
	"github.com/strucgrid/bimalign/internal/config"
	"github.com/strucgrid/bimalign/internal/model"
)

func alignedFrom(id int, kind model.Kind, geom model.GeometryKind, verts ...model.Vertex) AlignedElement {
	e := &model.Element{ID: id, Kind: kind, GeometryKind: geom, Vertices: verts}
	aligned := make([]model.AlignedVertex, len(verts))
	for i, v := range verts {
		aligned[i] = model.AlignedVertex{
			ElementID: id, VertexIndex: i,
			OriginalX: v.X, OriginalY: v.Y, OriginalZ: v.Z,
			AlignedX: v.X, AlignedY: v.Y, AlignedZ: v.Z,
		}
	}
	return AlignedElement{Element: e, Aligned: aligned}
}

func TestRule3RemovesLowSlabKeepsRoof(t *testing.T) {
	params := config.Defaults()
	params.RoofZThreshold = 30.0

	lowSlab := alignedFrom(1, model.Slab, model.PolyCurve,
		model.Vertex{X: 0, Y: 0, Z: 2.12}, model.Vertex{X: 10, Y: 10, Z: 2.12})
	roofSlab := alignedFrom(2, model.Slab, model.PolyCurve,
		model.Vertex{X: 0, Y: 0, Z: 32.36}, model.Vertex{X: 10, Y: 10, Z: 32.36})

	removed, kept := applyRule3([]AlignedElement{lowSlab, roofSlab}, params)
	require.Len(t, removed, 1)
	assert.Equal(t, 1, removed[0].elementID)
	require.Len(t, kept, 1)
	assert.Equal(t, 2, kept[0])
}

func TestRule4ConsolidatesPerFloor(t *testing.T) {
	params := config.Defaults()
	params.ConsolidationGap = 2.0

	removed := []removedSlab{
		{elementID: 1, z: 2.12, footprint: rect{0, 1, 0, 1}},
		{elementID: 2, z: 2.12, footprint: rect{0.5, 1.5, 0.5, 1.5}},
		{elementID: 3, z: 2.12, footprint: rect{20, 21, 20, 21}},
	}
	edits := applyRule4(removed, params)
	require.Len(t, edits, 2)
	for _, e := range edits {
		assert.Equal(t, model.EditAdd, e.Kind)
		assert.Equal(t, model.Slab, e.ElementKind)
		assert.Equal(t, 4, e.SourceRule)
	}
}

func TestRule5SimplifiesThinWall(t *testing.T) {
	params := config.Defaults()
	params.ThinWallThreshold = 0.05
	params.FloorLadder = []float64{0, 5, 10}

	wall := alignedFrom(1, model.Wall, model.LineCurve,
		model.Vertex{X: 0, Y: 0, Z: 0}, model.Vertex{X: 10, Y: 0.02, Z: 10})

	edits, warnings := applyRule5([]AlignedElement{wall}, params)
	assert.Empty(t, warnings)
	require.NotEmpty(t, edits)
	assert.Equal(t, model.EditRemove, edits[0].Kind)
	assert.Equal(t, 1, edits[0].RemovedElementID)

	var added int
	for _, e := range edits[1:] {
		assert.Equal(t, model.EditAdd, e.Kind)
		added++
	}
	assert.Equal(t, 2, added) // two floor spans crossed
}

func TestRule6EmitsSupportNearColumn(t *testing.T) {
	params := config.Defaults()
	params.SupportFloors = []float64{-4.44}
	params.ProximityTolerance = 0.5
	params.DedupRadius = 0.1

	column := alignedFrom(1, model.Column, model.Point, model.Vertex{X: 10.0, Y: 20.0, Z: -4.44})
	lines := axis.Result{
		X: []model.AxisLine{{ID: 0, Position: 10.0}},
		Y: []model.AxisLine{{ID: 0, Position: 20.0}},
	}

	edits := applyRule6([]AlignedElement{column}, lines, params)
	require.Len(t, edits, 1)
	assert.Equal(t, model.Support, edits[0].ElementKind)
	assert.Equal(t, 6, edits[0].SourceRule)
}

func TestRule6RetiresOffAxisSupport(t *testing.T) {
	params := config.Defaults()
	support := alignedFrom(9, model.Support, model.Point, model.Vertex{X: 99.0, Y: 99.0, Z: -4.44})
	lines := axis.Result{
		X: []model.AxisLine{{ID: 0, Position: 10.0}},
		Y: []model.AxisLine{{ID: 0, Position: 20.0}},
	}
	edits := applyRule6([]AlignedElement{support}, lines, params)
	require.Len(t, edits, 1)
	assert.Equal(t, model.EditRemove, edits[0].Kind)
	assert.Equal(t, 9, edits[0].RemovedElementID)
}

func TestRule6EmitsEdgeLineSupportForBoundaryWall(t *testing.T) {
	params := config.Defaults()
	params.SupportFloors = []float64{0}
	params.DedupRadius = 0.1
	params.RoundingPrecision = 0.005

	// Wall runs along the Y boundary at the perimeter's min-X axis line.
	wall := alignedFrom(1, model.Wall, model.LineCurve,
		model.Vertex{X: 0, Y: 0, Z: 0}, model.Vertex{X: 0, Y: 20, Z: 0})
	lines := axis.Result{
		X: []model.AxisLine{{ID: 0, Position: 0}, {ID: 1, Position: 10}},
		Y: []model.AxisLine{{ID: 0, Position: 0}, {ID: 1, Position: 20}},
	}

	edits := applyRule6([]AlignedElement{wall}, lines, params)
	var lineSupports int
	for _, e := range edits {
		if e.Kind == model.EditAdd && e.ElementKind == model.Support && e.GeometryKind == model.LineCurve {
			lineSupports++
			require.Len(t, e.Vertices, 2)
			assert.InDelta(t, 0, e.Vertices[0].X, 1e-9)
			assert.Equal(t, 6, e.SourceRule)
		}
	}
	assert.Equal(t, 1, lineSupports)
}

func TestApplyOrdersEditsByRule(t *testing.T) {
	params := config.Defaults()
	params.FloorLadder = []float64{0, 5, 10}
	params.RoofZThreshold = 30

	slab := alignedFrom(1, model.Slab, model.PolyCurve, model.Vertex{X: 0, Y: 0, Z: 0}, model.Vertex{X: 5, Y: 5, Z: 0})
	wall := alignedFrom(2, model.Wall, model.LineCurve, model.Vertex{X: 0, Y: 0, Z: 0}, model.Vertex{X: 5, Y: 0.01, Z: 10})
	column := alignedFrom(3, model.Column, model.Point, model.Vertex{X: 2.0, Y: 2.0, Z: 0})

	lines := axis.Result{
		X: []model.AxisLine{{ID: 0, Position: 2.0}},
		Y: []model.AxisLine{{ID: 0, Position: 2.0}},
	}

	edits, _ := Apply([]AlignedElement{slab, wall, column}, lines, params)
	require.NotEmpty(t, edits)
	for i := 1; i < len(edits); i++ {
		assert.LessOrEqual(t, edits[i-1].SourceRule, edits[i].SourceRule)
	}
}
