package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strucgrid/bimalign/internal/model"
)

func TestBuildSummary(t *testing.T) {
	id0 := 0
	vertices := []model.AlignedVertex{
		{Displacement: 0.01, AxisLineX: &id0},
		{Displacement: 0.02, AxisLineX: &id0},
		{Displacement: 0.50},
	}
	edits := []model.ObjectEdit{
		{SourceRule: 3}, {SourceRule: 3}, {SourceRule: 6},
	}
	warnings := []*model.AppError{
		model.NewAppError(model.CodeVertexUnsnapped, model.SeverityRecoverable, "test", nil),
	}

	s := Build(vertices, edits, warnings)
	assert.Equal(t, 3, s.VertexCount)
	assert.Equal(t, 2, s.SnappedCount)
	assert.Equal(t, 1, s.UnsnappedCount)
	assert.Equal(t, 2, s.EditCountsByRule[3])
	assert.Equal(t, 1, s.EditCountsByRule[6])
	assert.Equal(t, 0.50, s.Displacement.Max)
	require.Len(t, s.Warnings, 1)
	assert.Equal(t, "VERTEX_UNSNAPPED", s.Warnings[0].Code)

	data, err := s.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), "vertex_count")
}

func TestPercentilesSingleValue(t *testing.T) {
	p := percentiles([]float64{5.0})
	assert.Equal(t, 5.0, p.P50)
	assert.Equal(t, 5.0, p.Max)
}

func TestPercentilesEmpty(t *testing.T) {
	p := percentiles(nil)
	assert.Equal(t, Percentiles{}, p)
}
