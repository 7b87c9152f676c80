package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strucgrid/bimalign/internal/config"
	"github.com/strucgrid/bimalign/internal/model"
)

func TestValidateZInvariantViolation(t *testing.T) {
	vertices := []model.AlignedVertex{
		{ElementID: 1, OriginalZ: 1.0, AlignedZ: 1.0},
		{ElementID: 2, OriginalZ: 2.0, AlignedZ: 2.5},
	}
	rep := Validate(vertices, nil, config.Defaults(), nil)
	require.False(t, rep.OK())
	assert.Equal(t, model.CodeValidationFailed, rep.Critical[0].Code)
}

func TestValidatePassesCleanRun(t *testing.T) {
	id0 := 0
	vertices := []model.AlignedVertex{
		{ElementID: 1, VertexIndex: 0, OriginalZ: 1.0, AlignedZ: 1.0, AlignedX: 10.000, AxisLineX: &id0},
		{ElementID: 1, VertexIndex: 1, OriginalZ: 2.0, AlignedZ: 2.0, AlignedX: 10.000, AxisLineX: &id0},
	}
	rep := Validate(vertices, nil, config.Defaults(), nil)
	assert.True(t, rep.OK())
}

func TestValidateElementConsistencyViolation(t *testing.T) {
	id0 := 0
	vertices := []model.AlignedVertex{
		{ElementID: 1, VertexIndex: 0, AlignedX: 10.000, AxisLineX: &id0},
		{ElementID: 1, VertexIndex: 1, AlignedX: 10.005, AxisLineX: &id0},
	}
	rep := Validate(vertices, nil, config.Defaults(), nil)
	require.False(t, rep.OK())
}

func TestValidateObjectCountDriftWarning(t *testing.T) {
	edits := []model.ObjectEdit{
		{Kind: model.EditAdd},
		{Kind: model.EditAdd},
	}
	refCount := 100
	rep := Validate(nil, edits, config.Defaults(), &refCount)
	assert.NotEmpty(t, rep.Warnings)
	assert.Equal(t, model.CodeObjectCountDrift, rep.Warnings[0].Code)
}
