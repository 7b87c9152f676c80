package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingPathReturnsDefaults(t *testing.T) {
	params, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), params)
}

func TestLoadMergesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "params.yaml")
	require.NoError(t, os.WriteFile(path, []byte("min_floors: 5\nmax_snap_distance: 1.0\n"), 0o600))

	params, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, params.MinFloors)
	assert.Equal(t, 1.0, params.MaxSnapDistance)
	assert.Equal(t, Defaults().RoundingPrecision, params.RoundingPrecision)
}

func TestValidateRejectsBadValues(t *testing.T) {
	p := Defaults()
	p.OutlierSnapDistance = p.MaxSnapDistance - 0.1
	assert.Error(t, p.Validate())

	p = Defaults()
	p.FloorLadder = []float64{1, 1}
	assert.Error(t, p.Validate())

	p = Defaults()
	p.MinFloors = 0
	assert.Error(t, p.Validate())
}

func TestApplyOverrides(t *testing.T) {
	p := Defaults()
	minFloors := 7
	p2 := p.ApplyOverrides(Overrides{MinFloors: &minFloors})
	assert.Equal(t, 7, p2.MinFloors)
	assert.Equal(t, p.RoundingPrecision, p2.RoundingPrecision)
}
