// Package config loads and validates the tunable parameters of the
// alignment pipeline: rounding precision, snap tolerances, the floor
// ladder, and the per-rule thresholds of the object-transform engine.
// Values load from an optional YAML file over the documented defaults
// below, and may then be overridden through ApplyOverrides.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/strucgrid/bimalign/internal/model"
)

// Parameters holds every tunable value named in spec.md §4.
type Parameters struct {
	RoundingPrecision   float64   `yaml:"rounding_precision"`
	ClusterRadius       float64   `yaml:"cluster_radius"`
	ZTolerance          float64   `yaml:"z_tolerance"`
	MinFloors           int       `yaml:"min_floors"`
	MaxSnapDistance     float64   `yaml:"max_snap_distance"`
	OutlierSnapDistance float64   `yaml:"outlier_snap_distance"`
	RoofZThreshold      float64   `yaml:"roof_z_threshold"`
	ConsolidationGap    float64   `yaml:"consolidation_gap"`
	ThinWallThreshold   float64   `yaml:"thin_wall_threshold"`
	ProximityTolerance  float64   `yaml:"proximity_tolerance"`
	DedupRadius         float64   `yaml:"dedup_radius"`
	SupportFloors       []float64 `yaml:"support_floors"`
	FloorLadder         []float64 `yaml:"floor_ladder"`

	// RecallThreshold, if > 0 and a reference model is supplied, controls
	// the axis-discovery fallback of spec.md §4.1 step 5.
	RecallThreshold float64 `yaml:"recall_threshold"`
}

// Defaults returns the parameter set documented in spec.md §4.
func Defaults() Parameters {
	return Parameters{
		RoundingPrecision:   0.005,
		ClusterRadius:       0.002,
		ZTolerance:          0.020,
		MinFloors:           3,
		MaxSnapDistance:     0.75,
		OutlierSnapDistance: 4.0,
		RoofZThreshold:      30.0,
		ConsolidationGap:    2.0,
		ThinWallThreshold:   0.05,
		ProximityTolerance:  0.5,
		DedupRadius:         0.1,
		SupportFloors:       []float64{-4.44, 2.12},
		FloorLadder:         append([]float64(nil), model.FloorLadder...),
		RecallThreshold:     0,
	}
}

// Load reads a YAML file at path and merges it over Defaults(). A missing
// path is not an error — Defaults() alone is returned.
func Load(path string) (Parameters, error) {
	params := Defaults()
	if path == "" {
		return params, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return params, nil
		}
		return params, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &params); err != nil {
		return params, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := params.Validate(); err != nil {
		return params, err
	}
	return params, nil
}

// Validate checks rounding_precision, cluster_radius, min_floors, the two
// snap distances and the floor ladder; the remaining parameters are not
// range-checked.
func (p Parameters) Validate() error {
	switch {
	case p.RoundingPrecision <= 0:
		return fmt.Errorf("rounding_precision must be > 0, got %v", p.RoundingPrecision)
	case p.ClusterRadius < 0:
		return fmt.Errorf("cluster_radius must be >= 0, got %v", p.ClusterRadius)
	case p.MinFloors < 1:
		return fmt.Errorf("min_floors must be >= 1, got %v", p.MinFloors)
	case p.MaxSnapDistance <= 0:
		return fmt.Errorf("max_snap_distance must be > 0, got %v", p.MaxSnapDistance)
	case p.OutlierSnapDistance < p.MaxSnapDistance:
		return fmt.Errorf("outlier_snap_distance (%v) must be >= max_snap_distance (%v)", p.OutlierSnapDistance, p.MaxSnapDistance)
	case len(p.FloorLadder) < 2:
		return fmt.Errorf("floor_ladder must have at least 2 levels, got %d", len(p.FloorLadder))
	}
	for i := 1; i < len(p.FloorLadder); i++ {
		if p.FloorLadder[i] <= p.FloorLadder[i-1] {
			return fmt.Errorf("floor_ladder must be strictly increasing, level %d (%v) <= level %d (%v)",
				i, p.FloorLadder[i], i-1, p.FloorLadder[i-1])
		}
	}
	return nil
}

// ApplyOverrides merges the set (non-nil) override values over the
// receiver, letting flag values win over a config file. The cmd/bimalign
// commands do not call it and define no such flags.
func (p Parameters) ApplyOverrides(o Overrides) Parameters {
	if o.RoundingPrecision != nil {
		p.RoundingPrecision = *o.RoundingPrecision
	}
	if o.MaxSnapDistance != nil {
		p.MaxSnapDistance = *o.MaxSnapDistance
	}
	if o.OutlierSnapDistance != nil {
		p.OutlierSnapDistance = *o.OutlierSnapDistance
	}
	if o.MinFloors != nil {
		p.MinFloors = *o.MinFloors
	}
	return p
}

// Overrides carries optional CLI-flag values; nil means "not set".
type Overrides struct {
	RoundingPrecision   *float64
	MaxSnapDistance     *float64
	OutlierSnapDistance *float64
	MinFloors           *int
}
