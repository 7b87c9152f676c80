// Package report builds the summary emitted by `bimalign report`: per-rule
// edit counts and displacement percentiles over the aligned vertex stream.
// The structural model file and database writers that persist a full
// report live outside this module as external collaborators; this package
// only shapes the summary data and its JSON encoding.
package report

import (
	"encoding/json"
	"math"
	"sort"

	"github.com/strucgrid/bimalign/internal/model"
)

// Summary is the JSON-serializable output of a single alignment run.
type Summary struct {
	VertexCount      int             `json:"vertex_count"`
	SnappedCount     int             `json:"snapped_count"`
	UnsnappedCount   int             `json:"unsnapped_count"`
	Displacement     Percentiles     `json:"displacement"`
	EditCountsByRule map[int]int     `json:"edit_counts_by_rule"`
	Warnings         []WarningRecord `json:"warnings,omitempty"`
}

// Percentiles over the displacement distribution, in meters.
type Percentiles struct {
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
	Max float64 `json:"max"`
}

// WarningRecord is the JSON projection of a recoverable AppError.
type WarningRecord struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Build summarizes a run's aligned vertices, emitted edits, and warnings.
func Build(vertices []model.AlignedVertex, edits []model.ObjectEdit, warnings []*model.AppError) Summary {
	s := Summary{
		VertexCount:      len(vertices),
		EditCountsByRule: make(map[int]int),
	}

	displacements := make([]float64, 0, len(vertices))
	for _, v := range vertices {
		displacements = append(displacements, v.Displacement)
		if v.AxisLineX != nil || v.AxisLineY != nil {
			s.SnappedCount++
		} else {
			s.UnsnappedCount++
		}
	}
	s.Displacement = percentiles(displacements)

	for _, e := range edits {
		s.EditCountsByRule[e.SourceRule]++
	}

	for _, w := range warnings {
		if w == nil {
			continue
		}
		s.Warnings = append(s.Warnings, WarningRecord{Code: string(w.Code), Message: w.Message})
	}

	return s
}

// ToJSON renders the summary as indented JSON.
func (s Summary) ToJSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

func percentiles(values []float64) Percentiles {
	if len(values) == 0 {
		return Percentiles{}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	return Percentiles{
		P50: percentileAt(sorted, 0.50),
		P95: percentileAt(sorted, 0.95),
		P99: percentileAt(sorted, 0.99),
		Max: sorted[len(sorted)-1],
	}
}

// percentileAt linearly interpolates between the two closest ranks of the
// sorted slice (rank p*(n-1)).
func percentileAt(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	idx := p * float64(len(sorted)-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
