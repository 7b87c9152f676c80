// Package axis implements Axis Discovery (spec.md §4.1): selecting
// canonical X and Y axis-line positions from the raw vertex cloud by
// multi-floor presence rather than density clustering. A true axis line
// carries structural elements across several floors; using that as a
// selector avoids merging two axes that happen to sit close together,
// which a DBSCAN-style approach would fuse.
package axis

import (
	"context"
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/strucgrid/bimalign/internal/config"
	"github.com/strucgrid/bimalign/internal/model"
)

// Result is the output of Discover: the two ordered AxisLine lists plus any
// recoverable conditions encountered (e.g. a reference position the
// discovered set missed beyond tolerance).
type Result struct {
	X, Y     []model.AxisLine
	Warnings []*model.AppError
}

// Reference supplies known axis positions (e.g. from a prior reference
// model) used only to drive the recall-based fallback of step 5 and to
// surface ReferenceMissingPosition warnings. It is optional.
type Reference struct {
	X, Y []float64
}

// Discover runs per-axis discovery concurrently, matching spec.md §5's note
// that X and Y are embarrassingly parallel.
func Discover(ctx context.Context, vertices []model.Vertex, params config.Parameters, ref *Reference) (Result, error) {
	var res Result
	var warningsX, warningsY []*model.AppError
	g, ctx := errgroup.WithContext(ctx)
	_ = ctx // no per-iteration cancellation point inside a single axis scan

	g.Go(func() error {
		refX := []float64(nil)
		if ref != nil {
			refX = ref.X
		}
		lines, warnings, err := discoverAxis(model.X, vertices, params, refX)
		res.X = lines
		warningsX = warnings
		return err
	})
	g.Go(func() error {
		refY := []float64(nil)
		if ref != nil {
			refY = ref.Y
		}
		lines, warnings, err := discoverAxis(model.Y, vertices, params, refY)
		res.Y = lines
		warningsY = warnings
		return err
	})

	if err := g.Wait(); err != nil {
		return res, err
	}
	// Merged in a fixed X-then-Y order, independent of goroutine scheduling.
	res.Warnings = append(res.Warnings, warningsX...)
	res.Warnings = append(res.Warnings, warningsY...)
	return res, nil
}

// candidate is a coalesced, vertex-weighted-mean position carrying the
// union of distinct Z-levels witnessed there.
type candidate struct {
	sumPos      float64
	vertexCount int
	zLevels     []float64 // distinct representatives, z_tolerance apart
}

func (c *candidate) position() float64 {
	if c.vertexCount == 0 {
		return c.sumPos
	}
	return c.sumPos / float64(c.vertexCount)
}

func (c *candidate) addZ(z, tolerance float64) {
	for _, existing := range c.zLevels {
		if abs(existing-z) <= tolerance {
			return
		}
	}
	c.zLevels = append(c.zLevels, z)
}

func discoverAxis(axis model.Axis, vertices []model.Vertex, params config.Parameters, referencePositions []float64) ([]model.AxisLine, []*model.AppError, error) {
	if len(vertices) == 0 {
		return nil, nil, nil
	}

	candidates := buildCandidates(axis, vertices, params)

	lines, err := selectAxisLines(axis, candidates, params.MinFloors)
	if err != nil {
		return nil, nil, err
	}

	var warnings []*model.AppError
	if len(lines) == 0 {
		// Pathological input: relax to min_floors=2 before giving up.
		lines, err = selectAxisLines(axis, candidates, 2)
		if err != nil {
			return nil, nil, err
		}
		if len(lines) == 0 {
			return nil, nil, model.NewAppError(
				model.CodeNoAxesFound, model.SeverityFatal,
				fmt.Sprintf("no axis lines discovered on %s axis", axis), nil,
			).WithDetails("axis", axis.String())
		}
	}

	if referencePositions != nil && params.RecallThreshold > 0 {
		recall := measureRecall(lines, referencePositions, params.RoundingPrecision)
		if recall < params.RecallThreshold {
			relaxed, err := selectAxisLines(axis, candidates, params.MinFloors-1)
			if err != nil {
				return nil, nil, err
			}
			lines = admitAdditional(lines, relaxed)
		}
		for _, pos := range referencePositions {
			if !hasPositionNear(lines, pos, params.RoundingPrecision) {
				warnings = append(warnings, model.NewAppError(
					model.CodeReferenceMissingPosition, model.SeverityWarning,
					fmt.Sprintf("reference %s position %.4f absent from discovered set", axis, pos), nil,
				).WithDetails("axis", axis.String()).WithDetails("position", pos))
			}
		}
	}

	return lines, warnings, nil
}

// buildCandidates rounds each vertex to rounding_precision, groups by the
// rounded position, then coalesces groups within cluster_radius into
// vertex-weighted-mean candidates (spec.md §4.1 steps 1-3).
func buildCandidates(axis model.Axis, vertices []model.Vertex, params config.Parameters) []*candidate {
	type bucket struct {
		position float64
		cand     *candidate
	}

	byRounded := make(map[int64]*bucket)
	for _, v := range vertices {
		pos := coord(axis, v)
		key := roundKey(pos, params.RoundingPrecision)
		b, ok := byRounded[key]
		if !ok {
			b = &bucket{position: roundTo(pos, params.RoundingPrecision), cand: &candidate{}}
			byRounded[key] = b
		}
		b.cand.sumPos += pos
		b.cand.vertexCount++
		b.cand.addZ(v.Z, params.ZTolerance)
	}

	buckets := make([]*bucket, 0, len(byRounded))
	for _, b := range byRounded {
		buckets = append(buckets, b)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].position < buckets[j].position })

	// Coalesce adjacent buckets within cluster_radius.
	var merged []*candidate
	for _, b := range buckets {
		if len(merged) > 0 {
			last := merged[len(merged)-1]
			if abs(last.position()-b.position) <= params.ClusterRadius {
				last.sumPos += b.cand.sumPos
				last.vertexCount += b.cand.vertexCount
				for _, z := range b.cand.zLevels {
					last.addZ(z, params.ZTolerance)
				}
				continue
			}
		}
		merged = append(merged, b.cand)
	}
	return merged
}

// selectAxisLines keeps candidates with at least minFloors distinct Z
// levels, tie-breaking deterministically, then returns them sorted
// ascending by position with sequential IDs.
func selectAxisLines(axis model.Axis, candidates []*candidate, minFloors int) ([]model.AxisLine, error) {
	if minFloors < 1 {
		return nil, fmt.Errorf("min_floors must be >= 1, got %d", minFloors)
	}

	type kept struct {
		cand       *candidate
		floorCount int
	}
	var keptList []kept
	for _, c := range candidates {
		if len(c.zLevels) >= minFloors {
			keptList = append(keptList, kept{cand: c, floorCount: len(c.zLevels)})
		}
	}

	// Tie-break: positions tying on Z-count sort by (-vertex_count, position).
	sort.SliceStable(keptList, func(i, j int) bool {
		if keptList[i].floorCount != keptList[j].floorCount {
			return keptList[i].floorCount > keptList[j].floorCount
		}
		if keptList[i].cand.vertexCount != keptList[j].cand.vertexCount {
			return keptList[i].cand.vertexCount > keptList[j].cand.vertexCount
		}
		return keptList[i].cand.position() < keptList[j].cand.position()
	})

	// Final output order is ascending by position (the contract in spec.md
	// §4.1), independent of the tie-break pass above.
	sort.SliceStable(keptList, func(i, j int) bool {
		return keptList[i].cand.position() < keptList[j].cand.position()
	})

	lines := make([]model.AxisLine, 0, len(keptList))
	for i, k := range keptList {
		lines = append(lines, model.AxisLine{
			ID:          i,
			Axis:        axis,
			Position:    k.cand.position(),
			FloorCount:  k.floorCount,
			VertexCount: k.cand.vertexCount,
		})
	}
	return lines, nil
}

// admitAdditional merges the relaxed candidate set into base, adding only
// positions not already present (equal to within 1e-9; a candidate kept in
// both passes carries the identical position) and flagging them as
// fallback admissions.
func admitAdditional(base, relaxed []model.AxisLine) []model.AxisLine {
	out := append([]model.AxisLine(nil), base...)
	for _, r := range relaxed {
		found := false
		for _, b := range base {
			if abs(b.Position-r.Position) < 1e-9 {
				found = true
				break
			}
		}
		if !found {
			r.Fallback = true
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	for i := range out {
		out[i].ID = i
	}
	return out
}

func measureRecall(lines []model.AxisLine, referencePositions []float64, tolerance float64) float64 {
	if len(referencePositions) == 0 {
		return 1
	}
	matched := 0
	for _, pos := range referencePositions {
		if hasPositionNear(lines, pos, tolerance) {
			matched++
		}
	}
	return float64(matched) / float64(len(referencePositions))
}

func hasPositionNear(lines []model.AxisLine, pos, tolerance float64) bool {
	for _, l := range lines {
		if abs(l.Position-pos) <= tolerance {
			return true
		}
	}
	return false
}

func coord(axis model.Axis, v model.Vertex) float64 {
	if axis == model.X {
		return v.X
	}
	return v.Y
}

func roundTo(v, precision float64) float64 {
	return float64(roundKey(v, precision)) * precision
}

func roundKey(v, precision float64) int64 {
	return int64(math.Round(v / precision))
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
