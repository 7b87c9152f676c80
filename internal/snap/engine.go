// Package snap implements the Snap Engine (spec.md §4.3): assigning each
// vertex to the nearest discovered axis line using the two-tier distance
// policy, operating on element endpoints rather than raw per-vertex
// nearest-neighbor search.
package snap

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"

	"github.com/dgraph-io/ristretto"
	"golang.org/x/sync/errgroup"

	"github.com/strucgrid/bimalign/internal/axis"
	"github.com/strucgrid/bimalign/internal/config"
	"github.com/strucgrid/bimalign/internal/endpoint"
	"github.com/strucgrid/bimalign/internal/model"
)

// Result is the output of Snap: one AlignedVertex per input Vertex plus any
// recoverable conditions (vertices that could not be snapped within
// outlier_snap_distance).
type Result struct {
	Vertices []model.AlignedVertex
	Warnings []*model.AppError
}

// lookupCache memoizes nearest-line lookups, keyed by axis+rounded position,
// since many elements in a floor plate share identical endpoint coordinates
// (e.g. every column on a shared gridline).
type lookupCache struct {
	ristretto *ristretto.Cache
}

func newLookupCache() (*lookupCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e5,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("build snap cache: %w", err)
	}
	return &lookupCache{ristretto: c}, nil
}

type cacheKey struct {
	axis model.Axis
	pos  int64 // position rounded to 1e-6
}

type match struct {
	lineID   int
	position float64
	dist     float64
	ok       bool
}

func (c *lookupCache) get(key cacheKey) (match, bool) {
	v, ok := c.ristretto.Get(key)
	if !ok {
		return match{}, false
	}
	return v.(match), true
}

func (c *lookupCache) set(key cacheKey, m match) {
	c.ristretto.Set(key, m, 1)
}

// Snap assigns every vertex of every element to its nearest axis line,
// partitioning work per-element via errgroup since elements snap
// independently (spec.md §5).
func Snap(ctx context.Context, elements []*model.Element, lines axis.Result, params config.Parameters) (Result, error) {
	cache, err := newLookupCache()
	if err != nil {
		return Result{}, err
	}
	defer cache.ristretto.Close()

	sortedX := append([]model.AxisLine(nil), lines.X...)
	sortedY := append([]model.AxisLine(nil), lines.Y...)
	sort.Slice(sortedX, func(i, j int) bool { return sortedX[i].Position < sortedX[j].Position })
	sort.Slice(sortedY, func(i, j int) bool { return sortedY[i].Position < sortedY[j].Position })

	perElement := make([][]model.AlignedVertex, len(elements))
	perElementWarnings := make([][]*model.AppError, len(elements))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, e := range elements {
		i, e := i, e
		g.Go(func() error {
			vertices, warnings := snapElement(e, sortedX, sortedY, params, cache)
			perElement[i] = vertices
			perElementWarnings[i] = warnings
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	var res Result
	for i := range elements {
		res.Vertices = append(res.Vertices, perElement[i]...)
		res.Warnings = append(res.Warnings, perElementWarnings[i]...)
	}
	return res, nil
}

func snapElement(e *model.Element, sortedX, sortedY []model.AxisLine, params config.Parameters, cache *lookupCache) ([]model.AlignedVertex, []*model.AppError) {
	var warnings []*model.AppError

	if e.Kind == model.Slab {
		// Slabs are excluded from per-vertex snapping; the object-rule
		// engine handles their footprints directly (rules 3/4).
		out := make([]model.AlignedVertex, len(e.Vertices))
		for i, v := range e.Vertices {
			out[i] = passthrough(v)
		}
		return out, nil
	}

	eps := endpoint.Resolve(e, params)

	matchX := make([]match, len(eps.X))
	for i, p := range eps.X {
		matchX[i] = lookup(model.X, p, sortedX, params, cache)
	}
	matchY := make([]match, len(eps.Y))
	for i, p := range eps.Y {
		matchY[i] = lookup(model.Y, p, sortedY, params, cache)
	}

	out := make([]model.AlignedVertex, len(e.Vertices))
	for i, v := range e.Vertices {
		av := model.AlignedVertex{
			ElementID:   v.ElementID,
			VertexIndex: v.VertexIndex,
			OriginalX:   v.X,
			OriginalY:   v.Y,
			OriginalZ:   v.Z,
			AlignedX:    v.X,
			AlignedY:    v.Y,
			AlignedZ:    v.Z, // Z-invariant: never modified by snapping
		}

		mx := nearestMatch(v.X, eps.X, matchX)
		my := nearestMatch(v.Y, eps.Y, matchY)

		if mx.ok {
			av.AlignedX = mx.position
			id := mx.lineID
			av.AxisLineX = &id
		}
		if my.ok {
			av.AlignedY = my.position
			id := my.lineID
			av.AxisLineY = &id
		}

		dx := av.AlignedX - av.OriginalX
		dy := av.AlignedY - av.OriginalY
		av.Displacement = math.Sqrt(dx*dx + dy*dy)
		av.SnapConfidence = confidence(mx, my, params.OutlierSnapDistance)

		if !mx.ok && !my.ok && (len(eps.X) > 0 || len(eps.Y) > 0) {
			warnings = append(warnings, model.NewAppError(
				model.CodeVertexUnsnapped, model.SeverityRecoverable,
				fmt.Sprintf("element %d vertex %d could not be snapped on either axis", v.ElementID, v.VertexIndex), nil,
			).WithDetails("element_id", v.ElementID).WithDetails("vertex_index", v.VertexIndex))
		}

		out[i] = av
	}
	return out, warnings
}

func passthrough(v model.Vertex) model.AlignedVertex {
	return model.AlignedVertex{
		ElementID:      v.ElementID,
		VertexIndex:    v.VertexIndex,
		OriginalX:      v.X,
		OriginalY:      v.Y,
		OriginalZ:      v.Z,
		AlignedX:       v.X,
		AlignedY:       v.Y,
		AlignedZ:       v.Z,
		SnapConfidence: 1,
	}
}

// nearestMatch picks which of the element's per-endpoint matches applies to
// a given raw coordinate, by nearest endpoint value.
func nearestMatch(coord float64, endpoints []float64, matches []match) match {
	if len(endpoints) == 0 {
		return match{}
	}
	best := 0
	bestDist := math.Abs(coord - endpoints[0])
	for i := 1; i < len(endpoints); i++ {
		d := math.Abs(coord - endpoints[i])
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return matches[best]
}

// lookup finds the nearest axis line to pos via binary search over the
// sorted line list, applying the two-tier distance policy and memoizing the
// result in cache.
func lookup(a model.Axis, pos float64, lines []model.AxisLine, params config.Parameters, cache *lookupCache) match {
	if len(lines) == 0 {
		return match{}
	}

	key := cacheKey{axis: a, pos: int64(math.Round(pos * 1e6))}
	if m, ok := cache.get(key); ok {
		return m
	}

	idx := sort.Search(len(lines), func(i int) bool { return lines[i].Position >= pos })

	candidates := make([]int, 0, 2)
	if idx < len(lines) {
		candidates = append(candidates, idx)
	}
	if idx > 0 {
		candidates = append(candidates, idx-1)
	}

	bestIdx := -1
	bestDist := math.Inf(1)
	for _, c := range candidates {
		d := math.Abs(lines[c].Position - pos)
		if bestIdx == -1 || d < bestDist || (d == bestDist && preferLine(lines[c], lines[bestIdx])) {
			bestDist = d
			bestIdx = c
		}
	}

	var m match
	switch {
	case bestDist <= params.MaxSnapDistance:
		m = match{lineID: lines[bestIdx].ID, position: lines[bestIdx].Position, dist: bestDist, ok: true}
	case bestDist <= params.OutlierSnapDistance:
		m = match{lineID: lines[bestIdx].ID, position: lines[bestIdx].Position, dist: bestDist, ok: true}
	default:
		m = match{dist: bestDist, ok: false}
	}

	cache.set(key, m)
	return m
}

// preferLine reports whether candidate should win a tie over current, per
// spec.md §4.3's equidistant tie-break: higher floor_count, then higher
// vertex_count, then lower position.
func preferLine(candidate, current model.AxisLine) bool {
	if candidate.FloorCount != current.FloorCount {
		return candidate.FloorCount > current.FloorCount
	}
	if candidate.VertexCount != current.VertexCount {
		return candidate.VertexCount > current.VertexCount
	}
	return candidate.Position < current.Position
}

// confidence scores how trustworthy a snap assignment is: each matched axis
// scores 1 - dist/outlierDistance (clamped to [0,1]); with both axes
// matched the result is the plain mean of the two, otherwise the matched
// axis's score alone.
func confidence(mx, my match, outlierDistance float64) float64 {
	if outlierDistance <= 0 {
		return 0
	}
	score := func(m match) float64 {
		if !m.ok {
			return 0
		}
		c := 1 - m.dist/outlierDistance
		if c < 0 {
			c = 0
		}
		if c > 1 {
			c = 1
		}
		return c
	}
	sx, sy := score(mx), score(my)
	switch {
	case mx.ok && my.ok:
		return (sx + sy) / 2
	case mx.ok:
		return sx
	case my.ok:
		return sy
	default:
		return 0
	}
}
