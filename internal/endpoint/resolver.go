// Package endpoint implements the Endpoint Resolver (spec.md §4.2): for
// each Element, finding the distinct axis-aligned positions that
// characterize its topology, so the Snap Engine can assign vertices by
// proximity within the element rather than nearest-neighbor per vertex.
package endpoint

import (
	"sort"

	"github.com/strucgrid/bimalign/internal/config"
	"github.com/strucgrid/bimalign/internal/model"
)

// Endpoints holds the resolved endpoint positions for one element on each
// axis, typically length 1 (compact elements) or 2 (spanning walls).
type Endpoints struct {
	X []float64
	Y []float64
}

// Resolve derives endpoints_x and endpoints_y for an element per the
// per-kind rules of spec.md §4.2.
func Resolve(e *model.Element, params config.Parameters) Endpoints {
	if len(e.Vertices) == 0 {
		return Endpoints{}
	}

	switch e.Kind {
	case model.Column, model.Support:
		return Endpoints{
			X: []float64{meanAxis(e.Vertices, model.X)},
			Y: []float64{meanAxis(e.Vertices, model.Y)},
		}

	case model.Slab:
		// Slabs are skipped by the resolver; rules 3/4 handle them (except
		// the topmost, which simply keeps its original coordinates).
		return Endpoints{}

	case model.Wall:
		return resolveWall(e, params)

	case model.Beam:
		return resolveBeam(e, params)

	default:
		return Endpoints{}
	}
}

func resolveWall(e *model.Element, params config.Parameters) Endpoints {
	minX, maxX, minY, maxY, ok := e.BoundsXY()
	if !ok {
		return Endpoints{}
	}
	dx, dy := maxX-minX, maxY-minY

	if dx > dy {
		// X-aligned: two X endpoints (min/max clusters), one Y endpoint.
		return Endpoints{
			X: clusterEndpoints(e.Vertices, model.X, params.ClusterRadius),
			Y: []float64{meanAxis(e.Vertices, model.Y)},
		}
	}
	return Endpoints{
		X: []float64{meanAxis(e.Vertices, model.X)},
		Y: clusterEndpoints(e.Vertices, model.Y, params.ClusterRadius),
	}
}

func resolveBeam(e *model.Element, params config.Parameters) Endpoints {
	minX, maxX, minY, maxY, ok := e.BoundsXY()
	if !ok {
		return Endpoints{}
	}
	dx, dy := maxX-minX, maxY-minY

	// One endpoint along the axis orthogonal to the long dimension; two
	// along the long dimension.
	if dx > dy {
		return Endpoints{
			X: clusterEndpoints(e.Vertices, model.X, params.ClusterRadius),
			Y: []float64{meanAxis(e.Vertices, model.Y)},
		}
	}
	return Endpoints{
		X: []float64{meanAxis(e.Vertices, model.X)},
		Y: clusterEndpoints(e.Vertices, model.Y, params.ClusterRadius),
	}
}

func meanAxis(vertices []model.Vertex, axis model.Axis) float64 {
	var sum float64
	for _, v := range vertices {
		sum += coord(axis, v)
	}
	return sum / float64(len(vertices))
}

// clusterEndpoints groups the element's vertex coordinates on the given
// axis into clusters within clusterRadius of each other and returns the
// means of the lowest and highest clusters (a single mean when every
// position falls into one cluster). Intermediate clusters, such as the
// corner of an L-shaped wall, are dropped. The resolver calls this only for
// the element's longer axis; the other axis always gets one mean, so an
// L-shaped wall has two endpoints on one axis only. Callers assign each
// vertex to the nearer returned mean.
func clusterEndpoints(vertices []model.Vertex, axis model.Axis, clusterRadius float64) []float64 {
	positions := make([]float64, len(vertices))
	for i, v := range vertices {
		positions[i] = coord(axis, v)
	}
	sort.Float64s(positions)

	type cluster struct {
		sum   float64
		count int
	}
	var clusters []cluster
	for _, p := range positions {
		if len(clusters) > 0 {
			last := &clusters[len(clusters)-1]
			mean := last.sum / float64(last.count)
			if p-mean <= clusterRadius {
				last.sum += p
				last.count++
				continue
			}
		}
		clusters = append(clusters, cluster{sum: p, count: 1})
	}

	// An L-shaped wall may produce more than 2 raw clusters; spec.md
	// treats that case as "2 endpoints per axis" by collapsing to the
	// extremes, which is also the correct behavior for ordinary straight
	// walls since only the first and last cluster matter for snapping.
	out := make([]float64, 0, 2)
	if len(clusters) == 1 {
		out = append(out, clusters[0].sum/float64(clusters[0].count))
		return out
	}
	first := clusters[0]
	last := clusters[len(clusters)-1]
	out = append(out, first.sum/float64(first.count), last.sum/float64(last.count))
	return out
}

func coord(axis model.Axis, v model.Vertex) float64 {
	if axis == model.X {
		return v.X
	}
	return v.Y
}
