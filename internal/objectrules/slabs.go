package objectrules

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/strucgrid/bimalign/internal/config"
	"github.com/strucgrid/bimalign/internal/model"
)

// removedSlab is a removed SLAB's captured footprint, grouped by its Z
// level for rule 4's consolidation pass.
type removedSlab struct {
	elementID int
	z         float64
	footprint rect
}

// applyRule3 removes every SLAB whose max(z) <= roof_z_threshold, returning
// the removed footprints (for rule 4) and the IDs of the slabs kept as roof.
func applyRule3(elements []AlignedElement, params config.Parameters) (removed []removedSlab, kept []int) {
	for _, ae := range elements {
		if ae.Kind != model.Slab {
			continue
		}
		z, ok := maxZ(ae)
		if !ok {
			continue
		}
		if z <= params.RoofZThreshold {
			bounds, ok := elementBounds(ae)
			if !ok {
				continue
			}
			removed = append(removed, removedSlab{elementID: ae.ID, z: z, footprint: bounds})
		} else {
			kept = append(kept, ae.ID)
		}
	}
	return removed, kept
}

// applyRule4 consolidates each floor level's removed footprints into 1-3
// axis-aligned rectangles, determined by clustering footprint centroids
// with a consolidation_gap separation threshold.
func applyRule4(removed []removedSlab, params config.Parameters) []model.ObjectEdit {
	byLevel := make(map[float64][]removedSlab)
	var levels []float64
	for _, r := range removed {
		if _, seen := byLevel[r.z]; !seen {
			levels = append(levels, r.z)
		}
		byLevel[r.z] = append(byLevel[r.z], r)
	}
	sort.Float64s(levels)

	var edits []model.ObjectEdit
	for _, level := range levels {
		panels := byLevel[level]
		for _, cluster := range clusterFootprints(panels, params.ConsolidationGap) {
			union := unionRect(cluster)
			edits = append(edits, model.ObjectEdit{
				Kind:         model.EditAdd,
				ElementKind:  model.Slab,
				GeometryKind: model.PolyCurve,
				Name:         fmt.Sprintf("SLAB-CONSOLIDATED-%s", uuid.NewString()),
				Vertices:     rectVertices(union, level, 0),
				SourceRule:   4,
			})
		}
	}
	return edits
}

// footprintPoint is a removed-panel centroid, indexed back into the
// original panel slice.
type footprintPoint struct {
	idx  int
	x, y float64
}

// clusterFootprints groups panels whose centroids lie within gap of each
// other on both axes into the same cluster, capped at 3 clusters per spec.
func clusterFootprints(panels []removedSlab, gap float64) [][]removedSlab {
	pts := make([]footprintPoint, len(panels))
	for i, p := range panels {
		x, y := p.footprint.centroid()
		pts[i] = footprintPoint{idx: i, x: x, y: y}
	}
	byIdx := make(map[int]footprintPoint, len(pts))
	for _, p := range pts {
		byIdx[p.idx] = p
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i].x < pts[j].x })

	var clusters [][]int
	for _, p := range pts {
		placed := false
		for ci, members := range clusters {
			for _, m := range members {
				mp := byIdx[m]
				if abs(mp.x-p.x) <= gap && abs(mp.y-p.y) <= gap {
					clusters[ci] = append(clusters[ci], p.idx)
					placed = true
					break
				}
			}
			if placed {
				break
			}
		}
		if !placed {
			clusters = append(clusters, []int{p.idx})
		}
	}

	// Cap at 3 clusters: repeatedly merge the smallest cluster (by member
	// count) into the next-smallest one, to honor the "1-3 rectangles per
	// floor" contract.
	for len(clusters) > 3 {
		sort.Slice(clusters, func(i, j int) bool { return len(clusters[i]) < len(clusters[j]) })
		smallest := clusters[0]
		rest := clusters[1:]
		rest[0] = append(rest[0], smallest...)
		clusters = rest
	}

	out := make([][]removedSlab, len(clusters))
	for i, members := range clusters {
		for _, idx := range members {
			out[i] = append(out[i], panels[idx])
		}
	}
	return out
}

func unionRect(panels []removedSlab) rect {
	r := panels[0].footprint
	for _, p := range panels[1:] {
		if p.footprint.minX < r.minX {
			r.minX = p.footprint.minX
		}
		if p.footprint.maxX > r.maxX {
			r.maxX = p.footprint.maxX
		}
		if p.footprint.minY < r.minY {
			r.minY = p.footprint.minY
		}
		if p.footprint.maxY > r.maxY {
			r.maxY = p.footprint.maxY
		}
	}
	return r
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
