// Package snapindex builds a nearest-edge spatial index over a snapshot of
// a graph.Graph's edges, for map-matching a raw (lat, lon) fix onto the
// nearest road segment. It is an external collaborator: spatial indexing is
// explicitly out of the core's scope, and the core never imports this
// package (spec.md §1, §9 Non-goals).
package snapindex

import (
	"fmt"

	"github.com/tidwall/rtree"

	"github.com/azybler/roadgraph/pkg/geo"
	"github.com/azybler/roadgraph/pkg/graph"
)

// edgeEntry is the data payload stored in the R-tree for one graph edge.
type edgeEntry struct {
	a, b       uint32
	aLat, aLon float64
	bLat, bLon float64
}

// Index is a built nearest-edge snap index. It is a read-only snapshot: it
// does not observe subsequent mutations to the graph it was built from.
type Index struct {
	tree  rtree.RTreeG[edgeEntry]
	count int
}

// Build walks g.AllEdges() (valid only immediately after Optimize, or when
// the graph has never had a node deleted — spec.md §4.7/§9) and inserts
// every edge into an R-tree keyed by the bounding box of its two endpoints.
func Build(g *graph.Graph) (*Index, error) {
	idx := &Index{}
	it := g.AllEdges()
	for it.Next() {
		a, b := it.NodeA(), it.NodeB()
		aLat, aLon := g.NodeLat(a), g.NodeLon(a)
		bLat, bLon := g.NodeLat(b), g.NodeLon(b)

		min := [2]float64{minF(aLon, bLon), minF(aLat, bLat)}
		max := [2]float64{maxF(aLon, bLon), maxF(aLat, bLat)}
		idx.tree.Insert(min, max, edgeEntry{a: a, b: b, aLat: aLat, aLon: aLon, bLat: bLat, bLon: bLon})
		idx.count++
	}
	return idx, nil
}

// Len returns the number of edges indexed.
func (idx *Index) Len() int { return idx.count }

// SnapResult is the nearest edge found for a query point.
type SnapResult struct {
	NodeA, NodeB    uint32
	DistanceMeters  float64
	ProjectionRatio float64 // 0 at NodeA, 1 at NodeB
}

// maxSearchRadiusDeg bounds the expanding-box search so a query far from
// every indexed edge fails fast instead of scanning the whole tree.
const maxSearchRadiusDeg = 1.0 // roughly 111km at the equator

// Nearest finds the edge whose segment is closest to (lat, lon), expanding
// a search box around the query point until at least one candidate is
// found (or the radius cap is hit), then resolving exact perpendicular
// distance among the candidates with geo.PointToSegmentDist.
func (idx *Index) Nearest(lat, lon float64) (SnapResult, error) {
	if idx.count == 0 {
		return SnapResult{}, fmt.Errorf("snapindex: index is empty")
	}

	var best SnapResult
	haveBest := false

	for radius := 0.001; ; radius *= 4 {
		if radius > maxSearchRadiusDeg {
			radius = maxSearchRadiusDeg
		}
		min := [2]float64{lon - radius, lat - radius}
		max := [2]float64{lon + radius, lat + radius}

		idx.tree.Search(min, max, func(_, _ [2]float64, e edgeEntry) bool {
			dist, ratio := geo.PointToSegmentDist(lat, lon, e.aLat, e.aLon, e.bLat, e.bLon)
			if !haveBest || dist < best.DistanceMeters {
				best = SnapResult{NodeA: e.a, NodeB: e.b, DistanceMeters: dist, ProjectionRatio: ratio}
				haveBest = true
			}
			return true
		})

		if haveBest {
			return best, nil
		}
		if radius >= maxSearchRadiusDeg {
			break
		}
	}
	return SnapResult{}, fmt.Errorf("snapindex: no edge found within %.4f degrees of (%v,%v)", maxSearchRadiusDeg, lat, lon)
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
