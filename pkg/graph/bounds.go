package graph

import (
	"math"

	"github.com/paulmach/orb"
)

// invertedBound is the starting "inverse box" from spec.md §4.8: min at
// +infinity, max at -infinity, so the first Extend call always wins.
func invertedBound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{math.Inf(1), math.Inf(1)},
		Max: orb.Point{math.Inf(-1), math.Inf(-1)},
	}
}

// extendBounds widens b to include (lat, lon). orb.Point is (x=lon, y=lat).
// Compaction never shrinks bounds; only setNode widens them.
func extendBounds(b orb.Bound, lat, lon float64) orb.Bound {
	return b.Extend(orb.Point{lon, lat})
}

// boundsContains reports whether b encloses (lat, lon), used by tests
// checking the "bounds contains every live node" invariant.
func boundsContains(b orb.Bound, lat, lon float64) bool {
	return b.Contains(orb.Point{lon, lat})
}
