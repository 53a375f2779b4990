// Package osmimport drives a graph.Graph directly from an OSM PBF extract.
// It is an external collaborator: the graph core never imports it, and it
// only ever calls the core's public SetNode/Edge API (spec.md §1 "the OSM
// ingestion pipeline and routing algorithms sit outside this component").
package osmimport

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"

	"github.com/azybler/roadgraph/pkg/flags"
	"github.com/azybler/roadgraph/pkg/geo"
	"github.com/azybler/roadgraph/pkg/graph"
)

// carHighways lists highway tag values accessible by car, mirroring the
// teacher's pkg/osm/parser.go table, now mapped onto flags.Highway.
var carHighways = map[string]flags.Highway{
	"motorway":       flags.HighwayMotorway,
	"motorway_link":  flags.HighwayMotorway,
	"trunk":          flags.HighwayTrunk,
	"trunk_link":     flags.HighwayTrunk,
	"primary":        flags.HighwayPrimary,
	"primary_link":   flags.HighwayPrimary,
	"secondary":      flags.HighwaySecondary,
	"secondary_link": flags.HighwaySecondary,
	"tertiary":       flags.HighwayTertiary,
	"tertiary_link":  flags.HighwayTertiary,
	"unclassified":   flags.HighwayUnclassified,
	"residential":    flags.HighwayResidential,
	"living_street":  flags.HighwayLivingStreet,
	"service":        flags.HighwayService,
}

// defaultSpeedKMH is used when a way carries no maxspeed tag, keyed by
// highway class — a rough default table, not a routing-quality speed model.
var defaultSpeedKMH = map[flags.Highway]uint16{
	flags.HighwayMotorway:     110,
	flags.HighwayTrunk:        90,
	flags.HighwayPrimary:      70,
	flags.HighwaySecondary:    60,
	flags.HighwayTertiary:     50,
	flags.HighwayUnclassified: 40,
	flags.HighwayResidential:  30,
	flags.HighwayLivingStreet: 15,
	flags.HighwayService:      20,
}

func isCarAccessible(tags osm.Tags) (flags.Highway, bool) {
	hw, ok := carHighways[tags.Find("highway")]
	if !ok {
		return 0, false
	}
	if tags.Find("area") == "yes" {
		return 0, false
	}
	access := tags.Find("access")
	if access == "no" || access == "private" {
		return 0, false
	}
	if tags.Find("motor_vehicle") == "no" {
		return 0, false
	}
	return hw, true
}

// directionFlags returns (forward, backward) based on highway type and
// oneway tags, mirroring the teacher's pkg/osm/parser.go directionFlags.
func directionFlags(hw flags.Highway, tags osm.Tags) (forward, backward bool) {
	forward = true
	backward = true

	if hw == flags.HighwayMotorway || tags.Find("junction") == "roundabout" {
		backward = false
	}

	switch tags.Find("oneway") {
	case "yes", "true", "1":
		forward, backward = true, false
	case "-1", "reverse":
		forward, backward = false, true
	case "no":
		forward, backward = true, true
	case "reversible":
		forward, backward = false, false
	}
	return forward, backward
}

// BBox filters imported edges to a geographic bounding box. The zero value
// imports everything.
type BBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

func (b BBox) isZero() bool {
	return b.MinLat == 0 && b.MaxLat == 0 && b.MinLng == 0 && b.MaxLng == 0
}

func (b BBox) contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// Option configures Import.
type Option func(*options)

type options struct {
	bbox BBox
}

// WithBBox restricts the import to way segments whose two endpoints both
// fall inside box; a way crossing the box edge keeps its inside segments.
func WithBBox(box BBox) Option {
	return func(o *options) { o.bbox = box }
}

// Stats summarizes one Import run.
type Stats struct {
	WaysAccepted  int
	NodesImported int
	EdgesInserted int
	EdgesSkipped  int
	BBoxFiltered  int
}

type wayInfo struct {
	nodeIDs  []osm.NodeID
	hw       flags.Highway
	forward  bool
	backward bool
}

// Import reads an OSM PBF extract from rs (which must support seeking back
// to the start for the second pass) and drives g's SetNode/Edge calls for
// every accepted way segment, translating OSM node ids to the core's dense
// node ids via an internal map (mirroring the teacher's addNode/nodeSet
// pattern in pkg/graph/builder.go).
func Import(ctx context.Context, rs io.ReadSeeker, g *graph.Graph, opts ...Option) (Stats, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	useBBox := !o.bbox.isZero()

	referenced := make(map[osm.NodeID]struct{})
	var ways []wayInfo

	scanner := osmpbf.New(ctx, rs, 1)
	scanner.SkipNodes = true
	scanner.SkipRelations = true

	for scanner.Scan() {
		w, ok := scanner.Object().(*osm.Way)
		if !ok {
			continue
		}
		hw, ok := isCarAccessible(w.Tags)
		if !ok || len(w.Nodes) < 2 {
			continue
		}
		fwd, bwd := directionFlags(hw, w.Tags)
		if !fwd && !bwd {
			continue
		}

		ids := make([]osm.NodeID, len(w.Nodes))
		for i, wn := range w.Nodes {
			ids[i] = wn.ID
			referenced[wn.ID] = struct{}{}
		}
		ways = append(ways, wayInfo{nodeIDs: ids, hw: hw, forward: fwd, backward: bwd})
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return Stats{}, fmt.Errorf("osmimport: pass 1 (ways): %w", err)
	}
	scanner.Close()
	log.Printf("osmimport: pass 1 complete: %d ways, %d referenced nodes", len(ways), len(referenced))

	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return Stats{}, fmt.Errorf("osmimport: seek for pass 2: %w", err)
	}

	nodeLat := make(map[osm.NodeID]float64, len(referenced))
	nodeLon := make(map[osm.NodeID]float64, len(referenced))

	scanner = osmpbf.New(ctx, rs, 1)
	scanner.SkipWays = true
	scanner.SkipRelations = true
	for scanner.Scan() {
		n, ok := scanner.Object().(*osm.Node)
		if !ok {
			continue
		}
		if _, needed := referenced[n.ID]; !needed {
			continue
		}
		nodeLat[n.ID] = n.Lat
		nodeLon[n.ID] = n.Lon
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return Stats{}, fmt.Errorf("osmimport: pass 2 (nodes): %w", err)
	}
	scanner.Close()
	log.Printf("osmimport: pass 2 complete: %d node coordinates collected", len(nodeLat))

	ids := make(map[osm.NodeID]uint32, len(referenced))
	var nextID uint32
	assign := func(id osm.NodeID) uint32 {
		if dense, ok := ids[id]; ok {
			return dense
		}
		dense := nextID
		nextID++
		ids[id] = dense
		g.SetNode(dense, nodeLat[id], nodeLon[id])
		return dense
	}

	var stats Stats
	stats.WaysAccepted = len(ways)
	for _, w := range ways {
		for i := 0; i < len(w.nodeIDs)-1; i++ {
			fromOSM, toOSM := w.nodeIDs[i], w.nodeIDs[i+1]
			fromLat, fromOk := nodeLat[fromOSM]
			fromLon := nodeLon[fromOSM]
			toLat, toOk := nodeLat[toOSM]
			toLon := nodeLon[toOSM]
			if !fromOk || !toOk {
				stats.EdgesSkipped++
				continue
			}
			if useBBox && (!o.bbox.contains(fromLat, fromLon) || !o.bbox.contains(toLat, toLon)) {
				stats.BBoxFiltered++
				continue
			}

			dist := geo.Haversine(fromLat, fromLon, toLat, toLon)
			if dist <= 0 {
				dist = 0.1 // avoid zero-weight edges
			}

			speed := defaultSpeedKMH[w.hw]
			fl := flags.StreetCodec{}.Encode(w.hw, w.forward, w.backward, speed)

			from := assign(fromOSM)
			to := assign(toOSM)
			if err := g.Edge(from, to, dist, fl); err != nil {
				return stats, fmt.Errorf("osmimport: inserting edge %d->%d: %w", fromOSM, toOSM, err)
			}
			stats.EdgesInserted++
		}
	}

	stats.NodesImported = len(ids)
	log.Printf("osmimport: imported %d nodes, %d edges (%d skipped, %d bbox-filtered)",
		stats.NodesImported, stats.EdgesInserted, stats.EdgesSkipped, stats.BBoxFiltered)
	return stats, nil
}
