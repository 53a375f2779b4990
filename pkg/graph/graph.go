// Package graph implements the in-memory, persistable road-network storage
// engine: geo-located nodes and weighted, optionally directional edges,
// backed by a segmented integer array with an intrusive per-node adjacency
// linked list, lazy node deletion, and in-place compaction.
//
// Graph is single-writer/many-reader: none of its methods take a lock, and
// callers embedding it in a concurrent service are responsible for their own
// synchronization (spec.md §5).
package graph

import (
	"fmt"
	"time"

	"github.com/paulmach/orb"

	"github.com/azybler/roadgraph/pkg/bitset"
)

// Graph is a road-network storage engine instance (C2-C9).
type Graph struct {
	nodes   *nodeTable
	store   *store
	deleted *bitset.Dense
	bounds  orb.Bound
	opts    Options

	creationTimeMillis int64
	dir                string // last Open/Flush target, used by Close/Flush with no args
}

// New creates an empty graph. initialEdgeCapacity sizes the first edge
// segment (spec.md §4.1); pass 0 to use the default floor of 8192 words.
func New(initialEdgeCapacity int, opts ...Option) *Graph {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.segmentSizeHint > 0 {
		initialEdgeCapacity = o.segmentSizeHint
	}
	return &Graph{
		nodes:              newNodeTable(),
		store:              newStore(initialEdgeCapacity),
		deleted:            bitset.NewDense(0),
		bounds:             invertedBound(),
		opts:               o,
		creationTimeMillis: time.Now().UnixMilli(),
	}
}

// Open loads a graph previously saved to dir, or creates a fresh empty graph
// if dir is empty or does not hold a saved graph (spec.md §4.9
// "loadExisting"). The returned bool reports whether an existing graph was
// loaded. The directory is remembered as the default target for Flush.
func Open(dir string, initialEdgeCapacity int, opts ...Option) (*Graph, bool, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	g, loaded, err := loadDir(dir, o)
	if err != nil {
		return nil, false, err
	}
	if loaded {
		g.dir = dir
		g.opts.logger.Printf("graph: loaded %d nodes from %s", g.nodes.count, dir)
		return g, true, nil
	}

	fresh := New(initialEdgeCapacity, opts...)
	fresh.dir = dir
	return fresh, false, nil
}

// SetNode records (or updates) node i's coordinates, growing the node
// arrays if needed, and widens the bounding box (spec.md §4.2). It never
// shrinks nodeCount.
func (g *Graph) SetNode(i uint32, lat, lon float64) {
	g.nodes.ensureIndex(i)
	g.nodes.lats[i] = float32(lat)
	g.nodes.lons[i] = float32(lon)
	g.bounds = extendBounds(g.bounds, lat, lon)
}

// NodeLat returns node i's latitude.
func (g *Graph) NodeLat(i uint32) float64 { return float64(g.nodes.lats[i]) }

// NodeLon returns node i's longitude.
func (g *Graph) NodeLon(i uint32) float64 { return float64(g.nodes.lons[i]) }

// NumNodes returns the current nodeCount (including deleted-but-uncompacted
// ids, which still occupy the id space until Optimize runs).
func (g *Graph) NumNodes() uint32 { return g.nodes.count }

// Bounds returns the current bounding box over every node ever set via
// SetNode. Compaction never shrinks it.
func (g *Graph) Bounds() orb.Bound { return g.bounds }

// SegmentCount returns the number of fixed-size segments backing the edge
// store.
func (g *Graph) SegmentCount() int { return g.store.segmentCount() }

// IsDeleted reports whether node i has been marked deleted and not yet
// compacted away.
func (g *Graph) IsDeleted(i uint32) bool { return g.deleted.Test(i) }

// MarkDeleted marks node i as logically removed (spec.md §4.6). The node's
// id, payload, and adjacency list remain in place until the next Optimize;
// callers must not insert further edges touching a marked node before then.
func (g *Graph) MarkDeleted(i uint32) {
	g.deleted.Set(i)
}

// Edge inserts a new edge between x and y with the given distance in meters
// and direction/type flags, threading it onto both endpoints' adjacency
// lists (spec.md §4.4). Either endpoint may reference an id never passed to
// SetNode, implicitly creating it at (0, 0) (spec.md §3 "Lifecycle"); the
// node table is grown to fit max(x, y) before either endpoint is touched.
// A self-loop (x == y) is threaded onto the single list exactly once.
// Returns ErrCapacityExhausted if the edge pointer space is full, or
// ErrCorrupt if an endpoint's adjacency list cannot be walked.
func (g *Graph) Edge(x, y uint32, distanceMeters float64, fl int32) error {
	hi := x
	if y > hi {
		hi = y
	}
	g.nodes.ensureIndex(hi)

	p, err := g.store.alloc()
	if err != nil {
		return err
	}

	distQ := quantizeDistance(distanceMeters)
	writeEdge(g.store, g.opts.codec, p, x, y, emptyLink, emptyLink, fl, distQ, 0)

	if x == y {
		return g.connect(x, p)
	}
	if err := g.connect(x, p); err != nil {
		return err
	}
	return g.connect(y, p)
}

// Flush persists the graph to dir (or the directory it was last Open'd or
// Flush'd with, if dir is empty), per spec.md §4.9/§6. See Close for the
// no-directory case.
func (g *Graph) Flush(dir string) error {
	if dir == "" {
		dir = g.dir
	}
	if dir == "" {
		return fmt.Errorf("graph: Flush: no directory specified and none remembered from Open")
	}
	if err := saveDir(dir, g); err != nil {
		return err
	}
	g.dir = dir
	g.opts.logger.Printf("graph: flushed %d nodes to %s", g.nodes.count, dir)
	return nil
}

// Close is equivalent to Flush(""): no OS handles are held between calls,
// so Close only needs to ensure the last state is persisted. Unlike
// Flush(""), Close on a graph with no remembered directory does nothing and
// returns nil.
func (g *Graph) Close() error {
	if g.dir == "" {
		return nil
	}
	return g.Flush("")
}

// Clone produces a deep copy: fresh node arrays, fresh edge segments of
// identical size, identical nextGlobalPointer, nodeCount, and bounds. No
// storage location is inherited (spec.md §4.9).
func (g *Graph) Clone() *Graph {
	return &Graph{
		nodes:   g.nodes.clone(),
		store:   g.store.clone(),
		deleted: g.deleted.Clone(),
		bounds:  g.bounds,
		opts:    g.opts,

		creationTimeMillis: g.creationTimeMillis,
	}
}
