package graph

import (
	"testing"

	"github.com/azybler/roadgraph/pkg/flags"
)

const (
	both         = int32(3) // forward | backward
	forwardOnly  = int32(1)
)

func newTestGraph(t *testing.T) *Graph {
	t.Helper()
	return New(0)
}

func edgeSet(t *testing.T, g *Graph, it *EdgeIter) map[uint32]float64 {
	t.Helper()
	out := map[uint32]float64{}
	for it.Next() {
		out[it.Node()] = it.Distance()
	}
	if err := it.Err(); err != nil {
		t.Fatalf("iterator error: %v", err)
	}
	return out
}

// S1 — basic insertion and traversal.
func TestBasicInsertionAndTraversal(t *testing.T) {
	g := newTestGraph(t)
	for i := uint32(0); i <= 4; i++ {
		g.SetNode(i, float64(i), float64(i)*2)
	}

	mustEdge(t, g, 0, 1, 5, both)
	mustEdge(t, g, 0, 2, 3, both)
	mustEdge(t, g, 2, 3, 1, forwardOnly)
	mustEdge(t, g, 3, 4, 2, both)

	got := edgeSet(t, g, g.Edges(0))
	want := map[uint32]float64{1: 5, 2: 3}
	if len(got) != len(want) || got[1] != 5 || got[2] != 3 {
		t.Fatalf("Edges(0) = %v, want %v", got, want)
	}

	outFrom2 := edgeSet(t, g, g.Outgoing(2))
	if _, ok := outFrom2[0]; !ok {
		t.Fatalf("Outgoing(2) missing neighbor 0: %v", outFrom2)
	}
	if _, ok := outFrom2[3]; !ok {
		t.Fatalf("Outgoing(2) missing neighbor 3: %v", outFrom2)
	}

	incTo3 := edgeSet(t, g, g.Incoming(3))
	if _, ok := incTo3[2]; !ok {
		t.Fatalf("Incoming(3) missing neighbor 2: %v", incTo3)
	}
	if _, ok := incTo3[4]; !ok || len(incTo3) != 2 {
		t.Fatalf("Incoming(3) = %v, want exactly {2, 4} (3-4 is bidirectional)", incTo3)
	}
}

// S2 — swap-on-insert.
func TestSwapOnInsert(t *testing.T) {
	g := newTestGraph(t)
	g.SetNode(2, 1, 1)
	g.SetNode(5, 2, 2)

	mustEdge(t, g, 5, 2, 10, forwardOnly)

	outFrom5 := edgeSet(t, g, g.Outgoing(5))
	if _, ok := outFrom5[2]; !ok || len(outFrom5) != 1 {
		t.Fatalf("Outgoing(5) = %v, want exactly {2}", outFrom5)
	}

	outFrom2 := edgeSet(t, g, g.Outgoing(2))
	if len(outFrom2) != 0 {
		t.Fatalf("Outgoing(2) = %v, want empty (edge is backward from 2)", outFrom2)
	}

	inTo2 := edgeSet(t, g, g.Incoming(2))
	if _, ok := inTo2[5]; !ok || len(inTo2) != 1 {
		t.Fatalf("Incoming(2) = %v, want exactly {5}", inTo2)
	}
}

// S3 — delete and compact.
func TestDeleteAndCompact(t *testing.T) {
	g := newTestGraph(t)
	const n = 6
	for i := uint32(0); i < n; i++ {
		g.SetNode(i, float64(i), 0)
	}
	for i := uint32(0); i < n-1; i++ {
		mustEdge(t, g, i, i+1, 1, both)
	}

	g.MarkDeleted(2)
	g.MarkDeleted(4)

	if err := g.Optimize(); err != nil {
		t.Fatalf("Optimize: %v", err)
	}

	if g.NumNodes() != n-2 {
		t.Fatalf("NumNodes() = %d, want %d", g.NumNodes(), n-2)
	}

	// Find the new id for original node 0 (lat 0) and node 1 (lat 1): they
	// were never touched by pairing since they are both < every deleted id
	// and below the live-high cursor's reach only if moved; verify via
	// coordinates instead of assuming fixed ids.
	idByLat := map[float64]uint32{}
	for i := uint32(0); i < g.NumNodes(); i++ {
		idByLat[g.NodeLat(i)] = i
	}
	for _, want := range []float64{0, 1, 3, 5} {
		if _, ok := idByLat[want]; !ok {
			t.Fatalf("surviving node with lat=%v not found after compaction: %v", want, idByLat)
		}
	}
	for _, gone := range []float64{2, 4} {
		if _, ok := idByLat[gone]; ok {
			t.Fatalf("deleted node with lat=%v still present after compaction", gone)
		}
	}

	// Every surviving node's adjacency must only reference other surviving
	// nodes, and every edge must still resolve to the correct distance.
	for i := uint32(0); i < g.NumNodes(); i++ {
		it := g.Edges(i)
		for it.Next() {
			if it.Node() >= g.NumNodes() {
				t.Fatalf("node %d has edge to out-of-range id %d", i, it.Node())
			}
			if it.Distance() != 1 {
				t.Fatalf("node %d edge to %d distance = %v, want 1", i, it.Node(), it.Distance())
			}
		}
		if err := it.Err(); err != nil {
			t.Fatalf("Edges(%d) error: %v", i, err)
		}
	}

	latZero := idByLat[0]
	latOne := idByLat[1]
	adjToZero := edgeSet(t, g, g.Edges(latZero))
	if _, ok := adjToZero[latOne]; !ok {
		t.Fatalf("surviving node 0 lost its edge to surviving node 1: %v", adjToZero)
	}
}

// S4 — persistence round trip.
func TestPersistenceRoundTrip(t *testing.T) {
	dir := t.TempDir()

	g := New(0)
	const n = 50
	for i := uint32(0); i < n; i++ {
		g.SetNode(i, float64(i)*0.01, float64(i)*0.02)
	}
	for i := uint32(0); i < n-1; i++ {
		mustEdge(t, g, i, i+1, float64(i%7+1), both)
	}
	mustEdge(t, g, 0, n-1, 42, forwardOnly)

	if err := g.Flush(dir); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	loaded, ok, err := Open(dir, 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !ok {
		t.Fatalf("Open reported no existing graph at %s", dir)
	}

	if loaded.NumNodes() != g.NumNodes() {
		t.Fatalf("NumNodes mismatch: got %d want %d", loaded.NumNodes(), g.NumNodes())
	}
	for i := uint32(0); i < n; i++ {
		if loaded.NodeLat(i) != g.NodeLat(i) || loaded.NodeLon(i) != g.NodeLon(i) {
			t.Fatalf("node %d coords mismatch: got (%v,%v) want (%v,%v)",
				i, loaded.NodeLat(i), loaded.NodeLon(i), g.NodeLat(i), g.NodeLon(i))
		}
		want := edgeSet(t, g, g.Edges(i))
		got := edgeSet(t, loaded, loaded.Edges(i))
		if len(want) != len(got) {
			t.Fatalf("node %d edge set size mismatch: got %v want %v", i, got, want)
		}
		for node, dist := range want {
			if got[node] != dist {
				t.Fatalf("node %d edge to %d distance mismatch: got %v want %v", i, node, got[node], dist)
			}
		}
	}
}

// S5 — segment growth.
func TestSegmentGrowth(t *testing.T) {
	g := New(1) // force the minimum 8192-word segment floor
	const n = 5000
	for i := uint32(0); i < n; i++ {
		g.SetNode(i, float64(i), float64(i))
	}
	for i := uint32(0); i < n-1; i++ {
		mustEdge(t, g, i, i+1, 1, both)
	}

	if g.store.segmentCount() < 3 {
		t.Fatalf("segmentCount() = %d, want >= 3", g.store.segmentCount())
	}

	count := 0
	it := g.AllEdges()
	for it.Next() {
		count++
	}
	if count != int(n-1) {
		t.Fatalf("AllEdges count = %d, want %d", count, n-1)
	}

	for i := uint32(0); i < n; i++ {
		it := g.Edges(i)
		for it.Next() {
		}
		if err := it.Err(); err != nil {
			t.Fatalf("Edges(%d) error after segment growth: %v", i, err)
		}
	}
}

// S6 — self-loop.
func TestSelfLoop(t *testing.T) {
	g := newTestGraph(t)
	g.SetNode(7, 1, 1)

	mustEdge(t, g, 7, 7, 4, both)

	it := g.Edges(7)
	if !it.Next() {
		t.Fatalf("Edges(7) yielded no edges")
	}
	if it.Node() != 7 || it.Distance() != 4 {
		t.Fatalf("Edges(7) first edge = (node=%d, dist=%v), want (7, 4)", it.Node(), it.Distance())
	}
	if it.Next() {
		t.Fatalf("Edges(7) yielded a second edge, want exactly one")
	}
}

// TestEdgeImplicitlyCreatesNode covers spec.md §3 Lifecycle: an endpoint id
// never passed to SetNode is implicitly created at (0, 0) by Edge, rather
// than panicking on the node table's nil/undersized backing arrays.
func TestEdgeImplicitlyCreatesNode(t *testing.T) {
	g := newTestGraph(t)

	mustEdge(t, g, 3, 9, 7, both)

	if g.NumNodes() != 10 {
		t.Fatalf("NumNodes() = %d, want 10", g.NumNodes())
	}
	if lat, lon := g.NodeLat(9), g.NodeLon(9); lat != 0 || lon != 0 {
		t.Fatalf("implicitly created node 9 = (%v, %v), want (0, 0)", lat, lon)
	}

	got := edgeSet(t, g, g.Edges(3))
	if len(got) != 1 || got[9] != 7 {
		t.Fatalf("Edges(3) = %v, want {9: 7}", got)
	}
}

func TestBoundsWidenOnly(t *testing.T) {
	g := newTestGraph(t)
	g.SetNode(0, 10, 20)
	g.SetNode(1, -5, 30)
	b := g.Bounds()
	if !boundsContains(b, 10, 20) || !boundsContains(b, -5, 30) {
		t.Fatalf("bounds %v does not contain both set nodes", b)
	}

	g.MarkDeleted(0)
	if err := g.Optimize(); err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	after := g.Bounds()
	if !boundsContains(after, 10, 20) {
		t.Fatalf("bounds shrank after compaction: %v no longer contains (10,20)", after)
	}
}

func mustEdge(t *testing.T, g *Graph, x, y uint32, distanceMeters float64, fl int32) {
	t.Helper()
	if err := g.Edge(x, y, distanceMeters, fl); err != nil {
		t.Fatalf("Edge(%d,%d,%v,%d): %v", x, y, distanceMeters, fl, err)
	}
}

func TestWithFlagsCodecOption(t *testing.T) {
	g := New(0, WithFlagsCodec(flags.StreetCodec{}))
	g.SetNode(0, 0, 0)
	g.SetNode(1, 1, 1)
	f := flags.StreetCodec{}.Encode(flags.HighwayResidential, true, false, 50)
	mustEdge(t, g, 0, 1, 12, f)

	it := g.Outgoing(0)
	if !it.Next() {
		t.Fatalf("Outgoing(0) yielded no edges")
	}
	hw, fwd, bwd, speed := flags.StreetCodec{}.Decode(it.Flags())
	if hw != flags.HighwayResidential || !fwd || bwd || speed != 50 {
		t.Fatalf("decoded flags = (%v,%v,%v,%v), want (Residential,true,false,50)", hw, fwd, bwd, speed)
	}
}
