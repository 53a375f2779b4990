package graph

// connect walks node's adjacency list to its tail and links newP there, or
// sets node's head directly if the list is empty (spec.md §4.4 steps 3-4).
// Self-loops call this exactly once per edge (there is only one list to
// thread, since both endpoints are the same node); all other edges call it
// once per endpoint.
func (g *Graph) connect(node uint32, newP int32) error {
	head := g.nodes.head[node]
	if head == emptyLink {
		g.nodes.head[node] = newP
		return nil
	}

	cur := head
	for hops := 0; ; hops++ {
		if hops >= maxWalkHops {
			return ErrCorrupt
		}
		other := otherEndpoint(g.store, cur, node)
		lp := linkPos(node, other, cur)
		next := g.store.get(lp)
		if next == emptyLink {
			g.store.set(lp, newP)
			return nil
		}
		cur = next
	}
}

// EdgeIter walks a node's adjacency list, yielding edges that pass a
// direction filter (spec.md §4.5). It borrows the graph for its lifetime
// and must not be used across a mutation (spec.md §3 "Ownership").
type EdgeIter struct {
	g                              *Graph
	node                           uint32
	cursor                         int32
	acceptIncoming, acceptOutgoing bool
	hops                           int
	err                            error

	other  uint32
	dist   float64
	oflags int32
}

func newEdgeIter(g *Graph, node uint32, acceptIncoming, acceptOutgoing bool) *EdgeIter {
	var head int32
	if node < g.nodes.count {
		head = g.nodes.head[node]
	}
	return &EdgeIter{
		g:              g,
		node:           node,
		cursor:         head,
		acceptIncoming: acceptIncoming,
		acceptOutgoing: acceptOutgoing,
	}
}

// Next advances to the next matching edge, returning false at end of list
// or after a corruption error (check Err in that case).
func (it *EdgeIter) Next() bool {
	if it.err != nil {
		return false
	}
	for it.cursor != emptyLink {
		it.hops++
		if it.hops > maxWalkHops {
			it.err = ErrCorrupt
			return false
		}

		p := it.cursor
		other := otherEndpoint(it.g.store, p, it.node)
		nextCursor := it.g.store.get(linkPos(it.node, other, p))
		ef := effectiveFlags(it.g.opts.codec, it.g.store, p, it.node, other)
		dist := getDistance(it.g.store, p)
		it.cursor = nextCursor

		fwd := it.g.opts.codec.IsForward(ef)
		bwd := it.g.opts.codec.IsBackward(ef)
		if (it.acceptOutgoing && fwd) || (it.acceptIncoming && bwd) {
			it.other = other
			it.dist = dist
			it.oflags = ef
			return true
		}
	}
	return false
}

// Node returns the neighbor endpoint of the current edge.
func (it *EdgeIter) Node() uint32 { return it.other }

// Distance returns the current edge's distance in meters.
func (it *EdgeIter) Distance() float64 { return it.dist }

// Flags returns the current edge's flags as seen from the walked node
// (direction-swapped if the walker stands at the record's B endpoint).
func (it *EdgeIter) Flags() int32 { return it.oflags }

// Err returns a non-nil error if the walk aborted due to corruption.
func (it *EdgeIter) Err() error { return it.err }

// Edges returns an iterator over all edges incident to node, regardless of
// direction.
func (g *Graph) Edges(node uint32) *EdgeIter {
	return newEdgeIter(g, node, true, true)
}

// Outgoing returns an iterator over edges traversable outward from node.
func (g *Graph) Outgoing(node uint32) *EdgeIter {
	return newEdgeIter(g, node, false, true)
}

// Incoming returns an iterator over edges traversable into node.
func (g *Graph) Incoming(node uint32) *EdgeIter {
	return newEdgeIter(g, node, true, false)
}

// AllEdgeIter linearly scans the edge store from pointer edgeRecordLen in
// steps of edgeRecordLen, yielding every stored edge once (spec.md §4.5,
// §9). It is only meaningful immediately after Optimize, or when no
// deletions have ever occurred: unlinked edges are not zeroed and would
// otherwise surface with stale endpoint ids (spec.md §4.7).
type AllEdgeIter struct {
	g      *Graph
	cursor int32
	limit  int32

	a, b   uint32
	dist   float64
	oflags int32
}

func newAllEdgeIter(g *Graph) *AllEdgeIter {
	return &AllEdgeIter{g: g, cursor: edgeRecordLen, limit: g.store.next}
}

// Next advances to the next edge record in store order.
func (it *AllEdgeIter) Next() bool {
	if it.cursor > it.limit {
		return false
	}
	p := it.cursor
	it.a = getNodeA(it.g.store, p)
	it.b = getNodeB(it.g.store, p)
	it.dist = getDistance(it.g.store, p)
	it.oflags = getFlags(it.g.store, p)
	it.cursor += edgeRecordLen
	return true
}

// NodeA returns the canonical smaller-id endpoint of the current edge.
func (it *AllEdgeIter) NodeA() uint32 { return it.a }

// NodeB returns the canonical larger-id endpoint of the current edge.
func (it *AllEdgeIter) NodeB() uint32 { return it.b }

// Distance returns the current edge's distance in meters.
func (it *AllEdgeIter) Distance() float64 { return it.dist }

// Flags returns the current edge's raw stored flags (A->B direction).
func (it *AllEdgeIter) Flags() int32 { return it.oflags }

// AllEdges returns an iterator over every stored edge record.
func (g *Graph) AllEdges() *AllEdgeIter {
	return newAllEdgeIter(g)
}
