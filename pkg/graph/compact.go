package graph

import "github.com/azybler/roadgraph/pkg/bitset"

// Optimize performs lazy-deletion compaction (C6): it removes marked-deleted
// nodes by pairing each deleted low id with a live high id, renumbering the
// moved node's payload, and rewriting every affected edge record in place,
// without reallocating the edge store (spec.md §4.6). It is a no-op if no
// node has been marked deleted.
func (g *Graph) Optimize() error {
	deletedCount := g.deleted.Count()
	if deletedCount == 0 {
		return nil
	}

	g.opts.logger.Printf("graph: optimizing, %d nodes marked deleted", deletedCount)

	isDeleted := func(id uint32) bool { return g.deleted.Test(id) }
	toUpdate := bitset.NewSparse()

	type pair struct{ oldIndex, newIndex uint32 }
	var pairs []pair
	oldToNew := make(map[uint32]uint32, deletedCount)

	// Step 2: pair each deleted id (ascending) with the greatest remaining
	// live id (descending), stopping the pairing once the live-high cursor
	// drops to or below the current deleted id — from that point on the
	// deleted id is already beyond the final live range and simply
	// disappears with no replacement needed. Every deleted id, paired or
	// not, still has its live neighbors recorded: their edges to it must be
	// unlinked regardless of whether its slot is reused.
	highest := int64(g.nodes.count) - 1
	skipDeleted := func() {
		for highest >= 0 && isDeleted(uint32(highest)) {
			highest--
		}
	}
	skipDeleted()

	for d, ok := g.deleted.NextSetBit(0); ok; {
		if err := g.recordLiveNeighbors(d, isDeleted, toUpdate); err != nil {
			return err
		}

		if highest >= 0 && uint32(highest) > d {
			m := uint32(highest)
			highest--
			skipDeleted()
			pairs = append(pairs, pair{oldIndex: m, newIndex: d})
			oldToNew[m] = d
		}

		d, ok = g.deleted.NextSetBit(d + 1)
	}

	// Step 3: unlink edges to deleted nodes from every recorded live neighbor.
	for _, u := range toUpdate.Slice() {
		if err := g.unlinkEdgesTo(u, isDeleted); err != nil {
			return err
		}
	}

	// Step 4: record neighbors of moved nodes, so their edges get caught by
	// the rewrite filter below (pre-move: reads the old adjacency list).
	for _, p := range pairs {
		if err := g.recordAllNeighbors(p.oldIndex, toUpdate); err != nil {
			return err
		}
	}

	// Step 5: move node payload (lat, lon, head) from oldIndex to newIndex.
	for _, p := range pairs {
		g.nodes.lats[p.newIndex] = g.nodes.lats[p.oldIndex]
		g.nodes.lons[p.newIndex] = g.nodes.lons[p.oldIndex]
		g.nodes.head[p.newIndex] = g.nodes.head[p.oldIndex]
		if g.opts.moveHook != nil {
			g.opts.moveHook(p.oldIndex, p.newIndex)
		}
	}

	// Step 6: rewrite edges whose endpoints might need a remapped id. An
	// endpoint that resolves to neither a moved id nor a live untouched id
	// is a deleted node, so the edge was already spliced out of its live
	// endpoint's adjacency list in step 3 and the deleted endpoint's list is
	// discarded — it is inert leftover data, not corruption, and is left
	// untouched (spec.md §4.7, §9 open question on stale post-optimize
	// records).
	resolve := func(id uint32) (uint32, bool) {
		if newID, moved := oldToNew[id]; moved {
			return newID, true
		}
		if isDeleted(id) {
			return 0, false
		}
		return id, true
	}

	limit := g.store.next
	for p := int32(edgeRecordLen); p <= limit; p += edgeRecordLen {
		a := getNodeA(g.store, p)
		b := getNodeB(g.store, p)
		if !toUpdate.Contains(a) && !toUpdate.Contains(b) {
			continue
		}

		newA, okA := resolve(a)
		newB, okB := resolve(b)
		if !okA || !okB {
			continue
		}

		linkA := getLinkA(g.store, p)
		linkB := getLinkB(g.store, p)
		fl := getFlags(g.store, p)
		distQ := getDistQ(g.store, p)
		sc := getSCNode(g.store, p)

		writeEdge(g.store, g.opts.codec, p, newA, newB, linkA, linkB, fl, distQ, sc)
	}

	// Step 7: shrink nodeCount and clear the deleted set.
	g.nodes.count -= uint32(deletedCount)
	g.deleted.Reset(g.nodes.count)

	g.opts.logger.Printf("graph: optimize complete, nodeCount=%d", g.nodes.count)
	return nil
}

// recordLiveNeighbors walks d's adjacency list and adds every live other
// endpoint to toUpdate (spec.md §4.6 step 2).
func (g *Graph) recordLiveNeighbors(d uint32, isDeleted func(uint32) bool, toUpdate *bitset.Sparse) error {
	cur := g.nodes.head[d]
	for hops := 0; cur != emptyLink; hops++ {
		if hops >= maxWalkHops {
			return ErrCorrupt
		}
		other := otherEndpoint(g.store, cur, d)
		next := g.store.get(linkPos(d, other, cur))
		if !isDeleted(other) {
			toUpdate.Add(other)
		}
		cur = next
	}
	return nil
}

// recordAllNeighbors walks m's adjacency list and adds every other endpoint
// to toUpdate, unconditionally (spec.md §4.6 step 4).
func (g *Graph) recordAllNeighbors(m uint32, toUpdate *bitset.Sparse) error {
	cur := g.nodes.head[m]
	for hops := 0; cur != emptyLink; hops++ {
		if hops >= maxWalkHops {
			return ErrCorrupt
		}
		other := otherEndpoint(g.store, cur, m)
		next := g.store.get(linkPos(m, other, cur))
		toUpdate.Add(other)
		cur = next
	}
	return nil
}

// unlinkEdgesTo walks u's adjacency list and splices out every edge whose
// other endpoint is deleted, tracking the previous edge pointer so the
// splice never restarts the walk from the head (spec.md §4.6 step 3, §4.7).
func (g *Graph) unlinkEdgesTo(u uint32, isDeleted func(uint32) bool) error {
	prev := int32(-1)
	cur := g.nodes.head[u]
	for hops := 0; cur != emptyLink; hops++ {
		if hops >= maxWalkHops {
			return ErrCorrupt
		}
		other := otherEndpoint(g.store, cur, u)
		next := g.store.get(linkPos(u, other, cur))

		if isDeleted(other) {
			g.unlink(u, cur, prev, next)
			cur = next
			continue
		}

		prev = cur
		cur = next
	}
	return nil
}

// unlink splices edgePointer out of node's adjacency list: prevEdgePointer
// is the preceding edge (or -1 if edgePointer was the head), and next is
// edgePointer's own next-link value for node (spec.md §4.7). The edge
// record itself is left untouched in the store.
func (g *Graph) unlink(node uint32, edgePointer, prevEdgePointer, next int32) {
	if prevEdgePointer < 0 {
		g.nodes.head[node] = next
		return
	}
	prevOther := otherEndpoint(g.store, prevEdgePointer, node)
	g.store.set(linkPos(node, prevOther, prevEdgePointer), next)
}
