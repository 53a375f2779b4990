package graph

import "github.com/azybler/roadgraph/pkg/flags"

// Edge record field offsets from a record's base pointer p (C4):
// nodeA@p, nodeB@p+1, linkA@p+2, linkB@p+3, flags@p+4, distQ@p+5, scNode@p+6.
const (
	offNodeA = 0
	offNodeB = 1
	offLinkA = 2
	offLinkB = 3
	offFlags = 4
	offDist  = 5
	offSC    = 6
)

// distanceScale is the quantization factor from spec.md §6:
// distanceStored = round(distanceMeters * distanceScale).
const distanceScale = 10000.0

func getNodeA(s *store, p int32) uint32 { return uint32(s.get(p + offNodeA)) }
func getNodeB(s *store, p int32) uint32 { return uint32(s.get(p + offNodeB)) }
func getLinkA(s *store, p int32) int32  { return s.get(p + offLinkA) }
func getLinkB(s *store, p int32) int32  { return s.get(p + offLinkB) }
func getFlags(s *store, p int32) int32  { return s.get(p + offFlags) }
func getDistQ(s *store, p int32) int32  { return s.get(p + offDist) }
func getSCNode(s *store, p int32) int32 { return s.get(p + offSC) }

// getDistance returns the decoded distance in meters for the record at p.
func getDistance(s *store, p int32) float64 {
	return float64(getDistQ(s, p)) / distanceScale
}

func quantizeDistance(meters float64) int32 {
	v := meters * distanceScale
	if v < 0 {
		v = 0
	}
	return int32(v + 0.5)
}

// linkPos returns the store pointer of the adjacency-list link field that
// belongs to "self" within the record at p, given self's neighbor "other"
// (C4). This is p+offLinkA if self is the canonical (smaller-or-equal)
// endpoint, else p+offLinkB.
func linkPos(self, other uint32, p int32) int32 {
	if self <= other {
		return p + offLinkA
	}
	return p + offLinkB
}

// writeEdge writes a full edge record at base pointer p, canonicalizing
// nodeA <= nodeB. x/y are the endpoints in the caller's order; linkX/linkY
// are the adjacency-list link values for x and y respectively. If x > y,
// endpoints and their link values are swapped and flags are direction
// swapped via the codec, so the stored record always has nodeA <= nodeB
// (spec.md §3, §4.6 step 6).
func writeEdge(s *store, codec flags.Codec, p int32, x, y uint32, linkX, linkY, fl, distQ, scNode int32) {
	a, b, linkA, linkB := x, y, linkX, linkY
	if a > b {
		a, b = b, a
		linkA, linkB = linkY, linkX
		fl = codec.SwapDirection(fl)
	}
	s.set(p+offNodeA, int32(a))
	s.set(p+offNodeB, int32(b))
	s.set(p+offLinkA, linkA)
	s.set(p+offLinkB, linkB)
	s.set(p+offFlags, fl)
	s.set(p+offDist, distQ)
	s.set(p+offSC, scNode)
}

// otherEndpoint returns the endpoint of the edge at p that is not node.
func otherEndpoint(s *store, p int32, node uint32) uint32 {
	a := getNodeA(s, p)
	if a == node {
		return getNodeB(s, p)
	}
	return a
}

// effectiveFlags returns the flags as seen by a walker standing at "node",
// direction-swapped if node is the record's B endpoint (spec.md §4.5).
func effectiveFlags(codec flags.Codec, s *store, p int32, node, other uint32) int32 {
	f := getFlags(s, p)
	if node > other {
		return codec.SwapDirection(f)
	}
	return f
}
