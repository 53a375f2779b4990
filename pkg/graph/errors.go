package graph

import "errors"

// Sentinel error kinds (spec.md §7). A Graph that returns ErrCapacityExhausted
// or ErrCorrupt from a write operation must be discarded: there is no
// "poisoned" mode, no retry, and no partial recovery.
var (
	// ErrCapacityExhausted is returned when the edge pointer space (a signed
	// int32) would overflow on the next allocation.
	ErrCapacityExhausted = errors.New("graph: edge pointer space exhausted")

	// ErrCorrupt is returned when an adjacency walk exceeds the 1000-hop
	// safety cap, which only happens on a cyclic or dangling link chain.
	ErrCorrupt = errors.New("graph: corruption detected")

	// ErrFormatMismatch is returned by Open when the on-disk
	// settings file is malformed or inconsistent with the array files.
	ErrFormatMismatch = errors.New("graph: on-disk format mismatch")
)

// maxWalkHops is the adjacency-list walk safety cap from spec.md §4.4: any
// walk exceeding this many hops is treated as corruption (a loop or a
// dangling pointer), not a functional limit.
const maxWalkHops = 1000
