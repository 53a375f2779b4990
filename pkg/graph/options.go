package graph

import (
	"log"

	"github.com/azybler/roadgraph/pkg/flags"
)

// Logger is the narrow logging contract Graph uses to report progress
// during long-running operations (Optimize, Flush, Open). It
// defaults to the standard library's log.Default(), matching the teacher's
// ambient log.Printf style; embedders can redirect it.
type Logger interface {
	Printf(format string, args ...any)
}

// NodeMoveHook is the "hook method for payload move during compaction" from
// spec.md §9: called once per (oldIndex, newIndex) pair during step 5 of
// Optimize, after the core has moved its own (lat, lon, head) triple, so an
// embedder can move parallel per-node data (e.g. an OSM node-id table) in
// lockstep.
type NodeMoveHook func(oldIndex, newIndex uint32)

// Options configures a Graph at construction time.
type Options struct {
	codec           flags.Codec
	logger          Logger
	segmentSizeHint int
	moveHook        NodeMoveHook
}

// Option mutates Options; see With* constructors below.
type Option func(*Options)

func defaultOptions() Options {
	return Options{
		codec:           flags.StreetCodec{},
		logger:          log.Default(),
		segmentSizeHint: 0,
		moveHook:        nil,
	}
}

// WithFlagsCodec injects the direction/street-type flags codec (C10). The
// core never interprets flags itself beyond these three operations.
func WithFlagsCodec(c flags.Codec) Option {
	return func(o *Options) { o.codec = c }
}

// WithLogger redirects progress narration during Optimize/Flush/Open.
func WithLogger(l Logger) Option {
	return func(o *Options) { o.logger = l }
}

// WithSegmentSizeHint overrides the initial-edge-capacity estimate used to
// size the first store segment (spec.md §4.1). A hint of 0 leaves the
// initialEdgeCapacity passed to New in effect.
func WithSegmentSizeHint(initialEdgeCapacity int) Option {
	return func(o *Options) { o.segmentSizeHint = initialEdgeCapacity }
}

// WithNodeMoveHook installs the compaction payload-move callback (C12).
func WithNodeMoveHook(hook NodeMoveHook) Option {
	return func(o *Options) { o.moveHook = hook }
}
