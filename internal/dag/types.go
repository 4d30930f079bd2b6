package dag

import "sync"

// ID identifies a single vertex (device) in a Graph. IDs are allocated from a
// monotonically increasing counter and are never reused, even after the
// vertex is removed. The zero ID is never allocated.
type ID uint64

// Polarity describes how the consumer of a wire reads the producer's value.
type Polarity uint8

const (
	// Normal wires pass the producer's value through unchanged.
	Normal Polarity = iota
	// Negated wires deliver the logical complement of the producer's value.
	Negated
)

// String returns the lower-case name of the polarity.
func (p Polarity) String() string {
	switch p {
	case Normal:
		return "normal"
	case Negated:
		return "negated"
	default:
		return "InvalidPolarity"
	}
}

// Wire is a directed edge between two vertices.
type Wire struct {
	From     ID
	To       ID
	Polarity Polarity
}

// Apply returns the value a consumer of w reads when the producer emits v.
func (w Wire) Apply(v bool) bool {
	if w.Polarity == Negated {
		return !v
	}
	return v
}

// Graph is a directed acyclic graph of vertices and wires with cached
// topological order and reachability. All operations on the graph are
// concurrency-safe.
type Graph struct {
	// mutex protects everything below.
	mutex sync.RWMutex
	// last is the most recently allocated ID.
	last ID
	// children maps every live vertex to its outgoing wires, keyed by target.
	children map[ID]map[ID]Polarity
	// parents maps every live vertex to its incoming wires, keyed by source.
	parents map[ID]map[ID]Polarity

	// order is the cached topological order of all live vertices.
	order []ID
	// closure maps every live vertex to the set of vertices reachable from
	// it, itself included.
	closure map[ID]map[ID]struct{}
}
