package dag

import (
	"errors"
	"fmt"
)

// ErrIllegalWire is the sentinel matched by every *IllegalWireError.
var ErrIllegalWire = errors.New("illegal wire")

// Reason tells why a wire was refused. Callers are expected to react the same
// way to every reason (reject the gesture, keep the graph as it was); it is
// kept for diagnostics only.
type Reason uint8

const (
	// ReasonMissingVertex means one of the endpoints is not a live vertex.
	ReasonMissingVertex Reason = iota + 1
	// ReasonCycle means the wire would close a directed cycle.
	ReasonCycle
)

// String returns a short description of the reason.
func (r Reason) String() string {
	switch r {
	case ReasonMissingVertex:
		return "endpoint does not exist"
	case ReasonCycle:
		return "would create a cycle"
	default:
		return "unknown reason"
	}
}

// IllegalWireError is returned by Graph.AddWire when a wire cannot be
// inserted. The graph is left untouched.
type IllegalWireError struct {
	From   ID
	To     ID
	Reason Reason
}

// Error implements the error interface.
func (e *IllegalWireError) Error() string {
	return fmt.Sprintf("illegal wire %d -> %d: %s", e.From, e.To, e.Reason)
}

// Is reports whether target is ErrIllegalWire.
func (e *IllegalWireError) Is(target error) bool {
	return target == ErrIllegalWire
}
