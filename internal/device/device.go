// Package device implements the closed set of circuit devices.
//
// Body is a sealed interface: only the kinds in this package implement it.
// Behaviour is reached through one dispatch function per capability (Update,
// InputArity, HasOutput, Reset, Clone, KindOf) that switches on the concrete
// type, so adding a kind means adding a case to each of them.
package device

import (
	"fmt"
	"strings"

	"github.com/vk/graf/internal/transport"
)

// Kind enumerates the device kinds.
type Kind uint8

const (
	KindClock Kind = iota + 1
	KindGate
	KindLatch
	KindTrigger
	KindNote
)

var kindNames = map[Kind]string{
	KindClock:   "clock",
	KindGate:    "gate",
	KindLatch:   "latch",
	KindTrigger: "trigger",
	KindNote:    "note",
}

// String returns the lower-case kind name used in circuit files.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Kinds lists every kind in declaration order.
func Kinds() []Kind {
	return []Kind{KindClock, KindGate, KindLatch, KindTrigger, KindNote}
}

// ParseKind maps a kind name to its Kind. Matching ignores case.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if strings.EqualFold(s, name) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown device kind %q", s)
}

// Arity is the number of input wires a device accepts.
type Arity uint8

const (
	// Nullary devices accept no inputs.
	Nullary Arity = iota
	// Unary devices accept at most one input.
	Unary
	// NAry devices accept any number of inputs.
	NAry
)

// String returns the lower-case arity name.
func (a Arity) String() string {
	switch a {
	case Nullary:
		return "nullary"
	case Unary:
		return "unary"
	case NAry:
		return "nary"
	default:
		return "InvalidArity"
	}
}

// Body is the state of one device.
type Body interface {
	sealed()
}

func (*Clock) sealed()   {}
func (*Gate) sealed()    {}
func (*Latch) sealed()   {}
func (*Trigger) sealed() {}
func (*Note) sealed()    {}

// New returns a body of the given kind with default settings.
func New(k Kind) (Body, error) {
	switch k {
	case KindClock:
		return NewClock(), nil
	case KindGate:
		return NewGate(), nil
	case KindLatch:
		return NewLatch(), nil
	case KindTrigger:
		return NewTrigger(), nil
	case KindNote:
		return NewNote(), nil
	default:
		return nil, fmt.Errorf("unknown device kind %s", k)
	}
}

// KindOf returns the kind of b.
func KindOf(b Body) Kind {
	switch b.(type) {
	case *Clock:
		return KindClock
	case *Gate:
		return KindGate
	case *Latch:
		return KindLatch
	case *Trigger:
		return KindTrigger
	case *Note:
		return KindNote
	default:
		panic(unknownBody(b))
	}
}

// Update advances b by one tick. ok is false when the device produced no
// output this tick.
func Update(b Body, tc *transport.Context, inputs []bool) (out bool, ok bool) {
	switch d := b.(type) {
	case *Clock:
		return d.update(tc), true
	case *Gate:
		return d.update(inputs), true
	case *Latch:
		return d.update(inputs), true
	case *Trigger:
		return d.update(tc, inputs), true
	case *Note:
		d.update(tc, inputs)
		return false, false
	default:
		panic(unknownBody(b))
	}
}

// InputArity returns how many input wires b accepts.
func InputArity(b Body) Arity {
	switch b.(type) {
	case *Clock:
		return Nullary
	case *Gate:
		return NAry
	case *Latch, *Trigger, *Note:
		return Unary
	default:
		panic(unknownBody(b))
	}
}

// HasOutput reports whether wires may leave b.
func HasOutput(b Body) bool {
	switch b.(type) {
	case *Clock, *Gate, *Latch, *Trigger:
		return true
	case *Note:
		return false
	default:
		panic(unknownBody(b))
	}
}

// Reset returns the run-time state of b to its initial value. Settings are
// kept.
func Reset(b Body) {
	switch d := b.(type) {
	case *Clock:
		d.cycle = 0
	case *Gate:
	case *Latch:
		d.On = false
		d.prev = false
	case *Trigger:
		d.ready = true
		d.firing = false
		d.remaining = 0
		d.prevClock = 0
	case *Note:
		// The sounding state survives so the next update can send the
		// matching Note Off.
	default:
		panic(unknownBody(b))
	}
}

// Clone returns an independent copy of b, state included.
func Clone(b Body) Body {
	switch d := b.(type) {
	case *Clock:
		c := *d
		return &c
	case *Gate:
		c := *d
		return &c
	case *Latch:
		c := *d
		return &c
	case *Trigger:
		c := *d
		return &c
	case *Note:
		c := *d
		if d.pending != nil {
			p := *d.pending
			c.pending = &p
		}
		return &c
	default:
		panic(unknownBody(b))
	}
}

// Validate checks the settings of b.
func Validate(b Body) error {
	switch d := b.(type) {
	case *Clock:
		return d.validate()
	case *Gate:
		return d.validate()
	case *Latch:
		return nil
	case *Trigger:
		return d.validate()
	case *Note:
		return d.validate()
	default:
		panic(unknownBody(b))
	}
}

// Describe returns the settings of b keyed by their circuit file attribute
// names.
func Describe(b Body) map[string]any {
	switch d := b.(type) {
	case *Clock:
		return map[string]any{
			"bpm_sync": d.BPMSync,
			"period":   d.Period,
			"length":   d.Length.String(),
			"gate":     d.Gate,
			"offset":   d.Offset,
		}
	case *Gate:
		return map[string]any{"operation": d.Operation.String()}
	case *Latch:
		return map[string]any{"on": d.On}
	case *Trigger:
		return map[string]any{
			"duration":  d.Duration,
			"bpm_sync":  d.BPMSync,
			"length":    d.Length.String(),
			"retrigger": d.Retrigger,
		}
	case *Note:
		return map[string]any{
			"channel":  d.Channel,
			"octave":   d.Octave,
			"pitch":    d.Pitch.String(),
			"velocity": d.Velocity,
		}
	default:
		panic(unknownBody(b))
	}
}

func unknownBody(b Body) string {
	return fmt.Sprintf("device: unknown body type %T", b)
}
