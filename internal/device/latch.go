package device

// Latch toggles its output on every rising edge of its input.
type Latch struct {
	// On is the current state. It can be preset from a circuit file.
	On bool

	prev bool
}

// NewLatch returns a latch that starts off.
func NewLatch() *Latch {
	return &Latch{}
}

func (l *Latch) update(inputs []bool) bool {
	in := firstInput(inputs)
	if in && !l.prev {
		l.On = !l.On
	}
	l.prev = in
	return l.On
}

// firstInput reads the single input of a unary device. A missing input is
// low.
func firstInput(inputs []bool) bool {
	return len(inputs) > 0 && inputs[0]
}
