package device

import (
	"errors"
	"fmt"
	"time"

	"github.com/vk/graf/internal/transport"
)

// Trigger is a one-shot: a high input starts a pulse of fixed length.
//
// Without Retrigger the trigger fires only when the previous pulse has ended
// and the input has gone low since it last fired, and the firing tick itself
// outputs low so consecutive pulses are always separated. With Retrigger a
// new pulse restarts the timer whenever the trigger is armed.
type Trigger struct {
	// Duration is the pulse length in milliseconds when not synced.
	Duration float64
	BPMSync  bool
	// Length is the pulse length as a note value when synced.
	Length    Fraction
	Retrigger bool

	ready     bool
	firing    bool
	remaining float64 // ms
	prevClock time.Duration
}

// NewTrigger returns an armed 500ms trigger.
func NewTrigger() *Trigger {
	return &Trigger{
		Duration: 500,
		Length:   Fraction{Num: 1, Den: 4},
		ready:    true,
	}
}

// Remaining returns the milliseconds left in the current pulse, or zero when
// idle.
func (t *Trigger) Remaining() float64 {
	if !t.firing {
		return 0
	}
	return t.remaining
}

func (t *Trigger) fire(tc *transport.Context) {
	d := t.Duration
	if t.BPMSync {
		d = t.Length.Beats() * tc.MillisPerBeat()
	}
	t.ready = false
	t.firing = true
	t.remaining = d
}

func (t *Trigger) update(tc *transport.Context, inputs []bool) bool {
	in := firstInput(inputs)
	if t.Retrigger {
		if in && t.ready {
			t.fire(tc)
		}
	} else if in && t.ready && !t.firing {
		t.fire(tc)
		return false
	}

	if !in {
		t.ready = true
	}

	delta := tc.FreeClock - t.prevClock
	t.prevClock = tc.FreeClock

	if !t.firing {
		return false
	}
	t.remaining -= float64(delta.Microseconds()) / 1000
	if t.remaining <= 0 {
		t.firing = false
		t.remaining = 0
	}
	return true
}

func (t *Trigger) validate() error {
	var errs []error
	if err := t.Length.validate(); err != nil {
		errs = append(errs, err)
	}
	if t.Duration < 1 || t.Duration > 10000 {
		errs = append(errs, fmt.Errorf("duration %gms out of range 1..10000", t.Duration))
	}
	return errors.Join(errs...)
}
