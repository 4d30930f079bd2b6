package device

import (
	"errors"
	"fmt"
	"math"

	"github.com/vk/graf/internal/transport"
)

// Fraction is a note length such as 1/4 (a quarter note).
type Fraction struct {
	Num uint32
	Den uint32
}

// Beats returns the length in beats, a whole note being four beats.
func (f Fraction) Beats() float64 {
	if f.Den == 0 {
		return 0
	}
	return float64(f.Num) / float64(f.Den) * 4
}

// String renders the fraction as n/d.
func (f Fraction) String() string {
	return fmt.Sprintf("%d/%d", f.Num, f.Den)
}

func (f Fraction) validate() error {
	if f.Num < 1 || f.Num > 256 || f.Den < 1 || f.Den > 256 {
		return fmt.Errorf("note length %s out of range, both parts must be within 1..256", f)
	}
	return nil
}

// Clock is a free-running square wave. It either follows the beat clock
// (BPMSync) or the wall clock.
type Clock struct {
	BPMSync bool
	// Period is the cycle length in milliseconds when not synced.
	Period float64
	// Length is the cycle length as a note value when synced.
	Length Fraction
	// Gate is the fraction of the cycle the output is high.
	Gate float64
	// Offset shifts the phase by a fraction of a cycle.
	Offset float64

	cycle float64
}

// NewClock returns a quarter-note clock with a 50% gate.
func NewClock() *Clock {
	return &Clock{
		BPMSync: true,
		Period:  500,
		Length:  Fraction{Num: 1, Den: 4},
		Gate:    0.5,
	}
}

// Cycle returns the phase computed by the last update, in [0, 1).
func (c *Clock) Cycle() float64 {
	return c.cycle
}

func (c *Clock) update(tc *transport.Context) bool {
	if c.BPMSync {
		period := c.Length.Beats()
		if period > 0 {
			c.cycle = frac(tc.BeatClock/period + c.Offset)
		}
	} else if c.Period > 0 {
		ms := float64(tc.FreeClock.Microseconds()) / 1000
		c.cycle = frac(ms/c.Period + c.Offset)
	}
	return c.cycle <= c.Gate
}

func (c *Clock) validate() error {
	var errs []error
	if err := c.Length.validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Period < 1 || c.Period > 10000 {
		errs = append(errs, fmt.Errorf("period %gms out of range 1..10000", c.Period))
	}
	if c.Gate < 0 || c.Gate > 1 {
		errs = append(errs, fmt.Errorf("gate %g out of range 0..1", c.Gate))
	}
	if c.Offset < 0 || c.Offset > 1 {
		errs = append(errs, fmt.Errorf("offset %g out of range 0..1", c.Offset))
	}
	return errors.Join(errs...)
}

func frac(x float64) float64 {
	return x - math.Floor(x)
}
