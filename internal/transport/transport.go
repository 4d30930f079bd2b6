// Package transport holds the tick context shared by every device during an
// evaluation pass: the beat clock, the free-running clock, the tempo, pause
// state and the MIDI sender.
package transport

import (
	"time"

	"github.com/vk/graf/internal/midi"
)

// DefaultBPM is the tempo of a fresh context.
const DefaultBPM = 120

// Context is the tick context. Wall time is always supplied by the caller.
type Context struct {
	// BeatClock counts beats elapsed while not paused.
	BeatClock float64
	// FreeClock is the wall time elapsed while not paused.
	FreeClock time.Duration
	BPM       int

	ThisUpdate time.Time
	LastUpdate time.Time

	Paused bool

	// MIDI receives events produced by Note devices. May be nil, in which
	// case events are dropped.
	MIDI midi.Sender
}

// New returns a context at rest at `now`.
func New(now time.Time, sender midi.Sender) *Context {
	return &Context{
		BPM:        DefaultBPM,
		ThisUpdate: now,
		LastUpdate: now,
		MIDI:       sender,
	}
}

// Begin starts a tick at `now`, advancing both clocks by the time elapsed
// since the previous tick unless paused.
func (c *Context) Begin(now time.Time) {
	c.ThisUpdate = now
	if c.Paused {
		return
	}
	elapsed := c.ThisUpdate.Sub(c.LastUpdate)
	if elapsed < 0 {
		elapsed = 0
	}
	c.FreeClock += elapsed
	c.BeatClock += elapsed.Seconds() * float64(c.BPM) / 60
}

// End closes the tick started by Begin.
func (c *Context) End() {
	c.LastUpdate = c.ThisUpdate
}

// Rewind zeroes both clocks and restarts elapsed-time measurement at `now`.
func (c *Context) Rewind(now time.Time) {
	c.BeatClock = 0
	c.FreeClock = 0
	c.LastUpdate = now
}

// TogglePause flips the pause state and returns the new value.
func (c *Context) TogglePause() bool {
	c.Paused = !c.Paused
	return c.Paused
}

// Send forwards e to the MIDI sender, if any.
func (c *Context) Send(e midi.Event) {
	if c.MIDI != nil {
		c.MIDI.Send(e)
	}
}

// MillisPerBeat returns the length of one beat at the current tempo.
func (c *Context) MillisPerBeat() float64 {
	if c.BPM <= 0 {
		return 0
	}
	return 60000 / float64(c.BPM)
}
