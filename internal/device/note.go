package device

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vk/graf/internal/midi"
	"github.com/vk/graf/internal/transport"
)

// PitchClass is a semitone within an octave, C being 0.
type PitchClass uint8

const (
	C PitchClass = iota
	Cs
	D
	Ds
	E
	F
	Fs
	G
	Gs
	A
	As
	B
)

var pitchNames = [...]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// String returns the pitch name using sharps.
func (p PitchClass) String() string {
	if int(p) < len(pitchNames) {
		return pitchNames[p]
	}
	return fmt.Sprintf("PitchClass(%d)", uint8(p))
}

// ParsePitchClass accepts names like "C", "c#" or "Cs".
func ParsePitchClass(s string) (PitchClass, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	name = strings.Replace(name, "S", "#", 1)
	for i, n := range pitchNames {
		if name == n {
			return PitchClass(i), nil
		}
	}
	return 0, fmt.Errorf("unknown pitch class %q", s)
}

type noteChange struct {
	octave uint8
	pitch  PitchClass
}

// Note sounds a MIDI note while its input is high. It has no output.
type Note struct {
	Channel  uint8
	Octave   uint8
	Pitch    PitchClass
	Velocity uint8

	on      bool
	pending *noteChange
}

// NewNote returns a middle-C note on channel 0.
func NewNote() *Note {
	return &Note{
		Octave:   4,
		Pitch:    C,
		Velocity: 100,
	}
}

// Key returns the MIDI key number.
func (n *Note) Key() uint8 {
	return uint8(n.Pitch) + 12*n.Octave
}

// Sounding reports whether a Note On has been sent without its Note Off.
func (n *Note) Sounding() bool {
	return n.on
}

// SetNote schedules a pitch change. It takes effect at the start of the next
// update, after the currently sounding key (if any) has been released.
func (n *Note) SetNote(octave uint8, pitch PitchClass) {
	if octave == n.Octave && pitch == n.Pitch {
		n.pending = nil
		return
	}
	n.pending = &noteChange{octave: octave, pitch: pitch}
}

// Silence sends a Note Off if the note is sounding.
func (n *Note) Silence(sender midi.Sender) {
	n.turnOff(sender)
}

func (n *Note) update(tc *transport.Context, inputs []bool) {
	var sender midi.Sender = tc
	if n.pending != nil {
		n.turnOff(sender)
		n.Octave = n.pending.octave
		n.Pitch = n.pending.pitch
		n.pending = nil
	}

	if firstInput(inputs) {
		n.turnOn(sender)
	} else {
		n.turnOff(sender)
	}
}

func (n *Note) turnOn(sender midi.Sender) {
	if n.on {
		return
	}
	sender.Send(n.event(midi.NoteOn))
	n.on = true
}

func (n *Note) turnOff(sender midi.Sender) {
	if !n.on {
		return
	}
	sender.Send(n.event(midi.NoteOff))
	n.on = false
}

func (n *Note) event(m midi.Message) midi.Event {
	return midi.Event{
		Channel:  n.Channel,
		Message:  m,
		Key:      n.Key(),
		Velocity: n.Velocity,
	}
}

func (n *Note) validate() error {
	var errs []error
	if n.Channel > 15 {
		errs = append(errs, fmt.Errorf("channel %d out of range 0..15", n.Channel))
	}
	if n.Octave > 9 {
		errs = append(errs, fmt.Errorf("octave %d out of range 0..9", n.Octave))
	}
	if int(n.Pitch) >= len(pitchNames) {
		errs = append(errs, fmt.Errorf("unknown pitch class %s", n.Pitch))
	}
	if n.Velocity > 127 {
		errs = append(errs, fmt.Errorf("velocity %d out of range 0..127", n.Velocity))
	}
	if int(n.Pitch)+12*int(n.Octave) > 127 {
		errs = append(errs, fmt.Errorf("key %s%d is above MIDI key 127", n.Pitch, n.Octave))
	}
	return errors.Join(errs...)
}
