package device

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/graf/internal/midi"
	"github.com/vk/graf/internal/transport"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newContext() (*transport.Context, *midi.Queue) {
	q := midi.NewQueue()
	return transport.New(epoch, q), q
}

func TestKinds(t *testing.T) {
	for _, k := range Kinds() {
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)

		b, err := New(k)
		require.NoError(t, err)
		assert.Equal(t, k, KindOf(b))
		assert.NoError(t, Validate(b), "defaults of %s must be valid", k)
	}

	k, err := ParseKind("CLOCK")
	require.NoError(t, err)
	assert.Equal(t, KindClock, k)

	_, err = ParseKind("oscillator")
	assert.ErrorContains(t, err, `unknown device kind "oscillator"`)

	_, err = New(Kind(42))
	assert.Error(t, err)
}

func TestCapabilities(t *testing.T) {
	testCases := []struct {
		body      Body
		arity     Arity
		hasOutput bool
	}{
		{NewClock(), Nullary, true},
		{NewGate(), NAry, true},
		{NewLatch(), Unary, true},
		{NewTrigger(), Unary, true},
		{NewNote(), Unary, false},
	}

	for _, tc := range testCases {
		t.Run(KindOf(tc.body).String(), func(t *testing.T) {
			assert.Equal(t, tc.arity, InputArity(tc.body))
			assert.Equal(t, tc.hasOutput, HasOutput(tc.body))
			assert.NotEmpty(t, Describe(tc.body))
		})
	}
}

func TestCloneIsIndependent(t *testing.T) {
	n := NewNote()
	n.SetNote(5, A)
	c := Clone(n).(*Note)
	require.NotSame(t, n, c)
	require.NotNil(t, c.pending)
	assert.NotSame(t, n.pending, c.pending)

	c.Velocity = 1
	assert.Equal(t, uint8(100), n.Velocity)

	l := NewLatch()
	l.update([]bool{true})
	lc := Clone(l).(*Latch)
	assert.True(t, lc.On, "state is copied")
	lc.update([]bool{false})
	lc.update([]bool{true})
	assert.False(t, lc.On)
	assert.True(t, l.On)
}

func TestClock(t *testing.T) {
	t.Run("bpm synced quarter notes", func(t *testing.T) {
		tc, _ := newContext()
		c := NewClock()

		// One beat per period, high for the first half.
		for _, step := range []struct {
			beat float64
			want bool
		}{
			{0, true},
			{0.25, true},
			{0.5, true},
			{0.75, false},
			{1.0, true},
			{1.6, false},
		} {
			tc.BeatClock = step.beat
			out, ok := Update(c, tc, nil)
			require.True(t, ok)
			assert.Equal(t, step.want, out, "beat %v", step.beat)
		}
	})

	t.Run("offset shifts the phase", func(t *testing.T) {
		tc, _ := newContext()
		c := NewClock()
		c.Offset = 0.5
		tc.BeatClock = 0
		out, _ := Update(c, tc, nil)
		assert.True(t, out)
		assert.InDelta(t, 0.5, c.Cycle(), 1e-9)

		tc.BeatClock = 0.25
		out, _ = Update(c, tc, nil)
		assert.False(t, out)
	})

	t.Run("free running", func(t *testing.T) {
		tc, _ := newContext()
		c := NewClock()
		c.BPMSync = false
		c.Period = 100
		c.Gate = 0.25

		tc.FreeClock = 20 * time.Millisecond
		out, _ := Update(c, tc, nil)
		assert.True(t, out)

		tc.FreeClock = 160 * time.Millisecond
		out, _ = Update(c, tc, nil)
		assert.False(t, out)
		assert.InDelta(t, 0.6, c.Cycle(), 1e-9)
	})

	t.Run("reset clears the phase", func(t *testing.T) {
		tc, _ := newContext()
		c := NewClock()
		tc.BeatClock = 0.7
		Update(c, tc, nil)
		require.NotZero(t, c.Cycle())
		Reset(c)
		assert.Zero(t, c.Cycle())
	})

	t.Run("validation", func(t *testing.T) {
		c := NewClock()
		c.Gate = 2
		c.Length = Fraction{Num: 0, Den: 4}
		err := Validate(c)
		require.Error(t, err)
		assert.ErrorContains(t, err, "gate 2 out of range")
		assert.ErrorContains(t, err, "note length 0/4 out of range")
	})
}

func TestGateOperations(t *testing.T) {
	inputs := [][]bool{
		{},
		{false},
		{true},
		{true, true},
		{true, false},
		{false, false},
		{true, true, true},
	}
	want := map[Operation][]bool{
		OpAND:  {true, false, true, true, false, false, true},
		OpOR:   {false, false, true, true, true, false, true},
		OpXOR:  {false, false, true, false, true, false, true},
		OpNAND: {false, true, false, false, true, true, false},
		OpNOR:  {true, true, false, false, false, true, false},
		OpXNOR: {true, true, false, true, false, true, false},
	}

	for op, expected := range want {
		t.Run(op.String(), func(t *testing.T) {
			g := &Gate{Operation: op}
			for i, in := range inputs {
				out, ok := Update(g, nil, in)
				require.True(t, ok)
				assert.Equal(t, expected[i], out, "inputs %v", in)
			}
		})
	}
}

func TestParseOperation(t *testing.T) {
	op, err := ParseOperation("XNOR")
	require.NoError(t, err)
	assert.Equal(t, OpXNOR, op)

	_, err = ParseOperation("imply")
	assert.Error(t, err)
	assert.Error(t, Validate(&Gate{Operation: Operation(17)}))
}

func TestLatch(t *testing.T) {
	l := NewLatch()
	sequence := []struct {
		in   []bool
		want bool
	}{
		{nil, false},
		{[]bool{true}, true},
		{[]bool{true}, true},
		{[]bool{false}, true},
		{[]bool{true}, false},
		{nil, false},
		{[]bool{true}, true},
	}
	for i, step := range sequence {
		out, ok := Update(l, nil, step.in)
		require.True(t, ok)
		assert.Equal(t, step.want, out, "step %d", i)
	}

	Reset(l)
	assert.False(t, l.On)
	out, _ := Update(l, nil, []bool{true})
	assert.True(t, out, "a held input is a fresh rising edge after reset")
}

func TestTrigger(t *testing.T) {
	advance := func(tc *transport.Context, d time.Duration) {
		tc.FreeClock += d
	}

	t.Run("one shot", func(t *testing.T) {
		tc, _ := newContext()
		tr := NewTrigger()
		tr.Duration = 100

		out, _ := Update(tr, tc, []bool{true})
		assert.False(t, out, "firing tick is low")

		advance(tc, 40*time.Millisecond)
		out, _ = Update(tr, tc, []bool{true})
		assert.True(t, out)
		assert.InDelta(t, 60, tr.Remaining(), 1e-9)

		advance(tc, 40*time.Millisecond)
		out, _ = Update(tr, tc, []bool{false})
		assert.True(t, out)

		advance(tc, 40*time.Millisecond)
		out, _ = Update(tr, tc, []bool{false})
		assert.True(t, out, "the tick that exhausts the timer is still high")

		advance(tc, 40*time.Millisecond)
		out, _ = Update(tr, tc, []bool{false})
		assert.False(t, out)
	})

	t.Run("held input does not refire", func(t *testing.T) {
		tc, _ := newContext()
		tr := NewTrigger()
		tr.Duration = 10

		Update(tr, tc, []bool{true})
		for range 5 {
			advance(tc, 20*time.Millisecond)
			Update(tr, tc, []bool{true})
		}
		assert.Zero(t, tr.Remaining())
		out, _ := Update(tr, tc, []bool{true})
		assert.False(t, out)

		Update(tr, tc, []bool{false})
		out, _ = Update(tr, tc, []bool{true})
		assert.False(t, out, "re-armed trigger fires with a low tick")
		assert.Equal(t, 10.0, tr.Remaining())
	})

	t.Run("retrigger restarts the pulse", func(t *testing.T) {
		tc, _ := newContext()
		tr := NewTrigger()
		tr.Duration = 100
		tr.Retrigger = true

		out, _ := Update(tr, tc, []bool{true})
		assert.True(t, out)

		advance(tc, 60*time.Millisecond)
		Update(tr, tc, []bool{false})
		assert.InDelta(t, 40, tr.Remaining(), 1e-9)

		advance(tc, 10*time.Millisecond)
		out, _ = Update(tr, tc, []bool{true})
		assert.True(t, out)
		assert.InDelta(t, 90, tr.Remaining(), 1e-9)
	})

	t.Run("bpm synced duration", func(t *testing.T) {
		tc, _ := newContext()
		tc.BPM = 60
		tr := NewTrigger()
		tr.BPMSync = true
		tr.Length = Fraction{Num: 1, Den: 8}

		Update(tr, tc, []bool{true})
		assert.InDelta(t, 500, tr.Remaining(), 1e-9)
	})

	t.Run("reset re-arms", func(t *testing.T) {
		tc, _ := newContext()
		tr := NewTrigger()
		Update(tr, tc, []bool{true})
		require.NotZero(t, tr.Remaining())

		Reset(tr)
		assert.Zero(t, tr.Remaining())
		out, _ := Update(tr, tc, []bool{true})
		assert.False(t, out)
		assert.NotZero(t, tr.Remaining())
	})
}

func TestNote(t *testing.T) {
	t.Run("on and off once", func(t *testing.T) {
		tc, q := newContext()
		n := NewNote()

		_, ok := Update(n, tc, []bool{true})
		assert.False(t, ok, "notes never produce a value")
		Update(n, tc, []bool{true})
		assert.Equal(t, []midi.Event{{Channel: 0, Message: midi.NoteOn, Key: 48, Velocity: 100}}, q.Drain())
		assert.True(t, n.Sounding())

		Update(n, tc, nil)
		Update(n, tc, []bool{false})
		assert.Equal(t, []midi.Event{{Channel: 0, Message: midi.NoteOff, Key: 48, Velocity: 100}}, q.Drain())
		assert.False(t, n.Sounding())
	})

	t.Run("pitch change releases the old key first", func(t *testing.T) {
		tc, q := newContext()
		n := NewNote()
		Update(n, tc, []bool{true})
		q.Drain()

		n.SetNote(5, A)
		assert.Equal(t, uint8(48), n.Key(), "change waits for the next update")
		Update(n, tc, []bool{true})
		assert.Equal(t, []midi.Event{
			{Message: midi.NoteOff, Key: 48, Velocity: 100},
			{Message: midi.NoteOn, Key: 69, Velocity: 100},
		}, q.Drain())
	})

	t.Run("silence", func(t *testing.T) {
		tc, q := newContext()
		n := NewNote()
		n.Silence(q)
		assert.Zero(t, q.Len())

		Update(n, tc, []bool{true})
		q.Drain()
		n.Silence(q)
		assert.Equal(t, []midi.Event{{Message: midi.NoteOff, Key: 48, Velocity: 100}}, q.Drain())
	})

	t.Run("reset keeps sounding state", func(t *testing.T) {
		tc, q := newContext()
		n := NewNote()
		Update(n, tc, []bool{true})
		q.Drain()

		Reset(n)
		assert.True(t, n.Sounding())
		Update(n, tc, nil)
		assert.Equal(t, midi.NoteOff, q.Drain()[0].Message)
	})

	t.Run("validation", func(t *testing.T) {
		n := NewNote()
		n.Channel = 16
		n.Octave = 10
		n.Pitch = B
		err := Validate(n)
		require.Error(t, err)
		assert.ErrorContains(t, err, "channel 16")
		assert.ErrorContains(t, err, "octave 10")
		assert.ErrorContains(t, err, "above MIDI key 127")
	})
}

func TestParsePitchClass(t *testing.T) {
	for input, want := range map[string]PitchClass{
		"C":  C,
		"c#": Cs,
		"Cs": Cs,
		"fs": Fs,
		"B":  B,
	} {
		got, err := ParsePitchClass(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}
	_, err := ParsePitchClass("H")
	assert.Error(t, err)
}
