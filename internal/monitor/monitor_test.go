package monitor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/graf/internal/midi"
)

type emitted struct {
	event string
	args  []any
}

type recorder struct {
	calls []emitted
	err   error
}

func (r *recorder) emit(event string, args ...any) error {
	r.calls = append(r.calls, emitted{event: event, args: args})
	return r.err
}

func TestPublish(t *testing.T) {
	rec := &recorder{}
	m := newMonitor("run-1", rec.emit, nil)

	require.NoError(t, m.Publish(context.Background(), Frame{Tick: 3, Beat: 1.5, BPM: 120, Outputs: map[string]bool{"clock.a": true}}))
	require.NoError(t, m.Publish(context.Background(), Frame{Run: "other", Tick: 4}))

	require.Len(t, rec.calls, 2)
	assert.Equal(t, EventFrame, rec.calls[0].event)
	first := rec.calls[0].args[0].(Frame)
	assert.Equal(t, "run-1", first.Run)
	assert.Equal(t, map[string]bool{"clock.a": true}, first.Outputs)

	second := rec.calls[1].args[0].(Frame)
	assert.Equal(t, "other", second.Run)
	assert.NotNil(t, second.Outputs)
}

func TestWrite(t *testing.T) {
	rec := &recorder{}
	m := newMonitor("run", rec.emit, nil)

	require.NoError(t, m.Write(context.Background(), nil))
	assert.Empty(t, rec.calls, "empty batches are not sent")

	err := m.Write(context.Background(), []midi.Event{
		{Message: midi.NoteOn, Channel: 2, Key: 60, Velocity: 100},
		{Message: midi.NoteOff, Key: 60, Velocity: 100},
	})
	require.NoError(t, err)
	require.Len(t, rec.calls, 1)
	assert.Equal(t, EventMIDI, rec.calls[0].event)
	assert.Equal(t, []MIDIEvent{
		{Message: "note_on", Channel: 2, Key: 60, Velocity: 100},
		{Message: "note_off", Key: 60, Velocity: 100},
	}, rec.calls[0].args[0])
}

func TestEmitErrors(t *testing.T) {
	rec := &recorder{err: errors.New("socket closed")}
	m := newMonitor("run", rec.emit, nil)

	assert.ErrorContains(t, m.Publish(context.Background(), Frame{Tick: 9}), "failed to publish frame 9")
	assert.ErrorContains(t, m.Write(context.Background(), []midi.Event{{Message: midi.NoteOn}}), "socket closed")
}

func TestClose(t *testing.T) {
	closed := false
	m := newMonitor("run", (&recorder{}).emit, func() { closed = true })
	require.NoError(t, m.Close())
	assert.True(t, closed)
}

func TestDialRejectsBadURL(t *testing.T) {
	_, err := Dial(context.Background(), Config{URL: "not a url"}, "run")
	assert.Error(t, err)
}
