package testutil

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/vk/graf/internal/midi"
)

// DecodeMIDI splits raw three-byte channel messages back into events.
func DecodeMIDI(t *testing.T, data []byte) []midi.Event {
	t.Helper()
	require.Zero(t, len(data)%3, "midi output is not a whole number of messages")

	var events []midi.Event
	for i := 0; i < len(data); i += 3 {
		events = append(events, midi.Event{
			Message:  midi.Message(data[i] & 0xf0),
			Channel:  data[i] & 0x0f,
			Key:      data[i+1],
			Velocity: data[i+2],
		})
	}
	return events
}

// AssertMIDI checks that the run wrote exactly want to its MIDI output.
func AssertMIDI(t *testing.T, result *HarnessResult, want []midi.Event) {
	t.Helper()
	require.NoError(t, result.Err)
	if diff := cmp.Diff(want, DecodeMIDI(t, result.MIDI)); diff != "" {
		t.Errorf("midi output mismatch (-want +got):\n%s", diff)
	}
}

// AssertLogged checks that msg appears in the run's log output.
func AssertLogged(t *testing.T, result *HarnessResult, msg string) {
	t.Helper()
	require.True(t,
		strings.Contains(result.LogOutput, msg),
		"expected %q in log output", msg,
	)
}
