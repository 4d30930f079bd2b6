package midi

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/vk/graf/internal/ctxlog"
)

// Output is a destination for drained events.
type Output interface {
	Write(ctx context.Context, events []Event) error
}

// StreamOutput writes raw MIDI bytes to an io.Writer, e.g. an ALSA rawmidi
// device node or a FIFO read by a synth.
type StreamOutput struct {
	w io.Writer
}

// NewStreamOutput returns an Output writing to w.
func NewStreamOutput(w io.Writer) *StreamOutput {
	return &StreamOutput{w: w}
}

// Write implements Output. Events are encoded into one buffer and written
// with a single call so a batch reaches the device together.
func (s *StreamOutput) Write(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}
	buf := make([]byte, 0, 3*len(events))
	for _, e := range events {
		buf = append(buf, e.Bytes()...)
	}
	if _, err := s.w.Write(buf); err != nil {
		return fmt.Errorf("failed to write %d midi events: %w", len(events), err)
	}
	return nil
}

// Close closes the underlying writer if it is an io.Closer.
func (s *StreamOutput) Close() error {
	if c, ok := s.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// LogOutput logs every event at debug level through the context logger.
type LogOutput struct{}

// Write implements Output.
func (LogOutput) Write(ctx context.Context, events []Event) error {
	logger := ctxlog.FromContext(ctx)
	for _, e := range events {
		logger.Debug("MIDI event.",
			"message", e.Message.String(),
			"channel", e.Channel,
			"key", e.Key,
			"velocity", e.Velocity,
		)
	}
	return nil
}

// MultiOutput fans a batch out to several outputs. Every output is written
// even if an earlier one fails; the errors are joined.
type MultiOutput []Output

// Write implements Output.
func (m MultiOutput) Write(ctx context.Context, events []Event) error {
	var errs []error
	for _, o := range m {
		if err := o.Write(ctx, events); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Tolerant wraps an output whose failures must not stop playback. Errors are
// logged at warn level and dropped.
type Tolerant struct {
	Output Output
}

// Write implements Output.
func (t Tolerant) Write(ctx context.Context, events []Event) error {
	if err := t.Output.Write(ctx, events); err != nil {
		ctxlog.FromContext(ctx).Warn("MIDI output failed, events dropped.", "events", len(events), "error", err)
	}
	return nil
}
