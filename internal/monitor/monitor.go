// Package monitor streams a running circuit to a socket.io server: one
// "frame" event per tick and one "midi" event per flushed batch of MIDI
// events.
package monitor

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/vk/graf/internal/ctxlog"
	"github.com/vk/graf/internal/midi"
)

const (
	EventFrame = "frame"
	EventMIDI  = "midi"

	defaultConnectTimeout = 15 * time.Second
)

// Config describes the socket.io endpoint to publish to.
type Config struct {
	URL                string
	Namespace          string
	InsecureSkipVerify bool
	ConnectTimeout     time.Duration
}

// Frame is the state of the circuit after one tick.
type Frame struct {
	Run     string          `json:"run"`
	Tick    uint64          `json:"tick"`
	Beat    float64         `json:"beat"`
	BPM     int             `json:"bpm"`
	Paused  bool            `json:"paused"`
	Outputs map[string]bool `json:"outputs"`
}

// MIDIEvent is the wire form of a midi.Event.
type MIDIEvent struct {
	Message  string `json:"message"`
	Channel  uint8  `json:"channel"`
	Key      uint8  `json:"key"`
	Velocity uint8  `json:"velocity"`
}

type emitFunc func(event string, args ...any) error

// Monitor publishes frames and MIDI events. It implements midi.Output.
type Monitor struct {
	run   string
	emit  emitFunc
	close func()
}

var _ midi.Output = (*Monitor)(nil)

// Dial connects to the socket.io server described by cfg and waits for the
// connection to be acknowledged. run tags every frame.
func Dial(ctx context.Context, cfg Config, run string) (*Monitor, error) {
	logger := ctxlog.FromContext(ctx).With("url", cfg.URL, "namespace", cfg.Namespace)
	logger.Info("Connecting monitor.")

	parsedURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse monitor URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("monitor URL %q needs a scheme and a host", cfg.URL)
	}

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	if cfg.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification.")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(cfg.Namespace, opts)

	connected := make(chan error, 1)
	io.Once(types.EventName("connect"), func(...any) {
		connected <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := errors.New("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		connected <- err
	})
	io.Connect()

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-connected:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("monitor connection failed: %w", err)
		}
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for monitor connection: %w", ctx.Err())
	case <-timer.C:
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for monitor connection", timeout)
	}

	logger.Info("Monitor connected.", "sid", io.Id())
	return newMonitor(run, io.Emit, func() { io.Disconnect() }), nil
}

func newMonitor(run string, emit emitFunc, close func()) *Monitor {
	return &Monitor{run: run, emit: emit, close: close}
}

// Publish sends one frame. The frame's Run is filled in if empty.
func (m *Monitor) Publish(_ context.Context, f Frame) error {
	if f.Run == "" {
		f.Run = m.run
	}
	if f.Outputs == nil {
		f.Outputs = map[string]bool{}
	}
	if err := m.emit(EventFrame, f); err != nil {
		return fmt.Errorf("failed to publish frame %d: %w", f.Tick, err)
	}
	return nil
}

// Write implements midi.Output by emitting the whole batch as one event.
func (m *Monitor) Write(_ context.Context, events []midi.Event) error {
	if len(events) == 0 {
		return nil
	}
	payload := make([]MIDIEvent, len(events))
	for i, e := range events {
		payload[i] = MIDIEvent{
			Message:  e.Message.String(),
			Channel:  e.Channel,
			Key:      e.Key,
			Velocity: e.Velocity,
		}
	}
	if err := m.emit(EventMIDI, payload); err != nil {
		return fmt.Errorf("failed to publish %d midi events: %w", len(events), err)
	}
	return nil
}

// Close disconnects from the server.
func (m *Monitor) Close() error {
	if m.close != nil {
		m.close()
	}
	return nil
}
