// Package session owns a running circuit: the device table, the graph that
// orders it, the tick context and the MIDI queue. It is also where the
// connection policy lives; the graph itself only refuses cycles.
package session

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/vk/graf/internal/ctxlog"
	"github.com/vk/graf/internal/dag"
	"github.com/vk/graf/internal/device"
	"github.com/vk/graf/internal/executor"
	"github.com/vk/graf/internal/midi"
	"github.com/vk/graf/internal/transport"
)

// Table is the device arena, keyed by graph vertex.
type Table map[dag.ID]device.Body

// Update implements executor.Devices.
func (t Table) Update(id dag.ID, tc *transport.Context, inputs []bool) (bool, bool) {
	body, ok := t[id]
	if !ok {
		return false, false
	}
	return device.Update(body, tc, inputs)
}

// Session is a live circuit. All methods are safe for concurrent use, but
// ticks and mutations are expected to come from a single goroutine; other
// goroutines only observe.
type Session struct {
	mutex     sync.RWMutex
	graph     *dag.Graph
	devices   Table
	evaluator *executor.Evaluator
	tc        *transport.Context
	queue     *midi.Queue
	last      executor.Outputs
	ticks     uint64
}

// New returns an empty session whose clocks start at `now`.
func New(now time.Time) *Session {
	g := dag.New()
	q := midi.NewQueue()
	return &Session{
		graph:     g,
		devices:   make(Table),
		evaluator: executor.New(g),
		tc:        transport.New(now, q),
		queue:     q,
		last:      make(executor.Outputs),
	}
}

// Graph exposes the circuit topology. Mutating it directly bypasses the
// connection policy of Connect.
func (s *Session) Graph() *dag.Graph {
	return s.graph
}

// AddDevice adds body to the circuit and returns its id.
func (s *Session) AddDevice(body device.Body) dag.ID {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	id := s.graph.AddVertex()
	s.devices[id] = body
	return id
}

// RemoveDevice removes a device and every wire touching it. A sounding Note
// is released first. Removing an unknown id is a no-op.
func (s *Session) RemoveDevice(id dag.ID) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	body, ok := s.devices[id]
	if !ok {
		return
	}
	if n, ok := body.(*device.Note); ok {
		n.Silence(s.queue)
	}
	s.graph.RemoveVertex(id)
	delete(s.devices, id)
	delete(s.last, id)
}

// Device returns the body behind id.
func (s *Session) Device(id dag.ID) (device.Body, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	body, ok := s.devices[id]
	return body, ok
}

// Devices returns every device id in evaluation order.
func (s *Session) Devices() []dag.ID {
	return s.graph.Vertices()
}

// CanConnect reports whether a wire from `from` to `to` is acceptable:
// both devices exist, `from` has an output, `to` accepts another input and
// the wire would not close a cycle.
func (s *Session) CanConnect(from, to dag.ID) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.canConnect(from, to) == nil
}

func (s *Session) canConnect(from, to dag.ID) error {
	src, ok := s.devices[from]
	if !ok {
		return fmt.Errorf("device %d does not exist", from)
	}
	dst, ok := s.devices[to]
	if !ok {
		return fmt.Errorf("device %d does not exist", to)
	}
	if !device.HasOutput(src) {
		return fmt.Errorf("%s device %d has no output", device.KindOf(src), from)
	}
	switch device.InputArity(dst) {
	case device.Nullary:
		return fmt.Errorf("%s device %d takes no inputs", device.KindOf(dst), to)
	case device.Unary:
		if len(s.graph.Parents(to)) > 0 {
			return fmt.Errorf("%s device %d already has an input", device.KindOf(dst), to)
		}
	}
	if s.graph.IsReachable(to, from) {
		return fmt.Errorf("device %d already reaches device %d", to, from)
	}
	return nil
}

// CheckConnect is CanConnect with the reason for a refusal.
func (s *Session) CheckConnect(from, to dag.ID) error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.canConnect(from, to)
}

// Connect adds a wire. Only the graph's own rules are enforced here; callers
// that want the full policy check CanConnect first. An illegal wire is
// logged and returned.
func (s *Session) Connect(ctx context.Context, from, to dag.ID, p dag.Polarity) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.graph.AddWire(from, to, p); err != nil {
		ctxlog.FromContext(ctx).Warn("Refused to connect devices.", "from", from, "to", to, "polarity", p, "error", err)
		return err
	}
	return nil
}

// Disconnect removes the wire from `from` to `to`, if present.
func (s *Session) Disconnect(from, to dag.ID) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.graph.RemoveWire(from, to)
}

// Update runs one tick at wall time `now` and returns the outputs.
func (s *Session) Update(ctx context.Context, now time.Time) executor.Outputs {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.tc.Begin(now)
	out := s.evaluator.Tick(ctx, s.devices, s.tc)
	s.tc.End()

	s.last = out
	s.ticks++
	return maps.Clone(out)
}

// LastOutputs returns the outputs of the most recent tick.
func (s *Session) LastOutputs() executor.Outputs {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return maps.Clone(s.last)
}

// Ticks returns the number of ticks run so far.
func (s *Session) Ticks() uint64 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.ticks
}

// Transport returns a snapshot of the tick context.
func (s *Session) Transport() transport.Context {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return *s.tc
}

// Flush drains queued MIDI events into out.
func (s *Session) Flush(ctx context.Context, out midi.Output) error {
	events := s.queue.Drain()
	if len(events) == 0 {
		return nil
	}
	if err := out.Write(ctx, events); err != nil {
		return fmt.Errorf("failed to flush midi events: %w", err)
	}
	return nil
}

// Silence queues a Note Off for every sounding Note.
func (s *Session) Silence() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for _, id := range slices.Sorted(maps.Keys(s.devices)) {
		if n, ok := s.devices[id].(*device.Note); ok {
			n.Silence(s.queue)
		}
	}
}

// Reset rewinds both clocks to zero at `now` and resets every device.
func (s *Session) Reset(now time.Time) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.tc.Rewind(now)
	for _, body := range s.devices {
		device.Reset(body)
	}
}

// TogglePause pauses or resumes the clocks and returns the new state.
func (s *Session) TogglePause() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.tc.TogglePause()
}

// SetBPM changes the tempo.
func (s *Session) SetBPM(bpm int) error {
	if bpm < 1 || bpm > 999 {
		return fmt.Errorf("bpm %d out of range 1..999", bpm)
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.tc.BPM = bpm
	return nil
}

// Describe returns the settings of a device as device.Describe reports them.
func (s *Session) Describe(id dag.ID) (map[string]any, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	body, ok := s.devices[id]
	if !ok {
		return nil, false
	}
	return device.Describe(body), true
}
