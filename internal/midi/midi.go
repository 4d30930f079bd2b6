// Package midi models the channel voice messages emitted by Note devices, the
// queue that collects them during a tick, and the outputs they are flushed to.
package midi

import (
	"fmt"
	"sync"
)

// Message is the kind of a channel voice message.
type Message uint8

const (
	NoteOff Message = 0x80
	NoteOn  Message = 0x90
)

// String returns the conventional name of the message.
func (m Message) String() string {
	switch m {
	case NoteOn:
		return "note_on"
	case NoteOff:
		return "note_off"
	default:
		return fmt.Sprintf("Message(%#x)", uint8(m))
	}
}

// Event is a single channel voice message.
type Event struct {
	Channel  uint8
	Message  Message
	Key      uint8
	Velocity uint8
}

// Bytes encodes the event as a three byte live MIDI message. Out of range
// fields are masked into range.
func (e Event) Bytes() []byte {
	return []byte{
		byte(e.Message) | (e.Channel & 0x0f),
		e.Key & 0x7f,
		e.Velocity & 0x7f,
	}
}

// String renders the event for logs.
func (e Event) String() string {
	return fmt.Sprintf("%s ch=%d key=%d vel=%d", e.Message, e.Channel, e.Key, e.Velocity)
}

// Sender accepts events produced during evaluation.
type Sender interface {
	Send(e Event)
}

// Queue is a FIFO of pending events. It is safe for concurrent use.
type Queue struct {
	mu     sync.Mutex
	events []Event
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Send appends e to the queue.
func (q *Queue) Send(e Event) {
	q.mu.Lock()
	q.events = append(q.events, e)
	q.mu.Unlock()
}

// Drain removes and returns every queued event in arrival order.
func (q *Queue) Drain() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	events := q.events
	q.events = nil
	return events
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}
