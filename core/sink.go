package core

import "sync"

// EventSink is the append-only notification channel between the engine and
// the surrounding UI layer. No acknowledgment or backpressure signal flows
// back; implementations must not block the emitting component indefinitely.
type EventSink interface {
	Emit(Event)
}

// ChannelSink forwards events to a Go channel. Sends are non-blocking: if
// the channel buffer is full the event is dropped, keeping the engine from
// stalling on a slow consumer.
type ChannelSink struct {
	ch chan Event
}

// NewChannelSink creates a sink backed by a buffered channel.
func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{ch: make(chan Event, buffer)}
}

// Emit implements EventSink.
func (s *ChannelSink) Emit(ev Event) {
	select {
	case s.ch <- ev:
	default:
	}
}

// Events exposes the receive side of the sink.
func (s *ChannelSink) Events() <-chan Event { return s.ch }

// Close closes the underlying channel. Call only after all emitters are done.
func (s *ChannelSink) Close() { close(s.ch) }

// CollectorSink accumulates events in memory. Intended for tests and
// synchronous request/response callers that inspect the full record set
// after completion.
type CollectorSink struct {
	mu     sync.Mutex
	events []Event
}

// NewCollectorSink creates an empty collector.
func NewCollectorSink() *CollectorSink { return &CollectorSink{} }

// Emit implements EventSink.
func (s *CollectorSink) Emit(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

// Events returns a copy of all collected events in emission order.
func (s *CollectorSink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// Messages returns the assistant messages collected so far, in order.
func (s *CollectorSink) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	var msgs []Message
	for _, ev := range s.events {
		if ev.Type == EventAssistantMessage && ev.Message != nil {
			msgs = append(msgs, *ev.Message)
		}
	}
	return msgs
}
