// Package event implements the routing fabric between sound graph nodes:
// input events (callback sinks), output events (ordered fan-out), and
// atomic dirty flags for cross-thread signaling.
//
// Connecting and disconnecting events are graph-build operations. Invoking
// an event is synchronous in the calling goroutine; callbacks invoked from
// the audio thread must be O(1), allocation-free, and non-blocking.
package event

import (
	"sync/atomic"

	"github.com/cwbudde/algo-soundgraph/value"
)

// Flag is a set-once, consume-once boolean with acquire/release semantics.
// It is the sanctioned cross-thread signal: any goroutine may set it, the
// audio thread consumes it. Multiple sets before a consume coalesce.
type Flag struct {
	dirty atomic.Bool
}

// SetDirty marks the flag.
func (f *Flag) SetDirty() { f.dirty.Store(true) }

// IsDirty reports the flag without consuming it.
func (f *Flag) IsDirty() bool { return f.dirty.Load() }

// CheckAndResetIfDirty atomically consumes the flag, returning its
// previous state. This is the canonical consumer.
func (f *Flag) CheckAndResetIfDirty() bool { return f.dirty.Swap(false) }

// Callback receives an event payload.
type Callback func(value.Value)

// InputEvent is a named callback sink owned by its receiving node.
type InputEvent struct {
	cb Callback
}

// NewInput returns an input event delivering to cb. A nil callback yields
// an event that swallows payloads.
func NewInput(cb Callback) *InputEvent {
	return &InputEvent{cb: cb}
}

// Invoke delivers the payload synchronously.
func (e *InputEvent) Invoke(payload value.Value) {
	if e == nil || e.cb == nil {
		return
	}

	e.cb(payload)
}

// OutputEvent fans a payload out to connected input events in registration
// order. The sink list is mutated only at graph-build time; a sink that
// mutates the list during Invoke violates the contract.
type OutputEvent struct {
	sinks []*InputEvent
}

// NewOutput returns an output event with no sinks.
func NewOutput() *OutputEvent {
	return &OutputEvent{}
}

// Connect appends a sink unless it is already connected.
func (e *OutputEvent) Connect(in *InputEvent) {
	if in == nil {
		return
	}

	for _, s := range e.sinks {
		if s == in {
			return
		}
	}

	e.sinks = append(e.sinks, in)
}

// Disconnect removes the first matching sink.
func (e *OutputEvent) Disconnect(in *InputEvent) {
	for i, s := range e.sinks {
		if s == in {
			e.sinks = append(e.sinks[:i], e.sinks[i+1:]...)
			return
		}
	}
}

// DisconnectAll removes every sink.
func (e *OutputEvent) DisconnectAll() {
	e.sinks = e.sinks[:0]
}

// NumSinks returns the number of connected sinks.
func (e *OutputEvent) NumSinks() int { return len(e.sinks) }

// Invoke delivers the payload to each sink exactly once, in registration
// order.
func (e *OutputEvent) Invoke(payload value.Value) {
	if e == nil {
		return
	}

	for _, s := range e.sinks {
		s.Invoke(payload)
	}
}
