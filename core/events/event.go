package events

import "graphhub/core/types"

// Event represents a structured state change emitted by the hub.
type Event interface {
	EventType() string
}

// Convertible is implemented by events that can render themselves into the
// generic attribute form consumed by RPC subscribers.
type Convertible interface {
	Event() *types.Event
}

// Emitter broadcasts events to downstream subscribers (e.g. RPC, indexers).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter is a helper that satisfies the Emitter interface while discarding
// all events. It is useful when a component wants to optionally expose events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// ToTyped converts evt into its generic representation. Events without an
// attribute form are reported by type only.
func ToTyped(evt Event) *types.Event {
	if evt == nil {
		return nil
	}
	if c, ok := evt.(Convertible); ok {
		if out := c.Event(); out != nil {
			return out
		}
	}
	return &types.Event{Type: evt.EventType(), Attributes: map[string]string{}}
}
