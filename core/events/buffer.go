package events

// Buffer holds the events raised while a transaction executes. The hub
// flushes it after a successful commit and discards it when the
// transaction is rejected, so subscribers never observe reverted effects.
type Buffer struct {
	pending []Event
}

// Emit implements the Emitter interface.
func (b *Buffer) Emit(evt Event) {
	if evt == nil {
		return
	}
	b.pending = append(b.pending, evt)
}

// Len reports the number of buffered events.
func (b *Buffer) Len() int { return len(b.pending) }

// Events returns a copy of the buffered events.
func (b *Buffer) Events() []Event {
	return append([]Event(nil), b.pending...)
}

// Flush forwards every buffered event to dst in emission order and clears
// the buffer.
func (b *Buffer) Flush(dst Emitter) []Event {
	flushed := b.pending
	b.pending = nil
	if dst == nil {
		return flushed
	}
	for _, evt := range flushed {
		dst.Emit(evt)
	}
	return flushed
}

// Discard drops every buffered event.
func (b *Buffer) Discard() {
	b.pending = nil
}
