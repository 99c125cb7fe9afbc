package events

import "sync"

const defaultSubscriberBuffer = 128

// Feed fans committed events out to any number of subscribers. Slow
// subscribers lose events rather than stalling the hub.
type Feed struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
}

// NewFeed constructs an empty feed.
func NewFeed() *Feed {
	return &Feed{subs: make(map[int]chan Event)}
}

// Emit implements the Emitter interface.
func (f *Feed) Emit(evt Event) {
	if f == nil || evt == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}

// Subscribe registers a subscriber and returns its channel together with a
// cancel function that must be called to release it.
func (f *Feed) Subscribe() (<-chan Event, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	ch := make(chan Event, defaultSubscriberBuffer)
	f.subs[id] = ch
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			delete(f.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

// Subscribers reports the number of active subscriptions.
func (f *Feed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
