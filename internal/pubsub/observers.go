package pubsub

import (
	"slices"
	"sync"
	"time"
)

// Observers is a synchronous fan-out. Notify calls every callback on the
// caller's goroutine before returning, so no event is ever dropped.
// Callbacks run without the observer lock held and may subscribe or
// unsubscribe.
type Observers[T any] struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]func(Event[T])
	closed bool
}

// NewObservers creates an empty observer list.
func NewObservers[T any]() *Observers[T] {
	return &Observers[T]{subs: make(map[uint64]func(Event[T]))}
}

// Subscribe registers fn and returns a func that removes it. After Close,
// fn is never called and the returned func is a no-op.
func (o *Observers[T]) Subscribe(fn func(Event[T])) (unsubscribe func()) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return func() {}
	}
	o.nextID++
	id := o.nextID
	o.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.subs, id)
			o.mu.Unlock()
		})
	}
}

// Notify delivers the event to every subscriber in subscription order and
// returns how many were called.
func (o *Observers[T]) Notify(eventType EventType, payload T) int {
	o.mu.RLock()
	if o.closed {
		o.mu.RUnlock()
		return 0
	}
	ids := make([]uint64, 0, len(o.subs))
	for id := range o.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(Event[T]), len(ids))
	for i, id := range ids {
		fns[i] = o.subs[id]
	}
	o.mu.RUnlock()

	ev := Event[T]{Type: eventType, Payload: payload, Timestamp: time.Now()}
	for _, fn := range fns {
		fn(ev)
	}
	return len(fns)
}

// SubscriberCount returns the number of registered callbacks.
func (o *Observers[T]) SubscriberCount() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.subs)
}

// Close drops every subscriber. Later Notify calls deliver nothing.
func (o *Observers[T]) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	o.subs = make(map[uint64]func(Event[T]))
}
