// Package emitter implements the notification channel a connection handle
// publishes lifecycle events through. Listeners are invoked synchronously,
// in registration order, on the goroutine that calls Emit.
package emitter

import (
	"runtime/debug"
	"sync"

	"github.com/zjrosen/remote-engine-mock/internal/log"
)

// Listener receives the payload of an emitted event. Payload is nil for
// events that carry none.
type Listener func(payload any)

// Subscription identifies a registered listener so it can be removed.
type Subscription struct {
	event string
	id    uint64
}

// Event returns the event name the subscription was registered for.
func (s Subscription) Event() string {
	return s.event
}

// Source is anything listeners can be attached to.
type Source interface {
	On(event string, fn Listener) Subscription
	Once(event string, fn Listener) Subscription
	Off(sub Subscription) bool
}

type entry struct {
	id   uint64
	fn   Listener
	once bool
}

// Emitter is a synchronous, string-keyed event emitter.
// The zero value is ready to use.
type Emitter struct {
	mu        sync.Mutex
	nextID    uint64
	listeners map[string][]entry
}

// New creates an empty emitter.
func New() *Emitter {
	return &Emitter{}
}

// On registers fn for every emission of event.
func (e *Emitter) On(event string, fn Listener) Subscription {
	return e.add(event, fn, false)
}

// Once registers fn for the next emission of event only.
func (e *Emitter) Once(event string, fn Listener) Subscription {
	return e.add(event, fn, true)
}

func (e *Emitter) add(event string, fn Listener, once bool) Subscription {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.listeners == nil {
		e.listeners = make(map[string][]entry)
	}
	e.nextID++
	e.listeners[event] = append(e.listeners[event], entry{id: e.nextID, fn: fn, once: once})
	return Subscription{event: event, id: e.nextID}
}

// Off removes a listener. Returns false if it was already gone.
func (e *Emitter) Off(sub Subscription) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.removeLocked(sub.event, sub.id)
}

func (e *Emitter) removeLocked(event string, id uint64) bool {
	list := e.listeners[event]
	for i, l := range list {
		if l.id != id {
			continue
		}
		next := make([]entry, 0, len(list)-1)
		next = append(next, list[:i]...)
		next = append(next, list[i+1:]...)
		if len(next) == 0 {
			delete(e.listeners, event)
		} else {
			e.listeners[event] = next
		}
		return true
	}
	return false
}

// RemoveAll drops every listener of the given events, or of all events
// when none are named.
func (e *Emitter) RemoveAll(events ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(events) == 0 {
		e.listeners = nil
		return
	}
	for _, ev := range events {
		delete(e.listeners, ev)
	}
}

// ListenerCount returns how many listeners are registered for event.
func (e *Emitter) ListenerCount(event string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners[event])
}

// Emit calls every listener registered for event with payload and
// reports whether there was at least one. Once-listeners are removed
// before they run, so re-entrant emits do not call them twice.
// A panicking listener is logged and does not stop the others.
func (e *Emitter) Emit(event string, payload any) bool {
	e.mu.Lock()
	list := e.listeners[event]
	snapshot := make([]entry, len(list))
	copy(snapshot, list)
	for _, l := range snapshot {
		if l.once {
			e.removeLocked(event, l.id)
		}
	}
	e.mu.Unlock()

	for _, l := range snapshot {
		call(event, l.fn, payload)
	}
	return len(snapshot) > 0
}

func call(event string, fn Listener, payload any) {
	defer func() {
		if r := recover(); r != nil {
			log.Error(log.CatConn, "Listener panic recovered",
				"event", event,
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	fn(payload)
}
