// Package workers tracks the process ids of the workers announced on an
// engine feed. A Registry belongs to one connection handle: it is attached to
// the feed when the handle is built and detached when the handle is destroyed.
package workers

import (
	"slices"
	"sync"

	"github.com/go-faster/errors"

	"github.com/zjrosen/remote-engine-mock/internal/engine"
	"github.com/zjrosen/remote-engine-mock/internal/log"
	"github.com/zjrosen/remote-engine-mock/internal/pubsub"
)

var (
	// ErrAttached is returned when Attach is called on an attached registry.
	ErrAttached = errors.New("registry already attached")
	// ErrDetached is returned when Attach is called after Detach.
	ErrDetached = errors.New("registry detached")
)

// Registry is an ordered set of worker process ids.
// Ids are kept in discovery order. Several live workers may report the same
// pid; the pid stays tracked until the last of them closes.
type Registry struct {
	mu          sync.Mutex
	ids         []int
	live        map[int]map[string]struct{} // pid -> open worker ids
	unsubscribe func()
	detached    bool
	onChange    func(n int)
}

// Option configures a Registry.
type Option func(*Registry)

// WithOnChange installs a callback invoked with the tracked count after every
// addition or removal. It runs with the registry lock held and must not call
// back into the registry.
func WithOnChange(fn func(n int)) Option {
	return func(r *Registry) {
		r.onChange = fn
	}
}

// New creates a detached registry.
func New(opts ...Option) *Registry {
	r := &Registry{live: make(map[int]map[string]struct{})}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Attach subscribes the registry to feed. Workers announced from then on are
// tracked before the announcing call returns.
func (r *Registry) Attach(feed *engine.Feed) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.detached {
		return ErrDetached
	}
	if r.unsubscribe != nil {
		return ErrAttached
	}
	r.unsubscribe = feed.Subscribe(r.handle)
	return nil
}

// Detach unsubscribes from the feed. The registry is frozen afterwards.
// Safe to call multiple times.
func (r *Registry) Detach() {
	r.mu.Lock()
	if r.detached {
		r.mu.Unlock()
		return
	}
	r.detached = true
	unsubscribe := r.unsubscribe
	n := len(r.ids)
	r.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	log.Debug(log.CatWorker, "Registry detached", "tracked", n)
}

// IDs returns the tracked process ids in discovery order.
func (r *Registry) IDs() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.ids)
}

// Len returns the number of tracked ids.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ids)
}

func (r *Registry) handle(ev pubsub.Event[engine.WorkerEvent]) {
	w := ev.Payload.Worker
	if w == nil {
		return
	}
	switch ev.Type {
	case engine.WorkerSpawned:
		r.track(w)
	case engine.WorkerClosed:
		r.untrack(w)
	}
}

func (r *Registry) track(w *engine.Worker) {
	pid := w.PID()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.detached {
		return
	}

	workers, known := r.live[pid]
	if !known {
		workers = make(map[string]struct{})
		r.live[pid] = workers
	}
	if _, dup := workers[w.ID()]; dup {
		return
	}
	workers[w.ID()] = struct{}{}
	if known {
		return
	}

	r.ids = append(r.ids, pid)
	log.Debug(log.CatWorker, "Worker tracked", "worker", w.ID(), "pid", pid)
	r.changed(len(r.ids))
}

func (r *Registry) untrack(w *engine.Worker) {
	pid := w.PID()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.detached {
		return
	}

	workers, ok := r.live[pid]
	if !ok {
		return
	}
	delete(workers, w.ID())
	if len(workers) > 0 {
		return
	}
	delete(r.live, pid)
	if i := slices.Index(r.ids, pid); i >= 0 {
		r.ids = slices.Delete(r.ids, i, i+1)
	}
	log.Debug(log.CatWorker, "Worker untracked", "pid", pid)
	r.changed(len(r.ids))
}

func (r *Registry) changed(n int) {
	if r.onChange != nil {
		r.onChange(n)
	}
}
