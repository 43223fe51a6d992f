package engine

import (
	"context"
	"slices"
	"sync"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// ErrEngineClosed is returned by CreateWorker after Close.
var ErrEngineClosed = errors.New("engine closed")

// Fake is an in-memory Engine.
// CreateWorkerFunc can override worker creation in tests.
type Fake struct {
	// CreateWorkerFunc is called when CreateWorker is invoked.
	// If nil, a new Worker is built from the settings.
	CreateWorkerFunc func(ctx context.Context, settings WorkerSettings) (*Worker, error)

	id   string
	feed *Feed

	mu          sync.RWMutex
	workers     []*Worker
	createCount int
	closed      bool
}

// NewFake creates a fake engine announcing its workers on feed.
// A nil feed means the process-wide DefaultFeed.
func NewFake(feed *Feed) *Fake {
	if feed == nil {
		feed = DefaultFeed()
	}
	return &Fake{
		id:   uuid.New().String(),
		feed: feed,
	}
}

// FakeFactory is the default Factory.
func FakeFactory(feed *Feed) Engine {
	return NewFake(feed)
}

// ID returns the engine identifier.
func (f *Fake) ID() string {
	return f.id
}

// CreateWorker creates a worker and announces it on the feed.
func (f *Fake) CreateWorker(ctx context.Context, settings WorkerSettings) (*Worker, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "create worker")
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil, ErrEngineClosed
	}
	f.createCount++
	create := f.CreateWorkerFunc
	f.mu.Unlock()

	var (
		w   *Worker
		err error
	)
	if create != nil {
		w, err = create(ctx, settings)
		if err != nil {
			return nil, err
		}
	} else {
		w = NewWorker(settings)
	}

	f.mu.Lock()
	f.workers = append(f.workers, w)
	f.mu.Unlock()

	f.feed.Announce(w)
	return w, nil
}

// Workers returns the open workers in creation order.
func (f *Fake) Workers() []*Worker {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return slices.DeleteFunc(slices.Clone(f.workers), func(w *Worker) bool {
		return w.Closed()
	})
}

// CreateCount returns how many times CreateWorker was called.
func (f *Fake) CreateCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.createCount
}

// Closed reports whether Close has been called.
func (f *Fake) Closed() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.closed
}

// Close closes every worker. Further CreateWorker calls fail.
func (f *Fake) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	workers := f.workers
	f.workers = nil
	f.mu.Unlock()

	for _, w := range workers {
		w.Close()
	}
}
