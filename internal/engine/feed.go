package engine

import (
	"os"
	"sync"

	"github.com/zjrosen/remote-engine-mock/internal/log"
	"github.com/zjrosen/remote-engine-mock/internal/pubsub"
)

const (
	// WorkerSpawned is published when a worker is announced.
	WorkerSpawned = pubsub.CreatedEvent
	// WorkerClosed is published when an announced worker closes.
	WorkerClosed = pubsub.ClosedEvent
)

// WorkerEvent is the payload published on the feed.
type WorkerEvent struct {
	Worker *Worker
}

// Feed announces worker creation and closure to every attached registry.
// Delivery is synchronous: when Announce or Worker.Close returns, every
// subscriber has seen the event.
type Feed struct {
	observers *pubsub.Observers[WorkerEvent]
}

var (
	defaultFeed     *Feed
	defaultFeedOnce sync.Once
)

// DefaultFeed returns the process-wide feed. It is never closed.
func DefaultFeed() *Feed {
	defaultFeedOnce.Do(func() {
		defaultFeed = NewFeed()
	})
	return defaultFeed
}

// NewFeed creates an isolated feed.
func NewFeed() *Feed {
	return &Feed{observers: pubsub.NewObservers[WorkerEvent]()}
}

// Subscribe registers fn for every worker event and returns a func that
// removes it.
func (f *Feed) Subscribe(fn func(pubsub.Event[WorkerEvent])) (unsubscribe func()) {
	return f.observers.Subscribe(fn)
}

// Announce publishes WorkerSpawned for w, and WorkerClosed once w closes.
func (f *Feed) Announce(w *Worker) {
	n := f.observers.Notify(WorkerSpawned, WorkerEvent{Worker: w})
	log.Debug(log.CatWorker, "Worker announced", "worker", w.ID(), "pid", w.PID(), "subscribers", n)

	w.onClose(func() {
		f.observers.Notify(WorkerClosed, WorkerEvent{Worker: w})
		log.Debug(log.CatWorker, "Worker closed", "worker", w.ID(), "pid", w.PID())
	})
}

// SubscriberCount returns the number of attached subscribers.
func (f *Feed) SubscriberCount() int {
	return f.observers.SubscriberCount()
}

// Close detaches every subscriber.
func (f *Feed) Close() {
	f.observers.Close()
}

func currentPID() int {
	return os.Getpid()
}
