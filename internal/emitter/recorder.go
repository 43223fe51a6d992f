package emitter

import (
	"context"
	"sync"
)

// Record is a single observed emission.
type Record struct {
	Event   string
	Payload any
}

// Recorder attaches to a Source and keeps every emission of the watched
// events in the order they were observed. It is meant for test suites
// asserting on event order.
type Recorder struct {
	mu      sync.Mutex
	records []Record
	changed chan struct{}
	source  Source
	subs    []Subscription
}

// NewRecorder starts recording the named events on src.
func NewRecorder(src Source, events ...string) *Recorder {
	r := &Recorder{
		changed: make(chan struct{}),
		source:  src,
	}
	for _, ev := range events {
		name := ev
		r.subs = append(r.subs, src.On(name, func(payload any) {
			r.add(Record{Event: name, Payload: payload})
		}))
	}
	return r
}

func (r *Recorder) add(rec Record) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = append(r.records, rec)
	close(r.changed)
	r.changed = make(chan struct{})
}

// Records returns a copy of everything recorded so far.
func (r *Recorder) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}

// Names returns the recorded event names in order.
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.records))
	for i, rec := range r.records {
		out[i] = rec.Event
	}
	return out
}

// Count returns how many times event was recorded.
func (r *Recorder) Count(event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, rec := range r.records {
		if rec.Event == event {
			n++
		}
	}
	return n
}

// Reset forgets everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = nil
}

// WaitFor blocks until event has been recorded at least n times or ctx ends.
func (r *Recorder) WaitFor(ctx context.Context, event string, n int) error {
	for {
		r.mu.Lock()
		count := 0
		for _, rec := range r.records {
			if rec.Event == event {
				count++
			}
		}
		changed := r.changed
		r.mu.Unlock()

		if count >= n {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
		}
	}
}

// Stop detaches the recorder from its source.
func (r *Recorder) Stop() {
	for _, sub := range r.subs {
		r.source.Off(sub)
	}
	r.subs = nil
}
