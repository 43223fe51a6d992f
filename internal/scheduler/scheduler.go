package scheduler

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/eapache/queue"
	"github.com/go-faster/errors"

	"github.com/zjrosen/remote-engine-mock/internal/log"
)

// ErrClosed is returned when deferring onto a closed scheduler.
var ErrClosed = errors.New("scheduler closed")

// ErrNotManual is returned when a manual-only operation is used on a
// scheduler that drains itself.
var ErrNotManual = errors.New("scheduler is not in manual mode")

// Task is a deferred callback.
type Task func()

// Mode selects who drains the queue.
type Mode string

const (
	// ModeAuto drains the queue on a dedicated loop goroutine.
	ModeAuto Mode = "auto"
	// ModeManual drains the queue only when the owner asks for it.
	ModeManual Mode = "manual"
)

// Scheduler is a FIFO task queue drained by a single consumer.
type Scheduler struct {
	mode Mode

	mu       sync.Mutex
	cond     *sync.Cond
	tasks    *queue.Queue // of Task
	closed   bool
	enqueued uint64
	executed uint64
	progress chan struct{}

	// serializes task execution in manual mode
	runMu sync.Mutex

	done chan struct{}
}

var (
	defaultOnce  sync.Once
	defaultSched *Scheduler
)

// Default returns the process-wide automatic scheduler. It is never closed.
func Default() *Scheduler {
	defaultOnce.Do(func() {
		defaultSched = New()
	})
	return defaultSched
}

// New creates a scheduler whose loop goroutine starts immediately.
// Close must be called to stop it.
func New() *Scheduler {
	s := newScheduler(ModeAuto)
	go s.loop()
	return s
}

// NewManual creates a scheduler that only runs tasks on RunPending,
// Drain or Flush.
func NewManual() *Scheduler {
	s := newScheduler(ModeManual)
	close(s.done)
	return s
}

// NewWithMode creates a scheduler of the given mode.
func NewWithMode(mode Mode) (*Scheduler, error) {
	switch mode {
	case ModeAuto, "":
		return New(), nil
	case ModeManual:
		return NewManual(), nil
	default:
		return nil, errors.Errorf("unknown scheduler mode %q", mode)
	}
}

func newScheduler(mode Mode) *Scheduler {
	s := &Scheduler{
		mode:     mode,
		tasks:    queue.New(),
		progress: make(chan struct{}),
		done:     make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Mode reports how the scheduler is drained.
func (s *Scheduler) Mode() Mode {
	return s.mode
}

// Defer queues task behind every task deferred before it.
func (s *Scheduler) Defer(task Task) error {
	if task == nil {
		return errors.New("nil task")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.tasks.Add(task)
	s.enqueued++
	s.cond.Signal()
	return nil
}

// Pending returns how many tasks are queued and not yet started.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks.Length()
}

// Executed returns how many tasks have finished running.
func (s *Scheduler) Executed() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.executed
}

// RunPending runs the tasks that were queued when it was called and
// returns how many ran. Tasks they defer wait for the next turn.
func (s *Scheduler) RunPending() (int, error) {
	if s.mode != ModeManual {
		return 0, ErrNotManual
	}

	s.runMu.Lock()
	defer s.runMu.Unlock()

	s.mu.Lock()
	n := s.tasks.Length()
	s.mu.Unlock()

	ran := 0
	for ; ran < n; ran++ {
		task, ok := s.pop()
		if !ok {
			break
		}
		s.run(task)
	}
	return ran, nil
}

// Drain runs turns until the queue is empty and returns how many tasks ran.
func (s *Scheduler) Drain() (int, error) {
	total := 0
	for {
		n, err := s.RunPending()
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, nil
		}
		total += n
	}
}

// Flush blocks until every task deferred before the call has run.
// In manual mode it drains the queue itself.
func (s *Scheduler) Flush(ctx context.Context) error {
	if s.mode == ModeManual {
		_, err := s.Drain()
		return err
	}

	s.mu.Lock()
	target := s.enqueued
	s.mu.Unlock()

	for {
		s.mu.Lock()
		if s.executed >= target {
			s.mu.Unlock()
			return nil
		}
		if s.closed && s.tasks.Length() == 0 {
			s.mu.Unlock()
			return ErrClosed
		}
		progress := s.progress
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-progress:
		}
	}
}

// Close stops the scheduler. Tasks still queued are discarded and later
// calls to Defer fail with ErrClosed. Close waits for a running task to
// finish and is idempotent.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return
	}
	s.closed = true
	dropped := s.tasks.Length()
	s.tasks = queue.New()
	s.cond.Broadcast()
	close(s.progress)
	s.progress = make(chan struct{})
	s.mu.Unlock()

	if dropped > 0 {
		log.Debug(log.CatSched, "Discarded queued tasks on close", "count", dropped)
	}
	<-s.done
}

func (s *Scheduler) loop() {
	defer close(s.done)
	for {
		s.mu.Lock()
		for s.tasks.Length() == 0 && !s.closed {
			s.cond.Wait()
		}
		if s.closed {
			s.mu.Unlock()
			return
		}
		task := s.tasks.Remove().(Task)
		s.mu.Unlock()

		s.run(task)
	}
}

func (s *Scheduler) pop() (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tasks.Length() == 0 {
		return nil, false
	}
	return s.tasks.Remove().(Task), true
}

func (s *Scheduler) run(task Task) {
	defer func() {
		if r := recover(); r != nil {
			log.Error(log.CatSched, "Task panic recovered",
				"panic", r,
				"stack", string(debug.Stack()))
		}

		s.mu.Lock()
		s.executed++
		close(s.progress)
		s.progress = make(chan struct{})
		s.mu.Unlock()
	}()
	task()
}
