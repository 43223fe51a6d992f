package engine

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Worker is a fake media worker.
type Worker struct {
	id        string
	pid       int
	logLevel  string
	appData   map[string]any
	createdAt time.Time

	mu         sync.RWMutex
	closed     bool
	done       chan struct{}
	closeHooks []func()
}

// NewWorker creates an open worker from settings.
func NewWorker(settings WorkerSettings) *Worker {
	pid := settings.PID
	if pid == 0 {
		pid = currentPID()
	}
	return &Worker{
		id:        uuid.New().String(),
		pid:       pid,
		logLevel:  settings.LogLevel,
		appData:   settings.AppData,
		createdAt: time.Now(),
		done:      make(chan struct{}),
	}
}

// ID returns the worker's unique identifier.
func (w *Worker) ID() string {
	return w.id
}

// PID returns the process id the worker reports.
func (w *Worker) PID() int {
	return w.pid
}

// LogLevel returns the configured log level.
func (w *Worker) LogLevel() string {
	return w.logLevel
}

// AppData returns the caller data supplied at creation.
func (w *Worker) AppData() map[string]any {
	return w.appData
}

// CreatedAt returns the creation time.
func (w *Worker) CreatedAt() time.Time {
	return w.createdAt
}

// Done returns a channel that's closed when the worker closes.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// Closed reports whether Close has been called.
func (w *Worker) Closed() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.closed
}

// Close closes the worker and runs its close hooks on the calling
// goroutine. Safe to call multiple times.
func (w *Worker) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	close(w.done)
	hooks := w.closeHooks
	w.closeHooks = nil
	w.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}

// onClose registers fn to run when the worker closes. It runs immediately
// when the worker is already closed.
func (w *Worker) onClose(fn func()) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		fn()
		return
	}
	w.closeHooks = append(w.closeHooks, fn)
	w.mu.Unlock()
}
