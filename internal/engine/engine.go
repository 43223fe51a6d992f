package engine

import "context"

// Engine is the capability exposed once a handle is connected.
type Engine interface {
	// ID identifies the engine instance.
	ID() string
	// CreateWorker starts a worker and announces it on the engine's feed.
	CreateWorker(ctx context.Context, settings WorkerSettings) (*Worker, error)
	// Workers returns the workers created by this engine that are still open.
	Workers() []*Worker
	// Close closes every open worker.
	Close()
}

// WorkerSettings configures a new worker.
type WorkerSettings struct {
	// PID is the process id reported by the worker. Zero means the current
	// process.
	PID int
	// LogLevel is recorded on the worker and otherwise unused.
	LogLevel string
	// AppData is opaque caller data carried by the worker.
	AppData map[string]any
}

// Factory builds the engine capability for a connecting handle.
type Factory func(feed *Feed) Engine
