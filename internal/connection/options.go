package connection

import (
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/remote-engine-mock/internal/emitter"
	"github.com/zjrosen/remote-engine-mock/internal/engine"
	"github.com/zjrosen/remote-engine-mock/internal/metrics"
	"github.com/zjrosen/remote-engine-mock/internal/scheduler"
	"github.com/zjrosen/remote-engine-mock/internal/stats"
	"github.com/zjrosen/remote-engine-mock/internal/tracing"
)

// Option configures a Handle.
type Option func(*Handle)

// WithScheduler sets the scheduler deferred notifications run on.
// Defaults to scheduler.Default().
func WithScheduler(s *scheduler.Scheduler) Option {
	return func(h *Handle) {
		if s != nil {
			h.sched = s
		}
	}
}

// WithFeed sets the worker feed the registry attaches to and the engine
// announces on. Defaults to engine.DefaultFeed().
func WithFeed(f *engine.Feed) Option {
	return func(h *Handle) {
		if f != nil {
			h.feed = f
		}
	}
}

// WithEngineFactory sets how the engine capability is built on connect.
// Defaults to engine.FakeFactory.
func WithEngineFactory(f engine.Factory) Option {
	return func(h *Handle) {
		if f != nil {
			h.factory = f
		}
	}
}

// WithTracer records handle operations as spans.
func WithTracer(t trace.Tracer) Option {
	return func(h *Handle) {
		if t != nil {
			h.tracer = t
		}
	}
}

// WithMetrics records lifecycle counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handle) {
		h.metrics = m
	}
}

// WithStats configures the diagnostics aggregator built on connect.
func WithStats(opts ...stats.Option) Option {
	return func(h *Handle) {
		h.statsOpts = append(h.statsOpts, opts...)
	}
}

// WithListener registers fn for event before New opens the handle, so no
// notification can be missed when New is given an address.
func WithListener(event string, fn emitter.Listener) Option {
	return func(h *Handle) {
		h.emitter.On(event, fn)
	}
}

func defaults(h *Handle) {
	h.sched = scheduler.Default()
	h.feed = engine.DefaultFeed()
	h.factory = engine.FakeFactory
	h.tracer = tracing.Noop()
}
