package connection

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/remote-engine-mock/internal/emitter"
	"github.com/zjrosen/remote-engine-mock/internal/engine"
	"github.com/zjrosen/remote-engine-mock/internal/log"
	"github.com/zjrosen/remote-engine-mock/internal/metrics"
	"github.com/zjrosen/remote-engine-mock/internal/scheduler"
	"github.com/zjrosen/remote-engine-mock/internal/stats"
	"github.com/zjrosen/remote-engine-mock/internal/tracing"
	"github.com/zjrosen/remote-engine-mock/internal/workers"
)

// Handle is a mock remote engine connection.
// Listeners are always called without the handle's lock held, so they may
// call back into the handle.
type Handle struct {
	id      string
	emitter *emitter.Emitter

	sched     *scheduler.Scheduler
	feed      *engine.Feed
	factory   engine.Factory
	tracer    trace.Tracer
	metrics   *metrics.Metrics
	statsOpts []stats.Option

	registry *workers.Registry
	tracked  int // last registry size reported to metrics
	trackMu  sync.Mutex

	mu         sync.Mutex
	state      State
	address    string
	generation uint64
	aggregator *stats.Aggregator
}

// New creates a handle attached to the worker feed. A non-empty address
// opens it immediately. With an automatic scheduler the deferred
// notifications may start before New returns; register listeners through
// WithListener, or construct closed and call Open after On.
func New(address string, opts ...Option) (*Handle, error) {
	h := &Handle{
		id:      uuid.New().String(),
		emitter: emitter.New(),
		state:   StateClosed{},
	}
	defaults(h)
	for _, opt := range opts {
		opt(h)
	}

	h.registry = workers.New(workers.WithOnChange(h.trackedChanged))
	if err := h.registry.Attach(h.feed); err != nil {
		return nil, errors.Wrap(err, "attach worker registry")
	}
	log.Debug(log.CatConn, "Handle created", "handle", h.id, "address", address)

	if address != "" {
		if _, err := h.Open(address); err != nil {
			h.registry.Detach()
			return nil, err
		}
	}
	return h, nil
}

// ID returns the handle identifier used in logs, spans and metrics.
func (h *Handle) ID() string {
	return h.id
}

// Address returns the last address passed to Open.
func (h *Handle) Address() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.address
}

// State returns the current internal state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// ReadyState returns Connected while the engine is held, Closed when closed
// and Open while connecting.
func (h *Handle) ReadyState() (ReadyState, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rs, ok := readyState(h.state)
	if !ok {
		return 0, invalidState("handle destroyed")
	}
	return rs, nil
}

// Engine returns the engine capability, or nil when not connected.
func (h *Handle) Engine() engine.Engine {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.state.(StateConnected); ok {
		return c.Engine
	}
	return nil
}

// TrackedWorkers returns the pids of live workers seen on the feed, in the
// order they were first announced.
func (h *Handle) TrackedWorkers() []int {
	return h.registry.IDs()
}

// On registers fn for event.
func (h *Handle) On(event string, fn emitter.Listener) emitter.Subscription {
	return h.emitter.On(event, fn)
}

// Once registers fn for the next emission of event.
func (h *Handle) Once(event string, fn emitter.Listener) emitter.Subscription {
	return h.emitter.Once(event, fn)
}

// Off removes a listener.
func (h *Handle) Off(sub emitter.Subscription) bool {
	return h.emitter.Off(sub)
}

// Open starts connecting to address, or to the stored address when none is
// given. It defers the open, transportOpen and connected notifications and
// returns the handle for chaining.
func (h *Handle) Open(address ...string) (_ *Handle, err error) {
	_, span := tracing.Start(context.Background(), h.tracer, tracing.SpanOpen, h.id, firstOr(address, ""))
	defer func() { tracing.End(span, err) }()

	if len(address) > 1 {
		return nil, invalidArgument("at most one address")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	switch h.state.(type) {
	case StateDestroyed:
		return nil, invalidState("handle destroyed")
	case StateClosed:
	default:
		return nil, invalidState("already open(ing)")
	}

	addr := firstOr(address, h.address)
	if addr == "" {
		return nil, invalidArgument("address not defined")
	}

	prevAddr := h.address
	h.state = StateConnecting{}
	h.address = addr
	h.generation++
	gen := h.generation

	for _, event := range []string{EventOpen, EventTransportOpen, EventConnected} {
		if err := h.sched.Defer(h.step(gen, event)); err != nil {
			// Tasks already queued for gen see StateClosed and are dropped.
			h.state = StateClosed{}
			h.address = prevAddr
			return nil, errors.Wrap(err, "schedule "+event)
		}
	}

	span.SetAttributes(
		attribute.String(tracing.AttrAddress, addr),
		attribute.Int64(tracing.AttrGeneration, int64(gen)),
	)
	span.AddEvent(tracing.EventScheduled)
	h.metrics.Opened()
	log.Debug(log.CatConn, "Opening", "handle", h.id, "address", addr, "generation", gen)
	return h, nil
}

// step builds the deferred task that emits event for the Open call gen.
func (h *Handle) step(gen uint64, event string) scheduler.Task {
	return func() {
		h.mu.Lock()
		if _, connecting := h.state.(StateConnecting); !connecting || h.generation != gen {
			state := h.state.String()
			h.mu.Unlock()
			log.Debug(log.CatConn, "Discarded stale task", "handle", h.id, "event", event, "generation", gen, "state", state)
			return
		}

		var eng engine.Engine
		if event == EventConnected {
			eng = h.factory(h.feed)
			h.state = StateConnected{Engine: eng}
			h.aggregator = stats.NewAggregator(h.statsOpts...)
		}
		h.mu.Unlock()

		h.emit(event, nil)
		if eng != nil && h.holds(gen) {
			h.emit(EventEngine, eng)
		}
	}
}

// holds reports whether the engine granted by Open call gen is still held.
// A connected listener may have closed the handle already.
func (h *Handle) holds(gen uint64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, connected := h.state.(StateConnected)
	return connected && h.generation == gen
}

// Close closes the handle. It is a no-op when already closed.
func (h *Handle) Close() (err error) {
	_, span := tracing.Start(context.Background(), h.tracer, tracing.SpanClose, h.id, h.Address())
	defer func() { tracing.End(span, err) }()

	h.mu.Lock()
	closed, hadEngine, err := h.closeLocked()
	h.mu.Unlock()
	if err != nil || !closed {
		return err
	}

	if hadEngine {
		h.emit(EventEngine, nil)
	}
	h.emit(EventClose, nil)
	return nil
}

// closeLocked moves to StateClosed and releases the aggregator. It reports
// whether anything changed and whether an engine was dropped.
func (h *Handle) closeLocked() (closed, hadEngine bool, err error) {
	switch h.state.(type) {
	case StateDestroyed:
		return false, false, invalidState("handle destroyed")
	case StateClosed:
		return false, false, nil
	case StateConnected:
		hadEngine = true
	}

	h.state = StateClosed{}
	if h.aggregator != nil {
		h.aggregator.Release()
		h.aggregator = nil
	}
	h.metrics.Closed()
	log.Debug(log.CatConn, "Closed", "handle", h.id, "address", h.address)
	return true, hadEngine, nil
}

// Destroy closes the handle, detaches its worker registry and makes it
// unusable. A second call fails with ErrInvalidState.
func (h *Handle) Destroy() (err error) {
	_, span := tracing.Start(context.Background(), h.tracer, tracing.SpanDestroy, h.id, h.Address())
	defer func() { tracing.End(span, err) }()

	h.mu.Lock()
	closed, hadEngine, err := h.closeLocked()
	if err != nil {
		h.mu.Unlock()
		return err
	}
	h.state = StateDestroyed{}
	h.mu.Unlock()

	if closed {
		if hadEngine {
			h.emit(EventEngine, nil)
		}
		h.emit(EventClose, nil)
	}

	h.registry.Detach()
	h.trackedChanged(0)
	h.metrics.Destroyed()
	log.Debug(log.CatConn, "Destroyed", "handle", h.id)
	return nil
}

// GetStats samples diagnostics. It fails with ErrInvalidState unless the
// handle is connected.
func (h *Handle) GetStats(ctx context.Context) (_ *stats.Snapshot, err error) {
	start := time.Now()
	ctx, span := tracing.Start(ctx, h.tracer, tracing.SpanGetStats, h.id, h.Address())
	defer func() { tracing.End(span, err) }()

	h.mu.Lock()
	agg := h.aggregator
	var stateErr error
	switch h.state.(type) {
	case StateDestroyed:
		stateErr = invalidState("handle destroyed")
	case StateConnected:
	default:
		stateErr = invalidState("not connected")
	}
	h.mu.Unlock()

	if stateErr != nil {
		h.metrics.StatsRequested(metrics.ResultNotConnected, 0)
		return nil, stateErr
	}

	ids := h.registry.IDs()
	span.SetAttributes(attribute.Int(tracing.AttrWorkerCount, len(ids)))

	snap, err := agg.Snapshot(ctx, ids)
	if err != nil {
		h.metrics.StatsRequested(metrics.ResultError, 0)
		log.ErrorErr(log.CatStats, "Stats sampling failed", err, "handle", h.id)
		return nil, err
	}
	h.metrics.StatsRequested(metrics.ResultOK, time.Since(start))
	return snap, nil
}

func (h *Handle) emit(event string, payload any) {
	h.metrics.Emitted(event)
	log.Debug(log.CatConn, "Emit", "handle", h.id, "event", event)
	h.emitter.Emit(event, payload)
}

// trackedChanged moves the tracked worker gauge to n.
func (h *Handle) trackedChanged(n int) {
	h.trackMu.Lock()
	defer h.trackMu.Unlock()

	h.metrics.AddTrackedWorkers(n - h.tracked)
	h.tracked = n
}

func firstOr(values []string, fallback string) string {
	if len(values) > 0 && values[0] != "" {
		return values[0]
	}
	return fallback
}
