package cmd

import (
	"context"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/zjrosen/remote-engine-mock/internal/config"
	"github.com/zjrosen/remote-engine-mock/internal/connection"
	"github.com/zjrosen/remote-engine-mock/internal/engine"
	"github.com/zjrosen/remote-engine-mock/internal/log"
	"github.com/zjrosen/remote-engine-mock/internal/metrics"
	"github.com/zjrosen/remote-engine-mock/internal/presentation"
	"github.com/zjrosen/remote-engine-mock/internal/scheduler"
	"github.com/zjrosen/remote-engine-mock/internal/stats"
	"github.com/zjrosen/remote-engine-mock/internal/tracing"
)

// session is one handle plus everything built for it from config: its
// scheduler, tracer and metrics registry.
type session struct {
	handle   *connection.Handle
	sched    *scheduler.Scheduler
	provider *tracing.Provider
	registry *prometheus.Registry
	format   *presentation.Formatter
	// fallback is opened when neither the caller nor the handle has an
	// address.
	fallback string

	start     time.Time
	mu        sync.Mutex
	events    []presentation.EventDTO
	connected chan struct{}
}

// newSession builds a closed handle from c. Event lines are written to out
// as they are emitted; out may be nil.
func newSession(c config.Config, out io.Writer, extra ...connection.Option) (*session, error) {
	sched, err := scheduler.NewWithMode(scheduler.Mode(c.Scheduler.Mode))
	if err != nil {
		return nil, err
	}

	provider, err := tracing.NewProvider(c.Tracing)
	if err != nil {
		sched.Close()
		return nil, errors.Wrap(err, "tracing")
	}

	registry := prometheus.NewRegistry()
	m, err := metrics.New(registry)
	if err != nil {
		sched.Close()
		_ = provider.Shutdown(context.Background())
		return nil, errors.Wrap(err, "metrics")
	}

	opts := append([]connection.Option{
		connection.WithScheduler(sched),
		connection.WithTracer(provider.Tracer()),
		connection.WithMetrics(m),
		connection.WithStats(
			stats.WithHostSampler(stats.NewProcHost(c.Stats.ProcRoot)),
			stats.WithProcessSampler(stats.NewRuntimeProcess(c.Stats.ProcRoot)),
			stats.WithPidSampler(stats.NewProcPid(c.Stats.ProcRoot, stats.WithHistoryTTL(c.Stats.PidHistoryTTL))),
		),
	}, extra...)

	// Constructed closed so listeners are in place before anything is
	// deferred.
	h, err := connection.NewFromConfig(connection.Config{Transport: c.Transport}, opts...)
	if err != nil {
		sched.Close()
		_ = provider.Shutdown(context.Background())
		return nil, err
	}

	s := &session{
		handle:    h,
		sched:     sched,
		provider:  provider,
		registry:  registry,
		fallback:  c.Address,
		start:     time.Now(),
		connected: make(chan struct{}),
	}
	if out != nil {
		s.format = presentation.NewFormatter(out)
	}
	for _, event := range connection.Events {
		name := event
		h.On(name, func(payload any) { s.record(name, payload) })
	}
	return s, nil
}

func (s *session) record(event string, payload any) {
	dto := presentation.FromEvent(event, payload, time.Since(s.start))

	s.mu.Lock()
	s.events = append(s.events, dto)
	if event == connection.EventConnected {
		close(s.connected)
		s.connected = make(chan struct{})
	}
	s.mu.Unlock()

	if s.format != nil {
		_ = s.format.FormatEvent(dto)
	}
}

// Events returns the timeline recorded so far.
func (s *session) Events() []presentation.EventDTO {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.events)
}

// connect opens the handle and waits for the connected notification.
func (s *session) connect(ctx context.Context, address string) error {
	s.mu.Lock()
	connected := s.connected
	s.mu.Unlock()

	if address == "" && s.handle.Address() == "" {
		address = s.fallback
	}
	var args []string
	if address != "" {
		args = append(args, address)
	}
	if _, err := s.handle.Open(args...); err != nil {
		return err
	}

	if s.sched.Mode() == scheduler.ModeManual {
		if _, err := s.sched.Drain(); err != nil {
			return err
		}
	}

	select {
	case <-connected:
		return nil
	case <-ctx.Done():
		return errors.Wrapf(ctx.Err(), "waiting for %s", connection.EventConnected)
	}
}

// reconnect closes the handle and opens it at address.
func (s *session) reconnect(ctx context.Context, address string) error {
	if err := s.handle.Close(); err != nil {
		return err
	}
	return s.connect(ctx, address)
}

// spawn creates n fake workers on the held engine. They are tracked by the
// time it returns. All of them report this process's pid, so they share one
// registry entry that stays until the last of them closes.
func (s *session) spawn(ctx context.Context, n int) ([]*engine.Worker, error) {
	eng := s.handle.Engine()
	if eng == nil {
		return nil, errors.Wrap(connection.ErrInvalidState, "no engine held")
	}

	workers := make([]*engine.Worker, 0, n)
	for i := 0; i < n; i++ {
		w, err := eng.CreateWorker(ctx, engine.WorkerSettings{LogLevel: "warn"})
		if err != nil {
			return workers, errors.Wrap(err, "create worker")
		}
		workers = append(workers, w)
	}
	return workers, nil
}

// close destroys the handle and releases the scheduler and tracer.
func (s *session) close() {
	if err := s.handle.Destroy(); err != nil {
		log.ErrorErr(log.CatCLI, "Destroy failed", err, "handle", s.handle.ID())
	}
	s.sched.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.provider.Shutdown(ctx); err != nil {
		log.ErrorErr(log.CatCLI, "Tracer shutdown failed", err)
	}
	s.logMetrics()
}

// logMetrics writes the collected counters to the debug log.
func (s *session) logMetrics() {
	families, err := s.registry.Gather()
	if err != nil {
		log.ErrorErr(log.CatCLI, "Gather metrics failed", err)
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			value := m.GetCounter().GetValue() + m.GetGauge().GetValue()
			labels := make([]any, 0, 2*len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels = append(labels, lp.GetName(), lp.GetValue())
			}
			log.Debug(log.CatCLI, "Metric", append([]any{"name", mf.GetName(), "value", value}, labels...)...)
		}
	}
}
