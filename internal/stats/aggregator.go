package stats

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/zjrosen/remote-engine-mock/internal/log"
)

// Aggregator combines the samplers into a Snapshot.
type Aggregator struct {
	host HostSampler
	proc ProcessSampler
	pids PidSampler
	now  func() time.Time
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithHostSampler overrides the host sampler.
func WithHostSampler(s HostSampler) Option {
	return func(a *Aggregator) { a.host = s }
}

// WithProcessSampler overrides the process sampler.
func WithProcessSampler(s ProcessSampler) Option {
	return func(a *Aggregator) { a.proc = s }
}

// WithPidSampler overrides the per-pid sampler.
func WithPidSampler(s PidSampler) Option {
	return func(a *Aggregator) { a.pids = s }
}

// WithClock overrides the snapshot timestamp source.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// NewAggregator creates an aggregator. Samplers not supplied read from
// DefaultProcRoot.
func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	if a.host == nil {
		a.host = NewProcHost("")
	}
	if a.proc == nil {
		a.proc = NewRuntimeProcess("")
	}
	if a.pids == nil {
		a.pids = NewProcPid("")
	}
	return a
}

// Snapshot samples host and process metrics, and per-worker usage for every
// pid in pids. Pids whose process no longer exists are left out.
func (a *Aggregator) Snapshot(ctx context.Context, pids []int) (*Snapshot, error) {
	host, err := a.host.SampleHost(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "sample host")
	}
	proc, err := a.proc.SampleProcess(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "sample process")
	}

	snap := &Snapshot{
		SampledAt: a.now(),
		Host:      host,
		Process:   proc,
	}
	if len(pids) == 0 {
		return snap, nil
	}

	snap.Workers = make(map[int]Usage, len(pids))
	for _, pid := range pids {
		u, err := a.pids.SamplePid(ctx, pid)
		switch {
		case err == nil:
			snap.Workers[pid] = u
		case errors.Is(err, ErrProcessNotFound):
			log.Debug(log.CatStats, "Worker process gone, omitted", "pid", pid)
		default:
			return nil, errors.Wrapf(err, "sample worker %d", pid)
		}
	}
	return snap, nil
}

// Release frees sampler state held between snapshots.
func (a *Aggregator) Release() {
	for _, s := range []any{a.host, a.proc, a.pids} {
		if r, ok := s.(Releaser); ok {
			r.Release()
		}
	}
}
