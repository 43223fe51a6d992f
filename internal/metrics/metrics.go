// Package metrics exposes Prometheus collectors for connection handles.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "remote_engine_mock"

// Stats request results.
const (
	ResultOK           = "ok"
	ResultNotConnected = "not_connected"
	ResultError        = "error"
)

// Metrics holds the handle lifecycle collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	opens          prometheus.Counter
	closes         prometheus.Counter
	destroys       prometheus.Counter
	eventsEmitted  *prometheus.CounterVec
	statsRequests  *prometheus.CounterVec
	statsDuration  prometheus.Histogram
	trackedWorkers prometheus.Gauge
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		opens: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "opens_total",
			Help:      "Number of successful Open calls.",
		}),
		closes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "closes_total",
			Help:      "Number of Close calls that closed an open handle.",
		}),
		destroys: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "destroys_total",
			Help:      "Number of destroyed handles.",
		}),
		eventsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_emitted_total",
			Help:      "Number of lifecycle events emitted, by event name.",
		}, []string{"event"}),
		statsRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stats_requests_total",
			Help:      "Number of GetStats calls, by result.",
		}, []string{"result"}),
		statsDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stats_duration_seconds",
			Help:      "Duration of successful GetStats calls, in seconds.",
			Buckets:   prometheus.DefBuckets,
		}),
		trackedWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tracked_workers",
			Help:      "Number of workers currently tracked by registries.",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.opens, m.closes, m.destroys, m.eventsEmitted,
		m.statsRequests, m.statsDuration, m.trackedWorkers,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	for _, r := range []string{ResultOK, ResultNotConnected, ResultError} {
		m.statsRequests.WithLabelValues(r)
	}
	return m, nil
}

// MustNew is New that panics on registration failure.
func MustNew(reg prometheus.Registerer) *Metrics {
	m, err := New(reg)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Metrics) Opened() {
	if m != nil {
		m.opens.Inc()
	}
}

func (m *Metrics) Closed() {
	if m != nil {
		m.closes.Inc()
	}
}

func (m *Metrics) Destroyed() {
	if m != nil {
		m.destroys.Inc()
	}
}

// Emitted counts one emission of event.
func (m *Metrics) Emitted(event string) {
	if m != nil {
		m.eventsEmitted.WithLabelValues(event).Inc()
	}
}

// StatsRequested counts a GetStats call; d is observed for ResultOK only.
func (m *Metrics) StatsRequested(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.statsRequests.WithLabelValues(result).Inc()
	if result == ResultOK {
		m.statsDuration.Observe(d.Seconds())
	}
}

// AddTrackedWorkers moves the tracked worker gauge by delta.
func (m *Metrics) AddTrackedWorkers(delta int) {
	if m != nil {
		m.trackedWorkers.Add(float64(delta))
	}
}
