// Package metrics provides Prometheus instrumentation for window stores.
//
// Wrap a store before handing it to the limiter to record admission
// decisions, Take latency, and backend errors:
//
//	collector := metrics.NewCollector()
//	store, _ := admission.NewRedisStore(client)
//	limiter, _ := admission.New(admission.API,
//	    admission.WithStore(metrics.Wrap(store, metrics.RedisBackend, collector)),
//	)
//
// All metrics are partitioned by backend name. Decision counts carry an
// additional "decision" label (allowed / denied).
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/courtside/admission"
)

// Backend name constants for the backend label.
const (
	RedisBackend = "redis"
	LocalBackend = "local"
)

// Collector holds Prometheus metric vectors for admission instrumentation.
type Collector struct {
	decisions *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	errors    *prometheus.CounterVec
}

type collectorConfig struct {
	namespace string
	subsystem string
	registry  prometheus.Registerer
	buckets   []float64
}

// CollectorOption configures a Collector.
type CollectorOption func(*collectorConfig)

// WithNamespace sets the Prometheus metric namespace (prefix).
func WithNamespace(ns string) CollectorOption {
	return func(c *collectorConfig) { c.namespace = ns }
}

// WithSubsystem sets the Prometheus metric subsystem.
func WithSubsystem(sub string) CollectorOption {
	return func(c *collectorConfig) { c.subsystem = sub }
}

// WithRegistry registers metrics with the given Registerer instead of
// prometheus.DefaultRegisterer.
func WithRegistry(r prometheus.Registerer) CollectorOption {
	return func(c *collectorConfig) { c.registry = r }
}

// WithBuckets sets custom histogram buckets for Take duration.
func WithBuckets(b []float64) CollectorOption {
	return func(c *collectorConfig) { c.buckets = b }
}

var defaultBuckets = []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1}

// NewCollector creates a Collector and registers its metrics.
//
// Metrics registered:
//   - {namespace}_decisions_total          counter   (backend, decision)
//   - {namespace}_take_duration_seconds    histogram (backend)
//   - {namespace}_store_errors_total       counter   (backend)
//
// Default namespace is "admission".
func NewCollector(opts ...CollectorOption) *Collector {
	cfg := &collectorConfig{
		namespace: "admission",
		registry:  prometheus.DefaultRegisterer,
		buckets:   defaultBuckets,
	}
	for _, o := range opts {
		o(cfg)
	}

	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.namespace,
		Subsystem: cfg.subsystem,
		Name:      "decisions_total",
		Help:      "Total admission decisions partitioned by backend and decision.",
	}, []string{"backend", "decision"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: cfg.namespace,
		Subsystem: cfg.subsystem,
		Name:      "take_duration_seconds",
		Help:      "Latency of window store Take calls in seconds.",
		Buckets:   cfg.buckets,
	}, []string{"backend"})

	errors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.namespace,
		Subsystem: cfg.subsystem,
		Name:      "store_errors_total",
		Help:      "Total window store errors.",
	}, []string{"backend"})

	cfg.registry.MustRegister(decisions, duration, errors)

	return &Collector{
		decisions: decisions,
		duration:  duration,
		errors:    errors,
	}
}

// Wrap returns a WindowStore that transparently records Prometheus
// metrics for every Take call delegated to inner.
func Wrap(inner admission.WindowStore, backend string, c *Collector) admission.WindowStore {
	return &instrumentedStore{
		inner:     inner,
		backend:   backend,
		collector: c,
	}
}

type instrumentedStore struct {
	inner     admission.WindowStore
	backend   string
	collector *Collector
}

func (s *instrumentedStore) Take(ctx context.Context, key string, now time.Time, max int64, window time.Duration) (bool, error) {
	start := time.Now()
	allowed, err := s.inner.Take(ctx, key, now, max, window)
	s.collector.duration.WithLabelValues(s.backend).Observe(time.Since(start).Seconds())

	if err != nil {
		s.collector.errors.WithLabelValues(s.backend).Inc()
		return allowed, err
	}

	decision := "denied"
	if allowed {
		decision = "allowed"
	}
	s.collector.decisions.WithLabelValues(s.backend, decision).Inc()
	return allowed, nil
}
