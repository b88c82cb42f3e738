package metrics_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/courtside/admission"
	"github.com/courtside/admission/metrics"
)

type failingStore struct{}

func (failingStore) Take(context.Context, string, time.Time, int64, time.Duration) (bool, error) {
	return false, errors.New("boom")
}

func TestWrap_RecordsDecisions(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(metrics.WithRegistry(reg))

	inner := admission.NewLocalStore()
	defer inner.Close()
	store := metrics.Wrap(inner, metrics.LocalBackend, collector)

	ctx := context.Background()
	now := time.Now()
	for i := 0; i < 2; i++ {
		ok, err := store.Take(ctx, "k1", now, 2, time.Minute)
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Fatalf("request %d: expected allowed", i+1)
		}
	}
	ok, err := store.Take(ctx, "k1", now, 2, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("request 3: expected denied")
	}

	assertCounter(t, reg, "admission_decisions_total", map[string]string{
		"backend": "local", "decision": "allowed",
	}, 2)
	assertCounter(t, reg, "admission_decisions_total", map[string]string{
		"backend": "local", "decision": "denied",
	}, 1)
	assertHistogramCount(t, reg, "admission_take_duration_seconds", map[string]string{
		"backend": "local",
	}, 3)
}

func TestWrap_RecordsStoreErrors(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(metrics.WithRegistry(reg))
	store := metrics.Wrap(failingStore{}, metrics.RedisBackend, collector)

	if _, err := store.Take(context.Background(), "k", time.Now(), 1, time.Minute); err == nil {
		t.Fatal("expected error to propagate through the wrapper")
	}

	assertCounter(t, reg, "admission_store_errors_total", map[string]string{
		"backend": "redis",
	}, 1)
	assertCounter(t, reg, "admission_decisions_total", map[string]string{
		"backend": "redis", "decision": "allowed",
	}, 0)
}

func TestNewCollector_CustomNamespace(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(metrics.WithRegistry(reg), metrics.WithNamespace("gateway"))

	inner := admission.NewLocalStore()
	defer inner.Close()
	store := metrics.Wrap(inner, metrics.LocalBackend, collector)
	if _, err := store.Take(context.Background(), "k", time.Now(), 1, time.Minute); err != nil {
		t.Fatal(err)
	}

	assertCounter(t, reg, "gateway_decisions_total", map[string]string{
		"backend": "local", "decision": "allowed",
	}, 1)
}

// ─── Gather Helpers ──────────────────────────────────────────────────────────

func findMetric(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) *dto.Metric {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			matched := true
			for k, v := range labels {
				found := false
				for _, lp := range m.GetLabel() {
					if lp.GetName() == k && lp.GetValue() == v {
						found = true
						break
					}
				}
				if !found {
					matched = false
					break
				}
			}
			if matched {
				return m
			}
		}
	}
	return nil
}

func assertCounter(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string, want float64) {
	t.Helper()
	m := findMetric(t, reg, name, labels)
	if m == nil {
		if want == 0 {
			return // never incremented, never exported
		}
		t.Fatalf("metric %s%v not found", name, labels)
	}
	if got := m.GetCounter().GetValue(); got != want {
		t.Errorf("%s%v = %v, want %v", name, labels, got, want)
	}
}

func assertHistogramCount(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string, want uint64) {
	t.Helper()
	m := findMetric(t, reg, name, labels)
	if m == nil {
		t.Fatalf("metric %s%v not found", name, labels)
	}
	if got := m.GetHistogram().GetSampleCount(); got != want {
		t.Errorf("%s%v sample count = %v, want %v", name, labels, got, want)
	}
}
