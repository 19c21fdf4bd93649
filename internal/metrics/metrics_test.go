package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_ObserveOperation(t *testing.T) {
	m := New()

	m.ObserveOperation("add", "", time.Now())
	m.ObserveOperation("add", "validation", time.Now())
	m.ObserveOperation("add", "validation", time.Now())

	if got := testutil.ToFloat64(m.operations.WithLabelValues("add", OutcomeOK, "")); got != 1 {
		t.Errorf("ok count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.operations.WithLabelValues("add", OutcomeFailure, "validation")); got != 2 {
		t.Errorf("failure count = %v, want 2", got)
	}
}

func TestMetrics_Cache(t *testing.T) {
	m := New()

	m.CacheMiss()
	m.CacheHit()
	m.CacheHit()
	m.CacheInvalidated()

	if got := testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")); got != 2 {
		t.Errorf("hits = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")); got != 1 {
		t.Errorf("misses = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.invalidations); got != 1 {
		t.Errorf("invalidations = %v, want 1", got)
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveOperation("list", "", time.Now())
	m.CacheHit()
	m.CacheMiss()
	m.CacheInvalidated()
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.CacheHit()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "tasktracker_cache_lookups_total") {
		t.Errorf("metrics output missing cache counter:\n%s", body)
	}
}
