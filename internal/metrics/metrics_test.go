package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"budgetbolt/internal/cache"
	"budgetbolt/internal/middleware/ratelimit"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveReport(t *testing.T) {
	m := New()

	m.ObserveReport("monthly", 0.02, nil)
	m.ObserveReport("monthly", 0.03, errors.New("boom"))
	m.ObserveReport("dashboard", 0.01, nil)

	if got := testutil.ToFloat64(m.reportErrors.WithLabelValues("monthly")); got != 1 {
		t.Errorf("monthly errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.reportErrors.WithLabelValues("dashboard")); got != 0 {
		t.Errorf("dashboard errors = %v, want 0", got)
	}
	if got := testutil.CollectAndCount(m.reportDuration); got != 2 {
		t.Errorf("duration series = %d, want 2", got)
	}
}

func TestObserveHTTPAndExport(t *testing.T) {
	m := New()

	m.ObserveHTTP("GET", "GET /api/reports/dashboard", 200, 15*time.Millisecond)
	m.ObserveHTTP("GET", "GET /api/reports/dashboard", 200, 5*time.Millisecond)
	m.ObserveHTTP("GET", "GET /api/reports/dashboard", 401, time.Millisecond)
	m.ObserveExport("written")

	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "GET /api/reports/dashboard", "200")); got != 2 {
		t.Errorf("200 requests = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.exports.WithLabelValues("written")); got != 1 {
		t.Errorf("written exports = %v, want 1", got)
	}
}

func TestHandlerExposesCacheStats(t *testing.T) {
	m := New()
	lru := cache.NewLRUCache[string](4, time.Minute)
	m.RegisterCache("categories", lru.Stats)

	lru.Set("a", "x")
	lru.Get("a")
	lru.Get("missing")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`budgetbolt_cache_hits_total{cache="categories"} 1`,
		`budgetbolt_cache_misses_total{cache="categories"} 1`,
		`budgetbolt_cache_entries{cache="categories"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestHandlerExposesRateLimiter(t *testing.T) {
	m := New()
	m.RegisterRateLimiter(func() ratelimit.Metrics {
		return ratelimit.Metrics{Rejected: 3, ClientCount: 2}
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	for _, want := range []string{
		"budgetbolt_rate_limited_total 3",
		"budgetbolt_rate_limit_clients 2",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
