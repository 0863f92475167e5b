package observability

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusRecordsPipelineEvents(t *testing.T) {
	m, err := NewPrometheus(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewPrometheus: %v", err)
	}
	ctx := context.Background()

	m.OnRasterizeComplete(ctx, 4, 100, 10*time.Millisecond, nil)
	m.OnInflateComplete(ctx, 3, 812, 20*time.Millisecond, nil)
	m.OnInflateComplete(ctx, 3, 0, time.Millisecond, errors.New("boom"))
	m.OnPlaceComplete(ctx, "PICKUP", 16, 11, time.Millisecond)
	m.OnPlaceComplete(ctx, "PICKUP", 16, 16, time.Millisecond)
	m.OnRunComplete(ctx, time.Second, nil)
	m.OnRunComplete(ctx, time.Second, errors.New("boom"))

	if got := testutil.ToFloat64(m.AccessibleCell); got != 812 {
		t.Errorf("accessible cells = %v, want 812", got)
	}
	if got := testutil.ToFloat64(m.StageErrors.WithLabelValues("inflate")); got != 1 {
		t.Errorf("inflate errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.POIRequested.WithLabelValues("PICKUP")); got != 32 {
		t.Errorf("requested = %v, want 32", got)
	}
	if got := testutil.ToFloat64(m.POIAchieved.WithLabelValues("PICKUP")); got != 27 {
		t.Errorf("achieved = %v, want 27", got)
	}
	if got := testutil.ToFloat64(m.Runs.WithLabelValues("ok")); got != 1 {
		t.Errorf("ok runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Runs.WithLabelValues("error")); got != 1 {
		t.Errorf("error runs = %v, want 1", got)
	}
}

func TestPrometheusRecordsCacheAndHTTP(t *testing.T) {
	m, err := NewPrometheus(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewPrometheus: %v", err)
	}
	ctx := context.Background()

	m.OnCacheMiss(ctx, "raster")
	m.OnCacheSet(ctx, "raster", 64)
	m.OnCacheHit(ctx, "raster")
	m.OnCacheHit(ctx, "raster")

	if got := testutil.ToFloat64(m.CacheEvents.WithLabelValues("raster", "hit")); got != 2 {
		t.Errorf("hits = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.CacheEvents.WithLabelValues("raster", "miss")); got != 1 {
		t.Errorf("misses = %v, want 1", got)
	}

	m.OnRequest(ctx, "GET", "/v1/runs/{id}")
	if got := testutil.ToFloat64(m.HTTPInFlight); got != 1 {
		t.Errorf("in flight = %v, want 1", got)
	}
	m.OnResponse(ctx, "GET", "/v1/runs/{id}", 404, time.Millisecond)
	if got := testutil.ToFloat64(m.HTTPInFlight); got != 0 {
		t.Errorf("in flight = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/v1/runs/{id}", "404")); got != 1 {
		t.Errorf("requests = %v, want 1", got)
	}
}

func TestNewPrometheusReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPrometheus(reg)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := NewPrometheus(reg)
	if err != nil {
		t.Fatalf("second: %v", err)
	}

	first.OnRunComplete(context.Background(), time.Second, nil)
	if got := testutil.ToFloat64(second.Runs.WithLabelValues("ok")); got != 1 {
		t.Errorf("shared counter = %v, want 1", got)
	}
}

func TestPrometheusHandlerServesRegistry(t *testing.T) {
	m, err := NewPrometheus(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewPrometheus: %v", err)
	}
	m.OnRunComplete(context.Background(), time.Second, nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `fleetmap_runs_total{outcome="ok"} 1`) {
		t.Errorf("metrics output missing run counter:\n%s", body)
	}
}
