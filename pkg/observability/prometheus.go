package observability

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus records pipeline, cache, and HTTP events as Prometheus metrics.
// It implements PipelineHooks, CacheHooks, and HTTPHooks.
type Prometheus struct {
	gatherer prometheus.Gatherer

	StageDurations *prometheus.HistogramVec
	StageErrors    *prometheus.CounterVec
	Runs           *prometheus.CounterVec
	AccessibleCell prometheus.Gauge
	POIRequested   *prometheus.CounterVec
	POIAchieved    *prometheus.CounterVec
	CacheEvents    *prometheus.CounterVec
	HTTPRequests   *prometheus.CounterVec
	HTTPDurations  *prometheus.HistogramVec
	HTTPInFlight   prometheus.Gauge
}

// NewPrometheus registers fleetmap metrics against reg, defaulting to the
// global registry when nil. Registering twice against the same registry
// reuses the existing collectors.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	m := &Prometheus{gatherer: gatherer}
	var err error

	if m.StageDurations, err = registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fleetmap_stage_duration_seconds",
		Help:    "Pipeline stage latency in seconds, labeled by stage.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
	}, []string{"stage"}), "fleetmap_stage_duration_seconds"); err != nil {
		return nil, err
	}
	if m.StageErrors, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fleetmap_stage_errors_total",
		Help: "Pipeline stage failures, labeled by stage.",
	}, []string{"stage"}), "fleetmap_stage_errors_total"); err != nil {
		return nil, err
	}
	if m.Runs, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fleetmap_runs_total",
		Help: "Completed pipeline runs, labeled by outcome.",
	}, []string{"outcome"}), "fleetmap_runs_total"); err != nil {
		return nil, err
	}
	if m.AccessibleCell, err = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fleetmap_accessible_cells",
		Help: "Accessible cells in the most recently inflated grid.",
	}), "fleetmap_accessible_cells"); err != nil {
		return nil, err
	}
	if m.POIRequested, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fleetmap_poi_requested_total",
		Help: "POIs requested, labeled by category.",
	}, []string{"category"}), "fleetmap_poi_requested_total"); err != nil {
		return nil, err
	}
	if m.POIAchieved, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fleetmap_poi_placed_total",
		Help: "POIs placed, labeled by category.",
	}, []string{"category"}), "fleetmap_poi_placed_total"); err != nil {
		return nil, err
	}
	if m.CacheEvents, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fleetmap_cache_events_total",
		Help: "Cache hits, misses, and writes, labeled by stage.",
	}, []string{"stage", "event"}), "fleetmap_cache_events_total"); err != nil {
		return nil, err
	}
	if m.HTTPRequests, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fleetmap_http_requests_total",
		Help: "Handled API requests, labeled by method, route, and status code.",
	}, []string{"method", "route", "code"}), "fleetmap_http_requests_total"); err != nil {
		return nil, err
	}
	if m.HTTPDurations, err = registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fleetmap_http_request_duration_seconds",
		Help:    "API request latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"method", "route"}), "fleetmap_http_request_duration_seconds"); err != nil {
		return nil, err
	}
	if m.HTTPInFlight, err = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fleetmap_http_requests_in_flight",
		Help: "API requests currently being handled.",
	}), "fleetmap_http_requests_in_flight"); err != nil {
		return nil, err
	}
	return m, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (m *Prometheus) Handler() http.Handler {
	gatherer := m.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func (m *Prometheus) stage(name string, d time.Duration, err error) {
	m.StageDurations.WithLabelValues(name).Observe(d.Seconds())
	if err != nil {
		m.StageErrors.WithLabelValues(name).Inc()
	}
}

func (m *Prometheus) OnRasterizeComplete(_ context.Context, _, _ int, d time.Duration, err error) {
	m.stage("rasterize", d, err)
}

func (m *Prometheus) OnInflateComplete(_ context.Context, _, accessible int, d time.Duration, err error) {
	m.stage("inflate", d, err)
	if err == nil {
		m.AccessibleCell.Set(float64(accessible))
	}
}

func (m *Prometheus) OnPlaceComplete(_ context.Context, category string, requested, achieved int, d time.Duration) {
	m.stage("place", d, nil)
	m.POIRequested.WithLabelValues(category).Add(float64(requested))
	m.POIAchieved.WithLabelValues(category).Add(float64(achieved))
}

func (m *Prometheus) OnRunComplete(_ context.Context, d time.Duration, err error) {
	m.stage("run", d, err)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Runs.WithLabelValues(outcome).Inc()
}

func (m *Prometheus) OnCacheHit(_ context.Context, keyType string) {
	m.CacheEvents.WithLabelValues(keyType, "hit").Inc()
}

func (m *Prometheus) OnCacheMiss(_ context.Context, keyType string) {
	m.CacheEvents.WithLabelValues(keyType, "miss").Inc()
}

func (m *Prometheus) OnCacheSet(_ context.Context, keyType string, _ int) {
	m.CacheEvents.WithLabelValues(keyType, "set").Inc()
}

func (m *Prometheus) OnRequest(context.Context, string, string) {
	m.HTTPInFlight.Inc()
}

func (m *Prometheus) OnResponse(_ context.Context, method, route string, code int, d time.Duration) {
	m.HTTPInFlight.Dec()
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.HTTPDurations.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ PipelineHooks = (*Prometheus)(nil)
	_ CacheHooks    = (*Prometheus)(nil)
	_ HTTPHooks     = (*Prometheus)(nil)
)

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
