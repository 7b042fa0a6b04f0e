package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run outcomes
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusPartial = "partial" // report built, summary undefined
)

// Registry holds all Prometheus metrics of the backtester
// ⭐ SSOT: 메트릭 정의는 여기서만
//
// Methods are nil-safe so callers can pass a nil *Registry when metrics are disabled.
type Registry struct {
	reg *prometheus.Registry

	RunsTotal       *prometheus.CounterVec
	RunDuration     *prometheus.HistogramVec
	SkippedYears    prometheus.Counter
	CacheRequests   *prometheus.CounterVec
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	LastFinalIndex  prometheus.Gauge
	LastSharpeRatio prometheus.Gauge
}

// New creates a registry with process and Go collectors attached
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "termpremium",
			Name:      "backtest_runs_total",
			Help:      "Total number of backtest runs by trigger and status",
		}, []string{"trigger", "status"}),

		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "termpremium",
			Name:      "backtest_duration_seconds",
			Help:      "Duration of backtest runs in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"trigger"}),

		SkippedYears: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "termpremium",
			Name:      "backtest_skipped_years_total",
			Help:      "Years rejected by the strategy engine",
		}),

		CacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "termpremium",
			Name:      "report_cache_requests_total",
			Help:      "Report cache lookups by result",
		}, []string{"result"}),

		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "termpremium",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code",
		}, []string{"route", "code"}),

		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "termpremium",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),

		LastFinalIndex: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "termpremium",
			Name:      "backtest_last_final_index",
			Help:      "Final strategy index of the last successful run",
		}),

		LastSharpeRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "termpremium",
			Name:      "backtest_last_sharpe",
			Help:      "Strategy Sharpe ratio of the last successful run",
		}),
	}

	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.RunsTotal,
		r.RunDuration,
		r.SkippedYears,
		r.CacheRequests,
		r.HTTPRequests,
		r.HTTPDuration,
		r.LastFinalIndex,
		r.LastSharpeRatio,
	)

	return r
}

// Handler exposes the registry in Prometheus text format
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Gatherer returns the underlying registry (tests)
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// ObserveRun records one backtest run
func (r *Registry) ObserveRun(trigger, status string, elapsed time.Duration, skipped int) {
	if r == nil {
		return
	}
	r.RunsTotal.WithLabelValues(trigger, status).Inc()
	r.RunDuration.WithLabelValues(trigger).Observe(elapsed.Seconds())
	r.SkippedYears.Add(float64(skipped))
}

// SetLastResult stores headline numbers of the last successful run
func (r *Registry) SetLastResult(finalIndex, sharpe float64) {
	if r == nil {
		return
	}
	r.LastFinalIndex.Set(finalIndex)
	r.LastSharpeRatio.Set(sharpe)
}

// ObserveCache records a cache hit or miss
func (r *Registry) ObserveCache(hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.CacheRequests.WithLabelValues(result).Inc()
}

// ObserveHTTP records one HTTP request
func (r *Registry) ObserveHTTP(route string, code int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	r.HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}
