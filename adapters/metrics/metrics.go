// Package metrics provides Prometheus metrics collection for the compiler.
package metrics

import (
	"time"

	"github.com/artpar/construct/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "construct"

// Collector holds all Prometheus metrics for the compiler.
type Collector struct {
	// Compile metrics
	CompilesTotal   *prometheus.CounterVec
	CompileDuration *prometheus.HistogramVec
	ModulesDeclared *prometheus.GaugeVec

	// Generator pass metrics
	PassDuration *prometheus.HistogramVec
	PassErrors   *prometheus.CounterVec

	// Build store metrics
	BuildsSaved prometheus.Counter
	CacheHits   prometheus.Counter

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Config metrics
	ConfigReloads      prometheus.Counter
	ConfigReloadErrors prometheus.Counter
	ConfigLastReload   prometheus.Gauge
}

// New creates a collector registered with the default registry.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a new metrics collector with a custom registry.
// Useful for testing to avoid global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		CompilesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "compiles_total",
				Help:      "Total number of runtime assemblies by outcome",
			},
			[]string{"runtime", "outcome"},
		),
		CompileDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "compile_duration_seconds",
				Help:      "Runtime assembly duration in seconds",
				Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"outcome"},
		),
		ModulesDeclared: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "modules_declared",
				Help:      "Number of modules in the last successful assembly",
			},
			[]string{"runtime"},
		),
		PassDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "pass_duration_seconds",
				Help:      "Generator pass duration in seconds",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1},
			},
			[]string{"pass"},
		),
		PassErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pass_errors_total",
				Help:      "Total number of failed generator passes",
			},
			[]string{"pass"},
		),
		BuildsSaved: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "builds_saved_total",
				Help:      "Total number of builds written to the store",
			},
		),
		CacheHits: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "build_cache_hits_total",
				Help:      "Total number of assemblies matching a stored fingerprint",
			},
		),
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"method", "route"},
		),
		ConfigReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reloads_total",
				Help:      "Total number of successful config reloads",
			},
		),
		ConfigReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reload_errors_total",
				Help:      "Total number of config reload errors",
			},
		),
		ConfigLastReload: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "config_last_reload_timestamp",
				Help:      "Unix timestamp of last successful config reload",
			},
		),
	}
}

// ObserveCompile records one assembly.
func (c *Collector) ObserveCompile(runtime, outcome string, modules int, d time.Duration) {
	c.CompilesTotal.WithLabelValues(runtime, outcome).Inc()
	c.CompileDuration.WithLabelValues(outcome).Observe(d.Seconds())
	if outcome == "ok" {
		c.ModulesDeclared.WithLabelValues(runtime).Set(float64(modules))
	}
}

// ObservePass records one generator pass.
func (c *Collector) ObservePass(pass string, d time.Duration, err error) {
	c.PassDuration.WithLabelValues(pass).Observe(d.Seconds())
	if err != nil {
		c.PassErrors.WithLabelValues(pass).Inc()
	}
}

// StatusClass buckets an HTTP status code ("2xx", "4xx", ...).
func StatusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return string(rune('0'+status/100)) + "xx"
}

var _ ports.CompileObserver = (*Collector)(nil)
