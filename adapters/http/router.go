package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/artpar/construct/adapters/metrics"
)

// VersionResponse represents the version endpoint response.
type VersionResponse struct {
	Version string `json:"version"`
	Service string `json:"service"`
}

// RouterConfig holds optional configuration for the router.
type RouterConfig struct {
	Metrics        *metrics.Collector
	MetricsHandler http.Handler // Optional; defaults to promhttp.Handler() when Metrics is set
	MetricsPath    string       // Default "/metrics"
	MaxBodyBytes   int64
	Timeout        time.Duration // Per-request timeout (default 30s)
	Version        string
	EnableOpenAPI  bool
}

// NewRouter creates the main HTTP router.
func NewRouter(service BuildService, logger zerolog.Logger, cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	metricsPath := cfg.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggingMiddleware(logger, metricsPath))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	if cfg.Metrics != nil {
		r.Use(NewMetricsMiddleware(cfg.Metrics, metricsPath))
	}

	r.Get("/health", Liveness)

	if cfg.MetricsHandler != nil {
		r.Handle(metricsPath, cfg.MetricsHandler)
	} else if cfg.Metrics != nil {
		r.Handle(metricsPath, promhttp.Handler())
	}

	// OpenAPI/Swagger endpoints (if enabled)
	if cfg.EnableOpenAPI {
		r.Get(OpenAPIPath, OpenAPISpec)
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL(OpenAPIPath),
		))
	}

	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	r.Get("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(VersionResponse{Version: version, Service: "construct"})
	})

	h := NewCompileHandler(service, logger, cfg.MaxBodyBytes)
	r.Post("/compile", h.Compile)
	r.Post("/normalize", h.Normalize)
	r.Route("/builds", func(r chi.Router) {
		r.Get("/", h.ListBuilds)
		r.Get("/{id}", h.GetBuild)
	})

	return r
}

// Liveness returns a simple liveness check.
func Liveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// NewMetricsMiddleware creates middleware that records request metrics.
// Routes are labelled by their chi pattern to bound cardinality.
func NewMetricsMiddleware(m *metrics.Collector, metricsPath string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipPath(r.URL.Path, metricsPath) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			m.RequestsTotal.WithLabelValues(r.Method, route, metrics.StatusClass(ww.Status())).Inc()
			m.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}

// NewLoggingMiddleware creates middleware that logs HTTP requests.
func NewLoggingMiddleware(logger zerolog.Logger, metricsPath string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			if skipPath(r.URL.Path, metricsPath) {
				return
			}

			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}

// skipPath reports internal endpoints excluded from logs and metrics.
func skipPath(path, metricsPath string) bool {
	return strings.HasPrefix(path, "/health") || path == metricsPath
}
