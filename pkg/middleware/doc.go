// Package middleware provides net/http middleware for serving a site.
//
// This package includes:
//   - Prometheus metrics middleware and resolution counters
//   - OpenTelemetry request tracing
//   - slog access logging
//
// All three are plain func(http.Handler) http.Handler values and compose
// with chi:
//
//	r := chi.NewRouter()
//	r.Use(chimw.RequestID)
//	r.Use(middleware.AccessLog(logger))
//	r.Use(middleware.OpenTelemetry())
//	r.Use(middleware.Prometheus(middleware.WithNamespace("docs")))
//	r.Handle("/metrics", promhttp.Handler())
//
// # Prometheus Metrics
//
// Metrics are created once per process, on the first call to Prometheus.
// The Record* functions are no-ops until then, so packages may call them
// unconditionally.
package middleware
