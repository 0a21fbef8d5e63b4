// Package middleware contains HTTP middleware functions.
//
// Middleware wraps an http.Handler to add cross-cutting behaviour (logging,
// metrics) without touching the handler itself:
//
//	func MyMiddleware(next http.Handler) http.Handler {
//	    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//	        // before
//	        next.ServeHTTP(w, r)
//	        // after
//	    })
//	}
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/felixge/httpsnoop"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Logger returns an HTTP middleware that logs each request with slog.
//
// httpsnoop wraps the ResponseWriter so the status code and byte count can
// be read after the handler returns, while keeping optional interfaces such
// as http.Flusher intact.
//
// Health checks are not logged; load balancers hit them every few seconds.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthz" {
				next.ServeHTTP(w, r)
				return
			}

			m := httpsnoop.CaptureMetrics(next, w, r)

			attrs := []any{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", m.Code),
				slog.Duration("duration", m.Duration),
				slog.Int64("bytes", m.Written),
			}
			if id := chimiddleware.GetReqID(r.Context()); id != "" {
				attrs = append(attrs, slog.String("request_id", id))
			}

			logger.Info("request completed", attrs...)
		})
	}
}
