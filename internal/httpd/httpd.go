// Package httpd provides the shared chi router wiring used by both the
// device-side HTTP surface (description/SCPD/control/event-sub) and the
// control point's NOTIFY callback server, grounded on the teacher's
// internal/server/server.go: a StripSlashes + request-logger middleware
// stack plus a small health-route set.
package httpd

import (
	"bufio"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter returns a chi.Router with the engine's standard middleware
// stack mounted (grounded on server.go's NewHandler: StripSlashes then
// requestLoggerMiddleware) and health routes registered under
// healthPrefix (e.g. "/v1" or "" to mount at the root).
func NewRouter(logger *log.Logger, healthPrefix string) chi.Router {
	if logger == nil {
		logger = log.Default()
	}
	router := chi.NewRouter()
	router.Use(middleware.StripSlashes)
	router.Use(requestLoggerMiddleware(logger))
	registerHealthRoutes(router, healthPrefix)
	return router
}

// responseWriter wraps http.ResponseWriter to capture the status code for
// logging, grounded verbatim on server.go's responseWriter.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack supports protocol upgrades passing through the logger (SSDP and
// GENA never need it, but chi's stack expects ResponseWriter wrappers to
// preserve http.Hijacker when the underlying writer supports it).
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := rw.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}

func requestLoggerMiddleware(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(wrapped, r)
			logger.Printf("%s %s %d %s", r.Method, r.URL.RequestURI(), wrapped.status, time.Since(start).Round(time.Millisecond))
		})
	}
}

func registerHealthRoutes(router chi.Router, prefix string) {
	router.Get(prefix+"/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":    "healthy",
			"service":   "dlna-engine",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})
	router.Get(prefix+"/health/live", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})
	router.Get(prefix+"/health/ready", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
	})
}
