package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"breakout-desk/observability"
)

// statusRecorder captures status code and response size
type statusRecorder struct {
	http.ResponseWriter
	statusCode   int
	responseSize int
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	size, err := rw.ResponseWriter.Write(b)
	rw.responseSize += size
	return size, err
}

// MetricsMiddleware records HTTP metrics and a debug log line per request,
// labelled by chi route pattern so session ids do not explode cardinality
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := newStatusRecorder(w)

		next.ServeHTTP(recorder, r)

		routePattern := chi.RouteContext(r.Context()).RoutePattern()
		if routePattern == "" {
			routePattern = "unmatched"
		}

		duration := time.Since(start)
		statusCode := strconv.Itoa(recorder.statusCode)
		observability.GetMetrics().RecordHTTPRequest(r.Method, routePattern, statusCode, duration, recorder.responseSize)

		observability.Debug("http request",
			"method", r.Method,
			"route", routePattern,
			"status", recorder.statusCode,
			"duration_ms", duration.Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// CORSMiddleware allows the configured origins. allowedOrigins is "*" or a
// comma-separated list; a listed origin is echoed back when it matches.
func CORSMiddleware(allowedOrigins string) func(next http.Handler) http.Handler {
	origins := make(map[string]bool)
	wildcard := false
	for _, origin := range strings.Split(allowedOrigins, ",") {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			wildcard = true
		} else if origin != "" {
			origins[origin] = true
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case wildcard:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origins[origin]:
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
