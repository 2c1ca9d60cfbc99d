package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/netlens/netlens/internal/logging"
)

// Router wires the API handlers onto a ServeMux and wraps the result in
// logging and security-header middleware.
type Router struct {
	handler   *Handler
	wsHandler http.HandlerFunc
}

func NewRouter(handler *Handler) *Router {
	return &Router{handler: handler}
}

// SetWebSocketHandler registers the live chart feed endpoint.
func (r *Router) SetWebSocketHandler(handler http.HandlerFunc) {
	r.wsHandler = handler
}

func (r *Router) SetupRoutes() http.Handler {
	mux := http.NewServeMux()

	v1 := func(method, path string, h http.HandlerFunc) {
		mux.HandleFunc(method+" /api/v1"+path, h)
	}

	v1("POST", "/test/start", r.handler.StartTest)
	v1("POST", "/test/stop", r.handler.StopTest)
	v1("GET", "/test/status", r.handler.GetStatus)
	v1("GET", "/info", r.handler.GetNetworkInfo)
	v1("GET", "/latency", r.handler.GetLatency)
	v1("GET", "/dns", r.handler.GetDNSTimings)
	v1("GET", "/export", r.handler.GetExport)
	v1("GET", "/version", r.handler.GetVersion)

	if r.wsHandler != nil {
		v1("GET", "/chart", r.wsHandler)
	}

	mux.HandleFunc("GET /health", r.handler.HealthCheck)

	var handler http.Handler = mux
	handler = SecurityHeadersMiddleware(handler)
	handler = LoggingMiddleware(handler)

	return handler
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		path := req.URL.Path

		// The chart feed is a long-lived connection; logging it per
		// request would only record the upgrade.
		if strings.HasPrefix(path, "/api/") && !strings.HasSuffix(path, "/chart") {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, req)

			duration := time.Since(start)
			logging.Info("HTTP request",
				logging.Field{Key: "method", Value: req.Method},
				logging.Field{Key: "path", Value: path},
				logging.Field{Key: "status", Value: rw.statusCode},
				logging.Field{Key: "duration_ms", Value: float64(duration.Microseconds()) / 1000},
			)
		} else {
			next.ServeHTTP(w, req)
		}
	})
}

func SecurityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}
