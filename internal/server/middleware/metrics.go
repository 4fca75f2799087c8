package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// RequestRecorder receives one observation per finished request
type RequestRecorder interface {
	ObserveRequest(method, route string, status int, duration time.Duration)
}

// Metrics создает middleware, передающее длительность и статус запроса в recorder.
// Метка route - шаблон chi, а не сырой путь, чтобы кардинальность не росла.
func Metrics(recorder RequestRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := wrapResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}

			recorder.ObserveRequest(r.Method, route, wrapped.statusCode, time.Since(start))
		})
	}
}
