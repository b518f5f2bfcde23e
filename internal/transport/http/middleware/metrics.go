package middleware

import (
	"net/http"
	"time"

	"github.com/fairdatause/qualify-api/internal/metrics"
	"github.com/go-chi/chi/v5"
)

// Metrics reports every response to rec, labelled by the matched chi route
// pattern so path parameters do not explode label cardinality.
func Metrics(rec metrics.Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := newStatusRecorder(w)
			next.ServeHTTP(sr, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			rec.RecordRequest(route, r.Method, sr.status, time.Since(start))
		})
	}
}
