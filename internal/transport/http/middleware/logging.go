package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/fairdatause/qualify-api/internal/logger"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Logging writes one entry when a request arrives and one when it completes.
// Completed requests log at warn for 4xx and error for 5xx.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := chimiddleware.GetReqID(r.Context())
		logger.LogInfo("[SERVER] "+r.Method+" "+r.URL.Path, zap.String("request_id", reqID))

		rec := newStatusRecorder(w)
		next.ServeHTTP(rec, r)

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Float64("duration_ms", float64(time.Since(start).Nanoseconds())/float64(time.Millisecond)),
			zap.String("request_id", reqID),
		}
		msg := "Response " + strconv.Itoa(rec.status)
		switch {
		case rec.status >= 500:
			logger.LogError(msg, fields...)
		case rec.status >= 400:
			logger.LogWarn(msg, fields...)
		default:
			logger.LogInfo(msg, fields...)
		}
	})
}
