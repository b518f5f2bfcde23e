package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLogging_RequestAndResponseLines(t *testing.T) {
	logs := observeLogs(t)
	h := chimiddleware.RequestID(Logging(http.HandlerFunc(okHandler)))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/ping", nil))

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, "[SERVER] GET /api/ping", entries[0].Message)
	assert.NotEmpty(t, entries[0].ContextMap()["request_id"])
	assert.Equal(t, "Response 200", entries[1].Message)
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)

	fields := entries[1].ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/api/ping", fields["path"])
	assert.EqualValues(t, 200, fields["status"])
	assert.Contains(t, fields, "duration_ms")
}

func TestLogging_LevelFollowsStatus(t *testing.T) {
	cases := []struct {
		status int
		level  zapcore.Level
	}{
		{http.StatusNotFound, zapcore.WarnLevel},
		{http.StatusBadGateway, zapcore.ErrorLevel},
	}
	for _, tc := range cases {
		logs := observeLogs(t)
		h := Logging(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(tc.status) }))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/contractor-request", nil))

		last := logs.AllUntimed()[logs.Len()-1]
		assert.Equal(t, tc.level, last.Level, tc.status)
	}
}

func TestLogging_SeesStatusWrittenByErrors(t *testing.T) {
	logs := observeLogs(t)
	h := Logging(Errors(false)(panicking("boom")))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, 1, logs.FilterMessage("Response 500").Len())
}
