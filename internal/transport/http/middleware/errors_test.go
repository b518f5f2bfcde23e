package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	t.Cleanup(restore)
	return logs
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func panicking(msg string) http.Handler {
	return http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic(errors.New(msg)) })
}

func TestErrors_RecoversPanic(t *testing.T) {
	logs := observeLogs(t)
	req := httptest.NewRequest(http.MethodGet, "/test-error?x=1", nil)
	rr := httptest.NewRecorder()

	Errors(false)(panicking("Test error")).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	body := decodeBody(t, rr)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Internal server error: Test error", body["message"])

	entries := logs.FilterMessage("UNHANDLED ERROR").AllUntimed()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "*errors.errorString", fields["error_type"])
	assert.Equal(t, "Test error", fields["error_message"])
	assert.Equal(t, "/test-error?x=1", fields["request_url"])
}

func TestErrors_StackOnlyInDevelopment(t *testing.T) {
	observeLogs(t)

	rr := httptest.NewRecorder()
	Errors(true)(panicking("Test error dev")).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	body := decodeBody(t, rr)
	require.Contains(t, body, "error")
	assert.Contains(t, body["error"], "Test error dev")
	assert.Contains(t, body["error"], "goroutine")

	rr = httptest.NewRecorder()
	Errors(false)(panicking("Test error prod")).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotContains(t, decodeBody(t, rr), "error")
}

func TestErrors_HeadersAlreadySent(t *testing.T) {
	logs := observeLogs(t)
	h := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"message":"OK"}`))
		panic("Error after response")
	})
	rr := httptest.NewRecorder()

	Errors(true)(h).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"OK"}`, rr.Body.String())
	assert.Equal(t, 1, logs.FilterMessage("UNHANDLED ERROR").Len())
}

func TestErrors_FailRendersHandlerError(t *testing.T) {
	observeLogs(t)
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		Fail(w, r, errors.New("database is on fire"))
	})
	rr := httptest.NewRecorder()

	Errors(false)(h).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/check-user-exists", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"success":false,"message":"Internal server error: database is on fire"}`, rr.Body.String())
}

func TestFail_WithoutMiddlewareWritesDirectly(t *testing.T) {
	observeLogs(t)
	rr := httptest.NewRecorder()

	Fail(rr, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"success":false,"message":"Internal server error: boom"}`, rr.Body.String())
}

func TestErrors_PassesThroughSuccess(t *testing.T) {
	logs := observeLogs(t)
	rr := httptest.NewRecorder()

	Errors(true)(http.HandlerFunc(okHandler)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Zero(t, logs.Len())
}

func TestErrors_AbortHandlerIsRepanicked(t *testing.T) {
	observeLogs(t)
	h := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic(http.ErrAbortHandler) })
	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		Errors(false)(h).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}
