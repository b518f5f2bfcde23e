package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/fairdatause/qualify-api/internal/domain"
	"github.com/fairdatause/qualify-api/internal/logger"
	"github.com/fairdatause/qualify-api/internal/transport/http/middleware"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"
)

// Envelope is the wire shape shared by every /api endpoint.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// UserExistsEnvelope is the check-user-exists response, which carries its
// flag at the top level.
type UserExistsEnvelope struct {
	Success    bool `json:"success"`
	UserExists bool `json:"userExists"`
}

// MessageEnvelope is the bare {message} shape of the ping endpoint.
type MessageEnvelope struct {
	Message string `json:"message"`
}

// Result is what a handler decided, before it is rendered. A Result holds
// either a body or an error, never both.
type Result struct {
	status int
	body   interface{}
	err    error
}

func Ok(body interface{}) Result { return Result{status: http.StatusOK, body: body} }

func Err(err error) Result { return Result{err: err} }

// HandlerFunc is an http.Handler that returns a Result instead of writing.
type HandlerFunc func(r *http.Request) Result

func (fn HandlerFunc) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	res := fn(r)
	if res.err == nil {
		writeJSON(w, res.status, res.body)
		return
	}
	status, msg, ok := classify(res.err)
	if !ok {
		middleware.Fail(w, r, res.err)
		return
	}
	if status >= http.StatusInternalServerError {
		logger.LogError("request failed",
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(res.err),
		)
	}
	writeError(w, status, msg)
}

// classify maps a domain error to its status and public message. Errors it
// does not recognise are left to the error middleware.
func classify(err error) (status int, msg string, ok bool) {
	var (
		validation *domain.ValidationError
		notFound   *domain.NotFoundError
		conflict   *domain.ConflictError
		svc        *domain.ServiceError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, validation.Message, true
	case errors.As(err, &notFound):
		if notFound.Precondition {
			return http.StatusBadRequest, notFound.Message, true
		}
		return http.StatusNotFound, notFound.Message, true
	case errors.As(err, &conflict):
		return http.StatusConflict, conflict.Message, true
	case errors.As(err, &svc):
		if svc.Upstream {
			return http.StatusBadGateway, "A required service is unavailable. Please try again later.", true
		}
		return http.StatusInternalServerError, "Internal server error", true
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "Unauthorized", true
	default:
		return 0, "", false
	}
}

// decode reads a JSON body into v. Any failure is reported as a validation
// error so it renders as 400.
func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.NewValidationError("Request body is required")
		}
		return domain.NewValidationError("Invalid request body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, Envelope{Success: false, Message: msg})
}
