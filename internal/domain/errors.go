package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadRequest   = errors.New("bad request")
	ErrUnavailable  = errors.New("service unavailable")
)

// ValidationError reports malformed or missing input the caller can correct.
type ValidationError struct {
	Message string
}

func NewValidationError(msg string) *ValidationError { return &ValidationError{Message: msg} }

func (e *ValidationError) Error() string { return e.Message }
func (e *ValidationError) Unwrap() error { return ErrBadRequest }

// NotFoundError reports a referenced entity that does not exist.
// Precondition marks entities the request depends on but does not address,
// such as the Reddit account named in a submission; those map to 400, not 404.
type NotFoundError struct {
	Entity       string
	Message      string
	Precondition bool
}

func (e *NotFoundError) Error() string { return e.Message }
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ConflictError reports a request that collides with existing state.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }
func (e *ConflictError) Unwrap() error { return ErrConflict }

// ServiceError reports a failing downstream dependency.
// Upstream is set for third-party APIs (502); local stores leave it unset (500).
type ServiceError struct {
	Op       string
	Upstream bool
	Err      error
}

func NewServiceError(op string, err error) *ServiceError {
	return &ServiceError{Op: op, Err: err}
}

func NewUpstreamError(op string, err error) *ServiceError {
	return &ServiceError{Op: op, Upstream: true, Err: err}
}

func (e *ServiceError) Error() string {
	if e.Err == nil {
		return e.Op + ": " + ErrUnavailable.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *ServiceError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrUnavailable}
	}
	return []error{ErrUnavailable, e.Err}
}
