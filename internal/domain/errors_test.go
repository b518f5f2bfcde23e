package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_IsBadRequest(t *testing.T) {
	err := fmt.Errorf("submit: %w", NewValidationError("email is required"))
	assert.True(t, errors.Is(err, ErrBadRequest))

	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
	assert.Equal(t, "email is required", ve.Message)
}

func TestNotFoundError_IsNotFound(t *testing.T) {
	err := &NotFoundError{Entity: "applicant", Message: "missing"}
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "missing", err.Error())
}

func TestConflictError_IsConflict(t *testing.T) {
	err := fmt.Errorf("submit: %w", &ConflictError{Message: "User already exists"})
	assert.True(t, errors.Is(err, ErrConflict))
	assert.Equal(t, "submit: User already exists", err.Error())
}

func TestServiceError_UnwrapsBoth(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewUpstreamError("reddit lookup", cause)

	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.True(t, errors.Is(err, cause))
	assert.True(t, err.Upstream)
	assert.Equal(t, "reddit lookup: connection refused", err.Error())
}

func TestServiceError_NilCause(t *testing.T) {
	err := NewServiceError("store", nil)
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.Equal(t, "store: service unavailable", err.Error())
}

func TestCompany_Match(t *testing.T) {
	c := Company{Name: "Acme", Slug: "acme", PayRate: "$1.00 per hour", Bonus: "$10", Locked: true}
	assert.Equal(t, &MatchedCompany{Name: "Acme", Slug: "acme", PayRate: "$1.00 per hour", Bonus: "$10"}, c.Match())
}
