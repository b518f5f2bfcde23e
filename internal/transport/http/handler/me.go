package handler

import (
	"net/http"

	"github.com/fairdatause/qualify-api/internal/domain"
	"github.com/fairdatause/qualify-api/internal/transport/http/middleware"
)

type meUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
	Role  string `json:"role"`
}

type meData struct {
	User meUser `json:"user"`
}

// Me handles GET /api/me and echoes the verified token's identity.
func Me(r *http.Request) Result {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return Err(domain.ErrUnauthorized)
	}
	return Ok(Envelope{Success: true, Data: meData{User: meUser{
		ID:    claims.UserID(),
		Email: claims.Email,
		Phone: claims.Phone,
		Role:  claims.Role,
	}}})
}
