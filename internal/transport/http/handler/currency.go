package handler

import (
	"context"
	"net/http"

	"github.com/fairdatause/qualify-api/internal/currency"
	"github.com/fairdatause/qualify-api/internal/transport/http/middleware"
)

type currencyDetector interface {
	Detect(ctx context.Context, ip string) currency.Currency
}

type CurrencyHandler struct {
	detector currencyDetector
}

func NewCurrencyHandler(d currencyDetector) *CurrencyHandler {
	return &CurrencyHandler{detector: d}
}

// Get handles GET /api/currency. It always succeeds; lookups that fail
// resolve to USD.
func (h *CurrencyHandler) Get(r *http.Request) Result {
	c := currency.USD
	if h.detector != nil {
		c = h.detector.Detect(r.Context(), middleware.ClientIP(r))
	}
	return Ok(Envelope{Success: true, Data: c})
}
