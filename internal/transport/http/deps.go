package http

import (
	"context"

	"github.com/fairdatause/qualify-api/internal/currency"
	"github.com/fairdatause/qualify-api/internal/domain"
	jwtinfra "github.com/fairdatause/qualify-api/internal/infrastructure/jwt"
	"github.com/fairdatause/qualify-api/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// QualifyService is the minimal interface the router requires from the qualification service.
type QualifyService interface {
	CheckUserExists(ctx context.Context, req domain.CheckUserRequest) (bool, error)
	SubmitQualification(ctx context.Context, sub domain.QualificationSubmission) (*domain.QualificationOutcome, error)
	RequestContractorIntroduction(ctx context.Context, userID string) (string, error)
	Companies() []domain.Company
}

// CurrencyDetector is the minimal interface the router requires from the currency helper.
type CurrencyDetector interface {
	Detect(ctx context.Context, ip string) currency.Currency
}

// TokenVerifier checks bearer tokens for /api/me.
type TokenVerifier interface {
	Verify(tokenStr string) (*jwtinfra.Claims, error)
}

// Deps holds everything the router serves. Currency, Tokens and Gatherer are
// optional; their routes degrade or disappear when unset.
type Deps struct {
	Qualify  QualifyService
	Currency CurrencyDetector
	Tokens   TokenVerifier
	Metrics  metrics.Recorder
	Gatherer prometheus.Gatherer
}
