// Package memory holds applicants in process memory. It backs local
// development and tests when no database is configured.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fairdatause/qualify-api/internal/domain"
)

type ApplicantRepo struct {
	mu    sync.RWMutex
	byID  map[string]*domain.Applicant
	order []string
}

func NewApplicantRepo() *ApplicantRepo {
	return &ApplicantRepo{byID: make(map[string]*domain.Applicant)}
}

func (r *ApplicantRepo) Create(_ context.Context, a *domain.Applicant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[a.ApplicantID]; ok {
		return fmt.Errorf("applicant %s already stored: %w", a.ApplicantID, domain.ErrConflict)
	}
	cp := *a
	r.byID[a.ApplicantID] = &cp
	r.order = append(r.order, a.ApplicantID)
	return nil
}

func (r *ApplicantRepo) Get(_ context.Context, applicantID string) (*domain.Applicant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byID[applicantID]
	if !ok {
		return nil, fmt.Errorf("applicant not found: %w", domain.ErrNotFound)
	}
	cp := *a
	return &cp, nil
}

func (r *ApplicantRepo) FindByContact(_ context.Context, email, phone string) (*domain.Applicant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		a := r.byID[id]
		if (email != "" && strings.EqualFold(a.Email, email)) || (phone != "" && a.Phone == phone) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("applicant not found: %w", domain.ErrNotFound)
}

func (r *ApplicantRepo) RecordContractorRequest(_ context.Context, applicantID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[applicantID]
	if !ok {
		return fmt.Errorf("applicant not found: %w", domain.ErrNotFound)
	}
	a.ContractorRequests++
	a.LastContractorRequestAt = &at
	a.UpdatedAt = at
	return nil
}
