package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fairdatause/qualify-api/internal/domain"
	"github.com/lib/pq"
)

// invalidTextRepresentation is raised when an id is not a valid UUID.
const invalidTextRepresentation = "22P02"

const applicantColumns = `id, email, phone, reddit_username, matched_company_slug,
	contractor_requests, last_contractor_request_at, created_at, updated_at`

// ApplicantRepo persists applicants in the applicants table.
type ApplicantRepo struct {
	db *sql.DB
}

func NewApplicantRepo(db *sql.DB) *ApplicantRepo {
	return &ApplicantRepo{db: db}
}

func (r *ApplicantRepo) Create(ctx context.Context, a *domain.Applicant) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO applicants (id, email, phone, reddit_username, matched_company_slug,
			contractor_requests, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8)`,
		a.ApplicantID, a.Email, a.Phone, a.RedditUsername, a.MatchedCompanySlug,
		a.ContractorRequests, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert applicant: %w", err)
	}
	return nil
}

func (r *ApplicantRepo) Get(ctx context.Context, applicantID string) (*domain.Applicant, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+applicantColumns+` FROM applicants WHERE id = $1`, applicantID)
	return scanApplicant(row)
}

// FindByContact returns the oldest applicant whose email or phone matches.
// Empty arguments never match.
func (r *ApplicantRepo) FindByContact(ctx context.Context, email, phone string) (*domain.Applicant, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+applicantColumns+` FROM applicants
		 WHERE ($1 <> '' AND lower(email) = lower($1)) OR ($2 <> '' AND phone = $2)
		 ORDER BY created_at
		 LIMIT 1`,
		email, phone)
	return scanApplicant(row)
}

func (r *ApplicantRepo) RecordContractorRequest(ctx context.Context, applicantID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE applicants
		 SET contractor_requests = contractor_requests + 1,
		     last_contractor_request_at = $2,
		     updated_at = $2
		 WHERE id = $1`,
		applicantID, at)
	if err != nil {
		return fmt.Errorf("failed to record contractor request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("applicant not found: %w", domain.ErrNotFound)
	}
	return nil
}

func scanApplicant(row *sql.Row) (*domain.Applicant, error) {
	var (
		a       domain.Applicant
		slug    sql.NullString
		lastReq sql.NullTime
	)
	err := row.Scan(&a.ApplicantID, &a.Email, &a.Phone, &a.RedditUsername, &slug,
		&a.ContractorRequests, &lastReq, &a.CreatedAt, &a.UpdatedAt)
	var pqErr *pq.Error
	if errors.Is(err, sql.ErrNoRows) ||
		(errors.As(err, &pqErr) && pqErr.Code == invalidTextRepresentation) {
		return nil, fmt.Errorf("applicant not found: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan applicant: %w", err)
	}
	a.MatchedCompanySlug = slug.String
	if lastReq.Valid {
		t := lastReq.Time
		a.LastContractorRequestAt = &t
	}
	return &a, nil
}
