// Package qualify runs the server side of the qualification workflow:
// duplicate checks, Reddit verification, matching and contractor requests.
package qualify

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fairdatause/qualify-api/internal/domain"
	"github.com/fairdatause/qualify-api/internal/logger"
	"github.com/fairdatause/qualify-api/internal/metrics"
	"github.com/fairdatause/qualify-api/internal/notify"
	"github.com/fairdatause/qualify-api/internal/pkg/id"
	"github.com/fairdatause/qualify-api/internal/pkg/validate"
	"go.uber.org/zap"
)

// User-facing messages.
const (
	MsgSubmitted          = "Application processed successfully"
	MsgRedditNotFound     = "Reddit user does not exist"
	MsgUserExists         = "User already exists"
	MsgContactRequired    = "Email or phone is required"
	MsgUserIDRequired     = "userId is required"
	MsgApplicantNotFound  = "User not found. Please complete the qualification form first."
	MsgIntroductionQueued = "We've just pinged them. You'll be sent an email and text invite within 72 hours."
)

// EventQualificationSubmitted is published after an applicant is stored.
const EventQualificationSubmitted = "qualification.submitted"

type Service interface {
	CheckUserExists(ctx context.Context, req domain.CheckUserRequest) (bool, error)
	SubmitQualification(ctx context.Context, sub domain.QualificationSubmission) (*domain.QualificationOutcome, error)
	RequestContractorIntroduction(ctx context.Context, userID string) (string, error)
	Companies() []domain.Company
}

type applicantStore interface {
	FindByContact(ctx context.Context, email, phone string) (*domain.Applicant, error)
	Get(ctx context.Context, applicantID string) (*domain.Applicant, error)
	Create(ctx context.Context, a *domain.Applicant) error
	RecordContractorRequest(ctx context.Context, applicantID string, at time.Time) error
}

type redditChecker interface {
	UserExists(ctx context.Context, username string) (bool, error)
}

type notifier interface {
	Notify(ctx context.Context, in notify.Introduction) error
}

type archiver interface {
	Store(ctx context.Context, v interface{}) (string, error)
}

type eventPublisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

type service struct {
	applicants applicantStore
	reddit     redditChecker
	notifier   notifier
	archive    archiver
	events     eventPublisher
	metrics    metrics.Recorder
	now        func() time.Time
}

// ServiceDeps wires the service. Archive and Events are optional.
type ServiceDeps struct {
	Applicants applicantStore
	Reddit     redditChecker
	Notifier   notifier
	Archive    archiver
	Events     eventPublisher
	Metrics    metrics.Recorder
	Now        func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		applicants: deps.Applicants,
		reddit:     deps.Reddit,
		notifier:   deps.Notifier,
		archive:    deps.Archive,
		events:     deps.Events,
		metrics:    deps.Metrics,
		now:        deps.Now,
	}
	if s.metrics == nil {
		s.metrics = metrics.Nop{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *service) CheckUserExists(ctx context.Context, req domain.CheckUserRequest) (bool, error) {
	req.Email = validate.NormalizeEmail(req.Email)
	req.Phone = validate.NormalizePhone(req.Phone)
	if req.Email == "" && req.Phone == "" {
		return false, domain.NewValidationError(MsgContactRequired)
	}
	if err := validate.Struct(req); err != nil {
		return false, domain.NewValidationError(err.Error())
	}

	_, err := s.applicants.FindByContact(ctx, req.Email, req.Phone)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrNotFound):
		return false, nil
	default:
		return false, domain.NewServiceError("lookup applicant", err)
	}
}

func (s *service) SubmitQualification(ctx context.Context, sub domain.QualificationSubmission) (*domain.QualificationOutcome, error) {
	sub.Email = validate.NormalizeEmail(sub.Email)
	sub.Phone = validate.NormalizePhone(sub.Phone)
	sub.RedditUsername = validate.NormalizeRedditUsername(sub.RedditUsername)
	if err := validate.Struct(sub); err != nil {
		s.metrics.RecordSubmission("invalid")
		return nil, domain.NewValidationError(err.Error())
	}

	exists, err := s.reddit.UserExists(ctx, sub.RedditUsername)
	if err != nil {
		s.metrics.RecordRedditLookup("error")
		return nil, domain.NewUpstreamError("reddit lookup", err)
	}
	if !exists {
		s.metrics.RecordRedditLookup("missing")
		s.metrics.RecordSubmission("rejected")
		return nil, &domain.NotFoundError{Entity: "reddit_user", Message: MsgRedditNotFound, Precondition: true}
	}
	s.metrics.RecordRedditLookup("found")

	// Clients check first, but two tabs can still race past that check.
	if _, err := s.applicants.FindByContact(ctx, sub.Email, sub.Phone); err == nil {
		s.metrics.RecordSubmission("duplicate")
		return nil, &domain.ConflictError{Message: MsgUserExists}
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NewServiceError("lookup applicant", err)
	}

	match := EvaluateEligibility(sub)
	now := s.now().UTC()
	a := &domain.Applicant{
		ApplicantID:    id.NewApplicantID(),
		Email:          sub.Email,
		Phone:          sub.Phone,
		RedditUsername: sub.RedditUsername,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if match != nil {
		a.MatchedCompanySlug = match.Slug
	}
	if err := s.applicants.Create(ctx, a); err != nil {
		return nil, domain.NewServiceError("store applicant", err)
	}

	outcome := "ineligible"
	if match != nil {
		outcome = "matched"
	}
	s.metrics.RecordSubmission(outcome)
	logger.LogInfo("qualification stored",
		zap.String("user_id", a.ApplicantID),
		zap.String("outcome", outcome),
	)

	s.afterSubmit(ctx, a, sub)
	return &domain.QualificationOutcome{
		Message:        MsgSubmitted,
		UserID:         a.ApplicantID,
		MatchedCompany: match,
	}, nil
}

// afterSubmit archives the submission and announces it. Neither step may
// fail a submission that is already stored.
func (s *service) afterSubmit(ctx context.Context, a *domain.Applicant, sub domain.QualificationSubmission) {
	if s.archive != nil {
		record := struct {
			UserID     string                         `json:"userId"`
			Submission domain.QualificationSubmission `json:"submission"`
			ReceivedAt time.Time                      `json:"receivedAt"`
		}{a.ApplicantID, sub, a.CreatedAt}
		if _, err := s.archive.Store(ctx, record); err != nil {
			logger.LogWarn("could not archive submission", zap.String("user_id", a.ApplicantID), zap.Error(err))
		}
	}
	if s.events != nil {
		if err := s.events.Publish(ctx, EventQualificationSubmitted, a); err != nil {
			logger.LogWarn("could not publish submission event", zap.String("user_id", a.ApplicantID), zap.Error(err))
		}
	}
}

func (s *service) RequestContractorIntroduction(ctx context.Context, userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", domain.NewValidationError(MsgUserIDRequired)
	}

	// Applicant ids are UUIDs; anything else cannot name an applicant.
	if !id.IsApplicantID(userID) {
		return "", &domain.NotFoundError{Entity: "applicant", Message: MsgApplicantNotFound}
	}

	a, err := s.applicants.Get(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return "", &domain.NotFoundError{Entity: "applicant", Message: MsgApplicantNotFound}
	}
	if err != nil {
		return "", domain.NewServiceError("load applicant", err)
	}

	now := s.now().UTC()
	in := notify.Introduction{
		ApplicantID:    a.ApplicantID,
		Email:          a.Email,
		Phone:          a.Phone,
		RedditUsername: a.RedditUsername,
		CompanySlug:    a.MatchedCompanySlug,
		RequestNumber:  a.ContractorRequests + 1,
		RequestedAt:    now,
	}
	if err := s.notifier.Notify(ctx, in); err != nil {
		return "", domain.NewUpstreamError("notify contractor", err)
	}

	// The counter tracks delivered introductions. A failure here does not
	// undo a notification that already went out.
	if err := s.applicants.RecordContractorRequest(ctx, a.ApplicantID, now); err != nil {
		logger.LogWarn("could not record contractor request",
			zap.String("user_id", a.ApplicantID), zap.Error(err))
	}
	return MsgIntroductionQueued, nil
}

func (s *service) Companies() []domain.Company {
	return Companies()
}

var _ notifier = (*notify.Fanout)(nil)
