// Package workflow drives the applicant side of qualification: check for an
// existing sign-up, submit, then route to the matched company.
package workflow

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/fairdatause/qualify-api/internal/client"
	"github.com/fairdatause/qualify-api/internal/domain"
	"github.com/fairdatause/qualify-api/internal/logger"
	"github.com/fairdatause/qualify-api/internal/pkg/validate"
	"go.uber.org/zap"
)

type Kind int

const (
	KindInvalid Kind = iota
	KindAlreadyRegistered
	KindRejected
	KindMatched
	KindIneligible
	KindFailed
	KindIntroduced
	KindNotQualified
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindAlreadyRegistered:
		return "already_registered"
	case KindRejected:
		return "rejected"
	case KindMatched:
		return "matched"
	case KindIneligible:
		return "ineligible"
	case KindFailed:
		return "failed"
	case KindIntroduced:
		return "introduced"
	case KindNotQualified:
		return "not_qualified"
	default:
		return "unknown"
	}
}

const (
	MsgAlreadyRegistered = "It looks like you've already signed up. Check your email for next steps."
	MsgIneligible        = "Thanks for applying. No company is matching your profile right now."
	MsgFailed            = "Something went wrong. Please try again."

	// QualifyFormPath is where applicants without a record are sent.
	QualifyFormPath = "/social-qualify-form"
)

// ErrBusy is returned while another Submit is pending.
var ErrBusy = errors.New("a submission is already in progress")

// Outcome is what the applicant is shown next.
type Outcome struct {
	Kind         Kind
	Message      string
	UserID       string
	Company      *domain.MatchedCompany
	RedirectPath string
}

type api interface {
	CheckUserExists(ctx context.Context, email, phone string) (bool, error)
	SubmitQualification(ctx context.Context, sub domain.QualificationSubmission) (*domain.QualificationOutcome, error)
	RequestContractor(ctx context.Context, userID string) (string, error)
}

type Flow struct {
	api      api
	inFlight atomic.Bool
}

func New(a api) *Flow {
	return &Flow{api: a}
}

// Pending reports whether a Submit is in progress.
func (f *Flow) Pending() bool { return f.inFlight.Load() }

// Submit validates locally, checks for an existing sign-up and only then
// submits. The existence check always completes before submission starts.
func (f *Flow) Submit(ctx context.Context, sub domain.QualificationSubmission) (Outcome, error) {
	if !f.inFlight.CompareAndSwap(false, true) {
		return Outcome{}, ErrBusy
	}
	defer f.inFlight.Store(false)

	normalized := sub
	normalized.Email = validate.NormalizeEmail(sub.Email)
	normalized.Phone = validate.NormalizePhone(sub.Phone)
	normalized.RedditUsername = validate.NormalizeRedditUsername(sub.RedditUsername)
	if err := validate.Struct(normalized); err != nil {
		return Outcome{Kind: KindInvalid, Message: err.Error()}, nil
	}

	exists, err := f.api.CheckUserExists(ctx, normalized.Email, normalized.Phone)
	if err != nil {
		return failure(err), nil
	}
	if exists {
		return Outcome{Kind: KindAlreadyRegistered, Message: MsgAlreadyRegistered}, nil
	}

	res, err := f.api.SubmitQualification(ctx, sub)
	if err != nil {
		return failure(err), nil
	}
	if res.MatchedCompany == nil {
		return Outcome{Kind: KindIneligible, Message: MsgIneligible, UserID: res.UserID}, nil
	}
	return Outcome{
		Kind:         KindMatched,
		Message:      res.Message,
		UserID:       res.UserID,
		Company:      res.MatchedCompany,
		RedirectPath: "/companies/" + res.MatchedCompany.Slug,
	}, nil
}

// RequestIntroduction asks the team to introduce userID to the contractor.
// An unknown applicant is pointed back to the qualification form.
func (f *Flow) RequestIntroduction(ctx context.Context, userID string) Outcome {
	msg, err := f.api.RequestContractor(ctx, userID)
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return Outcome{Kind: KindNotQualified, Message: apiErr.Message, RedirectPath: QualifyFormPath}
		}
		return failure(err)
	}
	return Outcome{Kind: KindIntroduced, Message: msg, UserID: userID}
}

// failure maps an API rejection to its message and anything else to a
// generic retry prompt.
func failure(err error) Outcome {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError {
		return Outcome{Kind: KindRejected, Message: apiErr.Message}
	}
	logger.LogWarn("qualification request failed", zap.Error(err))
	if apiErr != nil && apiErr.Message != "" {
		return Outcome{Kind: KindFailed, Message: apiErr.Message}
	}
	return Outcome{Kind: KindFailed, Message: MsgFailed}
}
