// Package notify tells the team that an applicant asked to be introduced to
// a contractor.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fairdatause/qualify-api/internal/logger"
	"github.com/fairdatause/qualify-api/internal/metrics"
	"github.com/fairdatause/qualify-api/internal/pkg/sanitize"
	"go.uber.org/zap"
)

// Introduction is one contractor-introduction request.
type Introduction struct {
	ApplicantID    string    `json:"userId"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	RedditUsername string    `json:"redditUsername"`
	CompanySlug    string    `json:"companySlug,omitempty"`
	RequestNumber  int       `json:"requestNumber"`
	RequestedAt    time.Time `json:"requestedAt"`
}

// Text renders the introduction for human channels. User-supplied fields
// are stripped of markup first.
func (in Introduction) Text() string {
	var b strings.Builder
	b.WriteString("New contractor request\n")
	fmt.Fprintf(&b, "User ID: %s\n", in.ApplicantID)
	fmt.Fprintf(&b, "Email: %s\n", sanitize.Text(in.Email))
	fmt.Fprintf(&b, "Phone: %s\n", sanitize.Text(in.Phone))
	fmt.Fprintf(&b, "Reddit: u/%s", sanitize.Text(in.RedditUsername))
	if in.CompanySlug != "" {
		fmt.Fprintf(&b, "\nCompany: %s", in.CompanySlug)
	}
	if in.RequestNumber > 1 {
		fmt.Fprintf(&b, "\nRepeat request #%d", in.RequestNumber)
	}
	return b.String()
}

type Notifier interface {
	Name() string
	Notify(ctx context.Context, in Introduction) error
}

type channel struct {
	n        Notifier
	required bool
}

// Fanout delivers to every channel in order. Only required channels can fail
// the request; optional ones are logged and counted.
type Fanout struct {
	channels []channel
	rec      metrics.Recorder
}

func NewFanout(rec metrics.Recorder) *Fanout {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Fanout{rec: rec}
}

func (f *Fanout) Add(n Notifier, required bool) *Fanout {
	f.channels = append(f.channels, channel{n: n, required: required})
	return f
}

func (f *Fanout) Len() int { return len(f.channels) }

func (f *Fanout) Notify(ctx context.Context, in Introduction) error {
	if len(f.channels) == 0 {
		logger.LogWarn("no contractor notification channel configured", zap.String("user_id", in.ApplicantID))
		return nil
	}
	var errs []error
	for _, c := range f.channels {
		err := c.n.Notify(ctx, in)
		f.rec.RecordNotification(c.n.Name(), err)
		if err == nil {
			continue
		}
		logger.LogError("contractor notification failed",
			zap.String("channel", c.n.Name()),
			zap.String("user_id", in.ApplicantID),
			zap.Bool("required", c.required),
			zap.Error(err),
		)
		if c.required {
			errs = append(errs, fmt.Errorf("%s: %w", c.n.Name(), err))
		}
	}
	return errors.Join(errs...)
}
