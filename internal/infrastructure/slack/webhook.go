// Package slack posts messages to a Slack incoming webhook.
package slack

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

type Webhook struct {
	http *resty.Client
	url  string
}

func NewWebhook(url string, timeout time.Duration) (*Webhook, error) {
	if url == "" {
		return nil, errors.New("slack webhook url is required")
	}
	return &Webhook{
		http: resty.New().SetTimeout(timeout).SetHeader("Content-Type", "application/json"),
		url:  url,
	}, nil
}

// Post sends text as a plain message. Slack answers "ok" with 200 on success.
func (w *Webhook) Post(ctx context.Context, text string) error {
	resp, err := w.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"text": text}).
		Post(w.url)
	if err != nil {
		return fmt.Errorf("slack webhook: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("slack webhook returned %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
