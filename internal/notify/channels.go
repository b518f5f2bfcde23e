package notify

import (
	"context"
)

type poster interface {
	Post(ctx context.Context, text string) error
}

type smsSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

type mailer interface {
	SendEmail(to, subject, body string) error
}

type eventPublisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// EventContractorRequested is the routing key of introduction events.
const EventContractorRequested = "contractor.requested"

// Slack posts to an incoming webhook.
type Slack struct{ Webhook poster }

func (Slack) Name() string { return "slack" }

func (s Slack) Notify(ctx context.Context, in Introduction) error {
	return s.Webhook.Post(ctx, in.Text())
}

// SMS texts the on-call contractor phone.
type SMS struct {
	Sender smsSender
	To     string
}

func (SMS) Name() string { return "sms" }

func (s SMS) Notify(ctx context.Context, in Introduction) error {
	return s.Sender.SendSMS(ctx, s.To, in.Text())
}

// Email mails the contractor inbox.
type Email struct {
	Mailer mailer
	To     string
}

func (Email) Name() string { return "email" }

func (e Email) Notify(_ context.Context, in Introduction) error {
	return e.Mailer.SendEmail(e.To, "New contractor request", in.Text())
}

// Event publishes the introduction on the message bus.
type Event struct{ Publisher eventPublisher }

func (Event) Name() string { return "amqp" }

func (e Event) Notify(ctx context.Context, in Introduction) error {
	return e.Publisher.Publish(ctx, EventContractorRequested, in)
}
