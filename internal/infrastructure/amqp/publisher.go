// Package amqpinfra publishes domain events to a RabbitMQ topic exchange.
package amqpinfra

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fairdatause/qualify-api/internal/pkg/id"
	json "github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Event is the envelope every message carries.
type Event struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurredAt"`
	Data       interface{} `json:"data"`
}

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher owns one connection and one channel. amqp091 channels are not
// safe for concurrent publishing, so Publish serializes.
type Publisher struct {
	conn     *amqp.Connection
	exchange string
	now      func() time.Time

	mu sync.Mutex
	ch channel
}

// Dial connects and declares exchange as a durable topic exchange.
func Dial(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp declare exchange %s: %w", exchange, err)
	}
	return &Publisher{conn: conn, exchange: exchange, now: time.Now, ch: ch}, nil
}

// Publish wraps data in an Event and sends it with eventType as routing key.
func (p *Publisher) Publish(ctx context.Context, eventType string, data interface{}) error {
	body, err := json.Marshal(Event{ID: id.New(), Type: eventType, OccurredAt: p.now().UTC(), Data: data})
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    p.now(),
		Type:         eventType,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(ctx, p.exchange, eventType, false, false, msg)
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.ch.Close()
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
