// Package notify publishes per-tenant renewal summaries to RabbitMQ.
// Delivery to humans (email, in-app) happens downstream of the queue and
// is not this engine's concern.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/careloop/careplan-backend/internal/config"
	"github.com/careloop/careplan-backend/internal/domain"
)

// Publisher writes one persistent JSON message per tenant per sweep to a
// durable queue.
type Publisher struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
	log   *slog.Logger
}

// NewPublisher dials the broker, opens a channel and declares the queue.
// The queue is durable so summaries survive a broker restart.
func NewPublisher(cfg config.NotifyConfig, logger *slog.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(
		cfg.Queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue %q: %w", cfg.Queue, err)
	}

	return &Publisher{
		conn:  conn,
		ch:    ch,
		queue: cfg.Queue,
		log:   logger.With("adapter", "notify"),
	}, nil
}

// PublishTenantSummary sends one summary message. A broker failure is
// reported as an external error; the sweep's audit writes are already
// durable and are not affected by notification failures.
func (p *Publisher) PublishTenantSummary(ctx context.Context, summary domain.TenantRenewalSummary) error {
	body, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	err = p.ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return domain.NewExternalError("notify", "publish tenant summary", err)
	}

	p.log.InfoContext(ctx, "tenant summary published",
		slog.String("tenant_id", summary.TenantID.String()),
		slog.Int("clients", len(summary.Clients)),
	)

	return nil
}

// Close releases the channel and connection.
func (p *Publisher) Close() error {
	if err := p.ch.Close(); err != nil {
		_ = p.conn.Close()
		return fmt.Errorf("close channel: %w", err)
	}
	if err := p.conn.Close(); err != nil {
		return fmt.Errorf("close connection: %w", err)
	}
	return nil
}
