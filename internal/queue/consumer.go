package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const maxBackoff = 30 * time.Second

type Consumer struct {
	url    string
	queue  string
	logger *slog.Logger
}

func NewConsumer(url, queue string, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{url: url, queue: queue, logger: logger}
}

// Consume delivers message bodies to handler until ctx is cancelled,
// reconnecting with backoff when the broker goes away. Handled messages are
// acked; failures are rejected without requeue.
func (c *Consumer) Consume(ctx context.Context, handler func(context.Context, []byte) error) error {
	backoff := time.Second
	for {
		err := c.consumeOnce(ctx, handler, func() { backoff = time.Second })
		if ctx.Err() != nil {
			return nil
		}
		c.logger.WarnContext(ctx, "rabbitmq consumer disconnected",
			slog.String("err", err.Error()),
			slog.Duration("retry_in", backoff),
		)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		if backoff < maxBackoff {
			backoff *= 2
		}
	}
}

func (c *Consumer) consumeOnce(ctx context.Context, handler func(context.Context, []byte) error, connected func()) error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer func() { _ = conn.Close() }()
	connected()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.logger.WarnContext(ctx, "rabbitmq set qos failed", slog.String("err", err.Error()))
	}
	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			if err := handler(ctx, d.Body); err != nil {
				c.logger.ErrorContext(ctx, "handle message failed", slog.String("type", d.Type), slog.String("err", err.Error()))
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}
