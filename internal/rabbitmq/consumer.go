package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler processes one delivery. Returning false requeues it.
type Handler func(ctx context.Context, routingKey string, body []byte) bool

type Consumer struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	logger *slog.Logger
}

func NewConsumer(amqpURL string, logger *slog.Logger) (*Consumer, error) {
	cleanURL, err := sanitizeURL(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("NewConsumer: %w", err)
	}

	conn, err := amqp.Dial(cleanURL)
	if err != nil {
		return nil, fmt.Errorf("NewConsumer: dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("NewConsumer: channel: %w", err)
	}

	return &Consumer{conn: conn, ch: ch, logger: logger}, nil
}

// Consume binds queue to each routing key pattern on exchange and feeds
// deliveries to h until ctx is cancelled or the channel closes.
func (c *Consumer) Consume(ctx context.Context, exchange, queue string, patterns []string, h Handler) error {
	if len(patterns) == 0 {
		return fmt.Errorf("Consume: no bindings provided")
	}

	if err := c.ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("Consume: declare exchange: %w", err)
	}

	q, err := c.ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("Consume: declare queue: %w", err)
	}

	for _, p := range patterns {
		if err := c.ch.QueueBind(q.Name, p, exchange, false, nil); err != nil {
			return fmt.Errorf("Consume: bind %s: %w", p, err)
		}
	}

	msgs, err := c.ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("Consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("Consume: delivery channel closed")
			}
			if h(ctx, d.RoutingKey, d.Body) {
				d.Ack(false)
				continue
			}
			c.logger.Warn("handler failed, requeuing", "routing_key", d.RoutingKey)
			d.Nack(false, true)
		}
	}
}

func (c *Consumer) Close() {
	if c.ch != nil {
		c.ch.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
}
