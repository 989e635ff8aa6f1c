package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/float-ledger/internal/domain"
)

type notificationQueue interface {
	GetPending(ctx context.Context, limit int) ([]domain.NotificationEvent, error)
	RecordAttempt(ctx context.Context, id uuid.UUID, status domain.NotificationStatus) error
}

type publisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

const dispatchBatchSize = 25

// Dispatcher drains the notification outbox to the broker. Events that keep
// failing are parked as failed after maxAttempts.
type Dispatcher struct {
	events      notificationQueue
	publisher   publisher
	logger      *slog.Logger
	interval    time.Duration
	maxAttempts int
}

func NewDispatcher(events notificationQueue, pub publisher, logger *slog.Logger, interval time.Duration, maxAttempts int) *Dispatcher {
	return &Dispatcher{
		events:      events,
		publisher:   pub,
		logger:      logger,
		interval:    interval,
		maxAttempts: maxAttempts,
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	d.logger.Info("notification dispatcher started", "interval", d.interval)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("notification dispatcher stopped")
			return
		case <-ticker.C:
			d.poll(ctx)
		}
	}
}

func (d *Dispatcher) poll(ctx context.Context) {
	events, err := d.events.GetPending(ctx, dispatchBatchSize)
	if err != nil {
		d.logger.Error("failed to fetch pending notifications", "error", err)
		return
	}

	for _, event := range events {
		if err := d.dispatch(ctx, event); err != nil {
			d.logger.Error("failed to dispatch notification",
				"event_id", event.ID,
				"event_type", event.EventType,
				"error", err,
			)
		}
	}
}

type envelope struct {
	EventID     uuid.UUID               `json:"event_id"`
	EventType   domain.NotificationType `json:"event_type"`
	AggregateID uuid.UUID               `json:"aggregate_id"`
	OccurredAt  time.Time               `json:"occurred_at"`
	Data        json.RawMessage         `json:"data"`
}

func (d *Dispatcher) dispatch(ctx context.Context, event domain.NotificationEvent) error {
	body, err := json.Marshal(envelope{
		EventID:     event.ID,
		EventType:   event.EventType,
		AggregateID: event.AggregateID,
		OccurredAt:  event.CreatedAt,
		Data:        event.Payload,
	})
	if err != nil {
		d.logger.Error("malformed notification payload", "event_id", event.ID, "error", err)
		return d.events.RecordAttempt(ctx, event.ID, domain.NotificationStatusFailed)
	}

	if err := d.publisher.Publish(ctx, string(event.EventType), body); err != nil {
		status := domain.NotificationStatusPending
		if event.Attempts+1 >= d.maxAttempts {
			status = domain.NotificationStatusFailed
			d.logger.Warn("notification abandoned", "event_id", event.ID, "attempts", event.Attempts+1)
		}
		if rerr := d.events.RecordAttempt(ctx, event.ID, status); rerr != nil {
			return fmt.Errorf("dispatch: record attempt: %w", rerr)
		}
		return fmt.Errorf("dispatch: %w", err)
	}

	if err := d.events.RecordAttempt(ctx, event.ID, domain.NotificationStatusDispatched); err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}
	d.logger.Debug("notification dispatched", "event_id", event.ID, "event_type", event.EventType)
	return nil
}
