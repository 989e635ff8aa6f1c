package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/float-ledger/internal/domain"
	"github.com/josh-kwaku/float-ledger/internal/logging"
)

type notificationWriter interface {
	Create(ctx context.Context, event *domain.NotificationEvent) error
}

// Outbox records notifications for later dispatch. It runs after the
// posting has committed, so a failure here is logged and never surfaces to
// the caller.
type Outbox struct {
	events notificationWriter
}

func NewOutbox(events notificationWriter) *Outbox {
	return &Outbox{events: events}
}

func (o *Outbox) Notify(ctx context.Context, eventType domain.NotificationType, aggregateID uuid.UUID, payload any) {
	log := logging.FromContext(ctx)

	body, err := json.Marshal(payload)
	if err != nil {
		log.Error("failed to encode notification", "event_type", eventType, "aggregate_id", aggregateID, "error", err)
		return
	}

	event := &domain.NotificationEvent{
		ID:          uuid.New(),
		EventType:   eventType,
		AggregateID: aggregateID,
		Payload:     body,
		Status:      domain.NotificationStatusPending,
		CreatedAt:   time.Now().UTC(),
	}
	if err := o.events.Create(ctx, event); err != nil {
		log.Warn("notification not recorded", "event_type", eventType, "aggregate_id", aggregateID, "error", err)
		return
	}
	log.Debug("notification queued", "event_id", event.ID, "event_type", eventType)
}
