package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/float-ledger/internal/domain"
)

// Outbox keeps notification events in process for deployments without a
// database.
type Outbox struct {
	mu     sync.Mutex
	events map[uuid.UUID]domain.NotificationEvent
}

func NewOutbox() *Outbox {
	return &Outbox{events: make(map[uuid.UUID]domain.NotificationEvent)}
}

func (o *Outbox) Create(_ context.Context, event *domain.NotificationEvent) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.events[event.ID] = *event
	return nil
}

func (o *Outbox) GetPending(_ context.Context, limit int) ([]domain.NotificationEvent, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	var pending []domain.NotificationEvent
	for _, e := range o.events {
		if e.Status == domain.NotificationStatusPending {
			pending = append(pending, e)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	if len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (o *Outbox) RecordAttempt(_ context.Context, id uuid.UUID, status domain.NotificationStatus) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	e, ok := o.events[id]
	if !ok {
		return fmt.Errorf("RecordAttempt: %w", domain.ErrNotFound)
	}
	now := time.Now().UTC()
	e.Status = status
	e.Attempts++
	e.LastAttempt = &now
	o.events[id] = e
	return nil
}

// Events returns every recorded event of the given type.
func (o *Outbox) Events(eventType domain.NotificationType) []domain.NotificationEvent {
	o.mu.Lock()
	defer o.mu.Unlock()

	var out []domain.NotificationEvent
	for _, e := range o.events {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}
