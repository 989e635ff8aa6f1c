package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/float-ledger/internal/domain"
	"github.com/josh-kwaku/float-ledger/internal/repository/memory"
)

type published struct {
	routingKey string
	body       []byte
}

type fakePublisher struct {
	mu   sync.Mutex
	fail error
	sent []published
}

func (p *fakePublisher) Publish(_ context.Context, routingKey string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	p.sent = append(p.sent, published{routingKey: routingKey, body: body})
	return nil
}

func queue(t *testing.T, outbox *memory.Outbox, eventType domain.NotificationType, payload any) uuid.UUID {
	t.Helper()
	before := len(outbox.Events(eventType))
	NewOutbox(outbox).Notify(context.Background(), eventType, uuid.New(), payload)
	events := outbox.Events(eventType)
	require.Len(t, events, before+1)
	for _, e := range events {
		if e.Attempts == 0 && e.Status == domain.NotificationStatusPending {
			return e.ID
		}
	}
	t.Fatal("queued event not found")
	return uuid.Nil
}

func eventByID(outbox *memory.Outbox, eventType domain.NotificationType, id uuid.UUID) domain.NotificationEvent {
	for _, e := range outbox.Events(eventType) {
		if e.ID == id {
			return e
		}
	}
	return domain.NotificationEvent{}
}

func TestDispatcher_PublishesEnvelope(t *testing.T) {
	outbox := memory.NewOutbox()
	pub := &fakePublisher{}
	d := NewDispatcher(outbox, pub, slog.Default(), time.Second, 3)

	id := queue(t, outbox, domain.NotificationTransactionCreated, map[string]any{"reference": "MOMO-1"})

	d.poll(context.Background())

	require.Len(t, pub.sent, 1)
	assert.Equal(t, "transaction.created", pub.sent[0].routingKey)

	var env struct {
		EventID   uuid.UUID      `json:"event_id"`
		EventType string         `json:"event_type"`
		Data      map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(pub.sent[0].body, &env))
	assert.Equal(t, id, env.EventID)
	assert.Equal(t, "transaction.created", env.EventType)
	assert.Equal(t, "MOMO-1", env.Data["reference"])

	stored := eventByID(outbox, domain.NotificationTransactionCreated, id)
	assert.Equal(t, domain.NotificationStatusDispatched, stored.Status)
	assert.Equal(t, 1, stored.Attempts)

	// Dispatched events are not picked up again.
	d.poll(context.Background())
	assert.Len(t, pub.sent, 1)
}

func TestDispatcher_GivesUpAfterMaxAttempts(t *testing.T) {
	outbox := memory.NewOutbox()
	pub := &fakePublisher{fail: errors.New("broker down")}
	d := NewDispatcher(outbox, pub, slog.Default(), time.Second, 3)

	id := queue(t, outbox, domain.NotificationFloatLowBalance, map[string]any{"balance": 10})

	d.poll(context.Background())
	d.poll(context.Background())
	stored := eventByID(outbox, domain.NotificationFloatLowBalance, id)
	assert.Equal(t, domain.NotificationStatusPending, stored.Status)
	assert.Equal(t, 2, stored.Attempts)

	d.poll(context.Background())
	stored = eventByID(outbox, domain.NotificationFloatLowBalance, id)
	assert.Equal(t, domain.NotificationStatusFailed, stored.Status)
	assert.Equal(t, 3, stored.Attempts)

	pub.fail = nil
	d.poll(context.Background())
	assert.Empty(t, pub.sent)
}

func TestDispatcher_StopsOnCancel(t *testing.T) {
	d := NewDispatcher(memory.NewOutbox(), &fakePublisher{}, slog.Default(), 10*time.Millisecond, 3)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop")
	}
}

type failingWriter struct{}

func (failingWriter) Create(context.Context, *domain.NotificationEvent) error {
	return errors.New("disk full")
}

func TestOutbox_SwallowsWriteErrors(t *testing.T) {
	assert.NotPanics(t, func() {
		NewOutbox(failingWriter{}).Notify(context.Background(), domain.NotificationCommissionPaid, uuid.New(), struct{}{})
	})
}

func TestOutbox_RejectsUnencodablePayload(t *testing.T) {
	outbox := memory.NewOutbox()
	NewOutbox(outbox).Notify(context.Background(), domain.NotificationCommissionPaid, uuid.New(), make(chan int))
	assert.Empty(t, outbox.Events(domain.NotificationCommissionPaid))
}
