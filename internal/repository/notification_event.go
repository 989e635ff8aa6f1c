package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/float-ledger/internal/domain"
)

const notificationEventColumns = `id, event_type, aggregate_id, payload, status,
	attempts, last_attempt, created_at`

type NotificationEventRepository struct {
	db *sql.DB
}

func NewNotificationEventRepository(db *sql.DB) *NotificationEventRepository {
	return &NotificationEventRepository{db: db}
}

func (r *NotificationEventRepository) Create(ctx context.Context, event *domain.NotificationEvent) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notification_events (
			id, event_type, aggregate_id, payload, status, attempts, last_attempt, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		event.ID, event.EventType, event.AggregateID, []byte(event.Payload),
		event.Status, event.Attempts, event.LastAttempt, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// GetPending returns the oldest undelivered events. A single dispatcher
// per deployment drains the table.
func (r *NotificationEventRepository) GetPending(ctx context.Context, limit int) ([]domain.NotificationEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+notificationEventColumns+` FROM notification_events
		WHERE status = $1 ORDER BY created_at LIMIT $2`,
		domain.NotificationStatusPending, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("GetPending: %w", err)
	}
	defer rows.Close()

	var events []domain.NotificationEvent
	for rows.Next() {
		e, err := scanNotificationEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("GetPending: scan: %w", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetPending: rows: %w", err)
	}
	return events, nil
}

func (r *NotificationEventRepository) RecordAttempt(ctx context.Context, id uuid.UUID, status domain.NotificationStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notification_events SET status = $1, attempts = attempts + 1, last_attempt = now()
		WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("RecordAttempt: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("RecordAttempt: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("RecordAttempt: %w", domain.ErrNotFound)
	}
	return nil
}

func scanNotificationEvent(s scanner) (*domain.NotificationEvent, error) {
	var e domain.NotificationEvent
	var payload []byte
	err := s.Scan(
		&e.ID, &e.EventType, &e.AggregateID, &payload,
		&e.Status, &e.Attempts, &e.LastAttempt, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Payload = payload
	return &e, nil
}
