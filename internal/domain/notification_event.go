package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type NotificationStatus string

const (
	NotificationStatusPending    NotificationStatus = "pending"
	NotificationStatusDispatched NotificationStatus = "dispatched"
	NotificationStatusFailed     NotificationStatus = "failed"
)

type NotificationType string

const (
	NotificationTransactionCreated NotificationType = "transaction.created"
	NotificationTransactionUpdated NotificationType = "transaction.updated"
	NotificationTransactionDeleted NotificationType = "transaction.deleted"
	NotificationCommissionApproved NotificationType = "commission.approved"
	NotificationCommissionRejected NotificationType = "commission.rejected"
	NotificationCommissionPaid     NotificationType = "commission.paid"
	NotificationFloatLowBalance    NotificationType = "float.low_balance"
)

type NotificationEvent struct {
	ID          uuid.UUID
	EventType   NotificationType
	AggregateID uuid.UUID
	Payload     json.RawMessage
	Status      NotificationStatus
	Attempts    int
	LastAttempt *time.Time
	CreatedAt   time.Time
}
