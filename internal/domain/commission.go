package domain

import (
	"time"

	"github.com/google/uuid"
)

type CommissionStatus string

const (
	CommissionStatusPending  CommissionStatus = "pending"
	CommissionStatusApproved CommissionStatus = "approved"
	CommissionStatusRejected CommissionStatus = "rejected"
	CommissionStatusPaid     CommissionStatus = "paid"
)

// Applied reports whether the commission has credited its source float.
func (s CommissionStatus) Applied() bool {
	return s == CommissionStatusApproved || s == CommissionStatusPaid
}

type Commission struct {
	ID               uuid.UUID
	SourceAccountID  uuid.UUID
	BranchID         uuid.UUID
	Amount           int64
	Description      string
	Status           CommissionStatus
	CreatedBy        uuid.UUID
	ApprovedBy       *uuid.UUID
	ApprovedAt       *time.Time
	RejectedBy       *uuid.UUID
	RejectedAt       *time.Time
	RejectionReason  *string
	PaidBy           *uuid.UUID
	PaidAt           *time.Time
	PaymentReference *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (c *Commission) AppliedEffect() AppliedEffect {
	return AppliedEffect{
		SourceID: c.ID,
		Legs:     []Leg{{AccountID: c.SourceAccountID, Delta: c.Amount}},
	}
}
