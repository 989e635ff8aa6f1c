package domain

import (
	"time"

	"github.com/google/uuid"
)

// MaxAmount bounds any single amount, fee or configured balance in minor
// units. Sums of two bounded values cannot overflow int64.
const MaxAmount int64 = 1_000_000_000_000_000

// ValidAmount reports whether v is a positive amount within MaxAmount.
func ValidAmount(v int64) bool {
	return v > 0 && v <= MaxAmount
}

type ServiceType string

const (
	ServiceMomo          ServiceType = "momo"
	ServiceAgencyBanking ServiceType = "agency_banking"
	ServiceEZwich        ServiceType = "e_zwich"
	ServicePower         ServiceType = "power"
	ServiceBillPayment   ServiceType = "bill_payment"
	ServiceJumia         ServiceType = "jumia"
)

type Direction string

const (
	DirectionCashIn        Direction = "cash_in"
	DirectionCashOut       Direction = "cash_out"
	DirectionDeposit       Direction = "deposit"
	DirectionWithdrawal    Direction = "withdrawal"
	DirectionInterbankOut  Direction = "interbank_out"
	DirectionInterbankIn   Direction = "interbank_in"
	DirectionCardIssuance  Direction = "card_issuance"
	DirectionTokenSale     Direction = "token_sale"
	DirectionPayment       Direction = "payment"
	DirectionPODCollection Direction = "pod_collection"
	DirectionSettlement    Direction = "settlement"
)

type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusFailed    TransactionStatus = "failed"
)

type Transaction struct {
	ID                uuid.UUID
	ServiceType       ServiceType
	Direction         Direction
	Amount            int64
	Fee               int64
	CustomerName      string
	CustomerPhone     string
	CustomerRef       string
	BranchID          uuid.UUID
	UserID            uuid.UUID
	CashTillAccountID uuid.UUID
	FloatAccountID    uuid.UUID
	Status            TransactionStatus
	CashTillDelta     int64
	FloatDelta        int64
	Reference         string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// AppliedEffect returns the stored balance movements of the transaction.
func (t *Transaction) AppliedEffect() AppliedEffect {
	return AppliedEffect{
		SourceID: t.ID,
		Legs: []Leg{
			{AccountID: t.CashTillAccountID, Delta: t.CashTillDelta},
			{AccountID: t.FloatAccountID, Delta: t.FloatDelta},
		},
	}
}

// Leg is a signed movement on one float account.
type Leg struct {
	AccountID uuid.UUID
	Delta     int64
}

// AppliedEffect is everything a posting did to operational balances,
// keyed by the source id its journal lines were written under.
type AppliedEffect struct {
	SourceID uuid.UUID
	Legs     []Leg
}

type TransactionFilter struct {
	BranchID       *uuid.UUID
	FloatAccountID *uuid.UUID
	ServiceType    *ServiceType
	Status         *TransactionStatus
	From           *time.Time
	To             *time.Time
	Limit          int
	Offset         int
}

type MovementKind string

const (
	MovementKindTransaction MovementKind = "transaction"
	MovementKindCommission  MovementKind = "commission"
)

// Movement is a single signed delta on a float account, used to replay
// balance history.
type Movement struct {
	SourceID    uuid.UUID
	Kind        MovementKind
	Reference   string
	Description string
	Delta       int64
	OccurredAt  time.Time
}

type MovementFilter struct {
	AccountID uuid.UUID
	From      *time.Time
	To        *time.Time
}
