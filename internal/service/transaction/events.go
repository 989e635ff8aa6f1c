package transaction

import (
	"github.com/google/uuid"

	"github.com/josh-kwaku/float-ledger/internal/domain"
)

type transactionEvent struct {
	TransactionID uuid.UUID          `json:"transaction_id"`
	Reference     string             `json:"reference"`
	ServiceType   domain.ServiceType `json:"service_type"`
	Direction     domain.Direction   `json:"direction"`
	Amount        int64              `json:"amount"`
	Fee           int64              `json:"fee"`
	CustomerName  string             `json:"customer_name,omitempty"`
	CustomerPhone string             `json:"customer_phone,omitempty"`
	BranchID      uuid.UUID          `json:"branch_id"`
	CashTillDelta int64              `json:"cash_till_delta"`
	FloatDelta    int64              `json:"float_delta"`
}

func newTransactionEvent(t *domain.Transaction) transactionEvent {
	return transactionEvent{
		TransactionID: t.ID,
		Reference:     t.Reference,
		ServiceType:   t.ServiceType,
		Direction:     t.Direction,
		Amount:        t.Amount,
		Fee:           t.Fee,
		CustomerName:  t.CustomerName,
		CustomerPhone: t.CustomerPhone,
		BranchID:      t.BranchID,
		CashTillDelta: t.CashTillDelta,
		FloatDelta:    t.FloatDelta,
	}
}

type lowBalanceEvent struct {
	AccountID    uuid.UUID          `json:"account_id"`
	BranchID     uuid.UUID          `json:"branch_id"`
	AccountType  domain.AccountType `json:"account_type"`
	Balance      int64              `json:"balance"`
	MinThreshold int64              `json:"min_threshold"`
}
