package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNotFound                   = errors.New("not found")
	ErrInvalidAmount              = errors.New("invalid amount")
	ErrUnsupportedTransactionType = errors.New("unsupported transaction type")
	ErrAccountNotFound            = errors.New("account not found")
	ErrAccountInactive            = errors.New("account inactive")
	ErrInsufficientBalance        = errors.New("insufficient balance")
	ErrGLMappingNotConfigured     = errors.New("gl mapping not configured")
	ErrUnbalancedJournal          = errors.New("unbalanced journal")
	ErrConcurrencyConflict        = errors.New("concurrency conflict")
	ErrInvalidStateTransition     = errors.New("invalid state transition")
	ErrInvalidRequest             = errors.New("invalid request")
	ErrDuplicateReference         = errors.New("duplicate transaction reference")
	ErrMappingExists              = errors.New("active gl mapping already exists")
	ErrCashTillExists             = errors.New("branch already has an active cash till")
)

// InsufficientBalanceError reports the shortfall on a single account.
// Required is the amount the posting needs to take out; Available is what
// the account can give up before hitting its floor.
type InsufficientBalanceError struct {
	AccountID uuid.UUID
	Required  int64
	Available int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance on %s: required %d, available %d", e.AccountID, e.Required, e.Available)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }
