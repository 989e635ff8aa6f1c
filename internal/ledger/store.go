// Package ledger holds the balance and general-ledger primitives every
// posting is built from. All mutating operations run against a Tx so a
// posting either lands completely or not at all.
package ledger

import (
	"context"

	"github.com/google/uuid"

	"github.com/josh-kwaku/float-ledger/internal/domain"
)

// Store is a ledger backend. RunInTx executes fn as one unit of work and
// commits only when fn returns nil.
type Store interface {
	Reader
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Reader serves committed state outside a unit of work.
type Reader interface {
	GetFloatAccount(ctx context.Context, id uuid.UUID) (*domain.FloatAccount, error)
	ListFloatAccounts(ctx context.Context, branchID uuid.UUID) ([]domain.FloatAccount, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, f domain.TransactionFilter) ([]domain.Transaction, error)
	GetCommission(ctx context.Context, id uuid.UUID) (*domain.Commission, error)
	ListGLEntries(ctx context.Context, sourceID uuid.UUID) ([]domain.GLEntry, error)
	GetGLAccount(ctx context.Context, id uuid.UUID) (*domain.GLAccount, error)
	ListMovements(ctx context.Context, f domain.MovementFilter) ([]domain.Movement, error)
}

// Tx is the set of writes and locked reads available inside a unit of work.
type Tx interface {
	// LockFloatAccount returns the row locked against concurrent writers
	// for the remainder of the unit of work.
	LockFloatAccount(ctx context.Context, id uuid.UUID) (*domain.FloatAccount, error)
	FindCashTill(ctx context.Context, branchID uuid.UUID) (*domain.FloatAccount, error)
	// AdjustBalance adds delta to the balance only if the result respects
	// the account floor, or if delta is non-negative. It returns
	// *domain.InsufficientBalanceError when the guard rejects the update.
	AdjustBalance(ctx context.Context, id uuid.UUID, delta int64) (*domain.FloatAccount, error)
	CreateFloatAccount(ctx context.Context, a *domain.FloatAccount) error
	SetFloatAccountActive(ctx context.Context, id uuid.UUID, active bool) error

	GetTransactionForUpdate(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	CreateTransaction(ctx context.Context, t *domain.Transaction) error
	UpdateTransaction(ctx context.Context, t *domain.Transaction) error
	DeleteTransaction(ctx context.Context, id uuid.UUID) error

	FindMapping(ctx context.Context, floatAccountID uuid.UUID, mappingType domain.MappingType) (*domain.GLFloatMapping, error)
	CreateMapping(ctx context.Context, m *domain.GLFloatMapping) error
	DeactivateMapping(ctx context.Context, id uuid.UUID) error
	GetGLAccount(ctx context.Context, id uuid.UUID) (*domain.GLAccount, error)
	// EnsureGLAccount inserts the account unless one with the same code
	// exists, and returns whichever row is stored.
	EnsureGLAccount(ctx context.Context, a *domain.GLAccount) (*domain.GLAccount, error)
	AdjustGLBalance(ctx context.Context, id uuid.UUID, delta int64) error
	InsertGLEntries(ctx context.Context, entries []domain.GLEntry) error
	ListGLEntriesForSource(ctx context.Context, sourceID uuid.UUID) ([]domain.GLEntry, error)
	DeleteGLEntries(ctx context.Context, sourceID uuid.UUID) error

	GetCommissionForUpdate(ctx context.Context, id uuid.UUID) (*domain.Commission, error)
	CreateCommission(ctx context.Context, c *domain.Commission) error
	UpdateCommission(ctx context.Context, c *domain.Commission) error
	DeleteCommission(ctx context.Context, id uuid.UUID) error
}
