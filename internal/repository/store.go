package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/float-ledger/internal/domain"
	"github.com/josh-kwaku/float-ledger/internal/ledger"
)

// Store is the Postgres ledger backend. Each unit of work is one database
// transaction; row locks and guarded updates keep balances consistent
// across concurrent units.
type Store struct {
	db           *sql.DB
	accounts     *FloatAccountRepository
	transactions *TransactionRepository
	glAccounts   *GLAccountRepository
	glEntries    *GLEntryRepository
	commissions  *CommissionRepository
	movements    *MovementRepository
}

var _ ledger.Store = (*Store)(nil)

type scanner interface {
	Scan(dest ...any) error
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:           db,
		accounts:     NewFloatAccountRepository(db),
		transactions: NewTransactionRepository(db),
		glAccounts:   NewGLAccountRepository(db),
		glEntries:    NewGLEntryRepository(db),
		commissions:  NewCommissionRepository(db),
		movements:    NewMovementRepository(db),
	}
}

// RunInTx runs fn in one read-committed transaction. Balance safety comes
// from FOR UPDATE locks and guarded updates, not from the isolation level.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("RunInTx: %w", mapConflict(err))
	}
	defer sqlTx.Rollback()

	if err := fn(ctx, &pgTx{tx: sqlTx, s: s}); err != nil {
		return mapConflict(err)
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("RunInTx: commit: %w", mapConflict(err))
	}
	return nil
}

func (s *Store) GetFloatAccount(ctx context.Context, id uuid.UUID) (*domain.FloatAccount, error) {
	return s.accounts.GetByID(ctx, id)
}

func (s *Store) ListFloatAccounts(ctx context.Context, branchID uuid.UUID) ([]domain.FloatAccount, error) {
	return s.accounts.ListByBranch(ctx, branchID)
}

func (s *Store) GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	return s.transactions.GetByID(ctx, id)
}

func (s *Store) ListTransactions(ctx context.Context, f domain.TransactionFilter) ([]domain.Transaction, error) {
	return s.transactions.List(ctx, f)
}

func (s *Store) GetCommission(ctx context.Context, id uuid.UUID) (*domain.Commission, error) {
	return s.commissions.GetByID(ctx, id)
}

func (s *Store) ListGLEntries(ctx context.Context, sourceID uuid.UUID) ([]domain.GLEntry, error) {
	return s.glEntries.GetBySource(ctx, sourceID)
}

func (s *Store) GetGLAccount(ctx context.Context, id uuid.UUID) (*domain.GLAccount, error) {
	return s.glAccounts.GetByID(ctx, id)
}

func (s *Store) ListMovements(ctx context.Context, f domain.MovementFilter) ([]domain.Movement, error) {
	return s.movements.List(ctx, f)
}

type pgTx struct {
	tx *sql.Tx
	s  *Store
}

func (t *pgTx) LockFloatAccount(ctx context.Context, id uuid.UUID) (*domain.FloatAccount, error) {
	return t.s.accounts.GetForUpdate(ctx, t.tx, id)
}

func (t *pgTx) FindCashTill(ctx context.Context, branchID uuid.UUID) (*domain.FloatAccount, error) {
	return t.s.accounts.FindCashTill(ctx, t.tx, branchID)
}

func (t *pgTx) AdjustBalance(ctx context.Context, id uuid.UUID, delta int64) (*domain.FloatAccount, error) {
	return t.s.accounts.AdjustBalance(ctx, t.tx, id, delta)
}

func (t *pgTx) CreateFloatAccount(ctx context.Context, a *domain.FloatAccount) error {
	return t.s.accounts.Create(ctx, t.tx, a)
}

func (t *pgTx) SetFloatAccountActive(ctx context.Context, id uuid.UUID, active bool) error {
	return t.s.accounts.SetActive(ctx, t.tx, id, active)
}

func (t *pgTx) GetTransactionForUpdate(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	return t.s.transactions.GetForUpdate(ctx, t.tx, id)
}

func (t *pgTx) CreateTransaction(ctx context.Context, txn *domain.Transaction) error {
	return t.s.transactions.Create(ctx, t.tx, txn)
}

func (t *pgTx) UpdateTransaction(ctx context.Context, txn *domain.Transaction) error {
	return t.s.transactions.Update(ctx, t.tx, txn)
}

func (t *pgTx) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	return t.s.transactions.Delete(ctx, t.tx, id)
}

func (t *pgTx) FindMapping(ctx context.Context, floatAccountID uuid.UUID, mappingType domain.MappingType) (*domain.GLFloatMapping, error) {
	return t.s.glAccounts.FindMapping(ctx, t.tx, floatAccountID, mappingType)
}

func (t *pgTx) CreateMapping(ctx context.Context, m *domain.GLFloatMapping) error {
	return t.s.glAccounts.CreateMapping(ctx, t.tx, m)
}

func (t *pgTx) DeactivateMapping(ctx context.Context, id uuid.UUID) error {
	return t.s.glAccounts.DeactivateMapping(ctx, t.tx, id)
}

func (t *pgTx) GetGLAccount(ctx context.Context, id uuid.UUID) (*domain.GLAccount, error) {
	return t.s.glAccounts.GetByIDTx(ctx, t.tx, id)
}

func (t *pgTx) EnsureGLAccount(ctx context.Context, a *domain.GLAccount) (*domain.GLAccount, error) {
	return t.s.glAccounts.Ensure(ctx, t.tx, a)
}

func (t *pgTx) AdjustGLBalance(ctx context.Context, id uuid.UUID, delta int64) error {
	return t.s.glAccounts.AdjustBalance(ctx, t.tx, id, delta)
}

func (t *pgTx) InsertGLEntries(ctx context.Context, entries []domain.GLEntry) error {
	for i := range entries {
		if err := t.s.glEntries.Create(ctx, t.tx, &entries[i]); err != nil {
			return fmt.Errorf("InsertGLEntries: %w", err)
		}
	}
	return nil
}

func (t *pgTx) ListGLEntriesForSource(ctx context.Context, sourceID uuid.UUID) ([]domain.GLEntry, error) {
	return t.s.glEntries.GetBySourceTx(ctx, t.tx, sourceID)
}

func (t *pgTx) DeleteGLEntries(ctx context.Context, sourceID uuid.UUID) error {
	return t.s.glEntries.DeleteBySource(ctx, t.tx, sourceID)
}

func (t *pgTx) GetCommissionForUpdate(ctx context.Context, id uuid.UUID) (*domain.Commission, error) {
	return t.s.commissions.GetForUpdate(ctx, t.tx, id)
}

func (t *pgTx) CreateCommission(ctx context.Context, c *domain.Commission) error {
	return t.s.commissions.Create(ctx, t.tx, c)
}

func (t *pgTx) UpdateCommission(ctx context.Context, c *domain.Commission) error {
	return t.s.commissions.Update(ctx, t.tx, c)
}

func (t *pgTx) DeleteCommission(ctx context.Context, id uuid.UUID) error {
	return t.s.commissions.Delete(ctx, t.tx, id)
}
