package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/float-ledger/internal/domain"
)

// tx operates on a private copy of the store state; the copy replaces the
// committed state only when the unit of work succeeds.
type tx struct {
	st *state
}

func (t *tx) LockFloatAccount(_ context.Context, id uuid.UUID) (*domain.FloatAccount, error) {
	a, ok := t.st.accounts[id]
	if !ok {
		return nil, fmt.Errorf("LockFloatAccount: %w", domain.ErrAccountNotFound)
	}
	return &a, nil
}

func (t *tx) FindCashTill(_ context.Context, branchID uuid.UUID) (*domain.FloatAccount, error) {
	for _, a := range t.st.accounts {
		if a.BranchID == branchID && a.AccountType == domain.AccountTypeCashInTill && a.IsActive {
			return &a, nil
		}
	}
	return nil, fmt.Errorf("FindCashTill: branch %s: %w", branchID, domain.ErrAccountNotFound)
}

func (t *tx) AdjustBalance(_ context.Context, id uuid.UUID, delta int64) (*domain.FloatAccount, error) {
	a, ok := t.st.accounts[id]
	if !ok {
		return nil, fmt.Errorf("AdjustBalance: %w", domain.ErrAccountNotFound)
	}
	if delta < 0 && a.CurrentBalance+delta < a.Floor {
		return nil, fmt.Errorf("AdjustBalance: %w", &domain.InsufficientBalanceError{
			AccountID: id,
			Required:  -delta,
			Available: a.Available(),
		})
	}
	a.CurrentBalance += delta
	a.UpdatedAt = time.Now().UTC()
	t.st.accounts[id] = a
	return &a, nil
}

func (t *tx) CreateFloatAccount(_ context.Context, a *domain.FloatAccount) error {
	if _, ok := t.st.accounts[a.ID]; ok {
		return fmt.Errorf("CreateFloatAccount: %w", domain.ErrInvalidRequest)
	}
	if a.AccountType == domain.AccountTypeCashInTill && a.IsActive && t.activeTillOtherThan(a.BranchID, a.ID) {
		return fmt.Errorf("CreateFloatAccount: %w", domain.ErrCashTillExists)
	}
	t.st.accounts[a.ID] = *a
	return nil
}

// activeTillOtherThan mirrors the partial unique index on active cash
// tills per branch.
func (t *tx) activeTillOtherThan(branchID, id uuid.UUID) bool {
	for _, existing := range t.st.accounts {
		if existing.ID != id && existing.BranchID == branchID && existing.AccountType == domain.AccountTypeCashInTill && existing.IsActive {
			return true
		}
	}
	return false
}

func (t *tx) SetFloatAccountActive(_ context.Context, id uuid.UUID, active bool) error {
	a, ok := t.st.accounts[id]
	if !ok {
		return fmt.Errorf("SetFloatAccountActive: %w", domain.ErrAccountNotFound)
	}
	if active && !a.IsActive && a.AccountType == domain.AccountTypeCashInTill && t.activeTillOtherThan(a.BranchID, id) {
		return fmt.Errorf("SetFloatAccountActive: %w", domain.ErrCashTillExists)
	}
	a.IsActive = active
	a.UpdatedAt = time.Now().UTC()
	t.st.accounts[id] = a
	return nil
}

func (t *tx) GetTransactionForUpdate(_ context.Context, id uuid.UUID) (*domain.Transaction, error) {
	txn, ok := t.st.transactions[id]
	if !ok {
		return nil, fmt.Errorf("GetTransactionForUpdate: %w", domain.ErrNotFound)
	}
	return &txn, nil
}

func (t *tx) referenceTaken(ref string, except uuid.UUID) bool {
	for id, existing := range t.st.transactions {
		if id != except && existing.Reference == ref {
			return true
		}
	}
	return false
}

func (t *tx) CreateTransaction(_ context.Context, txn *domain.Transaction) error {
	if t.referenceTaken(txn.Reference, txn.ID) {
		return fmt.Errorf("CreateTransaction: %w", domain.ErrDuplicateReference)
	}
	t.st.transactions[txn.ID] = *txn
	return nil
}

func (t *tx) UpdateTransaction(_ context.Context, txn *domain.Transaction) error {
	if _, ok := t.st.transactions[txn.ID]; !ok {
		return fmt.Errorf("UpdateTransaction: %w", domain.ErrNotFound)
	}
	if t.referenceTaken(txn.Reference, txn.ID) {
		return fmt.Errorf("UpdateTransaction: %w", domain.ErrDuplicateReference)
	}
	t.st.transactions[txn.ID] = *txn
	return nil
}

func (t *tx) DeleteTransaction(_ context.Context, id uuid.UUID) error {
	if _, ok := t.st.transactions[id]; !ok {
		return fmt.Errorf("DeleteTransaction: %w", domain.ErrNotFound)
	}
	delete(t.st.transactions, id)
	return nil
}

func (t *tx) FindMapping(_ context.Context, floatAccountID uuid.UUID, mappingType domain.MappingType) (*domain.GLFloatMapping, error) {
	for _, m := range t.st.mappings {
		if m.FloatAccountID == floatAccountID && m.MappingType == mappingType && m.IsActive {
			return &m, nil
		}
	}
	return nil, fmt.Errorf("FindMapping: %w", domain.ErrNotFound)
}

func (t *tx) CreateMapping(ctx context.Context, m *domain.GLFloatMapping) error {
	if m.IsActive {
		if _, err := t.FindMapping(ctx, m.FloatAccountID, m.MappingType); err == nil {
			return fmt.Errorf("CreateMapping: %w", domain.ErrMappingExists)
		}
	}
	t.st.mappings[m.ID] = *m
	return nil
}

func (t *tx) DeactivateMapping(_ context.Context, id uuid.UUID) error {
	m, ok := t.st.mappings[id]
	if !ok {
		return fmt.Errorf("DeactivateMapping: %w", domain.ErrNotFound)
	}
	m.IsActive = false
	t.st.mappings[id] = m
	return nil
}

func (t *tx) GetGLAccount(_ context.Context, id uuid.UUID) (*domain.GLAccount, error) {
	a, ok := t.st.glAccounts[id]
	if !ok {
		return nil, fmt.Errorf("GetGLAccount: %w", domain.ErrNotFound)
	}
	return &a, nil
}

func (t *tx) EnsureGLAccount(_ context.Context, a *domain.GLAccount) (*domain.GLAccount, error) {
	for _, existing := range t.st.glAccounts {
		if existing.Code == a.Code {
			return &existing, nil
		}
	}
	t.st.glAccounts[a.ID] = *a
	stored := *a
	return &stored, nil
}

func (t *tx) AdjustGLBalance(_ context.Context, id uuid.UUID, delta int64) error {
	a, ok := t.st.glAccounts[id]
	if !ok {
		return fmt.Errorf("AdjustGLBalance: %w", domain.ErrNotFound)
	}
	a.Balance += delta
	t.st.glAccounts[id] = a
	return nil
}

func (t *tx) InsertGLEntries(_ context.Context, entries []domain.GLEntry) error {
	for _, e := range entries {
		if _, ok := t.st.glAccounts[e.GLAccountID]; !ok {
			return fmt.Errorf("InsertGLEntries: gl account %s: %w", e.GLAccountID, domain.ErrNotFound)
		}
		t.st.glEntries[e.TransactionID] = append(t.st.glEntries[e.TransactionID], e)
	}
	return nil
}

func (t *tx) ListGLEntriesForSource(_ context.Context, sourceID uuid.UUID) ([]domain.GLEntry, error) {
	return append([]domain.GLEntry(nil), t.st.glEntries[sourceID]...), nil
}

func (t *tx) DeleteGLEntries(_ context.Context, sourceID uuid.UUID) error {
	delete(t.st.glEntries, sourceID)
	return nil
}

func (t *tx) GetCommissionForUpdate(_ context.Context, id uuid.UUID) (*domain.Commission, error) {
	c, ok := t.st.commissions[id]
	if !ok {
		return nil, fmt.Errorf("GetCommissionForUpdate: %w", domain.ErrNotFound)
	}
	return &c, nil
}

func (t *tx) CreateCommission(_ context.Context, c *domain.Commission) error {
	t.st.commissions[c.ID] = *c
	return nil
}

func (t *tx) UpdateCommission(_ context.Context, c *domain.Commission) error {
	if _, ok := t.st.commissions[c.ID]; !ok {
		return fmt.Errorf("UpdateCommission: %w", domain.ErrNotFound)
	}
	t.st.commissions[c.ID] = *c
	return nil
}

func (t *tx) DeleteCommission(_ context.Context, id uuid.UUID) error {
	if _, ok := t.st.commissions[id]; !ok {
		return fmt.Errorf("DeleteCommission: %w", domain.ErrNotFound)
	}
	delete(t.st.commissions, id)
	return nil
}
