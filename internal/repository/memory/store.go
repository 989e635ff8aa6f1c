// Package memory is an in-process ledger store used for local fixtures and
// tests. Units of work are serialized and applied copy-on-commit.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/josh-kwaku/float-ledger/internal/domain"
	"github.com/josh-kwaku/float-ledger/internal/ledger"
)

type state struct {
	accounts     map[uuid.UUID]domain.FloatAccount
	transactions map[uuid.UUID]domain.Transaction
	glAccounts   map[uuid.UUID]domain.GLAccount
	glEntries    map[uuid.UUID][]domain.GLEntry
	mappings     map[uuid.UUID]domain.GLFloatMapping
	commissions  map[uuid.UUID]domain.Commission
}

func newState() *state {
	return &state{
		accounts:     make(map[uuid.UUID]domain.FloatAccount),
		transactions: make(map[uuid.UUID]domain.Transaction),
		glAccounts:   make(map[uuid.UUID]domain.GLAccount),
		glEntries:    make(map[uuid.UUID][]domain.GLEntry),
		mappings:     make(map[uuid.UUID]domain.GLFloatMapping),
		commissions:  make(map[uuid.UUID]domain.Commission),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.transactions {
		c.transactions[k] = v
	}
	for k, v := range s.glAccounts {
		c.glAccounts[k] = v
	}
	for k, v := range s.glEntries {
		c.glEntries[k] = append([]domain.GLEntry(nil), v...)
	}
	for k, v := range s.mappings {
		c.mappings[k] = v
	}
	for k, v := range s.commissions {
		c.commissions[k] = v
	}
	return c
}

type Store struct {
	mu sync.RWMutex
	st *state
}

var _ ledger.Store = (*Store)(nil)

func New() *Store {
	return &Store{st: newState()}
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("RunInTx: %w", err)
	}

	work := s.st.clone()
	if err := fn(ctx, &tx{st: work}); err != nil {
		return err
	}
	s.st = work
	return nil
}

func (s *Store) GetFloatAccount(_ context.Context, id uuid.UUID) (*domain.FloatAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.st.accounts[id]
	if !ok {
		return nil, fmt.Errorf("GetFloatAccount: %w", domain.ErrAccountNotFound)
	}
	return &a, nil
}

func (s *Store) ListFloatAccounts(_ context.Context, branchID uuid.UUID) ([]domain.FloatAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.FloatAccount
	for _, a := range s.st.accounts {
		if a.BranchID == branchID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) GetTransaction(_ context.Context, id uuid.UUID) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.st.transactions[id]
	if !ok {
		return nil, fmt.Errorf("GetTransaction: %w", domain.ErrNotFound)
	}
	return &t, nil
}

func (s *Store) ListTransactions(_ context.Context, f domain.TransactionFilter) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Transaction
	for _, t := range s.st.transactions {
		if matchTransaction(t, f) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func matchTransaction(t domain.Transaction, f domain.TransactionFilter) bool {
	switch {
	case f.BranchID != nil && t.BranchID != *f.BranchID:
		return false
	case f.FloatAccountID != nil && t.FloatAccountID != *f.FloatAccountID && t.CashTillAccountID != *f.FloatAccountID:
		return false
	case f.ServiceType != nil && t.ServiceType != *f.ServiceType:
		return false
	case f.Status != nil && t.Status != *f.Status:
		return false
	case f.From != nil && t.CreatedAt.Before(*f.From):
		return false
	case f.To != nil && !t.CreatedAt.Before(*f.To):
		return false
	}
	return true
}

func (s *Store) GetCommission(_ context.Context, id uuid.UUID) (*domain.Commission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.st.commissions[id]
	if !ok {
		return nil, fmt.Errorf("GetCommission: %w", domain.ErrNotFound)
	}
	return &c, nil
}

func (s *Store) ListGLEntries(_ context.Context, sourceID uuid.UUID) ([]domain.GLEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.GLEntry(nil), s.st.glEntries[sourceID]...), nil
}

func (s *Store) GetGLAccount(_ context.Context, id uuid.UUID) (*domain.GLAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.st.glAccounts[id]
	if !ok {
		return nil, fmt.Errorf("GetGLAccount: %w", domain.ErrNotFound)
	}
	return &a, nil
}

func (s *Store) ListMovements(_ context.Context, f domain.MovementFilter) ([]domain.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Movement
	keep := func(m domain.Movement) {
		if m.Delta == 0 {
			return
		}
		if f.From != nil && m.OccurredAt.Before(*f.From) {
			return
		}
		if f.To != nil && !m.OccurredAt.Before(*f.To) {
			return
		}
		out = append(out, m)
	}

	for _, t := range s.st.transactions {
		desc := string(t.ServiceType) + " " + string(t.Direction)
		if t.CashTillAccountID == f.AccountID {
			keep(domain.Movement{SourceID: t.ID, Kind: domain.MovementKindTransaction, Reference: t.Reference, Description: desc, Delta: t.CashTillDelta, OccurredAt: t.CreatedAt})
		}
		if t.FloatAccountID == f.AccountID {
			keep(domain.Movement{SourceID: t.ID, Kind: domain.MovementKindTransaction, Reference: t.Reference, Description: desc, Delta: t.FloatDelta, OccurredAt: t.CreatedAt})
		}
	}
	for _, c := range s.st.commissions {
		if c.SourceAccountID != f.AccountID || !c.Status.Applied() || c.ApprovedAt == nil {
			continue
		}
		keep(domain.Movement{SourceID: c.ID, Kind: domain.MovementKindCommission, Description: c.Description, Delta: c.Amount, OccurredAt: *c.ApprovedAt})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return bytes.Compare(out[i].SourceID[:], out[j].SourceID[:]) < 0
		}
		return out[i].OccurredAt.Before(out[j].OccurredAt)
	})
	return out, nil
}
