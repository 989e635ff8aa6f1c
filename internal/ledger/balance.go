package ledger

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/josh-kwaku/float-ledger/internal/domain"
)

// LockAccounts locks every distinct account in ascending id order so two
// postings touching the same pair can never deadlock on each other.
func LockAccounts(ctx context.Context, tx Tx, ids ...uuid.UUID) (map[uuid.UUID]*domain.FloatAccount, error) {
	sorted := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		sorted = append(sorted, id)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i][:], sorted[j][:]) < 0
	})

	locked := make(map[uuid.UUID]*domain.FloatAccount, len(sorted))
	for _, id := range sorted {
		acct, err := tx.LockFloatAccount(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("LockAccounts: %w", err)
		}
		locked[id] = acct
	}
	return locked, nil
}

// ValidateSufficiency checks a pending delta against a freshly locked row.
func ValidateSufficiency(acct *domain.FloatAccount, delta int64) error {
	if delta >= 0 {
		return nil
	}
	if acct.CurrentBalance+delta < acct.Floor {
		return &domain.InsufficientBalanceError{
			AccountID: acct.ID,
			Required:  -delta,
			Available: acct.Available(),
		}
	}
	return nil
}

// Apply moves the balance by delta under the floor guard. A zero delta
// touches nothing and returns a nil account.
func Apply(ctx context.Context, tx Tx, id uuid.UUID, delta int64) (*domain.FloatAccount, error) {
	if delta == 0 {
		return nil, nil
	}
	acct, err := tx.AdjustBalance(ctx, id, delta)
	if err != nil {
		return nil, fmt.Errorf("Apply: %w", err)
	}
	return acct, nil
}

// ApplyLegs applies each leg in order and returns the updated accounts.
func ApplyLegs(ctx context.Context, tx Tx, legs []domain.Leg) ([]*domain.FloatAccount, error) {
	updated := make([]*domain.FloatAccount, 0, len(legs))
	for _, leg := range legs {
		acct, err := Apply(ctx, tx, leg.AccountID, leg.Delta)
		if err != nil {
			return nil, fmt.Errorf("ApplyLegs: %w", err)
		}
		if acct != nil {
			updated = append(updated, acct)
		}
	}
	return updated, nil
}
