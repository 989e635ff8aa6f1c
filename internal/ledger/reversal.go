package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/float-ledger/internal/domain"
)

// Reverse undoes a previous posting using the deltas stored with it, then
// drops its journal lines. Inactive accounts may still be reversed.
func Reverse(ctx context.Context, tx Tx, eff domain.AppliedEffect) error {
	ids := make([]uuid.UUID, 0, len(eff.Legs))
	for _, leg := range eff.Legs {
		ids = append(ids, leg.AccountID)
	}
	if _, err := LockAccounts(ctx, tx, ids...); err != nil {
		return fmt.Errorf("Reverse: %w", err)
	}

	inverse := make([]domain.Leg, len(eff.Legs))
	for i, leg := range eff.Legs {
		inverse[i] = domain.Leg{AccountID: leg.AccountID, Delta: -leg.Delta}
	}
	if _, err := ApplyLegs(ctx, tx, inverse); err != nil {
		return fmt.Errorf("Reverse: %w", err)
	}

	if err := DeleteForTransaction(ctx, tx, eff.SourceID); err != nil {
		return fmt.Errorf("Reverse: %w", err)
	}
	return nil
}
