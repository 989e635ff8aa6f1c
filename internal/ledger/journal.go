package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/float-ledger/internal/domain"
	"github.com/josh-kwaku/float-ledger/internal/logging"
)

type Line struct {
	GLAccountID uuid.UUID
	Debit       int64
	Credit      int64
	Description string
}

func DebitLine(acct uuid.UUID, amount int64, desc string) Line {
	return Line{GLAccountID: acct, Debit: amount, Description: desc}
}

func CreditLine(acct uuid.UUID, amount int64, desc string) Line {
	return Line{GLAccountID: acct, Credit: amount, Description: desc}
}

// SignedLine posts a positive delta as a debit and a negative one as a
// credit, which is how an asset account records money moving in and out.
func SignedLine(acct uuid.UUID, delta int64, desc string) Line {
	if delta < 0 {
		return CreditLine(acct, -delta, desc)
	}
	return DebitLine(acct, delta, desc)
}

// Post writes a balanced set of lines under sourceID and moves each GL
// account balance by debit minus credit.
func Post(ctx context.Context, tx Tx, sourceID uuid.UUID, lines []Line) error {
	var debits, credits int64
	kept := lines[:0:0]
	for _, l := range lines {
		if l.Debit < 0 || l.Credit < 0 || (l.Debit > 0 && l.Credit > 0) {
			return fmt.Errorf("Post: malformed line on %s: %w", l.GLAccountID, domain.ErrUnbalancedJournal)
		}
		if l.Debit == 0 && l.Credit == 0 {
			continue
		}
		debits += l.Debit
		credits += l.Credit
		kept = append(kept, l)
	}

	if debits != credits {
		logging.Alert(ctx, "journal rejected: debits do not equal credits",
			"source_id", sourceID,
			"debits", debits,
			"credits", credits,
		)
		return fmt.Errorf("Post: debits %d credits %d: %w", debits, credits, domain.ErrUnbalancedJournal)
	}
	if len(kept) == 0 {
		return nil
	}

	now := time.Now().UTC()
	entries := make([]domain.GLEntry, len(kept))
	for i, l := range kept {
		entries[i] = domain.GLEntry{
			ID:            uuid.New(),
			TransactionID: sourceID,
			GLAccountID:   l.GLAccountID,
			Debit:         l.Debit,
			Credit:        l.Credit,
			Description:   l.Description,
			CreatedAt:     now,
		}
	}
	if err := tx.InsertGLEntries(ctx, entries); err != nil {
		return fmt.Errorf("Post: %w", err)
	}

	for _, e := range entries {
		if err := tx.AdjustGLBalance(ctx, e.GLAccountID, e.Debit-e.Credit); err != nil {
			return fmt.Errorf("Post: adjust %s: %w", e.GLAccountID, err)
		}
	}
	return nil
}

// DeleteForTransaction removes every line written under sourceID and backs
// their effect out of the GL balances. Nothing posted is not an error.
func DeleteForTransaction(ctx context.Context, tx Tx, sourceID uuid.UUID) error {
	entries, err := tx.ListGLEntriesForSource(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("DeleteForTransaction: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}

	for _, e := range entries {
		if err := tx.AdjustGLBalance(ctx, e.GLAccountID, e.Credit-e.Debit); err != nil {
			return fmt.Errorf("DeleteForTransaction: adjust %s: %w", e.GLAccountID, err)
		}
	}
	if err := tx.DeleteGLEntries(ctx, sourceID); err != nil {
		return fmt.Errorf("DeleteForTransaction: %w", err)
	}
	return nil
}
