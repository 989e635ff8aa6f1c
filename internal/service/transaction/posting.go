package transaction

import (
	"context"
	"fmt"

	"github.com/josh-kwaku/float-ledger/internal/domain"
	"github.com/josh-kwaku/float-ledger/internal/effect"
	"github.com/josh-kwaku/float-ledger/internal/ledger"
)

// post validates both legs under row locks, writes the journal and moves
// the balances. On success t carries the deltas that were applied.
func post(ctx context.Context, tx ledger.Tx, t *domain.Transaction, eff effect.Effect) ([]*domain.FloatAccount, error) {
	if t.CashTillAccountID == t.FloatAccountID {
		return nil, fmt.Errorf("post: cash till and float are the same account: %w", domain.ErrInvalidRequest)
	}

	locked, err := ledger.LockAccounts(ctx, tx, t.CashTillAccountID, t.FloatAccountID)
	if err != nil {
		return nil, fmt.Errorf("post: %w", err)
	}
	till, float := locked[t.CashTillAccountID], locked[t.FloatAccountID]

	if err := verifyLegs(t, till, float); err != nil {
		return nil, fmt.Errorf("post: %w", err)
	}
	if err := ledger.ValidateSufficiency(till, eff.CashTillDelta); err != nil {
		return nil, fmt.Errorf("post: cash till: %w", err)
	}
	if err := ledger.ValidateSufficiency(float, eff.FloatDelta); err != nil {
		return nil, fmt.Errorf("post: float: %w", err)
	}

	lines, err := journalLines(ctx, tx, t, eff)
	if err != nil {
		return nil, fmt.Errorf("post: %w", err)
	}
	if err := ledger.Post(ctx, tx, t.ID, lines); err != nil {
		return nil, fmt.Errorf("post: %w", err)
	}

	legs := []domain.Leg{
		{AccountID: till.ID, Delta: eff.CashTillDelta},
		{AccountID: float.ID, Delta: eff.FloatDelta},
	}
	touched, err := ledger.ApplyLegs(ctx, tx, legs)
	if err != nil {
		return nil, fmt.Errorf("post: %w", err)
	}

	t.CashTillDelta = eff.CashTillDelta
	t.FloatDelta = eff.FloatDelta
	return touched, nil
}

func verifyLegs(t *domain.Transaction, till, float *domain.FloatAccount) error {
	if till.AccountType != domain.AccountTypeCashInTill {
		return fmt.Errorf("verifyLegs: %s is not a cash till: %w", till.ID, domain.ErrInvalidRequest)
	}
	if float.AccountType == domain.AccountTypeCashInTill {
		return fmt.Errorf("verifyLegs: %s is a cash till, not a float: %w", float.ID, domain.ErrInvalidRequest)
	}
	if float.BranchID != t.BranchID || till.BranchID != t.BranchID {
		return fmt.Errorf("verifyLegs: float %s belongs to another branch: %w", float.ID, domain.ErrInvalidRequest)
	}
	if !till.IsActive {
		return fmt.Errorf("verifyLegs: cash till %s: %w", till.ID, domain.ErrAccountInactive)
	}
	if !float.IsActive {
		return fmt.Errorf("verifyLegs: float %s: %w", float.ID, domain.ErrAccountInactive)
	}
	return nil
}

// journalLines records each asset leg against its main GL account and
// credits the residual to the float's fee account, or to its revenue
// account for flat credits.
func journalLines(ctx context.Context, tx ledger.Tx, t *domain.Transaction, eff effect.Effect) ([]ledger.Line, error) {
	tillGL, err := ledger.Resolve(ctx, tx, t.CashTillAccountID, domain.MappingTypeMain, abs(eff.CashTillDelta))
	if err != nil {
		return nil, fmt.Errorf("journalLines: %w", err)
	}
	floatGL, err := ledger.Resolve(ctx, tx, t.FloatAccountID, domain.MappingTypeMain, abs(eff.FloatDelta))
	if err != nil {
		return nil, fmt.Errorf("journalLines: %w", err)
	}

	residualRole := domain.MappingTypeFee
	if eff.Class == effect.ClassFlatCredit {
		residualRole = domain.MappingTypeRevenue
	}
	residualGL, err := ledger.Resolve(ctx, tx, t.FloatAccountID, residualRole, eff.Residual())
	if err != nil {
		return nil, fmt.Errorf("journalLines: %w", err)
	}

	desc := fmt.Sprintf("%s %s %s", t.ServiceType, t.Direction, t.Reference)
	lines := []ledger.Line{
		ledger.SignedLine(tillGL.ID, eff.CashTillDelta, desc),
		ledger.SignedLine(floatGL.ID, eff.FloatDelta, desc),
	}
	if residualGL != nil {
		lines = append(lines, ledger.SignedLine(residualGL.ID, -eff.Residual(), desc+" "+string(residualRole)))
	}
	return lines, nil
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
