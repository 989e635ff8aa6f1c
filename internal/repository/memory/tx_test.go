package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/float-ledger/internal/domain"
	"github.com/josh-kwaku/float-ledger/internal/ledger"
)

func till(branchID uuid.UUID) *domain.FloatAccount {
	return &domain.FloatAccount{
		ID:          uuid.New(),
		BranchID:    branchID,
		AccountType: domain.AccountTypeCashInTill,
		IsActive:    true,
	}
}

func TestSetFloatAccountActive_OneActiveTillPerBranch(t *testing.T) {
	ctx := context.Background()
	store := New()
	branch := uuid.New()
	first, second := till(branch), till(branch)

	require.NoError(t, store.RunInTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		if err := tx.CreateFloatAccount(ctx, first); err != nil {
			return err
		}
		if err := tx.SetFloatAccountActive(ctx, first.ID, false); err != nil {
			return err
		}
		return tx.CreateFloatAccount(ctx, second)
	}))

	err := store.RunInTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		return tx.SetFloatAccountActive(ctx, first.ID, true)
	})
	require.ErrorIs(t, err, domain.ErrCashTillExists)

	got, err := store.GetFloatAccount(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	require.NoError(t, store.RunInTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		if err := tx.SetFloatAccountActive(ctx, second.ID, true); err != nil {
			return err
		}
		cashTill, err := tx.FindCashTill(ctx, branch)
		if err != nil {
			return err
		}
		assert.Equal(t, second.ID, cashTill.ID)
		return nil
	}))
}

func TestSetFloatAccountActive_ReactivatesWhenNoOtherTill(t *testing.T) {
	ctx := context.Background()
	store := New()
	only := till(uuid.New())

	require.NoError(t, store.RunInTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		if err := tx.CreateFloatAccount(ctx, only); err != nil {
			return err
		}
		if err := tx.SetFloatAccountActive(ctx, only.ID, false); err != nil {
			return err
		}
		return tx.SetFloatAccountActive(ctx, only.ID, true)
	}))

	got, err := store.GetFloatAccount(ctx, only.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
}
