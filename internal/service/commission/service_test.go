package commission_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/float-ledger/internal/domain"
	"github.com/josh-kwaku/float-ledger/internal/repository/memory"
	"github.com/josh-kwaku/float-ledger/internal/service/commission"
	"github.com/josh-kwaku/float-ledger/internal/testutil"
)

type fixture struct {
	store    *memory.Store
	branch   *testutil.Branch
	notifier *testutil.Recorder
	svc      *commission.Service
}

func setup(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	rec := &testutil.Recorder{}
	return &fixture{
		store:    store,
		branch:   testutil.SeedBranch(t, store, testutil.BranchBalances{CashTill: 10_000, Float: 5000}),
		notifier: rec,
		svc:      commission.NewService(store, rec, 3),
	}
}

func (f *fixture) create(t *testing.T, amount int64) *domain.Commission {
	t.Helper()
	c, err := f.svc.Create(context.Background(), commission.CreateRequest{
		SourceAccountID: f.branch.FloatID,
		BranchID:        f.branch.ID,
		Amount:          amount,
		Description:     "March MoMo commission",
		CreatedBy:       uuid.New(),
	})
	require.NoError(t, err)
	return c
}

func TestApprove_CreditsSourceFloat(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	c := f.create(t, 1000)
	assert.Equal(t, domain.CommissionStatusPending, c.Status)
	assert.Equal(t, int64(5000), testutil.Balance(t, f.store, f.branch.FloatID))

	entries, err := f.store.ListGLEntries(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)

	approver := uuid.New()
	approved, err := f.svc.Approve(ctx, c.ID, approver)
	require.NoError(t, err)
	assert.Equal(t, domain.CommissionStatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, approver, *approved.ApprovedBy)
	assert.NotNil(t, approved.ApprovedAt)

	assert.Equal(t, int64(6000), testutil.Balance(t, f.store, f.branch.FloatID))
	assert.Equal(t, int64(1000), testutil.GLBalance(t, f.store, f.branch.FloatGL))
	assert.Equal(t, int64(-1000), testutil.GLBalance(t, f.store, f.branch.CommissionGL))

	entries, err = f.store.ListGLEntries(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	assert.Len(t, f.notifier.OfType(domain.NotificationCommissionApproved), 1)
}

func TestApprove_Twice(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	c := f.create(t, 1000)
	_, err := f.svc.Approve(ctx, c.ID, uuid.New())
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, c.ID, uuid.New())
	require.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	assert.Equal(t, int64(6000), testutil.Balance(t, f.store, f.branch.FloatID))
}

func TestApprove_MissingCommissionMapping(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	c, err := f.svc.Create(ctx, commission.CreateRequest{
		SourceAccountID: f.branch.JumiaID,
		BranchID:        f.branch.ID,
		Amount:          1000,
		CreatedBy:       uuid.New(),
	})
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, c.ID, uuid.New())
	require.ErrorIs(t, err, domain.ErrGLMappingNotConfigured)

	stored, err := f.svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CommissionStatusPending, stored.Status)
}

func TestReject(t *testing.T) {
	t.Run("from pending moves nothing", func(t *testing.T) {
		f := setup(t)
		ctx := context.Background()
		c := f.create(t, 1000)

		rejected, err := f.svc.Reject(ctx, c.ID, uuid.New(), "duplicate claim")
		require.NoError(t, err)
		assert.Equal(t, domain.CommissionStatusRejected, rejected.Status)
		require.NotNil(t, rejected.RejectionReason)
		assert.Equal(t, "duplicate claim", *rejected.RejectionReason)
		assert.Equal(t, int64(5000), testutil.Balance(t, f.store, f.branch.FloatID))
	})

	t.Run("from approved reverses the credit", func(t *testing.T) {
		f := setup(t)
		ctx := context.Background()
		c := f.create(t, 1000)
		_, err := f.svc.Approve(ctx, c.ID, uuid.New())
		require.NoError(t, err)

		_, err = f.svc.Reject(ctx, c.ID, uuid.New(), "provider clawback")
		require.NoError(t, err)

		assert.Equal(t, int64(5000), testutil.Balance(t, f.store, f.branch.FloatID))
		assert.Equal(t, int64(0), testutil.GLBalance(t, f.store, f.branch.CommissionGL))
		entries, err := f.store.ListGLEntries(ctx, c.ID)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("rejected is terminal", func(t *testing.T) {
		f := setup(t)
		ctx := context.Background()
		c := f.create(t, 1000)
		_, err := f.svc.Reject(ctx, c.ID, uuid.New(), "no")
		require.NoError(t, err)

		_, err = f.svc.Approve(ctx, c.ID, uuid.New())
		require.ErrorIs(t, err, domain.ErrInvalidStateTransition)
		_, err = f.svc.Reject(ctx, c.ID, uuid.New(), "again")
		require.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	})
}

func TestMarkPaid(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.create(t, 1000)

	_, err := f.svc.MarkPaid(ctx, c.ID, uuid.New(), "")
	require.ErrorIs(t, err, domain.ErrInvalidStateTransition)

	_, err = f.svc.Approve(ctx, c.ID, uuid.New())
	require.NoError(t, err)

	paid, err := f.svc.MarkPaid(ctx, c.ID, uuid.New(), "BANK-778")
	require.NoError(t, err)
	assert.Equal(t, domain.CommissionStatusPaid, paid.Status)
	require.NotNil(t, paid.PaymentReference)
	assert.Equal(t, "BANK-778", *paid.PaymentReference)
	assert.Equal(t, int64(6000), testutil.Balance(t, f.store, f.branch.FloatID))
	assert.Len(t, f.notifier.OfType(domain.NotificationCommissionPaid), 1)
}

func TestDelete(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(f *fixture, id uuid.UUID)
	}{
		{"pending", func(*fixture, uuid.UUID) {}},
		{"approved", func(f *fixture, id uuid.UUID) {
			_, err := f.svc.Approve(context.Background(), id, uuid.New())
			require.NoError(t, err)
		}},
		{"paid", func(f *fixture, id uuid.UUID) {
			_, err := f.svc.Approve(context.Background(), id, uuid.New())
			require.NoError(t, err)
			_, err = f.svc.MarkPaid(context.Background(), id, uuid.New(), "")
			require.NoError(t, err)
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := setup(t)
			ctx := context.Background()
			c := f.create(t, 1000)
			tc.prepare(f, c.ID)

			require.NoError(t, f.svc.Delete(ctx, c.ID, uuid.New()))

			assert.Equal(t, int64(5000), testutil.Balance(t, f.store, f.branch.FloatID))
			assert.Equal(t, int64(0), testutil.GLBalance(t, f.store, f.branch.CommissionGL))
			_, err := f.svc.Get(ctx, c.ID)
			require.ErrorIs(t, err, domain.ErrNotFound)
		})
	}
}

func TestEdit(t *testing.T) {
	t.Run("pending edit moves nothing", func(t *testing.T) {
		f := setup(t)
		ctx := context.Background()
		c := f.create(t, 1000)

		edited, err := f.svc.Edit(ctx, commission.EditRequest{
			ID:              c.ID,
			SourceAccountID: f.branch.FloatID,
			Amount:          1500,
			Description:     "corrected",
			EditedBy:        uuid.New(),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1500), edited.Amount)
		assert.Equal(t, int64(5000), testutil.Balance(t, f.store, f.branch.FloatID))
	})

	t.Run("approved edit swaps the credit", func(t *testing.T) {
		f := setup(t)
		ctx := context.Background()
		c := f.create(t, 1000)
		_, err := f.svc.Approve(ctx, c.ID, uuid.New())
		require.NoError(t, err)

		_, err = f.svc.Edit(ctx, commission.EditRequest{
			ID:              c.ID,
			SourceAccountID: f.branch.FloatID,
			Amount:          400,
			EditedBy:        uuid.New(),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(5400), testutil.Balance(t, f.store, f.branch.FloatID))
		assert.Equal(t, int64(-400), testutil.GLBalance(t, f.store, f.branch.CommissionGL))
	})

	t.Run("rejected cannot be edited", func(t *testing.T) {
		f := setup(t)
		ctx := context.Background()
		c := f.create(t, 1000)
		_, err := f.svc.Reject(ctx, c.ID, uuid.New(), "no")
		require.NoError(t, err)

		_, err = f.svc.Edit(ctx, commission.EditRequest{ID: c.ID, SourceAccountID: f.branch.FloatID, Amount: 10})
		require.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	})
}

func TestCreate_Rejections(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, commission.CreateRequest{SourceAccountID: f.branch.FloatID, BranchID: f.branch.ID, Amount: 0})
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = f.svc.Create(ctx, commission.CreateRequest{SourceAccountID: f.branch.FloatID, BranchID: f.branch.ID, Amount: domain.MaxAmount + 1})
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = f.svc.Create(ctx, commission.CreateRequest{SourceAccountID: f.branch.CashTillID, BranchID: f.branch.ID, Amount: 10})
	require.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = f.svc.Create(ctx, commission.CreateRequest{SourceAccountID: f.branch.FloatID, BranchID: uuid.New(), Amount: 10})
	require.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = f.svc.Create(ctx, commission.CreateRequest{SourceAccountID: uuid.New(), BranchID: f.branch.ID, Amount: 10})
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}
