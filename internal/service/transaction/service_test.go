package transaction_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/float-ledger/internal/domain"
	"github.com/josh-kwaku/float-ledger/internal/ledger"
	"github.com/josh-kwaku/float-ledger/internal/repository/memory"
	"github.com/josh-kwaku/float-ledger/internal/service/transaction"
	"github.com/josh-kwaku/float-ledger/internal/testutil"
)

type fixture struct {
	store    *memory.Store
	branch   *testutil.Branch
	notifier *testutil.Recorder
	svc      *transaction.Service
}

func setup(t *testing.T, bal testutil.BranchBalances) *fixture {
	t.Helper()
	store := memory.New()
	rec := &testutil.Recorder{}
	return &fixture{
		store:    store,
		branch:   testutil.SeedBranch(t, store, bal),
		notifier: rec,
		svc:      transaction.NewService(store, rec, 3),
	}
}

func (f *fixture) deposit(amount, fee int64) transaction.CreateRequest {
	return transaction.CreateRequest{
		ServiceType:    domain.ServiceMomo,
		Direction:      domain.DirectionCashIn,
		Amount:         amount,
		Fee:            fee,
		CustomerName:   "Ama Mensah",
		CustomerPhone:  "0241234567",
		BranchID:       f.branch.ID,
		UserID:         uuid.New(),
		FloatAccountID: f.branch.FloatID,
	}
}

func (f *fixture) withdrawal(amount, fee int64) transaction.CreateRequest {
	req := f.deposit(amount, fee)
	req.Direction = domain.DirectionCashOut
	return req
}

func assertBalancedJournal(t *testing.T, entries []domain.GLEntry) {
	t.Helper()
	var debits, credits int64
	for _, e := range entries {
		debits += e.Debit
		credits += e.Credit
	}
	assert.Equal(t, debits, credits, "journal must balance")
}

func TestCreate_Deposit(t *testing.T) {
	f := setup(t, testutil.BranchBalances{CashTill: 1000, Float: 5000})
	ctx := context.Background()

	txn, err := f.svc.Create(ctx, f.deposit(100, 2))
	require.NoError(t, err)

	assert.Equal(t, int64(102), txn.CashTillDelta)
	assert.Equal(t, int64(-100), txn.FloatDelta)
	assert.Equal(t, f.branch.CashTillID, txn.CashTillAccountID)
	assert.Equal(t, domain.TransactionStatusCompleted, txn.Status)
	assert.Regexp(t, `^MOMO-\d{8}-[0-9A-F]{8}$`, txn.Reference)

	assert.Equal(t, int64(1102), testutil.Balance(t, f.store, f.branch.CashTillID))
	assert.Equal(t, int64(4900), testutil.Balance(t, f.store, f.branch.FloatID))

	entries, err := f.svc.Journal(ctx, txn.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
	assertBalancedJournal(t, entries)

	assert.Equal(t, int64(102), testutil.GLBalance(t, f.store, f.branch.CashGL))
	assert.Equal(t, int64(-100), testutil.GLBalance(t, f.store, f.branch.FloatGL))
	assert.Equal(t, int64(-2), testutil.GLBalance(t, f.store, f.branch.FeeGL))

	created := f.notifier.OfType(domain.NotificationTransactionCreated)
	require.Len(t, created, 1)
	assert.Equal(t, txn.ID, created[0].AggregateID)
}

func TestCreate_WithdrawalInsufficientCashTill(t *testing.T) {
	f := setup(t, testutil.BranchBalances{CashTill: 50, Float: 5000})

	_, err := f.svc.Create(context.Background(), f.withdrawal(100, 2))
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)

	var shortfall *domain.InsufficientBalanceError
	require.True(t, errors.As(err, &shortfall))
	assert.Equal(t, f.branch.CashTillID, shortfall.AccountID)
	assert.Equal(t, int64(98), shortfall.Required)
	assert.Equal(t, int64(50), shortfall.Available)

	assert.Equal(t, int64(50), testutil.Balance(t, f.store, f.branch.CashTillID))
	assert.Equal(t, int64(5000), testutil.Balance(t, f.store, f.branch.FloatID))
	assert.Empty(t, f.notifier.OfType(domain.NotificationTransactionCreated))
}

func TestCreate_FlatCreditPostsToRevenue(t *testing.T) {
	f := setup(t, testutil.BranchBalances{CashTill: 0, Jumia: 0})

	req := f.deposit(500, 0)
	req.ServiceType = domain.ServiceJumia
	req.Direction = domain.DirectionPODCollection
	req.FloatAccountID = f.branch.JumiaID

	txn, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, int64(500), txn.CashTillDelta)
	assert.Equal(t, int64(0), txn.FloatDelta)
	assert.Equal(t, int64(500), testutil.Balance(t, f.store, f.branch.CashTillID))
	assert.Equal(t, int64(0), testutil.Balance(t, f.store, f.branch.JumiaID))
	assert.Equal(t, int64(-500), testutil.GLBalance(t, f.store, f.branch.PayableGL))

	entries, err := f.svc.Journal(context.Background(), txn.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assertBalancedJournal(t, entries)
}

func TestCreate_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(f *fixture, req *transaction.CreateRequest)
		wantErr error
	}{
		{
			name:    "unsupported pair",
			mutate:  func(_ *fixture, req *transaction.CreateRequest) { req.Direction = domain.DirectionTokenSale },
			wantErr: domain.ErrUnsupportedTransactionType,
		},
		{
			name:    "zero amount",
			mutate:  func(_ *fixture, req *transaction.CreateRequest) { req.Amount = 0 },
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "negative fee",
			mutate:  func(_ *fixture, req *transaction.CreateRequest) { req.Fee = -1 },
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "unknown float",
			mutate:  func(_ *fixture, req *transaction.CreateRequest) { req.FloatAccountID = uuid.New() },
			wantErr: domain.ErrAccountNotFound,
		},
		{
			name:    "cash till as float",
			mutate:  func(f *fixture, req *transaction.CreateRequest) { req.FloatAccountID = f.branch.CashTillID },
			wantErr: domain.ErrInvalidRequest,
		},
		{
			name:    "branch without cash till",
			mutate:  func(_ *fixture, req *transaction.CreateRequest) { req.BranchID = uuid.New() },
			wantErr: domain.ErrAccountNotFound,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := setup(t, testutil.BranchBalances{CashTill: 1000, Float: 1000})
			req := f.deposit(100, 2)
			tc.mutate(f, &req)

			_, err := f.svc.Create(context.Background(), req)
			require.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, int64(1000), testutil.Balance(t, f.store, f.branch.CashTillID))
			assert.Equal(t, int64(1000), testutil.Balance(t, f.store, f.branch.FloatID))
		})
	}
}

func TestCreate_FloatFromAnotherBranch(t *testing.T) {
	f := setup(t, testutil.BranchBalances{CashTill: 1000, Float: 1000})
	other := testutil.SeedBranch(t, f.store, testutil.BranchBalances{CashTill: 1000, Float: 1000})

	req := f.deposit(100, 0)
	req.FloatAccountID = other.FloatID

	_, err := f.svc.Create(context.Background(), req)
	require.ErrorIs(t, err, domain.ErrInvalidRequest)
	assert.Equal(t, int64(1000), testutil.Balance(t, f.store, other.FloatID))
}

func TestCreate_InactiveFloat(t *testing.T) {
	f := setup(t, testutil.BranchBalances{CashTill: 1000, Float: 1000})
	require.NoError(t, f.store.RunInTx(context.Background(), func(ctx context.Context, tx ledger.Tx) error {
		return tx.SetFloatAccountActive(ctx, f.branch.FloatID, false)
	}))

	_, err := f.svc.Create(context.Background(), f.deposit(100, 0))
	require.ErrorIs(t, err, domain.ErrAccountInactive)
}

func TestCreate_MissingFeeMappingFailsClosed(t *testing.T) {
	f := setup(t, testutil.BranchBalances{CashTill: 1000, Float: 1000})
	ctx := context.Background()

	require.NoError(t, f.store.RunInTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		m, err := tx.FindMapping(ctx, f.branch.FloatID, domain.MappingTypeFee)
		if err != nil {
			return err
		}
		return tx.DeactivateMapping(ctx, m.ID)
	}))

	_, err := f.svc.Create(ctx, f.deposit(100, 2))
	require.ErrorIs(t, err, domain.ErrGLMappingNotConfigured)
	assert.Equal(t, int64(1000), testutil.Balance(t, f.store, f.branch.CashTillID))
	assert.Equal(t, int64(1000), testutil.Balance(t, f.store, f.branch.FloatID))

	// Without a fee there is nothing to post to the fee account.
	txn, err := f.svc.Create(ctx, f.deposit(100, 0))
	require.NoError(t, err)
	entries, err := f.svc.Journal(ctx, txn.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestCreate_DuplicateReference(t *testing.T) {
	f := setup(t, testutil.BranchBalances{CashTill: 1000, Float: 1000})
	ctx := context.Background()

	req := f.deposit(100, 0)
	req.Reference = "MOMO-FIXED-1"
	_, err := f.svc.Create(ctx, req)
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, req)
	require.ErrorIs(t, err, domain.ErrDuplicateReference)
	assert.Equal(t, int64(900), testutil.Balance(t, f.store, f.branch.FloatID))
}

func TestEdit_ReversesThenReapplies(t *testing.T) {
	f := setup(t, testutil.BranchBalances{CashTill: 1000, Float: 5000})
	ctx := context.Background()

	txn, err := f.svc.Create(ctx, f.deposit(100, 2))
	require.NoError(t, err)

	edited, err := f.svc.Edit(ctx, transaction.EditRequest{
		ID:             txn.ID,
		ServiceType:    domain.ServiceMomo,
		Direction:      domain.DirectionCashIn,
		Amount:         150,
		Fee:            3,
		FloatAccountID: f.branch.FloatID,
		EditedBy:       uuid.New(),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(153), edited.CashTillDelta)
	assert.Equal(t, int64(-150), edited.FloatDelta)
	assert.Equal(t, txn.Reference, edited.Reference)
	assert.Equal(t, int64(1153), testutil.Balance(t, f.store, f.branch.CashTillID))
	assert.Equal(t, int64(4850), testutil.Balance(t, f.store, f.branch.FloatID))

	entries, err := f.svc.Journal(ctx, txn.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
	assertBalancedJournal(t, entries)
	assert.Equal(t, int64(-3), testutil.GLBalance(t, f.store, f.branch.FeeGL))

	assert.Len(t, f.notifier.OfType(domain.NotificationTransactionUpdated), 1)
}

func TestEdit_FailureLeavesOriginalIntact(t *testing.T) {
	f := setup(t, testutil.BranchBalances{CashTill: 1000, Float: 200})
	ctx := context.Background()

	txn, err := f.svc.Create(ctx, f.deposit(100, 2))
	require.NoError(t, err)

	_, err = f.svc.Edit(ctx, transaction.EditRequest{
		ID:             txn.ID,
		ServiceType:    domain.ServiceMomo,
		Direction:      domain.DirectionCashIn,
		Amount:         500,
		FloatAccountID: f.branch.FloatID,
	})
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)

	stored, err := f.svc.Get(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), stored.Amount)
	assert.Equal(t, int64(1102), testutil.Balance(t, f.store, f.branch.CashTillID))
	assert.Equal(t, int64(100), testutil.Balance(t, f.store, f.branch.FloatID))

	entries, err := f.svc.Journal(ctx, txn.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

// Reversal runs under the floor guard before the new effect is posted, so a
// larger deposit is refused once the till has been drawn below the original.
func TestEdit_ReversalIsGuardedBeforeRepost(t *testing.T) {
	f := setup(t, testutil.BranchBalances{CashTill: 1000, Float: 5000})
	ctx := context.Background()

	deposit, err := f.svc.Create(ctx, f.deposit(500, 0))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.withdrawal(1200, 0))
	require.NoError(t, err)
	require.Equal(t, int64(300), testutil.Balance(t, f.store, f.branch.CashTillID))

	_, err = f.svc.Edit(ctx, transaction.EditRequest{
		ID:             deposit.ID,
		ServiceType:    domain.ServiceMomo,
		Direction:      domain.DirectionCashIn,
		Amount:         600,
		FloatAccountID: f.branch.FloatID,
		EditedBy:       uuid.New(),
	})
	var shortfall *domain.InsufficientBalanceError
	require.ErrorAs(t, err, &shortfall)
	assert.Equal(t, f.branch.CashTillID, shortfall.AccountID)
	assert.Equal(t, int64(500), shortfall.Required)
	assert.Equal(t, int64(300), shortfall.Available)

	stored, err := f.svc.Get(ctx, deposit.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), stored.Amount)
	assert.Equal(t, int64(300), testutil.Balance(t, f.store, f.branch.CashTillID))
	assert.Equal(t, int64(5700), testutil.Balance(t, f.store, f.branch.FloatID))
}

func TestDelete_RestoresBalancesAndJournal(t *testing.T) {
	f := setup(t, testutil.BranchBalances{CashTill: 1000, Float: 5000})
	ctx := context.Background()

	txn, err := f.svc.Create(ctx, f.withdrawal(100, 2))
	require.NoError(t, err)
	assert.Equal(t, int64(-98), txn.CashTillDelta)
	assert.Equal(t, int64(100), txn.FloatDelta)

	require.NoError(t, f.svc.Delete(ctx, txn.ID, uuid.New()))

	assert.Equal(t, int64(1000), testutil.Balance(t, f.store, f.branch.CashTillID))
	assert.Equal(t, int64(5000), testutil.Balance(t, f.store, f.branch.FloatID))
	assert.Equal(t, int64(0), testutil.GLBalance(t, f.store, f.branch.CashGL))
	assert.Equal(t, int64(0), testutil.GLBalance(t, f.store, f.branch.FloatGL))
	assert.Equal(t, int64(0), testutil.GLBalance(t, f.store, f.branch.FeeGL))

	entries, err := f.store.ListGLEntries(ctx, txn.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = f.svc.Get(ctx, txn.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	err = f.svc.Delete(ctx, txn.ID, uuid.New())
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, int64(1000), testutil.Balance(t, f.store, f.branch.CashTillID))

	assert.Len(t, f.notifier.OfType(domain.NotificationTransactionDeleted), 1)
}

func TestDelete_OnDeactivatedFloat(t *testing.T) {
	f := setup(t, testutil.BranchBalances{CashTill: 1000, Float: 5000})
	ctx := context.Background()

	txn, err := f.svc.Create(ctx, f.deposit(100, 0))
	require.NoError(t, err)
	require.NoError(t, f.store.RunInTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		return tx.SetFloatAccountActive(ctx, f.branch.FloatID, false)
	}))

	require.NoError(t, f.svc.Delete(ctx, txn.ID, uuid.New()))
	assert.Equal(t, int64(5000), testutil.Balance(t, f.store, f.branch.FloatID))
}

func TestCreateThenDelete_IsIdentity(t *testing.T) {
	requests := []struct {
		name string
		req  func(f *fixture) transaction.CreateRequest
	}{
		{"deposit", func(f *fixture) transaction.CreateRequest { return f.deposit(1234, 56) }},
		{"withdrawal", func(f *fixture) transaction.CreateRequest { return f.withdrawal(777, 7) }},
		{"flat credit", func(f *fixture) transaction.CreateRequest {
			r := f.deposit(300, 0)
			r.ServiceType, r.Direction, r.FloatAccountID = domain.ServiceJumia, domain.DirectionPODCollection, f.branch.JumiaID
			return r
		}},
	}

	for _, tc := range requests {
		t.Run(tc.name, func(t *testing.T) {
			f := setup(t, testutil.BranchBalances{CashTill: 10_000, Float: 10_000, Jumia: 10_000})
			ctx := context.Background()

			txn, err := f.svc.Create(ctx, tc.req(f))
			require.NoError(t, err)
			require.NoError(t, f.svc.Delete(ctx, txn.ID, uuid.New()))

			for _, id := range []uuid.UUID{f.branch.CashTillID, f.branch.FloatID, f.branch.JumiaID} {
				assert.Equal(t, int64(10_000), testutil.Balance(t, f.store, id))
			}
			for _, gl := range []uuid.UUID{f.branch.CashGL, f.branch.FloatGL, f.branch.FeeGL, f.branch.JumiaGL, f.branch.PayableGL} {
				assert.Equal(t, int64(0), testutil.GLBalance(t, f.store, gl))
			}
		})
	}
}

func TestCreate_ConcurrentWithdrawalsNeverOverdraw(t *testing.T) {
	f := setup(t, testutil.BranchBalances{CashTill: 150, Float: 0})
	ctx := context.Background()

	const workers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		failures  int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Create(ctx, f.withdrawal(100, 0))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			if errors.Is(err, domain.ErrInsufficientBalance) {
				failures++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, failures)
	assert.Equal(t, int64(50), testutil.Balance(t, f.store, f.branch.CashTillID))
	assert.Equal(t, int64(100), testutil.Balance(t, f.store, f.branch.FloatID))
}

func TestCreate_LowBalanceNotification(t *testing.T) {
	f := setup(t, testutil.BranchBalances{CashTill: 1000, Float: 1000})
	ctx := context.Background()

	watched := uuid.New()
	require.NoError(t, f.store.RunInTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		if err := tx.CreateFloatAccount(ctx, &domain.FloatAccount{
			ID:             watched,
			BranchID:       f.branch.ID,
			AccountType:    domain.AccountTypeAgencyBanking,
			CurrentBalance: 1000,
			MinThreshold:   800,
			IsActive:       true,
		}); err != nil {
			return err
		}
		gl, err := ledger.EnsureAccount(ctx, tx, "1110", "Agency Banking Float", domain.GLAccountTypeAsset)
		if err != nil {
			return err
		}
		return tx.CreateMapping(ctx, &domain.GLFloatMapping{
			ID:             uuid.New(),
			FloatAccountID: watched,
			GLAccountID:    gl.ID,
			MappingType:    domain.MappingTypeMain,
			IsActive:       true,
		})
	}))

	req := f.deposit(300, 0)
	req.ServiceType = domain.ServiceAgencyBanking
	req.Direction = domain.DirectionDeposit
	req.FloatAccountID = watched

	_, err := f.svc.Create(ctx, req)
	require.NoError(t, err)

	alerts := f.notifier.OfType(domain.NotificationFloatLowBalance)
	require.Len(t, alerts, 1)
	assert.Equal(t, watched, alerts[0].AggregateID)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(alerts[0].Payload, &payload))
	assert.EqualValues(t, 700, payload["balance"])
	assert.EqualValues(t, 800, payload["min_threshold"])

	// Postings that leave the watched float alone raise nothing new.
	_, err = f.svc.Create(ctx, f.deposit(10, 0))
	require.NoError(t, err)
	assert.Len(t, f.notifier.OfType(domain.NotificationFloatLowBalance), 1)
}

func TestList_FiltersByBranchAndService(t *testing.T) {
	f := setup(t, testutil.BranchBalances{CashTill: 10_000, Float: 10_000, Jumia: 10_000})
	other := testutil.SeedBranch(t, f.store, testutil.BranchBalances{CashTill: 10_000, Float: 10_000})
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.deposit(100, 0))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.withdrawal(100, 0))
	require.NoError(t, err)

	otherReq := f.deposit(100, 0)
	otherReq.BranchID, otherReq.FloatAccountID = other.ID, other.FloatID
	_, err = f.svc.Create(ctx, otherReq)
	require.NoError(t, err)

	txns, err := f.svc.List(ctx, domain.TransactionFilter{BranchID: &f.branch.ID})
	require.NoError(t, err)
	assert.Len(t, txns, 2)

	jumia := domain.ServiceJumia
	txns, err = f.svc.List(ctx, domain.TransactionFilter{BranchID: &f.branch.ID, ServiceType: &jumia})
	require.NoError(t, err)
	assert.Empty(t, txns)

	txns, err = f.svc.List(ctx, domain.TransactionFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, txns, 1)
}
