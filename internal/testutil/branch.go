package testutil

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/float-ledger/internal/domain"
	"github.com/josh-kwaku/float-ledger/internal/ledger"
)

// Branch is a seeded branch with a cash till, one MoMo float and one Jumia
// float, each mapped to its GL accounts.
type Branch struct {
	ID         uuid.UUID
	CashTillID uuid.UUID
	FloatID    uuid.UUID
	JumiaID    uuid.UUID

	CashGL       uuid.UUID
	FloatGL      uuid.UUID
	JumiaGL      uuid.UUID
	FeeGL        uuid.UUID
	CommissionGL uuid.UUID
	PayableGL    uuid.UUID
}

type BranchBalances struct {
	CashTill int64
	Float    int64
	Jumia    int64
}

// SeedBranch creates a branch in any ledger backend. GL accounts are
// shared by code, so seeding several branches in one store reuses them.
func SeedBranch(t *testing.T, store ledger.Store, bal BranchBalances) *Branch {
	t.Helper()

	b := &Branch{
		ID:         uuid.New(),
		CashTillID: uuid.New(),
		FloatID:    uuid.New(),
		JumiaID:    uuid.New(),
	}

	err := store.RunInTx(context.Background(), func(ctx context.Context, tx ledger.Tx) error {
		now := time.Now().UTC()
		floats := []struct {
			id      uuid.UUID
			typ     domain.AccountType
			balance int64
		}{
			{b.CashTillID, domain.AccountTypeCashInTill, bal.CashTill},
			{b.FloatID, domain.AccountTypeMomo, bal.Float},
			{b.JumiaID, domain.AccountTypeJumia, bal.Jumia},
		}
		for _, f := range floats {
			if err := tx.CreateFloatAccount(ctx, &domain.FloatAccount{
				ID:             f.id,
				BranchID:       b.ID,
				AccountType:    f.typ,
				CurrentBalance: f.balance,
				IsActive:       true,
				CreatedAt:      now,
				UpdatedAt:      now,
			}); err != nil {
				return err
			}
		}

		mappings := []struct {
			float uuid.UUID
			role  domain.MappingType
			code  string
			name  string
			typ   domain.GLAccountType
			out   *uuid.UUID
		}{
			{b.CashTillID, domain.MappingTypeMain, "1000", "Cash in Till", domain.GLAccountTypeAsset, &b.CashGL},
			{b.FloatID, domain.MappingTypeMain, "1100", "MoMo Float", domain.GLAccountTypeAsset, &b.FloatGL},
			{b.FloatID, domain.MappingTypeFee, "4000", "Fee Income", domain.GLAccountTypeRevenue, &b.FeeGL},
			{b.FloatID, domain.MappingTypeCommission, "4100", "Commission Income", domain.GLAccountTypeRevenue, &b.CommissionGL},
			{b.JumiaID, domain.MappingTypeMain, "1120", "Jumia Float", domain.GLAccountTypeAsset, &b.JumiaGL},
			{b.JumiaID, domain.MappingTypeRevenue, "2100", "Jumia Collections Payable", domain.GLAccountTypeLiability, &b.PayableGL},
		}
		for _, m := range mappings {
			gl, err := ledger.EnsureAccount(ctx, tx, m.code, m.name, m.typ)
			if err != nil {
				return err
			}
			*m.out = gl.ID
			if err := tx.CreateMapping(ctx, &domain.GLFloatMapping{
				ID:             uuid.New(),
				FloatAccountID: m.float,
				GLAccountID:    gl.ID,
				MappingType:    m.role,
				IsActive:       true,
				CreatedAt:      now,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed branch: %v", err)
	}
	return b
}

func Balance(t *testing.T, store ledger.Reader, accountID uuid.UUID) int64 {
	t.Helper()

	a, err := store.GetFloatAccount(context.Background(), accountID)
	if err != nil {
		t.Fatalf("get float account %s: %v", accountID, err)
	}
	return a.CurrentBalance
}

func GLBalance(t *testing.T, store ledger.Reader, glAccountID uuid.UUID) int64 {
	t.Helper()

	a, err := store.GetGLAccount(context.Background(), glAccountID)
	if err != nil {
		t.Fatalf("get gl account %s: %v", glAccountID, err)
	}
	return a.Balance
}

// Notification is one call captured by Recorder.
type Notification struct {
	Type        domain.NotificationType
	AggregateID uuid.UUID
	Payload     json.RawMessage
}

// Recorder is a notifier that keeps every call for inspection.
type Recorder struct {
	mu     sync.Mutex
	events []Notification
}

func (r *Recorder) Notify(_ context.Context, eventType domain.NotificationType, aggregateID uuid.UUID, payload any) {
	body, _ := json.Marshal(payload)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Notification{Type: eventType, AggregateID: aggregateID, Payload: body})
}

func (r *Recorder) OfType(eventType domain.NotificationType) []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Notification
	for _, e := range r.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
