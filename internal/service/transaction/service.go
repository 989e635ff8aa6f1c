// Package transaction coordinates the two-leg posting of a customer
// transaction: cash till and provider float move together with their
// journal lines, or not at all.
package transaction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/float-ledger/internal/domain"
	"github.com/josh-kwaku/float-ledger/internal/effect"
	"github.com/josh-kwaku/float-ledger/internal/ledger"
	"github.com/josh-kwaku/float-ledger/internal/logging"
)

type notifier interface {
	Notify(ctx context.Context, eventType domain.NotificationType, aggregateID uuid.UUID, payload any)
}

type Service struct {
	store      ledger.Store
	notifier   notifier
	maxRetries int
}

func NewService(store ledger.Store, n notifier, maxRetries int) *Service {
	return &Service{store: store, notifier: n, maxRetries: maxRetries}
}

type CreateRequest struct {
	ServiceType    domain.ServiceType
	Direction      domain.Direction
	Amount         int64
	Fee            int64
	CustomerName   string
	CustomerPhone  string
	CustomerRef    string
	BranchID       uuid.UUID
	UserID         uuid.UUID
	FloatAccountID uuid.UUID
	Reference      string
}

func (r CreateRequest) intent() effect.Intent {
	return effect.Intent{ServiceType: r.ServiceType, Direction: r.Direction, Amount: r.Amount, Fee: r.Fee}
}

// EditRequest replaces every mutable field of a transaction. The branch,
// cash till and creator stay as originally posted.
type EditRequest struct {
	ID             uuid.UUID
	ServiceType    domain.ServiceType
	Direction      domain.Direction
	Amount         int64
	Fee            int64
	CustomerName   string
	CustomerPhone  string
	CustomerRef    string
	FloatAccountID uuid.UUID
	Reference      string
	EditedBy       uuid.UUID
}

func (r EditRequest) intent() effect.Intent {
	return effect.Intent{ServiceType: r.ServiceType, Direction: r.Direction, Amount: r.Amount, Fee: r.Fee}
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*domain.Transaction, error) {
	log := logging.FromContext(ctx)

	eff, err := effect.Calculate(req.intent())
	if err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	var (
		posted  *domain.Transaction
		touched []*domain.FloatAccount
	)
	err = ledger.Atomically(ctx, s.store, s.maxRetries, func(ctx context.Context, tx ledger.Tx) error {
		till, err := tx.FindCashTill(ctx, req.BranchID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		t := &domain.Transaction{
			ID:                uuid.New(),
			ServiceType:       req.ServiceType,
			Direction:         req.Direction,
			Amount:            req.Amount,
			Fee:               req.Fee,
			CustomerName:      req.CustomerName,
			CustomerPhone:     req.CustomerPhone,
			CustomerRef:       req.CustomerRef,
			BranchID:          req.BranchID,
			UserID:            req.UserID,
			CashTillAccountID: till.ID,
			FloatAccountID:    req.FloatAccountID,
			Status:            domain.TransactionStatusCompleted,
			Reference:         req.Reference,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if t.Reference == "" {
			t.Reference = generateReference(t.ServiceType, t.ID, now)
		}

		touched, err = post(ctx, tx, t, eff)
		if err != nil {
			return err
		}
		if err := tx.CreateTransaction(ctx, t); err != nil {
			return err
		}
		posted = t
		return nil
	})
	if err != nil {
		s.logFailure(ctx, "create", uuid.Nil, err)
		return nil, fmt.Errorf("Create: %w", err)
	}

	log.Info("transaction posted",
		"transaction_id", posted.ID,
		"reference", posted.Reference,
		"service_type", posted.ServiceType,
		"direction", posted.Direction,
		"amount", posted.Amount,
		"fee", posted.Fee,
		"cash_till_delta", posted.CashTillDelta,
		"float_delta", posted.FloatDelta,
	)

	s.notifier.Notify(ctx, domain.NotificationTransactionCreated, posted.ID, newTransactionEvent(posted))
	s.notifyLowBalances(ctx, touched)
	return posted, nil
}

func (s *Service) Edit(ctx context.Context, req EditRequest) (*domain.Transaction, error) {
	log := logging.FromContext(ctx)

	eff, err := effect.Calculate(req.intent())
	if err != nil {
		return nil, fmt.Errorf("Edit: %w", err)
	}

	var (
		edited  *domain.Transaction
		touched []*domain.FloatAccount
	)
	err = ledger.Atomically(ctx, s.store, s.maxRetries, func(ctx context.Context, tx ledger.Tx) error {
		current, err := tx.GetTransactionForUpdate(ctx, req.ID)
		if err != nil {
			return err
		}

		if err := ledger.Reverse(ctx, tx, current.AppliedEffect()); err != nil {
			return err
		}

		next := *current
		next.ServiceType = req.ServiceType
		next.Direction = req.Direction
		next.Amount = req.Amount
		next.Fee = req.Fee
		next.CustomerName = req.CustomerName
		next.CustomerPhone = req.CustomerPhone
		next.CustomerRef = req.CustomerRef
		next.FloatAccountID = req.FloatAccountID
		if req.Reference != "" {
			next.Reference = req.Reference
		}
		next.UpdatedAt = time.Now().UTC()

		touched, err = post(ctx, tx, &next, eff)
		if err != nil {
			return err
		}
		if err := tx.UpdateTransaction(ctx, &next); err != nil {
			return err
		}
		edited = &next
		return nil
	})
	if err != nil {
		s.logFailure(ctx, "edit", req.ID, err)
		return nil, fmt.Errorf("Edit: %w", err)
	}

	log.Info("transaction edited",
		"transaction_id", edited.ID,
		"edited_by", req.EditedBy,
		"amount", edited.Amount,
		"fee", edited.Fee,
		"cash_till_delta", edited.CashTillDelta,
		"float_delta", edited.FloatDelta,
	)

	s.notifier.Notify(ctx, domain.NotificationTransactionUpdated, edited.ID, newTransactionEvent(edited))
	s.notifyLowBalances(ctx, touched)
	return edited, nil
}

// Delete reverses the stored effect and removes the transaction with its
// journal lines. A second delete of the same id finds nothing to reverse
// and reports ErrNotFound.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, deletedBy uuid.UUID) error {
	log := logging.FromContext(ctx)

	var removed *domain.Transaction
	err := ledger.Atomically(ctx, s.store, s.maxRetries, func(ctx context.Context, tx ledger.Tx) error {
		current, err := tx.GetTransactionForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := ledger.Reverse(ctx, tx, current.AppliedEffect()); err != nil {
			return err
		}
		if err := tx.DeleteTransaction(ctx, id); err != nil {
			return err
		}
		removed = current
		return nil
	})
	if err != nil {
		s.logFailure(ctx, "delete", id, err)
		return fmt.Errorf("Delete: %w", err)
	}

	log.Info("transaction deleted",
		"transaction_id", id,
		"deleted_by", deletedBy,
		"reversed_cash_till_delta", -removed.CashTillDelta,
		"reversed_float_delta", -removed.FloatDelta,
	)

	s.notifier.Notify(ctx, domain.NotificationTransactionDeleted, id, newTransactionEvent(removed))
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	t, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return t, nil
}

func (s *Service) List(ctx context.Context, f domain.TransactionFilter) ([]domain.Transaction, error) {
	txns, err := s.store.ListTransactions(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	return txns, nil
}

func (s *Service) Journal(ctx context.Context, id uuid.UUID) ([]domain.GLEntry, error) {
	if _, err := s.store.GetTransaction(ctx, id); err != nil {
		return nil, fmt.Errorf("Journal: %w", err)
	}
	entries, err := s.store.ListGLEntries(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Journal: %w", err)
	}
	return entries, nil
}

func (s *Service) logFailure(ctx context.Context, op string, id uuid.UUID, err error) {
	log := logging.FromContext(ctx)
	switch {
	case errors.Is(err, domain.ErrUnbalancedJournal):
		logging.Alert(ctx, "ledger invariant violated, posting rolled back",
			"op", op, "transaction_id", id, "error", err)
	case errors.Is(err, domain.ErrConcurrencyConflict):
		log.Warn("posting abandoned after repeated conflicts", "op", op, "transaction_id", id, "error", err)
	default:
		log.Info("posting rejected", "op", op, "transaction_id", id, "error", err)
	}
}

func (s *Service) notifyLowBalances(ctx context.Context, accounts []*domain.FloatAccount) {
	for _, a := range accounts {
		if a.BelowThreshold() {
			s.notifier.Notify(ctx, domain.NotificationFloatLowBalance, a.ID, lowBalanceEvent{
				AccountID:    a.ID,
				BranchID:     a.BranchID,
				AccountType:  a.AccountType,
				Balance:      a.CurrentBalance,
				MinThreshold: a.MinThreshold,
			})
		}
	}
}

func generateReference(svc domain.ServiceType, id uuid.UUID, now time.Time) string {
	prefix := strings.ToUpper(strings.ReplaceAll(string(svc), "_", ""))
	return fmt.Sprintf("%s-%s-%s", prefix, now.Format("20060102"), strings.ToUpper(id.String()[:8]))
}
