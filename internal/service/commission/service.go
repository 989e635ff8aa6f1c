// Package commission gates when a commission reaches the ledger. Creating
// one records intent only; the source float is credited and the journal
// posted on approval, and undone on rejection or deletion after approval.
package commission

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/float-ledger/internal/domain"
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
	SourceAccountID uuid.UUID
	BranchID        uuid.UUID
	Amount          int64
	Description     string
	CreatedBy       uuid.UUID
}

type EditRequest struct {
	ID              uuid.UUID
	SourceAccountID uuid.UUID
	Amount          int64
	Description     string
	EditedBy        uuid.UUID
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*domain.Commission, error) {
	if !domain.ValidAmount(req.Amount) {
		return nil, fmt.Errorf("Create: %w", domain.ErrInvalidAmount)
	}

	now := time.Now().UTC()
	c := &domain.Commission{
		ID:              uuid.New(),
		SourceAccountID: req.SourceAccountID,
		BranchID:        req.BranchID,
		Amount:          req.Amount,
		Description:     req.Description,
		Status:          domain.CommissionStatusPending,
		CreatedBy:       req.CreatedBy,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err := ledger.Atomically(ctx, s.store, s.maxRetries, func(ctx context.Context, tx ledger.Tx) error {
		src, err := tx.LockFloatAccount(ctx, c.SourceAccountID)
		if err != nil {
			return err
		}
		if err := checkSource(src, c.BranchID); err != nil {
			return err
		}
		return tx.CreateCommission(ctx, c)
	})
	if err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	logging.FromContext(ctx).Info("commission recorded",
		"commission_id", c.ID,
		"source_account_id", c.SourceAccountID,
		"amount", c.Amount,
	)
	return c, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Commission, error) {
	c, err := s.store.GetCommission(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return c, nil
}

// Edit changes amount, source or description. An applied commission has
// its old credit reversed and the new one posted in the same unit.
func (s *Service) Edit(ctx context.Context, req EditRequest) (*domain.Commission, error) {
	if !domain.ValidAmount(req.Amount) {
		return nil, fmt.Errorf("Edit: %w", domain.ErrInvalidAmount)
	}

	var edited *domain.Commission
	err := ledger.Atomically(ctx, s.store, s.maxRetries, func(ctx context.Context, tx ledger.Tx) error {
		current, err := tx.GetCommissionForUpdate(ctx, req.ID)
		if err != nil {
			return err
		}
		if current.Status == domain.CommissionStatusRejected {
			return fmt.Errorf("commission %s is rejected: %w", current.ID, domain.ErrInvalidStateTransition)
		}

		next := *current
		next.SourceAccountID = req.SourceAccountID
		next.Amount = req.Amount
		next.Description = req.Description
		next.UpdatedAt = time.Now().UTC()

		if current.Status.Applied() {
			if err := ledger.Reverse(ctx, tx, current.AppliedEffect()); err != nil {
				return err
			}
			if err := apply(ctx, tx, &next); err != nil {
				return err
			}
		} else {
			src, err := tx.LockFloatAccount(ctx, next.SourceAccountID)
			if err != nil {
				return err
			}
			if err := checkSource(src, next.BranchID); err != nil {
				return err
			}
		}

		if err := tx.UpdateCommission(ctx, &next); err != nil {
			return err
		}
		edited = &next
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("Edit: %w", err)
	}

	logging.FromContext(ctx).Info("commission edited",
		"commission_id", edited.ID,
		"edited_by", req.EditedBy,
		"status", edited.Status,
		"amount", edited.Amount,
	)
	return edited, nil
}

// Delete removes a commission. Only an applied commission has a credit to
// reverse; a pending or rejected one leaves every balance untouched.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, deletedBy uuid.UUID) error {
	var removed *domain.Commission
	err := ledger.Atomically(ctx, s.store, s.maxRetries, func(ctx context.Context, tx ledger.Tx) error {
		current, err := tx.GetCommissionForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.Status.Applied() {
			if err := ledger.Reverse(ctx, tx, current.AppliedEffect()); err != nil {
				return err
			}
		}
		if err := tx.DeleteCommission(ctx, id); err != nil {
			return err
		}
		removed = current
		return nil
	})
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}

	logging.FromContext(ctx).Info("commission deleted",
		"commission_id", id,
		"deleted_by", deletedBy,
		"reversed", removed.Status.Applied(),
	)
	return nil
}

// Approve is the only transition that credits the source float.
func (s *Service) Approve(ctx context.Context, id uuid.UUID, approverID uuid.UUID) (*domain.Commission, error) {
	var (
		approved *domain.Commission
		source   *domain.FloatAccount
	)
	err := ledger.Atomically(ctx, s.store, s.maxRetries, func(ctx context.Context, tx ledger.Tx) error {
		current, err := tx.GetCommissionForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := transition(current.Status, domain.CommissionStatusApproved); err != nil {
			return err
		}

		now := time.Now().UTC()
		next := *current
		next.Status = domain.CommissionStatusApproved
		next.ApprovedBy = &approverID
		next.ApprovedAt = &now
		next.UpdatedAt = now

		if err := apply(ctx, tx, &next); err != nil {
			return err
		}
		if err := tx.UpdateCommission(ctx, &next); err != nil {
			return err
		}

		source, err = tx.LockFloatAccount(ctx, next.SourceAccountID)
		if err != nil {
			return err
		}
		approved = &next
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("Approve: %w", err)
	}

	logging.FromContext(ctx).Info("commission approved",
		"commission_id", approved.ID,
		"approved_by", approverID,
		"source_account_id", approved.SourceAccountID,
		"amount", approved.Amount,
		"source_balance", source.CurrentBalance,
	)
	s.notifier.Notify(ctx, domain.NotificationCommissionApproved, approved.ID, newCommissionEvent(approved))
	return approved, nil
}

// Reject closes a commission. Rejecting after approval takes the credit
// back out of the source float.
func (s *Service) Reject(ctx context.Context, id uuid.UUID, rejecterID uuid.UUID, reason string) (*domain.Commission, error) {
	var (
		rejected   *domain.Commission
		wasApplied bool
	)
	err := ledger.Atomically(ctx, s.store, s.maxRetries, func(ctx context.Context, tx ledger.Tx) error {
		current, err := tx.GetCommissionForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := transition(current.Status, domain.CommissionStatusRejected); err != nil {
			return err
		}

		wasApplied = current.Status.Applied()
		if wasApplied {
			if err := ledger.Reverse(ctx, tx, current.AppliedEffect()); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		next := *current
		next.Status = domain.CommissionStatusRejected
		next.RejectedBy = &rejecterID
		next.RejectedAt = &now
		next.RejectionReason = &reason
		next.UpdatedAt = now

		if err := tx.UpdateCommission(ctx, &next); err != nil {
			return err
		}
		rejected = &next
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("Reject: %w", err)
	}

	logging.FromContext(ctx).Info("commission rejected",
		"commission_id", rejected.ID,
		"rejected_by", rejecterID,
		"reversed", wasApplied,
	)
	s.notifier.Notify(ctx, domain.NotificationCommissionRejected, rejected.ID, newCommissionEvent(rejected))
	return rejected, nil
}

// MarkPaid records payout metadata on an approved commission. Balances do
// not move.
func (s *Service) MarkPaid(ctx context.Context, id uuid.UUID, payerID uuid.UUID, paymentRef string) (*domain.Commission, error) {
	var paid *domain.Commission
	err := ledger.Atomically(ctx, s.store, s.maxRetries, func(ctx context.Context, tx ledger.Tx) error {
		current, err := tx.GetCommissionForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := transition(current.Status, domain.CommissionStatusPaid); err != nil {
			return err
		}

		now := time.Now().UTC()
		next := *current
		next.Status = domain.CommissionStatusPaid
		next.PaidBy = &payerID
		next.PaidAt = &now
		if paymentRef != "" {
			next.PaymentReference = &paymentRef
		}
		next.UpdatedAt = now

		if err := tx.UpdateCommission(ctx, &next); err != nil {
			return err
		}
		paid = &next
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("MarkPaid: %w", err)
	}

	logging.FromContext(ctx).Info("commission paid", "commission_id", paid.ID, "paid_by", payerID)
	s.notifier.Notify(ctx, domain.NotificationCommissionPaid, paid.ID, newCommissionEvent(paid))
	return paid, nil
}

// apply credits the source float and posts the commission journal:
// the float's main account is debited, its commission account credited.
func apply(ctx context.Context, tx ledger.Tx, c *domain.Commission) error {
	src, err := tx.LockFloatAccount(ctx, c.SourceAccountID)
	if err != nil {
		return fmt.Errorf("apply: %w", err)
	}
	if err := checkSource(src, c.BranchID); err != nil {
		return fmt.Errorf("apply: %w", err)
	}
	if !src.IsActive {
		return fmt.Errorf("apply: source %s: %w", src.ID, domain.ErrAccountInactive)
	}

	mainGL, err := ledger.Resolve(ctx, tx, src.ID, domain.MappingTypeMain, c.Amount)
	if err != nil {
		return fmt.Errorf("apply: %w", err)
	}
	commissionGL, err := ledger.Resolve(ctx, tx, src.ID, domain.MappingTypeCommission, c.Amount)
	if err != nil {
		return fmt.Errorf("apply: %w", err)
	}

	desc := "commission " + c.ID.String()
	if c.Description != "" {
		desc = "commission: " + c.Description
	}
	lines := []ledger.Line{
		ledger.DebitLine(mainGL.ID, c.Amount, desc),
		ledger.CreditLine(commissionGL.ID, c.Amount, desc),
	}
	if err := ledger.Post(ctx, tx, c.ID, lines); err != nil {
		return fmt.Errorf("apply: %w", err)
	}

	if _, err := ledger.ApplyLegs(ctx, tx, c.AppliedEffect().Legs); err != nil {
		return fmt.Errorf("apply: %w", err)
	}
	return nil
}

func checkSource(src *domain.FloatAccount, branchID uuid.UUID) error {
	if src.AccountType == domain.AccountTypeCashInTill {
		return fmt.Errorf("source %s is a cash till: %w", src.ID, domain.ErrInvalidRequest)
	}
	if src.BranchID != branchID {
		return fmt.Errorf("source %s belongs to another branch: %w", src.ID, domain.ErrInvalidRequest)
	}
	return nil
}

var transitions = map[domain.CommissionStatus][]domain.CommissionStatus{
	domain.CommissionStatusPending:  {domain.CommissionStatusApproved, domain.CommissionStatusRejected},
	domain.CommissionStatusApproved: {domain.CommissionStatusPaid, domain.CommissionStatusRejected},
}

func transition(from, to domain.CommissionStatus) error {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return nil
		}
	}
	return fmt.Errorf("commission %s -> %s: %w", from, to, domain.ErrInvalidStateTransition)
}

type commissionEvent struct {
	CommissionID    uuid.UUID               `json:"commission_id"`
	SourceAccountID uuid.UUID               `json:"source_account_id"`
	BranchID        uuid.UUID               `json:"branch_id"`
	Amount          int64                   `json:"amount"`
	Status          domain.CommissionStatus `json:"status"`
}

func newCommissionEvent(c *domain.Commission) commissionEvent {
	return commissionEvent{
		CommissionID:    c.ID,
		SourceAccountID: c.SourceAccountID,
		BranchID:        c.BranchID,
		Amount:          c.Amount,
		Status:          c.Status,
	}
}
