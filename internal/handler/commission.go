package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/float-ledger/internal/domain"
	"github.com/josh-kwaku/float-ledger/internal/logging"
	"github.com/josh-kwaku/float-ledger/internal/service/commission"
)

type commissionService interface {
	Create(ctx context.Context, req commission.CreateRequest) (*domain.Commission, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Commission, error)
	Edit(ctx context.Context, req commission.EditRequest) (*domain.Commission, error)
	Delete(ctx context.Context, id uuid.UUID, deletedBy uuid.UUID) error
	Approve(ctx context.Context, id uuid.UUID, approverID uuid.UUID) (*domain.Commission, error)
	Reject(ctx context.Context, id uuid.UUID, rejecterID uuid.UUID, reason string) (*domain.Commission, error)
	MarkPaid(ctx context.Context, id uuid.UUID, payerID uuid.UUID, paymentRef string) (*domain.Commission, error)
}

type CommissionHandler struct {
	commissions commissionService
}

func NewCommissionHandler(commissions commissionService) *CommissionHandler {
	return &CommissionHandler{commissions: commissions}
}

type commissionRequest struct {
	SourceAccountID string `json:"source_account_id" validate:"required,uuid"`
	Amount          string `json:"amount" validate:"required"`
	Description     string `json:"description" validate:"max=255"`
}

func (r commissionRequest) parse() (uuid.UUID, int64, []FieldError) {
	var errs []FieldError
	amount, err := ParseAmount(r.Amount)
	if err != nil || amount <= 0 {
		errs = append(errs, FieldError{Field: "amount", Message: "must be a positive amount with at most two decimal places"})
	}
	source, _ := uuid.Parse(r.SourceAccountID)
	return source, amount, errs
}

type rejectCommissionRequest struct {
	Reason string `json:"reason" validate:"required,max=255"`
}

type payCommissionRequest struct {
	PaymentReference string `json:"payment_reference" validate:"max=64"`
}

type commissionDTO struct {
	ID               uuid.UUID  `json:"id"`
	SourceAccountID  uuid.UUID  `json:"source_account_id"`
	BranchID         uuid.UUID  `json:"branch_id"`
	Amount           string     `json:"amount"`
	Description      string     `json:"description,omitempty"`
	Status           string     `json:"status"`
	CreatedBy        uuid.UUID  `json:"created_by"`
	ApprovedBy       *uuid.UUID `json:"approved_by,omitempty"`
	ApprovedAt       *time.Time `json:"approved_at,omitempty"`
	RejectedBy       *uuid.UUID `json:"rejected_by,omitempty"`
	RejectedAt       *time.Time `json:"rejected_at,omitempty"`
	RejectionReason  *string    `json:"rejection_reason,omitempty"`
	PaidBy           *uuid.UUID `json:"paid_by,omitempty"`
	PaidAt           *time.Time `json:"paid_at,omitempty"`
	PaymentReference *string    `json:"payment_reference,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func toCommissionDTO(c *domain.Commission) commissionDTO {
	return commissionDTO{
		ID:               c.ID,
		SourceAccountID:  c.SourceAccountID,
		BranchID:         c.BranchID,
		Amount:           FormatAmount(c.Amount),
		Description:      c.Description,
		Status:           string(c.Status),
		CreatedBy:        c.CreatedBy,
		ApprovedBy:       c.ApprovedBy,
		ApprovedAt:       c.ApprovedAt,
		RejectedBy:       c.RejectedBy,
		RejectedAt:       c.RejectedAt,
		RejectionReason:  c.RejectionReason,
		PaidBy:           c.PaidBy,
		PaidAt:           c.PaidAt,
		PaymentReference: c.PaymentReference,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

func (h *CommissionHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	caller, ok := callerFromContext(w, r)
	if !ok {
		return
	}

	var req commissionRequest
	if appErr, fields := decodeRequest(r, &req); appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	} else if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}
	source, amount, fields := req.parse()
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	c, err := h.commissions.Create(r.Context(), commission.CreateRequest{
		SourceAccountID: source,
		BranchID:        caller.BranchID,
		Amount:          amount,
		Description:     req.Description,
		CreatedBy:       caller.UserID,
	})
	if err != nil {
		log.Warn("commission creation failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/commissions/%s", c.ID))
	RespondSuccess(w, http.StatusCreated, toCommissionDTO(c))
}

func (h *CommissionHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, ok := h.scoped(w, r)
	if !ok {
		return
	}
	RespondSuccess(w, http.StatusOK, toCommissionDTO(c))
}

func (h *CommissionHandler) Update(w http.ResponseWriter, r *http.Request) {
	current, ok := h.scoped(w, r)
	if !ok {
		return
	}
	caller, _ := callerFromContext(w, r)

	var req commissionRequest
	if appErr, fields := decodeRequest(r, &req); appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	} else if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}
	source, amount, fields := req.parse()
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	c, err := h.commissions.Edit(r.Context(), commission.EditRequest{
		ID:              current.ID,
		SourceAccountID: source,
		Amount:          amount,
		Description:     req.Description,
		EditedBy:        caller.UserID,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("commission edit failed", "commission_id", current.ID, "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toCommissionDTO(c))
}

func (h *CommissionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	current, ok := h.scoped(w, r)
	if !ok {
		return
	}
	caller, _ := callerFromContext(w, r)

	if err := h.commissions.Delete(r.Context(), current.ID, caller.UserID); err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, map[string]any{"id": current.ID, "deleted": true})
}

func (h *CommissionHandler) Approve(w http.ResponseWriter, r *http.Request) {
	current, ok := h.scoped(w, r)
	if !ok {
		return
	}
	caller, _ := callerFromContext(w, r)

	c, err := h.commissions.Approve(r.Context(), current.ID, caller.UserID)
	if err != nil {
		logging.FromContext(r.Context()).Warn("commission approval failed", "commission_id", current.ID, "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toCommissionDTO(c))
}

func (h *CommissionHandler) Reject(w http.ResponseWriter, r *http.Request) {
	current, ok := h.scoped(w, r)
	if !ok {
		return
	}
	caller, _ := callerFromContext(w, r)

	var req rejectCommissionRequest
	if appErr, fields := decodeRequest(r, &req); appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	} else if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	c, err := h.commissions.Reject(r.Context(), current.ID, caller.UserID, req.Reason)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toCommissionDTO(c))
}

func (h *CommissionHandler) Pay(w http.ResponseWriter, r *http.Request) {
	current, ok := h.scoped(w, r)
	if !ok {
		return
	}
	caller, _ := callerFromContext(w, r)

	var req payCommissionRequest
	if r.ContentLength != 0 {
		if appErr, fields := decodeRequest(r, &req); appErr != nil {
			RespondAppError(w, appErr, nil)
			return
		} else if len(fields) > 0 {
			RespondValidationError(w, fields)
			return
		}
	}

	c, err := h.commissions.MarkPaid(r.Context(), current.ID, caller.UserID, req.PaymentReference)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toCommissionDTO(c))
}

func (h *CommissionHandler) scoped(w http.ResponseWriter, r *http.Request) (*domain.Commission, bool) {
	caller, ok := callerFromContext(w, r)
	if !ok {
		return nil, false
	}
	id, ok := idFromPath(w, r)
	if !ok {
		return nil, false
	}

	c, err := h.commissions.Get(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return nil, false
	}
	if !inScope(caller, c.BranchID) {
		RespondAppError(w, ErrResourceNotFound, nil)
		return nil, false
	}
	return c, true
}
