package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/float-ledger/internal/domain"
	"github.com/josh-kwaku/float-ledger/internal/logging"
	"github.com/josh-kwaku/float-ledger/internal/service/transaction"
)

type transactionService interface {
	Create(ctx context.Context, req transaction.CreateRequest) (*domain.Transaction, error)
	Edit(ctx context.Context, req transaction.EditRequest) (*domain.Transaction, error)
	Delete(ctx context.Context, id uuid.UUID, deletedBy uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	List(ctx context.Context, f domain.TransactionFilter) ([]domain.Transaction, error)
	Journal(ctx context.Context, id uuid.UUID) ([]domain.GLEntry, error)
}

type TransactionHandler struct {
	transactions transactionService
}

func NewTransactionHandler(transactions transactionService) *TransactionHandler {
	return &TransactionHandler{transactions: transactions}
}

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type transactionRequest struct {
	ServiceType    string `json:"service_type" validate:"required"`
	Direction      string `json:"direction" validate:"required"`
	Amount         string `json:"amount" validate:"required"`
	Fee            string `json:"fee"`
	CustomerName   string `json:"customer_name" validate:"max=120"`
	CustomerPhone  string `json:"customer_phone" validate:"max=20"`
	CustomerRef    string `json:"customer_ref" validate:"max=64"`
	FloatAccountID string `json:"float_account_id" validate:"required,uuid"`
	Reference      string `json:"reference" validate:"max=64"`
}

type parsedTransaction struct {
	amount  int64
	fee     int64
	floatID uuid.UUID
}

func (r transactionRequest) parse() (parsedTransaction, []FieldError) {
	var (
		p    parsedTransaction
		errs []FieldError
		err  error
	)

	if p.amount, err = ParseAmount(r.Amount); err != nil || p.amount <= 0 {
		errs = append(errs, FieldError{Field: "amount", Message: "must be a positive amount with at most two decimal places"})
	}
	if p.fee, err = parseOptionalAmount(r.Fee); err != nil || p.fee < 0 {
		errs = append(errs, FieldError{Field: "fee", Message: "must be a non-negative amount with at most two decimal places"})
	}
	p.floatID, _ = uuid.Parse(r.FloatAccountID)
	return p, errs
}

type transactionDTO struct {
	ID                uuid.UUID `json:"id"`
	Reference         string    `json:"reference"`
	ServiceType       string    `json:"service_type"`
	Direction         string    `json:"direction"`
	Amount            string    `json:"amount"`
	Fee               string    `json:"fee"`
	CustomerName      string    `json:"customer_name,omitempty"`
	CustomerPhone     string    `json:"customer_phone,omitempty"`
	CustomerRef       string    `json:"customer_ref,omitempty"`
	BranchID          uuid.UUID `json:"branch_id"`
	UserID            uuid.UUID `json:"user_id"`
	CashTillAccountID uuid.UUID `json:"cash_till_account_id"`
	FloatAccountID    uuid.UUID `json:"float_account_id"`
	CashTillDelta     string    `json:"cash_till_delta"`
	FloatDelta        string    `json:"float_delta"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func toTransactionDTO(t *domain.Transaction) transactionDTO {
	return transactionDTO{
		ID:                t.ID,
		Reference:         t.Reference,
		ServiceType:       string(t.ServiceType),
		Direction:         string(t.Direction),
		Amount:            FormatAmount(t.Amount),
		Fee:               FormatAmount(t.Fee),
		CustomerName:      t.CustomerName,
		CustomerPhone:     t.CustomerPhone,
		CustomerRef:       t.CustomerRef,
		BranchID:          t.BranchID,
		UserID:            t.UserID,
		CashTillAccountID: t.CashTillAccountID,
		FloatAccountID:    t.FloatAccountID,
		CashTillDelta:     FormatAmount(t.CashTillDelta),
		FloatDelta:        FormatAmount(t.FloatDelta),
		Status:            string(t.Status),
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
}

type journalLineDTO struct {
	ID          uuid.UUID `json:"id"`
	GLAccountID uuid.UUID `json:"gl_account_id"`
	Debit       string    `json:"debit"`
	Credit      string    `json:"credit"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	caller, ok := callerFromContext(w, r)
	if !ok {
		return
	}

	var req transactionRequest
	if appErr, fields := decodeRequest(r, &req); appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	} else if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}
	p, fields := req.parse()
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	t, err := h.transactions.Create(r.Context(), transaction.CreateRequest{
		ServiceType:    domain.ServiceType(req.ServiceType),
		Direction:      domain.Direction(req.Direction),
		Amount:         p.amount,
		Fee:            p.fee,
		CustomerName:   req.CustomerName,
		CustomerPhone:  req.CustomerPhone,
		CustomerRef:    req.CustomerRef,
		BranchID:       caller.BranchID,
		UserID:         caller.UserID,
		FloatAccountID: p.floatID,
		Reference:      req.Reference,
	})
	if err != nil {
		log.Warn("transaction creation failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/transactions/%s", t.ID))
	RespondSuccess(w, http.StatusCreated, toTransactionDTO(t))
}

func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, ok := h.scoped(w, r)
	if !ok {
		return
	}
	RespondSuccess(w, http.StatusOK, toTransactionDTO(t))
}

func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	current, ok := h.scoped(w, r)
	if !ok {
		return
	}
	caller, _ := callerFromContext(w, r)

	var req transactionRequest
	if appErr, fields := decodeRequest(r, &req); appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	} else if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}
	p, fields := req.parse()
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	t, err := h.transactions.Edit(r.Context(), transaction.EditRequest{
		ID:             current.ID,
		ServiceType:    domain.ServiceType(req.ServiceType),
		Direction:      domain.Direction(req.Direction),
		Amount:         p.amount,
		Fee:            p.fee,
		CustomerName:   req.CustomerName,
		CustomerPhone:  req.CustomerPhone,
		CustomerRef:    req.CustomerRef,
		FloatAccountID: p.floatID,
		Reference:      req.Reference,
		EditedBy:       caller.UserID,
	})
	if err != nil {
		log.Warn("transaction edit failed", "transaction_id", current.ID, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toTransactionDTO(t))
}

func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	current, ok := h.scoped(w, r)
	if !ok {
		return
	}
	caller, _ := callerFromContext(w, r)

	if err := h.transactions.Delete(r.Context(), current.ID, caller.UserID); err != nil {
		log.Warn("transaction delete failed", "transaction_id", current.ID, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]any{"id": current.ID, "deleted": true})
}

func (h *TransactionHandler) Journal(w http.ResponseWriter, r *http.Request) {
	current, ok := h.scoped(w, r)
	if !ok {
		return
	}

	entries, err := h.transactions.Journal(r.Context(), current.ID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]journalLineDTO, len(entries))
	for i, e := range entries {
		dtos[i] = journalLineDTO{
			ID:          e.ID,
			GLAccountID: e.GLAccountID,
			Debit:       FormatAmount(e.Debit),
			Credit:      FormatAmount(e.Credit),
			Description: e.Description,
			CreatedAt:   e.CreatedAt,
		}
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromContext(w, r)
	if !ok {
		return
	}

	f, fields := parseTransactionFilter(r)
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}
	if f.BranchID == nil || !inScope(caller, *f.BranchID) {
		f.BranchID = &caller.BranchID
	}

	txns, err := h.transactions.List(r.Context(), f)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]transactionDTO, len(txns))
	for i := range txns {
		dtos[i] = toTransactionDTO(&txns[i])
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

// scoped loads the transaction named in the path and hides it from callers
// of other branches.
func (h *TransactionHandler) scoped(w http.ResponseWriter, r *http.Request) (*domain.Transaction, bool) {
	caller, ok := callerFromContext(w, r)
	if !ok {
		return nil, false
	}
	id, ok := idFromPath(w, r)
	if !ok {
		return nil, false
	}

	t, err := h.transactions.Get(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return nil, false
	}
	if !inScope(caller, t.BranchID) {
		RespondAppError(w, ErrResourceNotFound, nil)
		return nil, false
	}
	return t, true
}

func parseTransactionFilter(r *http.Request) (domain.TransactionFilter, []FieldError) {
	q := r.URL.Query()
	f := domain.TransactionFilter{Limit: defaultListLimit}
	var errs []FieldError

	if v := q.Get("branch_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			errs = append(errs, FieldError{Field: "branch_id", Message: "must be a valid UUID"})
		} else {
			f.BranchID = &id
		}
	}
	if v := q.Get("float_account_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			errs = append(errs, FieldError{Field: "float_account_id", Message: "must be a valid UUID"})
		} else {
			f.FloatAccountID = &id
		}
	}
	if v := q.Get("service_type"); v != "" {
		st := domain.ServiceType(v)
		f.ServiceType = &st
	}
	if v := q.Get("status"); v != "" {
		st := domain.TransactionStatus(v)
		f.Status = &st
	}
	if v := q.Get("from"); v != "" {
		t, err := parseTimeParam(v)
		if err != nil {
			errs = append(errs, FieldError{Field: "from", Message: "must be a date (2006-01-02) or RFC3339 time"})
		} else {
			f.From = &t
		}
	}
	if v := q.Get("to"); v != "" {
		t, err := parseTimeParam(v)
		if err != nil {
			errs = append(errs, FieldError{Field: "to", Message: "must be a date (2006-01-02) or RFC3339 time"})
		} else {
			f.To = &t
		}
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxListLimit {
			errs = append(errs, FieldError{Field: "limit", Message: fmt.Sprintf("must be between 1 and %d", maxListLimit)})
		} else {
			f.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			errs = append(errs, FieldError{Field: "offset", Message: "must be zero or more"})
		} else {
			f.Offset = n
		}
	}
	return f, errs
}

func parseTimeParam(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
