package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/float-ledger/internal/domain"
	"github.com/josh-kwaku/float-ledger/internal/logging"
	"github.com/josh-kwaku/float-ledger/internal/service"
	"github.com/josh-kwaku/float-ledger/internal/service/statement"
)

type accountService interface {
	CreateFloatAccount(ctx context.Context, req service.CreateFloatAccountRequest) (*domain.FloatAccount, error)
	GetFloatAccount(ctx context.Context, id uuid.UUID) (*domain.FloatAccount, error)
	ListFloatAccounts(ctx context.Context, branchID uuid.UUID) ([]domain.FloatAccount, error)
	DeactivateFloatAccount(ctx context.Context, id uuid.UUID) error
	CreateMapping(ctx context.Context, req service.CreateMappingRequest) (*domain.GLFloatMapping, error)
	DeactivateMapping(ctx context.Context, id uuid.UUID) error
}

type statementService interface {
	Get(ctx context.Context, accountID uuid.UUID, start, end time.Time) (*statement.Statement, error)
}

type AccountHandler struct {
	accounts   accountService
	statements statementService
}

func NewAccountHandler(accounts accountService, statements statementService) *AccountHandler {
	return &AccountHandler{accounts: accounts, statements: statements}
}

type createFloatAccountRequest struct {
	BranchID       string `json:"branch_id" validate:"omitempty,uuid"`
	AccountType    string `json:"account_type" validate:"required"`
	Provider       string `json:"provider" validate:"max=64"`
	OpeningBalance string `json:"opening_balance"`
	Floor          string `json:"floor"`
	MinThreshold   string `json:"min_threshold"`
	MaxThreshold   string `json:"max_threshold"`
}

func (r createFloatAccountRequest) toServiceRequest(defaultBranch uuid.UUID) (service.CreateFloatAccountRequest, []FieldError) {
	var errs []FieldError
	out := service.CreateFloatAccountRequest{
		BranchID:    defaultBranch,
		AccountType: domain.AccountType(r.AccountType),
		Provider:    r.Provider,
	}

	if r.BranchID != "" {
		out.BranchID, _ = uuid.Parse(r.BranchID)
	}
	if !out.AccountType.IsValid() {
		errs = append(errs, FieldError{Field: "account_type", Message: "unknown account type"})
	}

	amounts := []struct {
		field string
		raw   string
		dst   *int64
	}{
		{"opening_balance", r.OpeningBalance, &out.OpeningBalance},
		{"floor", r.Floor, &out.Floor},
		{"min_threshold", r.MinThreshold, &out.MinThreshold},
		{"max_threshold", r.MaxThreshold, &out.MaxThreshold},
	}
	for _, a := range amounts {
		v, err := parseOptionalAmount(a.raw)
		if err != nil {
			errs = append(errs, FieldError{Field: a.field, Message: "must be an amount with at most two decimal places"})
			continue
		}
		*a.dst = v
	}
	return out, errs
}

type floatAccountDTO struct {
	ID             uuid.UUID `json:"id"`
	BranchID       uuid.UUID `json:"branch_id"`
	AccountType    string    `json:"account_type"`
	Provider       string    `json:"provider,omitempty"`
	CurrentBalance string    `json:"current_balance"`
	Available      string    `json:"available"`
	Floor          string    `json:"floor"`
	MinThreshold   string    `json:"min_threshold"`
	MaxThreshold   string    `json:"max_threshold"`
	LowBalance     bool      `json:"low_balance"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toFloatAccountDTO(a *domain.FloatAccount) floatAccountDTO {
	return floatAccountDTO{
		ID:             a.ID,
		BranchID:       a.BranchID,
		AccountType:    string(a.AccountType),
		Provider:       a.Provider,
		CurrentBalance: FormatAmount(a.CurrentBalance),
		Available:      FormatAmount(a.Available()),
		Floor:          FormatAmount(a.Floor),
		MinThreshold:   FormatAmount(a.MinThreshold),
		MaxThreshold:   FormatAmount(a.MaxThreshold),
		LowBalance:     a.BelowThreshold(),
		IsActive:       a.IsActive,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

type statementEntryDTO struct {
	SourceID       uuid.UUID `json:"source_id"`
	Kind           string    `json:"kind"`
	Reference      string    `json:"reference,omitempty"`
	Description    string    `json:"description"`
	OccurredAt     time.Time `json:"occurred_at"`
	Credit         string    `json:"credit"`
	Debit          string    `json:"debit"`
	RunningBalance string    `json:"running_balance"`
}

type statementDTO struct {
	AccountID      uuid.UUID           `json:"account_id"`
	Start          time.Time           `json:"start"`
	End            time.Time           `json:"end"`
	OpeningBalance string              `json:"opening_balance"`
	ClosingBalance string              `json:"closing_balance"`
	TotalCredits   string              `json:"total_credits"`
	TotalDebits    string              `json:"total_debits"`
	Entries        []statementEntryDTO `json:"entries"`
}

func toStatementDTO(s *statement.Statement) statementDTO {
	dto := statementDTO{
		AccountID:      s.AccountID,
		Start:          s.Start,
		End:            s.End,
		OpeningBalance: FormatAmount(s.OpeningBalance),
		ClosingBalance: FormatAmount(s.ClosingBalance),
		TotalCredits:   FormatAmount(s.TotalCredits),
		TotalDebits:    FormatAmount(s.TotalDebits),
		Entries:        make([]statementEntryDTO, len(s.Entries)),
	}
	for i, e := range s.Entries {
		dto.Entries[i] = statementEntryDTO{
			SourceID:       e.SourceID,
			Kind:           string(e.Kind),
			Reference:      e.Reference,
			Description:    e.Description,
			OccurredAt:     e.OccurredAt,
			Credit:         FormatAmount(e.Credit),
			Debit:          FormatAmount(e.Debit),
			RunningBalance: FormatAmount(e.RunningBalance),
		}
	}
	return dto
}

type createMappingRequest struct {
	FloatAccountID string `json:"float_account_id" validate:"required,uuid"`
	MappingType    string `json:"mapping_type" validate:"required,oneof=main_account fee_account commission_account revenue_account expense_account"`
	GLCode         string `json:"gl_code" validate:"required,max=20"`
	GLName         string `json:"gl_name" validate:"required,max=120"`
	GLType         string `json:"gl_type" validate:"required,oneof=asset liability equity revenue expense"`
}

type mappingDTO struct {
	ID             uuid.UUID `json:"id"`
	FloatAccountID uuid.UUID `json:"float_account_id"`
	GLAccountID    uuid.UUID `json:"gl_account_id"`
	MappingType    string    `json:"mapping_type"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	caller, ok := callerFromContext(w, r)
	if !ok {
		return
	}

	var req createFloatAccountRequest
	if appErr, fields := decodeRequest(r, &req); appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	} else if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}
	svcReq, fields := req.toServiceRequest(caller.BranchID)
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}
	if !inScope(caller, svcReq.BranchID) {
		RespondAppError(w, ErrForbidden, nil)
		return
	}

	a, err := h.accounts.CreateFloatAccount(r.Context(), svcReq)
	if err != nil {
		log.Warn("float account creation failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/float-accounts/%s", a.ID))
	RespondSuccess(w, http.StatusCreated, toFloatAccountDTO(a))
}

func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, ok := h.scoped(w, r)
	if !ok {
		return
	}
	RespondSuccess(w, http.StatusOK, toFloatAccountDTO(a))
}

func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromContext(w, r)
	if !ok {
		return
	}

	branchID := caller.BranchID
	if v := r.URL.Query().Get("branch_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			RespondValidationError(w, []FieldError{{Field: "branch_id", Message: "must be a valid UUID"}})
			return
		}
		if inScope(caller, id) {
			branchID = id
		}
	}

	accounts, err := h.accounts.ListFloatAccounts(r.Context(), branchID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]floatAccountDTO, len(accounts))
	for i := range accounts {
		dtos[i] = toFloatAccountDTO(&accounts[i])
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *AccountHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	a, ok := h.scoped(w, r)
	if !ok {
		return
	}

	if err := h.accounts.DeactivateFloatAccount(r.Context(), a.ID); err != nil {
		RespondDomainError(w, err)
		return
	}
	a.IsActive = false
	RespondSuccess(w, http.StatusOK, toFloatAccountDTO(a))
}

// Statement serves the running-balance history for [start, end). Dates
// without a time are taken as whole UTC days, so end=2026-01-31 includes
// that day.
func (h *AccountHandler) Statement(w http.ResponseWriter, r *http.Request) {
	a, ok := h.scoped(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	var fields []FieldError
	start, err := parseTimeParam(q.Get("start"))
	if err != nil {
		fields = append(fields, FieldError{Field: "start", Message: "must be a date (2006-01-02) or RFC3339 time"})
	}
	end, err := parseTimeParam(q.Get("end"))
	if err != nil {
		fields = append(fields, FieldError{Field: "end", Message: "must be a date (2006-01-02) or RFC3339 time"})
	} else if _, derr := time.Parse(time.DateOnly, q.Get("end")); derr == nil {
		end = end.AddDate(0, 0, 1)
	}
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	st, err := h.statements.Get(r.Context(), a.ID, start, end)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toStatementDTO(st))
}

func (h *AccountHandler) CreateMapping(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromContext(w, r)
	if !ok {
		return
	}

	var req createMappingRequest
	if appErr, fields := decodeRequest(r, &req); appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	} else if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}
	floatID, _ := uuid.Parse(req.FloatAccountID)

	a, err := h.accounts.GetFloatAccount(r.Context(), floatID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	if !inScope(caller, a.BranchID) {
		RespondAppError(w, ErrAccountNotFound, nil)
		return
	}

	m, err := h.accounts.CreateMapping(r.Context(), service.CreateMappingRequest{
		FloatAccountID: floatID,
		MappingType:    domain.MappingType(req.MappingType),
		GLCode:         req.GLCode,
		GLName:         req.GLName,
		GLType:         domain.GLAccountType(req.GLType),
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, mappingDTO{
		ID:             m.ID,
		FloatAccountID: m.FloatAccountID,
		GLAccountID:    m.GLAccountID,
		MappingType:    string(m.MappingType),
		IsActive:       m.IsActive,
		CreatedAt:      m.CreatedAt,
	})
}

func (h *AccountHandler) DeactivateMapping(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(w, r)
	if !ok {
		return
	}
	if err := h.accounts.DeactivateMapping(r.Context(), id); err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, map[string]any{"id": id, "is_active": false})
}

func (h *AccountHandler) scoped(w http.ResponseWriter, r *http.Request) (*domain.FloatAccount, bool) {
	caller, ok := callerFromContext(w, r)
	if !ok {
		return nil, false
	}
	id, ok := idFromPath(w, r)
	if !ok {
		return nil, false
	}

	a, err := h.accounts.GetFloatAccount(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return nil, false
	}
	if !inScope(caller, a.BranchID) {
		RespondAppError(w, ErrAccountNotFound, nil)
		return nil, false
	}
	return a, true
}
