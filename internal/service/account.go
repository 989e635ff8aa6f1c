package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/float-ledger/internal/domain"
	"github.com/josh-kwaku/float-ledger/internal/ledger"
	"github.com/josh-kwaku/float-ledger/internal/logging"
)

// AccountService administers float accounts and the GL mappings they post
// through. Balances only ever move through postings, never through here.
type AccountService struct {
	store      ledger.Store
	maxRetries int
}

func NewAccountService(store ledger.Store, maxRetries int) *AccountService {
	return &AccountService{store: store, maxRetries: maxRetries}
}

type CreateFloatAccountRequest struct {
	BranchID       uuid.UUID
	AccountType    domain.AccountType
	Provider       string
	OpeningBalance int64
	Floor          int64
	MinThreshold   int64
	MaxThreshold   int64
}

func (s *AccountService) CreateFloatAccount(ctx context.Context, req CreateFloatAccountRequest) (*domain.FloatAccount, error) {
	log := logging.FromContext(ctx)

	if !req.AccountType.IsValid() {
		return nil, fmt.Errorf("CreateFloatAccount: account type %q: %w", req.AccountType, domain.ErrInvalidRequest)
	}
	if req.OpeningBalance < req.Floor || req.MinThreshold < 0 || req.MaxThreshold < 0 {
		return nil, fmt.Errorf("CreateFloatAccount: %w", domain.ErrInvalidAmount)
	}
	if req.MaxThreshold > 0 && req.MaxThreshold < req.MinThreshold {
		return nil, fmt.Errorf("CreateFloatAccount: max threshold below min: %w", domain.ErrInvalidAmount)
	}

	now := time.Now().UTC()
	account := &domain.FloatAccount{
		ID:             uuid.New(),
		BranchID:       req.BranchID,
		AccountType:    req.AccountType,
		Provider:       req.Provider,
		CurrentBalance: req.OpeningBalance,
		Floor:          req.Floor,
		MinThreshold:   req.MinThreshold,
		MaxThreshold:   req.MaxThreshold,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := ledger.Atomically(ctx, s.store, s.maxRetries, func(ctx context.Context, tx ledger.Tx) error {
		return tx.CreateFloatAccount(ctx, account)
	})
	if err != nil {
		return nil, fmt.Errorf("CreateFloatAccount: %w", err)
	}

	log.Info("float account created",
		"account_id", account.ID,
		"branch_id", account.BranchID,
		"account_type", account.AccountType,
		"opening_balance", account.CurrentBalance,
	)
	return account, nil
}

func (s *AccountService) GetFloatAccount(ctx context.Context, id uuid.UUID) (*domain.FloatAccount, error) {
	account, err := s.store.GetFloatAccount(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetFloatAccount: %w", err)
	}
	return account, nil
}

func (s *AccountService) ListFloatAccounts(ctx context.Context, branchID uuid.UUID) ([]domain.FloatAccount, error) {
	accounts, err := s.store.ListFloatAccounts(ctx, branchID)
	if err != nil {
		return nil, fmt.Errorf("ListFloatAccounts: %w", err)
	}
	return accounts, nil
}

// DeactivateFloatAccount stops new postings against the account. Existing
// postings can still be edited away from it or deleted.
func (s *AccountService) DeactivateFloatAccount(ctx context.Context, id uuid.UUID) error {
	err := ledger.Atomically(ctx, s.store, s.maxRetries, func(ctx context.Context, tx ledger.Tx) error {
		if _, err := tx.LockFloatAccount(ctx, id); err != nil {
			return err
		}
		return tx.SetFloatAccountActive(ctx, id, false)
	})
	if err != nil {
		return fmt.Errorf("DeactivateFloatAccount: %w", err)
	}

	logging.FromContext(ctx).Info("float account deactivated", "account_id", id)
	return nil
}

type CreateMappingRequest struct {
	FloatAccountID uuid.UUID
	MappingType    domain.MappingType
	GLCode         string
	GLName         string
	GLType         domain.GLAccountType
}

// CreateMapping routes a float account role to the GL account with the
// given code, opening that GL account if it does not exist yet.
func (s *AccountService) CreateMapping(ctx context.Context, req CreateMappingRequest) (*domain.GLFloatMapping, error) {
	if !req.MappingType.IsValid() {
		return nil, fmt.Errorf("CreateMapping: mapping type %q: %w", req.MappingType, domain.ErrInvalidRequest)
	}

	var mapping *domain.GLFloatMapping
	err := ledger.Atomically(ctx, s.store, s.maxRetries, func(ctx context.Context, tx ledger.Tx) error {
		if _, err := tx.LockFloatAccount(ctx, req.FloatAccountID); err != nil {
			return err
		}
		gl, err := ledger.EnsureAccount(ctx, tx, req.GLCode, req.GLName, req.GLType)
		if err != nil {
			return err
		}
		m := &domain.GLFloatMapping{
			ID:             uuid.New(),
			FloatAccountID: req.FloatAccountID,
			GLAccountID:    gl.ID,
			MappingType:    req.MappingType,
			IsActive:       true,
			CreatedAt:      time.Now().UTC(),
		}
		if err := tx.CreateMapping(ctx, m); err != nil {
			return err
		}
		mapping = m
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("CreateMapping: %w", err)
	}

	logging.FromContext(ctx).Info("gl mapping created",
		"mapping_id", mapping.ID,
		"float_account_id", mapping.FloatAccountID,
		"gl_account_id", mapping.GLAccountID,
		"mapping_type", mapping.MappingType,
	)
	return mapping, nil
}

func (s *AccountService) DeactivateMapping(ctx context.Context, id uuid.UUID) error {
	err := ledger.Atomically(ctx, s.store, s.maxRetries, func(ctx context.Context, tx ledger.Tx) error {
		return tx.DeactivateMapping(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("DeactivateMapping: %w", err)
	}

	logging.FromContext(ctx).Info("gl mapping deactivated", "mapping_id", id)
	return nil
}
