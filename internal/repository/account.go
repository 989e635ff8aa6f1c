package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/float-ledger/internal/domain"
)

const floatAccountColumns = `id, branch_id, account_type, provider, current_balance, floor,
	min_threshold, max_threshold, is_active, created_at, updated_at`

const cashTillUniqueIndex = "float_accounts_branch_cash_till_key"

type FloatAccountRepository struct {
	db *sql.DB
}

func NewFloatAccountRepository(db *sql.DB) *FloatAccountRepository {
	return &FloatAccountRepository{db: db}
}

func (r *FloatAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.FloatAccount, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+floatAccountColumns+` FROM float_accounts WHERE id = $1`, id,
	)
	a, err := scanFloatAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return a, nil
}

func (r *FloatAccountRepository) ListByBranch(ctx context.Context, branchID uuid.UUID) ([]domain.FloatAccount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+floatAccountColumns+` FROM float_accounts WHERE branch_id = $1 ORDER BY created_at`, branchID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByBranch: %w", err)
	}
	defer rows.Close()

	var accounts []domain.FloatAccount
	for rows.Next() {
		a, err := scanFloatAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByBranch: scan: %w", err)
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByBranch: rows: %w", err)
	}
	return accounts, nil
}

func (r *FloatAccountRepository) Create(ctx context.Context, tx *sql.Tx, a *domain.FloatAccount) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO float_accounts (
			id, branch_id, account_type, provider, current_balance, floor,
			min_threshold, max_threshold, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		a.ID, a.BranchID, a.AccountType, a.Provider, a.CurrentBalance, a.Floor,
		a.MinThreshold, a.MaxThreshold, a.IsActive, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, cashTillUniqueIndex) {
			return fmt.Errorf("Create: %w", domain.ErrCashTillExists)
		}
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *FloatAccountRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.FloatAccount, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+floatAccountColumns+` FROM float_accounts WHERE id = $1 FOR UPDATE`, id,
	)
	a, err := scanFloatAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return a, nil
}

func (r *FloatAccountRepository) FindCashTill(ctx context.Context, tx *sql.Tx, branchID uuid.UUID) (*domain.FloatAccount, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+floatAccountColumns+` FROM float_accounts
		WHERE branch_id = $1 AND account_type = $2 AND is_active`,
		branchID, domain.AccountTypeCashInTill,
	)
	a, err := scanFloatAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("FindCashTill: branch %s: %w", branchID, domain.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("FindCashTill: %w", err)
	}
	return a, nil
}

// AdjustBalance applies delta in a single guarded UPDATE. Zero rows back
// means either the account is missing or the floor would be breached; the
// follow-up read tells the two apart.
func (r *FloatAccountRepository) AdjustBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, delta int64) (*domain.FloatAccount, error) {
	row := tx.QueryRowContext(ctx,
		`UPDATE float_accounts
		SET current_balance = current_balance + $1::bigint, updated_at = now()
		WHERE id = $2 AND ($1::bigint >= 0 OR current_balance + $1::bigint >= floor)
		RETURNING `+floatAccountColumns,
		delta, id,
	)
	a, err := scanFloatAccount(row)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("AdjustBalance: %w", err)
	}

	current, err := r.GetForUpdate(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("AdjustBalance: %w", err)
	}
	return nil, fmt.Errorf("AdjustBalance: %w", &domain.InsufficientBalanceError{
		AccountID: id,
		Required:  -delta,
		Available: current.Available(),
	})
}

func (r *FloatAccountRepository) SetActive(ctx context.Context, tx *sql.Tx, id uuid.UUID, active bool) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE float_accounts SET is_active = $1, updated_at = now() WHERE id = $2`,
		active, id,
	)
	if err != nil {
		if isUniqueViolation(err, cashTillUniqueIndex) {
			return fmt.Errorf("SetActive: %w", domain.ErrCashTillExists)
		}
		return fmt.Errorf("SetActive: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("SetActive: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("SetActive: %w", domain.ErrAccountNotFound)
	}
	return nil
}

func scanFloatAccount(s scanner) (*domain.FloatAccount, error) {
	var a domain.FloatAccount
	err := s.Scan(
		&a.ID, &a.BranchID, &a.AccountType, &a.Provider, &a.CurrentBalance, &a.Floor,
		&a.MinThreshold, &a.MaxThreshold, &a.IsActive, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
