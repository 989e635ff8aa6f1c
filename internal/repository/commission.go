package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/float-ledger/internal/domain"
)

const commissionColumns = `id, source_account_id, branch_id, amount, description, status,
	created_by, approved_by, approved_at, rejected_by, rejected_at, rejection_reason,
	paid_by, paid_at, payment_reference, created_at, updated_at`

type CommissionRepository struct {
	db *sql.DB
}

func NewCommissionRepository(db *sql.DB) *CommissionRepository {
	return &CommissionRepository{db: db}
}

func (r *CommissionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Commission, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+commissionColumns+` FROM commissions WHERE id = $1`, id,
	)
	c, err := scanCommission(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return c, nil
}

func (r *CommissionRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Commission, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+commissionColumns+` FROM commissions WHERE id = $1 FOR UPDATE`, id,
	)
	c, err := scanCommission(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return c, nil
}

func (r *CommissionRepository) Create(ctx context.Context, tx *sql.Tx, c *domain.Commission) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO commissions (
			id, source_account_id, branch_id, amount, description, status,
			created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.SourceAccountID, c.BranchID, c.Amount, c.Description, c.Status,
		c.CreatedBy, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *CommissionRepository) Update(ctx context.Context, tx *sql.Tx, c *domain.Commission) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE commissions SET
			source_account_id = $1, amount = $2, description = $3, status = $4,
			approved_by = $5, approved_at = $6, rejected_by = $7, rejected_at = $8,
			rejection_reason = $9, paid_by = $10, paid_at = $11, payment_reference = $12,
			updated_at = $13
		WHERE id = $14`,
		c.SourceAccountID, c.Amount, c.Description, c.Status,
		c.ApprovedBy, c.ApprovedAt, c.RejectedBy, c.RejectedAt,
		c.RejectionReason, c.PaidBy, c.PaidAt, c.PaymentReference,
		c.UpdatedAt, c.ID,
	)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Update: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("Update: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *CommissionRepository) Delete(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM commissions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Delete: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func scanCommission(s scanner) (*domain.Commission, error) {
	var c domain.Commission
	err := s.Scan(
		&c.ID, &c.SourceAccountID, &c.BranchID, &c.Amount, &c.Description, &c.Status,
		&c.CreatedBy, &c.ApprovedBy, &c.ApprovedAt, &c.RejectedBy, &c.RejectedAt, &c.RejectionReason,
		&c.PaidBy, &c.PaidAt, &c.PaymentReference, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
