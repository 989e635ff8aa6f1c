package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/float-ledger/internal/domain"
)

const transactionColumns = `id, service_type, direction, amount, fee,
	customer_name, customer_phone, customer_ref, branch_id, user_id,
	cash_till_account_id, float_account_id, status, cash_till_delta, float_delta,
	reference, created_at, updated_at`

const transactionReferenceKey = "transactions_reference_key"

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id,
	)
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return t, nil
}

func (r *TransactionRepository) List(ctx context.Context, f domain.TransactionFilter) ([]domain.Transaction, error) {
	var p predicates
	if f.BranchID != nil {
		p.add("branch_id = $%d", *f.BranchID)
	}
	if f.FloatAccountID != nil {
		p.add("(float_account_id = $%[1]d OR cash_till_account_id = $%[1]d)", *f.FloatAccountID)
	}
	if f.ServiceType != nil {
		p.add("service_type = $%d", *f.ServiceType)
	}
	if f.Status != nil {
		p.add("status = $%d", *f.Status)
	}
	if f.From != nil {
		p.add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		p.add("created_at < $%d", *f.To)
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions` + p.where() + ` ORDER BY created_at DESC`
	if f.Limit > 0 {
		query += ` LIMIT ` + p.arg(f.Limit)
	}
	if f.Offset > 0 {
		query += ` OFFSET ` + p.arg(f.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, p.args...)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		txns = append(txns, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}
	return txns, nil
}

func (r *TransactionRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Transaction, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1 FOR UPDATE`, id,
	)
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return t, nil
}

func (r *TransactionRepository) Create(ctx context.Context, tx *sql.Tx, t *domain.Transaction) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (
			id, service_type, direction, amount, fee,
			customer_name, customer_phone, customer_ref, branch_id, user_id,
			cash_till_account_id, float_account_id, status, cash_till_delta, float_delta,
			reference, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		t.ID, t.ServiceType, t.Direction, t.Amount, t.Fee,
		t.CustomerName, t.CustomerPhone, t.CustomerRef, t.BranchID, t.UserID,
		t.CashTillAccountID, t.FloatAccountID, t.Status, t.CashTillDelta, t.FloatDelta,
		t.Reference, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, transactionReferenceKey) {
			return fmt.Errorf("Create: %w", domain.ErrDuplicateReference)
		}
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *TransactionRepository) Update(ctx context.Context, tx *sql.Tx, t *domain.Transaction) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE transactions SET
			service_type = $1, direction = $2, amount = $3, fee = $4,
			customer_name = $5, customer_phone = $6, customer_ref = $7,
			cash_till_account_id = $8, float_account_id = $9, status = $10,
			cash_till_delta = $11, float_delta = $12, reference = $13, updated_at = $14
		WHERE id = $15`,
		t.ServiceType, t.Direction, t.Amount, t.Fee,
		t.CustomerName, t.CustomerPhone, t.CustomerRef,
		t.CashTillAccountID, t.FloatAccountID, t.Status,
		t.CashTillDelta, t.FloatDelta, t.Reference, t.UpdatedAt,
		t.ID,
	)
	if err != nil {
		if isUniqueViolation(err, transactionReferenceKey) {
			return fmt.Errorf("Update: %w", domain.ErrDuplicateReference)
		}
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

func (r *TransactionRepository) Delete(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
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

func scanTransaction(s scanner) (*domain.Transaction, error) {
	var t domain.Transaction
	err := s.Scan(
		&t.ID, &t.ServiceType, &t.Direction, &t.Amount, &t.Fee,
		&t.CustomerName, &t.CustomerPhone, &t.CustomerRef, &t.BranchID, &t.UserID,
		&t.CashTillAccountID, &t.FloatAccountID, &t.Status, &t.CashTillDelta, &t.FloatDelta,
		&t.Reference, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
