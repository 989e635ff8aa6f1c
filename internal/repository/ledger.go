package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/float-ledger/internal/domain"
)

const glEntryColumns = `id, transaction_id, gl_account_id, debit, credit, description, created_at`

type GLEntryRepository struct {
	db *sql.DB
}

func NewGLEntryRepository(db *sql.DB) *GLEntryRepository {
	return &GLEntryRepository{db: db}
}

func (r *GLEntryRepository) Create(ctx context.Context, tx *sql.Tx, e *domain.GLEntry) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO gl_entries (
			id, transaction_id, gl_account_id, debit, credit, description, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.TransactionID, e.GLAccountID, e.Debit, e.Credit, e.Description, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *GLEntryRepository) GetBySource(ctx context.Context, sourceID uuid.UUID) ([]domain.GLEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+glEntryColumns+` FROM gl_entries
		WHERE transaction_id = $1 ORDER BY created_at, id`, sourceID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetBySource: %w", err)
	}
	return collectGLEntries(rows, "GetBySource")
}

func (r *GLEntryRepository) GetBySourceTx(ctx context.Context, tx *sql.Tx, sourceID uuid.UUID) ([]domain.GLEntry, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+glEntryColumns+` FROM gl_entries
		WHERE transaction_id = $1 ORDER BY created_at, id FOR UPDATE`, sourceID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetBySourceTx: %w", err)
	}
	return collectGLEntries(rows, "GetBySourceTx")
}

func (r *GLEntryRepository) DeleteBySource(ctx context.Context, tx *sql.Tx, sourceID uuid.UUID) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM gl_entries WHERE transaction_id = $1`, sourceID); err != nil {
		return fmt.Errorf("DeleteBySource: %w", err)
	}
	return nil
}

func collectGLEntries(rows *sql.Rows, op string) ([]domain.GLEntry, error) {
	defer rows.Close()

	var entries []domain.GLEntry
	for rows.Next() {
		e, err := scanGLEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return entries, nil
}

func scanGLEntry(s scanner) (*domain.GLEntry, error) {
	var e domain.GLEntry
	err := s.Scan(
		&e.ID, &e.TransactionID, &e.GLAccountID, &e.Debit, &e.Credit, &e.Description, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
