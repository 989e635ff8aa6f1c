package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/float-ledger/internal/domain"
)

const glAccountColumns = `id, code, name, account_type, balance, created_at`

const glMappingColumns = `id, float_account_id, gl_account_id, mapping_type, is_active, created_at`

const activeMappingIndex = "gl_float_mappings_active_key"

type GLAccountRepository struct {
	db *sql.DB
}

func NewGLAccountRepository(db *sql.DB) *GLAccountRepository {
	return &GLAccountRepository{db: db}
}

func (r *GLAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.GLAccount, error) {
	return getGLAccount(ctx, r.db, id)
}

func (r *GLAccountRepository) GetByIDTx(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.GLAccount, error) {
	return getGLAccount(ctx, tx, id)
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getGLAccount(ctx context.Context, q rowQuerier, id uuid.UUID) (*domain.GLAccount, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+glAccountColumns+` FROM gl_accounts WHERE id = $1`, id,
	)
	a, err := scanGLAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("getGLAccount: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("getGLAccount: %w", err)
	}
	return a, nil
}

// Ensure inserts the account if its code is unused and returns the stored
// row either way.
func (r *GLAccountRepository) Ensure(ctx context.Context, tx *sql.Tx, a *domain.GLAccount) (*domain.GLAccount, error) {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO gl_accounts (id, code, name, account_type, balance, created_at)
		VALUES ($1, $2, $3, $4, 0, $5)
		ON CONFLICT (code) DO NOTHING`,
		a.ID, a.Code, a.Name, a.Type, a.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("Ensure: %w", err)
	}

	row := tx.QueryRowContext(ctx,
		`SELECT `+glAccountColumns+` FROM gl_accounts WHERE code = $1`, a.Code,
	)
	stored, err := scanGLAccount(row)
	if err != nil {
		return nil, fmt.Errorf("Ensure: %w", err)
	}
	return stored, nil
}

func (r *GLAccountRepository) AdjustBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, delta int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE gl_accounts SET balance = balance + $1 WHERE id = $2`,
		delta, id,
	)
	if err != nil {
		return fmt.Errorf("AdjustBalance: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("AdjustBalance: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("AdjustBalance: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *GLAccountRepository) FindMapping(ctx context.Context, tx *sql.Tx, floatAccountID uuid.UUID, mappingType domain.MappingType) (*domain.GLFloatMapping, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+glMappingColumns+` FROM gl_float_mappings
		WHERE float_account_id = $1 AND mapping_type = $2 AND is_active`,
		floatAccountID, mappingType,
	)
	m, err := scanGLMapping(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("FindMapping: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("FindMapping: %w", err)
	}
	return m, nil
}

func (r *GLAccountRepository) CreateMapping(ctx context.Context, tx *sql.Tx, m *domain.GLFloatMapping) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO gl_float_mappings (id, float_account_id, gl_account_id, mapping_type, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.FloatAccountID, m.GLAccountID, m.MappingType, m.IsActive, m.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, activeMappingIndex) {
			return fmt.Errorf("CreateMapping: %w", domain.ErrMappingExists)
		}
		return fmt.Errorf("CreateMapping: %w", err)
	}
	return nil
}

func (r *GLAccountRepository) DeactivateMapping(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE gl_float_mappings SET is_active = false WHERE id = $1`, id,
	)
	if err != nil {
		return fmt.Errorf("DeactivateMapping: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("DeactivateMapping: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("DeactivateMapping: %w", domain.ErrNotFound)
	}
	return nil
}

func scanGLAccount(s scanner) (*domain.GLAccount, error) {
	var a domain.GLAccount
	if err := s.Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.Balance, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func scanGLMapping(s scanner) (*domain.GLFloatMapping, error) {
	var m domain.GLFloatMapping
	if err := s.Scan(&m.ID, &m.FloatAccountID, &m.GLAccountID, &m.MappingType, &m.IsActive, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}
