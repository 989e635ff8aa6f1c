package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/josh-kwaku/float-ledger/internal/domain"
)

type MovementRepository struct {
	db *sql.DB
}

func NewMovementRepository(db *sql.DB) *MovementRepository {
	return &MovementRepository{db: db}
}

// List returns every non-zero delta recorded against one float account:
// both transaction legs and applied commission credits, oldest first.
func (r *MovementRepository) List(ctx context.Context, f domain.MovementFilter) ([]domain.Movement, error) {
	var p predicates
	account := p.arg(f.AccountID)
	var from, to string
	if f.From != nil {
		from = p.arg(*f.From)
	}
	if f.To != nil {
		to = p.arg(*f.To)
	}
	window := func(col string) string {
		var s string
		if from != "" {
			s += " AND " + col + " >= " + from
		}
		if to != "" {
			s += " AND " + col + " < " + to
		}
		return s
	}

	query := `
		SELECT id, 'transaction', reference, service_type || ' ' || direction, cash_till_delta, created_at
		FROM transactions
		WHERE cash_till_account_id = ` + account + ` AND cash_till_delta <> 0` + window("created_at") + `
		UNION ALL
		SELECT id, 'transaction', reference, service_type || ' ' || direction, float_delta, created_at
		FROM transactions
		WHERE float_account_id = ` + account + ` AND float_delta <> 0` + window("created_at") + `
		UNION ALL
		SELECT id, 'commission', '', description, amount, approved_at
		FROM commissions
		WHERE source_account_id = ` + account + ` AND status IN ('approved', 'paid')` + window("approved_at") + `
		ORDER BY 6, 1`

	rows, err := r.db.QueryContext(ctx, query, p.args...)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var movements []domain.Movement
	for rows.Next() {
		var m domain.Movement
		if err := rows.Scan(&m.SourceID, &m.Kind, &m.Reference, &m.Description, &m.Delta, &m.OccurredAt); err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}
	return movements, nil
}
