package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/float-ledger/internal/domain"
)

const storedResponseColumns = `idempotency_key, user_id, branch_id, fingerprint, status_code, body, stored_at, expires_at`

// ReplayRepository keeps responses to mutating requests for the idempotency
// middleware. Rows are scoped to the user that sent the key.
type ReplayRepository struct {
	db *sql.DB
}

func NewReplayRepository(db *sql.DB) *ReplayRepository {
	return &ReplayRepository{db: db}
}

// Lookup returns nil, nil when nothing live is stored under the key.
func (r *ReplayRepository) Lookup(ctx context.Context, userID uuid.UUID, key string) (*domain.StoredResponse, error) {
	var s domain.StoredResponse
	err := r.db.QueryRowContext(ctx,
		`SELECT `+storedResponseColumns+` FROM request_replays
		WHERE user_id = $1 AND idempotency_key = $2 AND expires_at > now()`,
		userID, key,
	).Scan(&s.Key, &s.UserID, &s.BranchID, &s.Fingerprint, &s.Status, &s.Body, &s.StoredAt, &s.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Lookup: %w", err)
	}
	return &s, nil
}

// Reserve claims the key for resp before the request runs. An expired row
// under the same key is taken over; a live one, pending or complete, makes
// reserved false.
func (r *ReplayRepository) Reserve(ctx context.Context, resp *domain.StoredResponse) (reserved bool, err error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO request_replays (`+storedResponseColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, idempotency_key) DO UPDATE SET
			branch_id = EXCLUDED.branch_id,
			fingerprint = EXCLUDED.fingerprint,
			status_code = EXCLUDED.status_code,
			body = EXCLUDED.body,
			stored_at = EXCLUDED.stored_at,
			expires_at = EXCLUDED.expires_at
		WHERE request_replays.expires_at <= now()`,
		resp.Key, resp.UserID, resp.BranchID, resp.Fingerprint, resp.Status, resp.Body, resp.StoredAt, resp.ExpiresAt,
	)
	if err != nil {
		return false, fmt.Errorf("Reserve: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("Reserve: rows affected: %w", err)
	}
	return n == 1, nil
}

// Complete fills in the outcome of a reserved request.
func (r *ReplayRepository) Complete(ctx context.Context, resp *domain.StoredResponse) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE request_replays
		SET status_code = $3, body = $4, stored_at = $5, expires_at = $6
		WHERE user_id = $1 AND idempotency_key = $2 AND status_code = 0`,
		resp.UserID, resp.Key, resp.Status, resp.Body, resp.StoredAt, resp.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("Complete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Complete: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("Complete: no reservation for key %q", resp.Key)
	}
	return nil
}

// Release drops a reservation that never completed so the key can be retried.
func (r *ReplayRepository) Release(ctx context.Context, userID uuid.UUID, key string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM request_replays WHERE user_id = $1 AND idempotency_key = $2 AND status_code = 0`,
		userID, key,
	)
	if err != nil {
		return fmt.Errorf("Release: %w", err)
	}
	return nil
}

// Purge drops every response that expired before cutoff.
func (r *ReplayRepository) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM request_replays WHERE expires_at <= $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("Purge: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("Purge: rows affected: %w", err)
	}
	return n, nil
}
