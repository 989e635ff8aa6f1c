package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/float-ledger/internal/auth"
	"github.com/josh-kwaku/float-ledger/internal/domain"
	"github.com/josh-kwaku/float-ledger/internal/handler"
	"github.com/josh-kwaku/float-ledger/internal/logging"
)

const (
	idempotencyHeader = "Idempotency-Key"
	replayedHeader    = "X-Idempotent-Replayed"
	maxIdempotencyKey = 128
	replayRetention   = 24 * time.Hour
	reservationLease  = 5 * time.Minute
	maxIdempotentBody = 1 << 20
)

type ReplayStore interface {
	Lookup(ctx context.Context, userID uuid.UUID, key string) (*domain.StoredResponse, error)
	Reserve(ctx context.Context, resp *domain.StoredResponse) (bool, error)
	Complete(ctx context.Context, resp *domain.StoredResponse) error
	Release(ctx context.Context, userID uuid.UUID, key string) error
}

// Idempotency makes every mutating request safe to retry. The key is
// reserved before the handler runs, so a second request under the same key
// never reaches the handler: it gets the stored response once the first
// completes, or 409 while the first is still running. A repeat with a
// different body is refused. Server errors release the reservation, so a
// request that hit a busy ledger can be retried under the same key.
func Idempotency(store ReplayStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get(idempotencyHeader)
			switch {
			case key == "":
				handler.RespondAppError(w, handler.ErrMissingIdempotencyKey, nil)
				return
			case len(key) > maxIdempotencyKey:
				handler.RespondAppError(w, handler.ErrInvalidIdempotencyKey, nil)
				return
			}

			claims, ok := auth.ClaimsFromContext(r.Context())
			if !ok {
				handler.RespondAppError(w, handler.ErrMissingToken, nil)
				return
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, maxIdempotentBody))
			if err != nil {
				handler.RespondAppError(w, handler.ErrInvalidRequest, nil)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			log := logging.FromContext(r.Context()).With("idempotency_key", key)
			fingerprint := requestFingerprint(r.Method, r.URL.Path, body)

			prior, err := store.Lookup(r.Context(), claims.UserID, key)
			if err != nil {
				log.Error("replay lookup failed", "error", err)
				handler.RespondAppError(w, handler.ErrInternalError, nil)
				return
			}
			if prior != nil {
				respondPrior(w, log, prior, fingerprint)
				return
			}

			now := time.Now().UTC()
			reserved, err := store.Reserve(r.Context(), &domain.StoredResponse{
				Key:         key,
				UserID:      claims.UserID,
				BranchID:    claims.BranchID,
				Fingerprint: fingerprint,
				Body:        []byte{},
				StoredAt:    now,
				ExpiresAt:   now.Add(reservationLease),
			})
			if err != nil {
				log.Error("replay reserve failed", "error", err)
				handler.RespondAppError(w, handler.ErrInternalError, nil)
				return
			}
			if !reserved {
				prior, err := store.Lookup(r.Context(), claims.UserID, key)
				if err != nil || prior == nil {
					log.Warn("lost idempotency key reservation", "error", err)
					handler.RespondAppError(w, handler.ErrIdempotencyInProgress, nil)
					return
				}
				respondPrior(w, log, prior, fingerprint)
				return
			}

			rec := &capture{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			ctx := context.WithoutCancel(r.Context())
			if rec.status >= http.StatusInternalServerError {
				if err := store.Release(ctx, claims.UserID, key); err != nil {
					log.Error("replay release failed", "error", err)
				}
				return
			}
			now = time.Now().UTC()
			err = store.Complete(ctx, &domain.StoredResponse{
				Key:       key,
				UserID:    claims.UserID,
				Status:    rec.status,
				Body:      rec.body.Bytes(),
				StoredAt:  now,
				ExpiresAt: now.Add(replayRetention),
			})
			if err != nil {
				log.Error("replay complete failed", "status", rec.status, "error", err)
			}
		})
	}
}

func respondPrior(w http.ResponseWriter, log *slog.Logger, prior *domain.StoredResponse, fingerprint string) {
	switch {
	case prior.Fingerprint != fingerprint:
		handler.RespondAppError(w, handler.ErrIdempotencyConflict, nil)
	case prior.Pending():
		handler.RespondAppError(w, handler.ErrIdempotencyInProgress, nil)
	default:
		log.Info("replaying stored response", "status", prior.Status)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set(replayedHeader, "true")
		w.WriteHeader(prior.Status)
		_, _ = w.Write(prior.Body)
	}
}

func requestFingerprint(method, path string, body []byte) string {
	h := sha256.New()
	for _, part := range [][]byte{[]byte(method), []byte(path), body} {
		h.Write(part)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

type capture struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

func (c *capture) WriteHeader(code int) {
	if !c.wroteHeader {
		c.status = code
		c.wroteHeader = true
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *capture) Write(b []byte) (int, error) {
	c.wroteHeader = true
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}
