package domain

import (
	"time"

	"github.com/google/uuid"
)

// StoredResponse is a mutating request kept so a client retrying with the
// same Idempotency-Key gets the original outcome instead of a second
// posting. A response with no Status yet is a reservation held by the
// request still running under that key.
type StoredResponse struct {
	Key         string
	UserID      uuid.UUID
	BranchID    uuid.UUID
	Fingerprint string
	Status      int
	Body        []byte
	StoredAt    time.Time
	ExpiresAt   time.Time
}

func (r *StoredResponse) Expired(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}

func (r *StoredResponse) Pending() bool {
	return r.Status == 0
}
