package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/float-ledger/internal/domain"
)

type replayKey struct {
	userID uuid.UUID
	key    string
}

// ReplayStore is the in-process counterpart of repository.ReplayRepository.
type ReplayStore struct {
	mu        sync.Mutex
	responses map[replayKey]domain.StoredResponse
	now       func() time.Time
}

func NewReplayStore() *ReplayStore {
	return &ReplayStore{responses: make(map[replayKey]domain.StoredResponse), now: time.Now}
}

func (s *ReplayStore) Lookup(_ context.Context, userID uuid.UUID, key string) (*domain.StoredResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp, ok := s.responses[replayKey{userID, key}]
	if !ok || resp.Expired(s.now()) {
		return nil, nil
	}
	resp.Body = append([]byte(nil), resp.Body...)
	return &resp, nil
}

func (s *ReplayStore) Reserve(_ context.Context, resp *domain.StoredResponse) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := replayKey{resp.UserID, resp.Key}
	if existing, ok := s.responses[k]; ok && !existing.Expired(s.now()) {
		return false, nil
	}
	stored := *resp
	stored.Body = append([]byte(nil), resp.Body...)
	s.responses[k] = stored
	return true, nil
}

func (s *ReplayStore) Complete(_ context.Context, resp *domain.StoredResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := replayKey{resp.UserID, resp.Key}
	existing, ok := s.responses[k]
	if !ok || !existing.Pending() {
		return fmt.Errorf("Complete: no reservation for key %q", resp.Key)
	}
	existing.Status = resp.Status
	existing.Body = append([]byte(nil), resp.Body...)
	existing.StoredAt = resp.StoredAt
	existing.ExpiresAt = resp.ExpiresAt
	s.responses[k] = existing
	return nil
}

func (s *ReplayStore) Release(_ context.Context, userID uuid.UUID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := replayKey{userID, key}
	if existing, ok := s.responses[k]; ok && existing.Pending() {
		delete(s.responses, k)
	}
	return nil
}

func (s *ReplayStore) Purge(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for k, resp := range s.responses {
		if resp.Expired(cutoff) {
			delete(s.responses, k)
			n++
		}
	}
	return n, nil
}
