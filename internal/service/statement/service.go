// Package statement rebuilds the running-balance history of one float
// account from the deltas stored with its postings.
package statement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/float-ledger/internal/domain"
)

type reader interface {
	GetFloatAccount(ctx context.Context, id uuid.UUID) (*domain.FloatAccount, error)
	ListMovements(ctx context.Context, f domain.MovementFilter) ([]domain.Movement, error)
}

type Entry struct {
	SourceID       uuid.UUID
	Kind           domain.MovementKind
	Reference      string
	Description    string
	OccurredAt     time.Time
	Credit         int64
	Debit          int64
	RunningBalance int64
}

type Statement struct {
	AccountID      uuid.UUID
	Start          time.Time
	End            time.Time
	OpeningBalance int64
	ClosingBalance int64
	TotalCredits   int64
	TotalDebits    int64
	Entries        []Entry
}

type Service struct {
	reader reader
}

func NewService(r reader) *Service {
	return &Service{reader: r}
}

// Get projects the account over [start, end). The opening balance is
// derived backwards from the current balance, so postings made after end
// are accounted for without appearing as entries.
func (s *Service) Get(ctx context.Context, accountID uuid.UUID, start, end time.Time) (*Statement, error) {
	if !end.After(start) {
		return nil, fmt.Errorf("Get: end must be after start: %w", domain.ErrInvalidRequest)
	}

	acct, err := s.reader.GetFloatAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}

	movements, err := s.reader.ListMovements(ctx, domain.MovementFilter{AccountID: accountID, From: &start})
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}

	return project(acct, movements, start, end), nil
}

// project expects movements at or after start, oldest first.
func project(acct *domain.FloatAccount, movements []domain.Movement, start, end time.Time) *Statement {
	var since int64
	for _, m := range movements {
		since += m.Delta
	}

	st := &Statement{
		AccountID:      acct.ID,
		Start:          start,
		End:            end,
		OpeningBalance: acct.CurrentBalance - since,
		Entries:        []Entry{},
	}

	running := st.OpeningBalance
	for _, m := range movements {
		if !m.OccurredAt.Before(end) {
			break
		}
		running += m.Delta
		e := Entry{
			SourceID:       m.SourceID,
			Kind:           m.Kind,
			Reference:      m.Reference,
			Description:    m.Description,
			OccurredAt:     m.OccurredAt,
			RunningBalance: running,
		}
		if m.Delta >= 0 {
			e.Credit = m.Delta
			st.TotalCredits += m.Delta
		} else {
			e.Debit = -m.Delta
			st.TotalDebits += -m.Delta
		}
		st.Entries = append(st.Entries, e)
	}
	st.ClosingBalance = running
	return st
}
