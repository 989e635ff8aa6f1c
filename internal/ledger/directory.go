package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/float-ledger/internal/domain"
)

// Resolve finds the GL account a float account posts to for the given role.
// A missing main account is always an error; any other role may be absent
// only when there is nothing to post to it, in which case Resolve returns
// a nil account.
func Resolve(ctx context.Context, tx Tx, floatAccountID uuid.UUID, role domain.MappingType, amount int64) (*domain.GLAccount, error) {
	m, err := tx.FindMapping(ctx, floatAccountID, role)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("Resolve: %w", err)
		}
		if role != domain.MappingTypeMain && amount == 0 {
			return nil, nil
		}
		return nil, fmt.Errorf("Resolve: %s for float %s: %w", role, floatAccountID, domain.ErrGLMappingNotConfigured)
	}

	acct, err := tx.GetGLAccount(ctx, m.GLAccountID)
	if err != nil {
		return nil, fmt.Errorf("Resolve: gl account %s: %w", m.GLAccountID, err)
	}
	return acct, nil
}

// EnsureAccount returns the GL account with the given code, creating it on
// first use.
func EnsureAccount(ctx context.Context, tx Tx, code, name string, accountType domain.GLAccountType) (*domain.GLAccount, error) {
	if code == "" || !accountType.IsValid() {
		return nil, fmt.Errorf("EnsureAccount: %w", domain.ErrInvalidRequest)
	}
	acct, err := tx.EnsureGLAccount(ctx, &domain.GLAccount{
		ID:        uuid.New(),
		Code:      code,
		Name:      name,
		Type:      accountType,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("EnsureAccount: %w", err)
	}
	return acct, nil
}
