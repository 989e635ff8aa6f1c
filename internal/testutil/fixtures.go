package testutil

import (
	"database/sql"
	"testing"

	"github.com/google/uuid"
)

func GetFloatBalance(t *testing.T, db *sql.DB, accountID uuid.UUID) int64 {
	t.Helper()

	var balance int64
	err := db.QueryRow(`SELECT current_balance FROM float_accounts WHERE id = $1`, accountID).Scan(&balance)
	if err != nil {
		t.Fatalf("get float balance %s: %v", accountID, err)
	}
	return balance
}

func GetGLBalance(t *testing.T, db *sql.DB, glAccountID uuid.UUID) int64 {
	t.Helper()

	var balance int64
	err := db.QueryRow(`SELECT balance FROM gl_accounts WHERE id = $1`, glAccountID).Scan(&balance)
	if err != nil {
		t.Fatalf("get gl balance %s: %v", glAccountID, err)
	}
	return balance
}

func CountGLEntries(t *testing.T, db *sql.DB, sourceID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM gl_entries WHERE transaction_id = $1`, sourceID).Scan(&count)
	if err != nil {
		t.Fatalf("count gl entries for %s: %v", sourceID, err)
	}
	return count
}

// SumGLEntries returns total debits and credits across the whole journal.
func SumGLEntries(t *testing.T, db *sql.DB) (debits, credits int64) {
	t.Helper()

	err := db.QueryRow(`SELECT COALESCE(SUM(debit), 0), COALESCE(SUM(credit), 0) FROM gl_entries`).Scan(&debits, &credits)
	if err != nil {
		t.Fatalf("sum gl entries: %v", err)
	}
	return debits, credits
}
