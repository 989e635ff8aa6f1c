package domain

import (
	"time"

	"github.com/google/uuid"
)

type AccountType string

const (
	AccountTypeCashInTill    AccountType = "cash_in_till"
	AccountTypeMomo          AccountType = "momo"
	AccountTypeAgencyBanking AccountType = "agency_banking"
	AccountTypeEZwich        AccountType = "e_zwich"
	AccountTypePower         AccountType = "power"
	AccountTypeJumia         AccountType = "jumia"
	AccountTypeOther         AccountType = "other"
)

func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeCashInTill, AccountTypeMomo, AccountTypeAgencyBanking,
		AccountTypeEZwich, AccountTypePower, AccountTypeJumia, AccountTypeOther:
		return true
	}
	return false
}

// FloatAccount is an operational balance: a branch's cash in till or a
// provider float. Balances are in minor units.
type FloatAccount struct {
	ID             uuid.UUID
	BranchID       uuid.UUID
	AccountType    AccountType
	Provider       string
	CurrentBalance int64
	Floor          int64
	MinThreshold   int64
	MaxThreshold   int64
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Available is how much can be taken out before the floor is breached.
func (a *FloatAccount) Available() int64 {
	return a.CurrentBalance - a.Floor
}

// BelowThreshold reports whether the balance sits under the configured
// low-balance alert level. A zero threshold disables the alert.
func (a *FloatAccount) BelowThreshold() bool {
	return a.MinThreshold > 0 && a.CurrentBalance < a.MinThreshold
}
