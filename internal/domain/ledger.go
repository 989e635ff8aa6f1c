package domain

import (
	"time"

	"github.com/google/uuid"
)

type GLAccountType string

const (
	GLAccountTypeAsset     GLAccountType = "asset"
	GLAccountTypeLiability GLAccountType = "liability"
	GLAccountTypeEquity    GLAccountType = "equity"
	GLAccountTypeRevenue   GLAccountType = "revenue"
	GLAccountTypeExpense   GLAccountType = "expense"
)

func (t GLAccountType) IsValid() bool {
	switch t {
	case GLAccountTypeAsset, GLAccountTypeLiability, GLAccountTypeEquity,
		GLAccountTypeRevenue, GLAccountTypeExpense:
		return true
	}
	return false
}

type GLAccount struct {
	ID        uuid.UUID
	Code      string
	Name      string
	Type      GLAccountType
	Balance   int64
	CreatedAt time.Time
}

// GLEntry is one journal line. TransactionID identifies the posting source,
// which is either a transaction or a commission.
type GLEntry struct {
	ID            uuid.UUID
	TransactionID uuid.UUID
	GLAccountID   uuid.UUID
	Debit         int64
	Credit        int64
	Description   string
	CreatedAt     time.Time
}

type MappingType string

const (
	MappingTypeMain       MappingType = "main_account"
	MappingTypeFee        MappingType = "fee_account"
	MappingTypeCommission MappingType = "commission_account"
	MappingTypeRevenue    MappingType = "revenue_account"
	MappingTypeExpense    MappingType = "expense_account"
)

func (m MappingType) IsValid() bool {
	switch m {
	case MappingTypeMain, MappingTypeFee, MappingTypeCommission,
		MappingTypeRevenue, MappingTypeExpense:
		return true
	}
	return false
}

type GLFloatMapping struct {
	ID             uuid.UUID
	FloatAccountID uuid.UUID
	GLAccountID    uuid.UUID
	MappingType    MappingType
	IsActive       bool
	CreatedAt      time.Time
}
