package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/float-ledger/internal/domain"
	"github.com/josh-kwaku/float-ledger/internal/ledger"
)

var (
	DemoBranchID       = uuid.MustParse("00000000-0000-0000-0000-00000000b001")
	DemoCashTillID     = uuid.MustParse("00000000-0000-0000-0001-000000000001")
	DemoMomoFloatID    = uuid.MustParse("00000000-0000-0000-0001-000000000002")
	DemoAgencyFloatID  = uuid.MustParse("00000000-0000-0000-0001-000000000003")
	DemoJumiaFloatID   = uuid.MustParse("00000000-0000-0000-0001-000000000004")
	DemoPowerFloatID   = uuid.MustParse("00000000-0000-0000-0001-000000000005")
	DemoEZwichFloatID  = uuid.MustParse("00000000-0000-0000-0001-000000000006")
	demoOpeningBalance = int64(50_000_00)
)

type glSpec struct {
	code string
	name string
	typ  domain.GLAccountType
}

var (
	glCash          = glSpec{"1000", "Cash in Till", domain.GLAccountTypeAsset}
	glMomoFloat     = glSpec{"1100", "MoMo Float", domain.GLAccountTypeAsset}
	glAgencyFloat   = glSpec{"1110", "Agency Banking Float", domain.GLAccountTypeAsset}
	glJumiaFloat    = glSpec{"1120", "Jumia Float", domain.GLAccountTypeAsset}
	glPowerFloat    = glSpec{"1130", "Power Float", domain.GLAccountTypeAsset}
	glEZwichFloat   = glSpec{"1140", "E-Zwich Float", domain.GLAccountTypeAsset}
	glJumiaPayable  = glSpec{"2100", "Jumia Collections Payable", domain.GLAccountTypeLiability}
	glFeeIncome     = glSpec{"4000", "Transaction Fee Income", domain.GLAccountTypeRevenue}
	glCommissionInc = glSpec{"4100", "Commission Income", domain.GLAccountTypeRevenue}
)

type floatSpec struct {
	id       uuid.UUID
	typ      domain.AccountType
	provider string
	main     glSpec
	extra    map[domain.MappingType]glSpec
}

// Seed loads a demo branch: a cash till plus one float per service, each
// mapped to the GL chart it posts to.
func Seed(ctx context.Context, s ledger.Store) error {
	floats := []floatSpec{
		{DemoCashTillID, domain.AccountTypeCashInTill, "branch", glCash, nil},
		{DemoMomoFloatID, domain.AccountTypeMomo, "mtn", glMomoFloat, map[domain.MappingType]glSpec{
			domain.MappingTypeFee:        glFeeIncome,
			domain.MappingTypeCommission: glCommissionInc,
		}},
		{DemoAgencyFloatID, domain.AccountTypeAgencyBanking, "gcb", glAgencyFloat, map[domain.MappingType]glSpec{
			domain.MappingTypeFee:        glFeeIncome,
			domain.MappingTypeCommission: glCommissionInc,
		}},
		{DemoJumiaFloatID, domain.AccountTypeJumia, "jumia", glJumiaFloat, map[domain.MappingType]glSpec{
			domain.MappingTypeFee:     glFeeIncome,
			domain.MappingTypeRevenue: glJumiaPayable,
		}},
		{DemoPowerFloatID, domain.AccountTypePower, "ecg", glPowerFloat, map[domain.MappingType]glSpec{
			domain.MappingTypeFee: glFeeIncome,
		}},
		{DemoEZwichFloatID, domain.AccountTypeEZwich, "ghipss", glEZwichFloat, map[domain.MappingType]glSpec{
			domain.MappingTypeFee:        glFeeIncome,
			domain.MappingTypeCommission: glCommissionInc,
		}},
	}

	return s.RunInTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		now := time.Now().UTC()
		for _, f := range floats {
			err := tx.CreateFloatAccount(ctx, &domain.FloatAccount{
				ID:             f.id,
				BranchID:       DemoBranchID,
				AccountType:    f.typ,
				Provider:       f.provider,
				CurrentBalance: demoOpeningBalance,
				MinThreshold:   5_000_00,
				IsActive:       true,
				CreatedAt:      now,
				UpdatedAt:      now,
			})
			if err != nil {
				return fmt.Errorf("Seed: %w", err)
			}

			if err := mapGL(ctx, tx, f.id, domain.MappingTypeMain, f.main, now); err != nil {
				return fmt.Errorf("Seed: %w", err)
			}
			for role, def := range f.extra {
				if err := mapGL(ctx, tx, f.id, role, def, now); err != nil {
					return fmt.Errorf("Seed: %w", err)
				}
			}
		}
		return nil
	})
}

func mapGL(ctx context.Context, tx ledger.Tx, floatID uuid.UUID, role domain.MappingType, def glSpec, now time.Time) error {
	gl, err := ledger.EnsureAccount(ctx, tx, def.code, def.name, def.typ)
	if err != nil {
		return fmt.Errorf("mapGL: %w", err)
	}
	return tx.CreateMapping(ctx, &domain.GLFloatMapping{
		ID:             uuid.New(),
		FloatAccountID: floatID,
		GLAccountID:    gl.ID,
		MappingType:    role,
		IsActive:       true,
		CreatedAt:      now,
	})
}
