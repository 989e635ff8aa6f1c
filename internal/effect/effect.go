// Package effect maps a transaction intent onto the signed deltas it applies
// to the branch cash till and the provider float.
package effect

import (
	"fmt"

	"github.com/josh-kwaku/float-ledger/internal/domain"
)

type Class string

const (
	ClassDeposit    Class = "deposit"
	ClassWithdrawal Class = "withdrawal"
	ClassFlatCredit Class = "flat_credit"
)

type kind struct {
	service   domain.ServiceType
	direction domain.Direction
}

var classes = map[kind]Class{
	{domain.ServiceMomo, domain.DirectionCashIn}:                ClassDeposit,
	{domain.ServiceMomo, domain.DirectionCashOut}:               ClassWithdrawal,
	{domain.ServiceAgencyBanking, domain.DirectionDeposit}:      ClassDeposit,
	{domain.ServiceAgencyBanking, domain.DirectionWithdrawal}:   ClassWithdrawal,
	{domain.ServiceAgencyBanking, domain.DirectionInterbankOut}: ClassDeposit,
	{domain.ServiceAgencyBanking, domain.DirectionInterbankIn}:  ClassWithdrawal,
	{domain.ServiceEZwich, domain.DirectionWithdrawal}:          ClassWithdrawal,
	{domain.ServiceEZwich, domain.DirectionCardIssuance}:        ClassDeposit,
	{domain.ServicePower, domain.DirectionTokenSale}:            ClassDeposit,
	{domain.ServiceBillPayment, domain.DirectionPayment}:        ClassDeposit,
	{domain.ServiceJumia, domain.DirectionPODCollection}:        ClassFlatCredit,
	{domain.ServiceJumia, domain.DirectionSettlement}:           ClassWithdrawal,
}

type Intent struct {
	ServiceType domain.ServiceType
	Direction   domain.Direction
	Amount      int64
	Fee         int64
}

type Effect struct {
	Class         Class
	CashTillDelta int64
	FloatDelta    int64
}

// Residual is what the two asset legs leave unbalanced in the journal: the
// fee for deposits and withdrawals, the whole amount for a flat credit.
func (e Effect) Residual() int64 {
	return e.CashTillDelta + e.FloatDelta
}

func ClassOf(service domain.ServiceType, direction domain.Direction) (Class, error) {
	c, ok := classes[kind{service, direction}]
	if !ok {
		return "", fmt.Errorf("ClassOf: %s/%s: %w", service, direction, domain.ErrUnsupportedTransactionType)
	}
	return c, nil
}

func Calculate(in Intent) (Effect, error) {
	class, err := ClassOf(in.ServiceType, in.Direction)
	if err != nil {
		return Effect{}, fmt.Errorf("Calculate: %w", err)
	}
	if !domain.ValidAmount(in.Amount) || in.Fee < 0 || in.Fee > domain.MaxAmount {
		return Effect{}, fmt.Errorf("Calculate: %w", domain.ErrInvalidAmount)
	}

	switch class {
	case ClassDeposit:
		return Effect{Class: class, CashTillDelta: in.Amount + in.Fee, FloatDelta: -in.Amount}, nil
	case ClassWithdrawal:
		return Effect{Class: class, CashTillDelta: -in.Amount + in.Fee, FloatDelta: in.Amount}, nil
	default:
		if in.Fee != 0 {
			return Effect{}, fmt.Errorf("Calculate: fee on flat credit: %w", domain.ErrInvalidAmount)
		}
		return Effect{Class: class, CashTillDelta: in.Amount}, nil
	}
}
