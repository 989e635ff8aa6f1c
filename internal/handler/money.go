package handler

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/float-ledger/internal/domain"
)

var maxMinor = decimal.NewFromInt(domain.MaxAmount)

// ParseAmount converts a decimal string such as "100.50" to minor units.
// More than two decimal places is rejected rather than rounded.
func ParseAmount(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("ParseAmount: %q: %w", s, domain.ErrInvalidAmount)
	}
	if !d.Equal(d.Truncate(2)) {
		return 0, fmt.Errorf("ParseAmount: %q has more than two decimal places: %w", s, domain.ErrInvalidAmount)
	}
	minor := d.Shift(2)
	if minor.Abs().GreaterThan(maxMinor) {
		return 0, fmt.Errorf("ParseAmount: %q out of range: %w", s, domain.ErrInvalidAmount)
	}
	return minor.IntPart(), nil
}

// parseOptionalAmount treats an empty string as zero.
func parseOptionalAmount(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	return ParseAmount(s)
}

func FormatAmount(minor int64) string {
	return decimal.New(minor, -2).StringFixed(2)
}
