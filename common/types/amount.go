package types

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	walleterrors "github.com/luminachain/go-lumina/common/errors"
	"github.com/luminachain/go-lumina/common/helper"
)

// Amount is a count of token minor units. A token's Decimals tell how many minor
// units make one whole token.
type Amount int64

func (a Amount) Add(b Amount) (Amount, error) {
	v, overflow := helper.SafeAddInt64(int64(a), int64(b))
	if overflow {
		return 0, walleterrors.ErrAmountOverflow
	}
	return Amount(v), nil
}

func (a Amount) Sub(b Amount) (Amount, error) {
	v, overflow := helper.SafeSubInt64(int64(a), int64(b))
	if overflow {
		return 0, walleterrors.ErrAmountOverflow
	}
	return Amount(v), nil
}

func (a Amount) Sign() int {
	switch {
	case a > 0:
		return 1
	case a < 0:
		return -1
	}
	return 0
}

func (a Amount) Int64() int64 {
	return int64(a)
}

// Format renders a with exactly decimals fractional digits.
func (a Amount) Format(decimals int32) string {
	return decimal.New(int64(a), -decimals).StringFixed(decimals)
}

// ParseAmount converts a human readable number such as "3.5" into minor units.
// Inputs with more fractional digits than decimals are rejected, never rounded.
func ParseAmount(s string, decimals int32) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, errors.Wrapf(walleterrors.ErrInvalidAmount, "parse %q", s)
	}

	shifted := d.Shift(decimals)
	if !shifted.Equal(shifted.Truncate(0)) {
		return 0, errors.Wrapf(walleterrors.ErrInvalidAmount, "%q has more than %d decimals", s, decimals)
	}

	bi := shifted.BigInt()
	if !bi.IsInt64() {
		return 0, errors.Wrapf(walleterrors.ErrAmountOverflow, "parse %q", s)
	}
	return Amount(bi.Int64()), nil
}
