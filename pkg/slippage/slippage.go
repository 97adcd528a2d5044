package slippage

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"virtual-swap/pkg/amount"
	apperr "virtual-swap/pkg/errors"
)

// Preset identifies a slippage tolerance choice.
type Preset string

const (
	OneTenth Preset = "ONE_TENTH"
	One      Preset = "ONE"
	Custom   Preset = "CUSTOM"
)

var hundred = decimal.NewFromInt(100)

// Tolerance is a resolved slippage selection. The zero value is the default (1%).
type Tolerance struct {
	Preset Preset
	custom decimal.Decimal
}

// Default returns the 1% tolerance.
func Default() Tolerance {
	return Tolerance{Preset: One}
}

// NewCustom validates a user supplied percentage such as "0.5".
func NewCustom(s string) (Tolerance, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	pct, err := decimal.NewFromString(s)
	if err != nil {
		return Tolerance{}, apperr.NewValidationError(fmt.Sprintf("invalid slippage %q", s))
	}
	if pct.IsNegative() || pct.GreaterThanOrEqual(hundred) {
		return Tolerance{}, apperr.NewValidationError(fmt.Sprintf("slippage %s%% must be in [0, 100)", pct))
	}
	return Tolerance{Preset: Custom, custom: pct}, nil
}

// FromPreferences resolves a preset name (and its custom value) as stored in
// the config file.
func FromPreferences(preset, custom string) (Tolerance, error) {
	switch Preset(strings.ToUpper(strings.TrimSpace(preset))) {
	case OneTenth:
		return Tolerance{Preset: OneTenth}, nil
	case One, "":
		return Default(), nil
	case Custom:
		return NewCustom(custom)
	default:
		return Tolerance{}, apperr.NewValidationError(fmt.Sprintf("unknown slippage preset %q", preset))
	}
}

// Percent returns the tolerance as a percentage (1 means 1%).
func (t Tolerance) Percent() decimal.Decimal {
	switch t.Preset {
	case OneTenth:
		return decimal.RequireFromString("0.1")
	case Custom:
		return t.custom
	default:
		return decimal.NewFromInt(1)
	}
}

func (t Tolerance) String() string {
	return t.Percent().String() + "%"
}

// MinOutput returns floor(quoted × (1 − tolerance/100)).
func MinOutput(quoted *big.Int, t Tolerance) *big.Int {
	if amount.IsZero(quoted) {
		return amount.Zero()
	}

	// truncating the kept share keeps the bound from rounding up
	kept := hundred.Sub(t.Percent()).Shift(amount.RatePrecision).Truncate(0).BigInt()
	denom := new(big.Int).Mul(big.NewInt(100), amount.Pow10(amount.RatePrecision))

	return amount.MulDiv(quoted, kept, denom)
}
