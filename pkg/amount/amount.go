package amount

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/shopspring/decimal"

	apperr "virtual-swap/pkg/errors"
)

const (
	// DisplayPlaces is the precision floor used when showing amounts and rates.
	DisplayPlaces = 6

	// RatePrecision is the scale of exchange rates, USD values and fractions.
	RatePrecision = 18
)

// Zero returns a fresh zero amount.
func Zero() *big.Int {
	return new(big.Int)
}

// Pow10 returns 10^n.
func Pow10(n int) *big.Int {
	if n <= 0 {
		return big.NewInt(1)
	}
	return math.BigPow(10, int64(n))
}

// IsZero treats a nil amount as zero.
func IsZero(a *big.Int) bool {
	return a == nil || a.Sign() == 0
}

// Validate rejects nil and negative amounts.
func Validate(a *big.Int) error {
	if a == nil {
		return apperr.NewValidationError("amount is required")
	}
	if a.Sign() < 0 {
		return apperr.NewValidationError("amount cannot be negative")
	}
	return nil
}

// Parse converts a human readable amount (e.g. "1.5") into its integer
// magnitude at the given scale. Digits beyond the scale are truncated.
func Parse(s string, decimals int) (*big.Int, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return nil, apperr.NewParseError(s, nil)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, apperr.NewParseError(s, err)
	}
	if d.IsNegative() {
		return nil, apperr.NewValidationError("amount cannot be negative")
	}

	return d.Shift(int32(decimals)).Truncate(0).BigInt(), nil
}

// MustParse is Parse for static values; it panics on error.
func MustParse(s string, decimals int) *big.Int {
	a, err := Parse(s, decimals)
	if err != nil {
		panic(err)
	}
	return a
}

// Format renders an integer magnitude with the given scale, keeping at most
// places fractional digits. Extra digits are dropped, never rounded.
func Format(a *big.Int, decimals, places int) string {
	if a == nil {
		a = Zero()
	}

	sign := ""
	abs := new(big.Int).Set(a)
	if abs.Sign() < 0 {
		sign = "-"
		abs.Neg(abs)
	}

	if decimals <= 0 {
		whole := abs.Mul(abs, Pow10(-decimals)).String()
		if places <= 0 {
			return sign + whole
		}
		return sign + whole + ".0"
	}

	whole, frac := new(big.Int).QuoRem(abs, Pow10(decimals), new(big.Int))

	fracStr := frac.String()
	fracStr = strings.Repeat("0", decimals-len(fracStr)) + fracStr
	fracStr = strings.TrimRight(fracStr, "0")
	if fracStr == "" {
		fracStr = "0"
	}

	if places <= 0 {
		return sign + whole.String()
	}
	if len(fracStr) > places {
		fracStr = fracStr[:places]
	}

	return sign + whole.String() + "." + fracStr
}

// FormatPercent renders a fraction scaled by 10^18 (1e18 == 100%) as a percentage.
func FormatPercent(fraction *big.Int, places int) string {
	return Format(fraction, RatePrecision-2, places) + "%"
}

// Commify inserts thousands separators into the integer part of a formatted amount.
func Commify(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}

	whole, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	out := sign + b.String()
	if hasFrac {
		out += "." + frac
	}
	return out
}

// Rescale converts a magnitude between two scales. Scaling down truncates.
func Rescale(a *big.Int, from, to int) *big.Int {
	if a == nil {
		return Zero()
	}
	switch {
	case to > from:
		return new(big.Int).Mul(a, Pow10(to-from))
	case to < from:
		return new(big.Int).Quo(a, Pow10(from-to))
	default:
		return new(big.Int).Set(a)
	}
}

// Truncate drops every fractional digit of a beyond places, keeping the scale.
func Truncate(a *big.Int, decimals, places int) *big.Int {
	if places >= decimals {
		return new(big.Int).Set(a)
	}
	unit := Pow10(decimals - places)
	return new(big.Int).Mul(new(big.Int).Quo(a, unit), unit)
}

// DivScaled returns num/den scaled by 10^scale. A zero (or nil) denominator
// yields zero.
func DivScaled(num, den *big.Int, scale int) *big.Int {
	if IsZero(den) || num == nil {
		return Zero()
	}
	n := new(big.Int).Mul(num, Pow10(scale))
	return n.Quo(n, den)
}

// MulDiv returns a*b/c truncated toward zero; zero when c is zero.
func MulDiv(a, b, c *big.Int) *big.Int {
	if IsZero(c) || a == nil || b == nil {
		return Zero()
	}
	n := new(big.Int).Mul(a, b)
	return n.Quo(n, c)
}
