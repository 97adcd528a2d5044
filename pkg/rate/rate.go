package rate

import (
	"math/big"

	"github.com/shopspring/decimal"

	"virtual-swap/pkg/amount"
)

// DefaultHighImpactThreshold is 5%, expressed as an 18-decimal fraction.
var DefaultHighImpactThreshold = amount.MustParse("0.05", amount.RatePrecision)

// Price is an optional USD unit price. The zero value means "no price".
type Price struct {
	Value decimal.Decimal
	Valid bool
}

// NewPrice wraps a known USD price.
func NewPrice(d decimal.Decimal) Price {
	return Price{Value: d, Valid: true}
}

// ExchangeRate returns how many units of the output asset one unit of the
// input asset buys, as an 18-decimal fixed value. A zero input gives a zero
// rate.
func ExchangeRate(amountIn *big.Int, decimalsIn int, amountOut *big.Int, decimalsOut int) *big.Int {
	if amount.IsZero(amountIn) || amountOut == nil {
		return amount.Zero()
	}

	// normalise both sides to 18 decimals before dividing
	in := amount.Rescale(amountIn, decimalsIn, amount.RatePrecision)
	out := amount.Rescale(amountOut, decimalsOut, amount.RatePrecision)

	return amount.DivScaled(out, in, amount.RatePrecision)
}

// USDValue returns amount × price as an 18-decimal USD value. The second
// return value is false when the price is unknown.
func USDValue(a *big.Int, decimals int, price Price) (*big.Int, bool) {
	if !price.Valid || a == nil {
		return nil, false
	}

	scaledPrice := price.Value.Shift(amount.RatePrecision).Truncate(0).BigInt()
	return amount.MulDiv(a, scaledPrice, amount.Pow10(decimals)), true
}

// PriceImpact returns 1 - valueOut/valueIn as an 18-decimal fraction. Positive
// values are losses. Without both values (or with a zero input value) there is
// no signal and the impact is zero.
func PriceImpact(valueIn *big.Int, inOK bool, valueOut *big.Int, outOK bool) *big.Int {
	if !inOK || !outOK || amount.IsZero(valueIn) || valueOut == nil {
		return amount.Zero()
	}

	ratio := amount.DivScaled(valueOut, valueIn, amount.RatePrecision)
	return new(big.Int).Sub(amount.Pow10(amount.RatePrecision), ratio)
}

// IsHighPriceImpact reports whether impact exceeds threshold.
func IsHighPriceImpact(impact, threshold *big.Int) bool {
	if impact == nil {
		return false
	}
	if threshold == nil {
		threshold = DefaultHighImpactThreshold
	}
	return impact.Cmp(threshold) > 0
}

// Info is the derived rate information for one priced trade.
type Info struct {
	ExchangeRate *big.Int
	PriceImpact  *big.Int
	HighImpact   bool
}

// Calculate derives the exchange rate and price impact of trading amountIn of
// one asset for amountOut of another.
func Calculate(amountIn *big.Int, decimalsIn int, priceIn Price, amountOut *big.Int, decimalsOut int, priceOut Price, threshold *big.Int) Info {
	valueIn, inOK := USDValue(amountIn, decimalsIn, priceIn)
	valueOut, outOK := USDValue(amountOut, decimalsOut, priceOut)
	impact := PriceImpact(valueIn, inOK, valueOut, outOK)

	return Info{
		ExchangeRate: ExchangeRate(amountIn, decimalsIn, amountOut, decimalsOut),
		PriceImpact:  impact,
		HighImpact:   IsHighPriceImpact(impact, threshold),
	}
}

// FormatRate renders an exchange rate at display precision.
func FormatRate(r *big.Int) string {
	return amount.Commify(amount.Format(r, amount.RatePrecision, amount.DisplayPlaces))
}

// FormatImpact renders a price impact as a percentage with two decimals.
func FormatImpact(impact *big.Int) string {
	return amount.Commify(amount.FormatPercent(impact, 2))
}
