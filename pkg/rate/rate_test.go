package rate

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"

	"virtual-swap/pkg/amount"
)

func TestExchangeRate(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		decIn   int
		out     string
		decOut  int
		display string
	}{
		{"same scale", "100", 18, "98", 18, "0.98"},
		{"synth to usdc", "2", 18, "3000.5", 6, "1500.25"},
		{"usdc to synth", "1500", 6, "0.5", 8, "0.000333"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r := ExchangeRate(amount.MustParse(c.in, c.decIn), c.decIn, amount.MustParse(c.out, c.decOut), c.decOut)
			if got := amount.Format(r, amount.RatePrecision, amount.DisplayPlaces); got != c.display {
				t.Errorf("rate = %s, want %s", got, c.display)
			}
		})
	}
}

func TestExchangeRateZeroInput(t *testing.T) {
	outs := []*big.Int{big.NewInt(0), big.NewInt(1), amount.MustParse("123456", 18)}
	for _, out := range outs {
		if r := ExchangeRate(amount.Zero(), 18, out, 18); r.Sign() != 0 {
			t.Errorf("expected zero rate for zero input, got %s", r)
		}
	}
}

func TestPriceImpactWithoutPrices(t *testing.T) {
	amounts := []string{"0", "1", "100", "987654.321"}
	usd := NewPrice(decimal.NewFromInt(1))
	for _, a := range amounts {
		in := amount.MustParse(a, 18)
		out := amount.MustParse("1", 6)

		for _, prices := range [][2]Price{{{}, usd}, {usd, {}}, {{}, {}}} {
			info := Calculate(in, 18, prices[0], out, 6, prices[1], nil)
			if info.PriceImpact.Sign() != 0 {
				t.Errorf("expected zero impact without prices, got %s", info.PriceImpact)
			}
			if info.HighImpact {
				t.Errorf("zero impact must not be high")
			}
		}
	}
}

func TestPriceImpactAboveThreshold(t *testing.T) {
	usd := NewPrice(decimal.NewFromInt(1))
	info := Calculate(amount.MustParse("100", 18), 18, usd, amount.MustParse("93", 18), 18, usd, DefaultHighImpactThreshold)

	if got := amount.FormatPercent(info.PriceImpact, 2); got != "7.0%" {
		t.Fatalf("impact = %s, want 7.0%%", got)
	}
	if !info.HighImpact {
		t.Errorf("7%% impact should be high against a 5%% threshold")
	}
}

func TestPriceImpactMixedPrices(t *testing.T) {
	// 1 sBTC at 30000 for 29100 sUSD at 1.00 loses 3%
	info := Calculate(
		amount.MustParse("1", 18), 18, NewPrice(decimal.NewFromInt(30000)),
		amount.MustParse("29100", 18), 18, NewPrice(decimal.NewFromInt(1)),
		nil,
	)
	if got := FormatImpact(info.PriceImpact); got != "3.0%" {
		t.Errorf("impact = %s", got)
	}
	if info.HighImpact {
		t.Errorf("3%% should not be high")
	}
}

func TestPriceImpactGain(t *testing.T) {
	usd := NewPrice(decimal.NewFromInt(1))
	info := Calculate(amount.MustParse("100", 6), 6, usd, amount.MustParse("101", 6), 6, usd, nil)
	if info.PriceImpact.Sign() >= 0 {
		t.Errorf("expected negative impact for a favourable trade, got %s", info.PriceImpact)
	}
}

func TestCalculateIsPure(t *testing.T) {
	in := amount.MustParse("12.5", 18)
	out := amount.MustParse("11.9", 6)
	pIn := NewPrice(decimal.RequireFromString("1.01"))
	pOut := NewPrice(decimal.RequireFromString("0.99"))

	first := Calculate(in, 18, pIn, out, 6, pOut, nil)
	second := Calculate(in, 18, pIn, out, 6, pOut, nil)

	if first.ExchangeRate.Cmp(second.ExchangeRate) != 0 || first.PriceImpact.Cmp(second.PriceImpact) != 0 {
		t.Fatalf("identical inputs produced different outputs")
	}
	if in.Cmp(amount.MustParse("12.5", 18)) != 0 || out.Cmp(amount.MustParse("11.9", 6)) != 0 {
		t.Errorf("inputs were mutated")
	}
}
