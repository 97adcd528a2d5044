package amount

import (
	"math/big"
	"testing"

	apperr "virtual-swap/pkg/errors"
)

func TestFormat(t *testing.T) {
	cases := []struct {
		raw      string
		decimals int
		places   int
		want     string
	}{
		{"1000000000000000000", 18, 6, "1.0"},
		{"1500000", 6, 6, "1.5"},
		{"1234567891", 6, 2, "1234.56"},
		{"1999999", 6, 0, "1"},
		{"123", 6, 6, "0.000123"},
		{"123", 6, 3, "0.000"},
		{"0", 18, 6, "0.0"},
		{"42", 0, 6, "42.0"},
		{"-70000000000000000", 18, 4, "-0.07"},
	}
	for _, c := range cases {
		a, _ := new(big.Int).SetString(c.raw, 10)
		if got := Format(a, c.decimals, c.places); got != c.want {
			t.Errorf("Format(%s, %d, %d) = %q, want %q", c.raw, c.decimals, c.places, got, c.want)
		}
	}
}

func TestCommify(t *testing.T) {
	cases := map[string]string{
		"0.5":           "0.5",
		"1234.5678":     "1,234.5678",
		"1234567":       "1,234,567",
		"100":           "100",
		"-9876543.21":   "-9,876,543.21",
		"12345678901.0": "12,345,678,901.0",
	}
	for in, want := range cases {
		if got := Commify(in); got != want {
			t.Errorf("Commify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParse(t *testing.T) {
	a, err := Parse("1.5", 18)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if a.Cmp(MustParse("1500000000000000000", 0)) != 0 {
		t.Errorf("unexpected magnitude %s", a)
	}

	a, err = Parse("1,000.1234567", 6)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if a.String() != "1000123456" {
		t.Errorf("expected truncation to scale, got %s", a)
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := Parse("abc", 18); !apperr.IsType(err, apperr.ErrParse) {
		t.Errorf("expected parse error, got %v", err)
	}
	if _, err := Parse("", 18); !apperr.IsType(err, apperr.ErrParse) {
		t.Errorf("expected parse error for empty input, got %v", err)
	}
	if _, err := Parse("-1", 18); !apperr.IsType(err, apperr.ErrValidation) {
		t.Errorf("expected validation error for negative input, got %v", err)
	}
}

func TestFormatThenParseNeverInflates(t *testing.T) {
	values := []string{"0", "1", "999999", "123456789012345678901", "1000000000000000001", "98765432109876543"}
	scales := []int{0, 6, 8, 18}
	for _, v := range values {
		a, _ := new(big.Int).SetString(v, 10)
		for _, s := range scales {
			for p := 0; p <= s; p++ {
				back, err := Parse(Format(a, s, p), s)
				if err != nil {
					t.Fatalf("reparse of %s at scale %d/%d failed: %v", v, s, p, err)
				}
				if back.Cmp(a) > 0 {
					t.Fatalf("reparse inflated %s to %s at scale %d places %d", v, back, s, p)
				}
				if back.Cmp(Truncate(a, s, p)) != 0 {
					t.Fatalf("reparse of %s at %d/%d = %s, want %s", v, s, p, back, Truncate(a, s, p))
				}
			}
		}
	}
}

func TestRescale(t *testing.T) {
	usdc := MustParse("1.234567", 6)
	up := Rescale(usdc, 6, 18)
	if up.String() != "1234567000000000000" {
		t.Errorf("unexpected upscale %s", up)
	}
	if back := Rescale(up, 18, 6); back.Cmp(usdc) != 0 {
		t.Errorf("round trip changed value: %s", back)
	}
	if down := Rescale(MustParse("1.9999999", 8), 8, 6); down.String() != "1999999" {
		t.Errorf("expected truncation when scaling down, got %s", down)
	}
}

func TestDivScaledZeroDenominator(t *testing.T) {
	if got := DivScaled(big.NewInt(10), Zero(), 18); got.Sign() != 0 {
		t.Errorf("expected zero sentinel, got %s", got)
	}
	if got := DivScaled(big.NewInt(10), nil, 18); got.Sign() != 0 {
		t.Errorf("expected zero sentinel for nil denominator, got %s", got)
	}
	if got := DivScaled(big.NewInt(1), big.NewInt(3), 6); got.String() != "333333" {
		t.Errorf("unexpected quotient %s", got)
	}
}

func TestFormatPercent(t *testing.T) {
	seven := MustParse("0.07", RatePrecision)
	if got := FormatPercent(seven, 2); got != "7.0%" {
		t.Errorf("FormatPercent = %q", got)
	}
	if got := FormatPercent(MustParse("0.012345", RatePrecision), 2); got != "1.23%" {
		t.Errorf("FormatPercent = %q", got)
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(nil); err == nil {
		t.Errorf("expected error for nil amount")
	}
	if err := Validate(big.NewInt(-1)); !apperr.IsType(err, apperr.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
	if err := Validate(big.NewInt(0)); err != nil {
		t.Errorf("zero is a valid amount: %v", err)
	}
}
