package slippage

import (
	"testing"

	"virtual-swap/pkg/amount"
	apperr "virtual-swap/pkg/errors"
)

func TestMinOutputOnePercent(t *testing.T) {
	quoted := amount.MustParse("98", 18)
	got := MinOutput(quoted, Default())

	if got.Cmp(amount.MustParse("97.02", 18)) != 0 {
		t.Fatalf("MinOutput = %s, want 97.02", amount.Format(got, 18, 18))
	}
}

func TestMinOutputZeroTolerance(t *testing.T) {
	zero, err := NewCustom("0")
	if err != nil {
		t.Fatal(err)
	}
	for _, q := range []string{"1", "123.456789", "1000000.000000000000000001"} {
		quoted := amount.MustParse(q, 18)
		if got := MinOutput(quoted, zero); got.Cmp(quoted) != 0 {
			t.Errorf("MinOutput(%s, 0) = %s", q, got)
		}
	}
}

func TestMinOutputMonotone(t *testing.T) {
	quoted := amount.MustParse("12345.678901", 6)
	tolerances := []string{"0", "0.01", "0.1", "0.5", "1", "2.5", "10", "50", "99.99"}

	prev := quoted
	for _, s := range tolerances {
		tol, err := NewCustom(s)
		if err != nil {
			t.Fatalf("NewCustom(%s): %v", s, err)
		}
		got := MinOutput(quoted, tol)
		if got.Cmp(prev) > 0 {
			t.Fatalf("MinOutput increased at %s%%: %s > %s", s, got, prev)
		}
		if got.Cmp(quoted) > 0 {
			t.Fatalf("MinOutput exceeded the quote at %s%%", s)
		}
		prev = got
	}
}

func TestMinOutputFloors(t *testing.T) {
	// 3 × 0.99 = 2.97 whole units floors to 2
	if got := MinOutput(amount.MustParse("3", 0), Default()); got.Int64() != 2 {
		t.Errorf("expected floor to 2, got %s", got)
	}
	if got := MinOutput(amount.MustParse("1000", 0), Tolerance{Preset: OneTenth}); got.Int64() != 999 {
		t.Errorf("expected 999, got %s", got)
	}
}

func TestNewCustomValidation(t *testing.T) {
	for _, s := range []string{"100", "150", "-1", "abc", ""} {
		if _, err := NewCustom(s); !apperr.IsType(err, apperr.ErrValidation) {
			t.Errorf("NewCustom(%q): expected validation error, got %v", s, err)
		}
	}
	tol, err := NewCustom("2.5%")
	if err != nil {
		t.Fatalf("NewCustom(2.5%%): %v", err)
	}
	if tol.String() != "2.5%" {
		t.Errorf("unexpected tolerance %s", tol)
	}
}

func TestFromPreferences(t *testing.T) {
	tol, err := FromPreferences("one_tenth", "")
	if err != nil || tol.Preset != OneTenth {
		t.Fatalf("got %v, %v", tol, err)
	}
	if tol, _ := FromPreferences("", ""); tol.Preset != One {
		t.Errorf("empty preset should fall back to ONE, got %s", tol.Preset)
	}
	if _, err := FromPreferences("CUSTOM", "120"); err == nil {
		t.Errorf("expected invalid custom value to be rejected")
	}
	if _, err := FromPreferences("HALF", ""); err == nil {
		t.Errorf("expected unknown preset to be rejected")
	}
}
