package deadline

import (
	"testing"
	"time"

	apperr "virtual-swap/pkg/errors"
)

func TestResolvePresets(t *testing.T) {
	now := time.Unix(1700000000, 0)
	cases := map[Preset]int64{
		Ten:    1700000600,
		Twenty: 1700001200,
		Thirty: 1700001800,
		Forty:  1700002400,
	}
	for p, want := range cases {
		got, err := Resolve(now, Selection{Preset: p})
		if err != nil {
			t.Fatalf("Resolve(%s): %v", p, err)
		}
		if got != want {
			t.Errorf("Resolve(%s) = %d, want %d", p, got, want)
		}
	}
}

func TestResolveRoundsToNearestSecond(t *testing.T) {
	now := time.Unix(1700000000, 600*int64(time.Millisecond))
	got, err := Resolve(now, Default())
	if err != nil {
		t.Fatal(err)
	}
	if got != 1700001201 {
		t.Errorf("expected rounding up to 1700001201, got %d", got)
	}

	now = time.Unix(1700000000, 400*int64(time.Millisecond))
	if got, _ := Resolve(now, Default()); got != 1700001200 {
		t.Errorf("expected rounding down to 1700001200, got %d", got)
	}
}

func TestResolveAlwaysInFuture(t *testing.T) {
	now := time.Now()
	for _, m := range []int{1, 5, 90} {
		sel, err := NewCustom(m)
		if err != nil {
			t.Fatal(err)
		}
		got, err := Resolve(now, sel)
		if err != nil {
			t.Fatal(err)
		}
		if got <= now.Unix() {
			t.Errorf("deadline %d not after %d", got, now.Unix())
		}
	}
}

func TestNewCustomValidation(t *testing.T) {
	for _, m := range []int{0, -5} {
		if _, err := NewCustom(m); !apperr.IsType(err, apperr.ErrValidation) {
			t.Errorf("NewCustom(%d): expected validation error, got %v", m, err)
		}
	}
	if _, err := Resolve(time.Now(), Selection{Preset: Custom}); err == nil {
		t.Errorf("expected unvalidated zero custom selection to be rejected")
	}
}

func TestFromPreferences(t *testing.T) {
	sel, err := FromPreferences("thirty", 0)
	if err != nil || sel.Minutes() != 30 {
		t.Fatalf("got %v, %v", sel, err)
	}
	if sel, _ := FromPreferences("", 0); sel.Minutes() != 20 {
		t.Errorf("empty preset should default to 20 minutes")
	}
	if sel, _ := FromPreferences("CUSTOM", 45); sel.Minutes() != 45 {
		t.Errorf("expected 45 custom minutes, got %d", sel.Minutes())
	}
	if _, err := FromPreferences("FIFTY", 0); err == nil {
		t.Errorf("expected unknown preset to be rejected")
	}
}
