package parser

import (
	"testing"

	apperr "virtual-swap/pkg/errors"
)

func TestParseSettleCommand(t *testing.T) {
	cases := []struct {
		in     string
		action string
		amount string
		symbol string
	}{
		{"settle 1.5 sBTC", "settle", "1.5", "sBTC"},
		{"  SETTLE   all ", "settle", "", ""},
		{"settle", "settle", "", ""},
		{"withdraw 0.25", "withdraw", "0.25", ""},
		{"withdraw 1,000.5 sUSD", "withdraw", "1000.5", "sUSD"},
		{"settle .5", "settle", ".5", ""},
	}
	for _, c := range cases {
		req, err := ParseSettleCommand(c.in)
		if err != nil {
			t.Errorf("ParseSettleCommand(%q): %v", c.in, err)
			continue
		}
		if req.Action != c.action || req.Amount != c.amount || req.Symbol != c.symbol {
			t.Errorf("ParseSettleCommand(%q) = %+v", c.in, req)
		}
	}
}

func TestParseSettleCommandErrors(t *testing.T) {
	for _, in := range []string{"", "swap 1 SOL to USDC", "settle -1", "withdraw 1 2 3"} {
		if _, err := ParseSettleCommand(in); !apperr.IsType(err, apperr.ErrParse) {
			t.Errorf("ParseSettleCommand(%q): expected parse error, got %v", in, err)
		}
	}
}

func TestValidateSettleRequest(t *testing.T) {
	req, _ := ParseSettleCommand("withdraw")
	if err := ValidateSettleRequest(req, "sBTC"); !apperr.IsType(err, apperr.ErrValidation) {
		t.Errorf("expected withdraw without amount to fail, got %v", err)
	}

	req, _ = ParseSettleCommand("settle 1 sETH")
	if err := ValidateSettleRequest(req, "sBTC"); err == nil {
		t.Errorf("expected symbol mismatch to fail")
	}

	req, _ = ParseSettleCommand("settle 1 sbtc")
	if err := ValidateSettleRequest(req, "sBTC"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
