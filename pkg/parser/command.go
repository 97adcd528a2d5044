package parser

import (
	"fmt"
	"regexp"
	"strings"

	apperr "virtual-swap/pkg/errors"
	"virtual-swap/pkg/types"
)

var settlePattern = regexp.MustCompile(`^(SETTLE|WITHDRAW)(?:\s+(ALL|MAX|[\d,]*\.?\d+))?(?:\s+([A-Z0-9]+))?$`)

// ParseSettleCommand parses a settle or withdraw command
// Examples:
//   - "settle 1.5 sBTC"
//   - "settle all"
//   - "withdraw 0.25"
func ParseSettleCommand(command string) (*types.SettleRequest, error) {
	normalized := strings.Join(strings.Fields(strings.ToUpper(command)), " ")

	matches := settlePattern.FindStringSubmatch(normalized)
	if matches == nil {
		return nil, apperr.NewParseError(command, fmt.Errorf("expected 'settle|withdraw [amount|all] [token]' (e.g., 'settle 1.5 sBTC')"))
	}

	req := &types.SettleRequest{
		Action: strings.ToLower(matches[1]),
		Amount: matches[2],
		Symbol: matches[3],
	}
	if req.Amount == "ALL" || req.Amount == "MAX" {
		req.Amount = ""
	}
	req.Amount = strings.ReplaceAll(req.Amount, ",", "")

	// keep the symbol's original casing (sBTC, not SBTC)
	if req.Symbol != "" {
		for _, f := range strings.Fields(command) {
			if strings.EqualFold(f, req.Symbol) {
				req.Symbol = f
			}
		}
	}

	return req, nil
}

// ValidateSettleRequest checks the request against the pending swap's synth
func ValidateSettleRequest(req *types.SettleRequest, synthSymbol string) error {
	if req.Action != "settle" && req.Action != "withdraw" {
		return apperr.NewValidationError(fmt.Sprintf("unknown action %q", req.Action))
	}
	if req.Action == "withdraw" && req.Amount == "" {
		return apperr.NewValidationError("withdraw needs an amount")
	}
	if req.Symbol != "" && !strings.EqualFold(req.Symbol, synthSymbol) {
		return apperr.NewValidationError(fmt.Sprintf("amount is in %s but the pending swap holds %s", req.Symbol, synthSymbol))
	}
	return nil
}
