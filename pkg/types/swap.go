package types

import (
	"fmt"
	"math"
	"math/big"
	"strings"
	"time"
)

// SwapType describes the route a swap takes through synthetic assets
type SwapType string

const (
	SwapDirect       SwapType = "DIRECT"
	SwapSynthToSynth SwapType = "SYNTH_TO_SYNTH"
	SwapSynthToToken SwapType = "SYNTH_TO_TOKEN"
	SwapTokenToSynth SwapType = "TOKEN_TO_SYNTH"
	SwapTokenToToken SwapType = "TOKEN_TO_TOKEN"
)

// Valid reports whether t is a known swap type
func (t SwapType) Valid() bool {
	switch t {
	case SwapDirect, SwapSynthToSynth, SwapSynthToToken, SwapTokenToSynth, SwapTokenToToken:
		return true
	}
	return false
}

// SettlesToToken reports whether settling this swap needs a quoted token output
func (t SwapType) SettlesToToken() bool {
	return t == SwapSynthToToken || t == SwapTokenToToken
}

// ParseSwapType accepts the canonical names case-insensitively
func ParseSwapType(s string) (SwapType, error) {
	t := SwapType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown swap type %q", s)
	}
	return t, nil
}

// PendingSwap is a virtual swap whose synth leg is waiting out its settlement period
type PendingSwap struct {
	ItemID       *big.Int
	SwapType     SwapType
	SynthFrom    Asset
	TokenTo      Asset
	SynthBalance *big.Int
	ReadyAt      time.Time
}

// SecondsRemaining returns the whole seconds left until the swap can settle
func (p PendingSwap) SecondsRemaining(now time.Time) int64 {
	left := p.ReadyAt.Sub(now)
	if left <= 0 {
		return 0
	}
	return int64(math.Ceil(left.Seconds()))
}

// MinutesRemaining rounds a countdown up to whole minutes for display
func MinutesRemaining(secondsRemaining int64) int64 {
	if secondsRemaining <= 0 {
		return 0
	}
	return (secondsRemaining + 59) / 60
}

// Validate checks the pending swap has what settlement needs
func (p PendingSwap) Validate() error {
	if p.ItemID == nil || p.ItemID.Sign() < 0 {
		return fmt.Errorf("item id is required")
	}
	if !p.SwapType.Valid() {
		return fmt.Errorf("invalid swap type %q", p.SwapType)
	}
	if p.SynthFrom.Symbol == "" {
		return fmt.Errorf("synth asset is required")
	}
	if p.TokenTo.Symbol == "" {
		return fmt.Errorf("destination asset is required")
	}
	if p.SynthBalance == nil || p.SynthBalance.Sign() < 0 {
		return fmt.Errorf("synth balance must not be negative")
	}
	return nil
}

// Pair returns the "SYNTH/TOKEN" label used in reviews
func (p PendingSwap) Pair() string {
	return p.SynthFrom.Symbol + "/" + p.TokenTo.Symbol
}

// ReviewDisplay holds formatted settlement information for display
type ReviewDisplay struct {
	FromSymbol      string `json:"from_symbol"`
	FromAmount      string `json:"from_amount"`
	ToSymbol        string `json:"to_symbol,omitempty"`
	ToAmount        string `json:"to_amount,omitempty"`
	Pair            string `json:"pair,omitempty"`
	Rate            string `json:"rate,omitempty"`
	PriceImpact     string `json:"price_impact,omitempty"`
	HighImpact      bool   `json:"high_impact"`
	MinOutput       string `json:"min_output,omitempty"`
	DeadlineMinutes int    `json:"deadline_minutes,omitempty"`
}

// SettleRequest is a parsed settle or withdraw command
type SettleRequest struct {
	Action string // "settle" or "withdraw"
	Amount string // empty means the whole synth balance
	Symbol string
}
