package pending

import (
	"fmt"
	"math/big"
	"time"

	"virtual-swap/pkg/types"
)

// Status tracks a stored pending swap
type Status string

const (
	StatusPending  Status = "pending"  // Waiting or ready to settle
	StatusSettling Status = "settling" // Settlement transaction in flight
	StatusSettled  Status = "settled"  // Settled; hidden from the visible set
	StatusFailed   Status = "failed"   // Last settlement attempt failed
)

// AttemptStatus tracks one settlement attempt
type AttemptStatus string

const (
	AttemptStarted   AttemptStatus = "started"
	AttemptSubmitted AttemptStatus = "submitted"
	AttemptConfirmed AttemptStatus = "confirmed"
	AttemptFailed    AttemptStatus = "failed"
)

// Record is a pending swap as persisted locally
type Record struct {
	ItemID       string         `json:"item_id"`
	SwapType     types.SwapType `json:"swap_type"`
	SynthFrom    string         `json:"synth_from"`
	TokenTo      string         `json:"token_to"`
	SynthBalance string         `json:"synth_balance"` // integer magnitude at the synth's scale
	ReadyAt      time.Time      `json:"ready_at"`
	Added        time.Time      `json:"added"`
	LastUpdated  time.Time      `json:"last_updated"`
	Status       Status         `json:"status"`
	Attempts     []Attempt      `json:"attempts"`
}

// Attempt is one confirmed settlement call
type Attempt struct {
	ID           string        `json:"id"`
	Action       string        `json:"action"`
	Amount       string        `json:"amount"`
	TxHash       string        `json:"tx_hash,omitempty"`
	Status       AttemptStatus `json:"status"`
	ErrorMessage string        `json:"error_message,omitempty"`
	Started      time.Time     `json:"started"`
	Completed    *time.Time    `json:"completed,omitempty"`
}

// Validate checks the record can be turned into a pending swap
func (r *Record) Validate() error {
	if _, ok := new(big.Int).SetString(r.ItemID, 10); !ok {
		return fmt.Errorf("item id must be an integer, got %q", r.ItemID)
	}
	if !r.SwapType.Valid() {
		return fmt.Errorf("invalid swap type %q", r.SwapType)
	}
	if r.SynthFrom == "" || r.TokenTo == "" {
		return fmt.Errorf("synth and destination token are required")
	}
	balance, ok := new(big.Int).SetString(r.SynthBalance, 10)
	if !ok || balance.Sign() < 0 {
		return fmt.Errorf("synth balance must be a non-negative integer, got %q", r.SynthBalance)
	}
	return nil
}

// Visible reports whether the swap still belongs in the pending list
func (r *Record) Visible() bool {
	return r.Status != StatusSettled
}

// PendingSwap resolves the record's assets against table
func (r *Record) PendingSwap(table *types.AssetTable) (types.PendingSwap, error) {
	if err := r.Validate(); err != nil {
		return types.PendingSwap{}, err
	}

	synth, ok := table.Lookup(r.SynthFrom)
	if !ok {
		return types.PendingSwap{}, fmt.Errorf("unknown asset %s", r.SynthFrom)
	}
	token, ok := table.Lookup(r.TokenTo)
	if !ok {
		return types.PendingSwap{}, fmt.Errorf("unknown asset %s", r.TokenTo)
	}

	itemID, _ := new(big.Int).SetString(r.ItemID, 10)
	balance, _ := new(big.Int).SetString(r.SynthBalance, 10)

	return types.PendingSwap{
		ItemID:       itemID,
		SwapType:     r.SwapType,
		SynthFrom:    synth,
		TokenTo:      token,
		SynthBalance: balance,
		ReadyAt:      r.ReadyAt,
	}, nil
}
