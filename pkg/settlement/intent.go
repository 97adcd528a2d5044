package settlement

import (
	"math/big"

	"virtual-swap/pkg/notify"
)

// Intent is a side effect requested by a machine transition
type Intent interface {
	intent()
}

// QuoteRequest asks for calcCompleteToToken(ItemID, Amount)
type QuoteRequest struct {
	Seq    uint64
	ItemID *big.Int
	Amount *big.Int
}

// CallKind selects the settlement contract function
type CallKind string

const (
	CallWithdraw        CallKind = "withdraw"
	CallCompleteToToken CallKind = "completeToToken"
	CallCompleteToSynth CallKind = "completeToSynth"
)

// SettlementCall is the single contract call made on confirmation
type SettlementCall struct {
	Kind      CallKind
	ItemID    *big.Int
	Amount    *big.Int
	MinOutput *big.Int
	Deadline  int64
}

// Notification reports a transaction to the user
type Notification struct {
	TxHash   string
	Category notify.Category
}

// Close tells the caller the settlement is finished
type Close struct{}

func (QuoteRequest) intent()   {}
func (SettlementCall) intent() {}
func (Notification) intent()   {}
func (Close) intent()          {}
