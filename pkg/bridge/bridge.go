package bridge

import (
	"context"
	"math/big"
)

// Tx is a submitted settlement transaction
type Tx interface {
	Hash() string
	// Wait blocks until the transaction is mined and reports a revert as an error
	Wait(ctx context.Context) error
}

// Bridge is the settlement contract surface used by a pending swap
type Bridge interface {
	Withdraw(ctx context.Context, itemID, amount *big.Int) (Tx, error)
	CompleteToToken(ctx context.Context, itemID, amount, minOutput *big.Int, deadline int64) (Tx, error)
	CompleteToSynth(ctx context.Context, itemID *big.Int) (Tx, error)
	CalcCompleteToToken(ctx context.Context, itemID, amount *big.Int) (*big.Int, error)
}
