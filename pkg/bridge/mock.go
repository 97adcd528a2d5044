package bridge

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

// Call records one settlement call made against a Mock
type Call struct {
	Method    string
	ItemID    *big.Int
	Amount    *big.Int
	MinOutput *big.Int
	Deadline  int64
}

// Mock is an in-memory Bridge for dry runs and tests
type Mock struct {
	mu    sync.Mutex
	calls []Call
	nonce uint64

	// QuoteFunc computes calcCompleteToToken. Nil quotes 1:1.
	QuoteFunc func(ctx context.Context, itemID, amount *big.Int) (*big.Int, error)
	// SendErr is returned instead of a transaction when set
	SendErr error
	// WaitErr is returned from Tx.Wait when set
	WaitErr error

	logger *zap.Logger
}

// NewMock creates a mock bridge
func NewMock(logger *zap.Logger) *Mock {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mock{logger: logger.With(zap.String("component", "mock-bridge"))}
}

func (m *Mock) Withdraw(ctx context.Context, itemID, amount *big.Int) (Tx, error) {
	return m.record(Call{Method: "withdraw", ItemID: itemID, Amount: amount})
}

func (m *Mock) CompleteToToken(ctx context.Context, itemID, amount, minOutput *big.Int, deadline int64) (Tx, error) {
	return m.record(Call{Method: "completeToToken", ItemID: itemID, Amount: amount, MinOutput: minOutput, Deadline: deadline})
}

func (m *Mock) CompleteToSynth(ctx context.Context, itemID *big.Int) (Tx, error) {
	return m.record(Call{Method: "completeToSynth", ItemID: itemID})
}

func (m *Mock) CalcCompleteToToken(ctx context.Context, itemID, amount *big.Int) (*big.Int, error) {
	m.mu.Lock()
	quote := m.QuoteFunc
	m.mu.Unlock()

	if quote == nil {
		return new(big.Int).Set(amount), nil
	}
	return quote(ctx, itemID, amount)
}

// Calls returns the settlement calls made so far
func (m *Mock) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

func (m *Mock) record(c Call) (Tx, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, c)
	if m.SendErr != nil {
		return nil, m.SendErr
	}

	m.nonce++
	hash := crypto.Keccak256Hash([]byte(fmt.Sprintf("%s:%s:%d", c.Method, c.ItemID, m.nonce))).Hex()
	m.logger.Info("mock settlement call", zap.String("method", c.Method), zap.String("tx_hash", hash))

	return &mockTx{hash: hash, err: m.WaitErr}, nil
}

type mockTx struct {
	hash string
	err  error
}

func (t *mockTx) Hash() string {
	return t.hash
}

func (t *mockTx) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.err
}
