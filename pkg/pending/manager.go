package pending

import (
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"virtual-swap/pkg/amount"
	"virtual-swap/pkg/types"
)

// Manager provides high-level operations over stored pending swaps
type Manager struct {
	storage *Storage
	assets  *types.AssetTable
	now     func() time.Time
}

// NewManager opens the store at storagePath
func NewManager(storagePath string, assets *types.AssetTable) (*Manager, error) {
	storage, err := NewStorage(storagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage: %w", err)
	}

	return &Manager{
		storage: storage,
		assets:  assets,
		now:     time.Now,
	}, nil
}

// Add records a pending swap. balance is a human readable amount of the synth.
func (m *Manager) Add(itemID string, swapType types.SwapType, synthSymbol, tokenSymbol, balance string, readyIn time.Duration) (*Record, error) {
	synth, ok := m.assets.Lookup(synthSymbol)
	if !ok {
		return nil, fmt.Errorf("unknown asset %s", synthSymbol)
	}
	token, ok := m.assets.Lookup(tokenSymbol)
	if !ok {
		return nil, fmt.Errorf("unknown asset %s", tokenSymbol)
	}

	raw, err := amount.Parse(balance, synth.Decimals)
	if err != nil {
		return nil, fmt.Errorf("invalid synth balance: %w", err)
	}
	if readyIn < 0 {
		readyIn = 0
	}

	now := m.now()
	r := &Record{
		ItemID:       itemID,
		SwapType:     swapType,
		SynthFrom:    synth.Symbol,
		TokenTo:      token.Symbol,
		SynthBalance: raw.String(),
		ReadyAt:      now.Add(readyIn),
		Added:        now,
		LastUpdated:  now,
		Status:       StatusPending,
		Attempts:     []Attempt{},
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}

	if err := m.storage.Create(r); err != nil {
		return nil, err
	}
	return r, nil
}

// Get returns one record
func (m *Manager) Get(itemID string) (*Record, error) {
	return m.storage.Get(itemID)
}

// PendingSwap loads a record as a settleable pending swap
func (m *Manager) PendingSwap(itemID string) (types.PendingSwap, error) {
	r, err := m.storage.Get(itemID)
	if err != nil {
		return types.PendingSwap{}, err
	}
	if !r.Visible() {
		return types.PendingSwap{}, fmt.Errorf("pending swap '%s' is already settled", itemID)
	}
	return r.PendingSwap(m.assets)
}

// Visible lists swaps that have not been settled
func (m *Manager) Visible() []*Record {
	var out []*Record
	for _, r := range m.storage.List() {
		if r.Visible() {
			out = append(out, r)
		}
	}
	return out
}

// All lists every record including settled ones
func (m *Manager) All() []*Record {
	return m.storage.List()
}

// Remove deletes a record entirely
func (m *Manager) Remove(itemID string) error {
	return m.storage.Delete(itemID)
}

// Refresh replaces the countdown with an externally fetched value
func (m *Manager) Refresh(itemID string, secondsRemaining int64) (*Record, error) {
	return m.storage.Update(itemID, func(r *Record) error {
		r.ReadyAt = m.now().Add(time.Duration(secondsRemaining) * time.Second)
		r.LastUpdated = m.now()
		return nil
	})
}

// BeginAttempt records a confirmed settlement call and returns its id
func (m *Manager) BeginAttempt(itemID, action string, amt *big.Int) (string, error) {
	id := uuid.New().String()
	_, err := m.storage.Update(itemID, func(r *Record) error {
		if r.Status == StatusSettled {
			return fmt.Errorf("pending swap '%s' is already settled", itemID)
		}
		r.Status = StatusSettling
		r.LastUpdated = m.now()
		r.Attempts = append(r.Attempts, Attempt{
			ID:      id,
			Action:  action,
			Amount:  amt.String(),
			Status:  AttemptStarted,
			Started: m.now(),
		})
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// RecordSubmitted stores the transaction hash of an attempt
func (m *Manager) RecordSubmitted(itemID, attemptID, txHash string) error {
	_, err := m.storage.Update(itemID, func(r *Record) error {
		a, err := findAttempt(r, attemptID)
		if err != nil {
			return err
		}
		a.TxHash = txHash
		a.Status = AttemptSubmitted
		r.LastUpdated = m.now()
		return nil
	})
	return err
}

// CompleteAttempt finishes an attempt. Success hides the swap from the
// visible set unless part of the synth balance remains.
func (m *Manager) CompleteAttempt(itemID, attemptID string, settleErr error) error {
	_, err := m.storage.Update(itemID, func(r *Record) error {
		a, err := findAttempt(r, attemptID)
		if err != nil {
			return err
		}

		now := m.now()
		a.Completed = &now
		r.LastUpdated = now

		if settleErr != nil {
			a.Status = AttemptFailed
			a.ErrorMessage = settleErr.Error()
			r.Status = StatusFailed
			return nil
		}

		a.Status = AttemptConfirmed
		r.Status = StatusSettled

		// completeToSynth moves the whole balance; anything else may leave
		// part of the synth pending
		if !(a.Action == "settle" && r.SwapType == types.SwapTokenToSynth) {
			balance, ok := new(big.Int).SetString(r.SynthBalance, 10)
			withdrawn, ok2 := new(big.Int).SetString(a.Amount, 10)
			if ok && ok2 {
				balance.Sub(balance, withdrawn)
				if balance.Sign() > 0 {
					r.SynthBalance = balance.String()
					r.Status = StatusPending
				}
			}
		}
		return nil
	})
	return err
}

// GetFilePath returns the storage file path
func (m *Manager) GetFilePath() string {
	return m.storage.GetFilePath()
}

func findAttempt(r *Record, attemptID string) (*Attempt, error) {
	for i := range r.Attempts {
		if r.Attempts[i].ID == attemptID {
			return &r.Attempts[i], nil
		}
	}
	return nil, fmt.Errorf("attempt %s not found for pending swap '%s'", attemptID, r.ItemID)
}
