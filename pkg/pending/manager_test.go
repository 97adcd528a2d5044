package pending

import (
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"virtual-swap/pkg/amount"
	"virtual-swap/pkg/types"
)

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	assets, err := types.NewAssetTable(nil)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "pending.json")
	m, err := NewManager(path, assets)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	fixed := time.Unix(1700000000, 0)
	m.now = func() time.Time { return fixed }
	return m, path
}

func TestAddAndLoadPendingSwap(t *testing.T) {
	m, path := newTestManager(t)

	if _, err := m.Add("17", types.SwapSynthToToken, "sbtc", "wbtc", "1.5", 10*time.Minute); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := m.Add("17", types.SwapSynthToToken, "sBTC", "WBTC", "1", 0); err == nil {
		t.Errorf("expected duplicate item id to be rejected")
	}

	reopened, err := NewManager(path, m.assets)
	if err != nil {
		t.Fatal(err)
	}
	swap, err := reopened.PendingSwap("17")
	if err != nil {
		t.Fatalf("PendingSwap: %v", err)
	}
	if swap.SynthFrom.Symbol != "sBTC" || swap.TokenTo.Decimals != 8 {
		t.Errorf("unexpected assets %+v / %+v", swap.SynthFrom, swap.TokenTo)
	}
	if swap.SynthBalance.String() != "1500000000000000000" {
		t.Errorf("unexpected balance %s", swap.SynthBalance)
	}
	if got := swap.SecondsRemaining(time.Unix(1700000000, 0)); got != 600 {
		t.Errorf("SecondsRemaining = %d, want 600", got)
	}
}

func TestAddRejectsBadInput(t *testing.T) {
	m, _ := newTestManager(t)

	if _, err := m.Add("1", types.SwapSynthToToken, "DOGE", "WBTC", "1", 0); err == nil {
		t.Errorf("expected unknown asset error")
	}
	if _, err := m.Add("1", types.SwapSynthToToken, "sBTC", "WBTC", "lots", 0); err == nil {
		t.Errorf("expected invalid balance error")
	}
	if _, err := m.Add("x1", types.SwapSynthToToken, "sBTC", "WBTC", "1", 0); err == nil {
		t.Errorf("expected non-integer item id to be rejected")
	}
}

func TestSettledSwapLeavesVisibleSet(t *testing.T) {
	m, _ := newTestManager(t)
	if _, err := m.Add("1", types.SwapTokenToSynth, "sETH", "sETH", "2", 0); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Add("2", types.SwapSynthToToken, "sETH", "WETH", "1", 0); err != nil {
		t.Fatal(err)
	}

	id, err := m.BeginAttempt("1", "settle", big.NewInt(2))
	if err != nil {
		t.Fatal(err)
	}
	if err := m.RecordSubmitted("1", id, "0xabc"); err != nil {
		t.Fatal(err)
	}
	if err := m.CompleteAttempt("1", id, nil); err != nil {
		t.Fatal(err)
	}

	visible := m.Visible()
	if len(visible) != 1 || visible[0].ItemID != "2" {
		t.Errorf("expected only swap 2 to remain visible, got %+v", visible)
	}
	if _, err := m.PendingSwap("1"); err == nil {
		t.Errorf("settled swaps must not be settled again")
	}

	r, _ := m.Get("1")
	if len(r.Attempts) != 1 || r.Attempts[0].TxHash != "0xabc" || r.Attempts[0].Status != AttemptConfirmed {
		t.Errorf("unexpected attempts %+v", r.Attempts)
	}
}

func TestFailedAttemptStaysVisible(t *testing.T) {
	m, _ := newTestManager(t)
	if _, err := m.Add("5", types.SwapSynthToSynth, "sUSD", "sBTC", "10", 0); err != nil {
		t.Fatal(err)
	}

	id, _ := m.BeginAttempt("5", "withdraw", big.NewInt(1))
	if err := m.CompleteAttempt("5", id, errors.New("execution reverted")); err != nil {
		t.Fatal(err)
	}

	r, _ := m.Get("5")
	if r.Status != StatusFailed || !r.Visible() || r.Attempts[0].ErrorMessage != "execution reverted" {
		t.Errorf("unexpected record %+v", r)
	}
}

func TestPartialWithdrawalKeepsRemainder(t *testing.T) {
	m, _ := newTestManager(t)
	if _, err := m.Add("9", types.SwapSynthToSynth, "sUSD", "sBTC", "10", 0); err != nil {
		t.Fatal(err)
	}

	id, err := m.BeginAttempt("9", "withdraw", amount.MustParse("4", 18))
	if err != nil {
		t.Fatal(err)
	}
	if err := m.CompleteAttempt("9", id, nil); err != nil {
		t.Fatal(err)
	}

	swap, err := m.PendingSwap("9")
	if err != nil {
		t.Fatalf("swap with a remaining balance must stay pending: %v", err)
	}
	if swap.SynthBalance.Cmp(amount.MustParse("6", 18)) != 0 {
		t.Errorf("unexpected remaining balance %s", swap.SynthBalance)
	}

	id, _ = m.BeginAttempt("9", "withdraw", amount.MustParse("6", 18))
	if err := m.CompleteAttempt("9", id, nil); err != nil {
		t.Fatal(err)
	}
	if len(m.Visible()) != 0 {
		t.Errorf("fully withdrawn swap still visible")
	}
}

func TestPartialSettleKeepsRemainder(t *testing.T) {
	m, _ := newTestManager(t)
	if _, err := m.Add("11", types.SwapSynthToToken, "sBTC", "WBTC", "2", 0); err != nil {
		t.Fatal(err)
	}

	id, err := m.BeginAttempt("11", "settle", amount.MustParse("0.5", 18))
	if err != nil {
		t.Fatal(err)
	}
	if err := m.CompleteAttempt("11", id, nil); err != nil {
		t.Fatal(err)
	}

	r, _ := m.Get("11")
	if r.Status != StatusPending || !r.Visible() {
		t.Fatalf("partially settled swap must stay pending, got %+v", r)
	}
	if r.SynthBalance != amount.MustParse("1.5", 18).String() {
		t.Errorf("unexpected remaining balance %s", r.SynthBalance)
	}
	if len(m.Visible()) != 1 {
		t.Errorf("expected the swap in the visible set")
	}
}

func TestCompleteToSynthSettlesWholeBalance(t *testing.T) {
	m, _ := newTestManager(t)
	if _, err := m.Add("12", types.SwapTokenToSynth, "sETH", "sETH", "3", 0); err != nil {
		t.Fatal(err)
	}

	id, _ := m.BeginAttempt("12", "settle", amount.MustParse("1", 18))
	if err := m.CompleteAttempt("12", id, nil); err != nil {
		t.Fatal(err)
	}

	r, _ := m.Get("12")
	if r.Status != StatusSettled || r.Visible() {
		t.Errorf("completeToSynth must settle the swap, got %+v", r)
	}
}

func TestRefreshAndRemove(t *testing.T) {
	m, path := newTestManager(t)
	if _, err := m.Add("9", types.SwapSynthToToken, "sBTC", "WBTC", "1", 0); err != nil {
		t.Fatal(err)
	}

	r, err := m.Refresh("9", 90)
	if err != nil {
		t.Fatal(err)
	}
	if !r.ReadyAt.Equal(time.Unix(1700000090, 0)) {
		t.Errorf("unexpected ReadyAt %s", r.ReadyAt)
	}

	if err := m.Remove("9"); err != nil {
		t.Fatal(err)
	}
	if len(m.All()) != 0 {
		t.Errorf("expected empty store")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected store file to exist: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file left behind")
	}
}

func TestStorageRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pending.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewStorage(path); err == nil {
		t.Errorf("expected corrupt store to fail to load")
	}
}
