package config

import (
	"os"
	"path/filepath"
	"testing"

	"virtual-swap/pkg/amount"
	"virtual-swap/pkg/deadline"
	"virtual-swap/pkg/gas"
	"virtual-swap/pkg/slippage"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFileDefaults(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, "rpc_url: http://localhost:8545\n"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.RPCURL != "http://localhost:8545" || cfg.ChainID != 1 {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.Preferences.Slippage != "ONE" || cfg.Preferences.Deadline != "TWENTY" || cfg.Preferences.Gas != "FAST" {
		t.Errorf("defaults not applied: %+v", cfg.Preferences)
	}

	threshold, err := cfg.ImpactThreshold()
	if err != nil {
		t.Fatal(err)
	}
	if threshold.Cmp(amount.MustParse("0.05", 18)) != 0 {
		t.Errorf("unexpected default threshold %s", threshold)
	}

	res, err := cfg.Preferences.Resolve()
	if err != nil {
		t.Fatal(err)
	}
	if res.Slippage.Preset != slippage.One || res.Deadline.Minutes() != 20 || res.Gas.Preset != gas.Fast {
		t.Errorf("unexpected resolved preferences %+v", res)
	}
}

func TestLoadFileCustomPreferences(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, `
high_impact_threshold: "2.5"
require_ack_for_withdraw: true
preferences:
  slippage: custom
  slippage_custom: "0.5"
  deadline: CUSTOM
  deadline_custom: 45
  gas: custom
  gas_custom: "12"
prices:
  sUSD: "1.00"
assets:
  - symbol: USDC
    name: Bridged USDC
    decimals: 6
`))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	res, err := cfg.Preferences.Resolve()
	if err != nil {
		t.Fatal(err)
	}
	if res.Slippage.String() != "0.5%" {
		t.Errorf("unexpected slippage %s", res.Slippage)
	}
	if res.Deadline.Preset != deadline.Custom || res.Deadline.Minutes() != 45 {
		t.Errorf("unexpected deadline %+v", res.Deadline)
	}
	if p := res.Gas.Price(gas.Snapshot{}); p == nil || p.Int64() != 12_000_000_000 {
		t.Errorf("unexpected gas price %v", p)
	}
	if !cfg.RequireAckForWithdraw {
		t.Errorf("expected withdraw acknowledgment to be required")
	}

	threshold, _ := cfg.ImpactThreshold()
	if threshold.Cmp(amount.MustParse("0.025", 18)) != 0 {
		t.Errorf("unexpected threshold %s", threshold)
	}

	// viper lower-cases map keys
	if cfg.Prices["susd"] != "1.00" {
		t.Errorf("unexpected prices %+v", cfg.Prices)
	}

	table, err := cfg.AssetTable()
	if err != nil {
		t.Fatal(err)
	}
	if usdc, _ := table.Lookup("USDC"); usdc.Name != "Bridged USDC" {
		t.Errorf("asset override not applied: %+v", usdc)
	}
}

func TestLoadFileRejectsInvalidPreferences(t *testing.T) {
	cases := []string{
		"preferences:\n  slippage: HALF\n",
		"preferences:\n  slippage: CUSTOM\n",
		"preferences:\n  deadline: CUSTOM\n",
		"preferences:\n  gas: CUSTOM\n",
		"high_impact_threshold: lots\n",
	}
	for _, body := range cases {
		if _, err := LoadFile(writeConfig(t, body)); err == nil {
			t.Errorf("expected %q to be rejected", body)
		}
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("VIRTUAL_SWAP_PREFERENCES_SLIPPAGE", "one_tenth")
	t.Setenv("VIRTUAL_SWAP_BRIDGE_ADDRESS", "0x0000000000000000000000000000000000000b0b")

	cfg, err := LoadFile(writeConfig(t, "preferences:\n  slippage: ONE\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Preferences.Slippage != "ONE_TENTH" {
		t.Errorf("expected env to override slippage, got %s", cfg.Preferences.Slippage)
	}
	if cfg.BridgeAddress == "" {
		t.Errorf("expected bridge address from env")
	}
	if err := cfg.ValidateChain(); err == nil {
		t.Errorf("expected missing rpc_url and private_key to fail chain validation")
	}
}
