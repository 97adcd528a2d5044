package types

import (
	"fmt"
	"sort"
	"strings"
)

// Asset is an immutable token description
type Asset struct {
	Symbol   string `mapstructure:"symbol" json:"symbol"`
	Name     string `mapstructure:"name" json:"name"`
	Decimals int    `mapstructure:"decimals" json:"decimals"`
	Icon     string `mapstructure:"icon" json:"icon,omitempty"`
}

// Validate checks symbol and decimals
func (a Asset) Validate() error {
	if a.Symbol == "" {
		return fmt.Errorf("asset symbol is required")
	}
	if a.Decimals < 6 || a.Decimals > 18 {
		return fmt.Errorf("asset %s: decimals must be between 6 and 18, got %d", a.Symbol, a.Decimals)
	}
	return nil
}

// DefaultAssets is the built-in token table
var DefaultAssets = []Asset{
	{Symbol: "sBTC", Name: "Synth sBTC", Decimals: 18, Icon: "sbtc.svg"},
	{Symbol: "sETH", Name: "Synth sETH", Decimals: 18, Icon: "seth.svg"},
	{Symbol: "sUSD", Name: "Synth sUSD", Decimals: 18, Icon: "susd.svg"},
	{Symbol: "WBTC", Name: "Wrapped Bitcoin", Decimals: 8, Icon: "wbtc.svg"},
	{Symbol: "renBTC", Name: "renBTC", Decimals: 8, Icon: "renbtc.svg"},
	{Symbol: "WETH", Name: "Wrapped Ether", Decimals: 18, Icon: "weth.svg"},
	{Symbol: "DAI", Name: "Dai", Decimals: 18, Icon: "dai.svg"},
	{Symbol: "USDC", Name: "USDC Coin", Decimals: 6, Icon: "usdc.svg"},
	{Symbol: "USDT", Name: "Tether", Decimals: 6, Icon: "usdt.svg"},
}

// AssetTable looks assets up by symbol, case-insensitively
type AssetTable struct {
	bySymbol map[string]Asset
}

// NewAssetTable builds a table from the defaults with overrides applied on top
func NewAssetTable(overrides []Asset) (*AssetTable, error) {
	t := &AssetTable{bySymbol: make(map[string]Asset)}
	for _, a := range DefaultAssets {
		t.bySymbol[strings.ToLower(a.Symbol)] = a
	}
	for _, a := range overrides {
		if err := a.Validate(); err != nil {
			return nil, err
		}
		t.bySymbol[strings.ToLower(a.Symbol)] = a
	}
	return t, nil
}

// Lookup finds an asset by symbol
func (t *AssetTable) Lookup(symbol string) (Asset, bool) {
	a, ok := t.bySymbol[strings.ToLower(strings.TrimSpace(symbol))]
	return a, ok
}

// All returns every asset sorted by symbol
func (t *AssetTable) All() []Asset {
	out := make([]Asset, 0, len(t.bySymbol))
	for _, a := range t.bySymbol {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}
