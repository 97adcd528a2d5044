package prices

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"virtual-swap/pkg/client"
	"virtual-swap/pkg/rate"
)

// Table maps upper-cased symbols to USD prices
type Table map[string]decimal.Decimal

// Lookup returns the price of symbol, if known
func (t Table) Lookup(symbol string) rate.Price {
	p, ok := t[strings.ToUpper(symbol)]
	if !ok || !p.IsPositive() {
		return rate.Price{}
	}
	return rate.NewPrice(p)
}

// Feed supplies USD prices
type Feed interface {
	Prices(ctx context.Context) (Table, error)
}

// StaticFeed serves fixed prices, typically from the config file
type StaticFeed struct {
	table Table
}

// NewStaticFeed parses a symbol → price map such as {"sUSD": "1.00"}
func NewStaticFeed(raw map[string]string) (*StaticFeed, error) {
	table := make(Table, len(raw))
	for symbol, s := range raw {
		p, err := decimal.NewFromString(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("invalid price for %s: %w", symbol, err)
		}
		if p.IsNegative() {
			return nil, fmt.Errorf("invalid price for %s: must not be negative", symbol)
		}
		table[strings.ToUpper(symbol)] = p
	}
	return &StaticFeed{table: table}, nil
}

func (f *StaticFeed) Prices(ctx context.Context) (Table, error) {
	out := make(Table, len(f.table))
	for k, v := range f.table {
		out[k] = v
	}
	return out, nil
}

// TokenLister is the part of the 1Click client the feed uses
type TokenLister interface {
	TokenPrices(ctx context.Context) ([]client.TokenPrice, error)
}

// OneClickFeed reads live prices from the 1Click token list
type OneClickFeed struct {
	lister TokenLister
	// preferred chain when a symbol is listed on several
	chain string
}

// NewOneClickFeed prefers prices listed on chain (e.g. "eth")
func NewOneClickFeed(lister TokenLister, chain string) *OneClickFeed {
	return &OneClickFeed{lister: lister, chain: strings.ToLower(chain)}
}

func (f *OneClickFeed) Prices(ctx context.Context) (Table, error) {
	tokens, err := f.lister.TokenPrices(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch token prices: %w", err)
	}

	table := make(Table)
	preferred := make(map[string]bool)
	for _, token := range tokens {
		if token.Price <= 0 {
			continue
		}
		symbol := strings.ToUpper(token.Symbol)
		onChain := strings.ToLower(token.Blockchain) == f.chain
		if _, seen := table[symbol]; seen && (preferred[symbol] || !onChain) {
			continue
		}
		table[symbol] = decimal.NewFromFloat(token.Price)
		preferred[symbol] = onChain
	}
	return table, nil
}

// MergedFeed asks each feed in order; earlier feeds win. A failing feed is
// logged and skipped.
type MergedFeed struct {
	feeds  []Feed
	logger *zap.Logger
}

// NewMergedFeed combines feeds
func NewMergedFeed(logger *zap.Logger, feeds ...Feed) *MergedFeed {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MergedFeed{feeds: feeds, logger: logger}
}

func (f *MergedFeed) Prices(ctx context.Context) (Table, error) {
	merged := make(Table)
	var lastErr error
	ok := 0

	for _, feed := range f.feeds {
		table, err := feed.Prices(ctx)
		if err != nil {
			f.logger.Warn("price feed unavailable", zap.Error(err))
			lastErr = err
			continue
		}
		ok++
		for symbol, p := range table {
			if _, exists := merged[symbol]; !exists {
				merged[symbol] = p
			}
		}
	}

	if ok == 0 && lastErr != nil {
		return nil, lastErr
	}
	return merged, nil
}
