package prices

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap/zaptest"

	"virtual-swap/pkg/client"
)

type fakeLister struct {
	tokens []client.TokenPrice
	err    error
}

func (f fakeLister) TokenPrices(ctx context.Context) ([]client.TokenPrice, error) {
	return f.tokens, f.err
}

func TestStaticFeed(t *testing.T) {
	feed, err := NewStaticFeed(map[string]string{"sUSD": "1.00", "sBTC": "30000.5"})
	if err != nil {
		t.Fatal(err)
	}
	table, _ := feed.Prices(context.Background())

	p := table.Lookup("susd")
	if !p.Valid || !p.Value.Equal(decimal.NewFromInt(1)) {
		t.Errorf("unexpected sUSD price %+v", p)
	}
	if table.Lookup("WBTC").Valid {
		t.Errorf("unknown symbols must have no price")
	}

	if _, err := NewStaticFeed(map[string]string{"X": "cheap"}); err == nil {
		t.Errorf("expected invalid price to be rejected")
	}
}

func TestOneClickFeedPrefersChain(t *testing.T) {
	feed := NewOneClickFeed(fakeLister{tokens: []client.TokenPrice{
		{Symbol: "USDC", Blockchain: "sol", Price: 0.999},
		{Symbol: "USDC", Blockchain: "eth", Price: 1.0},
		{Symbol: "USDC", Blockchain: "arb", Price: 1.001},
		{Symbol: "WBTC", Blockchain: "eth", Price: 0},
		{Symbol: "wETH", Blockchain: "base", Price: 3000},
	}}, "eth")

	table, err := feed.Prices(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if p := table.Lookup("USDC"); !p.Value.Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected the eth listing to win, got %s", p.Value)
	}
	if table.Lookup("WBTC").Valid {
		t.Errorf("zero prices must be skipped")
	}
	if !table.Lookup("WETH").Valid {
		t.Errorf("expected a price from another chain when eth has none")
	}
}

func TestMergedFeed(t *testing.T) {
	live := NewOneClickFeed(fakeLister{err: errors.New("503")}, "eth")
	static, _ := NewStaticFeed(map[string]string{"sUSD": "1"})

	table, err := NewMergedFeed(zaptest.NewLogger(t), live, static).Prices(context.Background())
	if err != nil {
		t.Fatalf("a failing feed must not fail the merge: %v", err)
	}
	if !table.Lookup("sUSD").Valid {
		t.Errorf("expected static price")
	}

	if _, err := NewMergedFeed(nil, live).Prices(context.Background()); err == nil {
		t.Errorf("expected an error when every feed fails")
	}

	override, _ := NewStaticFeed(map[string]string{"USDC": "0.5"})
	other := NewOneClickFeed(fakeLister{tokens: []client.TokenPrice{{Symbol: "USDC", Blockchain: "eth", Price: 1}}}, "eth")
	table, _ = NewMergedFeed(nil, override, other).Prices(context.Background())
	if !table.Lookup("USDC").Value.Equal(decimal.RequireFromString("0.5")) {
		t.Errorf("earlier feeds must win")
	}
}
