package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	oneclick "github.com/defuse-protocol/one-click-sdk-go"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"virtual-swap/config"
	"virtual-swap/pkg/client"
	"virtual-swap/pkg/prices"
)

var (
	filterSymbol string
	listRemote   bool
)

var tokensCmd = &cobra.Command{
	Use:     "list-tokens",
	Aliases: []string{"tokens", "ls"},
	Short:   "List the assets pending swaps can settle into",
	Long: `List the synths and tokens known to virtual-swap with their USD prices.

Prices come from the 1Click token list when oneclick.enabled is set, falling
back to the static prices in the config file.

Examples:
  virtual-swap list-tokens
  virtual-swap list-tokens --symbol BTC
  virtual-swap list-tokens --remote`,
	Run: runListTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)

	tokensCmd.Flags().StringVar(&filterSymbol, "symbol", "", "Filter by token symbol")
	tokensCmd.Flags().BoolVar(&listRemote, "remote", false, "List every token supported by the 1Click API")
}

type tokenRow struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals int    `json:"decimals"`
	PriceUSD string `json:"price_usd,omitempty"`
}

func runListTokens(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if listRemote {
		listRemoteTokens(cfg, jsonOutput)
		return
	}

	table, err := cfg.AssetTable()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	// Get prices with spinner
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching prices..."
		s.Start()
	}
	priceTable := loadPrices(context.Background(), cfg)
	if !jsonOutput {
		s.Stop()
	}

	var rows []tokenRow
	for _, asset := range table.All() {
		if filterSymbol != "" && !strings.Contains(strings.ToUpper(asset.Symbol), strings.ToUpper(filterSymbol)) {
			continue
		}
		row := tokenRow{Symbol: asset.Symbol, Name: asset.Name, Decimals: asset.Decimals}
		if p := priceTable.Lookup(asset.Symbol); p.Valid {
			row.PriceUSD = p.Value.StringFixed(2)
		}
		rows = append(rows, row)
	}

	// Output
	if jsonOutput {
		jsonData, _ := json.MarshalIndent(rows, "", "  ")
		fmt.Println(string(jsonData))
		return
	}
	displayAssets(rows)
}

// loadPrices merges the live and static price feeds. Missing prices only
// hide the price impact, so failures are logged rather than returned.
func loadPrices(ctx context.Context, cfg *config.Config) prices.Table {
	var feeds []prices.Feed
	if cfg.OneClick.Enabled {
		feeds = append(feeds, prices.NewOneClickFeed(client.NewOneClickClient(cfg.OneClick.JWTToken), cfg.OneClick.Chain))
	}

	static, err := prices.NewStaticFeed(cfg.Prices)
	if err != nil {
		logger.Warn("ignoring configured prices", zap.Error(err))
	} else {
		feeds = append(feeds, static)
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	table, err := prices.NewMergedFeed(logger, feeds...).Prices(ctx)
	if err != nil {
		logger.Warn("no prices available", zap.Error(err))
		return prices.Table{}
	}
	return table
}

func displayAssets(rows []tokenRow) {
	if len(rows) == 0 {
		fmt.Println("\nNo tokens found matching the criteria.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                          SETTLEMENT ASSETS")
	fmt.Println(strings.Repeat("=", 70))

	for _, row := range rows {
		price := color.HiBlackString("no price")
		if row.PriceUSD != "" {
			price = "$" + row.PriceUSD
		}
		fmt.Printf("  %-18s  %-24s  %2d decimals  %s\n",
			color.YellowString(row.Symbol), row.Name, row.Decimals, price)
	}

	fmt.Println("\n" + strings.Repeat("=", 70))
	fmt.Printf("\nTotal: %d tokens\n\n", len(rows))
}

func listRemoteTokens(cfg *config.Config, jsonOutput bool) {
	apiClient := client.NewOneClickClient(cfg.OneClick.JWTToken)

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching supported tokens..."
		s.Start()
	}

	tokens, err := apiClient.GetSupportedTokens(context.Background())
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if filterSymbol != "" {
		var temp []oneclick.TokenResponse
		for _, token := range tokens {
			if strings.Contains(strings.ToUpper(token.GetSymbol()), strings.ToUpper(filterSymbol)) {
				temp = append(temp, token)
			}
		}
		tokens = temp
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(tokens, "", "  ")
		fmt.Println(string(jsonData))
		return
	}
	displayRemoteTokens(tokens)
}

func displayRemoteTokens(tokens []oneclick.TokenResponse) {
	if len(tokens) == 0 {
		fmt.Println("\nNo tokens found matching the criteria.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	color.Green("                            SUPPORTED TOKENS")
	fmt.Println(strings.Repeat("=", 90))

	// Group tokens by blockchain
	tokensByChain := make(map[string][]oneclick.TokenResponse)
	for _, token := range tokens {
		chain := token.GetBlockchain()
		tokensByChain[chain] = append(tokensByChain[chain], token)
	}

	chains := make([]string, 0, len(tokensByChain))
	for chain := range tokensByChain {
		chains = append(chains, chain)
	}
	sort.Strings(chains)

	for _, chain := range chains {
		color.Cyan("\n%s", strings.ToUpper(chain))
		fmt.Println(strings.Repeat("-", 90))

		for _, token := range tokensByChain[chain] {
			fmt.Printf("  %-10s  %2.0f decimals  $%.4f\n",
				color.YellowString(token.GetSymbol()),
				token.GetDecimals(),
				token.GetPrice())
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	fmt.Printf("\nTotal: %d tokens across %d blockchains\n\n", len(tokens), len(chains))
}
