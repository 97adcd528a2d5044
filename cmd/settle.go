package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/madflojo/tasks"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"virtual-swap/config"
	"virtual-swap/pkg/amount"
	"virtual-swap/pkg/bridge"
	"virtual-swap/pkg/notify"
	"virtual-swap/pkg/parser"
	"virtual-swap/pkg/pending"
	"virtual-swap/pkg/settlement"
	"virtual-swap/pkg/types"
)

var (
	settleWithdraw       bool
	settleSlippage       string
	settleSlippageCustom string
	settleDeadline       string
	settleDeadlineCustom int
	settleGas            string
	settleGasCustom      string
	ackHighImpact        bool
	noConfirm            bool
	dryRun               bool
)

var settleCmd = &cobra.Command{
	Use:   "settle <item-id> [amount|all] [synth]",
	Short: "Settle a pending swap once its waiting period has elapsed",
	Long: `Settle a pending swap into its destination token, complete it into the
synth, or withdraw part of the synth balance.

If the waiting period has not elapsed yet the command waits for it. Settling
into a token quotes the output first and shows the exchange rate, the price
impact and the minimum amount received before asking for confirmation.

Examples:
  # Settle the whole balance
  virtual-swap settle 42 all

  # Settle part of the balance into the destination token
  virtual-swap settle 42 0.75 sBTC --slippage ONE_TENTH

  # Withdraw synth instead of settling
  virtual-swap settle 42 0.25 --withdraw

  # Custom deadline and gas price, no prompts
  virtual-swap settle 42 all --deadline CUSTOM --deadline-custom 45 --gas CUSTOM --gas-custom 12 --yes

  # Walk through the settlement against an in-memory bridge
  virtual-swap settle 42 all --dry-run`,
	Args: cobra.MinimumNArgs(1),
	Run:  runSettle,
}

func init() {
	rootCmd.AddCommand(settleCmd)

	settleCmd.Flags().BoolVar(&settleWithdraw, "withdraw", false, "Withdraw synth instead of settling")
	settleCmd.Flags().StringVar(&settleSlippage, "slippage", "", "Slippage tolerance preset (ONE_TENTH, ONE, CUSTOM)")
	settleCmd.Flags().StringVar(&settleSlippageCustom, "slippage-custom", "", "Custom slippage tolerance in percent")
	settleCmd.Flags().StringVar(&settleDeadline, "deadline", "", "Transaction deadline preset (TEN, TWENTY, THIRTY, FORTY, CUSTOM)")
	settleCmd.Flags().IntVar(&settleDeadlineCustom, "deadline-custom", 0, "Custom transaction deadline in minutes")
	settleCmd.Flags().StringVar(&settleGas, "gas", "", "Gas price preset (STANDARD, FAST, INSTANT, CUSTOM)")
	settleCmd.Flags().StringVar(&settleGasCustom, "gas-custom", "", "Custom gas price in gwei")
	settleCmd.Flags().BoolVar(&ackHighImpact, "ack-high-impact", false, "Accept a high price impact without prompting")
	settleCmd.Flags().BoolVarP(&noConfirm, "yes", "y", false, "Skip confirmation prompt")
	settleCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Use an in-memory bridge instead of sending transactions")
}

func runSettle(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	itemID := args[0]

	// Parse the settlement request
	action := "settle"
	if settleWithdraw {
		action = "withdraw"
	}
	req, err := parser.ParseSettleCommand(strings.Join(append([]string{action}, args[1:]...), " "))
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	prefs, err := settlePreferences(cfg.Preferences)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	mgr, err := newPendingManager(cfg)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	swap, err := mgr.PendingSwap(itemID)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if err := parser.ValidateSettleRequest(req, swap.SynthFrom.Symbol); err != nil {
		printError(err)
		os.Exit(1)
	}

	amt := swap.SynthBalance
	if req.Amount != "" {
		amt, err = amount.Parse(req.Amount, swap.SynthFrom.Decimals)
		if err != nil {
			printError(err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, closeBridge, err := newBridge(cfg, prefs, swap)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer closeBridge()

	opts, err := sessionOptions(ctx, cfg, swap)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	secs := swap.SecondsRemaining(time.Now())
	sess := settlement.NewSession(ctx, swap, secs, opts, b, notify.NewConsoleSink(cfg.ExplorerURL, logger), logger)
	defer sess.Close()

	// Drive the countdown from a process-wide clock
	countdown := settlement.NewCountdown(logger)
	countdown.Add(sess)
	scheduler := tasks.New()
	defer scheduler.Stop()
	if err := countdown.Schedule(scheduler, time.Second); err != nil {
		printError(fmt.Errorf("failed to start countdown: %w", err))
		os.Exit(1)
	}

	if secs > 0 {
		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		s.Suffix = fmt.Sprintf(" Waiting for the settlement window (~%d min)...", types.MinutesRemaining(secs))
		if !jsonOutput {
			s.Start()
		}
		err := sess.WaitReady(ctx)
		s.Stop()
		if err != nil {
			printError(fmt.Errorf("stopped waiting for the settlement window: %w", err))
			os.Exit(1)
		}
	}

	act := settlement.ActionSettle
	if req.Action == "withdraw" {
		act = settlement.ActionWithdraw
	}
	if err := sess.Review(act, amt); err != nil {
		printError(err)
		os.Exit(1)
	}

	// Quote with spinner
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching quote..."
		s.Start()
	}
	_, err = sess.AwaitReviewQuote(ctx)
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	params := settlement.ConfirmParams{Slippage: prefs.Slippage, Deadline: prefs.Deadline}
	display := sess.Summary(params)
	if jsonOutput {
		jsonData, _ := json.MarshalIndent(display, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		displayReview(display, req.Action, prefs)
	}

	if sess.Snapshot().NeedsAck {
		color.Red("\nWarning: this settlement has a high price impact (%s).", display.PriceImpact)
		if !ackHighImpact && (noConfirm || !confirmPrompt("Accept the price impact?")) {
			_ = sess.Cancel()
			fmt.Println("\nSettlement cancelled. Use --ack-high-impact to accept the price impact.")
			os.Exit(0)
		}
		if err := sess.Acknowledge(); err != nil {
			printError(err)
			os.Exit(1)
		}
	}

	// Ask for confirmation
	if !noConfirm && !jsonOutput {
		if !confirmPrompt("Proceed with settlement?") {
			_ = sess.Cancel()
			fmt.Println("\nSettlement cancelled.")
			os.Exit(0)
		}
	}

	attemptID, err := mgr.BeginAttempt(itemID, req.Action, sess.Snapshot().Settlement.Amount)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	params.Now = time.Now()
	dispatched, err := sess.Confirm(params)
	if err == nil && !dispatched {
		err = fmt.Errorf("settlement was not confirmed")
	}
	if err != nil {
		if cerr := mgr.CompleteAttempt(itemID, attemptID, err); cerr != nil {
			logger.Error("failed to record settlement attempt", zap.Error(cerr))
		}
		printError(err)
		os.Exit(1)
	}

	if !jsonOutput {
		s = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		s.Suffix = " Waiting for the settlement transaction..."
		s.Start()
	}
	select {
	case <-sess.Done():
	case <-ctx.Done():
	}
	if !jsonOutput {
		s.Stop()
	}

	view := sess.Snapshot()
	if view.TxHash != "" {
		if err := mgr.RecordSubmitted(itemID, attemptID, view.TxHash); err != nil {
			logger.Error("failed to record transaction hash", zap.Error(err))
		}
	}

	settleErr := sess.Err()
	if !view.State.Terminal() {
		settleErr = fmt.Errorf("interrupted before the settlement finished: %w", ctx.Err())
	}
	if err := mgr.CompleteAttempt(itemID, attemptID, settleErr); err != nil {
		logger.Error("failed to record settlement attempt", zap.Error(err))
	}

	if settleErr != nil {
		printError(settleErr)
		os.Exit(1)
	}
	printSuccess(color.GreenString("Pending swap %s settled.", itemID))
}

// settlePreferences applies flag overrides on top of the configured preferences
func settlePreferences(p config.Preferences) (config.Resolved, error) {
	if settleSlippage != "" {
		p.Slippage = settleSlippage
	}
	if settleSlippageCustom != "" {
		p.SlippageCustom = settleSlippageCustom
	}
	if settleDeadline != "" {
		p.Deadline = settleDeadline
	}
	if settleDeadlineCustom != 0 {
		p.DeadlineCustom = settleDeadlineCustom
	}
	if settleGas != "" {
		p.Gas = settleGas
	}
	if settleGasCustom != "" {
		p.GasCustom = settleGasCustom
	}

	if err := p.Normalize(); err != nil {
		return config.Resolved{}, err
	}
	return p.Resolve()
}

// newBridge connects to the settlement contract, or an in-memory bridge
// quoting at the synth's decimals when dry running
func newBridge(cfg *config.Config, prefs config.Resolved, swap types.PendingSwap) (bridge.Bridge, func(), error) {
	if dryRun {
		color.Yellow("\nDry run: no transactions will be sent.")
		mock := bridge.NewMock(logger)
		mock.QuoteFunc = func(ctx context.Context, itemID, amt *big.Int) (*big.Int, error) {
			return amount.Rescale(amt, swap.SynthFrom.Decimals, swap.TokenTo.Decimals), nil
		}
		return mock, func() {}, nil
	}

	if err := cfg.ValidateChain(); err != nil {
		return nil, nil, err
	}

	evmCfg := bridge.EVMConfig{
		RPCURL:     cfg.RPCURL,
		PrivateKey: cfg.PrivateKey,
		ChainID:    cfg.ChainID,
		Address:    cfg.BridgeAddress,
		Gas:        prefs.Gas,
	}
	if cfg.GasLimit > 0 {
		limit := cfg.GasLimit
		evmCfg.GasLimit = &limit
	}

	b, err := bridge.NewEVMBridge(evmCfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return b, b.Close, nil
}

// sessionOptions seeds the session with prices and the impact policy
func sessionOptions(ctx context.Context, cfg *config.Config, swap types.PendingSwap) (settlement.Options, error) {
	threshold, err := cfg.ImpactThreshold()
	if err != nil {
		return settlement.Options{}, err
	}

	table := loadPrices(ctx, cfg)
	return settlement.Options{
		HighImpactThreshold:   threshold,
		RequireAckForWithdraw: cfg.RequireAckForWithdraw,
		PriceFrom:             table.Lookup(swap.SynthFrom.Symbol),
		PriceTo:               table.Lookup(swap.TokenTo.Symbol),
	}, nil
}

func newPendingManager(cfg *config.Config) (*pending.Manager, error) {
	table, err := cfg.AssetTable()
	if err != nil {
		return nil, err
	}
	return pending.NewManager(cfg.StoragePath, table)
}

func displayReview(d types.ReviewDisplay, action string, prefs config.Resolved) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                  %s", strings.ToUpper(action)+" REVIEW")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  From:              %s %s\n", d.FromAmount, color.YellowString(d.FromSymbol))
	if d.ToAmount != "" {
		fmt.Printf("  To:                ~%s %s\n", d.ToAmount, color.YellowString(d.ToSymbol))
	}
	if d.Rate != "" {
		fmt.Printf("  Rate:              1 %s = %s %s\n", d.FromSymbol, d.Rate, d.ToSymbol)
	}
	if d.PriceImpact != "" {
		impact := d.PriceImpact
		if d.HighImpact {
			impact = color.RedString(impact)
		}
		fmt.Printf("  Price Impact:      %s\n", impact)
	}
	if d.MinOutput != "" {
		fmt.Printf("  Minimum Received:  %s %s\n", d.MinOutput, d.ToSymbol)
		fmt.Printf("  Slippage:          %s\n", prefs.Slippage)
		fmt.Printf("  Deadline:          %d minutes\n", d.DeadlineMinutes)
	}

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}

func confirmPrompt(question string) bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("\n%s (y/N): ", question)

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
