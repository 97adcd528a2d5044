package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"virtual-swap/config"
	"virtual-swap/pkg/amount"
	"virtual-swap/pkg/pending"
	"virtual-swap/pkg/types"
)

var (
	// Pending add flags
	pendingType    string
	pendingSynth   string
	pendingToken   string
	pendingBalance string
	pendingReadyIn time.Duration

	// Pending list flags
	pendingShowAll bool
)

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Manage pending swaps",
	Long: `Track swaps that were routed through a synth and are waiting to be settled.

Pending swaps are stored locally and persist across restarts. Settled swaps
are hidden from the list but keep their settlement history.`,
}

var pendingAddCmd = &cobra.Command{
	Use:   "add <item-id>",
	Short: "Track a pending swap",
	Long: `Record a pending swap held by the settlement contract.

Examples:
  virtual-swap pending add 42 --type SYNTH_TO_TOKEN --synth sBTC --token WBTC --balance 1.5 --ready-in 6m
  virtual-swap pending add 43 --type TOKEN_TO_SYNTH --synth sETH --token sETH --balance 10`,
	Args: cobra.ExactArgs(1),
	Run:  runPendingAdd,
}

var pendingListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending swaps",
	Long: `Display pending swaps with the time left until they can be settled.

Examples:
  virtual-swap pending list
  virtual-swap pending list --all
  virtual-swap pending list --json`,
	Run: runPendingList,
}

var pendingViewCmd = &cobra.Command{
	Use:   "view <item-id>",
	Short: "View a pending swap and its settlement attempts",
	Args:  cobra.ExactArgs(1),
	Run:   runPendingView,
}

var pendingRefreshCmd = &cobra.Command{
	Use:   "refresh <item-id> <seconds-remaining>",
	Short: "Replace the countdown of a pending swap",
	Long: `Replace the local countdown with the seconds remaining reported by the
settlement contract.

Examples:
  virtual-swap pending refresh 42 180`,
	Args: cobra.ExactArgs(2),
	Run:  runPendingRefresh,
}

var pendingRemoveCmd = &cobra.Command{
	Use:   "remove <item-id>",
	Short: "Stop tracking a pending swap",
	Args:  cobra.ExactArgs(1),
	Run:   runPendingRemove,
}

func init() {
	rootCmd.AddCommand(pendingCmd)
	pendingCmd.AddCommand(pendingAddCmd)
	pendingCmd.AddCommand(pendingListCmd)
	pendingCmd.AddCommand(pendingViewCmd)
	pendingCmd.AddCommand(pendingRefreshCmd)
	pendingCmd.AddCommand(pendingRemoveCmd)

	pendingAddCmd.Flags().StringVar(&pendingType, "type", "", "Swap type (SYNTH_TO_SYNTH, SYNTH_TO_TOKEN, TOKEN_TO_SYNTH, TOKEN_TO_TOKEN)")
	pendingAddCmd.Flags().StringVar(&pendingSynth, "synth", "", "Synth held by the pending swap")
	pendingAddCmd.Flags().StringVar(&pendingToken, "token", "", "Destination token")
	pendingAddCmd.Flags().StringVar(&pendingBalance, "balance", "", "Synth balance")
	pendingAddCmd.Flags().DurationVar(&pendingReadyIn, "ready-in", 0, "Time until the swap can be settled")
	pendingAddCmd.MarkFlagRequired("type")
	pendingAddCmd.MarkFlagRequired("synth")
	pendingAddCmd.MarkFlagRequired("token")
	pendingAddCmd.MarkFlagRequired("balance")

	pendingListCmd.Flags().BoolVar(&pendingShowAll, "all", false, "Include settled swaps")
}

func loadPendingManager() *pending.Manager {
	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	manager, err := newPendingManager(cfg)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	return manager
}

func runPendingAdd(cmd *cobra.Command, args []string) {
	swapType, err := types.ParseSwapType(pendingType)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	manager := loadPendingManager()
	r, err := manager.Add(args[0], swapType, pendingSynth, pendingToken, pendingBalance, pendingReadyIn)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	color.Green("\n✓ Tracking pending swap %s", r.ItemID)
	fmt.Printf("  Type:     %s\n", r.SwapType)
	fmt.Printf("  Pair:     %s -> %s\n", r.SynthFrom, r.TokenTo)
	fmt.Printf("  Ready at: %s\n", r.ReadyAt.Format(time.RFC1123))
	fmt.Printf("  Storage:  %s\n\n", manager.GetFilePath())
}

func runPendingList(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	manager := loadPendingManager()

	records := manager.Visible()
	if pendingShowAll {
		records = manager.All()
	}

	if jsonOutput {
		output, _ := json.MarshalIndent(records, "", "  ")
		fmt.Println(string(output))
		return
	}

	if len(records) == 0 {
		color.Yellow("No pending swaps found.\n")
		fmt.Println("\nTrack a pending swap with:")
		color.Cyan("  virtual-swap pending add <item-id> --type <type> --synth <synth> --token <token> --balance <amount>\n")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 100))
	color.Green("                                       PENDING SWAPS")
	fmt.Println(strings.Repeat("=", 100))

	now := time.Now()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nITEM\tTYPE\tPAIR\tBALANCE\tREADY IN\tSTATUS")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for _, r := range records {
		swap, err := manager.PendingSwap(r.ItemID)
		balance, ready := r.SynthBalance, "-"
		if err == nil {
			balance = amount.Commify(amount.Format(swap.SynthBalance, swap.SynthFrom.Decimals, amount.DisplayPlaces))
			ready = readyIn(swap.SecondsRemaining(now))
		}

		fmt.Fprintf(w, "%s\t%s\t%s/%s\t%s %s\t%s\t%s\n",
			r.ItemID, r.SwapType, r.SynthFrom, r.TokenTo, balance, r.SynthFrom, ready, getPendingStatusColor(r.Status))
	}

	w.Flush()
	fmt.Println("\n" + strings.Repeat("=", 100) + "\n")
}

func runPendingView(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	manager := loadPendingManager()

	r, err := manager.Get(args[0])
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		output, _ := json.MarshalIndent(r, "", "  ")
		fmt.Println(string(output))
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 80))
	color.Green("                         PENDING SWAP %s", r.ItemID)
	fmt.Println(strings.Repeat("=", 80))

	fmt.Printf("\n  Type:       %s\n", r.SwapType)
	fmt.Printf("  Pair:       %s -> %s\n", r.SynthFrom, r.TokenTo)
	fmt.Printf("  Status:     %s\n", getPendingStatusColor(r.Status))
	fmt.Printf("  Ready at:   %s\n", r.ReadyAt.Format(time.RFC1123))
	if swap, err := manager.PendingSwap(r.ItemID); err == nil {
		fmt.Printf("  Balance:    %s %s\n", amount.Commify(amount.Format(swap.SynthBalance, swap.SynthFrom.Decimals, amount.DisplayPlaces)), r.SynthFrom)
		fmt.Printf("  Ready in:   %s\n", readyIn(swap.SecondsRemaining(time.Now())))
	}

	if len(r.Attempts) > 0 {
		fmt.Println("\n  Settlement attempts:")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  STARTED\tACTION\tSTATUS\tTX\tERROR")
		for _, a := range r.Attempts {
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\n",
				a.Started.Format("2006-01-02 15:04:05"), a.Action, a.Status, a.TxHash, a.ErrorMessage)
		}
		w.Flush()
	}

	fmt.Println("\n" + strings.Repeat("=", 80) + "\n")
}

func runPendingRefresh(cmd *cobra.Command, args []string) {
	var secs int64
	if _, err := fmt.Sscan(args[1], &secs); err != nil {
		printError(fmt.Errorf("invalid seconds remaining %q", args[1]))
		os.Exit(1)
	}

	manager := loadPendingManager()
	r, err := manager.Refresh(args[0], secs)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	printSuccess(fmt.Sprintf("Pending swap %s ready at %s", r.ItemID, r.ReadyAt.Format(time.RFC1123)))
}

func runPendingRemove(cmd *cobra.Command, args []string) {
	manager := loadPendingManager()
	if err := manager.Remove(args[0]); err != nil {
		printError(err)
		os.Exit(1)
	}
	printSuccess(fmt.Sprintf("Stopped tracking pending swap %s", args[0]))
}

func readyIn(secs int64) string {
	if secs <= 0 {
		return color.GreenString("ready")
	}
	return fmt.Sprintf("%d min", types.MinutesRemaining(secs))
}

func getPendingStatusColor(status pending.Status) string {
	switch status {
	case pending.StatusPending:
		return color.CyanString(string(status))
	case pending.StatusSettling:
		return color.YellowString(string(status))
	case pending.StatusSettled:
		return color.GreenString(string(status))
	case pending.StatusFailed:
		return color.RedString(string(status))
	default:
		return string(status)
	}
}
