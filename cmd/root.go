package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger = zap.NewNop()

var rootCmd = &cobra.Command{
	Use:   "virtual-swap",
	Short: "Settle cross-asset swaps routed through synthetic assets",
	Long: `virtual-swap tracks swaps that were routed through a synthetic asset and
settles them once the oracle waiting period has elapsed. A ready swap can be
settled into its destination token, completed into the synth, or have part of
its synth balance withdrawn.

Examples:
  virtual-swap pending add 42 --type SYNTH_TO_TOKEN --synth sBTC --token WBTC --balance 1.5 --ready-in 6m
  virtual-swap pending list
  virtual-swap settle 42 all
  virtual-swap settle 42 0.5 sBTC --withdraw
  virtual-swap list-tokens`,
	Version: "0.1.0",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		l, err := newLogger(verbose)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

// newLogger logs warnings and errors to stderr, everything when verbose
func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}

func printSuccess(message string) {
	fmt.Printf("\n%s\n\n", message)
}
