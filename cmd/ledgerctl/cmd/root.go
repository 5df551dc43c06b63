// Package cmd provides the ledgerctl commands.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/restoreops/backend/internal/infrastructure/logger"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
	asJSON   bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ledgerctl",
	Short: "Operate the RestoreOps finance ledger",
	Long: `ledgerctl is the operator tool for the RestoreOps finance ledger.

It can:
- Seed the chart of accounts, organizations and approver profiles
- Report account balances and the trial balance
- Reverse a ledger transaction
- Forward invoice payments to another account
- Generate invoice, credit note and purchase order documents
- List and capture unsettled credit card charges

Example:
  ledgerctl seed --file chart.yaml
  ledgerctl trial-balance --from 2026-07-01 --to 2026-07-31`,
	SilenceUsage: true,
}

// Execute runs the root command with a context cancelled on SIGINT/SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "print results as JSON")

	rootCmd.AddCommand(
		seedCmd,
		balanceCmd,
		rollbackCmd,
		trialBalanceCmd,
		unforwardedCmd,
		forwardCmd,
		unsettledCmd,
		captureCmd,
		documentCmd,
	)
}

// withApp wires the services, runs fn and releases everything afterwards
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := logger.WithOperation(cmd.Context(), cmd.Name())
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
	}()
	return fn(logger.WithContext(ctx, a.log), a)
}
