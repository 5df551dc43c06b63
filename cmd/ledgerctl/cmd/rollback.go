package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var rollbackCmd = &cobra.Command{
	Use:   "rollback <transaction>",
	Short: "Reverse a committed ledger transaction",
	Long: `Commit a new transaction that swaps the debit and credit side of every
record of <transaction>. A transaction can be reversed once.

Example:
  ledgerctl rollback 0190f3c2-5b7e-7cc1-9d0e-3f1a2b4c5d6e`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		txID, err := parseID("transaction", args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			reversalID, err := a.ledger.Rollback(ctx, txID)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), map[string]string{
					"transaction_id": txID.String(),
					"reversal_id":    reversalID.String(),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reversed %s with %s\n", txID, reversalID)
			return nil
		})
	},
}
