package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/restoreops/backend/internal/domain/ledger"
	"github.com/spf13/cobra"
)

var trialBalanceFlags struct {
	from string
	to   string
}

var trialBalanceCmd = &cobra.Command{
	Use:   "trial-balance",
	Short: "Check that debits equal credits",
	Long: `Sum every ledger record in the range and check total debits against
total credits, overall and per transaction. Exits non-zero when the ledger
does not balance.

Example:
  ledgerctl trial-balance
  ledgerctl trial-balance --from 2026-07-01 --to 2026-07-31`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rng, err := parseRange(trialBalanceFlags.from, trialBalanceFlags.to)
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			tb, err := a.ledger.TrialBalance(ctx, rng)
			if err != nil {
				return err
			}
			if asJSON {
				if err := writeJSON(cmd.OutOrStdout(), tb); err != nil {
					return err
				}
			} else {
				printTrialBalance(cmd.OutOrStdout(), tb)
			}
			if !tb.Status.IsBalanced() {
				return fmt.Errorf("ledger is unbalanced by %s", money(tb.Difference))
			}
			return nil
		})
	},
}

func init() {
	f := trialBalanceCmd.Flags()
	f.StringVar(&trialBalanceFlags.from, "from", "", "only transactions on or after this date")
	f.StringVar(&trialBalanceFlags.to, "to", "", "only transactions on or before this date")
}

func printTrialBalance(w io.Writer, tb *ledger.TrialBalance) {
	status := okStyle.Render(string(tb.Status))
	if !tb.Status.IsBalanced() {
		status = badStyle.Render(string(tb.Status))
	}
	t := newTable("Debits", "Credits", "Difference", "Transactions", "Status").
		Row(money(tb.DebitTotal), money(tb.CreditTotal), money(tb.Difference), strconv.Itoa(tb.TransactionCount), status)
	fmt.Fprintln(w, t.Render())
	for _, id := range tb.UnbalancedTransactions {
		fmt.Fprintf(w, "  unbalanced transaction %s\n", id)
	}
}
