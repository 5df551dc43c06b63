package cmd

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var balanceFlags struct {
	from         string
	to           string
	history      bool
	organization string
}

var balanceCmd = &cobra.Command{
	Use:   "balance <account>",
	Short: "Show a GL account balance",
	Long: `Replay a GL account's ledger records and print its balance.

The account is a GL account id, or an account code together with
--organization.

Example:
  ledgerctl balance 0190f3c2-5b7e-7cc1-9d0e-3f1a2b4c5d6e
  ledgerctl balance 1100 --organization <org-id> --from 2026-07-01 --history`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rng, err := parseRange(balanceFlags.from, balanceFlags.to)
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			accountID, err := a.resolveAccount(ctx, args[0], balanceFlags.organization)
			if err != nil {
				return err
			}
			result, err := a.ledger.GetAccountBalanceHistory(ctx, accountID, rng)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if !balanceFlags.history {
					result.History = nil
				}
				return writeJSON(out, result)
			}
			if balanceFlags.history {
				t := newTable("At", "Transaction", "Delta", "Balance")
				for _, p := range result.History {
					t.Row(p.At.Format("2006-01-02 15:04:05"), p.TransactionID.String(), money(p.Delta), money(p.Balance))
				}
				fmt.Fprintln(out, t.Render())
			}
			fmt.Fprintf(out, "Balance of %s: %s\n", accountID, money(result.Balance))
			return nil
		})
	},
}

func init() {
	f := balanceCmd.Flags()
	f.StringVar(&balanceFlags.from, "from", "", "only records on or after this date")
	f.StringVar(&balanceFlags.to, "to", "", "only records on or before this date")
	f.BoolVar(&balanceFlags.history, "history", false, "print every balance change")
	f.StringVar(&balanceFlags.organization, "organization", "", "accounting organization id when <account> is a code")
}

// resolveAccount accepts an account id, or a code within organization
func (a *app) resolveAccount(ctx context.Context, ref, organization string) (uuid.UUID, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return id, nil
	}
	if organization == "" {
		return uuid.Nil, fmt.Errorf("%q is not an account id; pass --organization to look it up by code", ref)
	}
	orgID, err := parseID("organization", organization)
	if err != nil {
		return uuid.Nil, err
	}
	account, err := a.db.Repositories().GLAccountRepo().FindByCode(ctx, orgID, ref)
	if err != nil {
		return uuid.Nil, err
	}
	if account == nil {
		return uuid.Nil, fmt.Errorf("no account with code %q in organization %s", ref, orgID)
	}
	return account.ID, nil
}
