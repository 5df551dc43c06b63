package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var unsettledFlags struct {
	olderThan time.Duration
}

var unsettledCmd = &cobra.Command{
	Use:   "unsettled",
	Short: "List authorized credit card charges that were never captured",
	Long: `List credit card charges authorized more than --older-than ago that
have no capture. Nothing reverses them automatically; capture them or
follow up with the card processor.

Example:
  ledgerctl unsettled --older-than 72h`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			age := unsettledFlags.olderThan
			if age <= 0 {
				age = a.cfg.Finance.UnsettledAge
			}
			charges, err := a.cards.ListUnsettled(ctx, age)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, charges)
			}
			if len(charges) == 0 {
				fmt.Fprintf(out, "No charges older than %s are awaiting capture\n", age)
				return nil
			}
			t := newTable("Payment", "Token", "Authorized", "Receipt email")
			for _, c := range charges {
				t.Row(c.PaymentID.String(), c.Token, c.AuthorizedAt.Format(time.RFC3339), c.ReceiptEmail)
			}
			fmt.Fprintln(out, t.Render())
			return nil
		})
	},
}

var captureCmd = &cobra.Command{
	Use:   "capture <payment>",
	Short: "Capture an authorized credit card payment",
	Long: `Ask the card gateway to capture the charge of a credit card payment and
record the settlement.

Example:
  ledgerctl capture 0190f3c2-5b7e-7cc1-9d0e-3f1a2b4c5d6e`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		paymentID, err := parseID("payment", args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			charge, err := a.cards.Capture(ctx, paymentID)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), charge)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Captured payment %s at %s (gateway transaction %s)\n",
				paymentID, charge.CapturedAt.Format(time.RFC3339), charge.ExternalTransactionID)
			return nil
		})
	},
}

func init() {
	unsettledCmd.Flags().DurationVar(&unsettledFlags.olderThan, "older-than", 0, "minimum charge age (default finance.unsettled_age)")
}
