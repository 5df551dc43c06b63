package cmd

import (
	"context"
	"fmt"
	"io"

	appfinance "github.com/restoreops/backend/internal/application/finance"
	"github.com/restoreops/backend/internal/domain/finance"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var unforwardedFlags struct {
	location string
	invoices []string
}

var unforwardedCmd = &cobra.Command{
	Use:   "unforwarded",
	Short: "List invoice payments not yet forwarded",
	Long: `List the forwardable invoice payments of a location whose funds have not
been passed on, oldest first.

Example:
  ledgerctl unforwarded --location <location-id>
  ledgerctl unforwarded --location <location-id> --invoice <invoice-id> --invoice <invoice-id>`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		locationID, err := parseID("location", unforwardedFlags.location)
		if err != nil {
			return err
		}
		invoiceIDs, err := parseIDs("invoice", unforwardedFlags.invoices)
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			pending, err := a.forwarding.Unforwarded(ctx, locationID, invoiceIDs)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), pending)
			}
			printInvoicePayments(cmd.OutOrStdout(), pending)
			return nil
		})
	},
}

var forwardFlags struct {
	source      string
	destination string
	user        string
	invoices    []string
	reference   string
	at          string
}

var forwardCmd = &cobra.Command{
	Use:   "forward",
	Short: "Forward unforwarded invoice payments to another account",
	Long: `Move the funds of every unforwarded invoice payment at the user's
location from the source bank account to the destination account, and
record which invoice payments the transfer covered.

Example:
  ledgerctl forward --source <bank-account> --destination <clearing-account> \
    --user <user-id> --reference REMIT-0042`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := forwardInput()
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			result, err := a.forwarding.Forward(ctx, input)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, result)
			}
			printForwardedInvoices(out, result.ForwardedPayment.Invoices)
			fmt.Fprintf(out, "Forwarded %s in payment %s (reference %q)\n",
				money(result.Funds), result.Payment.ID, result.ForwardedPayment.RemittanceReference)
			return nil
		})
	},
}

func init() {
	f := unforwardedCmd.Flags()
	f.StringVar(&unforwardedFlags.location, "location", "", "location id (required)")
	f.StringSliceVar(&unforwardedFlags.invoices, "invoice", nil, "limit to these invoice ids")
	_ = unforwardedCmd.MarkFlagRequired("location")

	f = forwardCmd.Flags()
	f.StringVar(&forwardFlags.source, "source", "", "bank account holding the funds (required)")
	f.StringVar(&forwardFlags.destination, "destination", "", "account receiving the funds (required)")
	f.StringVar(&forwardFlags.user, "user", "", "user performing the transfer (required)")
	f.StringSliceVar(&forwardFlags.invoices, "invoice", nil, "limit to these invoice ids")
	f.StringVar(&forwardFlags.reference, "reference", "", "remittance reference")
	f.StringVar(&forwardFlags.at, "at", "", "transfer date (default now)")
	for _, name := range []string{"source", "destination", "user"} {
		_ = forwardCmd.MarkFlagRequired(name)
	}
}

func forwardInput() (appfinance.ForwardInput, error) {
	var input appfinance.ForwardInput
	var err error
	if input.SourceAccountID, err = parseID("source account", forwardFlags.source); err != nil {
		return input, err
	}
	if input.DestinationAccountID, err = parseID("destination account", forwardFlags.destination); err != nil {
		return input, err
	}
	if input.UserID, err = parseID("user", forwardFlags.user); err != nil {
		return input, err
	}
	if input.InvoiceIDs, err = parseIDs("invoice", forwardFlags.invoices); err != nil {
		return input, err
	}
	input.RemittanceReference = forwardFlags.reference
	if forwardFlags.at != "" {
		at, err := parseDate(forwardFlags.at)
		if err != nil {
			return input, err
		}
		input.TransferredAt = &at
	}
	return input, nil
}

func printInvoicePayments(w io.Writer, payments []finance.InvoicePayment) {
	if len(payments) == 0 {
		fmt.Fprintln(w, "Nothing to forward")
		return
	}
	total := decimal.Zero
	t := newTable("Payment", "Invoice", "Amount")
	for _, p := range payments {
		t.Row(p.PaymentID.String(), p.InvoiceID.String(), money(p.Amount))
		total = total.Add(p.Amount)
	}
	fmt.Fprintln(w, t.Render())
	fmt.Fprintf(w, "%d payment(s), %s in total\n", len(payments), money(total))
}

func printForwardedInvoices(w io.Writer, invoices []finance.ForwardedPaymentInvoice) {
	t := newTable("Invoice", "Forwarded")
	for _, inv := range invoices {
		t.Row(inv.InvoiceID.String(), money(inv.Amount))
	}
	fmt.Fprintln(w, t.Render())
}
