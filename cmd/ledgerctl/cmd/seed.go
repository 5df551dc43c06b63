package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/restoreops/backend/internal/infrastructure/persistence"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var seedFlags struct {
	file string
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load account types, GL accounts, organizations and approvers",
	Long: `Read a chart file and write it in one database transaction. Rows that
already exist are updated, so a chart can be re-applied after editing.

Chart file format:
  account_types:
    - {name: Asset, increase_is_debit: true}
    - {name: Revenue, increase_is_debit: false}
  organizations:
    - name: Sydney Restoration
      location: 0190f3c2-5b7e-7cc1-9d0e-3f1a2b4c5d6e
      lock_day: 5
      receivable: "1100"
      tax_payable: "2200"
      accounts:
        - {code: "1000", name: Operating, type: Asset, bank_account: Operating, accepts_payments: true}
  approvers:
    - user: 0190f3c2-6d1a-7a2b-8c3d-4e5f6a7b8c9d
      primary_location: 0190f3c2-5b7e-7cc1-9d0e-3f1a2b4c5d6e
      invoice_limit: "10000"

Example:
  ledgerctl seed --file chart.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(seedFlags.file)
		if err != nil {
			return fmt.Errorf("failed to open chart: %w", err)
		}
		chart, err := ParseChart(f)
		_ = f.Close()
		if err != nil {
			return err
		}

		return withApp(cmd, func(ctx context.Context, a *app) error {
			var summary *SeedSummary
			err := a.db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				var err error
				summary, err = chart.Apply(ctx,
					persistence.NewGormRepositories(tx),
					persistence.NewGormApproverDirectory(tx),
				)
				return err
			})
			if err != nil {
				return err
			}

			a.log.Info("chart seeded",
				zap.String("file", seedFlags.file),
				zap.Int("account_types", summary.AccountTypes),
				zap.Int("organizations", summary.Organizations),
				zap.Int("accounts", summary.Accounts),
				zap.Int("approvers", summary.Approvers),
			)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), summary)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d account type(s), %d organization(s), %d account(s), %d approver(s)\n",
				summary.AccountTypes, summary.Organizations, summary.Accounts, summary.Approvers)
			return nil
		})
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedFlags.file, "file", "", "chart file (required)")
	_ = seedCmd.MarkFlagRequired("file")
}
