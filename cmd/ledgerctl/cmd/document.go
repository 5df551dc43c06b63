package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var documentCmd = &cobra.Command{
	Use:   "document <entity>",
	Short: "Render and store the PDF of an invoice, credit note or purchase order",
	Long: `Render the printable document of a financial entity, store it in the
configured document store and print the new document id. A previously
generated document is replaced.

Example:
  ledgerctl document 0190f3c2-5b7e-7cc1-9d0e-3f1a2b4c5d6e`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entityID, err := parseID("entity", args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			entity, err := a.db.Repositories().EntityRepo().FindByID(ctx, entityID)
			if err != nil {
				return err
			}
			if entity == nil {
				return fmt.Errorf("financial entity %s not found", entityID)
			}
			service, ok := a.lifecycles[entity.Kind]
			if !ok {
				return fmt.Errorf("no lifecycle service for %s", entity.Kind)
			}
			documentID, err := service.GenerateDocument(ctx, entityID)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), map[string]string{
					"entity_id":   entityID.String(),
					"kind":        string(entity.Kind),
					"document_id": documentID.String(),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored %s document %s\n", entity.Kind, documentID)
			return nil
		})
	},
}
