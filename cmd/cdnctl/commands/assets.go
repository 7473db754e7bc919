package commands

import (
	"fmt"

	"github.com/developer-overheid-nl/don-content-delivery/pkg/app"
	"github.com/spf13/cobra"
)

func newDeleteAssetCmd(appFn func() *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-asset <id>",
		Short: "Delete an asset with its versions, tokens and stored objects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := appFn().Assets.DeleteAsset(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("delete asset %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "asset %s deleted\n", args[0])
			return nil
		},
	}
}

// The schema is migrated while the app connects, so there is nothing left
// to do here but report it.
func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}
