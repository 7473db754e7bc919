package commands

import (
	"context"

	"github.com/developer-overheid-nl/don-content-delivery/pkg/app"
	"github.com/developer-overheid-nl/don-content-delivery/pkg/config"
	"github.com/developer-overheid-nl/don-content-delivery/pkg/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// NewRootCmd builds cdnctl. Every subcommand gets a fully wired app built
// from the same environment as the server.
func NewRootCmd() *cobra.Command {
	var a *app.App

	root := &cobra.Command{
		Use:           "cdnctl",
		Short:         "Operate the content delivery service",
		Long:          "cdnctl runs maintenance tasks against the asset directory and object store used by the content delivery server.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			_ = godotenv.Load()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger, err := logging.InitLogger(cfg.Log)
			if err != nil {
				return err
			}
			a, err = app.New(cmd.Context(), cfg, logger)
			return err
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if a == nil {
				return nil
			}
			return a.Close()
		},
	}

	appFn := func() *app.App { return a }
	root.AddCommand(
		newMigrateCmd(),
		newRevokeCmd(appFn),
		newSweepTokensCmd(appFn),
		newDeleteAssetCmd(appFn),
		newIssueTokenCmd(appFn),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().ExecuteContext(context.Background())
}
