package commands

import (
	"fmt"
	"time"

	"github.com/developer-overheid-nl/don-content-delivery/pkg/app"
	"github.com/spf13/cobra"
)

func newRevokeCmd(appFn func() *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <token>",
		Short: "Revoke an access token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := appFn().Tokens.RevokeToken(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("revoke token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "token revoked")
			return nil
		},
	}
}

func newSweepTokensCmd(appFn func() *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep-tokens",
		Short: "Delete expired and revoked access tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := appFn().Tokens.SweepTokens(cmd.Context())
			if err != nil {
				return fmt.Errorf("sweep tokens: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d tokens\n", n)
			return nil
		},
	}
}

func newIssueTokenCmd(appFn func() *app.App) *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "issue-token <asset-id>",
		Short: "Issue an access token for an asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFn()
			seconds := a.Tokens.DefaultTTLSeconds()
			if ttl != 0 {
				seconds = int(ttl / time.Second)
			}
			token, err := a.Tokens.IssueToken(cmd.Context(), args[0], seconds)
			if err != nil {
				return fmt.Errorf("issue token: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", token.Token, token.ExpiresAt.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default TOKEN_EXPIRY_SECONDS)")
	return cmd
}
