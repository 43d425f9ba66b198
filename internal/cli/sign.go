package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/onexay/travis-notify/internal/auth"
)

// NewSignCommand prints the Authorization digest Travis would send for a slug.
func NewSignCommand(opts *RootOptions) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "sign <owner/repo>",
		Short: "Compute the Travis Authorization header for a slug",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				key := opts.config.Auth.TokenKeyOrDefault()
				value, ok := opts.config.Settings.String(key)
				if !ok {
					return fmt.Errorf("no token given and setting %q is not configured", key)
				}
				token = value
			}

			digest := auth.Sign(args[0], token)
			if opts.JSON {
				return writeJSON(cmd.OutOrStdout(), map[string]string{
					auth.HeaderRepoSlug:      args[0],
					auth.HeaderAuthorization: digest,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), digest)
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "shared token (defaults to the configured one)")
	return cmd
}
