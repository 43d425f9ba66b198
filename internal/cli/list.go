package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/onexay/travis-notify/internal/types"
)

// NewOwnersCommand lists every known owner.
func NewOwnersCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "owners",
		Short: "List owners",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			owners, err := store.ListOwners(cmd.Context())
			if err != nil {
				return err
			}
			if opts.JSON {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"owners": owners})
			}
			for _, owner := range owners {
				fmt.Fprintln(cmd.OutOrStdout(), owner)
			}
			return nil
		},
	}
}

// NewReposCommand lists the repositories of one owner.
func NewReposCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "repos <owner>",
		Short: "List an owner's repositories",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			repos, err := store.ListRepos(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if opts.JSON {
				return writeJSON(cmd.OutOrStdout(), types.Owner{Name: args[0], Repos: repos})
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "Owner\tRepo\n")
			for _, repo := range repos {
				fmt.Fprintf(tw, "%s\t%s\n", args[0], repo)
			}
			return tw.Flush()
		},
	}
}
