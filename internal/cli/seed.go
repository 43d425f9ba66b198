package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// DefaultSeedOwner and DefaultSeedRepos describe the repositories created
// by seed when none are named.
const DefaultSeedOwner = "zopefoundation"

var DefaultSeedRepos = []string{
	"zope.component",
	"zope.configuration",
	"zope.copy",
	"zope.deprecation",
	"zope.event",
	"zope.exceptions",
	"zope.hookable",
	"zope.i18nmessageid",
	"zope.interface",
	"zope.location",
	"zope.proxy",
	"zope.schema",
	"zope.security",
	"zope.testing",
	"zope.testrunner",
	"zopetoolkit",
}

// NewSeedCommand registers repositories ahead of their first notification.
func NewSeedCommand(opts *RootOptions) *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "seed [repo...]",
		Short: "Create empty repositories under an owner",
		RunE: func(cmd *cobra.Command, args []string) error {
			repos := args
			if len(repos) == 0 {
				repos = DefaultSeedRepos
			}

			store, err := opts.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			for _, repo := range repos {
				if err := store.EnsureRepo(cmd.Context(), owner, repo); err != nil {
					return fmt.Errorf("seed %s/%s: %w", owner, repo, err)
				}
			}

			if opts.JSON {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"owner": owner, "repos": repos})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d repositories under %s\n", len(repos), owner)
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", DefaultSeedOwner, "owner to create repositories under")
	return cmd
}
