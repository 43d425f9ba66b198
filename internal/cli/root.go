// Package cli implements the travis-notify admin commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/onexay/travis-notify/internal/config"
	"github.com/onexay/travis-notify/internal/service"
	"github.com/onexay/travis-notify/internal/storage"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	JSON       bool

	// config is populated before any subcommand runs.
	config config.Config
}

// NewRootCommand creates the root command for the admin CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "travis-notify-admin",
		Short:         "Inspect and seed the travis-notify history store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			path := opts.ConfigPath
			if path == "" {
				path = envDefault("TRAVIS_NOTIFY_CONFIG", config.DefaultPath)
			}
			cfg, err := config.LoadFrom(path)
			if err != nil {
				return err
			}
			opts.config = cfg
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to the TOML configuration file")
	cmd.PersistentFlags().BoolVar(&opts.JSON, "json", false, "output JSON instead of a table")

	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewOwnersCommand(opts))
	cmd.AddCommand(NewReposCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewDiffCommand(opts))
	cmd.AddCommand(NewSignCommand(opts))

	return cmd
}

func (o *RootOptions) openStore() (storage.Store, error) {
	return service.OpenStore(o.config)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseSlug(slug string) (owner, repo string, err error) {
	owner, repo, found := strings.Cut(slug, "/")
	if !found || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("invalid slug %q: expected owner/repo", slug)
	}
	return owner, repo, nil
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
