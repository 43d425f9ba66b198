package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/onexay/travis-notify/internal/notify"
	"github.com/onexay/travis-notify/internal/service"
	"github.com/onexay/travis-notify/internal/storage"
	"github.com/onexay/travis-notify/internal/types"
)

// NewHistoryCommand prints a repository's notifications, newest first.
func NewHistoryCommand(opts *RootOptions) *cobra.Command {
	var (
		tier  string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "history <owner/repo>",
		Short: "Show a repository's notification history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, repo, err := parseSlug(args[0])
			if err != nil {
				return err
			}
			parsed, err := storage.ParseTier(tier)
			if err != nil {
				return err
			}

			store, err := opts.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.History(cmd.Context(), storage.HistoryOptions{
				Owner: owner,
				Repo:  repo,
				Tier:  parsed,
				Limit: limit,
			})
			if err != nil {
				return err
			}
			if opts.JSON {
				return writeJSON(cmd.OutOrStdout(), records)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "ID\tReceived\tBuild\tVerdict\tBranch\n")
			for _, rec := range records {
				number, verdict, branch := summarize(rec)
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", rec.ID, rec.ReceivedAt.Format(time.RFC3339), number, verdict, branch)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&tier, "tier", "all", "tier to read (all|recent|archive)")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum records to show (0 for all)")
	return cmd
}

// NewDiffCommand prints the unified diff of the two newest payloads.
func NewDiffCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "diff <owner/repo>",
		Short: "Diff the two newest notifications of a repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, repo, err := parseSlug(args[0])
			if err != nil {
				return err
			}

			store, err := opts.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.History(cmd.Context(), storage.HistoryOptions{Owner: owner, Repo: repo, Limit: 2})
			if err != nil {
				return err
			}
			result, err := service.LatestDiff(records)
			if err != nil {
				return err
			}
			if opts.JSON {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			if result.Diff == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "no changes")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Diff)
			return nil
		},
	}
}

func summarize(rec types.Record) (number, verdict, branch string) {
	var payload types.BuildPayload
	if err := json.Unmarshal(rec.Payload, &payload); err != nil {
		return "-", "-", "-"
	}
	number = payload.Number
	if number == "" {
		number = "-"
	}
	branch = payload.Branch
	if branch == "" {
		branch = "-"
	}
	return number, string(notify.Classify(payload)), branch
}
