package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <id>",
		Short:         "Show one kitty with its owner, listing and lineage",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				return show(ctx, rootOpts.formatter(cmd), a, id)
			})
		},
	}
}

// NewRecordsCommand creates the records command.
func NewRecordsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "records",
		Short:         "List every kitty in identifier order",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				entries, err := a.registry.Records(ctx)
				if err != nil {
					return f.Fail("records failed", err)
				}
				out := make(RecordList, len(entries))
				for i, e := range entries {
					out[i] = viewOf(e)
				}
				return f.Success(out)
			})
		},
	}
}

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	After  int64
	Limit  int
	Verify bool
}

// VerifyResult is printed by history --verify.
type VerifyResult struct {
	Verified int `json:"verified"`
}

func (v VerifyResult) String() string {
	return fmt.Sprintf("%d journal entries verified", v.Verified)
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print the event journal",
		Long: `Print journaled events oldest first.

With --verify, recompute every entry digest instead and fail on the
first mismatch.

Examples:
  kitties history --after 10 --limit 5
  kitties history --verify`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.After, "after", 0, "only events with a greater sequence")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of events (0 for all)")
	cmd.Flags().BoolVar(&opts.Verify, "verify", false, "verify journal digests")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	return withApp(cmd, opts.RootOptions, func(ctx context.Context, a *app) error {
		if opts.Verify {
			n, err := a.registry.VerifyJournal(ctx)
			if err != nil {
				return f.Fail("journal verification failed", err)
			}
			return f.Success(VerifyResult{Verified: n})
		}
		entries, err := a.registry.Journal(ctx, opts.After, opts.Limit)
		if err != nil {
			return f.Fail("history failed", err)
		}
		return f.Success(journalViews(entries))
	})
}
