package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Dumbo-programmer/Calcora-sub000/internal/engine"
	"github.com/Dumbo-programmer/Calcora-sub000/internal/history"
)

// NewHistoryCommand creates the "history" command and its subcommands.
func NewHistoryCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and replay saved evaluations",
	}
	cmd.AddCommand(newHistoryListCommand(opts))
	cmd.AddCommand(newHistoryShowCommand(opts))
	cmd.AddCommand(newHistoryReplayCommand(opts))
	return cmd
}

func openHistory(opts *RootOptions) (*history.Store, error) {
	if opts.Database == "" {
		return nil, NewExitError(ExitCommandError, "no history database configured, set --db or the config file's database key")
	}
	store, err := history.Open(opts.Database, history.UUIDv7Generator{})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open history database", err)
	}
	return store, nil
}

func newHistoryListCommand(opts *RootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved evaluations, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(opts)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.List(cmd.Context(), limit)
			if err != nil {
				return WrapExitError(ExitFailure, "list history", err)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCREATED\tOPERATION\tINPUT\tOUTPUT\tSTEPS")
			for _, rec := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n",
					rec.ID, rec.CreatedAt.Format(time.RFC3339), rec.Operation,
					rec.Input, rec.Output, rec.Steps)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of records")

	return cmd
}

func newHistoryShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a saved evaluation with its full step trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(opts)
			if err != nil {
				return err
			}
			defer store.Close()

			rec, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				if history.IsNotFound(err) {
					return WrapExitError(ExitCommandError, "unknown record", err)
				}
				return WrapExitError(ExitFailure, "load record", err)
			}
			return printResult(cmd, opts, &engine.Result{
				Operation: rec.Operation,
				Input:     rec.Input,
				Output:    rec.Output,
				Graph:     rec.Graph,
			})
		},
	}
}

func newHistoryReplayCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "replay <id>",
		Short: "Re-run a saved evaluation and check for drift",
		Long: `Re-run a saved evaluation under the current rule set and compare the
resulting graph fingerprint against the stored one. A mismatch means
the rules have changed behavior since the record was saved.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(opts)
			if err != nil {
				return err
			}
			defer store.Close()

			eng, err := buildEngine(opts)
			if err != nil {
				return err
			}
			rep, err := store.Replay(cmd.Context(), args[0], eng)
			if err != nil {
				if history.IsNotFound(err) {
					return WrapExitError(ExitCommandError, "unknown record", err)
				}
				return mapEngineError(err)
			}
			if !rep.Match {
				fmt.Fprintf(cmd.OutOrStdout(), "drift detected for %s:\n  stored   %s\n  replayed %s\n",
					rep.Record.ID, rep.Record.Fingerprint, rep.ReplayedFP)
				return NewExitError(ExitFailure, "replay fingerprint mismatch")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s replays identically (%d steps, fingerprint %s)\n",
				rep.Record.ID, rep.Record.Steps, rep.Record.Fingerprint)
			return nil
		},
	}
}
