package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/u-ask/uask-dom-sub000/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Participant string
	Run         string
}

// HistoryResult lists recorded runs.
type HistoryResult struct {
	Runs []store.Run `json:"runs"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history <db>",
		Short: "List runs recorded with --db",
		Long: `List the runs recorded by run or trace with --db, oldest first.

With --run the stored firings of that run are printed as a trace.

Examples:
  uask history runs.db
  uask history runs.db --participant P001
  uask history runs.db --run 01920000-0000-7000-8000-000000000000`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, args[0], cmd)
		},
	}
	cmd.Flags().StringVarP(&opts.Participant, "participant", "p", "", "only runs of this participant code")
	cmd.Flags().StringVar(&opts.Run, "run", "", "print the firings of this run")

	return cmd
}

func runHistory(opts *HistoryOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	if _, err := os.Stat(path); err != nil {
		return commandError(f, ErrCodeNotFound, fmt.Sprintf("database not found: %s", path))
	}
	st, err := store.Open(path)
	if err != nil {
		return commandError(f, ErrCodeLoadFailed, err.Error())
	}
	defer st.Close()

	ctx := context.Background()
	if opts.Run != "" {
		return showRun(f, st, opts.Run)
	}

	runs, err := st.ListRuns(ctx, opts.Participant)
	if err != nil {
		return commandError(f, ErrCodeLoadFailed, err.Error())
	}
	if f.JSON() {
		return f.Success(HistoryResult{Runs: runs})
	}
	if len(runs) == 0 {
		fmt.Fprintln(f.Writer, "No runs recorded.")
		return nil
	}
	for _, r := range runs {
		fmt.Fprintf(f.Writer, "%4d  %s  %s\n", r.Seq, r.ID, r.Participant)
	}
	return nil
}

func showRun(f *OutputFormatter, st *store.Store, id string) error {
	ctx := context.Background()
	run, err := st.ReadRun(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return commandError(f, ErrCodeNotFound, fmt.Sprintf("unknown run %q", id))
	}
	if err != nil {
		return commandError(f, ErrCodeLoadFailed, err.Error())
	}
	firings, err := st.ReadFirings(ctx, id)
	if err != nil {
		return commandError(f, ErrCodeLoadFailed, err.Error())
	}

	result := TraceResult{Participant: run.Participant, Firings: firings, Stats: traceStats(firings)}
	if f.JSON() {
		return f.Success(result)
	}
	printTrace(f, result)
	return nil
}
