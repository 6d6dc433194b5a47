package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/roach88/jpqlc/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - specific run only
}

// ReplayRunResult holds the replay result for a single run.
type ReplayRunResult struct {
	Run    store.Run          `json:"run"`
	Replay store.ReplayResult `json:"replay"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Runs         []ReplayRunResult `json:"runs"`
	TotalRuns    int               `json:"total_runs"`
	AllIdentical bool              `json:"all_identical"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-render logged runs and compare outcomes",
		Long: `Re-render every tree recorded in the render log with the current
renderer and compare the output and error kind with what was logged.

Exit codes:
  0 - Every logged render reproduced exactly
  1 - One or more renders changed
  2 - Command error (database not found, unknown run, etc.)

Examples:
  jpqlc replay --db ./renders.db
  jpqlc replay --db ./renders.db --run 0190b7a2-...
  jpqlc replay --db ./renders.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite render log (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "replay a specific run only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	formatter := newFormatter(cmd, opts.RootOptions)

	// Opening would create an empty log; a missing file is a usage error.
	if _, err := os.Stat(opts.Database); err != nil {
		return commandError(formatter, ErrCodeNotFound, fmt.Sprintf("database not found: %s", opts.Database))
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var runs []store.Run
	if opts.RunID != "" {
		run, err := st.ReadRun(ctx, opts.RunID)
		if errors.Is(err, store.ErrRunNotFound) {
			return commandError(formatter, ErrCodeNotFound, fmt.Sprintf("run not found: %s", opts.RunID))
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read run", err)
		}
		runs = []store.Run{run}
	} else {
		runs, err = st.ListRuns(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
	}

	result := ReplayResult{
		Runs:         make([]ReplayRunResult, 0, len(runs)),
		TotalRuns:    len(runs),
		AllIdentical: true,
	}

	if len(runs) == 0 {
		if opts.Format == "json" {
			return outputReplayJSON(cmd, result)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No runs found in database.")
		return nil
	}

	for _, run := range runs {
		formatter.VerboseLog("Replaying run %s (seq %d, renderer %s)", run.ID, run.Seq, run.RendererVersion)
		replay, err := st.Replay(ctx, run.ID)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay run %s", run.ID), err)
		}
		result.Runs = append(result.Runs, ReplayRunResult{Run: run, Replay: replay})
		if !replay.Identical() {
			result.AllIdentical = false
		}
	}

	if opts.Format == "json" {
		return outputReplayJSON(cmd, result)
	}
	return outputReplayText(cmd, result)
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(cmd *cobra.Command, result ReplayResult) error {
	response := CLIResponse{Status: "ok", Data: result}
	if !result.AllIdentical {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    ErrCodeReplayChanged,
			Message: "replayed renders differ from the log",
		}
	}

	if err := writeJSON(cmd.OutOrStdout(), response); err != nil {
		return err
	}

	if !result.AllIdentical {
		// Replay mismatch = exit code 1
		return NewExitError(ExitFailure, "replayed renders differ from the log")
	}
	return nil
}

// outputReplayText prints a summary table and the details of every mismatch.
func outputReplayText(cmd *cobra.Command, result ReplayResult) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Replay Summary: %d run(s)\n\n", result.TotalRuns)

	alignment := []tw.Align{tw.AlignNone, tw.AlignNone, tw.AlignNone, tw.AlignNone, tw.AlignNone}
	table := tablewriter.NewTable(w,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithAlignment(alignment),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header([]string{"Run", "Source", "Renderer", "Renders", "Changed"})
	for _, r := range result.Runs {
		table.Append([]string{
			r.Run.ID,
			r.Run.Source,
			r.Run.RendererVersion,
			strconv.Itoa(r.Replay.Total),
			strconv.Itoa(len(r.Replay.Mismatches)),
		})
	}
	table.Render()
	fmt.Fprintln(w)

	for _, r := range result.Runs {
		for _, m := range r.Replay.Mismatches {
			fmt.Fprintf(w, "%s %s #%d %s\n", failMark, r.Run.ID, m.Seq, m.Name)
			fmt.Fprintf(w, "  logged:  %s\n", describeOutcome(m.Recorded.Output, m.Recorded.ErrorKind))
			fmt.Fprintf(w, "  current: %s\n", describeOutcome(m.Current.Output, m.Current.ErrorKind))
		}
	}

	if result.AllIdentical {
		fmt.Fprintf(w, "%s All runs replayed identically\n", passMark)
		return nil
	}

	fmt.Fprintf(w, "%s Replay found changed renders\n", failMark)
	// Replay mismatch = exit code 1
	return NewExitError(ExitFailure, "replayed renders differ from the log")
}

func describeOutcome(output, errorKind string) string {
	if errorKind != "" {
		return "error " + errorKind
	}
	return strconv.Quote(output)
}
