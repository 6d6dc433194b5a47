package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/jpqlc/internal/compiler"
	"github.com/roach88/jpqlc/internal/ir"
	"github.com/roach88/jpqlc/internal/jpql"
	"github.com/roach88/jpqlc/internal/store"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions
	Database string // optional render log
	Select   bool   // render all fragments as one select list
	Workers  int    // concurrent renders

	ids store.IDGenerator
}

// RenderedFragment is the outcome for one fragment.
type RenderedFragment struct {
	Name         string `json:"name"`
	TreeID       string `json:"tree_id"`
	Output       string `json:"output,omitempty"`
	ErrorKind    string `json:"error_kind,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`

	tree *ir.Node
}

// RenderResult holds the overall render result.
type RenderResult struct {
	RunID     string             `json:"run_id,omitempty"`
	Fragments []RenderedFragment `json:"fragments"`
	Failed    int                `json:"failed"`
}

// selectionName names the single entry produced by --select.
const selectionName = "selection"

// NewRenderCommand creates the render command. Recorded runs get UUIDv7 IDs.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	return newRenderCommand(rootOpts, store.UUIDv7Generator{})
}

func newRenderCommand(rootOpts *RootOptions, ids store.IDGenerator) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts, ids: ids}

	cmd := &cobra.Command{
		Use:   "render <path>",
		Short: "Render fragments as JPQL",
		Long: `Render every fragment in a file or directory as a JPQL fragment.

Fragment references are inlined before rendering. With --select, all
fragments are joined, in name order, into one select list. With --db, the
run is recorded in the render log for later replay.

Exit codes:
  0 - All fragments rendered
  1 - One or more fragments failed to render
  2 - Command error (invalid paths, broken references, etc.)

Examples:
  jpqlc render ./fragments
  jpqlc render ./fragments/people.cue --select
  jpqlc render ./fragments --db ./renders.db --workers 8
  jpqlc render ./fragments --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite render log")
	cmd.Flags().BoolVar(&opts.Select, "select", false, "render all fragments as one select list")
	cmd.Flags().IntVar(&opts.Workers, "workers", 4, "maximum concurrent renders")

	return cmd
}

func runRender(opts *RenderOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(cmd, opts.RootOptions)
	if opts.Workers < 1 {
		return commandError(formatter, ErrCodeGeneric, fmt.Sprintf("--workers must be at least 1, got %d", opts.Workers))
	}

	loadResult, loadErrors := LoadFragments(path, LoadModeFailFast)
	if len(loadErrors) > 0 {
		var loadErr *LoadError
		if errors.As(loadErrors[0], &loadErr) {
			return commandError(formatter, loadErr.Code, loadErr.Message)
		}
		return commandError(formatter, ErrCodeGeneric, loadErrors[0].Error())
	}
	formatter.VerboseLog("Loaded %d fragment(s) from %d file(s)", len(loadResult.Fragments), loadResult.FileCount)

	frags, err := compiler.ResolveReferences(loadResult.Fragments)
	if err != nil {
		return commandError(formatter, referenceErrorCode(err), err.Error())
	}

	if opts.Select {
		frags = []ir.Fragment{joinSelection(frags)}
	}

	ctx := commandContext(cmd)
	rendered, err := renderFragments(ctx, frags, opts.Workers)
	if err != nil {
		return commandError(formatter, ErrCodeGeneric, err.Error())
	}

	result := RenderResult{Fragments: rendered}
	for _, r := range rendered {
		if r.ErrorKind != "" {
			result.Failed++
		}
	}

	if opts.Database != "" {
		runID, err := recordRun(ctx, opts, path, rendered)
		if err != nil {
			return commandError(formatter, ErrCodeWriteFailed, err.Error())
		}
		result.RunID = runID
		formatter.VerboseLog("Recorded run %s in %s", runID, opts.Database)
	}

	if opts.Format == "json" {
		return outputRenderJSON(cmd, result)
	}
	return outputRenderText(cmd, result)
}

// joinSelection combines fragments into one compound projection. A fragment
// that is itself compound contributes its items.
func joinSelection(frags []ir.Fragment) ir.Fragment {
	root := &ir.Node{Kind: ir.KindCompound}
	for _, f := range frags {
		if f.Tree != nil && f.Tree.Kind == ir.KindCompound {
			root.Items = append(root.Items, f.Tree.Items...)
			continue
		}
		root.Items = append(root.Items, f.Tree)
	}
	return ir.Fragment{Name: selectionName, Tree: root}
}

// renderFragments renders frags on at most workers goroutines. Results keep
// the input order.
func renderFragments(ctx context.Context, frags []ir.Fragment, workers int) ([]RenderedFragment, error) {
	out := make([]RenderedFragment, len(frags))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, f := range frags {
		i, f := i, f
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			treeID, err := ir.TreeID(f.Tree)
			if err != nil {
				return fmt.Errorf("fragment %q: %w", f.Name, err)
			}
			outcome := jpql.RenderDocument(f.Tree)
			out[i] = RenderedFragment{
				Name:         f.Name,
				TreeID:       treeID,
				Output:       outcome.Output,
				ErrorKind:    outcome.ErrorKind,
				ErrorMessage: outcome.ErrorMessage,
				tree:         f.Tree,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// recordRun writes a run and its renders to the render log atomically.
func recordRun(ctx context.Context, opts *RenderOptions, source string, rendered []RenderedFragment) (string, error) {
	st, err := store.Open(opts.Database)
	if err != nil {
		return "", fmt.Errorf("failed to open database: %w", err)
	}
	defer st.Close()

	renders := make([]store.Render, 0, len(rendered))
	for _, r := range rendered {
		renders = append(renders, store.Render{
			Name:         r.Name,
			TreeID:       r.TreeID,
			Tree:         r.tree,
			Output:       r.Output,
			ErrorKind:    r.ErrorKind,
			ErrorMessage: r.ErrorMessage,
		})
	}
	run, _, err := st.RecordRun(ctx, store.Run{ID: opts.ids.Generate(), Source: source}, renders)
	if err != nil {
		return "", err
	}
	return run.ID, nil
}

// referenceErrorCode maps a reference resolution failure to its validation
// code.
func referenceErrorCode(err error) string {
	var ce *compiler.CompileError
	if errors.As(err, &ce) && ce.Field == "ref" {
		return compiler.ErrReferenceCycle
	}
	return compiler.ErrUnknownReference
}

// outputRenderJSON outputs the render result as JSON.
func outputRenderJSON(cmd *cobra.Command, result RenderResult) error {
	response := CLIResponse{Status: "ok", Data: result, RunID: result.RunID}
	if result.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    ErrCodeRenderFailed,
			Message: fmt.Sprintf("%d fragment(s) failed to render", result.Failed),
		}
	}

	if err := writeJSON(cmd.OutOrStdout(), response); err != nil {
		return err
	}
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d fragment(s) failed to render", result.Failed))
	}
	return nil
}

// outputRenderText prints one line per fragment: "name: output" on success
// and a failure mark with the error kind otherwise.
func outputRenderText(cmd *cobra.Command, result RenderResult) error {
	w := cmd.OutOrStdout()

	for _, r := range result.Fragments {
		if r.ErrorKind != "" {
			fmt.Fprintf(w, "%s %s: %s: %s\n", failMark, r.Name, r.ErrorKind, r.ErrorMessage)
			continue
		}
		fmt.Fprintf(w, "%s: %s\n", r.Name, r.Output)
	}
	if result.RunID != "" {
		fmt.Fprintf(w, "\nRecorded run %s\n", result.RunID)
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d fragment(s) failed to render", result.Failed))
	}
	return nil
}

// commandError outputs an error and returns a command-level ExitError.
func commandError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// commandContext returns the command's context, or Background when the
// command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
