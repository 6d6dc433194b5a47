package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/roach88/jpqlc/internal/harness"
)

// TestOptions are the test command's flags.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // scenario filter (glob pattern)
}

// ScenarioResult is the outcome of one scenario file.
type ScenarioResult struct {
	Name   string   `json:"name"`
	File   string   `json:"file"`
	Pass   bool     `json:"pass"`
	Cases  int      `json:"cases"`
	Failed int      `json:"failed_cases"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult summarizes a test invocation.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand returns "jpqlc test".
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenario file or dir>...",
		Short: "Run conformance scenarios",
		Long: `Run conformance scenarios against the renderer.

Each scenario case renders a tree and compares the result with the expected
text or error kind. When golden/<scenario>.golden exists next to a scenario
file, the rendered outcomes must also match it byte for byte.

Exits 1 when any scenario fails and 2 when a path cannot be read.

Examples:
  jpqlc test ./scenarios
  jpqlc test ./scenarios --filter "null_*"
  jpqlc test ./scenarios --update
  jpqlc test ./scenarios/functions.yaml --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "rewrite golden snapshots from the current renderer")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only run scenario files whose name matches this glob")

	return cmd
}

func runTests(opts *TestOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(cmd, opts.RootOptions)

	files, err := collectScenarioFiles(paths, opts.Filter)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			return commandError(formatter, loadErr.Code, loadErr.Message)
		}
		return commandError(formatter, ErrCodeGeneric, err.Error())
	}
	formatter.VerboseLog("Found %d scenario file(s)", len(files))

	result := TestResult{Scenarios: make([]ScenarioResult, 0, len(files)), Total: len(files)}
	for _, file := range files {
		sr := runScenario(file, opts, formatter)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
		result.Scenarios = append(result.Scenarios, sr)
	}

	switch {
	case opts.Format == "json":
		return outputTestJSON(cmd, result)
	case result.Total == 0:
		fmt.Fprintln(cmd.OutOrStdout(), "No scenarios found.")
		return nil
	default:
		return outputTestText(cmd, result)
	}
}

// collectScenarioFiles expands files and directories into scenario files,
// in argument order.
func collectScenarioFiles(paths []string, filter string) ([]string, error) {
	var files []string
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("scenario path not found: %s", p)}
		}
		found, err := harness.FindScenarioFiles(p, filter)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("failed to find scenarios: %v", err)}
		}
		files = append(files, found...)
	}
	return files, nil
}

// runScenario loads, runs and golden-checks one scenario file.
func runScenario(file string, opts *TestOptions, formatter *OutputFormatter) ScenarioResult {
	sr := ScenarioResult{Name: filepath.Base(file), File: file}
	fail := func(format string, args ...any) ScenarioResult {
		sr.Pass = false
		sr.Errors = append(sr.Errors, fmt.Sprintf(format, args...))
		return sr
	}

	scenario, err := harness.LoadScenario(file)
	if err != nil {
		return fail("failed to load scenario: %v", err)
	}
	sr.Name = scenario.Name
	sr.Cases = len(scenario.Cases)
	formatter.VerboseLog("Running %s (%d case(s))", scenario.Name, len(scenario.Cases))

	result, err := harness.Run(scenario)
	if err != nil {
		return fail("execution failed: %v", err)
	}
	for _, c := range result.Cases {
		if !c.Pass {
			sr.Failed++
		}
	}
	sr.Errors = append(sr.Errors, result.Errors...)

	snapshot, err := harness.Snapshot(result)
	if err != nil {
		return fail("failed to snapshot results: %v", err)
	}

	goldenPath := goldenFilePath(file, scenario.Name)
	if opts.Update {
		if err := writeGoldenFile(goldenPath, snapshot); err != nil {
			return fail("failed to update golden file: %v", err)
		}
		formatter.VerboseLog("Updated %s", goldenPath)
	} else {
		golden, err := os.ReadFile(goldenPath)
		switch {
		case os.IsNotExist(err):
			// No golden file - case expectations only
		case err != nil:
			return fail("golden comparison failed: %v", err)
		case !bytes.Equal(golden, snapshot):
			return fail("outcomes do not match golden file (run with --update to regenerate)")
		}
	}

	sr.Pass = result.Pass
	return sr
}

// goldenFilePath is <scenario dir>/golden/<name>.golden.
func goldenFilePath(scenarioFile, scenarioName string) string {
	return filepath.Join(filepath.Dir(scenarioFile), "golden", scenarioName+".golden")
}

// writeGoldenFile writes a snapshot, creating the golden directory.
func writeGoldenFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	return os.WriteFile(path, data, 0o644)
}

func outputTestJSON(cmd *cobra.Command, result TestResult) error {
	response := CLIResponse{Status: "ok", Data: result}
	failure := testFailure(result)
	if failure != nil {
		response.Status = "error"
		response.Error = &CLIError{Code: ErrCodeTestFailed, Message: failure.Error()}
	}
	if err := writeJSON(cmd.OutOrStdout(), response); err != nil {
		return err
	}
	return failure
}

// testFailure is the exit error for a run with failed scenarios, or nil.
func testFailure(result TestResult) error {
	if result.Failed == 0 {
		return nil
	}
	return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
}

// outputTestText prints per-scenario failures followed by a summary table.
func outputTestText(cmd *cobra.Command, result TestResult) error {
	w := cmd.OutOrStdout()

	for _, s := range result.Scenarios {
		fmt.Fprintf(w, "%s %s\n", mark(s.Pass), s.Name)
		for _, e := range s.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
	fmt.Fprintln(w)

	alignment := []tw.Align{tw.AlignNone, tw.AlignNone, tw.AlignNone, tw.AlignNone}
	table := tablewriter.NewTable(w,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithAlignment(alignment),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header([]string{"Scenario", "Cases", "Failed", "Status"})
	for _, s := range result.Scenarios {
		status := "pass"
		if !s.Pass {
			status = "FAIL"
		}
		table.Append([]string{s.Name, strconv.Itoa(s.Cases), strconv.Itoa(s.Failed), status})
	}
	table.Render()

	fmt.Fprintf(w, "\nTest Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	if err := testFailure(result); err != nil {
		return err
	}
	fmt.Fprintf(w, "%s All scenarios passed\n", passMark)
	return nil
}

