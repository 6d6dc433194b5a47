package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/jpqlc/internal/ir"
)

// Snapshot serializes a result's case outcomes as canonical JSON for golden
// comparison. Error messages are left out; only kinds are stable.
func Snapshot(result *Result) ([]byte, error) {
	cases := make([]any, len(result.Cases))
	for i, c := range result.Cases {
		entry := map[string]any{"name": c.Name}
		if c.Outcome.Failed() {
			entry["error_kind"] = c.Outcome.ErrorKind
		} else {
			entry["output"] = c.Outcome.Output
		}
		cases[i] = entry
	}

	return ir.MarshalCanonical(map[string]any{
		"scenario": result.Scenario,
		"cases":    cases,
	})
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := Snapshot(result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
