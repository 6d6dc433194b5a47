package harness

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/jpqlc/internal/ir"
	"github.com/roach88/jpqlc/internal/jpql"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are named after it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Cases are rendered in order.
	Cases []Case `yaml:"cases"`
}

// Case is one tree and its expected rendering outcome.
// Exactly one of Expect and Error must be set.
type Case struct {
	Name string   `yaml:"name"`
	Tree *ir.Node `yaml:"tree"`

	// Expect is the exact rendered text.
	Expect string `yaml:"expect,omitempty"`

	// Error is the expected error kind, e.g. "UnsupportedFunction".
	Error string `yaml:"error,omitempty"`
}

// errorKinds are the outcome kinds a case may expect.
var errorKinds = []string{
	jpql.KindUnsupportedNodeKind,
	jpql.KindUnsupportedOperator,
	jpql.KindUnsupportedFunction,
	jpql.KindMalformedNode,
	jpql.KindInvalidDocument,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML. Literal values in trees are
// normalized so YAML integers compare equal to other sources.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	for i := range scenario.Cases {
		if err := ir.NormalizeNode(scenario.Cases[i].Tree); err != nil {
			return nil, fmt.Errorf("invalid scenario: cases[%d].tree: %w", i, err)
		}
	}
	return &scenario, nil
}

// FindScenarioFiles returns the .yaml and .yml files under dir, sorted.
// When filter is non-empty, only files whose base name (without extension)
// matches the glob are returned. A path naming a file is returned as is.
func FindScenarioFiles(dir, filter string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{dir}, nil
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		switch {
		case err != nil:
			return err
		case d.IsDir() || !isScenarioFile(path):
			return nil
		}
		if filter != "" {
			base := strings.TrimSuffix(d.Name(), filepath.Ext(path))
			ok, err := filepath.Match(filter, base)
			if err != nil {
				return fmt.Errorf("invalid filter pattern %q: %w", filter, err)
			}
			if !ok {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(files)
	return files, nil
}

func isScenarioFile(path string) bool {
	ext := filepath.Ext(path)
	return ext == ".yaml" || ext == ".yml"
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}

	seen := make(map[string]bool, len(s.Cases))
	for i, c := range s.Cases {
		if err := validateCase(c); err != nil {
			return fmt.Errorf("cases[%d]: %w", i, err)
		}
		if seen[c.Name] {
			return fmt.Errorf("cases[%d]: duplicate case name %q", i, c.Name)
		}
		seen[c.Name] = true
	}
	return nil
}

func validateCase(c Case) error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if c.Tree == nil {
		return fmt.Errorf("tree is required")
	}

	switch {
	case c.Expect == "" && c.Error == "":
		return fmt.Errorf("one of expect or error is required")
	case c.Expect != "" && c.Error != "":
		return fmt.Errorf("expect and error are mutually exclusive")
	case c.Error != "" && !slices.Contains(errorKinds, c.Error):
		return fmt.Errorf("unknown error kind %q (want one of %s)", c.Error, strings.Join(errorKinds, ", "))
	}
	return nil
}
