package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/roach88/jpqlc/internal/compiler"
	"github.com/roach88/jpqlc/internal/ir"
)

// LoadMode controls how errors are handled during fragment loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the fragments loaded from a file or directory.
type LoadResult struct {
	// Fragments are sorted by name. References are not resolved.
	Fragments []ir.Fragment
	FileCount int // Number of fragment files read
}

// LoadError represents an error that occurred during fragment loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeScanError     = "E002" // Directory scan error
	ErrCodeNoFiles       = "E003" // No fragment files found
	ErrCodeLoadFailed    = "E004" // CUE load failed
	ErrCodeNotFound      = "E005" // Path not found
	ErrCodeBuildFailed   = "E006" // CUE build failed
	ErrCodeWriteFailed   = "E007" // File write error
	ErrCodeParseFailed   = "E008" // YAML/JSON fragment file does not parse
	ErrCodeCompileFailed = "E009" // CUE fragment does not compile to a node
	ErrCodeNoFragments   = "E010" // Files contain no fragments

	ErrCodeRenderFailed  = "E011" // At least one fragment failed to render
	ErrCodeTestFailed    = "E012" // At least one scenario failed
	ErrCodeReplayChanged = "E013" // Replayed renders differ from the log
)

var fragmentPath = cue.ParsePath("fragment")

// fragmentFile is the layout of YAML and JSON fragment files.
type fragmentFile struct {
	Fragments map[string]*ir.Node `yaml:"fragments" json:"fragments"`
}

// LoadFragments loads fragments from path, which is either a single
// fragment file or a directory whose top-level .cue, .yaml, .yml and .json
// files are read. CUE files in a directory are loaded as one instance;
// their fragments live under the top-level "fragment" field. YAML and JSON
// files carry a top-level "fragments" map.
//
// Fragment names must be unique across all files.
// If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, collects all errors.
func LoadFragments(path string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("fragment path not found: %s", path)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing fragment path: %v", err)}}
	}

	var cueFiles, dataFiles []string
	if info.IsDir() {
		cueFiles, dataFiles, err = FindFragmentFiles(path)
		if err != nil {
			return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
		}
	} else {
		switch ext := filepath.Ext(path); ext {
		case ".cue":
			cueFiles = []string{path}
		case ".yaml", ".yml", ".json":
			dataFiles = []string{path}
		default:
			return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("unsupported fragment file extension %q", ext)}}
		}
	}
	if len(cueFiles) == 0 && len(dataFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no fragment files found in %s", path)}}
	}

	result := &LoadResult{FileCount: len(cueFiles) + len(dataFiles)}
	var errs []error
	failFast := func() bool { return mode == LoadModeFailFast && len(errs) > 0 }

	if len(cueFiles) > 0 {
		frags, cueErrs := loadCUEFragments(path, info.IsDir(), mode)
		result.Fragments = append(result.Fragments, frags...)
		errs = append(errs, cueErrs...)
		if failFast() {
			return result, errs
		}
	}

	for _, file := range dataFiles {
		frags, err := loadDataFragments(file)
		if err != nil {
			errs = append(errs, err)
			if failFast() {
				return result, errs
			}
			continue
		}
		result.Fragments = append(result.Fragments, frags...)
	}

	// Stable sort keeps declaration order among duplicates, so the first
	// declaration wins.
	slices.SortStableFunc(result.Fragments, func(a, b ir.Fragment) int {
		return strings.Compare(a.Name, b.Name)
	})
	unique := result.Fragments[:0]
	for i, f := range result.Fragments {
		if i > 0 && result.Fragments[i-1].Name == f.Name {
			errs = append(errs, &LoadError{
				Code:    compiler.ErrDuplicateFragment,
				Message: fmt.Sprintf("duplicate fragment name: %q", f.Name),
			})
			if failFast() {
				return result, errs
			}
			continue
		}
		unique = append(unique, f)
	}
	result.Fragments = unique

	if len(result.Fragments) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeNoFragments, Message: fmt.Sprintf("no fragments found in %s", path)})
	}
	return result, errs
}

// FindFragmentFiles lists the CUE and data (YAML/JSON) fragment files
// directly inside dir, each sorted by path. Subdirectories are not searched.
func FindFragmentFiles(dir string) (cueFiles, dataFiles []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		p := filepath.Join(dir, e.Name())
		switch filepath.Ext(p) {
		case ".cue":
			cueFiles = append(cueFiles, p)
		case ".yaml", ".yml", ".json":
			dataFiles = append(dataFiles, p)
		}
	}
	return cueFiles, dataFiles, nil
}

// loadCUEFragments builds the CUE instance at path and compiles its
// fragments.
func loadCUEFragments(path string, isDir bool, mode LoadMode) ([]ir.Fragment, []error) {
	cfg := &load.Config{Dir: path}
	args := []string{"."}
	if !isDir {
		cfg.Dir = filepath.Dir(path)
		args = []string{filepath.Base(path)}
	}

	instances := load.Instances(args, cfg)
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := cuecontext.New().BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	if mode == LoadModeFailFast {
		frags, err := compiler.CompileFragments(value)
		if err != nil {
			return nil, []error{convertCompileError(err, "fragment")}
		}
		return frags, nil
	}

	// Compile fragment by fragment so one broken fragment does not hide
	// the others.
	var (
		frags []ir.Fragment
		errs  []error
	)
	fragVal := value.LookupPath(fragmentPath)
	if !fragVal.Exists() {
		return nil, nil
	}
	iter, err := fragVal.Fields()
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating fragments: %v", err)}}
	}
	for iter.Next() {
		frag, err := compiler.CompileFragment(iter.Value())
		if err != nil {
			errs = append(errs, convertCompileError(err, "fragment."+iter.Label()))
			continue
		}
		frags = append(frags, *frag)
	}
	return frags, errs
}

// loadDataFragments parses a YAML or JSON fragment file. Unknown fields
// are rejected in both formats.
func loadDataFragments(file string) ([]ir.Fragment, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading %s: %v", file, err)}
	}

	var doc fragmentFile
	if filepath.Ext(file) == ".json" {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		dec.DisallowUnknownFields()
		err = dec.Decode(&doc)
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&doc)
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("parsing %s: %v", file, err)}
	}

	frags := make([]ir.Fragment, 0, len(doc.Fragments))
	for name, tree := range doc.Fragments {
		if tree == nil {
			return nil, &LoadError{
				Code:    compiler.ErrMissingTree,
				Message: fmt.Sprintf("%s: fragment %q has no tree", file, name),
			}
		}
		if err := ir.NormalizeNode(tree); err != nil {
			return nil, &LoadError{
				Code:    ErrCodeParseFailed,
				Message: fmt.Sprintf("%s: fragment %q: %v", file, name, err),
			}
		}
		frags = append(frags, ir.Fragment{Name: name, Tree: tree})
	}
	return frags, nil
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, context string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    ErrCodeCompileFailed,
			Message: fmt.Sprintf("%s: %s", compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeCompileFailed,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}
