package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/jpqlc/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool                       `json:"valid"`
	Fragments int                        `json:"fragments"`
	Errors    []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <path>",
		Short: "Validate fragments without rendering",
		Long: `Validate fragment files without rendering them.

Checks that every file parses, fragment names are unique, references
resolve without cycles and every tree decodes into a well-formed
expression. All problems are reported, not just the first.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(cmd, opts)

	loadResult, loadErrors := LoadFragments(path, LoadModeCollectAll)

	// Nothing loaded at all (path not found, no files, etc.)
	if loadResult == nil && len(loadErrors) > 0 {
		var loadErr *LoadError
		if errors.As(loadErrors[0], &loadErr) {
			return commandError(formatter, loadErr.Code, loadErr.Message)
		}
		return commandError(formatter, ErrCodeGeneric, loadErrors[0].Error())
	}

	formatter.VerboseLog("Found %d fragment file(s) in %s", loadResult.FileCount, path)
	for _, f := range loadResult.Fragments {
		formatter.VerboseLog("Validating fragment: %s", f.Name)
	}

	validationErrors := loadValidationErrors(loadErrors)
	validationErrors = append(validationErrors, compiler.ValidateFragments(loadResult.Fragments)...)

	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, len(loadResult.Fragments), validationErrors)
	}
	return outputValidateSuccess(formatter, len(loadResult.Fragments))
}

// loadValidationErrors converts loader errors to validation errors.
func loadValidationErrors(errs []error) []compiler.ValidationError {
	var out []compiler.ValidationError
	for _, err := range errs {
		var loadErr *LoadError
		if !errors.As(err, &loadErr) {
			out = append(out, compiler.ValidationError{Field: "load", Message: err.Error(), Code: ErrCodeGeneric})
			continue
		}
		line := 0
		if loadErr.Pos.IsValid() {
			line = loadErr.Pos.Line()
		}
		out = append(out, compiler.ValidationError{
			Field:   "load",
			Message: loadErr.Message,
			Code:    loadErr.Code,
			Line:    line,
		})
	}
	return out
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, fragments int) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Fragments: fragments})
	}

	fmt.Fprintf(formatter.Writer, "%s All %d fragment(s) valid\n", passMark, fragments)
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, fragments int, errs []compiler.ValidationError) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data: ValidationResult{
				Valid:     false,
				Fragments: fragments,
				Errors:    errs,
			},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}
		if err := writeJSON(formatter.Writer, response); err != nil {
			return err
		}

		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintf(formatter.Writer, "%s Validation failed\n", failMark)
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}

// ValidatePath validates the fragments at path without producing output.
// This is a helper function for external callers.
func ValidatePath(path string) ([]compiler.ValidationError, error) {
	loadResult, loadErrors := LoadFragments(path, LoadModeCollectAll)
	if loadResult == nil && len(loadErrors) > 0 {
		return nil, loadErrors[0]
	}
	errs := loadValidationErrors(loadErrors)
	return append(errs, compiler.ValidateFragments(loadResult.Fragments)...), nil
}

