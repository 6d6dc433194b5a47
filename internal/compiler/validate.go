package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/jpqlc/internal/expr"
	"github.com/roach88/jpqlc/internal/ir"
)

// Validation error codes (E100-E199). Tree invariant violations keep the
// E2xx codes from package expr.
const (
	ErrUnsupportedInput = "E100" // unsupported input type for validation

	ErrEmptyFragmentName = "E101" // fragment name is required
	ErrDuplicateFragment = "E102" // duplicate fragment name
	ErrMissingTree       = "E103" // fragment has no tree
	ErrUnknownReference  = "E104" // ref names no fragment
	ErrReferenceCycle    = "E105" // fragments reference each other in a loop
	ErrMalformedDocument = "E106" // node document does not decode
)

// ValidationError represents a fragment validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate validates fragments or a single node document.
// Returns all errors found (does not fail-fast).
func Validate(v any) []ValidationError {
	switch in := v.(type) {
	case []ir.Fragment:
		return ValidateFragments(in)
	case ir.Fragment:
		return ValidateFragments([]ir.Fragment{in})
	case *ir.Fragment:
		return ValidateFragments([]ir.Fragment{*in})
	case *ir.Node:
		return ValidateFragments([]ir.Fragment{{Name: "tree", Tree: in}})
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported input type: %T", v),
			Code:    ErrUnsupportedInput,
		}}
	}
}

// ValidateFragments checks a fragment set in stages: names and trees, then
// reference cycles, then reference resolution, then decoding and tree
// invariants. A stage runs only when the previous ones found nothing, since
// later checks are meaningless on a broken set.
func ValidateFragments(frags []ir.Fragment) []ValidationError {
	var errs []ValidationError

	seen := make(map[string]bool, len(frags))
	for i, f := range frags {
		switch {
		case strings.TrimSpace(f.Name) == "":
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("fragments[%d].name", i),
				Message: "fragment name is required",
				Code:    ErrEmptyFragmentName,
			})
		case seen[f.Name]:
			errs = append(errs, ValidationError{
				Field:   fragmentField(f.Name),
				Message: fmt.Sprintf("duplicate fragment name: %q", f.Name),
				Code:    ErrDuplicateFragment,
			})
		}
		seen[f.Name] = true

		if f.Tree == nil {
			errs = append(errs, ValidationError{
				Field:   fragmentField(f.Name),
				Message: "fragment has no tree",
				Code:    ErrMissingTree,
			})
		}
	}
	if len(errs) > 0 {
		return errs
	}

	for _, c := range AnalyzeReferences(frags) {
		errs = append(errs, ValidationError{
			Field:   fragmentField(c.Path[0]),
			Message: c.Message,
			Code:    ErrReferenceCycle,
		})
	}
	if len(errs) > 0 {
		return errs
	}

	r := newResolver(frags)
	resolved := make([]ir.Fragment, 0, len(frags))
	for _, f := range frags {
		resolved = append(resolved, ir.Fragment{Name: f.Name, Tree: r.inline(f.Name, f.Tree)})
	}
	for _, ce := range r.errs {
		errs = append(errs, ValidationError{Field: ce.Field, Message: ce.Message, Code: ErrUnknownReference})
	}
	if len(errs) > 0 {
		return errs
	}

	for _, f := range resolved {
		sel, err := ir.Decode(f.Tree)
		if err != nil {
			errs = append(errs, decodeValidationError(f.Name, err))
			continue
		}
		for _, v := range expr.Validate(sel) {
			errs = append(errs, ValidationError{
				Field:   joinField(f.Name, v.Path),
				Message: v.Message,
				Code:    v.Code,
			})
		}
	}
	return errs
}

func decodeValidationError(name string, err error) ValidationError {
	var de *ir.DecodeError
	if errors.As(err, &de) {
		return ValidationError{Field: joinField(name, de.Path), Message: de.Message, Code: ErrMalformedDocument}
	}
	return ValidationError{Field: fragmentField(name), Message: err.Error(), Code: ErrMalformedDocument}
}

func fragmentField(name string) string {
	return "fragment." + name
}

// joinField appends a tree path ("$.left.args[1]") to a fragment field.
func joinField(name, path string) string {
	return fragmentField(name) + strings.TrimPrefix(path, "$")
}
