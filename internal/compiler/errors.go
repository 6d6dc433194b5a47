package compiler

import (
	"fmt"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CompileError is a fragment compilation failure. Field is the dotted path
// of the offending value ("fragment.adults.left.op"); Pos is its source
// position when CUE knows it.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if !e.Pos.IsValid() {
		return e.Field + ": " + e.Message
	}
	return fmt.Sprintf("%s:%d:%d: %s: %s",
		e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Field, e.Message)
}

// fromCUE turns the first error in a CUE error list into a CompileError.
// Errors CUE cannot place in the source are returned unchanged.
func fromCUE(err error) error {
	if err == nil {
		return nil
	}
	list := cueerrors.Errors(err)
	if len(list) == 0 {
		return err
	}

	first := list[0]
	positions := cueerrors.Positions(first)
	if len(positions) == 0 {
		return err
	}

	field := "cue"
	if path := cueerrors.Path(first); len(path) > 0 {
		field = strings.Join(path, ".")
	}
	format, args := first.Msg()
	return &CompileError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		Pos:     positions[0],
	}
}
