package compiler

import (
	"fmt"

	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CompileError is a definition error tied to a field path and, when CUE
// knows it, a source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if !e.Pos.IsValid() {
		return e.Field + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %s", e.Pos, e.Field, e.Message)
}

// formatCUEError turns the first positioned CUE error of err into a
// CompileError. Errors without a position pass through.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	if pos := cueerrors.Positions(errs[0]); len(pos) > 0 {
		return &CompileError{Field: "cue", Message: errs[0].Error(), Pos: pos[0]}
	}
	return err
}
