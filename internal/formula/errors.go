package formula

import (
	"errors"
	"fmt"
)

// CompileError reports a formula that cannot be compiled.
// Compile errors are fatal: the survey definition must be fixed.
type CompileError struct {
	Formula string
	Pos     int
	Message string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("formula %q: %s (at offset %d)", e.Formula, e.Message, e.Pos)
}

// IsCompileError reports whether err is or wraps a *CompileError.
func IsCompileError(err error) bool {
	var ce *CompileError
	return errors.As(err, &ce)
}

// EvalError reports a failure while evaluating a compiled formula.
type EvalError struct {
	Formula string
	Message string
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("formula %q: %s", e.Formula, e.Message)
}

func compileErr(src string, pos int, format string, args ...any) *CompileError {
	return &CompileError{Formula: src, Pos: pos, Message: fmt.Sprintf(format, args...)}
}
