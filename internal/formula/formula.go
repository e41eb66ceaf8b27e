package formula

import (
	"fmt"
	"math"

	"github.com/u-ask/uask-dom-sub000/internal/ir"
)

// Formula is a compiled positional expression. It is immutable and safe
// for concurrent evaluation.
type Formula struct {
	source string
	arity  int
	root   node
}

// Compile parses a positional formula. Variable names must have been
// replaced with Rewrite first; any identifier other than a helper name is
// a compile error.
func Compile(src string) (*Formula, error) {
	root, arity, err := parse(src)
	if err != nil {
		return nil, err
	}
	return &Formula{source: src, arity: arity, root: root}, nil
}

// MustCompile is like Compile but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustCompile(src string) *Formula {
	f, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return f
}

// Source returns the positional source text.
func (f *Formula) Source() string {
	return f.source
}

// Arity returns the highest parameter index the formula references.
func (f *Formula) Arity() int {
	return f.arity
}

func (f *Formula) String() string {
	return f.source
}

// Context is the helper context of one evaluation.
type Context struct {
	// Memento is what M evaluates to: the memento stored on the target
	// in the previous record, if any.
	Memento ir.Value
}

// Result is the interpreted outcome of an evaluation.
type Result struct {
	// Value is the computed value; nil means undefined.
	Value ir.Value
	// Clear is set when the formula produced a non-finite number.
	Clear bool
	// NoOp is set when the formula asked for no change (REM on undefined).
	NoOp bool
	// HasMemento is set when the formula returned a MEM pair.
	HasMemento bool
	Memento    ir.Value
}

// Evaluate runs the formula over args, where args[i] is bound to $i+1.
// Callers pass an item's value, or ir.Null{} when it is not applicable.
func (f *Formula) Evaluate(ctx Context, args ...ir.Value) (Result, error) {
	if len(args) < f.arity {
		return Result{}, &EvalError{
			Formula: f.source,
			Message: fmt.Sprintf("needs %d arguments, got %d", f.arity, len(args)),
		}
	}
	e := &evaluator{src: f.source, args: args, memento: ctx.Memento}
	out, err := e.eval(f.root)
	if err != nil {
		return Result{}, err
	}
	return interpret(out), nil
}

func interpret(out operand) Result {
	var r Result
	switch out.kind {
	case noopOperand:
		return Result{NoOp: true}
	case rememberedOperand:
		r.HasMemento = true
		r.Memento = out.memento
	}
	r.Value = out.value
	if n, ok := out.value.(ir.Number); ok {
		if f := float64(n); math.IsNaN(f) || math.IsInf(f, 0) {
			r.Value = nil
			r.Clear = true
		}
	}
	return r
}
