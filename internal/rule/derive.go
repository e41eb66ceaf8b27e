package rule

import (
	"github.com/u-ask/uask-dom-sub000/internal/formula"
	"github.com/u-ask/uask-dom-sub000/internal/ir"
	"github.com/u-ask/uask-dom-sub000/internal/survey"
)

// Copy copies value, unit and special tag of the source (first item)
// onto the target (second item).
type Copy struct{}

func (Copy) Name() string    { return "copy" }
func (Copy) Precedence() int { return PrecedenceDerivation }
func (Copy) Args() ir.Object { return ir.Object{} }

func (c Copy) Execute(_ Env, items ...survey.InterviewItem) ([]survey.InterviewItem, error) {
	if err := requireArity(c.Name(), items, 2); err != nil {
		return nil, err
	}
	src, dst := items[0], items[1]
	dst.Value = src.Value
	dst.Unit = src.Unit
	dst.Special = src.Special
	return []survey.InterviewItem{src, dst}, nil
}

// Computed sets the target (last item) to the result of a formula over
// every bound item. Parameter $i is bound to item i.
type Computed struct {
	Formula *formula.Formula
}

func (Computed) Name() string    { return "computed" }
func (Computed) Precedence() int { return PrecedenceDerivation }

func (c Computed) Args() ir.Object {
	return ir.Object{"formula": ir.String(c.Formula.Source())}
}

func (c Computed) Execute(env Env, items ...survey.InterviewItem) ([]survey.InterviewItem, error) {
	args := make([]ir.Value, len(items))
	for i, item := range items {
		args[i] = item.FormulaValue()
	}
	result, err := c.Formula.Evaluate(formula.Context{Memento: env.Memento}, args...)
	if err != nil {
		return nil, err
	}

	out := make([]survey.InterviewItem, len(items))
	copy(out, items)
	if result.NoOp {
		return out, nil
	}
	last := len(out) - 1
	target := out[last]
	if result.Clear {
		target.Value = nil
	} else {
		target = target.WithValue(result.Value)
	}
	if result.HasMemento {
		target = target.WithMemento(result.Memento)
	}
	out[last] = target
	return out, nil
}

// Activation behaviors.
const (
	Enable = "enable"
	Show   = "show"
)

// Activation activates the target (second item) when the source (first
// item) takes one of Values and deactivates it otherwise.
type Activation struct {
	Behavior string
	Values   ir.Array
}

func (Activation) Name() string    { return "activation" }
func (Activation) Precedence() int { return PrecedenceDerivation }

func (a Activation) Args() ir.Object {
	return ir.Object{"behavior": ir.String(a.Behavior), "values": a.Values}
}

func (a Activation) Execute(_ Env, items ...survey.InterviewItem) ([]survey.InterviewItem, error) {
	if err := requireArity(a.Name(), items, 2); err != nil {
		return nil, err
	}
	src, dst := items[0], items[1]
	if a.active(src.Value) {
		dst = dst.Activate()
	} else if dst.Special != survey.NotApplicable {
		dst = dst.Deactivate()
	}
	return []survey.InterviewItem{src, dst}, nil
}

func (a Activation) active(v ir.Value) bool {
	if v == nil {
		return false
	}
	candidates := ir.Array{v}
	if arr, ok := v.(ir.Array); ok {
		candidates = arr
	}
	for _, c := range candidates {
		for _, want := range a.Values {
			if ir.Equal(c, want) {
				return true
			}
		}
	}
	return false
}
