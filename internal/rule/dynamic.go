package rule

import (
	"fmt"
	"slices"

	"github.com/u-ask/uask-dom-sub000/internal/formula"
	"github.com/u-ask/uask-dom-sub000/internal/ir"
	"github.com/u-ask/uask-dom-sub000/internal/survey"
)

// Dynamic builds its rule at run time. The first ArgCount bound items feed
// Formula, whose result is appended to Static to form the factory's
// argument list; the remaining items are handed to the rule it builds.
//
// A dynamic rule reports the wrapped factory's name and precedence, and
// its static arguments under the factory's parameter names.
type Dynamic struct {
	Factory  Factory
	Static   ir.Array
	Formula  *formula.Formula
	ArgCount int
}

func (d Dynamic) Name() string    { return d.Factory.Name }
func (d Dynamic) Precedence() int { return d.Factory.Precedence }

func (d Dynamic) Args() ir.Object {
	args := ir.Object{"formula": ir.String(d.Formula.Source()), "dynamic": ir.Bool(true)}
	for i, v := range d.Static {
		if i >= len(d.Factory.Params) {
			break
		}
		args[d.Factory.Params[i]] = v
	}
	return args
}

func (d Dynamic) Execute(env Env, items ...survey.InterviewItem) ([]survey.InterviewItem, error) {
	if len(items) <= d.ArgCount {
		return nil, fmt.Errorf("dynamic %s: expects more than %d items, got %d", d.Name(), d.ArgCount, len(items))
	}
	values := make([]ir.Value, d.ArgCount)
	for i := range values {
		values[i] = items[i].FormulaValue()
	}
	result, err := d.Formula.Evaluate(formula.Context{Memento: env.Memento}, values...)
	if err != nil {
		return nil, err
	}
	computed, ok := result.Value.(ir.Array)
	if !ok {
		computed = ir.Array{result.Value}
	}
	args := append(slices.Clone(d.Static), computed...)

	r, err := d.Factory.Build(args)
	if err != nil {
		return nil, fmt.Errorf("dynamic %s: %w", d.Name(), err)
	}
	inner, err := r.Execute(env, items[d.ArgCount:]...)
	if err != nil {
		return nil, err
	}
	out := make([]survey.InterviewItem, 0, len(items))
	out = append(out, items[:d.ArgCount]...)
	return append(out, inner...), nil
}
