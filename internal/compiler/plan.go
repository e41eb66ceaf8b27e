package compiler

import (
	"fmt"
	"slices"

	"github.com/u-ask/uask-dom-sub000/internal/formula"
	"github.com/u-ask/uask-dom-sub000/internal/rule"
	"github.com/u-ask/uask-dom-sub000/internal/scope"
	"github.com/u-ask/uask-dom-sub000/internal/survey"
)

// binding is the resolved shape of a rule declaration.
type binding struct {
	// names are the bound item names with level prefixes, target last.
	names []string

	// formula is the positional source of a computed or dynamic rule.
	formula string

	// argCount is the number of leading items feeding a dynamic formula.
	argCount int
}

func (b binding) target() string { return b.names[len(b.names)-1] }

// plan computes the bound item names of r. The returned error carries the
// validation code of the problem.
func (r RuleDecl) plan() (binding, *ValidationError) {
	field := fmt.Sprintf("rules[%d]", r.Index)
	base := slices.Clone(r.Items)
	if r.Target != "" {
		base = append(base, r.Target)
	}

	switch {
	case r.Formula != "":
		if r.Rule != "" && r.Rule != computedRule {
			return binding{}, &ValidationError{Field: field + ".formula", Code: ErrInvalidArgs,
				Message: fmt.Sprintf("a formula only applies to computed rules, not %q", r.Rule)}
		}
		rw, err := formula.Rewrite(r.Formula, r.Target)
		if err != nil {
			return binding{}, formulaError(field+".formula", err)
		}
		if len(rw.Variables) == 0 {
			if len(base) == 0 {
				return binding{}, &ValidationError{Field: field + ".items", Code: ErrMissingTarget,
					Message: "a positional formula needs bound items"}
			}
			return binding{names: base, formula: rw.Formula}, nil
		}
		if r.Target == "" {
			return binding{}, &ValidationError{Field: field + ".target", Code: ErrMissingTarget,
				Message: "a formula with item names needs a target"}
		}
		if len(r.Items) > 0 {
			return binding{}, &ValidationError{Field: field + ".items", Code: ErrInvalidArgs,
				Message: "items are taken from the formula and cannot be listed"}
		}
		names := rw.Variables
		if names[len(names)-1] != r.Target {
			names = append(names, r.Target)
		}
		return binding{names: names, formula: rw.Formula}, nil

	case r.Dynamic != "":
		if len(base) == 0 {
			return binding{}, &ValidationError{Field: field + ".target", Code: ErrMissingTarget,
				Message: "a dynamic rule needs a target"}
		}
		rw, err := formula.Rewrite(r.Dynamic, "")
		if err != nil {
			return binding{}, formulaError(field+".dynamic", err)
		}
		names := append(slices.Clone(rw.Variables), base...)
		return binding{names: names, formula: rw.Formula, argCount: len(rw.Variables)}, nil

	default:
		if len(base) == 0 {
			return binding{}, &ValidationError{Field: field + ".target", Code: ErrMissingTarget,
				Message: "target or items are required"}
		}
		return binding{names: base}, nil
	}
}

func formulaError(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Code: ErrInvalidFormula, Message: err.Error()}
}

// resolveName binds a prefixed item name to its definition and level.
func resolveName(reg *survey.Registry, name string) (rule.ScopedItem, error) {
	variable, level := scope.ParseName(name)
	if level == scope.Global {
		def, ok := survey.GlobalItem(variable)
		if !ok {
			return rule.ScopedItem{}, fmt.Errorf("unknown global item %q", variable)
		}
		return rule.Global(def), nil
	}
	def, ok := reg.Lookup(variable)
	if !ok {
		return rule.ScopedItem{}, fmt.Errorf("unknown item %q", variable)
	}
	return rule.ScopedItem{Item: def, Level: level}, nil
}
