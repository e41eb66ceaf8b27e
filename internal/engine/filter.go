package engine

import (
	"slices"

	"github.com/u-ask/uask-dom-sub000/internal/rule"
	"github.com/u-ask/uask-dom-sub000/internal/scope"
	"github.com/u-ask/uask-dom-sub000/internal/survey"
)

// Filter selects the rules of the first pass.
type Filter struct {
	// Triggers lists the trigger policies admitted unconditionally.
	Triggers []rule.Trigger

	// Initialize lists items to initialize. An initialization rule whose
	// target is listed and missing is admitted too; such targets are
	// seeded with an empty value before the pass.
	Initialize []*survey.ItemDef
}

// OnAlways admits rules triggered on every pass.
func OnAlways() Filter {
	return Filter{Triggers: []rule.Trigger{rule.Always}}
}

// OnInitialize admits rules triggered on every pass plus initialization
// rules of the listed items that have no value yet.
func OnInitialize(items ...*survey.ItemDef) Filter {
	return Filter{Triggers: []rule.Trigger{rule.Always}, Initialize: items}
}

// seed adds an empty record value for every listed item that is missing
// and returns the keys it seeded.
func (f Filter) seed(s *scope.Scope) (*scope.Scope, []survey.Key) {
	var eligible []survey.Key
	var seeds []survey.InterviewItem
	for _, def := range f.Initialize {
		if _, res := s.Get(def, scope.Local); res != scope.Missing {
			continue
		}
		eligible = append(eligible, def.Key())
		seeds = append(seeds, survey.InterviewItem{Item: def})
	}
	return s.With(seeds...), eligible
}

// admits reports whether r runs in the first pass. The returned predicate,
// when non-nil, restricts execution to targets it accepts.
func (f Filter) admits(r *rule.CrossRule, eligible []survey.Key) (func(survey.Key) bool, bool) {
	if slices.Contains(f.Triggers, r.When) {
		return nil, true
	}
	if r.When != rule.Initialization {
		return nil, false
	}
	return restrictTo(r, eligible)
}

// restrictTo admits a rule whose local target is one of keys.
func restrictTo(r *rule.CrossRule, keys []survey.Key) (func(survey.Key) bool, bool) {
	t := r.Target()
	if t.Level != scope.Local {
		return nil, false
	}
	if !slices.ContainsFunc(keys, func(k survey.Key) bool { return k.Variable == t.Item.Variable }) {
		return nil, false
	}
	return func(k survey.Key) bool { return slices.Contains(keys, k) }, true
}

func (f Filter) snapshot() []string {
	out := make([]string, 0, len(f.Triggers)+len(f.Initialize))
	for _, t := range f.Triggers {
		out = append(out, "trigger:"+string(t))
	}
	for _, def := range f.Initialize {
		out = append(out, "init:"+def.String())
	}
	return out
}
