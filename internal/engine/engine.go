package engine

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/u-ask/uask-dom-sub000/internal/rule"
	"github.com/u-ask/uask-dom-sub000/internal/scope"
	"github.com/u-ask/uask-dom-sub000/internal/survey"
)

// Engine applies cross-item rules to scopes and participants.
//
// An Engine holds no per-execution state beyond its firing sequence;
// Execute may be called from several goroutines on independent scopes.
type Engine struct {
	registry *survey.Registry
	logger   *slog.Logger
	cache    Cache
	observer Observer
	seq      firingSeq
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithLogger sets the logger receiving skip and fault records.
// Default: slog.Default().
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithCache memoizes Execute results.
func WithCache(c Cache) EngineOption {
	return func(e *Engine) {
		e.cache = c
	}
}

// WithObserver reports every firing to o.
func WithObserver(o Observer) EngineOption {
	return func(e *Engine) {
		e.observer = o
	}
}

// New creates an Engine. The registry owns the array instance chains the
// rules' items belong to.
func New(reg *survey.Registry, opts ...EngineOption) *Engine {
	e := &Engine{
		registry: reg,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// pass is the accumulator threaded through one execution pass.
type pass struct {
	number    int
	scope     *scope.Scope
	activated []survey.Key
}

// Execute applies rules to the local record of s and returns the updated
// scope. Rules are applied in Order; see the package documentation for
// the two-pass contract.
func (e *Engine) Execute(rules []*rule.CrossRule, s *scope.Scope, f Filter) *scope.Scope {
	var key string
	if e.cache != nil {
		key = e.cacheKey(rules, s, f)
		if key != "" {
			if iv, ok := e.cache.Get(key); ok {
				return s.With(iv.Items...)
			}
		}
	}

	out := e.execute(Order(rules), s, f)

	if key != "" {
		e.cache.Put(key, out.Interview())
	}
	return out
}

func (e *Engine) execute(ordered []*rule.CrossRule, s *scope.Scope, f Filter) *scope.Scope {
	seeded, eligible := f.seed(s)

	first := pass{number: 1, scope: seeded}
	for _, r := range ordered {
		only, ok := f.admits(r, eligible)
		if !ok {
			continue
		}
		first = e.apply(first, r, only)
	}

	if len(first.activated) == 0 {
		return first.scope
	}

	second := pass{number: 2, scope: first.scope}
	for _, r := range ordered {
		if r.When != rule.Initialization {
			continue
		}
		only, ok := restrictTo(r, first.activated)
		if !ok {
			continue
		}
		second = e.apply(second, r, only)
	}
	return second.scope
}

func (e *Engine) cacheKey(rules []*rule.CrossRule, s *scope.Scope, f Filter) string {
	rulesFP, err := RuleSetFingerprint(rules)
	if err == nil {
		var key string
		if key, err = cacheKey(rulesFP, s, f); err == nil {
			return key
		}
	}
	e.logger.Debug("execution not cacheable", "error", err)
	return ""
}

// apply fires r once, or once per existing instance for array rules.
// Iteration stops at the first instance with an absent item: instances
// are assumed contiguous.
func (e *Engine) apply(p pass, r *rule.CrossRule, only func(survey.Key) bool) pass {
	if !r.IsArray() {
		next, _ := e.fire(p, r, r.Items, only)
		return next
	}
	for n := 1; ; n++ {
		next, absent := e.fire(p, r, r.Instance(e.registry, n), only)
		if absent {
			return p
		}
		p = next
	}
}

// fire resolves bindings and executes r once. It reports whether any
// bound item was absent.
func (e *Engine) fire(p pass, r *rule.CrossRule, bindings []rule.ScopedItem, only func(survey.Key) bool) (pass, bool) {
	last := len(bindings) - 1
	target := bindings[last]
	interview := p.scope.Interview().ID

	items := make([]survey.InterviewItem, len(bindings))
	targetMissing := false
	for i, b := range bindings {
		item, res := p.scope.Get(b.Item, b.Level)
		switch res {
		case scope.Absent:
			e.logger.Debug("rule skipped", "rule", r.Name(), "target", target.String(),
				"interview", interview, "absent", b.String())
			return p, true
		case scope.Missing:
			if i == last {
				targetMissing = true
			}
		}
		items[i] = item
	}
	if only != nil && !only(target.Item.Key()) {
		return p, false
	}
	if targetMissing {
		e.logger.Debug("rule skipped", "rule", r.Name(), "target", target.String(),
			"interview", interview, "missing", target.String())
		return p, false
	}

	env := rule.Env{}
	if prev, res := p.scope.Get(target.Item, scope.Outer); res == scope.Found {
		env.Memento = prev.Memento
	}

	out, err := e.run(r, target, env, items)
	firing := Firing{
		Seq:       e.seq.next(),
		Pass:      p.number,
		Interview: interview,
		Rule:      r.Name(),
		Target:    target.String(),
	}
	if err != nil {
		// Log and continue: a faulty rule leaves its items unchanged.
		e.logger.Warn("rule execution failed", "rule", r.Name(), "target", target.String(),
			"interview", interview, "error", err)
		firing.Error = err.Error()
		e.notify(firing)
		return p, false
	}

	var writes []survey.InterviewItem
	for i, b := range bindings {
		if b.Level != scope.Local {
			continue
		}
		updated := out[i]
		updated.Item = b.Item
		if updated.Equal(items[i]) {
			continue
		}
		if items[i].Special == survey.NotApplicable && updated.Special != survey.NotApplicable {
			p.activated = append(slices.Clip(p.activated), b.Item.Key())
		}
		writes = append(writes, updated)
	}

	firing.Changed = len(writes) > 0
	e.notify(firing)
	p.scope = p.scope.With(writes...)
	return p, false
}

// run executes r, converting errors and panics into *RuntimeError.
func (e *Engine) run(r *rule.CrossRule, target rule.ScopedItem, env rule.Env, items []survey.InterviewItem) (out []survey.InterviewItem, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &RuntimeError{
				Code:    ErrCodeRuleFault,
				Message: fmt.Sprintf("panic: %v", rec),
				Rule:    r.Name(),
				Target:  target.String(),
			}
		}
	}()

	out, err = r.Execute(env, items...)
	if err != nil {
		return nil, &RuntimeError{
			Code:    ErrCodeRuleFault,
			Message: err.Error(),
			Rule:    r.Name(),
			Target:  target.String(),
			Err:     err,
		}
	}
	if len(out) != len(items) {
		return nil, &RuntimeError{
			Code:    ErrCodeBadArity,
			Message: fmt.Sprintf("returned %d items for %d bound", len(out), len(items)),
			Rule:    r.Name(),
			Target:  target.String(),
		}
	}
	return out, nil
}

func (e *Engine) notify(f Firing) {
	if e.observer != nil {
		e.observer.OnFiring(f)
	}
}
