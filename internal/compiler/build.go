package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/u-ask/uask-dom-sub000/internal/formula"
	"github.com/u-ask/uask-dom-sub000/internal/rule"
	"github.com/u-ask/uask-dom-sub000/internal/survey"
	"github.com/u-ask/uask-dom-sub000/internal/workflow"
)

// Compile parses, validates and builds a CUE survey value.
// Validation failures are returned as ValidationErrors.
func Compile(v cue.Value, lib *rule.Library) (*Survey, error) {
	def, err := Parse(v)
	if err != nil {
		return nil, err
	}
	if errs := Validate(def, lib); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return Build(def, lib)
}

// Build resolves a validated Definition into runtime objects.
func Build(def *Definition, lib *rule.Library) (*Survey, error) {
	s := &Survey{
		Name:       def.Name,
		Registry:   survey.NewRegistry(),
		Definition: def,
	}

	for _, item := range def.Items {
		if _, err := s.Registry.Define(item.Variable, survey.ItemType(item.Type), item.Array, item.Units...); err != nil {
			return nil, &CompileError{Field: "items." + item.Variable, Message: err.Error(), Pos: item.Pos}
		}
	}

	for _, decl := range def.PageSets {
		ps := &survey.PageSet{Type: decl.Type}
		for _, name := range decl.Items {
			item, ok := s.Registry.Lookup(name)
			if !ok {
				return nil, &CompileError{Field: "pageSets." + decl.Type, Message: fmt.Sprintf("unknown item %q", name), Pos: decl.Pos}
			}
			ps.Items = append(ps.Items, item)
		}
		s.PageSets = append(s.PageSets, ps)
	}

	for _, decl := range def.Rules {
		cr, err := buildRule(s.Registry, lib, decl)
		if err != nil {
			return nil, err
		}
		s.Rules = append(s.Rules, cr)
	}

	mains := make(map[string]*workflow.Workflow)
	for _, decl := range def.Workflows {
		if decl.Derived() {
			continue
		}
		w, err := buildMainWorkflow(decl)
		if err != nil {
			return nil, &CompileError{Field: "workflows." + decl.Name, Message: err.Error(), Pos: decl.Pos}
		}
		mains[decl.Name] = w
		s.Workflows = append(s.Workflows, w)
	}
	for _, decl := range def.Workflows {
		if !decl.Derived() {
			continue
		}
		main, ok := mains[decl.Main]
		if !ok {
			return nil, &CompileError{Field: "workflows." + decl.Name + ".main",
				Message: fmt.Sprintf("unknown main workflow %q", decl.Main), Pos: decl.Pos}
		}
		w, err := main.Derive(decl.Name, decl.Types...)
		if err != nil {
			return nil, &CompileError{Field: "workflows." + decl.Name, Message: err.Error(), Pos: decl.Pos}
		}
		s.Workflows = append(s.Workflows, w)
	}

	return s, nil
}

func buildRule(reg *survey.Registry, lib *rule.Library, decl RuleDecl) (*rule.CrossRule, error) {
	field := fmt.Sprintf("rules[%d]", decl.Index)
	b, verr := decl.plan()
	if verr != nil {
		return nil, &CompileError{Field: verr.Field, Message: verr.Message, Pos: decl.Pos}
	}

	items := make([]rule.ScopedItem, len(b.names))
	for i, name := range b.names {
		si, err := resolveName(reg, name)
		if err != nil {
			return nil, &CompileError{Field: field, Message: err.Error(), Pos: decl.Pos}
		}
		items[i] = si
	}

	var r rule.Rule
	switch {
	case decl.Formula != "":
		f, err := formula.Compile(b.formula)
		if err != nil {
			return nil, &CompileError{Field: field + ".formula", Message: err.Error(), Pos: decl.Pos}
		}
		r = rule.Computed{Formula: f}
	case decl.Dynamic != "":
		factory, ok := lib.Lookup(decl.Rule)
		if !ok {
			return nil, &CompileError{Field: field + ".rule", Message: fmt.Sprintf("unknown rule %q", decl.Rule), Pos: decl.Pos}
		}
		f, err := formula.Compile(b.formula)
		if err != nil {
			return nil, &CompileError{Field: field + ".dynamic", Message: err.Error(), Pos: decl.Pos}
		}
		r = rule.Dynamic{Factory: factory, Static: decl.Args, Formula: f, ArgCount: b.argCount}
	default:
		built, err := lib.Build(decl.Rule, decl.Args)
		if err != nil {
			return nil, &CompileError{Field: field + ".args", Message: err.Error(), Pos: decl.Pos}
		}
		r = built
	}

	cr, err := rule.Bind(r, rule.Trigger(decl.When), items...)
	if err != nil {
		return nil, &CompileError{Field: field, Message: err.Error(), Pos: decl.Pos}
	}
	return cr, nil
}
