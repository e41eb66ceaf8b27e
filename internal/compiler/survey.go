package compiler

import (
	"github.com/u-ask/uask-dom-sub000/internal/ir"
	"github.com/u-ask/uask-dom-sub000/internal/rule"
	"github.com/u-ask/uask-dom-sub000/internal/survey"
	"github.com/u-ask/uask-dom-sub000/internal/workflow"
)

// Survey is a compiled survey definition.
type Survey struct {
	Name       string
	Registry   *survey.Registry
	PageSets   []*survey.PageSet
	Rules      []*rule.CrossRule
	Workflows  []*workflow.Workflow
	Definition *Definition
}

// PageSet returns the page set of an interview type.
func (s *Survey) PageSet(typ string) (*survey.PageSet, bool) {
	for _, ps := range s.PageSets {
		if ps.Type == typ {
			return ps, true
		}
	}
	return nil, false
}

// Workflow returns the workflow named name.
func (s *Survey) Workflow(name string) (*workflow.Workflow, bool) {
	for _, w := range s.Workflows {
		if w.Name() == name {
			return w, true
		}
	}
	return nil, false
}

// MainWorkflow returns the workflow named "main", or the first declared
// main workflow.
func (s *Survey) MainWorkflow() *workflow.Workflow {
	if w, ok := s.Workflow("main"); ok {
		return w
	}
	for _, w := range s.Workflows {
		if w.Main() == nil {
			return w
		}
	}
	return nil
}

// Summary renders the compiled survey as a value object.
func (s *Survey) Summary() ir.Object {
	items := ir.Array{}
	for _, def := range s.Registry.Items() {
		units := ir.Array{}
		for _, u := range def.Units {
			units = append(units, ir.String(u))
		}
		items = append(items, ir.Object{
			"variable": ir.String(def.Variable),
			"type":     ir.String(def.Type),
			"array":    ir.Bool(def.Array),
			"units":    units,
		})
	}

	pageSets := ir.Object{}
	for _, ps := range s.PageSets {
		names := ir.Array{}
		for _, def := range ps.Items {
			names = append(names, ir.String(def.Variable))
		}
		pageSets[ps.Type] = names
	}

	rules := ir.Array{}
	for _, r := range s.Rules {
		bound := ir.Array{}
		for _, it := range r.Items {
			bound = append(bound, ir.String(it.String()))
		}
		rules = append(rules, ir.Object{
			"name":       ir.String(r.Name()),
			"precedence": ir.Number(r.Precedence()),
			"when":       ir.String(r.When),
			"items":      bound,
			"args":       r.Args(),
		})
	}

	workflows := ir.Object{}
	for _, w := range s.Workflows {
		entry := ir.Object{"types": stringArray(w.Types())}
		if main := w.Main(); main != nil {
			entry["main"] = ir.String(main.Name())
		} else {
			entry["info"] = ir.String(w.Info())
			entry["sequence"] = stringArray(w.Sequence())
			entry["single"] = stringArray(w.Single())
			entry["many"] = stringArray(w.Many())
			entry["stop"] = stringArray(w.Stop())
		}
		workflows[w.Name()] = entry
	}

	return ir.Object{
		"survey":    ir.String(s.Name),
		"items":     items,
		"pageSets":  pageSets,
		"rules":     rules,
		"workflows": workflows,
	}
}

func stringArray(values []string) ir.Array {
	out := ir.Array{}
	for _, v := range values {
		out = append(out, ir.String(v))
	}
	return out
}
