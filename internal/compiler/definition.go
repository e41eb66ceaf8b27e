package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/token"

	"github.com/u-ask/uask-dom-sub000/internal/ir"
)

// Definition is a parsed survey: declarations only, no name resolved.
type Definition struct {
	Name      string
	Items     []ItemDecl
	PageSets  []PageSetDecl
	Rules     []RuleDecl
	Workflows []WorkflowDecl
}

// ItemDecl declares one item.
type ItemDecl struct {
	Variable string
	Type     string
	Array    bool
	Units    []string
	Pos      token.Pos
}

// PageSetDecl declares an interview type and the items it collects.
type PageSetDecl struct {
	Type  string
	Items []string
	Pos   token.Pos
}

// RuleDecl declares one cross-item rule. Item names may carry a level
// prefix: @ for globals, $ for the previous record.
//
// Bound items are Items followed by Target. A named Formula makes a
// computed rule whose bound items are the formula variables, target
// last. A Dynamic formula computes the rule arguments at run time from
// its own variables, which are bound ahead of the rule's items.
type RuleDecl struct {
	Index   int
	Rule    string
	Target  string
	Items   []string
	Args    ir.Array
	Formula string
	Dynamic string
	When    string
	Pos     token.Pos
}

// WorkflowDecl declares a main workflow, or a derived one when Main is
// set.
type WorkflowDecl struct {
	Name      string
	Home      string
	Initial   []string
	FollowUp  []string
	Auxiliary []string
	Once      []string
	End       []string
	Main      string
	Types     []string
	Pos       token.Pos
}

// Derived reports whether the workflow restricts another one.
func (w WorkflowDecl) Derived() bool { return w.Main != "" }

// Parse walks a CUE survey value into a Definition.
//
//	ctx := cuecontext.New()
//	def, err := Parse(ctx.CompileString(src))
func Parse(v cue.Value) (*Definition, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	def := &Definition{}
	var err error
	if def.Name, err = optionalString(v, "survey"); err != nil {
		return nil, err
	}
	if def.Items, err = parseItems(v); err != nil {
		return nil, err
	}
	if def.PageSets, err = parsePageSets(v); err != nil {
		return nil, err
	}
	if def.Rules, err = parseRules(v); err != nil {
		return nil, err
	}
	if def.Workflows, err = parseWorkflows(v); err != nil {
		return nil, err
	}
	if len(def.Items) == 0 {
		return nil, &CompileError{Field: "items", Message: "at least one item is required", Pos: v.Pos()}
	}
	return def, nil
}

func parseItems(v cue.Value) ([]ItemDecl, error) {
	itemsVal := v.LookupPath(cue.ParsePath("items"))
	if !itemsVal.Exists() {
		return nil, nil
	}
	iter, err := itemsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var items []ItemDecl
	for iter.Next() {
		name := iter.Label()
		val := iter.Value()
		item := ItemDecl{Variable: name, Pos: val.Pos()}

		typeVal := val.LookupPath(cue.ParsePath("type"))
		if !typeVal.Exists() {
			return nil, &CompileError{
				Field:   "items." + name + ".type",
				Message: "item type is required",
				Pos:     val.Pos(),
			}
		}
		if item.Type, err = typeVal.String(); err != nil {
			return nil, formatCUEError(err)
		}

		if arr := val.LookupPath(cue.ParsePath("array")); arr.Exists() {
			if item.Array, err = arr.Bool(); err != nil {
				return nil, formatCUEError(err)
			}
		}
		if item.Units, err = optionalStrings(val, "units"); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func parsePageSets(v cue.Value) ([]PageSetDecl, error) {
	psVal := v.LookupPath(cue.ParsePath("pageSets"))
	if !psVal.Exists() {
		return nil, nil
	}
	iter, err := psVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var pageSets []PageSetDecl
	for iter.Next() {
		val := iter.Value()
		ps := PageSetDecl{Type: iter.Label(), Pos: val.Pos()}
		if ps.Items, err = optionalStrings(val, "items"); err != nil {
			return nil, err
		}
		pageSets = append(pageSets, ps)
	}
	return pageSets, nil
}

func parseRules(v cue.Value) ([]RuleDecl, error) {
	rulesVal := v.LookupPath(cue.ParsePath("rules"))
	if !rulesVal.Exists() {
		return nil, nil
	}
	iter, err := rulesVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var rules []RuleDecl
	for i := 0; iter.Next(); i++ {
		val := iter.Value()
		r := RuleDecl{Index: i, Pos: val.Pos()}
		field := fmt.Sprintf("rules[%d]", i)

		if r.Rule, err = optionalString(val, "rule"); err != nil {
			return nil, err
		}
		if r.Target, err = optionalString(val, "target"); err != nil {
			return nil, err
		}
		if r.Items, err = optionalStrings(val, "items"); err != nil {
			return nil, err
		}
		if r.Formula, err = optionalString(val, "formula"); err != nil {
			return nil, err
		}
		if r.Dynamic, err = optionalString(val, "dynamic"); err != nil {
			return nil, err
		}
		if r.When, err = optionalString(val, "when"); err != nil {
			return nil, err
		}
		if argsVal := val.LookupPath(cue.ParsePath("args")); argsVal.Exists() {
			args, err := toValue(argsVal)
			if err != nil {
				return nil, err
			}
			arr, ok := args.(ir.Array)
			if !ok {
				return nil, &CompileError{Field: field + ".args", Message: "args must be a list", Pos: argsVal.Pos()}
			}
			r.Args = arr
		}

		if r.Rule == "" && r.Formula == "" {
			return nil, &CompileError{Field: field + ".rule", Message: "rule name or formula is required", Pos: val.Pos()}
		}
		rules = append(rules, r)
	}
	return rules, nil
}

func parseWorkflows(v cue.Value) ([]WorkflowDecl, error) {
	wfVal := v.LookupPath(cue.ParsePath("workflows"))
	if !wfVal.Exists() {
		return nil, nil
	}
	iter, err := wfVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var workflows []WorkflowDecl
	for iter.Next() {
		val := iter.Value()
		w := WorkflowDecl{Name: iter.Label(), Pos: val.Pos()}
		for _, f := range []struct {
			path string
			into *string
		}{{"home", &w.Home}, {"main", &w.Main}} {
			if *f.into, err = optionalString(val, f.path); err != nil {
				return nil, err
			}
		}
		for _, f := range []struct {
			path string
			into *[]string
		}{
			{"initial", &w.Initial},
			{"followUp", &w.FollowUp},
			{"auxiliary", &w.Auxiliary},
			{"once", &w.Once},
			{"end", &w.End},
			{"types", &w.Types},
		} {
			if *f.into, err = optionalStrings(val, f.path); err != nil {
				return nil, err
			}
		}
		workflows = append(workflows, w)
	}
	return workflows, nil
}

func optionalString(v cue.Value, path string) (string, error) {
	f := v.LookupPath(cue.ParsePath(path))
	if !f.Exists() {
		return "", nil
	}
	s, err := f.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalStrings(v cue.Value, path string) ([]string, error) {
	f := v.LookupPath(cue.ParsePath(path))
	if !f.Exists() {
		return nil, nil
	}
	iter, err := f.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// toValue converts a concrete CUE value to the value model.
func toValue(v cue.Value) (ir.Value, error) {
	switch v.Kind() {
	case cue.NullKind:
		return ir.Null{}, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.Bool(b), nil
	case cue.IntKind, cue.FloatKind, cue.NumberKind:
		f, err := v.Float64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.Number(f), nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.String(s), nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		arr := ir.Array{}
		for iter.Next() {
			elem, err := toValue(iter.Value())
			if err != nil {
				return nil, err
			}
			arr = append(arr, elem)
		}
		return arr, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		obj := ir.Object{}
		for iter.Next() {
			elem, err := toValue(iter.Value())
			if err != nil {
				return nil, err
			}
			obj[iter.Label()] = elem
		}
		return obj, nil
	default:
		return nil, &CompileError{
			Field:   "value",
			Message: fmt.Sprintf("unsupported value kind: %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}
