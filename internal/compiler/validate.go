package compiler

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/u-ask/uask-dom-sub000/internal/formula"
	"github.com/u-ask/uask-dom-sub000/internal/rule"
	"github.com/u-ask/uask-dom-sub000/internal/scope"
	"github.com/u-ask/uask-dom-sub000/internal/survey"
	"github.com/u-ask/uask-dom-sub000/internal/workflow"
)

// Validation error codes (E200-E299)
const (
	// Item errors (E201-E202)
	ErrInvalidItemType = "E201" // unknown item type
	ErrInvalidItemName = "E202" // malformed or reserved item name

	// Reference errors (E203-E206)
	ErrUnknownItem  = "E203" // page set or rule names an undeclared item
	ErrUnknownRule  = "E204" // rule name not in the library
	ErrInvalidWhen  = "E205" // trigger is not always or initialization
	ErrInvalidLevel = "E206" // level prefix misuse

	// Rule errors (E207-E208, E212)
	ErrInvalidFormula = "E207" // formula fails to compile
	ErrMissingTarget  = "E208" // rule binds no item
	ErrInvalidArgs    = "E212" // rule arguments rejected

	// Workflow errors (E209-E211)
	ErrUnknownPageSet  = "E209" // workflow names an undeclared page set
	ErrUnknownWorkflow = "E210" // derived workflow names an unknown main workflow
	ErrInvalidWorkflow = "E211" // workflow partition is inconsistent
)

const computedRule = "computed"

// itemNamePattern matches identifiers usable in formulas.
var itemNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidationError represents a survey validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidationErrors is returned by Compile when validation fails.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}

// Validate checks the references of a parsed survey against lib.
// Returns all errors found (does not fail-fast).
func Validate(def *Definition, lib *rule.Library) []ValidationError {
	var errs []ValidationError

	declared := make(map[string]bool, len(def.Items))
	for _, item := range def.Items {
		field := fmt.Sprintf("items.%s", item.Variable)
		declared[item.Variable] = true

		if !survey.ItemType(item.Type).Valid() {
			errs = append(errs, ValidationError{
				Field:   field + ".type",
				Message: fmt.Sprintf("invalid item type %q", item.Type),
				Code:    ErrInvalidItemType,
				Line:    item.Pos.Line(),
			})
		}
		switch _, global := survey.GlobalItem(item.Variable); {
		case !itemNamePattern.MatchString(item.Variable):
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("item name %q is not an identifier", item.Variable),
				Code:    ErrInvalidItemName,
				Line:    item.Pos.Line(),
			})
		case formula.IsHelper(item.Variable) || global:
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("item name %q is reserved", item.Variable),
				Code:    ErrInvalidItemName,
				Line:    item.Pos.Line(),
			})
		}
	}

	pageSetTypes := make(map[string]bool, len(def.PageSets))
	for _, ps := range def.PageSets {
		pageSetTypes[ps.Type] = true
		for j, name := range ps.Items {
			if !declared[name] {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("pageSets.%s.items[%d]", ps.Type, j),
					Message: fmt.Sprintf("unknown item %q", name),
					Code:    ErrUnknownItem,
					Line:    ps.Pos.Line(),
				})
			}
		}
	}

	for _, r := range def.Rules {
		errs = append(errs, validateRule(r, declared, lib)...)
	}

	errs = append(errs, validateWorkflows(def.Workflows, pageSetTypes)...)
	return errs
}

func validateRule(r RuleDecl, declared map[string]bool, lib *rule.Library) []ValidationError {
	var errs []ValidationError
	field := fmt.Sprintf("rules[%d]", r.Index)
	line := r.Pos.Line()

	if r.When != "" && r.When != string(rule.Always) && r.When != string(rule.Initialization) {
		errs = append(errs, ValidationError{
			Field:   field + ".when",
			Message: fmt.Sprintf("invalid trigger %q, must be \"always\" or \"initialization\"", r.When),
			Code:    ErrInvalidWhen,
			Line:    line,
		})
	}

	b, verr := r.plan()
	if verr != nil {
		verr.Line = line
		return append(errs, *verr)
	}

	for i, name := range b.names {
		variable, level := scope.ParseName(name)
		itemField := fmt.Sprintf("%s.items[%d]", field, i)
		switch {
		case level == scope.Global:
			if _, ok := survey.GlobalItem(variable); !ok {
				errs = append(errs, ValidationError{Field: itemField, Code: ErrInvalidLevel, Line: line,
					Message: fmt.Sprintf("%q is not a global item", variable)})
			}
		case !declared[variable]:
			errs = append(errs, ValidationError{Field: itemField, Code: ErrUnknownItem, Line: line,
				Message: fmt.Sprintf("unknown item %q", variable)})
		}
	}
	if _, level := scope.ParseName(b.target()); level != scope.Local {
		errs = append(errs, ValidationError{Field: field + ".target", Code: ErrInvalidLevel, Line: line,
			Message: fmt.Sprintf("target %q must be an item of the current record", b.target())})
	}

	switch {
	case b.formula != "":
		f, err := formula.Compile(b.formula)
		if err != nil {
			errs = append(errs, ValidationError{Field: field + ".formula", Code: ErrInvalidFormula, Line: line,
				Message: err.Error()})
			break
		}
		available := len(b.names)
		if r.Dynamic != "" {
			available = b.argCount
		}
		if f.Arity() > available {
			errs = append(errs, ValidationError{Field: field + ".formula", Code: ErrInvalidFormula, Line: line,
				Message: fmt.Sprintf("formula uses $%d but only %d items are bound", f.Arity(), available)})
		}
		if r.Dynamic != "" {
			if _, ok := lib.Lookup(r.Rule); !ok {
				errs = append(errs, ValidationError{Field: field + ".rule", Code: ErrUnknownRule, Line: line,
					Message: fmt.Sprintf("unknown rule %q", r.Rule)})
			}
		}
	default:
		if _, ok := lib.Lookup(r.Rule); !ok {
			errs = append(errs, ValidationError{Field: field + ".rule", Code: ErrUnknownRule, Line: line,
				Message: fmt.Sprintf("unknown rule %q", r.Rule)})
			break
		}
		if _, err := lib.Build(r.Rule, r.Args); err != nil {
			errs = append(errs, ValidationError{Field: field + ".args", Code: ErrInvalidArgs, Line: line,
				Message: err.Error()})
		}
	}

	if n, ok := pairRules[r.Rule]; ok && r.Formula == "" && len(b.names)-b.argCount != n {
		errs = append(errs, ValidationError{Field: field + ".items", Code: ErrInvalidArgs, Line: line,
			Message: fmt.Sprintf("%s binds exactly %d items, got %d", r.Rule, n, len(b.names)-b.argCount)})
	}
	return errs
}

// pairRules lists rules reading a source item into a target item.
var pairRules = map[string]int{"copy": 2, "activation": 2}

func validateWorkflows(decls []WorkflowDecl, pageSetTypes map[string]bool) []ValidationError {
	var errs []ValidationError
	mains := make(map[string]*workflow.Workflow)

	checkTypes := func(w WorkflowDecl, part string, types []string) {
		for i, t := range types {
			if !pageSetTypes[t] {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("workflows.%s.%s[%d]", w.Name, part, i),
					Message: fmt.Sprintf("unknown page set %q", t),
					Code:    ErrUnknownPageSet,
					Line:    w.Pos.Line(),
				})
			}
		}
	}

	for _, w := range decls {
		if w.Derived() {
			continue
		}
		if w.Home != "" {
			checkTypes(w, "home", []string{w.Home})
		}
		checkTypes(w, "initial", w.Initial)
		checkTypes(w, "followUp", w.FollowUp)
		checkTypes(w, "auxiliary", w.Auxiliary)
		checkTypes(w, "once", w.Once)
		checkTypes(w, "end", w.End)
		if len(w.Types) > 0 {
			errs = append(errs, ValidationError{Field: "workflows." + w.Name + ".types", Code: ErrInvalidWorkflow,
				Line: w.Pos.Line(), Message: "types only apply to derived workflows"})
		}

		built, err := buildMainWorkflow(w)
		if err != nil {
			errs = append(errs, ValidationError{Field: "workflows." + w.Name, Code: ErrInvalidWorkflow,
				Line: w.Pos.Line(), Message: err.Error()})
			continue
		}
		mains[w.Name] = built
	}

	for _, w := range decls {
		if !w.Derived() {
			continue
		}
		field := "workflows." + w.Name
		if w.Home != "" || len(w.Initial)+len(w.FollowUp)+len(w.Auxiliary)+len(w.Once)+len(w.End) > 0 {
			errs = append(errs, ValidationError{Field: field, Code: ErrInvalidWorkflow, Line: w.Pos.Line(),
				Message: "a derived workflow only lists types"})
		}
		main, ok := mains[w.Main]
		if !ok {
			if !slices.ContainsFunc(decls, func(d WorkflowDecl) bool { return d.Name == w.Main && !d.Derived() }) {
				errs = append(errs, ValidationError{Field: field + ".main", Code: ErrUnknownWorkflow,
					Line: w.Pos.Line(), Message: fmt.Sprintf("unknown main workflow %q", w.Main)})
			}
			continue
		}
		if _, err := main.Derive(w.Name, w.Types...); err != nil {
			errs = append(errs, ValidationError{Field: field + ".types", Code: ErrInvalidWorkflow,
				Line: w.Pos.Line(), Message: err.Error()})
		}
	}
	return errs
}

func buildMainWorkflow(w WorkflowDecl) (*workflow.Workflow, error) {
	b := workflow.NewBuilder(w.Name)
	if w.Home != "" {
		b.Home(w.Home)
	}
	return b.Initial(w.Initial...).
		FollowUp(w.FollowUp...).
		Auxiliary(w.Auxiliary...).
		Once(w.Once...).
		End(w.End...).
		Build()
}
