package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/u-ask/uask-dom-sub000/internal/compiler"
	"github.com/u-ask/uask-dom-sub000/internal/engine"
	"github.com/u-ask/uask-dom-sub000/internal/ir"
	"github.com/u-ask/uask-dom-sub000/internal/survey"
	"github.com/u-ask/uask-dom-sub000/internal/workflow"
)

// AssertionError is returned when an assertion fails.
// It carries the firing trace to help debug the failure.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []engine.Firing
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, f := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] pass %d %s %s -> %s", f.Seq, f.Pass, f.Interview, f.Rule, f.Target)
			if f.Error != "" {
				fmt.Fprintf(&buf, " (error: %s)", f.Error)
			}
			buf.WriteByte('\n')
		}
	}
	return buf.String()
}

// AssertionContext gives assertions access to the compiled survey.
type AssertionContext struct {
	Survey   *compiler.Survey
	Workflow *workflow.Workflow
}

// EvaluateAssertions checks every assertion against the result and
// returns one message per failure.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(result, a, actx); err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d (%s): %v", i, a.Type, err))
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertValue, AssertUnit, AssertSpecial, AssertMessage:
		item, err := lookupItem(result, a, actx)
		if err != nil {
			return err
		}
		return assertItem(result, a, item)
	case AssertStatus:
		return assertStatus(result, a)
	case AssertNext, AssertAvailable:
		if actx == nil || actx.Workflow == nil {
			return fmt.Errorf("no workflow available")
		}
		return assertWorkflow(result, a, actx.Workflow)
	case AssertFiringCount:
		return assertFiringCount(result.Trace, a)
	case AssertFiringOrder:
		return assertFiringOrder(result.Trace, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func lookupItem(result *Result, a Assertion, actx *AssertionContext) (survey.InterviewItem, error) {
	if actx == nil || actx.Survey == nil {
		return survey.InterviewItem{}, fmt.Errorf("no survey available")
	}
	iv, ok := result.Interview(a.Interview)
	if !ok {
		return survey.InterviewItem{}, fmt.Errorf("unknown interview %q", a.Interview)
	}
	key, err := ParseKey(a.Item)
	if err != nil {
		return survey.InterviewItem{}, err
	}
	def, err := actx.Survey.Registry.Resolve(key)
	if err != nil {
		return survey.InterviewItem{}, err
	}
	item, _ := iv.Get(def)
	return item, nil
}

func assertItem(result *Result, a Assertion, item survey.InterviewItem) error {
	fail := func(expected, actual string) error {
		return &AssertionError{Type: a.Type, Expected: expected, Actual: actual, Trace: result.Trace}
	}
	where := fmt.Sprintf("%s in %s", a.Item, a.Interview)

	switch a.Type {
	case AssertValue:
		expected, err := ir.FromAny(a.Expect)
		if err != nil {
			return err
		}
		if !valuesEqual(expected, item.Value) {
			return fail(fmt.Sprintf("%s = %s", where, ir.Format(expected)), ir.Format(item.Value))
		}
	case AssertUnit:
		expected := fmt.Sprint(a.Expect)
		if a.Expect == nil {
			expected = ""
		}
		if item.Unit != expected {
			return fail(fmt.Sprintf("%s unit %q", where, expected), fmt.Sprintf("%q", item.Unit))
		}
	case AssertSpecial:
		expected := survey.SpecialNone
		if a.Expect != nil {
			expected = survey.Special(fmt.Sprint(a.Expect))
		}
		if item.Special != expected {
			return fail(fmt.Sprintf("%s special %q", where, expected), fmt.Sprintf("%q", item.Special))
		}
	case AssertMessage:
		want := a.Present == nil || *a.Present
		text, got := item.Messages.Get(a.Rule)
		if got != want {
			verb := "no message"
			if want {
				verb = "a message"
			}
			actual := "none"
			if got {
				actual = fmt.Sprintf("%q", text)
			}
			return fail(fmt.Sprintf("%s has %s for %s", where, verb, a.Rule), actual)
		}
		if want && a.Expect != nil && text != fmt.Sprint(a.Expect) {
			return fail(fmt.Sprintf("%s message %q", where, a.Expect), fmt.Sprintf("%q", text))
		}
	}
	return nil
}

// valuesEqual compares values, treating numbers within 1e-9 as equal so
// YAML decimals match computed results.
func valuesEqual(expected, actual ir.Value) bool {
	en, eok := expected.(ir.Number)
	an, aok := actual.(ir.Number)
	if eok && aok {
		d := float64(en - an)
		return d < 1e-9 && d > -1e-9
	}
	return ir.Equal(expected, actual)
}

func assertStatus(result *Result, a Assertion) error {
	iv, ok := result.Interview(a.Interview)
	if !ok {
		return fmt.Errorf("unknown interview %q", a.Interview)
	}
	expected := survey.Status(fmt.Sprint(a.Expect))
	if actual := iv.Status(); actual != expected {
		return &AssertionError{
			Type:     AssertStatus,
			Expected: fmt.Sprintf("%s is %s", a.Interview, expected),
			Actual:   string(actual),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertWorkflow checks next and available types against the executed
// participant's interview types.
func assertWorkflow(result *Result, a Assertion, w *workflow.Workflow) error {
	done := result.Participant.Types()
	if a.Type == AssertNext {
		expected := ""
		if a.Expect != nil {
			expected = fmt.Sprint(a.Expect)
		}
		if actual := w.Next(done...); actual != expected {
			return &AssertionError{
				Type:     AssertNext,
				Expected: fmt.Sprintf("next after %v is %q", done, expected),
				Actual:   fmt.Sprintf("%q", actual),
			}
		}
		return nil
	}

	actual := w.Available(done...)
	if !slices.Equal(actual, a.Types) {
		return &AssertionError{
			Type:     AssertAvailable,
			Expected: fmt.Sprintf("available after %v is %v", done, a.Types),
			Actual:   fmt.Sprintf("%v", actual),
		}
	}
	return nil
}

// assertFiringCount checks how many times a rule fired, optionally on one
// target.
func assertFiringCount(trace []engine.Firing, a Assertion) error {
	count := 0
	for _, f := range trace {
		if f.Rule == a.Rule && (a.Target == "" || f.Target == a.Target) {
			count++
		}
	}
	if count != a.Count {
		subject := a.Rule
		if a.Target != "" {
			subject += " on " + a.Target
		}
		return &AssertionError{
			Type:     AssertFiringCount,
			Expected: fmt.Sprintf("%s fired %d times", subject, a.Count),
			Actual:   fmt.Sprintf("fired %d times", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertFiringOrder checks that the first firing of each rule appears in
// the given order. Intervening firings are allowed.
func assertFiringOrder(trace []engine.Firing, a Assertion) error {
	positions := make([]int, len(a.Rules))
	for i, name := range a.Rules {
		positions[i] = slices.IndexFunc(trace, func(f engine.Firing) bool {
			return f.Rule == name
		})
		if positions[i] < 0 {
			return &AssertionError{
				Type:     AssertFiringOrder,
				Expected: fmt.Sprintf("rule %s in trace", name),
				Actual:   "never fired",
				Trace:    trace,
			}
		}
	}
	for i := 1; i < len(positions); i++ {
		if positions[i] < positions[i-1] {
			return &AssertionError{
				Type:     AssertFiringOrder,
				Expected: fmt.Sprintf("order %v", a.Rules),
				Actual:   fmt.Sprintf("%s fired before %s", a.Rules[i], a.Rules[i-1]),
				Trace:    trace,
			}
		}
	}
	return nil
}
