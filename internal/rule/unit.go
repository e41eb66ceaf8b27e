package rule

import (
	"fmt"
	"math"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/u-ask/uask-dom-sub000/internal/ir"
	"github.com/u-ask/uask-dom-sub000/internal/survey"
)

// Required flags an item with neither a value nor a special tag.
type Required struct{}

func (Required) Name() string    { return survey.RequiredRuleName }
func (Required) Precedence() int { return PrecedenceRequired }
func (Required) Args() ir.Object { return ir.Object{} }

func (r Required) Apply(item survey.InterviewItem) (survey.InterviewItem, error) {
	return setMessage(item, r.Name(), !item.IsAnswered(), "value is required"), nil
}

// Critical raises an event message when the item takes one of Values, or
// any value when Values is empty.
type Critical struct {
	Event   string
	Message string
	Values  ir.Array
}

func (Critical) Name() string    { return "critical" }
func (Critical) Precedence() int { return PrecedenceRequired }

func (c Critical) Args() ir.Object {
	return ir.Object{"event": ir.String(c.Event), "values": c.Values}
}

func (c Critical) Apply(item survey.InterviewItem) (survey.InterviewItem, error) {
	triggered := item.Value != nil
	if triggered && len(c.Values) > 0 {
		triggered = false
		for _, v := range c.Values {
			if ir.Equal(v, item.Value) {
				triggered = true
				break
			}
		}
	}
	text := c.Message
	if text == "" {
		text = c.Event
	}
	return setMessage(item, c.Name(), triggered, text), nil
}

// InRange checks a number or ISO date against inclusive bounds.
// A nil bound is open.
type InRange struct {
	Min ir.Value
	Max ir.Value
}

func (InRange) Name() string    { return "inRange" }
func (InRange) Precedence() int { return PrecedenceCheck }

func (r InRange) Args() ir.Object {
	return ir.Object{"min": r.Min, "max": r.Max}
}

func (r InRange) Apply(item survey.InterviewItem) (survey.InterviewItem, error) {
	if item.Value == nil {
		return setMessage(item, r.Name(), false, ""), nil
	}
	below, err := less(item.Value, r.Min)
	if err != nil {
		return item, err
	}
	above, err := less(r.Max, item.Value)
	if err != nil {
		return item, err
	}
	text := fmt.Sprintf("value must be in range [%s, %s]", bound(r.Min, "-∞"), bound(r.Max, "+∞"))
	return setMessage(item, r.Name(), below || above, text), nil
}

func bound(v ir.Value, open string) string {
	if v == nil {
		return open
	}
	return ir.Format(v)
}

// less compares two numbers or two strings; nil on either side is false.
func less(a, b ir.Value) (bool, error) {
	if a == nil || b == nil {
		return false, nil
	}
	switch av := a.(type) {
	case ir.Number:
		if bv, ok := b.(ir.Number); ok {
			return av < bv, nil
		}
	case ir.String:
		if bv, ok := b.(ir.String); ok {
			return av < bv, nil
		}
	}
	return false, fmt.Errorf("cannot compare %s with %s", ir.Format(a), ir.Format(b))
}

// MaxLength limits the length of a text answer, counted in characters.
type MaxLength struct {
	Length int
}

func (MaxLength) Name() string      { return "maxLength" }
func (MaxLength) Precedence() int   { return PrecedenceCheck }
func (m MaxLength) Args() ir.Object { return ir.Object{"length": ir.Number(m.Length)} }

func (m MaxLength) Apply(item survey.InterviewItem) (survey.InterviewItem, error) {
	s, ok := item.Value.(ir.String)
	failed := ok && utf8.RuneCountInString(string(s)) > m.Length
	return setMessage(item, m.Name(), failed, fmt.Sprintf("text must be at most %d characters", m.Length)), nil
}

// FixedLength requires a text answer of exactly Length characters.
type FixedLength struct {
	Length int
}

func (FixedLength) Name() string      { return "fixedLength" }
func (FixedLength) Precedence() int   { return PrecedenceCheck }
func (f FixedLength) Args() ir.Object { return ir.Object{"length": ir.Number(f.Length)} }

func (f FixedLength) Apply(item survey.InterviewItem) (survey.InterviewItem, error) {
	var failed bool
	switch v := item.Value.(type) {
	case ir.String:
		failed = utf8.RuneCountInString(string(v)) != f.Length
	case ir.Number:
		failed = len(ir.FormatNumber(float64(v))) != f.Length
	}
	return setMessage(item, f.Name(), failed, fmt.Sprintf("length must be %d", f.Length)), nil
}

// DecimalPrecision rounds a numerical answer to Precision decimals.
type DecimalPrecision struct {
	Precision int
}

func (DecimalPrecision) Name() string      { return "decimalPrecision" }
func (DecimalPrecision) Precedence() int   { return PrecedenceCheck }
func (d DecimalPrecision) Args() ir.Object { return ir.Object{"precision": ir.Number(d.Precision)} }

func (d DecimalPrecision) Apply(item survey.InterviewItem) (survey.InterviewItem, error) {
	n, ok := item.Value.(ir.Number)
	if !ok {
		return item, nil
	}
	scale := math.Pow(10, float64(d.Precision))
	return item.WithValue(ir.Number(math.Round(float64(n)*scale) / scale)), nil
}

// LetterCase rewrites a text answer to upper or lower case.
type LetterCase struct {
	Case string
}

const (
	UpperCase = "upper"
	LowerCase = "lower"
)

func (LetterCase) Name() string      { return "letterCase" }
func (LetterCase) Precedence() int   { return PrecedenceCheck }
func (l LetterCase) Args() ir.Object { return ir.Object{"case": ir.String(l.Case)} }

func (l LetterCase) Apply(item survey.InterviewItem) (survey.InterviewItem, error) {
	s, ok := item.Value.(ir.String)
	if !ok {
		return item, nil
	}
	var caser cases.Caser
	switch l.Case {
	case UpperCase:
		caser = cases.Upper(language.Und)
	case LowerCase:
		caser = cases.Lower(language.Und)
	default:
		return item, fmt.Errorf("letterCase: unknown case %q", l.Case)
	}
	return item.WithValue(ir.String(caser.String(string(s)))), nil
}

// Constant sets the item to a fixed value.
type Constant struct {
	Value ir.Value
}

func (Constant) Name() string      { return "constant" }
func (Constant) Precedence() int   { return PrecedenceDerivation }
func (c Constant) Args() ir.Object { return ir.Object{"value": c.Value} }

func (c Constant) Apply(item survey.InterviewItem) (survey.InterviewItem, error) {
	return item.WithValue(c.Value), nil
}
