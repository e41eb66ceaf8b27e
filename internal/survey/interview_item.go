package survey

import (
	"github.com/u-ask/uask-dom-sub000/internal/ir"
)

// Special tags an answer that is not an ordinary value.
type Special string

const (
	SpecialNone   Special = ""
	Unknown       Special = "unknown"
	NotApplicable Special = "notApplicable"
	NotDone       Special = "notDone"
)

// Valid reports whether s is a known special value.
func (s Special) Valid() bool {
	switch s {
	case SpecialNone, Unknown, NotApplicable, NotDone:
		return true
	}
	return false
}

// InterviewItem is the answer captured for one item instance in one record.
//
// A defined Value and a Special tag are never both meaningful: setting a
// value clears the tag and setting a tag clears the value.
type InterviewItem struct {
	Item     *ItemDef
	Value    ir.Value
	Unit     string
	Special  Special
	Messages Messages
	Context  int
	Memento  ir.Value
}

// NewInterviewItem creates an item holding value.
func NewInterviewItem(def *ItemDef, value ir.Value) InterviewItem {
	return InterviewItem{Item: def, Value: value}
}

// Key returns the identity of the underlying item instance.
func (i InterviewItem) Key() Key {
	return i.Item.Key()
}

// WithValue returns a copy holding v. A defined value clears the special tag.
func (i InterviewItem) WithValue(v ir.Value) InterviewItem {
	i.Value = v
	if v != nil {
		i.Special = SpecialNone
	}
	return i
}

// WithUnit returns a copy with unit u.
func (i InterviewItem) WithUnit(u string) InterviewItem {
	i.Unit = u
	return i
}

// WithSpecial returns a copy tagged s. Any tag other than SpecialNone
// clears the value and unit.
func (i InterviewItem) WithSpecial(s Special) InterviewItem {
	i.Special = s
	if s != SpecialNone {
		i.Value = nil
		i.Unit = ""
	}
	return i
}

// WithMessages returns a copy carrying m.
func (i InterviewItem) WithMessages(m Messages) InterviewItem {
	i.Messages = m
	return i
}

// WithMemento returns a copy remembering m. The context counter moves
// forward only when the memento actually changes.
func (i InterviewItem) WithMemento(m ir.Value) InterviewItem {
	if ir.Equal(i.Memento, m) {
		return i
	}
	i.Memento = m
	i.Context++
	return i
}

// Deactivate clears value and unit and marks the item not applicable.
func (i InterviewItem) Deactivate() InterviewItem {
	return i.WithSpecial(NotApplicable)
}

// Activate lifts a not-applicable tag. The old value is not restored.
func (i InterviewItem) Activate() InterviewItem {
	if i.Special == NotApplicable {
		i.Special = SpecialNone
	}
	return i
}

// IsAnswered reports whether the item has a value or a special tag.
func (i InterviewItem) IsAnswered() bool {
	return i.Value != nil || i.Special != SpecialNone
}

// FormulaValue is the value formulas see: null when not applicable.
func (i InterviewItem) FormulaValue() ir.Value {
	if i.Special == NotApplicable {
		return ir.Null{}
	}
	return i.Value
}

// Equal reports whether two record values are identical.
func (i InterviewItem) Equal(other InterviewItem) bool {
	return i.Item == other.Item &&
		ir.Equal(i.Value, other.Value) &&
		i.Unit == other.Unit &&
		i.Special == other.Special &&
		i.Context == other.Context &&
		ir.Equal(i.Memento, other.Memento) &&
		i.Messages.Equal(other.Messages)
}
