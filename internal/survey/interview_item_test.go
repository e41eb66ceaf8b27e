package survey

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/u-ask/uask-dom-sub000/internal/ir"
)

func TestValueAndSpecialExclusive(t *testing.T) {
	def := &ItemDef{Variable: "AGE", Type: TypeNumerical}
	item := NewInterviewItem(def, ir.Number(40)).WithUnit("y")

	unknown := item.WithSpecial(Unknown)
	assert.Nil(t, unknown.Value)
	assert.Empty(t, unknown.Unit)
	assert.Equal(t, Unknown, unknown.Special)

	answered := unknown.WithValue(ir.Number(41))
	assert.Equal(t, ir.Number(41), answered.Value)
	assert.Equal(t, SpecialNone, answered.Special)

	// Clearing the value keeps the tag.
	cleared := unknown.WithValue(nil)
	assert.Equal(t, Unknown, cleared.Special)

	// Receiver untouched.
	assert.Equal(t, ir.Number(40), item.Value)
}

func TestActivation(t *testing.T) {
	def := &ItemDef{Variable: "DOSE", Type: TypeNumerical}
	item := NewInterviewItem(def, ir.Number(5)).WithUnit("mg")

	off := item.Deactivate()
	assert.Nil(t, off.Value)
	assert.Empty(t, off.Unit)
	assert.Equal(t, NotApplicable, off.Special)
	assert.Equal(t, ir.Null{}, off.FormulaValue())

	on := off.Activate()
	assert.Equal(t, SpecialNone, on.Special)
	assert.Nil(t, on.Value, "reactivation does not restore the old value")

	// Activate leaves other tags alone.
	assert.Equal(t, NotDone, item.WithSpecial(NotDone).Activate().Special)
}

func TestWithMemento(t *testing.T) {
	def := &ItemDef{Variable: "W", Type: TypeNumerical}
	item := NewInterviewItem(def, ir.Number(1))

	first := item.WithMemento(ir.Number(70))
	assert.Equal(t, 1, first.Context)

	same := first.WithMemento(ir.Number(70))
	assert.Equal(t, 1, same.Context)

	changed := same.WithMemento(ir.Number(72))
	assert.Equal(t, 2, changed.Context)
	assert.Equal(t, ir.Number(72), changed.Memento)
}

func TestInterviewItemEqual(t *testing.T) {
	def := &ItemDef{Variable: "W", Type: TypeNumerical}
	a := NewInterviewItem(def, ir.Number(1))
	b := NewInterviewItem(def, ir.Number(1))
	assert.True(t, a.Equal(b))

	assert.False(t, a.Equal(b.WithMessages(b.Messages.Set("required", "value is required"))))
	assert.False(t, a.Equal(b.WithUnit("kg")))
}
