package survey

import (
	"fmt"
	"strconv"
)

// ItemType classifies the answer an item expects.
type ItemType string

const (
	TypeNone        ItemType = "none"
	TypeText        ItemType = "text"
	TypeNumerical   ItemType = "numerical"
	TypeCategorical ItemType = "categorical"
	TypeDate        ItemType = "date"
	TypeYesNo       ItemType = "yesno"
)

// Valid reports whether t is a known item type.
func (t ItemType) Valid() bool {
	switch t {
	case TypeNone, TypeText, TypeNumerical, TypeCategorical, TypeDate, TypeYesNo:
		return true
	}
	return false
}

// ItemDef is an immutable question definition.
//
// Non-array items have instance 0. Array items start at instance 1 (the
// prototype); further instances are allocated by Registry.Instance.
type ItemDef struct {
	Variable string
	Type     ItemType
	Array    bool
	Units    []string

	instance int
	proto    *ItemDef
}

// Key identifies an item instance inside a record.
type Key struct {
	Variable string
	Instance int
}

// String renders the key as VAR or VAR[n].
func (k Key) String() string {
	if k.Instance == 0 {
		return k.Variable
	}
	return k.Variable + "[" + strconv.Itoa(k.Instance) + "]"
}

// StructuralError reports misuse of the record model.
// It is raised with panic because it always indicates a programming error.
type StructuralError struct {
	Variable string
	Message  string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("structural error on %s: %s", e.Variable, e.Message)
}

func structural(variable, format string, args ...any) *StructuralError {
	return &StructuralError{Variable: variable, Message: fmt.Sprintf(format, args...)}
}

// Key returns the identity of this definition inside a record.
func (d *ItemDef) Key() Key {
	return Key{Variable: d.Variable, Instance: d.instance}
}

// InstanceNumber returns the 1-based instance of an array item.
// Panics with *StructuralError for non-array items.
func (d *ItemDef) InstanceNumber() int {
	if !d.Array {
		panic(structural(d.Variable, "instance number requested on a non-array item"))
	}
	return d.instance
}

// IsPrototype reports whether d is a non-array item or instance 1 of an array.
func (d *ItemDef) IsPrototype() bool {
	return d.proto == nil
}

// Prototype returns the first instance of d's array chain, or d itself.
func (d *ItemDef) Prototype() *ItemDef {
	if d.proto == nil {
		return d
	}
	return d.proto
}

// String renders the item as VAR or VAR[n].
func (d *ItemDef) String() string {
	return d.Key().String()
}

// AcceptsUnit reports whether u is one of the declared units.
// An empty unit is always accepted.
func (d *ItemDef) AcceptsUnit(u string) bool {
	if u == "" {
		return true
	}
	for _, declared := range d.Units {
		if declared == u {
			return true
		}
	}
	return false
}
