package rule

import (
	"fmt"
	"strings"

	"github.com/u-ask/uask-dom-sub000/internal/ir"
	"github.com/u-ask/uask-dom-sub000/internal/scope"
	"github.com/u-ask/uask-dom-sub000/internal/survey"
)

// Trigger selects when a cross-item rule runs.
type Trigger string

const (
	// Always runs on every execution pass.
	Always Trigger = "always"
	// Initialization runs only while the target has no value, or in the
	// second pass after the target was activated.
	Initialization Trigger = "initialization"
)

// ScopedItem is an item definition addressed at a scope level.
type ScopedItem struct {
	Item  *survey.ItemDef
	Level scope.Level
}

// Local addresses def in the current record.
func Local(def *survey.ItemDef) ScopedItem {
	return ScopedItem{Item: def, Level: scope.Local}
}

// Outer addresses def in the previous record.
func Outer(def *survey.ItemDef) ScopedItem {
	return ScopedItem{Item: def, Level: scope.Outer}
}

// Global addresses a global constant item.
func Global(def *survey.ItemDef) ScopedItem {
	return ScopedItem{Item: def, Level: scope.Global}
}

func (s ScopedItem) String() string {
	return s.Level.Prefix() + s.Item.String()
}

// CrossRule binds scoped items to an underlying rule.
type CrossRule struct {
	Items []ScopedItem
	Rule  Rule
	When  Trigger
}

// Bind creates a cross-item rule. The last item is the target.
func Bind(r Rule, when Trigger, items ...ScopedItem) (*CrossRule, error) {
	if r == nil {
		return nil, fmt.Errorf("bind: rule is nil")
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("bind %s: at least one item is required", r.Name())
	}
	for i, it := range items {
		if it.Item == nil {
			return nil, fmt.Errorf("bind %s: item %d is nil", r.Name(), i)
		}
	}
	if when == "" {
		when = Always
	}
	if when != Always && when != Initialization {
		return nil, fmt.Errorf("bind %s: unknown trigger %q", r.Name(), when)
	}
	return &CrossRule{Items: items, Rule: r, When: when}, nil
}

// MustBind is like Bind but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustBind(r Rule, when Trigger, items ...ScopedItem) *CrossRule {
	c, err := Bind(r, when, items...)
	if err != nil {
		panic(err)
	}
	return c
}

// Target returns the last bound item.
func (c *CrossRule) Target() ScopedItem {
	return c.Items[len(c.Items)-1]
}

// Name delegates to the underlying rule.
func (c *CrossRule) Name() string {
	return c.Rule.Name()
}

// Precedence delegates to the underlying rule.
func (c *CrossRule) Precedence() int {
	return c.Rule.Precedence()
}

// Args delegates to the underlying rule.
func (c *CrossRule) Args() ir.Object {
	return c.Rule.Args()
}

// Execute runs the underlying rule over items resolved for this binding.
func (c *CrossRule) Execute(env Env, items ...survey.InterviewItem) ([]survey.InterviewItem, error) {
	if len(items) != len(c.Items) {
		return nil, fmt.Errorf("%s: bound to %d items, got %d", c.Name(), len(c.Items), len(items))
	}
	return c.Rule.Execute(env, items...)
}

// IsArray reports whether any bound item is an array item.
func (c *CrossRule) IsArray() bool {
	for _, it := range c.Items {
		if it.Item.Array {
			return true
		}
	}
	return false
}

// Instance returns the bindings with every array item replaced by its
// instance n.
func (c *CrossRule) Instance(reg *survey.Registry, n int) []ScopedItem {
	out := make([]ScopedItem, len(c.Items))
	for i, it := range c.Items {
		out[i] = it
		if it.Item.Array {
			out[i].Item = reg.Instance(it.Item.Prototype(), n)
		}
	}
	return out
}

func (c *CrossRule) String() string {
	names := make([]string, len(c.Items))
	for i, it := range c.Items {
		names[i] = it.String()
	}
	return fmt.Sprintf("%s(%s)", c.Name(), strings.Join(names, ", "))
}

// Find returns the rules named name carrying every entry of args.
func Find(rules []*CrossRule, name string, args ir.Object) []*CrossRule {
	var out []*CrossRule
	for _, r := range rules {
		if Matches(r, name, args) {
			out = append(out, r)
		}
	}
	return out
}

// Targeting returns the rules whose target is def.
func Targeting(rules []*CrossRule, def *survey.ItemDef) []*CrossRule {
	var out []*CrossRule
	for _, r := range rules {
		if t := r.Target(); t.Level == scope.Local && t.Item.Prototype() == def.Prototype() {
			out = append(out, r)
		}
	}
	return out
}
