package rule

import (
	"fmt"

	"github.com/u-ask/uask-dom-sub000/internal/ir"
	"github.com/u-ask/uask-dom-sub000/internal/survey"
)

// Default precedences. Higher runs first among rules sharing a target.
const (
	PrecedenceDerivation = 100
	PrecedenceRequired   = 70
	PrecedenceCheck      = 10
)

// Env carries what a rule may need beyond its bound items.
type Env struct {
	// Memento is the memento stored on the target in the previous record.
	Memento ir.Value
}

// Descriptor identifies a rule for ordering, logging and matching.
type Descriptor interface {
	Name() string
	Precedence() int
	Args() ir.Object
}

// Rule transforms the record values bound to it. It returns one value per
// input, in the same order.
type Rule interface {
	Descriptor
	Execute(env Env, items ...survey.InterviewItem) ([]survey.InterviewItem, error)
}

// UnitRule transforms a single record value.
type UnitRule interface {
	Descriptor
	Apply(item survey.InterviewItem) (survey.InterviewItem, error)
}

// Unit adapts a unit rule to the Rule interface. It operates on the last
// (target) item and passes any other item through.
func Unit(u UnitRule) Rule {
	return unitRule{u}
}

type unitRule struct {
	UnitRule
}

func (u unitRule) Execute(_ Env, items ...survey.InterviewItem) ([]survey.InterviewItem, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%s: no item to apply to", u.Name())
	}
	out := make([]survey.InterviewItem, len(items))
	copy(out, items)
	last := len(out) - 1
	result, err := u.Apply(out[last])
	if err != nil {
		return nil, err
	}
	out[last] = result
	return out, nil
}

// Unwrap returns the adapted unit rule.
func (u unitRule) Unwrap() UnitRule {
	return u.UnitRule
}

// Matches reports whether d is named name and carries every entry of args.
// Dynamic rules match on the wrapped rule's name.
func Matches(d Descriptor, name string, args ir.Object) bool {
	if d.Name() != name {
		return false
	}
	have := d.Args()
	for k, want := range args {
		if !ir.Equal(have[k], want) {
			return false
		}
	}
	return true
}

// setMessage writes or clears the message of rule name on item.
func setMessage(item survey.InterviewItem, name string, failed bool, text string) survey.InterviewItem {
	if failed {
		return item.WithMessages(item.Messages.Set(name, text))
	}
	return item.WithMessages(item.Messages.Clear(name))
}

func requireArity(name string, items []survey.InterviewItem, n int) error {
	if len(items) != n {
		return fmt.Errorf("%s: expects %d items, got %d", name, n, len(items))
	}
	return nil
}
