package rule

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/u-ask/uask-dom-sub000/internal/formula"
	"github.com/u-ask/uask-dom-sub000/internal/ir"
)

// Factory builds a rule from positional arguments. Every rule a factory
// builds carries Name and Precedence. Params names the leading positional
// arguments as the built rule reports them in Args.
type Factory struct {
	Name       string
	Precedence int
	Params     []string
	Build      func(args ir.Array) (Rule, error)
}

// Library is a registry of rule factories addressed by name.
//
// Thread-safety: safe for concurrent use.
type Library struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewLibrary creates a library holding the standard rules.
func NewLibrary() *Library {
	l := &Library{factories: make(map[string]Factory)}
	for _, f := range standardFactories() {
		l.factories[f.Name] = f
	}
	return l
}

// Register adds a factory. Names must be unique.
func (l *Library) Register(f Factory) error {
	if f.Name == "" || f.Build == nil {
		return fmt.Errorf("register: factory needs a name and a build function")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.factories[f.Name]; exists {
		return fmt.Errorf("register: rule %q already exists", f.Name)
	}
	l.factories[f.Name] = f
	return nil
}

// Lookup returns the factory registered under name.
func (l *Library) Lookup(name string) (Factory, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	f, ok := l.factories[name]
	return f, ok
}

// Names returns registered rule names, sorted.
func (l *Library) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Sorted(maps.Keys(l.factories))
}

// Build constructs the rule name from args.
func (l *Library) Build(name string, args ir.Array) (Rule, error) {
	f, ok := l.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown rule %q", name)
	}
	r, err := f.Build(args)
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", name, err)
	}
	return r, nil
}

func standardFactories() []Factory {
	return []Factory{
		{Name: "required", Precedence: PrecedenceRequired, Build: func(args ir.Array) (Rule, error) {
			return Unit(Required{}), nil
		}},
		{Name: "critical", Precedence: PrecedenceRequired, Params: []string{"event", "message"}, Build: func(args ir.Array) (Rule, error) {
			if len(args) < 1 {
				return nil, fmt.Errorf("expects an event name")
			}
			event, err := text(args[0])
			if err != nil {
				return nil, err
			}
			c := Critical{Event: event}
			if len(args) > 1 {
				if c.Message, err = text(args[1]); err != nil {
					return nil, err
				}
			}
			if len(args) > 2 {
				c.Values = slices.Clone(args[2:])
			}
			return Unit(c), nil
		}},
		{Name: "inRange", Precedence: PrecedenceCheck, Params: []string{"min", "max"}, Build: func(args ir.Array) (Rule, error) {
			if len(args) != 2 {
				return nil, fmt.Errorf("expects min and max")
			}
			return Unit(InRange{Min: unnull(args[0]), Max: unnull(args[1])}), nil
		}},
		{Name: "maxLength", Precedence: PrecedenceCheck, Params: []string{"length"}, Build: func(args ir.Array) (Rule, error) {
			n, err := integer(args, 0)
			return Unit(MaxLength{Length: n}), err
		}},
		{Name: "fixedLength", Precedence: PrecedenceCheck, Params: []string{"length"}, Build: func(args ir.Array) (Rule, error) {
			n, err := integer(args, 0)
			return Unit(FixedLength{Length: n}), err
		}},
		{Name: "decimalPrecision", Precedence: PrecedenceCheck, Params: []string{"precision"}, Build: func(args ir.Array) (Rule, error) {
			n, err := integer(args, 0)
			return Unit(DecimalPrecision{Precision: n}), err
		}},
		{Name: "letterCase", Precedence: PrecedenceCheck, Params: []string{"case"}, Build: func(args ir.Array) (Rule, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("expects a case")
			}
			c, err := text(args[0])
			if err != nil {
				return nil, err
			}
			if c != UpperCase && c != LowerCase {
				return nil, fmt.Errorf("unknown case %q", c)
			}
			return Unit(LetterCase{Case: c}), nil
		}},
		{Name: "constant", Precedence: PrecedenceDerivation, Params: []string{"value"}, Build: func(args ir.Array) (Rule, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("expects a value")
			}
			return Unit(Constant{Value: unnull(args[0])}), nil
		}},
		{Name: "copy", Precedence: PrecedenceDerivation, Build: func(args ir.Array) (Rule, error) {
			return Copy{}, nil
		}},
		{Name: "computed", Precedence: PrecedenceDerivation, Build: func(args ir.Array) (Rule, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("expects a positional formula")
			}
			src, err := text(args[0])
			if err != nil {
				return nil, err
			}
			f, err := formula.Compile(src)
			if err != nil {
				return nil, err
			}
			return Computed{Formula: f}, nil
		}},
		{Name: "activation", Precedence: PrecedenceDerivation, Params: []string{"behavior"}, Build: func(args ir.Array) (Rule, error) {
			if len(args) < 1 {
				return nil, fmt.Errorf("expects a behavior")
			}
			behavior, err := text(args[0])
			if err != nil {
				return nil, err
			}
			if behavior != Enable && behavior != Show {
				return nil, fmt.Errorf("unknown behavior %q", behavior)
			}
			values := ir.Array{}
			for _, v := range args[1:] {
				if arr, ok := v.(ir.Array); ok {
					values = append(values, arr...)
				} else {
					values = append(values, v)
				}
			}
			return Activation{Behavior: behavior, Values: values}, nil
		}},
	}
}

func text(v ir.Value) (string, error) {
	s, ok := v.(ir.String)
	if !ok {
		return "", fmt.Errorf("expects a string, got %s", ir.Format(v))
	}
	return string(s), nil
}

func integer(args ir.Array, i int) (int, error) {
	if len(args) <= i {
		return 0, fmt.Errorf("expects an integer argument")
	}
	n, ok := args[i].(ir.Number)
	if !ok || float64(n) != float64(int(n)) || n < 0 {
		return 0, fmt.Errorf("expects a non-negative integer, got %s", ir.Format(args[i]))
	}
	return int(n), nil
}

// unnull maps an explicit null argument to an open bound.
func unnull(v ir.Value) ir.Value {
	if ir.IsNull(v) {
		return nil
	}
	return v
}
