package formula

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/u-ask/uask-dom-sub000/internal/ir"
)

type operandKind int

const (
	plainOperand operandKind = iota
	rememberedOperand
	noopOperand
)

// operand is an intermediate evaluation result. MEM and REM produce
// remembered and no-op operands which only ternaries may pass through.
type operand struct {
	kind    operandKind
	value   ir.Value
	memento ir.Value
}

func plain(v ir.Value) operand {
	return operand{kind: plainOperand, value: v}
}

type evaluator struct {
	src     string
	args    []ir.Value
	memento ir.Value
}

func (e *evaluator) fail(format string, args ...any) error {
	return &EvalError{Formula: e.src, Message: fmt.Sprintf(format, args...)}
}

func (e *evaluator) eval(n node) (operand, error) {
	switch n := n.(type) {
	case literalNode:
		return plain(n.value), nil
	case paramNode:
		return plain(e.args[n.index-1]), nil
	case mementoNode:
		return plain(e.memento), nil
	case unaryNode:
		x, err := e.value(n.x)
		if err != nil {
			return operand{}, err
		}
		switch n.op {
		case "!":
			return plain(ir.Bool(!truthy(x))), nil
		case "-":
			return plain(ir.Number(-toNumber(x))), nil
		default:
			return plain(ir.Number(toNumber(x))), nil
		}
	case binaryNode:
		return e.binary(n)
	case ternaryNode:
		cond, err := e.value(n.cond)
		if err != nil {
			return operand{}, err
		}
		if truthy(cond) {
			return e.eval(n.then)
		}
		return e.eval(n.els)
	case callNode:
		return e.call(n)
	case arrayNode:
		arr := make(ir.Array, len(n.elems))
		for i, elem := range n.elems {
			v, err := e.value(elem)
			if err != nil {
				return operand{}, err
			}
			arr[i] = v
		}
		return plain(arr), nil
	default:
		return operand{}, e.fail("unknown node %T", n)
	}
}

// value evaluates n and requires an ordinary value.
func (e *evaluator) value(n node) (ir.Value, error) {
	out, err := e.eval(n)
	if err != nil {
		return nil, err
	}
	if out.kind != plainOperand {
		return nil, e.fail("MEM and REM results can only be returned")
	}
	return out.value, nil
}

func (e *evaluator) binary(n binaryNode) (operand, error) {
	left, err := e.value(n.left)
	if err != nil {
		return operand{}, err
	}
	switch n.op {
	case "&&":
		if !truthy(left) {
			return plain(left), nil
		}
		return e.eval(n.right)
	case "||":
		if truthy(left) {
			return plain(left), nil
		}
		return e.eval(n.right)
	}

	right, err := e.value(n.right)
	if err != nil {
		return operand{}, err
	}
	switch n.op {
	case "+":
		return plain(add(left, right)), nil
	case "-":
		return plain(ir.Number(toNumber(left) - toNumber(right))), nil
	case "*":
		return plain(ir.Number(toNumber(left) * toNumber(right))), nil
	case "/":
		return plain(ir.Number(toNumber(left) / toNumber(right))), nil
	case "%":
		return plain(ir.Number(math.Mod(toNumber(left), toNumber(right)))), nil
	case "==":
		return plain(ir.Bool(looseEqual(left, right))), nil
	case "!=":
		return plain(ir.Bool(!looseEqual(left, right))), nil
	case "===":
		return plain(ir.Bool(ir.Equal(left, right))), nil
	case "!==":
		return plain(ir.Bool(!ir.Equal(left, right))), nil
	case "<", ">", "<=", ">=":
		return plain(ir.Bool(compare(n.op, left, right))), nil
	default:
		return operand{}, e.fail("unknown operator %s", n.op)
	}
}

func (e *evaluator) call(n callNode) (operand, error) {
	args := make([]ir.Value, len(n.args))
	for i, a := range n.args {
		v, err := e.value(a)
		if err != nil {
			return operand{}, err
		}
		args[i] = v
	}

	switch n.fn {
	case HelperIn:
		return plain(ir.Bool(in(args[0], args[1]))), nil
	case HelperUndef:
		for _, a := range args {
			if a != nil {
				return plain(ir.Bool(false)), nil
			}
		}
		return plain(ir.Bool(true)), nil
	case HelperNA:
		for _, a := range args {
			if !ir.IsNull(a) {
				return plain(ir.Bool(false)), nil
			}
		}
		return plain(ir.Bool(true)), nil
	case HelperMem, HelperRem:
		if n.fn == HelperRem && args[0] == nil {
			return operand{kind: noopOperand}, nil
		}
		mem := args[0]
		if len(args) > 1 {
			mem = args[1]
		}
		return operand{kind: rememberedOperand, value: args[0], memento: mem}, nil
	default:
		return operand{}, e.fail("unknown helper %s", n.fn)
	}
}

// in tests membership. A multiple-choice answer (array) is a member when
// any of its elements is.
func in(set, v ir.Value) bool {
	members, ok := set.(ir.Array)
	if !ok {
		return sameValue(set, v)
	}
	if values, ok := v.(ir.Array); ok {
		for _, elem := range values {
			if in(members, elem) {
				return true
			}
		}
		return false
	}
	for _, m := range members {
		if sameValue(m, v) {
			return true
		}
	}
	return false
}

func sameValue(a, b ir.Value) bool {
	if an, ok := a.(ir.Number); ok {
		if bn, ok := b.(ir.Number); ok && math.IsNaN(float64(an)) && math.IsNaN(float64(bn)) {
			return true
		}
	}
	return ir.Equal(a, b)
}

func truthy(v ir.Value) bool {
	switch v := v.(type) {
	case nil, ir.Null:
		return false
	case ir.Bool:
		return bool(v)
	case ir.Number:
		f := float64(v)
		return f != 0 && !math.IsNaN(f)
	case ir.String:
		return v != ""
	default:
		return true
	}
}

func toNumber(v ir.Value) float64 {
	switch v := v.(type) {
	case nil:
		return math.NaN()
	case ir.Null:
		return 0
	case ir.Number:
		return float64(v)
	case ir.Bool:
		if v {
			return 1
		}
		return 0
	case ir.String:
		s := strings.TrimSpace(string(v))
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	case ir.Array:
		if len(v) == 0 {
			return 0
		}
		if len(v) == 1 {
			return toNumber(v[0])
		}
		return math.NaN()
	default:
		return math.NaN()
	}
}

func toText(v ir.Value) string {
	switch v := v.(type) {
	case nil:
		return "undefined"
	case ir.Null:
		return "null"
	case ir.String:
		return string(v)
	case ir.Number:
		f := float64(v)
		switch {
		case math.IsNaN(f):
			return "NaN"
		case math.IsInf(f, 1):
			return "Infinity"
		case math.IsInf(f, -1):
			return "-Infinity"
		}
		return ir.FormatNumber(f)
	case ir.Bool:
		return strconv.FormatBool(bool(v))
	case ir.Array:
		parts := make([]string, len(v))
		for i, elem := range v {
			if elem != nil && !ir.IsNull(elem) {
				parts[i] = toText(elem)
			}
		}
		return strings.Join(parts, ",")
	default:
		return "[object Object]"
	}
}

func isTextual(v ir.Value) bool {
	switch v.(type) {
	case ir.String, ir.Array, ir.Object:
		return true
	}
	return false
}

func add(a, b ir.Value) ir.Value {
	if isTextual(a) || isTextual(b) {
		return ir.String(toText(a) + toText(b))
	}
	return ir.Number(toNumber(a) + toNumber(b))
}

func isNullish(v ir.Value) bool {
	return v == nil || ir.IsNull(v)
}

func looseEqual(a, b ir.Value) bool {
	if isNullish(a) || isNullish(b) {
		return isNullish(a) && isNullish(b)
	}
	switch av := a.(type) {
	case ir.Number:
		switch b.(type) {
		case ir.String, ir.Bool:
			return float64(av) == toNumber(b)
		}
	case ir.String:
		switch b.(type) {
		case ir.Number, ir.Bool:
			return toNumber(a) == toNumber(b)
		}
	case ir.Bool:
		return looseEqual(ir.Number(toNumber(a)), b)
	}
	if _, ok := b.(ir.Bool); ok {
		return looseEqual(a, ir.Number(toNumber(b)))
	}
	return ir.Equal(a, b)
}

func compare(op string, a, b ir.Value) bool {
	as, aText := a.(ir.String)
	bs, bText := b.(ir.String)
	if aText && bText {
		switch op {
		case "<":
			return as < bs
		case ">":
			return as > bs
		case "<=":
			return as <= bs
		default:
			return as >= bs
		}
	}
	x, y := toNumber(a), toNumber(b)
	switch op {
	case "<":
		return x < y
	case ">":
		return x > y
	case "<=":
		return x <= y
	default:
		return x >= y
	}
}
