package formula

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/u-ask/uask-dom-sub000/internal/ir"
)

func eval(t *testing.T, src string, args ...ir.Value) Result {
	t.Helper()
	f, err := Compile(src)
	require.NoError(t, err)
	r, err := f.Evaluate(Context{}, args...)
	require.NoError(t, err)
	return r
}

func TestCompileRejectsUnsafeFormulas(t *testing.T) {
	tests := []string{
		"",
		"AGE + 1",
		"process.exit(1)",
		"$1 ; $2",
		"`$1`",
		"$0",
		"IN($1)",
		"MEM()",
		"M(1)",
		"UNDEF",
		"$1 +",
		"($1",
		"[1, 2",
		"'open",
		"$1 = 2",
		"$1 & $2",
		"@TODAY",
		"1 2",
	}

	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			_, err := Compile(src)
			require.Error(t, err)
			assert.True(t, IsCompileError(err), "got %T", err)
		})
	}
	assert.Panics(t, func() { MustCompile("eval()") })
}

func TestArity(t *testing.T) {
	f := MustCompile("$3 + $1")
	assert.Equal(t, 3, f.Arity())
	assert.Equal(t, "$3 + $1", f.Source())

	_, err := f.Evaluate(Context{}, ir.Number(1))
	assert.Error(t, err)
}

func TestBodyMassIndex(t *testing.T) {
	r := eval(t, "$1 / ($2 * $2)", ir.Number(70), ir.Number(1.6))
	assert.InDelta(t, 27.34375, float64(r.Value.(ir.Number)), 1e-9)
	assert.False(t, r.Clear)
}

func TestOperators(t *testing.T) {
	tests := []struct {
		src  string
		args []ir.Value
		want ir.Value
	}{
		{"1 + 2 * 3", nil, ir.Number(7)},
		{"(1 + 2) * 3", nil, ir.Number(9)},
		{"7 % 4", nil, ir.Number(3)},
		{"-$1", []ir.Value{ir.Number(4)}, ir.Number(-4)},
		{"!$1", []ir.Value{ir.Number(0)}, ir.Bool(true)},
		{"$1 + $2", []ir.Value{ir.String("a"), ir.Number(1)}, ir.String("a1")},
		{"$1 + 1", []ir.Value{ir.Null{}}, ir.Number(1)},
		{"$1 > 18 && $2 == 'F'", []ir.Value{ir.Number(30), ir.String("F")}, ir.Bool(true)},
		{"$1 || 5", []ir.Value{nil}, ir.Number(5)},
		{"$1 && 5", []ir.Value{ir.Number(0)}, ir.Number(0)},
		{"$1 == '3'", []ir.Value{ir.Number(3)}, ir.Bool(true)},
		{"$1 === '3'", []ir.Value{ir.Number(3)}, ir.Bool(false)},
		{"$1 == $2", []ir.Value{nil, ir.Null{}}, ir.Bool(true)},
		{"$1 !== $2", []ir.Value{nil, ir.Null{}}, ir.Bool(true)},
		{"$1 == 1", []ir.Value{ir.Bool(true)}, ir.Bool(true)},
		{"$1 < $2", []ir.Value{ir.String("2024-01-02"), ir.String("2024-03-01")}, ir.Bool(true)},
		{"$1 >= 2", []ir.Value{nil}, ir.Bool(false)},
		{"$1 ? 'yes' : 'no'", []ir.Value{ir.String("")}, ir.String("no")},
		{"$1 > 1 ? $1 > 2 ? 'c' : 'b' : 'a'", []ir.Value{ir.Number(2)}, ir.String("b")},
		{"[1, $1]", []ir.Value{ir.String("x")}, ir.Array{ir.Number(1), ir.String("x")}},
		{".5 + 0.25", nil, ir.Number(0.75)},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			r := eval(t, tt.src, tt.args...)
			assert.True(t, ir.Equal(tt.want, r.Value), "got %#v", r.Value)
		})
	}
}

func TestHelpers(t *testing.T) {
	tests := []struct {
		src  string
		args []ir.Value
		want ir.Value
	}{
		{"IN([1, 2], $1)", []ir.Value{ir.Number(2)}, ir.Bool(true)},
		{"IN(['A', 'B'], $1)", []ir.Value{ir.String("C")}, ir.Bool(false)},
		{"IN(['A', 'B'], $1)", []ir.Value{ir.Array{ir.String("C"), ir.String("B")}}, ir.Bool(true)},
		{"IN(3, $1)", []ir.Value{ir.Number(3)}, ir.Bool(true)},
		{"UNDEF($1, $2)", []ir.Value{nil, nil}, ir.Bool(true)},
		{"UNDEF($1, $2)", []ir.Value{nil, ir.Null{}}, ir.Bool(false)},
		{"UNDEF()", nil, ir.Bool(true)},
		{"NA($1, $2)", []ir.Value{ir.Null{}, ir.Null{}}, ir.Bool(true)},
		{"NA($1)", []ir.Value{nil}, ir.Bool(false)},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			r := eval(t, tt.src, tt.args...)
			assert.True(t, ir.Equal(tt.want, r.Value), "got %#v", r.Value)
		})
	}
}

func TestMemento(t *testing.T) {
	f := MustCompile("UNDEF($1) ? M : MEM($1)")

	r, err := f.Evaluate(Context{Memento: ir.Number(70)}, nil)
	require.NoError(t, err)
	assert.Equal(t, ir.Number(70), r.Value)
	assert.False(t, r.HasMemento)

	r, err = f.Evaluate(Context{Memento: ir.Number(70)}, ir.Number(72))
	require.NoError(t, err)
	assert.Equal(t, ir.Number(72), r.Value)
	assert.True(t, r.HasMemento)
	assert.Equal(t, ir.Number(72), r.Memento)

	r = eval(t, "MEM($1, 'kg')", ir.Number(3))
	assert.Equal(t, ir.String("kg"), r.Memento)
}

func TestRem(t *testing.T) {
	r := eval(t, "REM($1)", nil)
	assert.True(t, r.NoOp)

	r = eval(t, "REM($1)", ir.Number(5))
	assert.False(t, r.NoOp)
	assert.True(t, r.HasMemento)
	assert.Equal(t, ir.Number(5), r.Value)
}

func TestMementoCannotBeOperand(t *testing.T) {
	f := MustCompile("MEM($1) + 1")
	_, err := f.Evaluate(Context{}, ir.Number(1))
	require.Error(t, err)
	var ee *EvalError
	assert.ErrorAs(t, err, &ee)
}

func TestNonFiniteClears(t *testing.T) {
	for _, src := range []string{"$1 / 0", "$1 * 2", "0 / 0"} {
		t.Run(src, func(t *testing.T) {
			r := eval(t, src, nil)
			assert.True(t, r.Clear)
			assert.Nil(t, r.Value)
		})
	}
	assert.False(t, math.IsNaN(float64(eval(t, "$1 * 2", ir.Null{}).Value.(ir.Number))))
}
