package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/u-ask/uask-dom-sub000/internal/engine"
	"github.com/u-ask/uask-dom-sub000/internal/ir"
)

func sampleTrace() []engine.Firing {
	return []engine.Firing{
		{Seq: 1, Pass: 1, Interview: "incl", Rule: "computed", Target: "IMC", Changed: true},
		{Seq: 2, Pass: 1, Interview: "incl", Rule: "decimalPrecision", Target: "IMC", Changed: true},
		{Seq: 3, Pass: 1, Interview: "incl", Rule: "required", Target: "POIDS"},
		{Seq: 4, Pass: 1, Interview: "v1", Rule: "required", Target: "POIDS", Changed: true},
		{Seq: 5, Pass: 1, Interview: "v1", Rule: "inRange", Target: "POIDS", Error: "boom"},
	}
}

func TestAssertFiringCount(t *testing.T) {
	tests := []struct {
		name   string
		a      Assertion
		passes bool
	}{
		{"exact", Assertion{Rule: "required", Count: 2}, true},
		{"with target", Assertion{Rule: "computed", Target: "IMC", Count: 1}, true},
		{"other target", Assertion{Rule: "computed", Target: "YEAR", Count: 0}, true},
		{"too few", Assertion{Rule: "required", Count: 3}, false},
		{"too many", Assertion{Rule: "required", Count: 1}, false},
		{"never fired", Assertion{Rule: "copy", Count: 0}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.a.Type = AssertFiringCount
			err := assertFiringCount(sampleTrace(), tt.a)
			if tt.passes {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestAssertFiringOrder(t *testing.T) {
	tests := []struct {
		name   string
		rules  []string
		passes bool
	}{
		{"correct", []string{"computed", "decimalPrecision"}, true},
		{"intervening allowed", []string{"computed", "inRange"}, true},
		{"wrong order", []string{"required", "computed"}, false},
		{"missing rule", []string{"computed", "copy"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assertFiringOrder(sampleTrace(), Assertion{Type: AssertFiringOrder, Rules: tt.rules})
			if tt.passes {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValuesEqual(t *testing.T) {
	assert.True(t, valuesEqual(ir.Number(27.34), ir.Number(27.34)))
	assert.True(t, valuesEqual(ir.Number(0.3), ir.Number(0.1+0.2)))
	assert.False(t, valuesEqual(ir.Number(1), ir.Number(1.001)))
	assert.True(t, valuesEqual(nil, nil))
	assert.False(t, valuesEqual(ir.Number(1), nil))
	assert.False(t, valuesEqual(ir.String("1"), ir.Number(1)))
}

func TestEvaluateAssertions_WithoutContext(t *testing.T) {
	result := NewResult()
	result.Trace = sampleTrace()

	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertFiringCount, Rule: "required", Count: 2},
		{Type: AssertValue, Interview: "incl", Item: "IMC", Expect: 1},
		{Type: AssertNext, Expect: "Visit"},
		{Type: "bogus"},
	}, nil)

	require.Len(t, errs, 3)
	assert.Contains(t, errs[0], "no survey available")
	assert.Contains(t, errs[1], "no workflow available")
	assert.Contains(t, errs[2], `unknown assertion type "bogus"`)
}

func TestAssertionError_ErrorFormat(t *testing.T) {
	err := &AssertionError{
		Type:     AssertFiringCount,
		Expected: "required fired 3 times",
		Actual:   "fired 2 times",
		Trace:    sampleTrace(),
	}

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: firing_count")
	assert.Contains(t, msg, "Expected: required fired 3 times")
	assert.Contains(t, msg, "Actual: fired 2 times")
	assert.Contains(t, msg, "[1] pass 1 incl computed -> IMC")
	assert.Contains(t, msg, "[5] pass 1 v1 inRange -> POIDS (error: boom)")
}
