package harness

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/u-ask/uask-dom-sub000/internal/engine"
	"github.com/u-ask/uask-dom-sub000/internal/ir"
	"github.com/u-ask/uask-dom-sub000/internal/survey"
)

func TestRun_BodyMassIndex(t *testing.T) {
	scenario := bmiScenario(t,
		Assertion{Type: AssertValue, Interview: "incl", Item: "IMC", Expect: 27.34},
		Assertion{Type: AssertValue, Interview: "incl", Item: "YEAR", Expect: 2025},
		Assertion{Type: AssertStatus, Interview: "incl", Expect: "fulfilled"},
		Assertion{Type: AssertStatus, Interview: "v1", Expect: "incomplete"},
		Assertion{Type: AssertMessage, Interview: "v1", Item: "POIDS", Rule: "required"},
		Assertion{Type: AssertMessage, Interview: "incl", Item: "POIDS", Rule: "required", Present: boolPtr(false)},
		Assertion{Type: AssertValue, Interview: "v1", Item: "AE[2]", Expect: "NAUSEA"},
		Assertion{Type: AssertFiringOrder, Rules: []string{"computed", "decimalPrecision", "required"}},
		Assertion{Type: AssertFiringCount, Rule: "required", Count: 2},
		Assertion{Type: AssertFiringCount, Rule: "computed", Target: "IMC", Count: 1},
		Assertion{Type: AssertNext, Expect: "Visit"},
		Assertion{Type: AssertAvailable, Types: []string{"Visit"}},
	)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)

	// incl: computed IMC, decimalPrecision IMC, required POIDS, computed YEAR.
	// v1: required POIDS, letterCase AE[1], letterCase AE[2].
	require.Len(t, result.Trace, 7)
	assert.Equal(t, "computed", result.Trace[0].Rule)
	assert.Equal(t, "IMC", result.Trace[0].Target)
	assert.Equal(t, "incl", result.Trace[0].Interview)
	assert.Equal(t, "v1", result.Trace[4].Interview)
	for i, f := range result.Trace {
		assert.Equal(t, int64(i+1), f.Seq)
		assert.Equal(t, 1, f.Pass)
	}
}

func TestRun_FailingAssertions(t *testing.T) {
	scenario := bmiScenario(t,
		Assertion{Type: AssertValue, Interview: "incl", Item: "IMC", Expect: 30},
		Assertion{Type: AssertStatus, Interview: "v1", Expect: "fulfilled"},
		Assertion{Type: AssertFiringCount, Rule: "required", Count: 5},
		Assertion{Type: AssertFiringOrder, Rules: []string{"required", "computed"}},
		Assertion{Type: AssertNext, Expect: "Home"},
	)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Len(t, result.Errors, 5)
	assert.Contains(t, result.Errors[0], "IMC in incl = 30")
	assert.Contains(t, result.Errors[0], "27.34")
}

func TestRun_StartSkipsEarlierInterviews(t *testing.T) {
	scenario := bmiScenario(t,
		Assertion{Type: AssertValue, Interview: "incl", Item: "IMC", Expect: nil},
		Assertion{Type: AssertFiringCount, Rule: "computed", Count: 0},
		Assertion{Type: AssertFiringCount, Rule: "required", Count: 1},
	)
	scenario.Start = "v1"

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_Initialize(t *testing.T) {
	t.Run("always skips initialization rules", func(t *testing.T) {
		scenario := bmiScenario(t,
			Assertion{Type: AssertFiringCount, Rule: "constant", Count: 0},
			Assertion{Type: AssertValue, Interview: "incl", Item: "CENTRE", Expect: nil},
		)
		result, err := Run(scenario)
		require.NoError(t, err)
		assert.True(t, result.Pass, "errors: %v", result.Errors)
	})
	t.Run("listed missing item is seeded", func(t *testing.T) {
		scenario := bmiScenario(t,
			Assertion{Type: AssertFiringCount, Rule: "constant", Target: "CENTRE", Count: 1},
			Assertion{Type: AssertValue, Interview: "incl", Item: "CENTRE", Expect: "Paris"},
			Assertion{Type: AssertFiringCount, Rule: "required", Count: 2},
		)
		scenario.Initialize = []string{"CENTRE"}
		result, err := Run(scenario)
		require.NoError(t, err)
		assert.True(t, result.Pass, "errors: %v", result.Errors)
	})
}

func TestRun_Errors(t *testing.T) {
	t.Run("unknown start", func(t *testing.T) {
		scenario := bmiScenario(t, Assertion{Type: AssertFiringCount, Rule: "computed"})
		scenario.Start = "nope"
		_, err := Run(scenario)
		assert.ErrorContains(t, err, "unknown start interview")
	})
	t.Run("unknown page set", func(t *testing.T) {
		scenario := bmiScenario(t, Assertion{Type: AssertFiringCount, Rule: "computed"})
		scenario.Participant.Interviews[0].Type = "Nope"
		_, err := Run(scenario)
		assert.ErrorContains(t, err, "unknown page set")
	})
	t.Run("unknown workflow", func(t *testing.T) {
		scenario := bmiScenario(t, Assertion{Type: AssertFiringCount, Rule: "computed"})
		scenario.Workflow = "nope"
		_, err := Run(scenario)
		assert.ErrorContains(t, err, "unknown workflow")
	})
	t.Run("unknown initialize item", func(t *testing.T) {
		scenario := bmiScenario(t, Assertion{Type: AssertFiringCount, Rule: "computed"})
		scenario.Initialize = []string{"NOPE"}
		_, err := Run(scenario)
		assert.ErrorContains(t, err, "unknown item")
	})
	t.Run("survey does not compile", func(t *testing.T) {
		scenario := bmiScenario(t, Assertion{Type: AssertFiringCount, Rule: "computed"})
		scenario.Survey = t.TempDir()
		_, err := Run(scenario)
		assert.ErrorContains(t, err, "failed to compile survey")
	})
}

func TestRun_Deterministic(t *testing.T) {
	scenario := bmiScenario(t, Assertion{Type: AssertFiringCount, Rule: "required", Count: 2})
	scenario.Participant.Interviews[1].ID = ""

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	assert.Equal(t, first.Trace, second.Trace)
	assert.Equal(t, "interview-1", first.Participant.Interviews[1].ID)

	a, err := SnapshotJSON("bmi", first)
	require.NoError(t, err)
	b, err := SnapshotJSON("bmi", second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestExecute_UsesToday(t *testing.T) {
	compiled, err := CompileSurvey(writeSurvey(t))
	require.NoError(t, err)
	file := bmiParticipant()
	p, err := file.Build(compiled, survey.NewSequenceGenerator("x"))
	require.NoError(t, err)

	out, trace, err := Execute(Execution{
		Survey:      compiled,
		Participant: p,
		Today:       time.Date(1999, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, trace)

	year, _ := compiled.Registry.Lookup("YEAR")
	item, ok := out.Interviews[0].Get(year)
	require.True(t, ok)
	assert.Equal(t, ir.Number(1999), item.Value)
}

func TestExecute_Cache(t *testing.T) {
	compiled, err := CompileSurvey(writeSurvey(t))
	require.NoError(t, err)
	file := bmiParticipant()
	p, err := file.Build(compiled, survey.NewSequenceGenerator("x"))
	require.NoError(t, err)

	cache := engine.NewMemoryCache()
	x := Execution{
		Survey:      compiled,
		Participant: p,
		Today:       time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Cache:       cache,
	}
	first, trace, err := Execute(x)
	require.NoError(t, err)
	assert.Len(t, trace, 7)
	assert.Equal(t, 2, cache.Len())

	second, trace, err := Execute(x)
	require.NoError(t, err)
	assert.Empty(t, trace, "every interview is served from the cache")
	for i := range first.Interviews {
		assert.True(t, first.Interviews[i].Equal(second.Interviews[i]))
	}
}

func TestResult_AddError(t *testing.T) {
	r := NewResult()
	assert.True(t, r.Pass)
	r.AddError("boom")
	assert.False(t, r.Pass)
	assert.Equal(t, []string{"boom"}, r.Errors)

	_, ok := r.Interview("missing")
	assert.False(t, ok)
}
