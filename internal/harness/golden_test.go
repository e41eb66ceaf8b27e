package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/u-ask/uask-dom-sub000/internal/engine"
	"github.com/u-ask/uask-dom-sub000/internal/ir"
	"github.com/u-ask/uask-dom-sub000/internal/survey"
)

func TestSnapshot(t *testing.T) {
	reg := survey.NewRegistry()
	w := reg.MustDefine("W", survey.TypeNumerical, false)
	ps := &survey.PageSet{Type: "Visit", Items: []*survey.ItemDef{w}}
	p := survey.Participant{Code: "007", Interviews: []survey.Interview{
		survey.NewInterview("v1", ps, survey.NewInterviewItem(w, ir.Number(70))),
	}}
	trace := []engine.Firing{
		{Seq: 1, Pass: 1, Interview: "v1", Rule: "required", Target: "W"},
		{Seq: 2, Pass: 1, Interview: "v1", Rule: "inRange", Target: "W", Error: "boom"},
	}

	data, err := ir.MarshalCanonical(Snapshot("snap", p, trace))
	require.NoError(t, err)
	assert.Equal(t,
		`{"interviews":[{"id":"v1","items":{"W":{"value":70}},"status":"fulfilled","type":"Visit"}],`+
			`"participant":"007","scenario":"snap","trace":[`+
			`{"changed":false,"interview":"v1","pass":1,"rule":"required","seq":1,"target":"W"},`+
			`{"changed":false,"error":"boom","interview":"v1","pass":1,"rule":"inRange","seq":2,"target":"W"}]}`,
		string(data))
}

func TestRunWithGolden(t *testing.T) {
	fixtures := t.TempDir()
	scenario := bmiScenario(t, Assertion{Type: AssertFiringCount, Rule: "required", Count: 2})

	result, err := Run(scenario)
	require.NoError(t, err)
	data, err := SnapshotJSON(scenario.Name, result)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(fixtures, scenario.Name+".golden"), data, 0o644))

	err = RunWithGolden(t, scenario, goldie.WithFixtureDir(fixtures))
	require.NoError(t, err)
}

func TestAssertGolden_FromResult(t *testing.T) {
	fixtures := t.TempDir()
	result := NewResult()
	result.Participant = survey.Participant{Code: "1"}
	result.Trace = sampleTrace()

	g := goldie.New(t, goldie.WithFixtureDir(fixtures), goldie.WithNameSuffix(".golden"))
	data, err := SnapshotJSON("from_result", result)
	require.NoError(t, err)
	require.NoError(t, g.Update(t, "from_result", data))

	require.NoError(t, AssertGolden(t, "from_result", result, goldie.WithFixtureDir(fixtures)))
}

func TestSnapshotJSON_Deterministic(t *testing.T) {
	result := NewResult()
	result.Participant = survey.Participant{Code: "1"}
	result.Trace = sampleTrace()

	first, err := SnapshotJSON("d", result)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := SnapshotJSON("d", result)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
