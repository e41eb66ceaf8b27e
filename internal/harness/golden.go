package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/u-ask/uask-dom-sub000/internal/engine"
	"github.com/u-ask/uask-dom-sub000/internal/ir"
	"github.com/u-ask/uask-dom-sub000/internal/survey"
)

// Snapshot renders a scenario outcome as a value object: every executed
// interview and every firing, in order.
func Snapshot(name string, p survey.Participant, trace []engine.Firing) ir.Object {
	interviews := make(ir.Array, len(p.Interviews))
	for i, iv := range p.Interviews {
		interviews[i] = iv.Snapshot()
	}

	firings := make(ir.Array, len(trace))
	for i, f := range trace {
		entry := ir.Object{
			"seq":       ir.Number(f.Seq),
			"pass":      ir.Number(f.Pass),
			"interview": ir.String(f.Interview),
			"rule":      ir.String(f.Rule),
			"target":    ir.String(f.Target),
			"changed":   ir.Bool(f.Changed),
		}
		if f.Error != "" {
			entry["error"] = ir.String(f.Error)
		}
		firings[i] = entry
	}

	return ir.Object{
		"scenario":    ir.String(name),
		"participant": ir.String(p.Code),
		"interviews":  interviews,
		"trace":       firings,
	}
}

// SnapshotJSON is the canonical JSON of Snapshot, the golden file body.
func SnapshotJSON(name string, result *Result) ([]byte, error) {
	return ir.MarshalCanonical(Snapshot(name, result.Participant, result.Trace))
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// opts are applied after the defaults and may relocate the fixtures.
// Returns error if scenario execution fails; a snapshot mismatch fails t.
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...goldie.Option) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result, opts...)
}

// AssertGolden compares an existing result against its golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result, opts ...goldie.Option) error {
	t.Helper()

	data, err := SnapshotJSON(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t, append([]goldie.Option{
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	}, opts...)...)
	g.Assert(t, scenarioName, data)
	return nil
}
