package harness

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/u-ask/uask-dom-sub000/internal/compiler"
	"github.com/u-ask/uask-dom-sub000/internal/engine"
	"github.com/u-ask/uask-dom-sub000/internal/rule"
	"github.com/u-ask/uask-dom-sub000/internal/scope"
	"github.com/u-ask/uask-dom-sub000/internal/survey"
	"github.com/u-ask/uask-dom-sub000/internal/testutil"
)

// Execution describes one rule run over a participant history.
type Execution struct {
	Survey      *compiler.Survey
	Participant survey.Participant
	Today       time.Time

	// Start is the first interview executed; empty starts at the first.
	Start string

	// Initialize selects the initialization filter restricted to these
	// item variables. Empty runs every rule.
	Initialize []string

	// Logger receives engine records. Default: discard.
	Logger *slog.Logger

	// Cache memoizes executions when set.
	Cache engine.Cache
}

// Execute runs the survey rules over the participant and returns the
// updated history with the firing trace.
func Execute(x Execution) (survey.Participant, []engine.Firing, error) {
	filter, err := x.filter()
	if err != nil {
		return x.Participant, nil, err
	}

	logger := x.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	rec := &engine.Recorder{}
	opts := []engine.EngineOption{engine.WithLogger(logger), engine.WithObserver(rec)}
	if x.Cache != nil {
		opts = append(opts, engine.WithCache(x.Cache))
	}
	eng := engine.New(x.Survey.Registry, opts...)

	globals := scope.ForParticipant(x.Participant, x.Today)
	out, err := eng.ExecuteParticipant(x.Survey.Rules, x.Participant, globals, filter, x.Start)
	if err != nil {
		return x.Participant, rec.Firings(), err
	}
	return out, rec.Firings(), nil
}

func (x Execution) filter() (engine.Filter, error) {
	if len(x.Initialize) == 0 {
		return engine.OnAlways(), nil
	}
	defs := make([]*survey.ItemDef, len(x.Initialize))
	for i, name := range x.Initialize {
		def, ok := x.Survey.Registry.Lookup(name)
		if !ok {
			return engine.Filter{}, fmt.Errorf("initialize: unknown item %q", name)
		}
		defs[i] = def
	}
	return engine.OnInitialize(defs...), nil
}

// CompileSurvey loads and compiles the CUE survey in dir with the
// standard rule library.
func CompileSurvey(dir string) (*compiler.Survey, error) {
	v, _, err := compiler.LoadDir(dir)
	if err != nil {
		return nil, err
	}
	return compiler.Compile(v, rule.NewLibrary())
}

// Run executes a scenario and returns the result.
//
// Each scenario compiles its own survey so array instance chains are
// never shared between scenarios. The day and generated interview IDs
// come from deterministic helpers so repeated runs produce identical
// traces.
func Run(scenario *Scenario) (*Result, error) {
	compiled, err := CompileSurvey(scenario.Survey)
	if err != nil {
		return nil, fmt.Errorf("failed to compile survey: %w", err)
	}

	calendar, err := testutil.NewCalendar(scenario.Today)
	if err != nil {
		return nil, fmt.Errorf("invalid today: %w", err)
	}

	p, err := scenario.Participant.Build(compiled, testutil.NewFixedIDGenerator(""))
	if err != nil {
		return nil, fmt.Errorf("failed to build participant: %w", err)
	}

	out, trace, err := Execute(Execution{
		Survey:      compiled,
		Participant: p,
		Today:       calendar.Today(),
		Start:       scenario.Start,
		Initialize:  scenario.Initialize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to execute rules: %w", err)
	}

	result := NewResult()
	result.Trace = trace
	result.Participant = out

	actx := &AssertionContext{Survey: compiled}
	if scenario.Workflow != "" {
		w, ok := compiled.Workflow(scenario.Workflow)
		if !ok {
			return nil, fmt.Errorf("unknown workflow %q", scenario.Workflow)
		}
		actx.Workflow = w
	} else {
		actx.Workflow = compiled.MainWorkflow()
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}
