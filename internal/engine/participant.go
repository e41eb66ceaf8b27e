package engine

import (
	"fmt"

	"github.com/u-ask/uask-dom-sub000/internal/rule"
	"github.com/u-ask/uask-dom-sub000/internal/scope"
	"github.com/u-ask/uask-dom-sub000/internal/survey"
)

// ExecuteParticipant applies rules to every interview of p from the one
// identified by startID onwards; an empty startID starts at the first
// interview. Earlier interviews are neither reset nor recomputed.
//
// Each interview is executed in its own scope whose outer chain is every
// interview strictly before it, as already updated by this call. Rule
// messages of the executed interviews are reset first; acknowledgements
// are kept.
func (e *Engine) ExecuteParticipant(rules []*rule.CrossRule, p survey.Participant, globals scope.Globals, f Filter, startID string) (survey.Participant, error) {
	start := 0
	if startID != "" {
		start = p.IndexOf(startID)
		if start < 0 {
			return p, fmt.Errorf("participant %s: unknown start interview %q", p.Code, startID)
		}
	}

	ordered := Order(rules)
	out := p
	for i := start; i < len(out.Interviews); i++ {
		current := out.Interviews[i].ResetMessages()
		s := scope.New(globals, out.Interviews[:i], current)

		var updated *scope.Scope
		if e.cache != nil {
			updated = e.Execute(rules, s, f)
		} else {
			updated = e.execute(ordered, s, f)
		}
		out = out.WithInterview(updated.Interview())
		e.logger.Debug("interview executed", "participant", p.Code,
			"interview", current.ID, "status", updated.Interview().Status())
	}
	return out, nil
}
