package scope

import (
	"fmt"

	"github.com/u-ask/uask-dom-sub000/internal/ir"
	"github.com/u-ask/uask-dom-sub000/internal/survey"
)

// Scope is one link of the resolution chain: a local record, the scope
// of the record before it, and the shared globals.
type Scope struct {
	globals Globals
	outer   *Scope
	local   survey.Interview
}

// New builds a scope for local whose outer chain is made of history,
// oldest first. The last history entry becomes the outer record.
func New(globals Globals, history []survey.Interview, local survey.Interview) *Scope {
	var outer *Scope
	for _, iv := range history {
		outer = &Scope{globals: globals, outer: outer, local: iv}
	}
	return &Scope{globals: globals, outer: outer, local: local}
}

// FromParticipant builds the scope of the interview with the given id:
// every interview strictly before it forms the outer chain.
func FromParticipant(globals Globals, p survey.Participant, id string) (*Scope, error) {
	idx := p.IndexOf(id)
	if idx < 0 {
		return nil, fmt.Errorf("participant %s: unknown interview %q", p.Code, id)
	}
	return New(globals, p.Interviews[:idx], p.Interviews[idx]), nil
}

// Get resolves def at the given level.
//
// Missing is returned only when the addressed record's page set collects
// def and no value was entered. Array instances beyond the first are
// never missing: an unentered instance is Absent, which ends iteration.
func (s *Scope) Get(def *survey.ItemDef, level Level) (survey.InterviewItem, Resolution) {
	switch level {
	case Global:
		if item, ok := s.globals.Get(def); ok {
			return item, Found
		}
		return survey.InterviewItem{}, Absent
	case Outer:
		if s.outer == nil {
			return survey.InterviewItem{}, Absent
		}
		return s.outer.Get(def, Local)
	}

	if item, ok := s.local.Get(def); ok {
		return item, Found
	}
	if !s.local.PageSet.Contains(def) {
		return survey.InterviewItem{}, Absent
	}
	if def.Array && def.InstanceNumber() > 1 {
		return survey.InterviewItem{}, Absent
	}
	return survey.InterviewItem{Item: def}, Missing
}

// With returns a scope whose local record is overlaid with items,
// last write wins by item identity.
func (s *Scope) With(items ...survey.InterviewItem) *Scope {
	if len(items) == 0 {
		return s
	}
	return &Scope{globals: s.globals, outer: s.outer, local: s.local.With(items...)}
}

// Interview returns the local record including transient overrides.
func (s *Scope) Interview() survey.Interview {
	return s.local
}

// Outer returns the scope of the previous record, or nil.
func (s *Scope) Outer() *Scope {
	return s.outer
}

// Globals returns the survey-wide constants.
func (s *Scope) Globals() Globals {
	return s.globals
}

// Snapshot renders the whole chain as a value object.
func (s *Scope) Snapshot() ir.Object {
	obj := ir.Object{
		"globals": s.globals.snapshot(),
		"local":   s.local.Snapshot(),
	}
	if s.outer != nil {
		outer := s.outer.Snapshot()
		delete(outer, "globals")
		obj["outer"] = outer
	}
	return obj
}

// Fingerprint returns a stable hash of the chain contents.
func (s *Scope) Fingerprint() (string, error) {
	return ir.Fingerprint(ir.DomainScope, s.Snapshot())
}
