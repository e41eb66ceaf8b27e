package scope

import (
	"time"

	"github.com/u-ask/uask-dom-sub000/internal/ir"
	"github.com/u-ask/uask-dom-sub000/internal/survey"
)

// Globals carries the survey-wide constants of one execution.
// Nothing in this package reads the wall clock; callers supply Today.
type Globals struct {
	Today      time.Time
	SampleCode string
}

// ForParticipant derives the globals of a participant's records.
func ForParticipant(p survey.Participant, today time.Time) Globals {
	return Globals{Today: today, SampleCode: p.SampleCode}
}

// Get returns the constant record value for a global item.
func (g Globals) Get(def *survey.ItemDef) (survey.InterviewItem, bool) {
	switch def {
	case survey.TodayItem:
		return survey.NewInterviewItem(def, ir.Date(g.Today)), true
	case survey.ThisYearItem:
		return survey.NewInterviewItem(def, ir.Number(g.Today.Year())), true
	case survey.SampleItem:
		return survey.NewInterviewItem(def, ir.String(g.SampleCode)), true
	case survey.AckItem:
		return survey.NewInterviewItem(def, ir.Bool(true)), true
	case survey.UndefinedItem:
		return survey.NewInterviewItem(def, nil), true
	default:
		return survey.InterviewItem{}, false
	}
}

func (g Globals) snapshot() ir.Object {
	return ir.Object{
		"today":  ir.Date(g.Today),
		"sample": ir.String(g.SampleCode),
	}
}
