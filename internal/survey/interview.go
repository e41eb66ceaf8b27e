package survey

import (
	"slices"

	"github.com/u-ask/uask-dom-sub000/internal/ir"
)

// PageSet is a record type: the set of items one interview collects.
type PageSet struct {
	Type  string
	Items []*ItemDef
}

// Contains reports whether the page set collects def. Array instances
// belong to a page set when their prototype does.
func (p *PageSet) Contains(def *ItemDef) bool {
	if p == nil {
		return false
	}
	proto := def.Prototype()
	return slices.Contains(p.Items, proto)
}

// Status summarizes how complete an interview is.
type Status string

const (
	StatusEmpty        Status = "empty"
	StatusCanceled     Status = "canceled"
	StatusIncomplete   Status = "incomplete"
	StatusInsufficient Status = "insufficient"
	StatusFulfilled    Status = "fulfilled"
)

// RequiredRuleName is the message key written by the required rule.
// Unacknowledged messages under this key make a record incomplete.
const RequiredRuleName = "required"

// Interview is one filling of a page set.
type Interview struct {
	ID      string
	PageSet *PageSet
	Items   []InterviewItem
}

// NewInterview creates an interview holding items.
func NewInterview(id string, ps *PageSet, items ...InterviewItem) Interview {
	return Interview{ID: id, PageSet: ps}.With(items...)
}

// Get returns the record value for def.
func (iv Interview) Get(def *ItemDef) (InterviewItem, bool) {
	key := def.Key()
	for _, item := range iv.Items {
		if item.Key() == key {
			return item, true
		}
	}
	return InterviewItem{}, false
}

// With returns a copy overlaying items, last write wins by item identity.
// New items are appended in the order given.
func (iv Interview) With(items ...InterviewItem) Interview {
	out := make([]InterviewItem, len(iv.Items), len(iv.Items)+len(items))
	copy(out, iv.Items)
	for _, item := range items {
		idx := slices.IndexFunc(out, func(existing InterviewItem) bool {
			return existing.Key() == item.Key()
		})
		if idx >= 0 {
			out[idx] = item
		} else {
			out = append(out, item)
		}
	}
	iv.Items = out
	return iv
}

// Type returns the page set type, or "" when the interview has none.
func (iv Interview) Type() string {
	if iv.PageSet == nil {
		return ""
	}
	return iv.PageSet.Type
}

// ResetMessages drops every rule message and keeps acknowledgements.
func (iv Interview) ResetMessages() Interview {
	out := make([]InterviewItem, len(iv.Items))
	for i, item := range iv.Items {
		out[i] = item.WithMessages(item.Messages.Reset())
	}
	iv.Items = out
	return iv
}

// Status derives the record status from its answers and messages.
func (iv Interview) Status() Status {
	answered := 0
	notDone := 0
	required := false
	other := false
	for _, item := range iv.Items {
		if item.IsAnswered() {
			answered++
			if item.Special == NotDone {
				notDone++
			}
		}
		for _, name := range item.Messages.Pending() {
			if name == RequiredRuleName {
				required = true
			} else {
				other = true
			}
		}
	}
	switch {
	case answered == 0:
		return StatusEmpty
	case notDone == answered:
		return StatusCanceled
	case required:
		return StatusIncomplete
	case other:
		return StatusInsufficient
	default:
		return StatusFulfilled
	}
}

// Equal reports whether two interviews hold identical records.
func (iv Interview) Equal(other Interview) bool {
	return iv.ID == other.ID &&
		iv.PageSet == other.PageSet &&
		slices.EqualFunc(iv.Items, other.Items, InterviewItem.Equal)
}

// Participant is a sample subject with an ordered interview history.
type Participant struct {
	Code       string
	SampleCode string
	Interviews []Interview
}

// IndexOf returns the position of the interview with id, or -1.
func (p Participant) IndexOf(id string) int {
	return slices.IndexFunc(p.Interviews, func(iv Interview) bool {
		return iv.ID == id
	})
}

// WithInterview returns a copy with iv replacing the interview sharing
// its ID, or appended when there is none.
func (p Participant) WithInterview(iv Interview) Participant {
	out := slices.Clone(p.Interviews)
	if idx := p.IndexOf(iv.ID); idx >= 0 {
		out[idx] = iv
	} else {
		out = append(out, iv)
	}
	p.Interviews = out
	return p
}

// Types returns the page set type of every interview in order.
func (p Participant) Types() []string {
	out := make([]string, len(p.Interviews))
	for i, iv := range p.Interviews {
		out[i] = iv.Type()
	}
	return out
}

// Snapshot renders the interview as a value object for fingerprints and
// golden files. Undefined values are omitted.
func (iv Interview) Snapshot() ir.Object {
	items := make(ir.Object, len(iv.Items))
	for _, item := range iv.Items {
		entry := ir.Object{}
		if item.Value != nil {
			entry["value"] = item.Value
		}
		if item.Unit != "" {
			entry["unit"] = ir.String(item.Unit)
		}
		if item.Special != SpecialNone {
			entry["specialValue"] = ir.String(item.Special)
		}
		if item.Messages.Len() > 0 {
			msgs := ir.Object{}
			for _, name := range item.Messages.Names() {
				text, _ := item.Messages.Get(name)
				msgs[name] = ir.String(text)
			}
			entry["messages"] = msgs
		}
		if acks := item.Messages.Acks(); len(acks) > 0 {
			arr := make(ir.Array, len(acks))
			for i, a := range acks {
				arr[i] = ir.String(a)
			}
			entry["acknowledged"] = arr
		}
		if item.Context != 0 {
			entry["context"] = ir.Number(item.Context)
		}
		if item.Memento != nil {
			entry["memento"] = item.Memento
		}
		items[item.Key().String()] = entry
	}
	return ir.Object{
		"id":     ir.String(iv.ID),
		"type":   ir.String(iv.Type()),
		"items":  items,
		"status": ir.String(iv.Status()),
	}
}
