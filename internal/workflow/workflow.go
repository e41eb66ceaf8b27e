package workflow

import (
	"fmt"
	"slices"
)

// Workflow is an ordered partition of page set types.
// A Workflow is immutable once built.
type Workflow struct {
	name     string
	info     string
	sequence []string
	single   []string
	many     []string
	stop     []string

	// main is set on derived workflows; types then lists the subset kept.
	main  *Workflow
	types []string
}

// Name returns the workflow name.
func (w *Workflow) Name() string { return w.name }

// Main returns the workflow w derives from, or nil.
func (w *Workflow) Main() *Workflow { return w.main }

// Info returns the home type, or "".
func (w *Workflow) Info() string { return w.root().info }

// Sequence returns the ordered types walked once.
func (w *Workflow) Sequence() []string { return slices.Clone(w.root().sequence) }

// Single returns the types completed at most once.
func (w *Workflow) Single() []string { return slices.Clone(w.root().single) }

// Many returns the repeatable types.
func (w *Workflow) Many() []string { return slices.Clone(w.root().many) }

// Stop returns the terminal types.
func (w *Workflow) Stop() []string { return slices.Clone(w.root().stop) }

// Start returns the first type of the sequence, or "".
func (w *Workflow) Start() string {
	seq := w.root().sequence
	if len(seq) == 0 {
		return ""
	}
	return seq[0]
}

// First returns the home type, or the start type when there is none.
func (w *Workflow) First() string {
	if info := w.Info(); info != "" {
		return info
	}
	return w.Start()
}

// Types returns every type of the workflow, home first, each once.
func (w *Workflow) Types() []string {
	if w.main != nil {
		return slices.Clone(w.types)
	}
	var out []string
	add := func(types ...string) {
		for _, t := range types {
			if t != "" && !slices.Contains(out, t) {
				out = append(out, t)
			}
		}
	}
	add(w.info)
	add(w.sequence...)
	add(w.single...)
	add(w.many...)
	add(w.stop...)
	return out
}

// Contains reports whether t belongs to the workflow.
func (w *Workflow) Contains(t string) bool {
	return slices.Contains(w.Types(), t)
}

// Available returns the types that may be completed after done, the
// next sequence type first. Derived workflows keep only their own types.
func (w *Workflow) Available(done ...string) []string {
	if w.main == nil {
		return w.walk(done)
	}
	var out []string
	for _, t := range w.main.Available(done...) {
		if slices.Contains(w.types, t) {
			out = append(out, t)
		}
	}
	return out
}

// Next returns the sequence type following done, or "" when the
// workflow has ended, has not been initialized, or the sequence is
// broken.
func (w *Workflow) Next(done ...string) string {
	if w.main != nil {
		next := w.main.Next(done...)
		if !slices.Contains(w.types, next) {
			return ""
		}
		return next
	}

	if len(done) == 0 || w.ended(done) {
		return ""
	}
	if !w.started(done) {
		return w.Start()
	}
	last := done[len(done)-1]
	idx := slices.Index(w.sequence, last)
	if idx < 0 {
		return ""
	}
	next := w.successor(idx)
	if next == "" {
		return ""
	}
	if slices.Contains(done, next) && w.singleOnly(next) {
		return ""
	}
	return next
}

// walk computes Available for a main workflow.
func (w *Workflow) walk(done []string) []string {
	if w.ended(done) {
		return []string{}
	}
	if len(done) == 0 && w.info != "" {
		return []string{w.info}
	}
	if !w.started(done) {
		if start := w.Start(); start != "" {
			return []string{start}
		}
		return []string{}
	}

	var out []string
	add := func(t string) {
		if t != "" && !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	if next := w.Next(done...); next != "" {
		add(next)
	}
	for _, t := range w.single {
		if !slices.Contains(done, t) {
			add(t)
		}
	}
	for _, t := range w.many {
		add(t)
	}
	for _, t := range w.stop {
		add(t)
	}
	return out
}

func (w *Workflow) ended(done []string) bool {
	return len(done) > 0 && slices.Contains(w.stop, done[len(done)-1])
}

func (w *Workflow) started(done []string) bool {
	return slices.ContainsFunc(done, func(t string) bool {
		return slices.Contains(w.sequence, t)
	})
}

// successor returns the sequence type after position idx. Past the end
// of the sequence the walk loops back to the first repeatable type it
// contains.
func (w *Workflow) successor(idx int) string {
	if idx+1 < len(w.sequence) {
		return w.sequence[idx+1]
	}
	for _, t := range w.sequence {
		if slices.Contains(w.many, t) {
			return t
		}
	}
	return ""
}

func (w *Workflow) singleOnly(t string) bool {
	return slices.Contains(w.single, t) && !slices.Contains(w.many, t)
}

func (w *Workflow) root() *Workflow {
	if w.main != nil {
		return w.main.root()
	}
	return w
}

// Derive returns a workflow restricted to types, walking w. Every type
// must belong to w.
func (w *Workflow) Derive(name string, types ...string) (*Workflow, error) {
	if name == "" {
		return nil, fmt.Errorf("derived workflow: name is required")
	}
	var kept []string
	for _, t := range types {
		if !w.Contains(t) {
			return nil, fmt.Errorf("derived workflow %s: type %q is not part of workflow %s", name, t, w.name)
		}
		if !slices.Contains(kept, t) {
			kept = append(kept, t)
		}
	}
	return &Workflow{name: name, main: w, types: kept}, nil
}

// String renders the workflow partition.
func (w *Workflow) String() string {
	if w.main != nil {
		return fmt.Sprintf("%s(%s) %v", w.name, w.main.name, w.types)
	}
	return fmt.Sprintf("%s info=%q sequence=%v single=%v many=%v stop=%v",
		w.name, w.info, w.sequence, w.single, w.many, w.stop)
}
