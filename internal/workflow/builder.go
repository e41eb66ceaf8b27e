package workflow

import (
	"errors"
	"fmt"
	"slices"
)

// Builder assembles a main Workflow. Methods may be chained; errors are
// collected and reported by Build.
type Builder struct {
	w    Workflow
	errs []error
}

// NewBuilder starts a workflow named name.
func NewBuilder(name string) *Builder {
	b := &Builder{w: Workflow{name: name}}
	if name == "" {
		b.errs = append(b.errs, errors.New("workflow name is required"))
	}
	return b
}

// Home sets the synthesis type offered before anything else.
func (b *Builder) Home(t string) *Builder {
	if b.w.info != "" {
		b.errs = append(b.errs, fmt.Errorf("workflow %s: home already set to %q", b.w.name, b.w.info))
		return b
	}
	b.w.info = t
	return b
}

// Initial appends types walked once, in order.
func (b *Builder) Initial(types ...string) *Builder {
	b.w.sequence = b.appendUnique("sequence", b.w.sequence, types)
	b.w.single = b.appendUnique("single", b.w.single, types)
	return b
}

// FollowUp appends repeatable types to the sequence. Once the sequence
// is exhausted the walk loops back to the first of them.
func (b *Builder) FollowUp(types ...string) *Builder {
	b.w.sequence = b.appendUnique("sequence", b.w.sequence, types)
	b.w.many = b.appendUnique("many", b.w.many, types)
	return b
}

// Auxiliary adds repeatable types outside the sequence.
func (b *Builder) Auxiliary(types ...string) *Builder {
	b.w.many = b.appendUnique("many", b.w.many, types)
	return b
}

// Once adds types outside the sequence completed at most once.
func (b *Builder) Once(types ...string) *Builder {
	b.w.single = b.appendUnique("single", b.w.single, types)
	return b
}

// End adds terminal types.
func (b *Builder) End(types ...string) *Builder {
	b.w.stop = b.appendUnique("stop", b.w.stop, types)
	return b
}

func (b *Builder) appendUnique(part string, into, types []string) []string {
	for _, t := range types {
		switch {
		case t == "":
			b.errs = append(b.errs, fmt.Errorf("workflow %s: empty type in %s", b.w.name, part))
		case slices.Contains(into, t):
			b.errs = append(b.errs, fmt.Errorf("workflow %s: type %q listed twice in %s", b.w.name, t, part))
		default:
			into = append(into, t)
		}
	}
	return into
}

// Build returns the workflow, or every error collected while building.
func (b *Builder) Build() (*Workflow, error) {
	errs := slices.Clone(b.errs)
	for _, t := range b.w.stop {
		if slices.Contains(b.w.sequence, t) {
			errs = append(errs, fmt.Errorf("workflow %s: stop type %q is part of the sequence", b.w.name, t))
		}
	}
	if b.w.info != "" && slices.Contains(b.w.sequence, b.w.info) {
		errs = append(errs, fmt.Errorf("workflow %s: home type %q is part of the sequence", b.w.name, b.w.info))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &Workflow{
		name:     b.w.name,
		info:     b.w.info,
		sequence: slices.Clone(b.w.sequence),
		single:   slices.Clone(b.w.single),
		many:     slices.Clone(b.w.many),
		stop:     slices.Clone(b.w.stop),
	}, nil
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() *Workflow {
	w, err := b.Build()
	if err != nil {
		panic(err)
	}
	return w
}
