// Package scope resolves item values across the three scope levels a
// rule can address: local (the current record plus transient overrides),
// outer (the record immediately before it) and global (survey-wide
// constants).
//
// A Scope is created fresh for each execution call. It is never mutated:
// With returns a new scope sharing the unchanged frames.
package scope
