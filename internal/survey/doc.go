// Package survey holds the record model rule execution operates on.
//
// Item definitions are immutable once registered. Array items are
// expanded into numbered instances through a Registry arena; the
// registry owns the instance chain so nothing leaks between unrelated
// surveys.
//
// Record values (InterviewItem) are value objects: every With* method
// returns a copy and leaves the receiver untouched. Interviews and
// participants follow the same rule.
package survey
