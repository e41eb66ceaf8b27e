// Package rule defines the rule model: unit rules that transform one
// record value, cross-item rules that bind an ordered list of scoped
// items to an underlying rule, and dynamic rules whose construction
// arguments are computed at run time.
//
// The target of a cross-item rule is always its last bound item.
// Rules are immutable after construction and safe for concurrent use.
package rule
