// Package engine applies cross-item rules to survey records.
//
// One call to Execute runs two passes over a scope:
//
//  1. Every rule admitted by the filter, in a stable order: rules sharing
//     a target run by descending precedence, ties broken by declaration
//     order, and each group keeps the declaration slots of its members.
//     A rule is skipped when any bound item is absent or its target is
//     missing. Array rules fire once per existing instance.
//  2. Initialization rules whose target was activated during the first
//     pass. This is a bounded one-level fixed point, not a general one.
//
// A rule that fails or panics is logged and treated as a no-op; it never
// aborts the pass. Execution is a pure function of (rules, scope, filter)
// so results may be memoized with a Cache.
//
// Firings carry a per-engine sequence number, never a wall-clock time.
package engine
