// Package workflow decides which interview type comes next for a
// participant.
//
// A Workflow partitions page set types into an optional home type, a
// sequence walked in order, single types completed at most once, many
// types that may repeat, and stop types that end the workflow. The state
// of the machine is the list of types already completed; nothing is
// stored between calls.
//
// Derived workflows restrict a main workflow to a subset of its types:
// they walk the main workflow and filter the result.
package workflow
