// Package store provides SQLite-backed storage for rule executions.
//
// The store keeps two things:
//   - Executions: memoized local records, keyed by the engine cache key
//     (fingerprint of rule set, scope and filter). Cache implements
//     engine.Cache on top of it.
//   - Runs: an append-only log of participant runs and their firings.
//
// Ordering uses seq INTEGER columns, never timestamps: firings keep the
// engine's logical clock and runs are numbered in insertion order.
//
// Connections use WAL with synchronous=NORMAL. Lock waits time out after
// 5s and foreign keys are enforced. Schema upgrades are tracked in PRAGMA
// user_version.
package store
