// Package ir provides the value model shared by every survey package.
//
// This package contains value types only. All other internal packages
// import ir; ir imports nothing internal, which keeps it the foundational
// layer with no circular dependencies.
//
// Key design constraints:
//   - Value is sealed: only Null, String, Number, Bool, Array and Object implement it
//   - A nil Value means "undefined" (no answer); Null means "not applicable"
//   - Dates travel as ISO-8601 strings ("2006-01-02")
//   - Canonical JSON (RFC 8785) is the only serialization used for fingerprints
package ir
