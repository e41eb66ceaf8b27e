// Package harness runs conformance scenarios against compiled surveys.
//
// A scenario names a CUE survey directory, a participant history and a
// list of assertions. The harness compiles the survey, executes its rules
// over the history with the engine, records every firing, and checks the
// assertions against the executed records and the trace.
//
// # Scenario Format
//
//	name: body_mass_index
//	description: "IMC is derived then rounded"
//	survey: ../survey
//	today: "2025-03-01"
//	participant:
//	  code: "001"
//	  sample: S1
//	  interviews:
//	    - id: incl
//	      type: Inclusion
//	      items:
//	        POIDS: 70
//	        TAILLE: {value: 1.6, unit: m}
//	        IMC: null
//	assertions:
//	  - type: value
//	    interview: incl
//	    item: IMC
//	    expect: 27.34
//	  - type: firing_order
//	    rules: [computed, decimalPrecision]
//
// # Assertion Types
//
//   - value, unit, special: the record value of an item
//   - message: presence (and optionally text) of a rule message
//   - status: the derived record status
//   - next, available: workflow sequencing over the executed types
//   - firing_count: how many times a rule fired
//   - firing_order: first-firing order of rules
//
// # Deterministic Testing
//
// The day comes from testutil.Calendar and interviews without an ID get
// one from testutil.FixedIDGenerator, so a scenario always produces the
// same records and trace. RunWithGolden compares the canonical JSON
// snapshot of both against testdata/golden.
package harness
