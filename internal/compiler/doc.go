// Package compiler turns CUE survey definitions into the runtime objects
// the engine consumes: an item registry, page sets, cross-item rules and
// workflows.
//
// Compilation runs in three steps:
//
//  1. Parse walks the CUE value into a Definition of plain declarations.
//     Malformed shapes fail with a positioned *CompileError.
//  2. Validate checks references between declarations and reports every
//     problem found as a ValidationError with a stable code.
//  3. Build resolves item names (with @ and $ level prefixes), compiles
//     formulas and binds rules.
//
// Compile chains the three. AnalyzeCycles reports dependency cycles
// between derived items as warnings.
//
// Survey layout:
//
//	items: POIDS: {type: "numerical", units: ["kg"]}
//	pageSets: Inclusion: {items: ["POIDS", "TAILLE", "IMC"]}
//	rules: [
//		{rule: "computed", target: "IMC", formula: "POIDS / (TAILLE * TAILLE)"},
//		{rule: "decimalPrecision", target: "IMC", args: [2]},
//	]
//	workflows: main: {home: "Synthesis", initial: ["Inclusion"], followUp: ["Visit"]}
package compiler
