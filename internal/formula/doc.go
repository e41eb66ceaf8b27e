// Package formula compiles the small expression language used by
// computed and dynamic rules.
//
// A formula references item values by variable name. Authoring code calls
// Rewrite to turn names into positional parameters ($1, $2, ...), then
// Compile to parse the positional form into an expression tree. The tree
// is evaluated by a tree-walking interpreter with a closed set of helper
// functions:
//
//	IN(set, value)     membership test
//	UNDEF(a, ...)      true when every argument is undefined
//	NA(a, ...)         true when every argument is null (not applicable)
//	MEM(value, mem?)   value paired with a memento carried to later records
//	REM(value, mem?)   MEM, or no change at all when value is undefined
//	M                  memento recalled from the previous record
//
// Anything outside digits, operators, quoted strings, parameters and the
// helper names above is rejected at compile time.
package formula
