package formula

import (
	"slices"
	"strconv"
	"strings"
)

// Helper names recognized by the compiler.
const (
	HelperIn      = "IN"
	HelperUndef   = "UNDEF"
	HelperNA      = "NA"
	HelperMem     = "MEM"
	HelperRem     = "REM"
	HelperMemento = "M"
)

var helperNames = []string{HelperIn, HelperUndef, HelperNA, HelperMem, HelperRem, HelperMemento}

// IsHelper reports whether name is reserved for a helper.
func IsHelper(name string) bool {
	return slices.Contains(helperNames, name)
}

// ExtractVariables returns the distinct variable references of src in
// first-appearance order. Names keep their scope prefix ("@TODAY",
// "$WEIGHT"). Quoted strings and helper names are ignored; a call to any
// other name is a compile error.
func ExtractVariables(src string) ([]string, error) {
	tokens, err := lex(src)
	if err != nil {
		return nil, err
	}
	var vars []string
	for i, tok := range tokens {
		if tok.kind != tokIdent {
			continue
		}
		if tok.prefix() == "" && IsHelper(tok.str) {
			continue
		}
		if tokens[i+1].kind == tokLParen {
			return nil, compileErr(src, tok.pos, "unknown function %s", tok.text)
		}
		if !slices.Contains(vars, tok.text) {
			vars = append(vars, tok.text)
		}
	}
	return vars, nil
}

// Rewritten is a formula whose variable names were replaced by
// positional parameters.
type Rewritten struct {
	// Formula is the positional source, ready for Compile.
	Formula string
	// Variables lists the prefixed names bound to $1..$N in order.
	Variables []string
}

// Rewrite replaces each variable of src with its positional parameter.
// Parameters follow first appearance, except target which always takes
// the last position when referenced. A formula that already uses
// positional parameters is returned unchanged; mixing both is an error.
func Rewrite(src, target string) (Rewritten, error) {
	tokens, err := lex(src)
	if err != nil {
		return Rewritten{}, err
	}
	vars, err := ExtractVariables(src)
	if err != nil {
		return Rewritten{}, err
	}

	hasParams := slices.ContainsFunc(tokens, func(t token) bool { return t.kind == tokParam })
	if len(vars) == 0 {
		return Rewritten{Formula: src}, nil
	}
	if hasParams {
		return Rewritten{}, compileErr(src, 0, "positional parameters cannot be mixed with variable names")
	}

	if idx := slices.Index(vars, target); idx >= 0 {
		vars = append(slices.Delete(vars, idx, idx+1), target)
	}
	position := make(map[string]int, len(vars))
	for i, v := range vars {
		position[v] = i + 1
	}

	var sb strings.Builder
	last := 0
	for _, tok := range tokens {
		n, ok := position[tok.text]
		if tok.kind != tokIdent || !ok {
			continue
		}
		sb.WriteString(src[last:tok.pos])
		sb.WriteString("$" + strconv.Itoa(n))
		last = tok.end
	}
	sb.WriteString(src[last:])

	return Rewritten{Formula: sb.String(), Variables: vars}, nil
}
