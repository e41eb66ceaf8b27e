package formula

import (
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokString
	tokIdent
	tokParam
	tokOp
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokComma
	tokQuestion
	tokColon
)

type token struct {
	kind tokenKind
	text string // raw source text
	pos  int
	end  int
	num  float64
	str  string // decoded string literal, or bare identifier name
}

// prefix returns "@", "$" or "" for identifier tokens.
func (t token) prefix() string {
	if t.kind == tokIdent && len(t.text) > len(t.str) {
		return t.text[:1]
	}
	return ""
}

var multiCharOps = []string{"===", "!==", "==", "!=", "<=", ">=", "&&", "||"}

const singleCharOps = "+-*/%<>!"

// lex splits src into tokens. Identifiers of any case are accepted here;
// restricting them to helper names is the parser's job.
func lex(src string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++

		case isDigit(c) || (c == '.' && i+1 < len(src) && isDigit(src[i+1])):
			start := i
			for i < len(src) && isDigit(src[i]) {
				i++
			}
			if i < len(src) && src[i] == '.' {
				i++
				for i < len(src) && isDigit(src[i]) {
					i++
				}
			}
			n, err := strconv.ParseFloat(src[start:i], 64)
			if err != nil {
				return nil, compileErr(src, start, "invalid number %q", src[start:i])
			}
			tokens = append(tokens, token{kind: tokNumber, text: src[start:i], pos: start, end: i, num: n})

		case c == '"' || c == '\'':
			start := i
			s, next, err := lexString(src, i)
			if err != nil {
				return nil, err
			}
			i = next
			tokens = append(tokens, token{kind: tokString, text: src[start:i], pos: start, end: i, str: s})

		case c == '$' && i+1 < len(src) && isDigit(src[i+1]):
			start := i
			i++
			for i < len(src) && isDigit(src[i]) {
				i++
			}
			n, _ := strconv.Atoi(src[start+1 : i])
			if n == 0 {
				return nil, compileErr(src, start, "parameters are numbered from $1")
			}
			tokens = append(tokens, token{kind: tokParam, text: src[start:i], pos: start, end: i, num: float64(n)})

		case isIdentStart(c) || ((c == '@' || c == '$') && i+1 < len(src) && isIdentStart(src[i+1])):
			start := i
			if c == '@' || c == '$' {
				i++
			}
			nameStart := i
			for i < len(src) && isIdentPart(src[i]) {
				i++
			}
			tokens = append(tokens, token{kind: tokIdent, text: src[start:i], pos: start, end: i, str: src[nameStart:i]})

		default:
			tok, ok := lexPunct(src, i)
			if !ok {
				return nil, compileErr(src, i, "unexpected character %q", string(c))
			}
			i = tok.end
			tokens = append(tokens, tok)
		}
	}
	tokens = append(tokens, token{kind: tokEOF, pos: len(src), end: len(src)})
	return tokens, nil
}

func lexPunct(src string, i int) (token, bool) {
	simple := map[byte]tokenKind{
		'(': tokLParen, ')': tokRParen,
		'[': tokLBracket, ']': tokRBracket,
		',': tokComma, '?': tokQuestion, ':': tokColon,
	}
	if kind, ok := simple[src[i]]; ok {
		return token{kind: kind, text: src[i : i+1], pos: i, end: i + 1}, true
	}
	for _, op := range multiCharOps {
		if strings.HasPrefix(src[i:], op) {
			return token{kind: tokOp, text: op, pos: i, end: i + len(op)}, true
		}
	}
	if strings.IndexByte(singleCharOps, src[i]) >= 0 {
		return token{kind: tokOp, text: src[i : i+1], pos: i, end: i + 1}, true
	}
	return token{}, false
}

func lexString(src string, start int) (string, int, error) {
	quote := src[start]
	var sb strings.Builder
	i := start + 1
	for i < len(src) {
		c := src[i]
		switch {
		case c == quote:
			return sb.String(), i + 1, nil
		case c == '\\' && i+1 < len(src):
			switch esc := src[i+1]; esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			default:
				sb.WriteByte(esc)
			}
			i += 2
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return "", 0, compileErr(src, start, "unterminated string")
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
