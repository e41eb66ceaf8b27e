package formula

import (
	"slices"

	"github.com/u-ask/uask-dom-sub000/internal/ir"
)

// Operator precedence, lowest first. Ternary sits below all of them.
var binaryLevels = [][]string{
	{"||"},
	{"&&"},
	{"==", "!=", "===", "!=="},
	{"<", ">", "<=", ">="},
	{"+", "-"},
	{"*", "/", "%"},
}

type parser struct {
	src    string
	tokens []token
	pos    int
	arity  int
}

func parse(src string) (node, int, error) {
	tokens, err := lex(src)
	if err != nil {
		return nil, 0, err
	}
	p := &parser{src: src, tokens: tokens}
	if p.peek().kind == tokEOF {
		return nil, 0, compileErr(src, 0, "empty formula")
	}
	root, err := p.ternary()
	if err != nil {
		return nil, 0, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, 0, compileErr(src, tok.pos, "unexpected %q", tok.text)
	}
	return root, p.arity, nil
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) advance() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) expect(kind tokenKind, what string) error {
	tok := p.advance()
	if tok.kind != kind {
		return compileErr(p.src, tok.pos, "expected %s", what)
	}
	return nil
}

func (p *parser) ternary() (node, error) {
	cond, err := p.binary(0)
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokQuestion {
		return cond, nil
	}
	p.advance()
	then, err := p.ternary()
	if err != nil {
		return nil, err
	}
	if err := p.expect(tokColon, `":"`); err != nil {
		return nil, err
	}
	els, err := p.ternary()
	if err != nil {
		return nil, err
	}
	return ternaryNode{cond: cond, then: then, els: els}, nil
}

func (p *parser) binary(level int) (node, error) {
	if level == len(binaryLevels) {
		return p.unary()
	}
	left, err := p.binary(level + 1)
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.kind != tokOp || !slices.Contains(binaryLevels[level], tok.text) {
			return left, nil
		}
		p.advance()
		right, err := p.binary(level + 1)
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: tok.text, left: left, right: right}
	}
}

func (p *parser) unary() (node, error) {
	tok := p.peek()
	if tok.kind == tokOp && (tok.text == "!" || tok.text == "-" || tok.text == "+") {
		p.advance()
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return unaryNode{op: tok.text, x: x}, nil
	}
	return p.primary()
}

func (p *parser) primary() (node, error) {
	tok := p.advance()
	switch tok.kind {
	case tokNumber:
		return literalNode{value: ir.Number(tok.num)}, nil
	case tokString:
		return literalNode{value: ir.String(tok.str)}, nil
	case tokParam:
		n := int(tok.num)
		p.arity = max(p.arity, n)
		return paramNode{index: n}, nil
	case tokLParen:
		inner, err := p.ternary()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen, `")"`); err != nil {
			return nil, err
		}
		return inner, nil
	case tokLBracket:
		elems, err := p.list(tokRBracket, `"]"`)
		if err != nil {
			return nil, err
		}
		return arrayNode{elems: elems}, nil
	case tokIdent:
		return p.helper(tok)
	case tokEOF:
		return nil, compileErr(p.src, tok.pos, "unexpected end of formula")
	default:
		return nil, compileErr(p.src, tok.pos, "unexpected %q", tok.text)
	}
}

// helper parses a reference to one of the fixed helper names. Any other
// identifier is rejected: variables must have been rewritten already.
func (p *parser) helper(tok token) (node, error) {
	if tok.prefix() != "" || !IsHelper(tok.str) {
		return nil, compileErr(p.src, tok.pos, "unknown identifier %s", tok.text)
	}
	if tok.str == HelperMemento {
		if p.peek().kind == tokLParen {
			return nil, compileErr(p.src, tok.pos, "M is not callable")
		}
		return mementoNode{}, nil
	}
	if err := p.expect(tokLParen, `"(" after `+tok.str); err != nil {
		return nil, err
	}
	args, err := p.list(tokRParen, `")"`)
	if err != nil {
		return nil, err
	}
	switch tok.str {
	case HelperIn:
		if len(args) != 2 {
			return nil, compileErr(p.src, tok.pos, "IN takes 2 arguments, got %d", len(args))
		}
	case HelperMem, HelperRem:
		if len(args) < 1 || len(args) > 2 {
			return nil, compileErr(p.src, tok.pos, "%s takes 1 or 2 arguments, got %d", tok.str, len(args))
		}
	}
	return callNode{fn: tok.str, args: args}, nil
}

func (p *parser) list(closing tokenKind, what string) ([]node, error) {
	var out []node
	if p.peek().kind == closing {
		p.advance()
		return out, nil
	}
	for {
		elem, err := p.ternary()
		if err != nil {
			return nil, err
		}
		out = append(out, elem)
		tok := p.advance()
		switch tok.kind {
		case tokComma:
			continue
		case closing:
			return out, nil
		default:
			return nil, compileErr(p.src, tok.pos, "expected \",\" or %s", what)
		}
	}
}
