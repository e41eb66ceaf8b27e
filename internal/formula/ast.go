package formula

import "github.com/u-ask/uask-dom-sub000/internal/ir"

// node is a sealed expression tree node.
type node interface {
	node()
}

type literalNode struct {
	value ir.Value
}

type paramNode struct {
	index int // 1-based
}

type mementoNode struct{}

type unaryNode struct {
	op string
	x  node
}

type binaryNode struct {
	op          string
	left, right node
}

type ternaryNode struct {
	cond, then, els node
}

type callNode struct {
	fn   string
	args []node
}

type arrayNode struct {
	elems []node
}

func (literalNode) node() {}
func (paramNode) node()   {}
func (mementoNode) node() {}
func (unaryNode) node()   {}
func (binaryNode) node()  {}
func (ternaryNode) node() {}
func (callNode) node()    {}
func (arrayNode) node()   {}
