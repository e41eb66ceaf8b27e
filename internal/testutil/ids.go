package testutil

import (
	"fmt"
	"sync"
)

// FixedIDGenerator hands out scripted interview IDs in order, then falls
// back to prefix-1, prefix-2, ... once the script is exhausted.
//
// The same generator built from the same script always yields the same
// sequence, which keeps golden snapshots byte-identical.
//
// Thread-safety: safe for concurrent use.
type FixedIDGenerator struct {
	mu     sync.Mutex
	prefix string
	script []string
	n      int
}

// NewFixedIDGenerator creates a generator. An empty prefix defaults to
// "interview".
func NewFixedIDGenerator(prefix string, script ...string) *FixedIDGenerator {
	if prefix == "" {
		prefix = "interview"
	}
	return &FixedIDGenerator{prefix: prefix, script: script}
}

// Generate returns the next ID.
//
// Implements survey.IDGenerator.
func (g *FixedIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	if g.n <= len(g.script) {
		return g.script[g.n-1]
	}
	return fmt.Sprintf("%s-%d", g.prefix, g.n-len(g.script))
}
