package engine

import (
	"fmt"
	"sync"

	"github.com/u-ask/uask-dom-sub000/internal/ir"
	"github.com/u-ask/uask-dom-sub000/internal/rule"
	"github.com/u-ask/uask-dom-sub000/internal/scope"
	"github.com/u-ask/uask-dom-sub000/internal/survey"
)

// Cache memoizes execution results by input fingerprint.
// A cache hit skips execution entirely, so no firings are observed.
type Cache interface {
	Get(key string) (survey.Interview, bool)
	Put(key string, iv survey.Interview)
}

// MemoryCache is an in-process Cache.
//
// Thread-safety: safe for concurrent use.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]survey.Interview
}

// NewMemoryCache creates an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]survey.Interview)}
}

// Get returns the cached interview for key.
func (c *MemoryCache) Get(key string) (survey.Interview, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	iv, ok := c.entries[key]
	return iv, ok
}

// Put stores iv under key.
func (c *MemoryCache) Put(key string, iv survey.Interview) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = iv
}

// Len returns the number of entries.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// RuleSetFingerprint hashes the structure of a rule list: names, bound
// items with their definitions, triggers, precedences and arguments, in
// declaration order.
func RuleSetFingerprint(rules []*rule.CrossRule) (string, error) {
	arr := make(ir.Array, len(rules))
	for i, r := range rules {
		items := make(ir.Array, len(r.Items))
		for j, it := range r.Items {
			items[j] = ir.String(it.Level.Prefix() + itemSignature(it.Item))
		}
		arr[i] = ir.Object{
			"name":       ir.String(r.Name()),
			"precedence": ir.Number(r.Precedence()),
			"when":       ir.String(r.When),
			"items":      items,
			"args":       r.Args(),
		}
	}
	return ir.Fingerprint(ir.DomainRuleSet, arr)
}

func cacheKey(rulesFP string, s *scope.Scope, f Filter) (string, error) {
	scopeFP, err := s.Fingerprint()
	if err != nil {
		return "", fmt.Errorf("cache key: %w", err)
	}
	filter := ir.Array{}
	for _, entry := range f.snapshot() {
		filter = append(filter, ir.String(entry))
	}
	return ir.Fingerprint(ir.DomainRecord, ir.Object{
		"rules":    ir.String(rulesFP),
		"scope":    ir.String(scopeFP),
		"filter":   filter,
		"pageSets": pageSetSignatures(s),
	})
}

// pageSetSignatures lists the items collected by every page set of the
// chain. Absent versus missing resolution depends on them, and the scope
// snapshot only carries the page set type.
func pageSetSignatures(s *scope.Scope) ir.Array {
	out := ir.Array{}
	for ; s != nil; s = s.Outer() {
		ps := s.Interview().PageSet
		if ps == nil {
			out = append(out, ir.Null{})
			continue
		}
		items := make(ir.Array, len(ps.Items))
		for i, def := range ps.Items {
			items[i] = ir.String(itemSignature(def))
		}
		out = append(out, ir.Object{"type": ir.String(ps.Type), "items": items})
	}
	return out
}

// itemSignature renders VAR:type, with a [] suffix for array items.
func itemSignature(def *survey.ItemDef) string {
	sig := def.Key().String() + ":" + string(def.Type)
	if def.Array {
		sig += "[]"
	}
	return sig
}
