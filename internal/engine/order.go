package engine

import (
	"slices"

	"github.com/u-ask/uask-dom-sub000/internal/rule"
	"github.com/u-ask/uask-dom-sub000/internal/scope"
)

type targetKey struct {
	variable string
	level    scope.Level
}

func keyOf(r *rule.CrossRule) targetKey {
	t := r.Target()
	return targetKey{variable: t.Item.Variable, level: t.Level}
}

// Order returns rules in execution order. Rules sharing a target are
// sorted by descending precedence, then declaration order, and placed
// back into the positions their group occupied. Rules on different
// targets keep their relative declaration order.
//
// The input slice is not modified.
func Order(rules []*rule.CrossRule) []*rule.CrossRule {
	slots := make(map[targetKey][]int)
	var keys []targetKey
	for i, r := range rules {
		k := keyOf(r)
		if _, seen := slots[k]; !seen {
			keys = append(keys, k)
		}
		slots[k] = append(slots[k], i)
	}

	out := make([]*rule.CrossRule, len(rules))
	for _, k := range keys {
		positions := slots[k]
		group := make([]int, len(positions))
		copy(group, positions)
		slices.SortStableFunc(group, func(a, b int) int {
			return rules[b].Precedence() - rules[a].Precedence()
		})
		for i, pos := range positions {
			out[pos] = rules[group[i]]
		}
	}
	return out
}
