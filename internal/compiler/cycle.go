package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/u-ask/uask-dom-sub000/internal/rule"
	"github.com/u-ask/uask-dom-sub000/internal/scope"
)

// CycleWarning represents a dependency cycle between derived items.
//
// Cycles are warnings, not errors: the engine runs each rule once per
// pass, so a cycle converges over several executions instead of looping.
type CycleWarning struct {
	Path    []string `json:"path"`    // ["BMI", "WEIGHT", "BMI"]
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "warning"
}

// AnalyzeCycles reports items of the current record that depend on
// themselves through rules.
//
// Every rule adds an edge from each local source item to its target.
// Strongly connected components with more than one item, or an item
// bound as its own source, are reported. Outer and global items never
// change during a pass and add no edges.
func AnalyzeCycles(rules []*rule.CrossRule) []CycleWarning {
	warnings := []CycleWarning{}
	if len(rules) == 0 {
		return warnings
	}

	graph := buildDependencyGraph(rules)
	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			warnings = append(warnings, cycleSCCToWarning(scc, graph))
		}
	}
	return warnings
}

// dependencyGraph maps an item to the items computed from it.
type dependencyGraph map[string][]string

func buildDependencyGraph(rules []*rule.CrossRule) dependencyGraph {
	graph := make(dependencyGraph)
	for _, r := range rules {
		target := r.Target()
		if target.Level != scope.Local {
			continue
		}
		to := target.Item.Variable
		if graph[to] == nil {
			graph[to] = []string{}
		}
		for _, src := range r.Items[:len(r.Items)-1] {
			if src.Level != scope.Local {
				continue
			}
			from := src.Item.Variable
			if !slices.Contains(graph[from], to) {
				graph[from] = append(graph[from], to)
			}
		}
	}
	return graph
}

func hasSelfLoop(node string, graph dependencyGraph) bool {
	return slices.Contains(graph[node], node)
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in sorted order so results are deterministic.
func tarjanSCC(graph dependencyGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			slices.Sort(scc)
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]string, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	slices.Sort(nodes)
	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

func cycleSCCToWarning(scc []string, graph dependencyGraph) CycleWarning {
	if len(scc) == 1 {
		item := scc[0]
		return CycleWarning{
			Path:    []string{item, item},
			Message: fmt.Sprintf("item computed from itself: %s → %s", item, item),
			Level:   "warning",
		}
	}

	path := reconstructCyclePath(scc, graph)
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("dependency cycle: %s", strings.Join(path, " → ")),
		Level:   "warning",
	}
}

// reconstructCyclePath follows edges inside the SCC from its first item
// until the walk returns to it.
func reconstructCyclePath(scc []string, graph dependencyGraph) []string {
	start := scc[0]
	current := start
	path := []string{current}
	visited := map[string]bool{}

	for {
		visited[current] = true
		var next string
		for _, neighbor := range graph[current] {
			if slices.Contains(scc, neighbor) && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}
		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}
