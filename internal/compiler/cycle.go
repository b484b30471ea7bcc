package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/callgen/internal/ir"
)

// AnalyzeParents reports parent chains that loop back on themselves.
//
// The algorithm:
//  1. Build the operation -> parent graph (one outgoing edge per operation)
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 or a self-parent as an E107 error
//
// Edges to undeclared parents are skipped; they are E106 errors.
// Each cycle is reported once, on its lexically smallest member.
func AnalyzeParents(set *ir.DeclSet) []ValidationError {
	graph := buildParentGraph(set)

	var errs []ValidationError
	for _, scc := range tarjanSCC(graph) {
		if len(scc) == 1 && !hasSelfLoop(scc[0], graph) {
			continue
		}
		sort.Strings(scc)
		path := reconstructCyclePath(scc, graph)
		errs = append(errs, ValidationError{
			Library:   set.Name,
			Operation: scc[0],
			Field:     "parent",
			Message:   fmt.Sprintf("parent cycle: %s", strings.Join(path, " -> ")),
			Code:      ErrParentCycle,
		})
	}

	sort.Slice(errs, func(i, j int) bool { return errs[i].Operation < errs[j].Operation })
	return errs
}

// parentGraph maps operation name -> parent name (at most one edge).
type parentGraph map[string][]string

func buildParentGraph(set *ir.DeclSet) parentGraph {
	graph := make(parentGraph, len(set.Operations))
	for name, op := range set.Operations {
		graph[name] = []string{}
		if op.Parent == "" {
			continue
		}
		if _, ok := set.Operations[op.Parent]; ok {
			graph[name] = append(graph[name], op.Parent)
		}
	}
	return graph
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph parentGraph) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in sorted order so results are deterministic.
func tarjanSCC(graph parentGraph) [][]string {
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

		// v is a root node: pop the stack and emit an SCC
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
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]string, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	sort.Strings(nodes)

	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

// reconstructCyclePath walks edges inside the SCC from its first member
// until it returns to the start, e.g. [A, B, A].
func reconstructCyclePath(scc []string, graph parentGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}

	sccSet := make(map[string]bool, len(scc))
	for _, node := range scc {
		sccSet[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if sccSet[neighbor] && (!visited[neighbor] || neighbor == start) {
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
