package engine

import "sort"

// Node is one vertex of the dependency graph the planner builds: a
// resource key and the keys it depends on, both in the declared and the
// stored sense (DependsOn carries whichever direction the caller of
// BuildGraph wants edges to run).
type Node struct {
	Key       string
	DependsOn []string
}

// graph is the adjacency-list dependency graph over resource keys,
// grounded on the teacher's topological sort but cleaned up: a single
// in-degree computation pass rather than the teacher's redundant first
// pass that the second pass immediately overwrote.
type graph struct {
	nodes map[string]Node
	edges map[string][]string // key -> keys it depends on
}

func buildGraph(nodes []Node) *graph {
	g := &graph{
		nodes: make(map[string]Node, len(nodes)),
		edges: make(map[string][]string, len(nodes)),
	}
	for _, n := range nodes {
		g.nodes[n.Key] = n
		g.edges[n.Key] = append([]string(nil), n.DependsOn...)
	}
	return g
}

// topoSort returns keys in dependency-first order: a key never appears
// before any key it depends on. Ties between keys with no remaining
// mutual ordering constraint break lexicographically on the key, so two
// runs over the same declared/stored sets always produce the same
// order. Returns ErrCyclicPlan if the graph is not a DAG.
func (g *graph) topoSort() ([]string, error) {
	inDegree := make(map[string]int, len(g.nodes))
	dependents := make(map[string][]string, len(g.nodes))
	for key := range g.nodes {
		inDegree[key] = 0
	}
	for key, deps := range g.edges {
		for _, dep := range deps {
			if _, ok := g.nodes[dep]; !ok {
				continue // missing-resource errors are raised earlier, during dependency validation
			}
			inDegree[key]++
			dependents[dep] = append(dependents[dep], key)
		}
	}

	var ready []string
	for key, deg := range inDegree {
		if deg == 0 {
			ready = append(ready, key)
		}
	}
	sort.Strings(ready)

	var order []string
	for len(ready) > 0 {
		sort.Strings(ready)
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)

		var freed []string
		for _, dependent := range dependents[next] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				freed = append(freed, dependent)
			}
		}
		sort.Strings(freed)
		ready = append(ready, freed...)
	}

	if len(order) != len(g.nodes) {
		remaining := make([]string, 0, len(g.nodes)-len(order))
		placed := make(map[string]bool, len(order))
		for _, k := range order {
			placed[k] = true
		}
		for k := range g.nodes {
			if !placed[k] {
				remaining = append(remaining, k)
			}
		}
		sort.Strings(remaining)
		return nil, &ErrCyclicPlan{Keys: remaining}
	}
	return order, nil
}

// validate checks that every dependency key names a node present in the
// graph, returning ErrMissingResource for the first gap found (in
// lexicographic key order, for determinism).
func (g *graph) validate() error {
	keys := make([]string, 0, len(g.nodes))
	for k := range g.nodes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		deps := append([]string(nil), g.edges[key]...)
		sort.Strings(deps)
		for _, dep := range deps {
			if _, ok := g.nodes[dep]; !ok {
				return &ErrMissingResource{Key: key, Missing: dep}
			}
		}
	}
	return nil
}
