// Package domain contains the core model of the resolution and provisioning
// pipeline: dependency identities, version algebra, the resolved graph, and
// the build graph walked by the scheduler.
package domain

import (
	"iter"
	"sort"

	"go.trai.ch/zerr"
)

// BuildNode is one entry of the build graph: a resolved dependency, its
// pinned version, and the keys of its direct dependencies.
type BuildNode struct {
	Dependency Dependency
	Version    PinnedVersion
	DirectDeps []InternedString
}

// Graph is the dependency graph the build scheduler walks.
type Graph struct {
	nodes          map[InternedString]BuildNode
	executionOrder []InternedString
}

// NewGraph creates a new empty Graph.
func NewGraph() *Graph {
	return &Graph{
		nodes: make(map[InternedString]BuildNode),
	}
}

// AddNode adds a node to the graph. Adding the same dependency twice replaces
// the earlier node.
func (g *Graph) AddNode(n BuildNode) {
	g.nodes[n.Dependency.Key()] = n
}

// Node returns the node for the given key.
func (g *Graph) Node(key InternedString) (BuildNode, bool) {
	n, ok := g.nodes[key]
	return n, ok
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// Validate checks for cycles using a depth-first topological sort and
// populates the execution order. The order is deterministic: roots are
// visited sorted by dependency name.
func (g *Graph) Validate() error {
	g.executionOrder = make([]InternedString, 0, len(g.nodes))
	visited := make(map[InternedString]int, len(g.nodes)) // 0: unvisited, 1: visiting, 2: visited
	var path []InternedString

	var visit func(u InternedString) error
	visit = func(u InternedString) error {
		visited[u] = 1
		path = append(path, u)

		node, exists := g.nodes[u]
		if !exists {
			return zerr.With(ErrMissingDependency, "dependency", u.String())
		}

		for _, dep := range node.DirectDeps {
			if visited[dep] == 1 {
				return g.buildCycleError(path, dep)
			}
			if visited[dep] == 0 {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		visited[u] = 2
		path = path[:len(path)-1]
		g.executionOrder = append(g.executionOrder, u)
		return nil
	}

	for _, key := range g.sortedKeys() {
		if visited[key] == 0 {
			if err := visit(key); err != nil {
				return err
			}
		}
	}

	return nil
}

func (g *Graph) sortedKeys() []InternedString {
	keys := make([]InternedString, 0, len(g.nodes))
	for key := range g.nodes {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return g.nodes[keys[i]].Dependency.Name() < g.nodes[keys[j]].Dependency.Name()
	})
	return keys
}

// buildCycleError constructs an error carrying the cycle path.
func (g *Graph) buildCycleError(path []InternedString, dep InternedString) error {
	cyclePath := ""
	startIdx := -1
	for i, node := range path {
		if node == dep {
			startIdx = i
			break
		}
	}
	for i := startIdx; i < len(path); i++ {
		cyclePath += g.nodes[path[i]].Dependency.Name() + " -> "
	}
	cyclePath += g.nodes[dep].Dependency.Name()
	return zerr.With(ErrCycleDetected, "cycle", cyclePath)
}

// Walk returns an iterator yielding nodes in execution order, dependencies
// before dependents. Validate must have succeeded.
func (g *Graph) Walk() iter.Seq[BuildNode] {
	return func(yield func(BuildNode) bool) {
		for _, key := range g.executionOrder {
			if !yield(g.nodes[key]) {
				return
			}
		}
	}
}

// Dependents returns the keys of nodes that directly depend on the given key.
func (g *Graph) Dependents(key InternedString) []InternedString {
	var dependents []InternedString
	for _, orderKey := range g.executionOrder {
		node := g.nodes[orderKey]
		for _, dep := range node.DirectDeps {
			if dep == key {
				dependents = append(dependents, orderKey)
				break
			}
		}
	}
	return dependents
}

// Restrict returns the subgraph containing the given roots and everything
// they transitively depend on. Keys that name no node, whether a root or a
// dependency reached from one, are returned as missing so the caller can
// report them.
func (g *Graph) Restrict(roots []InternedString) (*Graph, []InternedString) {
	var missing []InternedString
	keep := make(map[InternedString]bool)

	var mark func(key InternedString)
	mark = func(key InternedString) {
		if keep[key] {
			return
		}
		node, ok := g.nodes[key]
		if !ok {
			missing = append(missing, key)
			return
		}
		keep[key] = true
		for _, dep := range node.DirectDeps {
			mark(dep)
		}
	}
	for _, root := range roots {
		mark(root)
	}

	sub := NewGraph()
	for key := range keep {
		sub.AddNode(g.nodes[key])
	}
	return sub, missing
}
