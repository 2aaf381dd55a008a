// Package graph provides DAG operations over a Workflow's Connections:
// topological ordering for deterministic scheduler tie-breaking, and
// depth-first cycle detection that reports the offending path.
package graph

import (
	"fmt"

	"github.com/flowcore/engine/pkg/types"
)

// Graph is a workflow's node set and connection set, indexed for
// repeated topology queries.
type Graph struct {
	nodes       []types.NodeSpec
	connections []types.Connection
}

// New creates a Graph from a workflow's nodes and connections.
func New(nodes []types.NodeSpec, connections []types.Connection) *Graph {
	return &Graph{nodes: nodes, connections: connections}
}

// TopologicalOrder computes a deterministic topological ordering via
// Kahn's algorithm. The scheduler uses the resulting index to
// tie-break when multiple nodes become Ready simultaneously
// (spec.md §4.6 "Determinism notes").
//
// Optimizations retained from the node-level in-degree/adjacency
// approach this is grounded on: pre-sized maps, a pre-sized slice queue
// with a head index for O(1) dequeue, and insertion sort of the initial root set (small n,
// dominated by map allocation otherwise).
func (g *Graph) TopologicalOrder() ([]string, error) {
	numNodes := len(g.nodes)
	if numNodes == 0 {
		return []string{}, nil
	}

	inDegree := make(map[string]int, numNodes)
	adjacency := make(map[string][]string, numNodes)
	for i := range g.nodes {
		inDegree[g.nodes[i].ID] = 0
	}
	for i := range g.connections {
		c := &g.connections[i]
		adjacency[c.FromNodeID] = append(adjacency[c.FromNodeID], c.ToNodeID)
		inDegree[c.ToNodeID]++
	}

	roots := make([]string, 0, numNodes)
	for id, degree := range inDegree {
		if degree == 0 {
			roots = append(roots, id)
		}
	}
	insertionSort(roots)

	queue := make([]string, numNodes)
	queueStart := 0
	queueEnd := len(roots)
	copy(queue, roots)

	order := make([]string, 0, numNodes)
	for queueStart < queueEnd {
		current := queue[queueStart]
		queueStart++
		order = append(order, current)

		neighbors := adjacency[current]
		for _, neighbor := range neighbors {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				queue[queueEnd] = neighbor
				queueEnd++
			}
		}
	}

	if len(order) != numNodes {
		return nil, fmt.Errorf("graph: cannot compute topological order, graph contains a cycle")
	}
	return order, nil
}

// insertionSort sorts a slice of strings in place. Faster than the
// standard library sort for the small root-sets typical of a workflow.
func insertionSort(arr []string) {
	for i := 1; i < len(arr); i++ {
		key := arr[i]
		j := i - 1
		for j >= 0 && arr[j] > key {
			arr[j+1] = arr[j]
			j--
		}
		arr[j+1] = key
	}
}

// DetectCycle runs a depth-first search with grey/black node marking
// to find a cycle, reporting the back-edge path (spec.md §4.5 rule 6).
// White nodes are unvisited, grey nodes are on the current recursion
// stack, black nodes are fully explored. A cycle exists iff DFS
// reaches a grey node.
func (g *Graph) DetectCycle() (path []string, found bool) {
	adjacency := make(map[string][]string, len(g.nodes))
	for i := range g.connections {
		c := &g.connections[i]
		adjacency[c.FromNodeID] = append(adjacency[c.FromNodeID], c.ToNodeID)
	}
	// Deterministic traversal order.
	ids := make([]string, len(g.nodes))
	for i, n := range g.nodes {
		ids[i] = n.ID
	}
	insertionSort(ids)
	for i := range ids {
		insertionSort(adjacency[ids[i]])
	}

	const (
		white = 0
		grey  = 1
		black = 2
	)
	color := make(map[string]int, len(g.nodes))
	stack := make([]string, 0, len(g.nodes))

	var visit func(id string) []string
	visit = func(id string) []string {
		color[id] = grey
		stack = append(stack, id)
		for _, next := range adjacency[id] {
			switch color[next] {
			case white:
				if cyclePath := visit(next); cyclePath != nil {
					return cyclePath
				}
			case grey:
				// Back edge found: extract the cycle from the stack.
				start := 0
				for i, sid := range stack {
					if sid == next {
						start = i
						break
					}
				}
				cyclePath := append([]string{}, stack[start:]...)
				cyclePath = append(cyclePath, next)
				return cyclePath
			case black:
				// Already fully explored; no cycle through here.
			}
		}
		color[id] = black
		stack = stack[:len(stack)-1]
		return nil
	}

	for _, id := range ids {
		if color[id] == white {
			if cyclePath := visit(id); cyclePath != nil {
				return cyclePath, true
			}
		}
	}
	return nil, false
}

// NodeByID retrieves a node by id.
func (g *Graph) NodeByID(nodeID string) (types.NodeSpec, bool) {
	for i := range g.nodes {
		if g.nodes[i].ID == nodeID {
			return g.nodes[i], true
		}
	}
	return types.NodeSpec{}, false
}

// InputConnections returns all connections targeting nodeID.
func (g *Graph) InputConnections(nodeID string) []types.Connection {
	var out []types.Connection
	for _, c := range g.connections {
		if c.ToNodeID == nodeID {
			out = append(out, c)
		}
	}
	return out
}

// OutputConnections returns all connections sourced from nodeID.
func (g *Graph) OutputConnections(nodeID string) []types.Connection {
	var out []types.Connection
	for _, c := range g.connections {
		if c.FromNodeID == nodeID {
			out = append(out, c)
		}
	}
	return out
}

// RootNodes returns the ids of nodes with no incoming connection.
func (g *Graph) RootNodes() []string {
	hasIncoming := make(map[string]bool, len(g.nodes))
	for _, c := range g.connections {
		hasIncoming[c.ToNodeID] = true
	}
	var roots []string
	for _, n := range g.nodes {
		if !hasIncoming[n.ID] {
			roots = append(roots, n.ID)
		}
	}
	insertionSort(roots)
	return roots
}
