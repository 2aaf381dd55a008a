package graph

import (
	"fmt"

	"github.com/flowcore/engine/pkg/config"
	"github.com/flowcore/engine/pkg/executor"
	"github.com/flowcore/engine/pkg/types"
)

// Plan is the prepared execution plan produced by Validate: adjacency
// lists in both directions, per-node input and output connection lists, and a
// topological order for deterministic tie-breaking (spec.md §4.5).
type Plan struct {
	Workflow         types.Workflow
	TopoIndex        map[string]int // node id -> position in topological order
	InputConnByNode  map[string][]types.Connection
	OutputConnByNode map[string][]types.Connection
	RootNodes        []string

	// PortWarnings holds rule 4's non-fatal findings: connections whose
	// declared port names are not in the target node type's registered
	// metadata. A workflow carrying these still validates (spec.md
	// §4.5 rule 4: "permitted but do not fail"); an introspection
	// caller can surface them.
	PortWarnings []string

	graph *Graph
}

// NodeByID retrieves a node of the validated workflow by id, for an
// introspection caller that already holds a Plan.
func (p *Plan) NodeByID(nodeID string) (types.NodeSpec, bool) {
	return p.graph.NodeByID(nodeID)
}

// InputConnections returns all connections targeting nodeID.
func (p *Plan) InputConnections(nodeID string) []types.Connection {
	return p.graph.InputConnections(nodeID)
}

// OutputConnections returns all connections sourced from nodeID.
func (p *Plan) OutputConnections(nodeID string) []types.Connection {
	return p.graph.OutputConnections(nodeID)
}

// Validate runs the six ordered rules from spec.md §4.5 against w using
// reg to resolve node types, returning a Plan on success or the first
// rule violated. cfg supplies the resource-limit guard (MaxNodes,
// MaxConnections) checked before any of the six rules; a nil cfg uses
// config.Default().
func Validate(w types.Workflow, reg *executor.Registry, cfg *config.Config) (*Plan, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	// Resource-limit guard, ahead of the six named rules: defends
	// against a misconfigured or adversarial workflow document before
	// spending any work validating its shape.
	if cfg.MaxNodes > 0 && len(w.Nodes) > cfg.MaxNodes {
		return nil, types.ErrConfiguration("", fmt.Sprintf(
			"workflow declares %d nodes, exceeding the configured limit of %d", len(w.Nodes), cfg.MaxNodes))
	}
	if cfg.MaxConnections > 0 && len(w.Connections) > cfg.MaxConnections {
		return nil, types.ErrConfiguration("", fmt.Sprintf(
			"workflow declares %d connections, exceeding the configured limit of %d", len(w.Connections), cfg.MaxConnections))
	}

	// Rule 1: node-id uniqueness.
	seen := make(map[string]bool, len(w.Nodes))
	nodeByID := make(map[string]types.NodeSpec, len(w.Nodes))
	for _, n := range w.Nodes {
		if seen[n.ID] {
			return nil, types.ErrDuplicateNodeID(n.ID)
		}
		seen[n.ID] = true
		nodeByID[n.ID] = n
	}

	// Rule 2: every node_type is registered.
	for _, n := range w.Nodes {
		if !reg.Has(n.NodeType) {
			return nil, types.ErrUnknownNodeType(n.ID, n.NodeType)
		}
	}

	// Rule 3: per-node validate_config.
	for _, n := range w.Nodes {
		if err := reg.ValidateConfig(n.ID, n.NodeType, n.Config); err != nil {
			return nil, err
		}
	}

	// Rule 4: connection endpoints reference existing nodes. A declared
	// port absent from the endpoint's registered metadata is a warning,
	// not a failure (spec.md §4.5 rule 4: "permitted but do not fail").
	var portWarnings []string
	for i, c := range w.Connections {
		if !seen[c.FromNodeID] {
			return nil, types.ErrUnknownNodeReference(i, c.FromNodeID)
		}
		if !seen[c.ToNodeID] {
			return nil, types.ErrUnknownNodeReference(i, c.ToNodeID)
		}

		if f, ok := reg.Lookup(nodeByID[c.FromNodeID].NodeType); ok && !hasPort(f.Metadata().OutputPorts, c.FromPort) {
			portWarnings = append(portWarnings, fmt.Sprintf(
				"connection %d: node %q has no output port %q", i, c.FromNodeID, c.FromPort))
		}
		if f, ok := reg.Lookup(nodeByID[c.ToNodeID].NodeType); ok && !hasPort(f.Metadata().InputPorts, c.ToPort) {
			portWarnings = append(portWarnings, fmt.Sprintf(
				"connection %d: node %q has no input port %q", i, c.ToNodeID, c.ToPort))
		}
	}

	// Rule 5: fan-in — at most one connection per (node, input_port).
	inputPort := make(map[string]bool, len(w.Connections))
	for _, c := range w.Connections {
		key := c.ToNodeID + "\x00" + c.ToPort
		if inputPort[key] {
			return nil, types.ErrDuplicateInputPort(c.ToNodeID, c.ToPort)
		}
		inputPort[key] = true
	}

	// Rule 6: DFS grey/black cycle detection with path reporting.
	g := New(w.Nodes, w.Connections)
	if path, found := g.DetectCycle(); found {
		return nil, types.ErrCycleDetected(path)
	}

	order, err := g.TopologicalOrder()
	if err != nil {
		// Unreachable: rule 6 already proved acyclicity.
		return nil, err
	}

	topoIndex := make(map[string]int, len(order))
	for i, id := range order {
		topoIndex[id] = i
	}

	inputConnByNode := make(map[string][]types.Connection, len(w.Nodes))
	outputConnByNode := make(map[string][]types.Connection, len(w.Nodes))
	for _, c := range w.Connections {
		inputConnByNode[c.ToNodeID] = append(inputConnByNode[c.ToNodeID], c)
		outputConnByNode[c.FromNodeID] = append(outputConnByNode[c.FromNodeID], c)
	}

	return &Plan{
		Workflow:         w,
		TopoIndex:        topoIndex,
		InputConnByNode:  inputConnByNode,
		OutputConnByNode: outputConnByNode,
		RootNodes:        g.RootNodes(),
		PortWarnings:     portWarnings,
		graph:            g,
	}, nil
}

// hasPort reports whether name is among ports. A single "*" entry is a
// wildcard accepting any port name (e.g. the expression node's free-form
// "in").
func hasPort(ports []string, name string) bool {
	for _, p := range ports {
		if p == "*" || p == name {
			return true
		}
	}
	return false
}
