package graph

import (
	"testing"

	"github.com/flowcore/engine/pkg/config"
	"github.com/flowcore/engine/pkg/executor"
	"github.com/flowcore/engine/pkg/types"
)

type stubFactory struct{ id string }

func (f stubFactory) TypeID() string     { return f.id }
func (f stubFactory) Metadata() executor.Metadata {
	return executor.Metadata{TypeID: f.id, InputPorts: []string{"in"}, OutputPorts: []string{"out"}}
}
func (f stubFactory) ValidateConfig(map[string]types.Value) error { return nil }
func (f stubFactory) Create(map[string]types.Value) (executor.Node, error) {
	return nil, nil
}

func newTestRegistry(typeIDs ...string) *executor.Registry {
	reg := executor.NewRegistry()
	for _, id := range typeIDs {
		reg.MustRegister(stubFactory{id: id})
	}
	return reg
}

func node(id string) types.NodeSpec {
	return types.NodeSpec{ID: id, NodeType: "stub", Config: map[string]types.Value{}}
}

func conn(from, to string) types.Connection {
	return types.Connection{FromNodeID: from, FromPort: "out", ToNodeID: to, ToPort: "in"}
}

func TestValidate_CycleIsRejectedWithPath(t *testing.T) {
	reg := newTestRegistry("stub")
	w := types.Workflow{
		ID:    "cyclic",
		Nodes: []types.NodeSpec{node("A"), node("B")},
		Connections: []types.Connection{
			conn("A", "B"),
			conn("B", "A"),
		},
		Settings: types.WorkflowSettings{MaxParallelNodes: 1},
	}

	_, err := Validate(w, reg, nil)
	if err == nil {
		t.Fatal("expected Validate to reject a cycle")
	}
	cycleErr, ok := err.(*types.CycleDetectedError)
	if !ok {
		t.Fatalf("expected *types.CycleDetectedError, got %T: %v", err, err)
	}

	inPath := map[string]bool{}
	for _, id := range cycleErr.Path {
		inPath[id] = true
	}
	if !inPath["A"] || !inPath["B"] {
		t.Errorf("expected cycle path to contain both A and B, got %v", cycleErr.Path)
	}
}

func TestValidate_LongerCycleIsRejected(t *testing.T) {
	reg := newTestRegistry("stub")
	w := types.Workflow{
		ID:    "cyclic3",
		Nodes: []types.NodeSpec{node("A"), node("B"), node("C")},
		Connections: []types.Connection{
			conn("A", "B"),
			conn("B", "C"),
			conn("C", "A"),
		},
		Settings: types.WorkflowSettings{MaxParallelNodes: 1},
	}

	_, err := Validate(w, reg, nil)
	if _, ok := err.(*types.CycleDetectedError); !ok {
		t.Fatalf("expected *types.CycleDetectedError, got %T: %v", err, err)
	}
}

func TestValidate_RejectsDuplicateNodeID(t *testing.T) {
	reg := newTestRegistry("stub")
	w := types.Workflow{
		ID:    "dup",
		Nodes: []types.NodeSpec{node("A"), node("A")},
		Settings: types.WorkflowSettings{MaxParallelNodes: 1},
	}

	_, err := Validate(w, reg, nil)
	if _, ok := err.(*types.DuplicateNodeIDError); !ok {
		t.Fatalf("expected *types.DuplicateNodeIDError, got %T: %v", err, err)
	}
}

func TestValidate_RejectsUnknownNodeType(t *testing.T) {
	reg := newTestRegistry("stub")
	w := types.Workflow{
		ID:       "unknown-type",
		Nodes:    []types.NodeSpec{{ID: "A", NodeType: "does-not-exist"}},
		Settings: types.WorkflowSettings{MaxParallelNodes: 1},
	}

	_, err := Validate(w, reg, nil)
	if _, ok := err.(*types.UnknownNodeTypeError); !ok {
		t.Fatalf("expected *types.UnknownNodeTypeError, got %T: %v", err, err)
	}
}

func TestValidate_RejectsDanglingConnection(t *testing.T) {
	reg := newTestRegistry("stub")
	w := types.Workflow{
		ID:          "dangling",
		Nodes:       []types.NodeSpec{node("A")},
		Connections: []types.Connection{conn("A", "ghost")},
		Settings:    types.WorkflowSettings{MaxParallelNodes: 1},
	}

	_, err := Validate(w, reg, nil)
	if _, ok := err.(*types.UnknownNodeReferenceError); !ok {
		t.Fatalf("expected *types.UnknownNodeReferenceError, got %T: %v", err, err)
	}
}

func TestValidate_RejectsDuplicateInputPort(t *testing.T) {
	reg := newTestRegistry("stub")
	w := types.Workflow{
		ID:    "fan-in",
		Nodes: []types.NodeSpec{node("A"), node("B"), node("C")},
		Connections: []types.Connection{
			conn("A", "C"),
			conn("B", "C"),
		},
		Settings: types.WorkflowSettings{MaxParallelNodes: 1},
	}

	_, err := Validate(w, reg, nil)
	dupErr, ok := err.(*types.DuplicateInputPortError)
	if !ok {
		t.Fatalf("expected *types.DuplicateInputPortError, got %T: %v", err, err)
	}
	if dupErr.NodeID != "C" || dupErr.Port != "in" {
		t.Errorf("expected the duplicate to name node C port in, got %+v", dupErr)
	}
}

func TestValidate_AcceptsValidDiamond(t *testing.T) {
	reg := newTestRegistry("stub")
	w := types.Workflow{
		ID:    "diamond",
		Nodes: []types.NodeSpec{node("S"), node("L"), node("R"), node("J")},
		Connections: []types.Connection{
			{FromNodeID: "S", FromPort: "out", ToNodeID: "L", ToPort: "in"},
			{FromNodeID: "S", FromPort: "out", ToNodeID: "R", ToPort: "in"},
			{FromNodeID: "L", FromPort: "out", ToNodeID: "J", ToPort: "l"},
			{FromNodeID: "R", FromPort: "out", ToNodeID: "J", ToPort: "r"},
		},
		Settings: types.WorkflowSettings{MaxParallelNodes: 2},
	}

	plan, err := Validate(w, reg, nil)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if len(plan.RootNodes) != 1 || plan.RootNodes[0] != "S" {
		t.Errorf("expected root nodes to be [S], got %v", plan.RootNodes)
	}
	if plan.TopoIndex["S"] >= plan.TopoIndex["J"] {
		t.Errorf("expected S to precede J in topological order")
	}
}

func TestValidate_RejectsWorkflowExceedingMaxNodes(t *testing.T) {
	reg := newTestRegistry("stub")
	w := types.Workflow{
		ID:       "too-big",
		Nodes:    []types.NodeSpec{node("A"), node("B"), node("C")},
		Settings: types.WorkflowSettings{MaxParallelNodes: 1},
	}
	cfg := config.Default()
	cfg.MaxNodes = 2

	_, err := Validate(w, reg, cfg)
	if _, ok := err.(*types.ConfigurationError); !ok {
		t.Fatalf("expected *types.ConfigurationError, got %T: %v", err, err)
	}
}

func TestValidate_WarnsOnUndeclaredPortButStillValidates(t *testing.T) {
	reg := newTestRegistry("stub")
	w := types.Workflow{
		ID:    "port-mismatch",
		Nodes: []types.NodeSpec{node("A"), node("B")},
		Connections: []types.Connection{
			{FromNodeID: "A", FromPort: "out", ToNodeID: "B", ToPort: "does-not-exist"},
		},
		Settings: types.WorkflowSettings{MaxParallelNodes: 1},
	}

	plan, err := Validate(w, reg, nil)
	if err != nil {
		t.Fatalf("Validate() error = %v, want success with a warning", err)
	}
	if len(plan.PortWarnings) != 1 {
		t.Fatalf("expected exactly one port warning, got %v", plan.PortWarnings)
	}
}

func TestPlan_IntrospectionAccessorsDelegateToGraph(t *testing.T) {
	reg := newTestRegistry("stub")
	w := types.Workflow{
		ID:          "introspect",
		Nodes:       []types.NodeSpec{node("A"), node("B")},
		Connections: []types.Connection{conn("A", "B")},
		Settings:    types.WorkflowSettings{MaxParallelNodes: 1},
	}

	plan, err := Validate(w, reg, nil)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if _, ok := plan.NodeByID("A"); !ok {
		t.Error("expected NodeByID(A) to be found")
	}
	if _, ok := plan.NodeByID("ghost"); ok {
		t.Error("expected NodeByID(ghost) to report not found")
	}
	if out := plan.OutputConnections("A"); len(out) != 1 {
		t.Errorf("expected one output connection from A, got %v", out)
	}
	if in := plan.InputConnections("B"); len(in) != 1 {
		t.Errorf("expected one input connection into B, got %v", in)
	}
}

func TestValidate_RejectsWorkflowExceedingMaxConnections(t *testing.T) {
	reg := newTestRegistry("stub")
	w := types.Workflow{
		ID:    "too-many-edges",
		Nodes: []types.NodeSpec{node("A"), node("B"), node("C")},
		Connections: []types.Connection{
			conn("A", "B"),
			conn("B", "C"),
		},
		Settings: types.WorkflowSettings{MaxParallelNodes: 1},
	}
	cfg := config.Default()
	cfg.MaxConnections = 1

	_, err := Validate(w, reg, cfg)
	if _, ok := err.(*types.ConfigurationError); !ok {
		t.Fatalf("expected *types.ConfigurationError, got %T: %v", err, err)
	}
}
