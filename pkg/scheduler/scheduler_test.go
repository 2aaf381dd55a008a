package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/flowcore/engine/pkg/config"
	"github.com/flowcore/engine/pkg/eventbus"
	"github.com/flowcore/engine/pkg/executor"
	"github.com/flowcore/engine/pkg/graph"
	"github.com/flowcore/engine/pkg/types"
)

// funcNode adapts a plain function to executor.Node for tests, the
// same way the teacher's table-driven node executor tests stub out a
// single operation rather than building a throwaway type per case.
type funcNode struct {
	executor.NopNode
	typeID string
	fn     func(executor.NodeContext) (executor.NodeOutput, error)
}

func (n *funcNode) TypeID() string { return n.typeID }
func (n *funcNode) Execute(ctx executor.NodeContext) (executor.NodeOutput, error) {
	return n.fn(ctx)
}

type funcFactory struct {
	typeID string
	create func(map[string]types.Value) executor.Node
}

func (f *funcFactory) TypeID() string { return f.typeID }
func (f *funcFactory) Metadata() executor.Metadata {
	return executor.Metadata{TypeID: f.typeID}
}
func (f *funcFactory) ValidateConfig(map[string]types.Value) error { return nil }
func (f *funcFactory) Create(cfg map[string]types.Value) (executor.Node, error) {
	return f.create(cfg), nil
}

func registerFunc(t *testing.T, reg *executor.Registry, typeID string, fn func(executor.NodeContext) (executor.NodeOutput, error)) {
	t.Helper()
	reg.MustRegister(&funcFactory{typeID: typeID, create: func(map[string]types.Value) executor.Node {
		return &funcNode{typeID: typeID, fn: fn}
	}})
}

func buildPlan(t *testing.T, reg *executor.Registry, wf types.Workflow) *graph.Plan {
	t.Helper()
	plan, err := graph.Validate(wf, reg, config.Default())
	if err != nil {
		t.Fatalf("graph.Validate() error = %v", err)
	}
	return plan
}

func defaultSettings() types.WorkflowSettings {
	return types.WorkflowSettings{MaxParallelNodes: 4, OnError: types.OnError{Kind: types.StopWorkflow}}
}

func TestRun_LinearChain(t *testing.T) {
	reg := executor.NewRegistry()
	registerFunc(t, reg, "emit-one", func(ctx executor.NodeContext) (executor.NodeOutput, error) {
		return executor.NodeOutput{Outputs: map[string]types.Value{"out": types.Number(1)}}, nil
	})
	registerFunc(t, reg, "increment", func(ctx executor.NodeContext) (executor.NodeOutput, error) {
		in, err := ctx.RequireInput("in")
		if err != nil {
			return executor.NodeOutput{}, err
		}
		n, _ := in.AsNumber()
		return executor.NodeOutput{Outputs: map[string]types.Value{"out": types.Number(n + 1)}}, nil
	})

	wf := types.Workflow{
		ID: "wf-linear",
		Nodes: []types.NodeSpec{
			{ID: "a", NodeType: "emit-one"},
			{ID: "b", NodeType: "increment"},
			{ID: "c", NodeType: "increment"},
		},
		Connections: []types.Connection{
			{FromNodeID: "a", FromPort: "out", ToNodeID: "b", ToPort: "in"},
			{FromNodeID: "b", FromPort: "out", ToNodeID: "c", ToPort: "in"},
		},
		Settings: defaultSettings(),
	}
	plan := buildPlan(t, reg, wf)
	bus := eventbus.New(64)
	defer bus.Close()

	result, err := Run(context.Background(), "exec-1", plan, reg, bus, nil, config.Testing())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !result.Success || result.CompletedNodes != 3 || result.FailedNodes != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	out, _ := result.Outputs["c"]["out"].AsNumber()
	if out != 3 {
		t.Errorf("expected c.out = 3, got %v", out)
	}
}

func TestRun_DiamondParallelism(t *testing.T) {
	reg := executor.NewRegistry()
	registerFunc(t, reg, "emit-one", func(ctx executor.NodeContext) (executor.NodeOutput, error) {
		return executor.NodeOutput{Outputs: map[string]types.Value{"x": types.Number(1)}}, nil
	})
	registerFunc(t, reg, "double", func(ctx executor.NodeContext) (executor.NodeOutput, error) {
		in, _ := ctx.RequireInput("in")
		n, _ := in.AsNumber()
		return executor.NodeOutput{Outputs: map[string]types.Value{"out": types.Number(n * 2)}}, nil
	})
	registerFunc(t, reg, "triple", func(ctx executor.NodeContext) (executor.NodeOutput, error) {
		in, _ := ctx.RequireInput("in")
		n, _ := in.AsNumber()
		return executor.NodeOutput{Outputs: map[string]types.Value{"out": types.Number(n * 3)}}, nil
	})
	registerFunc(t, reg, "sum", func(ctx executor.NodeContext) (executor.NodeOutput, error) {
		l, _ := ctx.RequireInput("l")
		r, _ := ctx.RequireInput("r")
		ln, _ := l.AsNumber()
		rn, _ := r.AsNumber()
		return executor.NodeOutput{Outputs: map[string]types.Value{"out": types.Number(ln + rn)}}, nil
	})

	wf := types.Workflow{
		ID: "wf-diamond",
		Nodes: []types.NodeSpec{
			{ID: "s", NodeType: "emit-one"},
			{ID: "l", NodeType: "double"},
			{ID: "r", NodeType: "triple"},
			{ID: "j", NodeType: "sum"},
		},
		Connections: []types.Connection{
			{FromNodeID: "s", FromPort: "x", ToNodeID: "l", ToPort: "in"},
			{FromNodeID: "s", FromPort: "x", ToNodeID: "r", ToPort: "in"},
			{FromNodeID: "l", FromPort: "out", ToNodeID: "j", ToPort: "l"},
			{FromNodeID: "r", FromPort: "out", ToNodeID: "j", ToPort: "r"},
		},
		Settings: types.WorkflowSettings{MaxParallelNodes: 2, OnError: types.OnError{Kind: types.StopWorkflow}},
	}
	plan := buildPlan(t, reg, wf)
	bus := eventbus.New(64)
	defer bus.Close()

	result, err := Run(context.Background(), "exec-2", plan, reg, bus, nil, config.Testing())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	out, _ := result.Outputs["j"]["out"].AsNumber()
	if out != 5 {
		t.Errorf("expected j.out = 5, got %v", out)
	}
}

func TestRun_RetrySucceeds(t *testing.T) {
	reg := executor.NewRegistry()
	var calls int32
	registerFunc(t, reg, "flaky", func(ctx executor.NodeContext) (executor.NodeOutput, error) {
		n := atomic.AddInt32(&calls, 1)
		if n < 3 {
			return executor.NodeOutput{}, types.ErrExecutionFailed(nil)
		}
		return executor.NodeOutput{Outputs: map[string]types.Value{"out": types.Number(float64(n))}}, nil
	})

	wf := types.Workflow{
		ID:    "wf-retry",
		Nodes: []types.NodeSpec{{ID: "f", NodeType: "flaky", RetryPolicy: &types.RetryPolicy{MaxAttempts: 3, DelayMS: 1, BackoffMultiplier: 2.0}}},
		Settings: defaultSettings(),
	}
	plan := buildPlan(t, reg, wf)
	bus := eventbus.New(64)
	defer bus.Close()

	result, err := Run(context.Background(), "exec-3", plan, reg, bus, nil, config.Testing())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !result.Success || result.CompletedNodes != 1 {
		t.Fatalf("expected node to eventually succeed, got %+v", result)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", calls)
	}
}

func TestRun_StopWorkflowOnFailure(t *testing.T) {
	reg := executor.NewRegistry()
	registerFunc(t, reg, "succeed", func(ctx executor.NodeContext) (executor.NodeOutput, error) {
		return executor.NodeOutput{Outputs: map[string]types.Value{"out": types.Null}}, nil
	})
	registerFunc(t, reg, "fail", func(ctx executor.NodeContext) (executor.NodeOutput, error) {
		return executor.NodeOutput{}, types.ErrExecutionFailed(nil)
	})

	wf := types.Workflow{
		ID: "wf-stop",
		Nodes: []types.NodeSpec{
			{ID: "a", NodeType: "succeed"},
			{ID: "b", NodeType: "fail"},
			{ID: "c", NodeType: "succeed"},
		},
		Connections: []types.Connection{
			{FromNodeID: "a", FromPort: "out", ToNodeID: "b", ToPort: "in"},
			{FromNodeID: "b", FromPort: "out", ToNodeID: "c", ToPort: "in"},
		},
		Settings: defaultSettings(),
	}
	plan := buildPlan(t, reg, wf)
	bus := eventbus.New(64)
	defer bus.Close()

	result, err := Run(context.Background(), "exec-4", plan, reg, bus, nil, config.Testing())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Success {
		t.Fatalf("expected failure, got %+v", result)
	}
	if result.FailedNodes != 1 || result.CompletedNodes != 1 {
		t.Errorf("expected 1 completed (a), 1 failed (b), c skipped; got %+v", result)
	}
}

func TestRun_ContinueOnErrorIndependentBranches(t *testing.T) {
	reg := executor.NewRegistry()
	registerFunc(t, reg, "succeed", func(ctx executor.NodeContext) (executor.NodeOutput, error) {
		return executor.NodeOutput{Outputs: map[string]types.Value{"out": types.Null}}, nil
	})
	registerFunc(t, reg, "fail", func(ctx executor.NodeContext) (executor.NodeOutput, error) {
		return executor.NodeOutput{}, types.ErrExecutionFailed(nil)
	})

	wf := types.Workflow{
		ID: "wf-continue",
		Nodes: []types.NodeSpec{
			{ID: "a", NodeType: "succeed"},
			{ID: "b", NodeType: "fail"},
			{ID: "c", NodeType: "succeed"},
			{ID: "d", NodeType: "succeed"},
		},
		Connections: []types.Connection{
			{FromNodeID: "a", FromPort: "out", ToNodeID: "b", ToPort: "in"},
			{FromNodeID: "c", FromPort: "out", ToNodeID: "d", ToPort: "in"},
		},
		Settings: types.WorkflowSettings{MaxParallelNodes: 4, OnError: types.OnError{Kind: types.ContinueOnError}},
	}
	plan := buildPlan(t, reg, wf)
	bus := eventbus.New(64)
	defer bus.Close()

	result, err := Run(context.Background(), "exec-5", plan, reg, bus, nil, config.Testing())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Success {
		t.Fatalf("expected success=false, got %+v", result)
	}
	if result.CompletedNodes < 3 {
		t.Errorf("expected at least 3 completed nodes (a,c,d), got %d", result.CompletedNodes)
	}
	if result.FailedNodes != 1 {
		t.Errorf("expected exactly 1 failed node, got %d", result.FailedNodes)
	}
}

func TestRun_DeadlockGuard(t *testing.T) {
	// A workflow.Connection referencing a node pair that Validate would
	// normally catch is not reachable here; this exercises the guard
	// directly against a hand-built Plan whose declared dependency count
	// can never be satisfied, simulating a validation bug.
	reg := executor.NewRegistry()
	registerFunc(t, reg, "succeed", func(ctx executor.NodeContext) (executor.NodeOutput, error) {
		return executor.NodeOutput{Outputs: map[string]types.Value{"out": types.Null}}, nil
	})

	wf := types.Workflow{
		ID:          "wf-deadlock",
		Nodes:       []types.NodeSpec{{ID: "a", NodeType: "succeed"}},
		Connections: nil,
		Settings:    defaultSettings(),
	}
	plan := buildPlan(t, reg, wf)
	// Corrupt the plan so node "a" believes it has an undelivered
	// dependency, which validation guarantees cannot happen for a real
	// workflow.
	plan.InputConnByNode["a"] = []types.Connection{{FromNodeID: "ghost", FromPort: "x", ToNodeID: "a", ToPort: "in"}}
	plan.RootNodes = nil

	bus := eventbus.New(64)
	defer bus.Close()

	_, err := Run(context.Background(), "exec-6", plan, reg, bus, nil, config.Testing())
	if err == nil {
		t.Fatal("expected InternalError from deadlock guard, got nil")
	}
	var ie *types.InternalError
	if !asInternalError(err, &ie) {
		t.Fatalf("expected *types.InternalError, got %T: %v", err, err)
	}
}

func asInternalError(err error, target **types.InternalError) bool {
	ie, ok := err.(*types.InternalError)
	if !ok {
		return false
	}
	*target = ie
	return true
}

func TestBackoffDelay(t *testing.T) {
	rp := types.RetryPolicy{MaxAttempts: 3, DelayMS: 1, BackoffMultiplier: 2.0}
	if d := backoffDelay(rp, 0, 5*time.Minute); d != time.Millisecond {
		t.Errorf("attempt 0: expected 1ms, got %v", d)
	}
	if d := backoffDelay(rp, 1, 5*time.Minute); d != 2*time.Millisecond {
		t.Errorf("attempt 1: expected 2ms, got %v", d)
	}
	if d := backoffDelay(rp, 20, 5*time.Minute); d != 5*time.Minute {
		t.Errorf("large attempt: expected cap of 5m, got %v", d)
	}
}
