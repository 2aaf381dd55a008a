package catalog

import (
	"sync/atomic"

	"github.com/flowcore/engine/pkg/executor"
	"github.com/flowcore/engine/pkg/types"
)

// FlakyTypeID is the node_type that fails its first fail_count
// invocations and succeeds afterward, for exercising the scheduler's
// retry/backoff state machine end to end without a real flaky
// dependency to point it at.
const FlakyTypeID = "flaky"

type flakyFactory struct{}

// NewFlakyFactory returns the factory for the "flaky" node type.
// Config.fail_count (default 0) is how many calls to Execute return
// types.ErrExecutionFailed before one finally succeeds with
// Config.value on its "out" port.
func NewFlakyFactory() executor.Factory { return flakyFactory{} }

func (flakyFactory) TypeID() string { return FlakyTypeID }

func (flakyFactory) Metadata() executor.Metadata {
	return executor.Metadata{
		TypeID:      FlakyTypeID,
		Description: "Fails its first fail_count invocations, then succeeds.",
		Category:    "test",
		OutputPorts: []string{"out"},
	}
}

func (flakyFactory) ValidateConfig(map[string]types.Value) error { return nil }

func (flakyFactory) Create(config map[string]types.Value) (executor.Node, error) {
	failCount := int64(0)
	if v, ok := config["fail_count"]; ok {
		if n, ok := v.AsNumber(); ok {
			failCount = int64(n)
		}
	}
	return &flakyNode{failCount: failCount, value: config["value"]}, nil
}

type flakyNode struct {
	executor.NopNode
	failCount int64
	calls     int64
	value     types.Value
}

func (n *flakyNode) TypeID() string { return FlakyTypeID }

func (n *flakyNode) Execute(ctx executor.NodeContext) (executor.NodeOutput, error) {
	call := atomic.AddInt64(&n.calls, 1)
	if call <= n.failCount {
		return executor.NodeOutput{}, types.ErrExecutionFailed(nil)
	}
	return executor.NodeOutput{Outputs: map[string]types.Value{"out": n.value}}, nil
}
