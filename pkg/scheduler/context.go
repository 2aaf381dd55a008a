package scheduler

import (
	"context"
	"time"

	"github.com/flowcore/engine/pkg/eventbus"
	"github.com/flowcore/engine/pkg/executor"
	"github.com/flowcore/engine/pkg/state"
	"github.com/flowcore/engine/pkg/types"
)

// nodeContext is the concrete executor.NodeContext handed to one
// Execute invocation. It is constructed fresh for every attempt
// (spec.md §3/§4.6: "re-invoke execute() with a fresh context") and
// discarded once that attempt returns.
type nodeContext struct {
	context.Context

	executionID string
	nodeID      string
	nodeType    string
	inputs      map[string]types.Value
	st          *state.ExecutionState
	bus         *eventbus.Bus
}

func newNodeContext(ctx context.Context, executionID, nodeID, nodeType string, inputs map[string]types.Value, st *state.ExecutionState, bus *eventbus.Bus) *nodeContext {
	return &nodeContext{
		Context:     ctx,
		executionID: executionID,
		nodeID:      nodeID,
		nodeType:    nodeType,
		inputs:      inputs,
		st:          st,
		bus:         bus,
	}
}

func (c *nodeContext) ExecutionID() string { return c.executionID }
func (c *nodeContext) NodeID() string      { return c.nodeID }

func (c *nodeContext) RequireInput(name string) (types.Value, error) {
	v, ok := c.inputs[name]
	if !ok {
		return types.Null, types.ErrMissingInput(name)
	}
	return v, nil
}

func (c *nodeContext) OptionalInput(name string) (types.Value, bool) {
	v, ok := c.inputs[name]
	return v, ok
}

func (c *nodeContext) Scratchpad() executor.Scratchpad {
	return c.st.Scratchpad()
}

func (c *nodeContext) Emit(sub types.NodeSubEvent) {
	c.bus.Publish(types.Event{
		Kind:        types.EventNodeEvent,
		ExecutionID: c.executionID,
		NodeID:      c.nodeID,
		NodeType:    c.nodeType,
		Timestamp:   time.Now(),
		SubEvent:    &sub,
	})
}

func (c *nodeContext) Cancelled() bool {
	return c.st.Cancelled()
}
