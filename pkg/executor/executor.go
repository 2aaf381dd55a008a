// Package executor defines the Node Contract — the polymorphic
// interface every node type satisfies — and the Factory contract the
// Node Registry builds on. This breaks the circular dependency between
// the scheduler and any concrete node catalog: the scheduler depends
// only on the interfaces here, never on a specific node implementation.
package executor

import (
	"context"

	"github.com/flowcore/engine/pkg/types"
)

// NodeContext is the per-invocation bundle handed to a node's Execute.
// It is constructed immediately before dispatch and discarded after the
// invocation returns (spec.md §3).
type NodeContext interface {
	context.Context

	// ExecutionID and NodeID identify this invocation.
	ExecutionID() string
	NodeID() string

	// RequireInput returns the named input, or a *types.NodeError with
	// Kind=MissingInput if it was never delivered.
	RequireInput(name string) (types.Value, error)

	// OptionalInput returns the named input and ok=true if it was
	// delivered, or ok=false if it is absent.
	OptionalInput(name string) (value types.Value, ok bool)

	// Scratchpad returns the handle to the run's shared
	// readers-writer-guarded key/value store.
	Scratchpad() Scratchpad

	// Emit publishes a NodeEvent sub-event (Info/Warn/Progress/Data)
	// tagged with this invocation's execution_id and node_id.
	Emit(sub types.NodeSubEvent)

	// Cancelled reports whether the run's cancellation token has been
	// tripped. Nodes are expected to poll this at coarse checkpoints;
	// context.Context's Done()/Err() report the same condition for
	// callers that prefer select-based cancellation.
	Cancelled() bool
}

// Scratchpad is the shared per-execution state map described in
// spec.md §3/§9: a single readers-writer-guarded map owned by the
// ExecutionState, handed out to NodeContexts as a non-owning reference.
type Scratchpad interface {
	Get(key string) (types.Value, bool)
	Set(key string, value types.Value)
}

// NodeOutput is the successful result of a node invocation.
type NodeOutput struct {
	Outputs  map[string]types.Value
	Metadata map[string]string
}

// Node is the polymorphic interface every node type satisfies
// (spec.md §4.3). Construction happens through a Factory; a Node
// instance is owned by the executor for exactly one run and is never
// shared across concurrent runs.
type Node interface {
	// TypeID is pure and stable across the node's life.
	TypeID() string

	// Initialize is called once before the first Execute in a run.
	// Returning an error aborts the run with NodeError{Kind:
	// InitializationFailed}. Nodes that need no setup can embed NopNode.
	Initialize(ctx context.Context) error

	// Execute does the work. It may be invoked more than once for the
	// same Node instance across retries within a single run, always
	// with a fresh NodeContext over the same resolved inputs.
	Execute(ctx NodeContext) (NodeOutput, error)

	// Shutdown is called once after the node's last Execute, regardless
	// of outcome; it is not called when Initialize failed. Its returned
	// error is discarded and never changes the run's result.
	Shutdown(ctx context.Context) error
}

// NopNode supplies no-op Initialize/Shutdown for node types that need
// neither; embed it and implement only TypeID and Execute.
type NopNode struct{}

func (NopNode) Initialize(context.Context) error { return nil }
func (NopNode) Shutdown(context.Context) error    { return nil }

// Metadata describes a registered node type for introspection
// (spec.md §4.4).
type Metadata struct {
	TypeID      string
	Description string
	Category    string
	InputPorts  []string
	OutputPorts []string
	// ConfigSchema, when non-empty, is a JSON Schema (draft-07) string
	// that NodeSpec.Config must satisfy; validated by gojsonschema
	// during Registry.ValidateConfig. An empty schema skips that check.
	ConfigSchema string
}

// Factory constructs Node instances of one type from a declared
// config map and exposes introspection metadata (spec.md §4.4).
type Factory interface {
	TypeID() string
	Metadata() Metadata

	// ValidateConfig is called once at workflow load (spec.md §4.3,
	// §4.5 rule 3). Returning an error surfaces as
	// types.ConfigurationError{NodeID, msg}.
	ValidateConfig(config map[string]types.Value) error

	// Create constructs a fresh Node instance from config. Called once
	// per node per run, after validation has already succeeded.
	Create(config map[string]types.Value) (Node, error)
}
