package types

import (
	"encoding/json"
	"fmt"
)

// OnErrorKind selects how the scheduler reacts to a terminal node
// failure at the workflow level.
type OnErrorKind string

const (
	// StopWorkflow cancels all in-flight nodes and skips the rest.
	StopWorkflow OnErrorKind = "StopWorkflow"
	// ContinueOnError skips only the failed node's downstream closure.
	ContinueOnError OnErrorKind = "ContinueOnError"
	// RetryWorkflow restarts the whole run from scratch, up to MaxAttempts times.
	RetryWorkflow OnErrorKind = "RetryWorkflow"
)

// OnError is the workflow-level error policy. Kind selects the variant;
// MaxAttempts is meaningful only when Kind is RetryWorkflow.
type OnError struct {
	Kind        OnErrorKind
	MaxAttempts int
}

// MarshalJSON implements spec.md §6's on_error encoding: the bare
// strings "StopWorkflow"/"ContinueOnError", or
// {"RetryWorkflow":{"max_attempts":int}} for the parameterized variant.
func (o OnError) MarshalJSON() ([]byte, error) {
	switch o.Kind {
	case StopWorkflow, ContinueOnError:
		return json.Marshal(string(o.Kind))
	case RetryWorkflow:
		return json.Marshal(map[string]any{
			"RetryWorkflow": map[string]any{"max_attempts": o.MaxAttempts},
		})
	default:
		return nil, fmt.Errorf("types: on_error has unknown kind %q", o.Kind)
	}
}

// UnmarshalJSON decodes either on_error encoding from spec.md §6.
func (o *OnError) UnmarshalJSON(data []byte) error {
	var bare string
	if err := json.Unmarshal(data, &bare); err == nil {
		switch OnErrorKind(bare) {
		case StopWorkflow, ContinueOnError:
			*o = OnError{Kind: OnErrorKind(bare)}
			return nil
		default:
			return fmt.Errorf("types: unknown on_error %q", bare)
		}
	}

	var wrapped struct {
		RetryWorkflow *struct {
			MaxAttempts int `json:"max_attempts"`
		} `json:"RetryWorkflow"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return fmt.Errorf("types: decode on_error: %w", err)
	}
	if wrapped.RetryWorkflow == nil {
		return fmt.Errorf("types: on_error object missing RetryWorkflow key")
	}
	*o = OnError{Kind: RetryWorkflow, MaxAttempts: wrapped.RetryWorkflow.MaxAttempts}
	return nil
}

// RetryPolicy is a per-node retry schedule.
type RetryPolicy struct {
	MaxAttempts       int     `json:"max_attempts"`       // >= 1
	DelayMS           int64   `json:"delay_ms"`           // initial delay, >= 0
	BackoffMultiplier float64 `json:"backoff_multiplier"` // >= 1.0
}

// DefaultRetryPolicy is the policy a NodeSpec without an explicit
// RetryPolicy is given: a single attempt, no retry.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 1, DelayMS: 0, BackoffMultiplier: 1.0}
}

// Connection is a directed edge carrying one output port to one input
// port.
type Connection struct {
	FromNodeID string `json:"from_node"`
	FromPort   string `json:"from_port"`
	ToNodeID   string `json:"to_node"`
	ToPort     string `json:"to_port"`
}

// NodeSpec is the declaration of one node in a workflow.
type NodeSpec struct {
	ID          string           `json:"id"`
	NodeType    string           `json:"node_type"`
	Name        string           `json:"name,omitempty"`
	Config      map[string]Value `json:"config"`
	RetryPolicy *RetryPolicy     `json:"retry_policy,omitempty"`
	TimeoutMS   *int64           `json:"timeout_ms,omitempty"`
	Position    *Position        `json:"position,omitempty"`
}

// Position is ignored by the core; carried only so a front-end's
// layout survives a roundtrip through this model.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Trigger is opaque to the core; it is accepted and preserved on the
// Workflow but never inspected by the validator or scheduler.
type Trigger struct {
	Type   string         `json:"type"`
	Config map[string]any `json:"config,omitempty"`
}

// WorkflowSettings are workflow-scoped execution knobs.
type WorkflowSettings struct {
	MaxParallelNodes int     `json:"max_parallel_nodes"` // > 0
	OnError          OnError `json:"on_error"`
}

// Workflow is the static declaration of a DAG.
type Workflow struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Nodes       []NodeSpec       `json:"nodes"`
	Connections []Connection     `json:"connections"`
	Triggers    []Trigger        `json:"triggers,omitempty"`
	Settings    WorkflowSettings `json:"settings"`
}

// NodeByID returns the NodeSpec with the given id, or ok=false if no
// such node exists.
func (w Workflow) NodeByID(id string) (NodeSpec, bool) {
	for _, n := range w.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return NodeSpec{}, false
}
