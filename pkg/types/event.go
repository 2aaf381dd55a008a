package types

import "time"

// EventKind identifies the shape of an Event's payload.
type EventKind string

const (
	EventWorkflowStarted   EventKind = "WorkflowStarted"
	EventWorkflowCompleted EventKind = "WorkflowCompleted"
	EventNodeStarted       EventKind = "NodeStarted"
	EventNodeCompleted     EventKind = "NodeCompleted"
	EventNodeFailed        EventKind = "NodeFailed"
	EventNodeEvent         EventKind = "NodeEvent"
)

// NodeSubEventKind identifies the Data/Info/Warn/Progress variant
// carried by a NodeEvent.
type NodeSubEventKind string

const (
	SubEventInfo     NodeSubEventKind = "Info"
	SubEventWarn     NodeSubEventKind = "Warn"
	SubEventProgress NodeSubEventKind = "Progress"
	SubEventData     NodeSubEventKind = "Data"
)

// NodeSubEvent is the payload of an EventNodeEvent. Only the fields
// relevant to Sub are meaningful.
type NodeSubEvent struct {
	Sub     NodeSubEventKind `json:"sub"`
	Message string           `json:"message,omitempty"`
	Percent float64          `json:"percent,omitempty"` // Progress only, 0..100
	Port    string           `json:"port,omitempty"`    // Data only
	Value   Value            `json:"value,omitempty"`   // Data only
}

// ErrorInfo is the kind+message summary of a NodeError attached to a
// NodeFailed event. It intentionally does not carry the richer
// structured fields of the originating error (those are for the
// caller that receives the error directly); the event stream is a
// narration, not the error-handling channel.
type ErrorInfo struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Event is one observation from a run, published into the event bus.
// Exactly the fields relevant to Kind are populated.
type Event struct {
	Kind        EventKind      `json:"type"`
	ExecutionID string         `json:"execution_id"`
	WorkflowID  string         `json:"workflow_id,omitempty"`
	NodeID      string         `json:"node_id,omitempty"`
	NodeType    string         `json:"node_type,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
	Success     bool           `json:"success,omitempty"`      // WorkflowCompleted
	DurationMS  int64          `json:"duration_ms,omitempty"`  // WorkflowCompleted (NodeCompleted leaves it zero)
	Outputs     map[string]Value `json:"outputs,omitempty"`    // NodeCompleted
	Error       *ErrorInfo     `json:"error,omitempty"`        // NodeFailed
	AttemptsMade int           `json:"attempts_made,omitempty"` // NodeFailed
	SubEvent    *NodeSubEvent  `json:"sub_event,omitempty"`    // NodeEvent
}
