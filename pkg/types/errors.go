package types

import "fmt"

// ValidationError kinds — spec.md §7, produced by the workflow validator
// before any node runs.

// DuplicateNodeIDError reports a NodeSpec id used more than once.
type DuplicateNodeIDError struct{ NodeID string }

func (e *DuplicateNodeIDError) Error() string {
	return fmt.Sprintf("validation: duplicate node id %q", e.NodeID)
}

// ErrDuplicateNodeID constructs a DuplicateNodeIDError.
func ErrDuplicateNodeID(nodeID string) error { return &DuplicateNodeIDError{NodeID: nodeID} }

// UnknownNodeTypeError reports a NodeSpec.NodeType not present in the registry.
type UnknownNodeTypeError struct {
	NodeID   string
	NodeType string
}

func (e *UnknownNodeTypeError) Error() string {
	return fmt.Sprintf("validation: node %q has unregistered type %q", e.NodeID, e.NodeType)
}

// ErrUnknownNodeType constructs an UnknownNodeTypeError.
func ErrUnknownNodeType(nodeID, nodeType string) error {
	return &UnknownNodeTypeError{NodeID: nodeID, NodeType: nodeType}
}

// UnknownNodeReferenceError reports a Connection endpoint naming a node
// that does not exist.
type UnknownNodeReferenceError struct {
	ConnectionIndex int
	NodeID          string
}

func (e *UnknownNodeReferenceError) Error() string {
	return fmt.Sprintf("validation: connection[%d] references unknown node %q", e.ConnectionIndex, e.NodeID)
}

// ErrUnknownNodeReference constructs an UnknownNodeReferenceError.
func ErrUnknownNodeReference(connectionIndex int, nodeID string) error {
	return &UnknownNodeReferenceError{ConnectionIndex: connectionIndex, NodeID: nodeID}
}

// DuplicateInputPortError reports two connections targeting the same
// (node, input-port) pair.
type DuplicateInputPortError struct {
	NodeID string
	Port   string
}

func (e *DuplicateInputPortError) Error() string {
	return fmt.Sprintf("validation: input port %q on node %q has more than one incoming connection", e.Port, e.NodeID)
}

// ErrDuplicateInputPort constructs a DuplicateInputPortError.
func ErrDuplicateInputPort(nodeID, port string) error {
	return &DuplicateInputPortError{NodeID: nodeID, Port: port}
}

// ConfigurationError reports a factory's validate_config rejecting a
// node's declared config.
type ConfigurationError struct {
	NodeID  string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("validation: node %q configuration invalid: %s", e.NodeID, e.Message)
}

// ErrConfiguration constructs a ConfigurationError.
func ErrConfiguration(nodeID, message string) error {
	return &ConfigurationError{NodeID: nodeID, Message: message}
}

// CycleDetectedError reports a back edge found during DFS cycle
// detection; Path lists the node ids of the cycle in traversal order.
type CycleDetectedError struct{ Path []string }

func (e *CycleDetectedError) Error() string {
	return fmt.Sprintf("validation: workflow contains a cycle: %v", e.Path)
}

// ErrCycleDetected constructs a CycleDetectedError.
func ErrCycleDetected(path []string) error { return &CycleDetectedError{Path: path} }

// InternalError reports a scheduler invariant violation: the ready
// queue emptied with no task in flight while nodes remained Pending.
// Validation is supposed to make this unreachable; its existence at
// runtime means validation missed something, not that the workflow
// itself is malformed (spec.md §4.6 "Deadlock guard").
type InternalError struct{ UnreachableNodes []string }

func (e *InternalError) Error() string {
	return fmt.Sprintf("scheduler: unreachable nodes (validation bug): %v", e.UnreachableNodes)
}

// ErrInternalUnreachable constructs an InternalError.
func ErrInternalUnreachable(unreachableNodes []string) error {
	return &InternalError{UnreachableNodes: unreachableNodes}
}

// UnknownWorkflowError reports execute() called with a workflow_id not
// present in the Runtime's store.
type UnknownWorkflowError struct{ WorkflowID string }

func (e *UnknownWorkflowError) Error() string {
	return fmt.Sprintf("runtime: unknown workflow %q", e.WorkflowID)
}

// ErrUnknownWorkflow constructs an UnknownWorkflowError.
func ErrUnknownWorkflow(workflowID string) error { return &UnknownWorkflowError{WorkflowID: workflowID} }

// NodeError kinds — spec.md §7, produced while a node is executing.

// NodeErrorKind is the closed set of NodeError variants.
type NodeErrorKind string

const (
	NodeErrMissingInput        NodeErrorKind = "MissingInput"
	NodeErrInvalidInputType    NodeErrorKind = "InvalidInputType"
	NodeErrConfiguration       NodeErrorKind = "Configuration"
	NodeErrInitializationFail  NodeErrorKind = "InitializationFailed"
	NodeErrExecutionFailed     NodeErrorKind = "ExecutionFailed"
	NodeErrTimeout             NodeErrorKind = "Timeout"
	NodeErrCancelled           NodeErrorKind = "Cancelled"
	NodeErrInternal            NodeErrorKind = "Internal"
)

// NodeError is the single error type a Node.Execute (or any contract
// hook) returns; Kind selects which of the supplementary fields are
// meaningful.
type NodeError struct {
	Kind     NodeErrorKind
	Field    string // MissingInput, InvalidInputType
	Expected string // InvalidInputType
	Actual   string // InvalidInputType
	Message  string // Configuration, InitializationFailed, ExecutionFailed, Internal
	Cause    error
}

func (e *NodeError) Error() string {
	switch e.Kind {
	case NodeErrMissingInput:
		return fmt.Sprintf("node: missing required input %q", e.Field)
	case NodeErrInvalidInputType:
		return fmt.Sprintf("node: input %q has wrong type: expected %s, got %s", e.Field, e.Expected, e.Actual)
	case NodeErrTimeout:
		return "node: execution timed out"
	case NodeErrCancelled:
		return "node: execution cancelled"
	default:
		if e.Message != "" {
			return fmt.Sprintf("node: %s: %s", e.Kind, e.Message)
		}
		return fmt.Sprintf("node: %s", e.Kind)
	}
}

func (e *NodeError) Unwrap() error { return e.Cause }

// ErrMissingInput constructs a NodeError{Kind: MissingInput}.
func ErrMissingInput(field string) *NodeError {
	return &NodeError{Kind: NodeErrMissingInput, Field: field}
}

// ErrInvalidInputType constructs a NodeError{Kind: InvalidInputType}.
func ErrInvalidInputType(field, expected, actual string) *NodeError {
	return &NodeError{Kind: NodeErrInvalidInputType, Field: field, Expected: expected, Actual: actual}
}

// ErrNodeConfiguration constructs a NodeError{Kind: Configuration}.
func ErrNodeConfiguration(message string) *NodeError {
	return &NodeError{Kind: NodeErrConfiguration, Message: message}
}

// ErrInitializationFailed constructs a NodeError{Kind: InitializationFailed}.
func ErrInitializationFailed(message string) *NodeError {
	return &NodeError{Kind: NodeErrInitializationFail, Message: message}
}

// ErrExecutionFailed wraps cause as a NodeError{Kind: ExecutionFailed}.
func ErrExecutionFailed(cause error) *NodeError {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return &NodeError{Kind: NodeErrExecutionFailed, Message: msg, Cause: cause}
}

// ErrTimeout constructs a NodeError{Kind: Timeout}.
func ErrTimeout() *NodeError { return &NodeError{Kind: NodeErrTimeout} }

// ErrCancelled constructs a NodeError{Kind: Cancelled}.
func ErrCancelled() *NodeError { return &NodeError{Kind: NodeErrCancelled} }

// ErrInternal constructs a NodeError{Kind: Internal}.
func ErrInternal(message string) *NodeError {
	return &NodeError{Kind: NodeErrInternal, Message: message}
}

// IsCancelled reports whether err is (or wraps) a NodeError with
// Kind==Cancelled; the scheduler uses this to skip retrying a
// cancelled invocation (spec.md §4.6: "A NodeError::Cancelled is never
// retried").
func IsCancelled(err error) bool {
	var ne *NodeError
	if AsNodeError(err, &ne) {
		return ne.Kind == NodeErrCancelled
	}
	return false
}

// AsNodeError is a small errors.As shim kept free of an import cycle;
// it mirrors the standard library's behavior for *NodeError targets.
func AsNodeError(err error, target **NodeError) bool {
	for err != nil {
		if ne, ok := err.(*NodeError); ok {
			*target = ne
			return true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}

// RuntimeError wraps either a ValidationError returned by
// register_workflow/execute_direct, or an error the scheduler itself
// returns (such as an InternalError). Node failures are not wrapped
// here, under any on_error policy: they are reported only through the
// run's Result (Success false, FailedNodes) and NodeFailed events.
type RuntimeError struct {
	ExecutionID string
	Cause       error
}

func (e *RuntimeError) Error() string {
	if e.ExecutionID != "" {
		return fmt.Sprintf("runtime: execution %s: %v", e.ExecutionID, e.Cause)
	}
	return fmt.Sprintf("runtime: %v", e.Cause)
}

func (e *RuntimeError) Unwrap() error { return e.Cause }

// ErrRuntime wraps cause, optionally tagging it with the execution id
// that had been assigned before the failure.
func ErrRuntime(executionID string, cause error) *RuntimeError {
	return &RuntimeError{ExecutionID: executionID, Cause: cause}
}

// ErrMissingRequiredField and ErrInvalidFieldValue are kept for
// factories that want a quick configuration error without reaching for
// ErrNodeConfiguration directly.
func ErrMissingRequiredField(fieldName string) error {
	return ErrNodeConfiguration(fmt.Sprintf("missing required field: %s", fieldName))
}

func ErrInvalidFieldValue(fieldName string, value any, reason string) error {
	return ErrNodeConfiguration(fmt.Sprintf("invalid value for field %s: %v (%s)", fieldName, value, reason))
}
