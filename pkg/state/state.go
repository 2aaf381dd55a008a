package state

import (
	"sync"

	"github.com/flowcore/engine/pkg/types"
)

// NodeStatus is a node's position in the per-run state machine
// (spec.md §3). Transitions are monotonic; a node stays Running across
// its retry attempts.
type NodeStatus string

const (
	StatusPending   NodeStatus = "Pending"
	StatusReady     NodeStatus = "Ready"
	StatusRunning   NodeStatus = "Running"
	StatusSucceeded NodeStatus = "Succeeded"
	StatusFailed    NodeStatus = "Failed"
	StatusSkipped   NodeStatus = "Skipped"
)

// nodeState is the scheduler's bookkeeping for one node within a run.
type nodeState struct {
	status        NodeStatus
	remainingDeps int
	pendingInputs map[string]types.Value
	outputs       map[string]types.Value
	attempt       int
}

// ExecutionState is the mutable state of one run (spec.md §3). It
// exclusively owns the per-run status and outputs maps; node instances
// never touch them directly. The scheduler driver and its per-node
// goroutines (which read pending inputs, read and bump attempt counts,
// and check cancellation) share it under a single RWMutex. The Scratchpad is the one piece
// node invocations read and write directly, guarded independently.
type ExecutionState struct {
	ExecutionID string
	WorkflowID  string

	mu        sync.RWMutex
	nodes     map[string]*nodeState
	cancelled bool

	scratchpad *scratchpad
}

// New creates an ExecutionState with every node seeded to Pending and
// remainingDeps taken from the supplied input-connection counts.
func New(executionID, workflowID string, remainingDeps map[string]int) *ExecutionState {
	nodes := make(map[string]*nodeState, len(remainingDeps))
	for id, deps := range remainingDeps {
		nodes[id] = &nodeState{
			status:        StatusPending,
			remainingDeps: deps,
			pendingInputs: make(map[string]types.Value),
		}
	}
	return &ExecutionState{
		ExecutionID: executionID,
		WorkflowID:  workflowID,
		nodes:       nodes,
		scratchpad:  newScratchpad(),
	}
}

// Scratchpad returns the handle to the run's shared key/value store,
// satisfying executor.Scratchpad.
func (s *ExecutionState) Scratchpad() *scratchpad { return s.scratchpad }

// Status returns a node's current status.
func (s *ExecutionState) Status(nodeID string) NodeStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nodes[nodeID].status
}

// SetStatus updates a node's status.
func (s *ExecutionState) SetStatus(nodeID string, status NodeStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[nodeID].status = status
}

// SeedRootInputs copies the full workflow-inputs map into nodeID's
// pending_inputs verbatim (spec.md §9 Open Question (a): "copy all
// keys; each root narrows via require_input").
func (s *ExecutionState) SeedRootInputs(nodeID string, inputs map[string]types.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.nodes[nodeID]
	for k, v := range inputs {
		n.pendingInputs[k] = v
	}
}

// PendingInputs returns a snapshot of a node's accumulated inputs,
// taken immediately before dispatch.
func (s *ExecutionState) PendingInputs(nodeID string) map[string]types.Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := s.nodes[nodeID]
	out := make(map[string]types.Value, len(n.pendingInputs))
	for k, v := range n.pendingInputs {
		out[k] = v
	}
	return out
}

// Attempt returns a node's current attempt count (0-indexed, starts at
// 0 per spec.md §4.6).
func (s *ExecutionState) Attempt(nodeID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nodes[nodeID].attempt
}

// IncrementAttempt bumps a node's attempt counter and returns the new
// value.
func (s *ExecutionState) IncrementAttempt(nodeID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[nodeID].attempt++
	return s.nodes[nodeID].attempt
}

// RecordOutputs stores a node's successful outputs.
func (s *ExecutionState) RecordOutputs(nodeID string, outputs map[string]types.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[nodeID].outputs = outputs
}

// Outputs returns a node's recorded outputs, or nil if it never
// completed successfully.
func (s *ExecutionState) Outputs(nodeID string) map[string]types.Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nodes[nodeID].outputs
}

// AllOutputs returns every node's recorded outputs, keyed by node id.
// Skipped/failed/never-run nodes are omitted.
func (s *ExecutionState) AllOutputs() map[string]map[string]types.Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]map[string]types.Value, len(s.nodes))
	for id, n := range s.nodes {
		if n.outputs != nil {
			out[id] = n.outputs
		}
	}
	return out
}

// Deliver routes value into toNodeID's pending_inputs under toPort and
// decrements its remaining_deps, returning true if that was the last
// dependency (the node is now Ready).
func (s *ExecutionState) Deliver(toNodeID, toPort string, value types.Value) (becameReady bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.nodes[toNodeID]
	n.pendingInputs[toPort] = value
	n.remainingDeps--
	return n.remainingDeps == 0
}

// SkipRemaining decrements remaining_deps for toNodeID without
// delivering a value, used when an upstream connection's from_port was
// absent from the producer's outputs (spec.md §4.6: "leave the
// destination input unset").
func (s *ExecutionState) SkipRemaining(toNodeID string) (becameReady bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.nodes[toNodeID]
	n.remainingDeps--
	return n.remainingDeps == 0
}

// Cancel trips the run's cancellation flag.
func (s *ExecutionState) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled = true
}

// Cancelled reports whether Cancel has been called.
func (s *ExecutionState) Cancelled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cancelled
}

// CountByStatus tallies nodes in each terminal/non-terminal status,
// used to decide when a run is Done (spec.md §4.6 step 3) and to build
// the final ExecutionResult summary.
func (s *ExecutionState) CountByStatus() map[NodeStatus]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[NodeStatus]int, 6)
	for _, n := range s.nodes {
		counts[n.status]++
	}
	return counts
}

// NodeIDs returns every node id tracked by this state, unordered.
func (s *ExecutionState) NodeIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.nodes))
	for id := range s.nodes {
		ids = append(ids, id)
	}
	return ids
}
