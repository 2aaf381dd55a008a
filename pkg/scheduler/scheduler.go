package scheduler

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/flowcore/engine/pkg/config"
	"github.com/flowcore/engine/pkg/eventbus"
	"github.com/flowcore/engine/pkg/executor"
	"github.com/flowcore/engine/pkg/graph"
	"github.com/flowcore/engine/pkg/state"
	"github.com/flowcore/engine/pkg/types"
)

// Result is the summary of one workflow run (spec.md §4.7
// ExecutionResult).
type Result struct {
	ExecutionID    string
	WorkflowID     string
	TotalNodes     int
	CompletedNodes int
	FailedNodes    int
	Success        bool
	DurationMS     int64
	Outputs        map[string]map[string]types.Value
}

// taskResult is what a node invocation goroutine hands back to the
// driver once it reaches a terminal outcome for this dispatch (which
// may itself have taken several retries).
type taskResult struct {
	nodeID       string
	outputs      map[string]types.Value
	err          error
	attemptsMade int
}

// Run executes plan's workflow to completion, honoring
// settings.on_error at the workflow level. For on_error=RetryWorkflow
// it discards the ExecutionState and restarts the whole run, up to
// MaxAttempts times, escalating to StopWorkflow semantics once
// exhausted (spec.md §4.6).
func Run(ctx context.Context, executionID string, plan *graph.Plan, reg *executor.Registry, bus *eventbus.Bus, inputs map[string]types.Value, cfg *config.Config) (*Result, error) {
	onError := plan.Workflow.Settings.OnError

	maxRunAttempts := 1
	if onError.Kind == types.RetryWorkflow && onError.MaxAttempts > maxRunAttempts {
		maxRunAttempts = onError.MaxAttempts
	}

	var result *Result
	for attempt := 0; attempt < maxRunAttempts; attempt++ {
		var err error
		result, err = runOnce(ctx, executionID, plan, reg, bus, inputs, cfg)
		if err != nil {
			return nil, err
		}
		if result.Success || onError.Kind != types.RetryWorkflow {
			return result, nil
		}
		// Retry the whole run from scratch; the escalation to
		// StopWorkflow semantics on the final attempt falls out
		// naturally because runOnce already behaves like StopWorkflow
		// internally and this loop simply stops retrying.
	}
	return result, nil
}

// runOnce performs a single attempt at executing plan's workflow,
// driving the readiness loop described in spec.md §4.6 to completion.
func runOnce(ctx context.Context, executionID string, plan *graph.Plan, reg *executor.Registry, bus *eventbus.Bus, inputs map[string]types.Value, cfg *config.Config) (*Result, error) {
	start := time.Now()
	wf := plan.Workflow

	maxParallel := wf.Settings.MaxParallelNodes
	if maxParallel <= 0 {
		maxParallel = cfg.DefaultMaxParallelNodes
	}
	if cfg.MaxParallelNodesCeiling > 0 && maxParallel > cfg.MaxParallelNodesCeiling {
		maxParallel = cfg.MaxParallelNodesCeiling
	}

	remainingDeps := make(map[string]int, len(wf.Nodes))
	for _, n := range wf.Nodes {
		remainingDeps[n.ID] = len(plan.InputConnByNode[n.ID])
	}
	st := state.New(executionID, wf.ID, remainingDeps)

	runCtx, cancel := context.WithCancel(ctx)
	if cfg.MaxExecutionTime > 0 {
		var cancelTimeout context.CancelFunc
		runCtx, cancelTimeout = context.WithTimeout(runCtx, cfg.MaxExecutionTime)
		defer cancelTimeout()
	}
	defer cancel()

	// External cancellation (ctx done, or the workflow-level timeout
	// above firing) also trips the cancellation flag NodeContext.Cancelled()
	// exposes, so a node polling that flag observes it the same way a
	// node selecting on context.Done() would (spec.md §4.3/§4.7).
	go func() {
		<-runCtx.Done()
		st.Cancel()
	}()

	readyQueue := make([]string, 0, len(plan.RootNodes))
	for _, id := range plan.RootNodes {
		st.SeedRootInputs(id, inputs)
		st.SetStatus(id, state.StatusReady)
		readyQueue = append(readyQueue, id)
	}

	bus.Publish(types.Event{
		Kind: types.EventWorkflowStarted, ExecutionID: executionID, WorkflowID: wf.ID, Timestamp: start,
	})

	totalNodes := len(wf.Nodes)
	completions := make(chan taskResult)
	running := 0
	stopping := false

	for {
		for running < maxParallel && len(readyQueue) > 0 && !stopping {
			var nodeID string
			nodeID, readyQueue = popLowestTopoIndex(readyQueue, plan.TopoIndex)
			st.SetStatus(nodeID, state.StatusRunning)
			running++
			go runNode(runCtx, executionID, nodeID, plan, reg, bus, st, cfg, completions)
		}

		counts := st.CountByStatus()
		settled := counts[state.StatusSucceeded] + counts[state.StatusFailed] + counts[state.StatusSkipped]
		if settled == totalNodes && running == 0 {
			break
		}
		if len(readyQueue) == 0 && running == 0 && settled < totalNodes {
			return nil, types.ErrInternalUnreachable(unreachableNodes(st))
		}

		res := <-completions
		running--
		readyQueue = handleCompletion(plan, bus, st, executionID, res, onErrorOf(wf), &stopping, cancel, readyQueue)
	}

	counts := st.CountByStatus()
	result := &Result{
		ExecutionID:    executionID,
		WorkflowID:     wf.ID,
		TotalNodes:     totalNodes,
		CompletedNodes: counts[state.StatusSucceeded],
		FailedNodes:    counts[state.StatusFailed],
		Success:        counts[state.StatusFailed] == 0,
		DurationMS:     time.Since(start).Milliseconds(),
		Outputs:        st.AllOutputs(),
	}

	bus.Publish(types.Event{
		Kind: types.EventWorkflowCompleted, ExecutionID: executionID, WorkflowID: wf.ID,
		Timestamp: time.Now(), Success: result.Success, DurationMS: result.DurationMS,
	})

	return result, nil
}

func onErrorOf(wf types.Workflow) types.OnError { return wf.Settings.OnError }

// handleCompletion applies spec.md §4.6's completion-handling rules
// for one finished node invocation and returns the updated ready
// queue.
func handleCompletion(plan *graph.Plan, bus *eventbus.Bus, st *state.ExecutionState, executionID string, res taskResult, onError types.OnError, stopping *bool, cancel context.CancelFunc, readyQueue []string) []string {
	spec, _ := plan.Workflow.NodeByID(res.nodeID)

	if res.err == nil {
		st.RecordOutputs(res.nodeID, res.outputs)
		st.SetStatus(res.nodeID, state.StatusSucceeded)
		bus.Publish(types.Event{
			Kind: types.EventNodeCompleted, ExecutionID: executionID, NodeID: res.nodeID, NodeType: spec.NodeType,
			Timestamp: time.Now(), Outputs: res.outputs,
		})

		if *stopping {
			return readyQueue
		}
		for _, conn := range plan.OutputConnByNode[res.nodeID] {
			var becameReady bool
			if val, ok := res.outputs[conn.FromPort]; ok {
				becameReady = st.Deliver(conn.ToNodeID, conn.ToPort, val)
			} else {
				becameReady = st.SkipRemaining(conn.ToNodeID)
			}
			if becameReady {
				st.SetStatus(conn.ToNodeID, state.StatusReady)
				readyQueue = append(readyQueue, conn.ToNodeID)
			}
		}
		return readyQueue
	}

	st.SetStatus(res.nodeID, state.StatusFailed)
	bus.Publish(types.Event{
		Kind: types.EventNodeFailed, ExecutionID: executionID, NodeID: res.nodeID, NodeType: spec.NodeType,
		Timestamp: time.Now(), Error: errorInfo(res.err), AttemptsMade: res.attemptsMade,
	})

	if *stopping {
		return readyQueue
	}

	var ne *types.NodeError
	initFailed := types.AsNodeError(res.err, &ne) && ne.Kind == types.NodeErrInitializationFail
	switch {
	case onError.Kind == types.ContinueOnError && !initFailed:
		markDownstreamSkipped(plan, st, res.nodeID)
	default: // StopWorkflow, RetryWorkflow, or a failed Initialize
		*stopping = true
		st.Cancel()
		cancel()
		markPendingReadySkipped(st)
		readyQueue = nil
	}
	return readyQueue
}

func errorInfo(err error) *types.ErrorInfo {
	var ne *types.NodeError
	if types.AsNodeError(err, &ne) {
		return &types.ErrorInfo{Kind: string(ne.Kind), Message: ne.Error()}
	}
	return &types.ErrorInfo{Kind: string(types.NodeErrInternal), Message: err.Error()}
}

// markDownstreamSkipped marks every node transitively reachable from
// nodeID as Skipped, without delivering any values to them.
func markDownstreamSkipped(plan *graph.Plan, st *state.ExecutionState, nodeID string) {
	visited := map[string]bool{}
	queue := []string{nodeID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, conn := range plan.OutputConnByNode[id] {
			if visited[conn.ToNodeID] {
				continue
			}
			visited[conn.ToNodeID] = true
			st.SetStatus(conn.ToNodeID, state.StatusSkipped)
			queue = append(queue, conn.ToNodeID)
		}
	}
}

func markPendingReadySkipped(st *state.ExecutionState) {
	for _, id := range st.NodeIDs() {
		switch st.Status(id) {
		case state.StatusPending, state.StatusReady:
			st.SetStatus(id, state.StatusSkipped)
		}
	}
}

func unreachableNodes(st *state.ExecutionState) []string {
	var ids []string
	for _, id := range st.NodeIDs() {
		if st.Status(id) == state.StatusPending {
			ids = append(ids, id)
		}
	}
	return ids
}

func popLowestTopoIndex(queue []string, topoIndex map[string]int) (string, []string) {
	minIdx := 0
	for i := 1; i < len(queue); i++ {
		if topoIndex[queue[i]] < topoIndex[queue[minIdx]] {
			minIdx = i
		}
	}
	id := queue[minIdx]
	queue = append(queue[:minIdx], queue[minIdx+1:]...)
	return id, queue
}

// runNode drives one node's invocation, including its retry and
// per-node-timeout state machine, and sends the terminal taskResult
// once the node has either succeeded or exhausted its retries
// (spec.md §4.6).
func runNode(parentCtx context.Context, executionID, nodeID string, plan *graph.Plan, reg *executor.Registry, bus *eventbus.Bus, st *state.ExecutionState, cfg *config.Config, completions chan<- taskResult) {
	spec, _ := plan.Workflow.NodeByID(nodeID)

	bus.Publish(types.Event{
		Kind: types.EventNodeStarted, ExecutionID: executionID, NodeID: nodeID, NodeType: spec.NodeType,
		Timestamp: time.Now(),
	})

	node, err := reg.Create(nodeID, spec.NodeType, spec.Config)
	if err != nil {
		completions <- taskResult{nodeID: nodeID, err: types.ErrInternal(err.Error()), attemptsMade: 1}
		return
	}
	if err := node.Initialize(parentCtx); err != nil {
		completions <- taskResult{nodeID: nodeID, err: types.ErrInitializationFailed(err.Error()), attemptsMade: 1}
		return
	}
	defer node.Shutdown(context.Background())

	inputs := st.PendingInputs(nodeID)
	retryPolicy := types.DefaultRetryPolicy()
	if spec.RetryPolicy != nil {
		retryPolicy = *spec.RetryPolicy
	}

	var timeout time.Duration
	hasTimeout := spec.TimeoutMS != nil
	if hasTimeout {
		timeout = time.Duration(*spec.TimeoutMS) * time.Millisecond
	} else if cfg.DefaultNodeTimeout > 0 {
		hasTimeout = true
		timeout = cfg.DefaultNodeTimeout
	}

	for {
		attempt := st.Attempt(nodeID)

		execCtx := parentCtx
		var cancelTimeout context.CancelFunc
		if hasTimeout {
			execCtx, cancelTimeout = context.WithTimeout(parentCtx, timeout)
		}
		nc := newNodeContext(execCtx, executionID, nodeID, spec.NodeType, inputs, st, bus)

		out, execErr := node.Execute(nc)
		timedOut := hasTimeout && errors.Is(execCtx.Err(), context.DeadlineExceeded)
		if cancelTimeout != nil {
			cancelTimeout()
		}
		if timedOut {
			execErr = types.ErrTimeout()
		}

		if execErr == nil {
			completions <- taskResult{nodeID: nodeID, outputs: out.Outputs, attemptsMade: attempt + 1}
			return
		}

		if types.IsCancelled(execErr) {
			completions <- taskResult{nodeID: nodeID, err: execErr, attemptsMade: attempt + 1}
			return
		}

		if attempt+1 < retryPolicy.MaxAttempts {
			st.IncrementAttempt(nodeID)
			delay := backoffDelay(retryPolicy, attempt, cfg.MaxRetryBackoff)
			select {
			case <-time.After(delay):
				continue
			case <-parentCtx.Done():
				completions <- taskResult{nodeID: nodeID, err: types.ErrCancelled(), attemptsMade: attempt + 1}
				return
			}
		}

		completions <- taskResult{nodeID: nodeID, err: execErr, attemptsMade: attempt + 1}
		return
	}
}

// backoffDelay computes delay_ms × backoff_multiplier^attempt, capped
// at maxBackoff (spec.md §4.6: "capped at 5 minutes").
func backoffDelay(rp types.RetryPolicy, attempt int, maxBackoff time.Duration) time.Duration {
	delay := float64(rp.DelayMS) * math.Pow(rp.BackoffMultiplier, float64(attempt))
	d := time.Duration(delay) * time.Millisecond
	if maxBackoff > 0 && d > maxBackoff {
		d = maxBackoff
	}
	return d
}
