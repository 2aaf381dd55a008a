package runtime

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/flowcore/engine/pkg/config"
	"github.com/flowcore/engine/pkg/eventbus"
	"github.com/flowcore/engine/pkg/executor"
	"github.com/flowcore/engine/pkg/graph"
	"github.com/flowcore/engine/pkg/scheduler"
	"github.com/flowcore/engine/pkg/types"
)

// entry is a registered workflow together with the Plan its validation
// produced, so a repeat Execute call does not re-run spec.md §4.5's six
// rules on every invocation.
type entry struct {
	workflow types.Workflow
	plan     *graph.Plan
}

// Runtime is the Runtime Facade of spec.md §4.7: the single object an
// embedder holds to register workflows, execute them by id or
// directly, subscribe to the event bus, and cancel an in-flight
// execution. One Runtime owns one Registry and one Bus for its
// lifetime.
type Runtime struct {
	registry *executor.Registry
	bus      *eventbus.Bus
	cfg      *config.Config

	mu        sync.RWMutex
	workflows map[string]*entry

	activeMu sync.Mutex
	active   map[string]context.CancelFunc
}

// New creates a Runtime backed by reg and bus. cfg supplies the
// operational defaults (parallelism, timeouts, retry cap) applied to
// every execution; a nil cfg uses config.Default().
func New(reg *executor.Registry, bus *eventbus.Bus, cfg *config.Config) *Runtime {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Runtime{
		registry:  reg,
		bus:       bus,
		cfg:       cfg,
		workflows: make(map[string]*entry),
		active:    make(map[string]context.CancelFunc),
	}
}

// RegisterWorkflow validates w against the Runtime's registry and, on
// success, stores it (and its validated Plan) under w.ID, replacing any
// prior registration with that id (spec.md §4.7 register_workflow).
func (rt *Runtime) RegisterWorkflow(w types.Workflow) error {
	plan, err := graph.Validate(w, rt.registry, rt.cfg)
	if err != nil {
		return types.ErrRuntime("", err)
	}

	rt.mu.Lock()
	rt.workflows[w.ID] = &entry{workflow: w, plan: plan}
	rt.mu.Unlock()
	return nil
}

// Unregister removes a previously registered workflow. It is a no-op
// if id was never registered.
func (rt *Runtime) Unregister(id string) {
	rt.mu.Lock()
	delete(rt.workflows, id)
	rt.mu.Unlock()
}

// Has reports whether id names a currently registered workflow.
func (rt *Runtime) Has(id string) bool {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	_, ok := rt.workflows[id]
	return ok
}

// Execute runs the workflow previously stored under workflowID to
// completion, assigning it a fresh execution id (spec.md §4.7
// execute). It returns types.UnknownWorkflowError if workflowID was
// never registered.
func (rt *Runtime) Execute(ctx context.Context, workflowID string, inputs map[string]types.Value) (*scheduler.Result, error) {
	rt.mu.RLock()
	e, ok := rt.workflows[workflowID]
	rt.mu.RUnlock()
	if !ok {
		return nil, types.ErrUnknownWorkflow(workflowID)
	}
	return rt.run(ctx, e.plan, inputs)
}

// ExecuteDirect validates and runs w without registering it, for
// one-shot executions that have no need of a durable workflow_id
// (spec.md §4.7 execute_direct).
func (rt *Runtime) ExecuteDirect(ctx context.Context, w types.Workflow, inputs map[string]types.Value) (*scheduler.Result, error) {
	plan, err := graph.Validate(w, rt.registry, rt.cfg)
	if err != nil {
		return nil, types.ErrRuntime("", err)
	}
	return rt.run(ctx, plan, inputs)
}

// run assigns an execution id, tracks a cancel func for it so Cancel
// can reach this in-flight run, and drives it through the scheduler.
func (rt *Runtime) run(ctx context.Context, plan *graph.Plan, inputs map[string]types.Value) (*scheduler.Result, error) {
	executionID := uuid.New().String()

	runCtx, cancel := context.WithCancel(ctx)
	rt.activeMu.Lock()
	rt.active[executionID] = cancel
	rt.activeMu.Unlock()
	defer func() {
		rt.activeMu.Lock()
		delete(rt.active, executionID)
		rt.activeMu.Unlock()
		cancel()
	}()

	result, err := scheduler.Run(runCtx, executionID, plan, rt.registry, rt.bus, inputs, rt.cfg)
	if err != nil {
		return nil, types.ErrRuntime(executionID, err)
	}
	return result, nil
}

// Cancel requests cancellation of the in-flight execution identified
// by executionID. It reports false if no such execution is currently
// running — either it never existed or it has already finished
// (spec.md §4.7 cancel).
func (rt *Runtime) Cancel(executionID string) bool {
	rt.activeMu.Lock()
	cancel, ok := rt.active[executionID]
	rt.activeMu.Unlock()
	if !ok {
		return false
	}
	cancel()
	return true
}

// Subscribe returns a new event stream positioned after every event
// published so far; see eventbus.Bus.Subscribe.
func (rt *Runtime) Subscribe() *eventbus.Subscription {
	return rt.bus.Subscribe()
}

// Registry exposes the node registry backing this Runtime, so a
// caller can register additional node factories before validating
// workflows against it.
func (rt *Runtime) Registry() *executor.Registry { return rt.registry }

// ActiveExecutionIDs lists executions currently in flight. Intended
// for an embedder's diagnostics surface (and for tests that need an id
// to pass to Cancel); it is a snapshot and may be stale the instant it
// returns.
func (rt *Runtime) ActiveExecutionIDs() []string {
	rt.activeMu.Lock()
	defer rt.activeMu.Unlock()
	ids := make([]string, 0, len(rt.active))
	for id := range rt.active {
		ids = append(ids, id)
	}
	return ids
}
