// Package state implements ExecutionState, the mutable state of one
// workflow run (spec.md §3): per-node status, remaining-dependency
// counts, accumulated pending inputs, attempt counters, recorded
// outputs, and the shared scratchpad. ExecutionState's node-bookkeeping
// is owned by the scheduler (its driver loop and per-node goroutines);
// the scratchpad is the one piece node invocations touch directly, and
// is guarded independently so concurrent node executions never block on
// the scheduler's lock.
package state
