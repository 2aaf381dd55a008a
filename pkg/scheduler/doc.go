// Package scheduler is the heart of the engine: it runs one workflow
// instance to completion (spec.md §4.6). A single driver goroutine
// maintains per-node readiness and dispatches Ready nodes as
// goroutines under a parallelism cap, routes outputs to downstream
// inputs as producers complete, drives the per-node retry/timeout
// state machine, and narrates every transition onto the event bus.
//
// The driver never busy-waits: it blocks on a single completions
// channel between dispatch decisions, mirroring the await-based
// design in spec.md §5 ("the scheduler itself runs as a single
// logical driver that awaits task completions").
package scheduler
