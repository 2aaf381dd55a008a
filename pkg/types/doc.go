// Package types defines the shared data model for the workflow engine:
// the tagged Value variant, the Workflow/NodeSpec/Connection declaration
// types, the Event kinds published to the event bus, and the closed
// error-kind taxonomy.
//
// # Design principles
//
//   - Minimal dependencies: types has no dependency on any other package
//     in this module, so graph, executor, state, scheduler and runtime
//     can all depend on it without import cycles.
//   - Immutability: Workflow, NodeSpec, Connection, RetryPolicy and
//     WorkflowSettings are constructed once and never mutated.
//   - Closed taxonomies: error kinds and event kinds are not meant to
//     be extended by importers; new variants are added here. Node type
//     names are plain strings chosen by whoever registers a factory.
package types
