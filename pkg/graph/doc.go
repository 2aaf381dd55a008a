// Package graph turns a workflow's NodeSpecs and Connections into a DAG
// and validates it (spec.md §4.5): node-id uniqueness, registered node
// types, per-factory config validation, connection endpoint
// resolution, single-writer fan-in on every input port, and DFS
// grey/black cycle detection with path reporting. Validate returns a
// Plan the scheduler consumes directly: adjacency lists in both
// directions, a topological index for deterministic Ready-queue
// tie-breaking, and the workflow's root nodes.
package graph
