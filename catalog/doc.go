// Package catalog is a small, self-contained set of node types used by
// the demo command and this package's own tests: constant, expression
// (backed by expr-lang/expr), condition (boolean branch selection),
// transform (uppercase/lowercase/trim on a string input), and flaky (a
// configurable-failure-count node for exercising the scheduler's retry
// state machine). None of pkg/scheduler, pkg/runtime, or pkg/graph
// import this package — it is a consumer of the Node Contract, never a
// dependency of the engine itself.
package catalog
