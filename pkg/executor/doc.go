// Package executor defines the Node Contract and the Node Registry.
//
// Node is the polymorphic interface every node type satisfies:
// TypeID, optional Initialize/Shutdown hooks, and Execute(ctx) →
// NodeOutput | error. NodeContext is the per-invocation bundle handed
// to Execute: required/optional input lookup, a handle to the shared
// scratchpad, an event emitter, and cancellation.
//
// Factory constructs Node instances from a declared config map and
// exposes introspection metadata. Registry is the thread-safe
// type-identifier → Factory mapping the workflow validator and
// scheduler both consult; it does not itself implement any node type.
//
// This package intentionally knows nothing about any concrete node
// type — those live in the catalog package, which depends on executor,
// never the reverse.
package executor
