// Package runtime implements the Runtime Facade described in spec.md
// §4.7: the single entry point an embedder uses to register workflows,
// execute them, subscribe to the event bus, and cancel an in-flight
// execution. It owns the node registry and the event bus, and guards
// its workflow store with a sync.RWMutex so concurrent executions of
// distinct workflows never block each other on registration traffic.
package runtime
