// Package telemetry provides OpenTelemetry integration for distributed
// tracing and metrics, exported via Prometheus. A Consumer drains an
// event bus subscription (pkg/eventbus) and turns each types.Event
// into spans and counter/histogram updates, the same way
// pkg/observer.Console drains one into structured logs.
//
//   - Distributed tracing: one span per workflow execution, one
//     child span per node invocation
//   - Metrics: workflow/node execution counts, durations, retry counts
//   - Prometheus exporter, scraped via an HTTP handler the caller wires
package telemetry
