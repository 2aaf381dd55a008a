// Package config centralizes the engine's operational knobs: the
// things spec.md leaves to the embedder rather than to a Workflow's
// own Settings.
//
// # Overview
//
// A Config is passed once, at Runtime construction, and governs every
// workflow executed through that Runtime: event bus ring capacity,
// parallelism defaults and ceiling, node timeout default, retry
// backoff cap, and whether the telemetry wrapper in pkg/telemetry is
// active.
//
// # Basic Usage
//
//	import "github.com/flowcore/engine/pkg/config"
//
//	cfg := config.Default()
//	bus := eventbus.New(cfg.EventBusCapacity)
//	rt := runtime.New(reg, bus, cfg) // reg: an *executor.Registry
//
// # Presets
//
// Default returns production-ready values. Development relaxes
// timeouts for local iteration. Testing tightens them and disables
// telemetry so tests run fast and deterministically. Production is
// provided for callers that want to name their intent explicitly; it
// is identical to Default.
//
// # Thread Safety
//
// A Config is read-only once constructed. Clone returns an
// independent copy for a caller that wants to tweak a preset without
// mutating the shared original.
package config
