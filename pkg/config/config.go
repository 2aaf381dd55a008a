package config

import "time"

// Config holds the engine's operational knobs: the things spec.md
// leaves to the embedder rather than to a Workflow's own Settings.
// All configuration is centralized here, following the same
// Default/Development/Production/Testing preset pattern used
// throughout this codebase's ambient stack.
type Config struct {
	// EventBusCapacity is the ring buffer size for every Runtime's
	// event bus (spec.md §4.2 default: 1024).
	EventBusCapacity int

	// DefaultMaxParallelNodes is used when a Workflow's Settings omits
	// max_parallel_nodes.
	DefaultMaxParallelNodes int
	// MaxParallelNodesCeiling caps a Workflow's declared
	// max_parallel_nodes, defending against a misconfigured workflow
	// requesting unbounded concurrency.
	MaxParallelNodesCeiling int

	// DefaultNodeTimeout is used when a NodeSpec omits timeout_ms.
	// Zero means no default timeout is applied.
	DefaultNodeTimeout time.Duration
	// MaxRetryBackoff caps the exponential backoff delay between retry
	// attempts (spec.md §4.6: "capped at 5 minutes").
	MaxRetryBackoff time.Duration

	// MaxExecutionTime bounds an entire workflow run.
	MaxExecutionTime time.Duration

	// Resource limits against a misbehaving or malicious workflow
	// document.
	MaxNodes       int
	MaxConnections int

	// TracingEnabled/MetricsEnabled gate the optional OpenTelemetry
	// wrapper in pkg/telemetry.
	TracingEnabled bool
	MetricsEnabled bool
}

// Default returns the engine's production-ready default configuration.
func Default() *Config {
	return &Config{
		EventBusCapacity:        1024,
		DefaultMaxParallelNodes: 4,
		MaxParallelNodesCeiling: 256,
		DefaultNodeTimeout:      30 * time.Second,
		MaxRetryBackoff:         5 * time.Minute,
		MaxExecutionTime:        5 * time.Minute,
		MaxNodes:                1000,
		MaxConnections:          5000,
		TracingEnabled:          true,
		MetricsEnabled:          true,
	}
}

// Development returns a Config with relaxed limits and tracing on for
// local iteration.
func Development() *Config {
	cfg := Default()
	cfg.MaxExecutionTime = 10 * time.Minute
	cfg.DefaultNodeTimeout = 2 * time.Minute
	return cfg
}

// Production returns a Config identical to Default; the split exists
// so call sites can name their intent explicitly (same pattern the
// HTTP-security-oriented predecessor of this file used for its own
// presets).
func Production() *Config {
	return Default()
}

// Testing returns a Config with tight timeouts and telemetry disabled,
// suited to fast, deterministic test runs.
func Testing() *Config {
	cfg := Default()
	cfg.MaxExecutionTime = 10 * time.Second
	cfg.DefaultNodeTimeout = 2 * time.Second
	cfg.MaxRetryBackoff = 1 * time.Second
	cfg.TracingEnabled = false
	cfg.MetricsEnabled = false
	return cfg
}

// Validate checks that every configured value is usable.
func (c *Config) Validate() error {
	if c.EventBusCapacity <= 0 {
		return ErrInvalidEventBusCapacity
	}
	if c.DefaultMaxParallelNodes <= 0 {
		return ErrInvalidMaxParallelNodes
	}
	if c.MaxParallelNodesCeiling < c.DefaultMaxParallelNodes {
		return ErrInvalidMaxParallelNodes
	}
	if c.DefaultNodeTimeout < 0 {
		return ErrInvalidNodeTimeout
	}
	if c.MaxRetryBackoff <= 0 {
		return ErrInvalidRetryBackoff
	}
	if c.MaxExecutionTime <= 0 {
		return ErrInvalidExecutionTime
	}
	if c.MaxNodes < 0 || c.MaxConnections < 0 {
		return ErrInvalidResourceLimit
	}
	return nil
}

// Clone creates a deep copy of the configuration. Every field here is
// a value type, so a shallow copy is already a deep copy; Clone exists
// to match the teacher's Config surface and to stay correct if a
// future field needs a slice/map.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
