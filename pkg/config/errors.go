package config

import "errors"

// Sentinel errors for configuration validation.
var (
	ErrInvalidEventBusCapacity = errors.New("invalid event bus capacity: must be positive")
	ErrInvalidMaxParallelNodes = errors.New("invalid max parallel nodes: must be positive and not exceed the ceiling")
	ErrInvalidNodeTimeout      = errors.New("invalid default node timeout: must be non-negative")
	ErrInvalidRetryBackoff     = errors.New("invalid max retry backoff: must be positive")
	ErrInvalidExecutionTime    = errors.New("invalid max execution time: must be positive")
	ErrInvalidResourceLimit    = errors.New("invalid resource limit: must be non-negative")
)
