package state

import "errors"

// ErrUnknownNode is returned by callers that look up a node id never
// seeded into an ExecutionState.
var ErrUnknownNode = errors.New("state: unknown node id")
