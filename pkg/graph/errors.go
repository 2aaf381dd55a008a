package graph

import "errors"

// ErrEmptyGraph is returned by callers that choose to treat a
// zero-node workflow as invalid; the core itself accepts it (an empty
// workflow completes immediately with zero nodes processed).
var ErrEmptyGraph = errors.New("graph: workflow has no nodes")
