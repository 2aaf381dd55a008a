package state

import (
	"sync"

	"github.com/flowcore/engine/pkg/types"
)

// scratchpad is the shared per-execution key/value store described in
// spec.md §9: "a single readers-writer-guarded map owned by the
// ExecutionState". Grounded on pkg/state/manager.go's single-mutex,
// multi-map pattern, collapsed to one map since spec.md does not
// distinguish variables/accumulator/counter/cache as separate
// namespaces — a node that wants that separation keys its own names.
type scratchpad struct {
	mu   sync.RWMutex
	data map[string]types.Value
}

func newScratchpad() *scratchpad {
	return &scratchpad{data: make(map[string]types.Value)}
}

// Get implements executor.Scratchpad.
func (s *scratchpad) Get(key string) (types.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

// Set implements executor.Scratchpad.
func (s *scratchpad) Set(key string, value types.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}
