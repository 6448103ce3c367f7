package archive

import (
	"context"
	"sync"
)

// memrepo is the repository used when no database is configured, e.g. on a
// node that only wants live games. Results survive for the process lifetime
// only.
type memrepo struct {
	mu      sync.RWMutex
	results map[string]*Result // gameID -> result
}

func NewMemoryRepository() Repository {
	return &memrepo{results: make(map[string]*Result)}
}

func (m *memrepo) SaveResult(ctx context.Context, r *Result) error {
	if r == nil {
		return nil
	}
	m.mu.Lock()
	saved := *r
	m.results[r.GameID] = &saved
	m.mu.Unlock()
	return nil
}

// Results returns a snapshot of everything saved so far, for tests and the
// interactive front-end's session summary.
func (m *memrepo) Results() []*Result {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Result, 0, len(m.results))
	for _, r := range m.results {
		snapshot := *r
		out = append(out, &snapshot)
	}
	return out
}
