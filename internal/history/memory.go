package history

import (
	"context"
	"sort"
	"sync"

	"github.com/park285/playdate-bot/internal/domain"
)

// memrepo is used when no DATABASE_URL is configured. Results are lost on restart.
type memrepo struct {
	mu      sync.RWMutex
	byID    map[string]domain.Result
	byScope map[string][]string // scope -> ids, insertion order
}

func NewMemory() Repository {
	return &memrepo{byID: make(map[string]domain.Result), byScope: make(map[string][]string)}
}

func (m *memrepo) SaveResult(_ context.Context, res domain.Result) error {
	res = normalize(res)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byID[res.ID]; !exists {
		m.byScope[res.Scope] = append(m.byScope[res.Scope], res.ID)
	}
	m.byID[res.ID] = res
	return nil
}

func (m *memrepo) Recent(_ context.Context, scope string, limit int) ([]domain.Result, error) {
	if limit <= 0 {
		limit = 10
	}
	m.mu.RLock()
	ids := m.byScope[scope]
	out := make([]domain.Result, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.byID[id])
	}
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].EndedAt.After(out[j].EndedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memrepo) Close() error { return nil }
