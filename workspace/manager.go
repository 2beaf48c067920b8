package workspace

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/b0ase/cashboard/metrics"
)

// Manager keeps the live workspaces of the process.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Workspace
	opts     []Option
	m        *metrics.Metrics
	newID    func() string
}

// NewManager passes opts to every workspace it creates.
func NewManager(m *metrics.Metrics, opts ...Option) *Manager {
	return &Manager{
		sessions: make(map[string]*Workspace),
		opts:     append([]Option{WithMetrics(m)}, opts...),
		m:        m,
		newID:    func() string { return uuid.NewString() },
	}
}

func (m *Manager) Create(ctx context.Context) *Workspace {
	w := New(ctx, m.newID(), m.opts...)
	m.mu.Lock()
	m.sessions[w.ID()] = w
	m.mu.Unlock()
	m.m.SessionsDelta(1)
	return w
}

func (m *Manager) Get(id string) (*Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrSessionNotFound)
	}
	return w, nil
}

// List returns the workspaces ordered by creation time.
func (m *Manager) List() []*Workspace {
	m.mu.Lock()
	out := make([]*Workspace, 0, len(m.sessions))
	for _, w := range m.sessions {
		out = append(out, w)
	}
	m.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].created.Equal(out[j].created) {
			return out[i].id < out[j].id
		}
		return out[i].created.Before(out[j].created)
	})
	return out
}

// Default returns the oldest workspace, creating one when none exist.
func (m *Manager) Default(ctx context.Context) *Workspace {
	if ws := m.List(); len(ws) > 0 {
		return ws[0]
	}
	return m.Create(ctx)
}

func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%s: %w", id, ErrSessionNotFound)
	}
	delete(m.sessions, id)
	m.m.SessionsDelta(-1)
	return nil
}
