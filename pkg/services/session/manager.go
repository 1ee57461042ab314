package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/de-tools/report-assistant/pkg/models/domain"
)

// Manager keeps the live orchestrators of the web API, keyed by the local
// session id.
type Manager interface {
	Create(ctx context.Context, user domain.User) (*Orchestrator, View, error)
	Get(id string) (*Orchestrator, error)
	Restart(ctx context.Context, id string) (View, error)
	Delete(id string) error
	Wait()
}

type manager struct {
	deps Dependencies

	mu       sync.RWMutex
	sessions map[string]*Orchestrator
	draining sync.WaitGroup
}

func NewManager(deps Dependencies) Manager {
	return &manager{
		deps:     deps,
		sessions: make(map[string]*Orchestrator),
	}
}

func (m *manager) Create(ctx context.Context, user domain.User) (*Orchestrator, View, error) {
	o, err := NewOrchestrator(m.deps)
	if err != nil {
		return nil, View{}, err
	}
	view := o.Start(ctx, user)

	m.mu.Lock()
	m.sessions[view.Session.SessionID] = o
	m.mu.Unlock()

	return o, view, nil
}

func (m *manager) Get(id string) (*Orchestrator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return o, nil
}

// Restart is the "new session" action: the same user gets a fresh session
// under a new id.
func (m *manager) Restart(ctx context.Context, id string) (View, error) {
	o, err := m.Get(id)
	if err != nil {
		return View{}, err
	}
	current := o.Snapshot().Session
	view := o.Start(ctx, domain.User{Name: current.UserName, ID: current.UserID})

	m.mu.Lock()
	delete(m.sessions, id)
	m.sessions[view.Session.SessionID] = o
	m.mu.Unlock()

	return view, nil
}

// Delete drops the session. Its detached tasks keep running and are still
// covered by Wait.
func (m *manager) Delete(id string) error {
	m.mu.Lock()
	o, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	delete(m.sessions, id)
	m.mu.Unlock()

	m.draining.Add(1)
	go func() {
		defer m.draining.Done()
		o.Wait()
	}()
	return nil
}

// Wait blocks until every orchestrator's detached tasks have finished,
// including those of deleted sessions.
func (m *manager) Wait() {
	m.mu.RLock()
	sessions := make([]*Orchestrator, 0, len(m.sessions))
	for _, o := range m.sessions {
		sessions = append(sessions, o)
	}
	m.mu.RUnlock()

	for _, o := range sessions {
		o.Wait()
	}
	m.draining.Wait()
}
