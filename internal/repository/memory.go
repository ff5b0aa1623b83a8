package repository

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/m2tx/kimap_agent/internal/model"
)

// MemorySessionRepository keeps sessions in process memory.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]model.Session
	now      func() time.Time
}

// NewMemorySessionRepository creates an empty MemorySessionRepository.
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[string]model.Session),
		now:      time.Now,
	}
}

func (r *MemorySessionRepository) Save(_ context.Context, sessionID string, history []model.Content) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[sessionID] = model.Session{
		ID:        sessionID,
		History:   slices.Clone(history),
		UpdatedAt: r.now().UTC(),
	}
	return nil
}

func (r *MemorySessionRepository) Load(_ context.Context, sessionID string) ([]model.Content, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	return slices.Clone(s.History), nil
}

func (r *MemorySessionRepository) Delete(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, sessionID)
	return nil
}

func (r *MemorySessionRepository) List(_ context.Context) ([]model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := make([]model.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		s.History = slices.Clone(s.History)
		sessions = append(sessions, s)
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})

	return sessions, nil
}
