package inmemory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/lectern-ai/lectern/models"
)

// Store is an in-memory session history store. History lives for the
// process lifetime; sessions are never explicitly destroyed.
type Store struct {
	turns    map[string][]models.Turn
	maxTurns int
	mu       sync.RWMutex
}

func NewStore(maxTurns int) *Store {
	return &Store{turns: make(map[string][]models.Turn), maxTurns: maxTurns}
}

func (s *Store) Create(ctx context.Context) (string, error) {
	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns[id] = nil
	return id, nil
}

func (s *Store) History(ctx context.Context, id string) ([]models.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	turns := s.turns[id]
	out := make([]models.Turn, len(turns))
	copy(out, turns)
	return out, nil
}

func (s *Store) Append(ctx context.Context, id string, turns ...models.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	updated := append(s.turns[id], turns...)
	if s.maxTurns > 0 && len(updated) > s.maxTurns {
		updated = updated[len(updated)-s.maxTurns:]
	}
	s.turns[id] = updated
	return nil
}
