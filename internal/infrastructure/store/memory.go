package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/bitebook/backend/internal/domain"
)

// MemoryStore keeps places in a map. Used for development and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	places map[uuid.UUID]*domain.Place
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{places: make(map[uuid.UUID]*domain.Place)}
}

// FindByID returns a copy of the stored place
func (s *MemoryStore) FindByID(ctx context.Context, id uuid.UUID) (*domain.Place, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.places[id]
	if !ok {
		return nil, fmt.Errorf("store.MemoryStore.FindByID: %w", domain.ErrNotFound)
	}
	return p.Clone(), nil
}

// FindAll returns every place ordered by creation time
func (s *MemoryStore) FindAll(ctx context.Context) ([]domain.Place, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Place, 0, len(s.places))
	for _, p := range s.places {
		out = append(out, *p.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Save inserts or replaces the place
func (s *MemoryStore) Save(ctx context.Context, place *domain.Place) (*domain.Place, error) {
	if place == nil {
		return nil, fmt.Errorf("store.MemoryStore.Save: %w: nil place", domain.ErrInvalidArgument)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("store.MemoryStore.Save: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.places[place.ID] = place.Clone()
	return place.Clone(), nil
}

// DeleteByID removes the place if present
func (s *MemoryStore) DeleteByID(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.places, id)
	return nil
}

// Close is a no-op
func (s *MemoryStore) Close() error { return nil }
