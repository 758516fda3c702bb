package store

import (
	"context"
	"sync"

	"stakeport/internal/registry/models"
	"stakeport/pkg/domain"
	"stakeport/pkg/platform/sentinel"
)

// InMemoryEntityStore keeps entity records in memory. It favors clarity over
// performance; all aggregate reads happen under one lock so callers get a
// consistent snapshot.
type InMemoryEntityStore struct {
	mu       sync.RWMutex
	entities map[domain.ID]*models.Entity
}

func NewInMemoryEntityStore() *InMemoryEntityStore {
	return &InMemoryEntityStore{entities: make(map[domain.ID]*models.Entity)}
}

func (s *InMemoryEntityStore) Create(_ context.Context, entity *models.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entities[entity.ID]; ok {
		return sentinel.ErrConflict
	}
	s.entities[entity.ID] = entity.Clone()
	return nil
}

func (s *InMemoryEntityStore) Get(_ context.Context, id domain.ID) (*models.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.entities[id]; ok {
		return e.Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryEntityStore) Update(_ context.Context, entity *models.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entities[entity.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.entities[entity.ID] = entity.Clone()
	return nil
}

func (s *InMemoryEntityStore) ListByType(_ context.Context, t domain.EntityType) ([]*models.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Entity
	for _, e := range s.entities {
		if e.Type == t {
			out = append(out, e.Clone())
		}
	}
	return out, nil
}

func (s *InMemoryEntityStore) TotalActiveValidators(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total uint64
	for _, e := range s.entities {
		if e.Type == domain.TypeOperator {
			total += e.ValidatorCount
		}
	}
	return total, nil
}
