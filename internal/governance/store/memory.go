package store

import (
	"context"
	"sync"

	"stakeport/internal/governance/models"
	"stakeport/pkg/platform/sentinel"
)

// InMemoryParamsStore holds the governance singleton in memory.
type InMemoryParamsStore struct {
	mu     sync.RWMutex
	params *models.GovernanceParams
}

func NewInMemoryParamsStore() *InMemoryParamsStore {
	return &InMemoryParamsStore{}
}

func (s *InMemoryParamsStore) Get(_ context.Context) (*models.GovernanceParams, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.params == nil {
		return nil, sentinel.ErrNotFound
	}
	return s.params.Clone(), nil
}

func (s *InMemoryParamsStore) Set(_ context.Context, params *models.GovernanceParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = params.Clone()
	return nil
}
