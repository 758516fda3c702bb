package store

import (
	"context"
	"sync"

	"stakeport/internal/oracle/models"
	"stakeport/pkg/domain"
	"stakeport/pkg/platform/sentinel"
)

// InMemoryPriceStore keeps the last accepted price per pool in a map. Suitable
// for tests and single-instance runs.
type InMemoryPriceStore struct {
	mu     sync.RWMutex
	points map[domain.ID]*models.PricePoint
}

func NewInMemoryPriceStore() *InMemoryPriceStore {
	return &InMemoryPriceStore{points: make(map[domain.ID]*models.PricePoint)}
}

func (s *InMemoryPriceStore) Get(_ context.Context, poolID domain.ID) (*models.PricePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	point, ok := s.points[poolID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return point.Clone(), nil
}

func (s *InMemoryPriceStore) Set(_ context.Context, point *models.PricePoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points[point.PoolID] = point.Clone()
	return nil
}

// InMemoryParamsStore holds the oracle params singleton.
type InMemoryParamsStore struct {
	mu     sync.RWMutex
	params *models.OracleParams
}

func NewInMemoryParamsStore() *InMemoryParamsStore {
	return &InMemoryParamsStore{}
}

func (s *InMemoryParamsStore) Get(_ context.Context) (*models.OracleParams, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.params == nil {
		return nil, sentinel.ErrNotFound
	}
	return s.params.Clone(), nil
}

func (s *InMemoryParamsStore) Set(_ context.Context, params *models.OracleParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = params.Clone()
	return nil
}
