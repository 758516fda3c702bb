package store

import (
	"context"
	"sync"

	"stakeport/internal/proposal/models"
	"stakeport/pkg/domain"
	"stakeport/pkg/platform/sentinel"
)

// InMemoryProposalStore keeps the live proposal set in memory. Approved and
// expired proposals are consumed (removed), so presence in this store is the
// definition of "live".
type InMemoryProposalStore struct {
	mu        sync.RWMutex
	proposals map[domain.ID]*models.Proposal
}

func NewInMemoryProposalStore() *InMemoryProposalStore {
	return &InMemoryProposalStore{proposals: make(map[domain.ID]*models.Proposal)}
}

func (s *InMemoryProposalStore) Create(_ context.Context, p *models.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.proposals[p.ID]; ok {
		return sentinel.ErrConflict
	}
	s.proposals[p.ID] = p.Clone()
	return nil
}

func (s *InMemoryProposalStore) Get(_ context.Context, id domain.ID) (*models.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.proposals[id]; ok {
		return p.Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryProposalStore) Update(_ context.Context, p *models.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.proposals[p.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.proposals[p.ID] = p.Clone()
	return nil
}

// Consume removes a proposal from the live set. Called exactly once per
// proposal, on approval or on expiry sweep.
func (s *InMemoryProposalStore) Consume(_ context.Context, id domain.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.proposals[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.proposals, id)
	return nil
}
