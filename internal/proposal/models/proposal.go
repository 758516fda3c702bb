package models

import (
	"time"

	"stakeport/pkg/domain"
)

// Proposal is a pending governance action: onboarding a new entity or handing
// an existing id to a new controller. A proposal is live from creation until
// it is consumed by approval or swept after its deadline; at most one live
// proposal exists per id.
type Proposal struct {
	ID         domain.ID         `json:"id"`
	Type       domain.EntityType `json:"type"`
	Name       string            `json:"name"`
	Controller domain.Address    `json:"controller"`
	CreatedAt  time.Time         `json:"created_at"`
	Deadline   time.Time         `json:"deadline"`

	// Votes holds distinct elector approvals for senate elections. Empty for
	// every other proposal type.
	Votes []domain.Address `json:"votes,omitempty"`
}

// IsExpired is the pure deadline check every temporal transition reduces to.
func (p *Proposal) IsExpired(now time.Time) bool {
	return now.After(p.Deadline)
}

// HasVote reports whether the elector already voted.
func (p *Proposal) HasVote(addr domain.Address) bool {
	for _, v := range p.Votes {
		if v == addr {
			return true
		}
	}
	return false
}

// Clone returns a copy safe for callers to hold across store mutations.
func (p *Proposal) Clone() *Proposal {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Votes = append([]domain.Address(nil), p.Votes...)
	return &cp
}
