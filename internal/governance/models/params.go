package models

import (
	"time"

	"cosmossdk.io/math"

	"stakeport/pkg/domain"
)

// GovernanceParams is the governance-wide singleton: who holds the governance
// and senate roles, the governance fee, and the senate's term.
type GovernanceParams struct {
	Governance    domain.Address `json:"governance"`
	Senate        domain.Address `json:"senate"`
	SenateID      domain.ID      `json:"senate_id"`
	GovernanceFee math.LegacyDec `json:"governance_fee"`

	// SenateExpiry strictly increases on every successful election. Once
	// passed, the senate role is vacant and only re-election proposals may be
	// approved.
	SenateExpiry time.Time `json:"senate_expiry"`

	// LastElection marks the most recent successful election, so a proposal
	// created before it cannot renew the same cycle twice.
	LastElection time.Time `json:"last_election"`

	// SenateQuorum is the number of distinct elector votes a senate election
	// needs. With quorum 1 the sitting senate controller's vote elects
	// directly.
	SenateQuorum int `json:"senate_quorum"`
}

// SenateExpired reports whether the senate term has lapsed.
func (p *GovernanceParams) SenateExpired(now time.Time) bool {
	return now.After(p.SenateExpiry)
}

// Clone returns a copy safe to hand to callers.
func (p *GovernanceParams) Clone() *GovernanceParams {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}
