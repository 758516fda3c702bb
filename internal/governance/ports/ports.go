// Package ports defines the interfaces the governance state machine depends
// on. The registry and proposal ledger are injected; governance never touches
// their stores directly.
package ports

import (
	"context"

	governanceModels "stakeport/internal/governance/models"
	proposalModels "stakeport/internal/proposal/models"
	registryModels "stakeport/internal/registry/models"
	"stakeport/pkg/domain"
	"stakeport/pkg/platform/audit"
)

// Registry is the slice of the identity registry governance applies approved
// proposals through.
type Registry interface {
	Register(ctx context.Context, name string, t domain.EntityType, controller, maintainer domain.Address) (*registryModels.Entity, error)
	ReplaceController(ctx context.Context, id domain.ID, newController domain.Address) error
	Get(ctx context.Context, id domain.ID) (*registryModels.Entity, error)
	ListByType(ctx context.Context, t domain.EntityType) ([]*registryModels.Entity, error)
}

// ProposalStore manages the live proposal set.
type ProposalStore interface {
	// Create inserts a live proposal; sentinel.ErrConflict when one exists.
	Create(ctx context.Context, p *proposalModels.Proposal) error
	// Get returns the live proposal for id, or sentinel.ErrNotFound.
	Get(ctx context.Context, id domain.ID) (*proposalModels.Proposal, error)
	// Update persists vote changes on a live proposal.
	Update(ctx context.Context, p *proposalModels.Proposal) error
	// Consume removes a proposal from the live set, exactly once.
	Consume(ctx context.Context, id domain.ID) error
}

// ParamsStore holds the governance singleton.
type ParamsStore interface {
	Get(ctx context.Context) (*governanceModels.GovernanceParams, error)
	Set(ctx context.Context, params *governanceModels.GovernanceParams) error
}

// AuditPublisher emits audit events for governance transitions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
