// Package ports defines the registry interfaces consumed by the governance,
// maintainer, and oracle components.
package ports

import (
	"context"

	"stakeport/internal/registry/models"
	"stakeport/pkg/domain"
	"stakeport/pkg/platform/audit"
)

// EntityStore persists entity records keyed by id.
type EntityStore interface {
	// Create inserts a new record. Returns sentinel.ErrConflict if the id
	// already exists.
	Create(ctx context.Context, entity *models.Entity) error

	// Get returns the record for id, or sentinel.ErrNotFound.
	Get(ctx context.Context, id domain.ID) (*models.Entity, error)

	// Update replaces the record for id. Returns sentinel.ErrNotFound if the
	// id was never registered.
	Update(ctx context.Context, entity *models.Entity) error

	// ListByType returns all records of the given type.
	ListByType(ctx context.Context, t domain.EntityType) ([]*models.Entity, error)

	// TotalActiveValidators sums validator counts across all operators. Must
	// be computed under one consistent snapshot of the store.
	TotalActiveValidators(ctx context.Context) (uint64, error)
}

// AuditPublisher emits audit events for registry state changes.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
