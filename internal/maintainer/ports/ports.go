// Package ports defines the registry slice the maintainer and fee manager
// mutates entity state through.
package ports

import (
	"context"
	"time"

	"cosmossdk.io/math"

	"stakeport/internal/registry/models"
	"stakeport/pkg/domain"
	"stakeport/pkg/platform/audit"
)

// Registry is the identity registry surface the fee manager needs. Mutations
// go through these methods, never to the entity store directly.
type Registry interface {
	Get(ctx context.Context, id domain.ID) (*models.Entity, error)
	QueueFeeSwitch(ctx context.Context, id domain.ID, fee math.LegacyDec, effectiveAt time.Time) error
	ActivateFeeSwitch(ctx context.Context, id domain.ID) (bool, error)
	AddValidator(ctx context.Context, operatorID domain.ID) error
}

// AuditPublisher emits audit events for fee and validator operations.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
