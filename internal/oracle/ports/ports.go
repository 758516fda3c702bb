// Package ports defines the storage and collaborator interfaces the oracle
// price engine depends on.
package ports

import (
	"context"
	"time"

	"cosmossdk.io/math"

	"stakeport/internal/oracle/models"
	regmodels "stakeport/internal/registry/models"
	"stakeport/pkg/domain"
	"stakeport/pkg/platform/audit"
)

// PriceStore persists the last accepted price per pool.
type PriceStore interface {
	Get(ctx context.Context, poolID domain.ID) (*models.PricePoint, error)
	Set(ctx context.Context, point *models.PricePoint) error
}

// ParamsStore persists the oracle parameter singleton.
type ParamsStore interface {
	Get(ctx context.Context) (*models.OracleParams, error)
	Set(ctx context.Context, params *models.OracleParams) error
}

// PriceCache is an optional hot cache for the latest accepted price, read by
// the query path. A nil cache disables caching.
type PriceCache interface {
	Get(ctx context.Context, poolID domain.ID) (math.LegacyDec, bool, error)
	Set(ctx context.Context, poolID domain.ID, price math.LegacyDec, ttl time.Duration) error
}

// Registry is the identity registry slice the oracle reads: the reported pool,
// the reporting operator, and the validator aggregate for the monopoly check.
type Registry interface {
	Get(ctx context.Context, id domain.ID) (*regmodels.Entity, error)
	TotalActiveValidators(ctx context.Context) (uint64, error)
}

// GovernanceView exposes the governance role to the oracle without the oracle
// holding governance state.
type GovernanceView interface {
	GovernanceAddress(ctx context.Context) (domain.Address, error)
	GovernanceFee(ctx context.Context) (math.LegacyDec, error)
}

// AuditPublisher emits audit events for accepted and rejected reports.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
