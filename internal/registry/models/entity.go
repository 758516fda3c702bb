package models

import (
	"time"

	"cosmossdk.io/math"

	"stakeport/pkg/domain"
)

// PendingFeeSwitch is a queued maintainer fee change. Once recorded it cannot
// be altered before its effective time; it is either activated or superseded
// after activation.
type PendingFeeSwitch struct {
	Fee         math.LegacyDec `json:"fee"`
	EffectiveAt time.Time      `json:"effective_at"`
}

// Entity is a registered participant: a validator operator, a staking pool,
// an auxiliary sub-pool, or the senate record itself. The registry exclusively
// owns these records; other components mutate them only through the registry's
// interfaces.
type Entity struct {
	ID         domain.ID         `json:"id"`
	Type       domain.EntityType `json:"type"`
	Name       string            `json:"name"`
	Controller domain.Address    `json:"controller"`
	Maintainer domain.Address    `json:"maintainer"`

	Initiated   bool      `json:"initiated"`
	InitiatedAt time.Time `json:"initiated_at,omitzero"`

	// Fee is the active maintainer fee fraction, bounded by the protocol's
	// MaxMaintainerFee. PendingFee, when set, replaces it after its delay.
	Fee        math.LegacyDec    `json:"fee"`
	PendingFee *PendingFeeSwitch `json:"pending_fee,omitempty"`

	// ValidatorCount tracks active validators for Operator entities; it feeds
	// the oracle's monopoly aggregate.
	ValidatorCount uint64 `json:"validator_count"`

	CreatedAt time.Time `json:"created_at"`
}

// Clone returns a deep copy so store snapshots cannot be mutated by callers.
func (e *Entity) Clone() *Entity {
	if e == nil {
		return nil
	}
	cp := *e
	if e.PendingFee != nil {
		pf := *e.PendingFee
		cp.PendingFee = &pf
	}
	return &cp
}

// EffectiveFee returns the currently active fee. The pending switch is never
// visible here until activated.
func (e *Entity) EffectiveFee() math.LegacyDec {
	if e.Fee.IsNil() {
		return math.LegacyZeroDec()
	}
	return e.Fee
}

// InBootstrap reports whether the entity is still inside the relaxed oracle
// bootstrap window that starts when onboarding completes.
func (e *Entity) InBootstrap(now time.Time, bootstrapPeriod time.Duration) bool {
	if !e.Initiated || e.InitiatedAt.IsZero() {
		return false
	}
	return now.Before(e.InitiatedAt.Add(bootstrapPeriod))
}
