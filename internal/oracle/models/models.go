// Package models holds the oracle's persisted shapes: the per-pool price
// point and the oracle parameter singleton.
package models

import (
	"time"

	"cosmossdk.io/math"

	"stakeport/pkg/domain"
)

// OracleParams is the oracle singleton: who may report, how far a price may
// move per period, and the monopoly cap. Changed only through governance.
type OracleParams struct {
	// OraclePosition is the only address whose price reports are accepted.
	OraclePosition domain.Address `json:"oracle_position"`

	// Per-period relative bounds on accepted price movement.
	PeriodPriceIncreaseLimit math.LegacyDec `json:"period_price_increase_limit"`
	PeriodPriceDecreaseLimit math.LegacyDec `json:"period_price_decrease_limit"`

	// Relaxed bounds applied while the reported pool is inside its bootstrap
	// window.
	BootstrapPriceIncreaseLimit math.LegacyDec `json:"bootstrap_price_increase_limit"`
	BootstrapPriceDecreaseLimit math.LegacyDec `json:"bootstrap_price_decrease_limit"`

	// MonopolyThreshold is the maximum fraction of all active validators a
	// single operator may run before its reports are refused.
	MonopolyThreshold math.LegacyDec `json:"monopoly_threshold"`

	// PeriodSeconds divides wall time into report periods; at most one report
	// per pool is accepted per period.
	PeriodSeconds int64 `json:"period_seconds"`
}

// Clone returns a copy safe to hand to callers.
func (p *OracleParams) Clone() *OracleParams {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

// PeriodIndex maps a wall-clock instant to its report period.
func (p *OracleParams) PeriodIndex(t time.Time) int64 {
	if p.PeriodSeconds <= 0 {
		return 0
	}
	return t.Unix() / p.PeriodSeconds
}

// PricePoint is the last accepted price for a pool.
type PricePoint struct {
	PoolID      domain.ID      `json:"pool_id"`
	Price       math.LegacyDec `json:"price"`
	PeriodIndex int64          `json:"period_index"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Clone returns a copy safe to hand to callers.
func (p *PricePoint) Clone() *PricePoint {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}
