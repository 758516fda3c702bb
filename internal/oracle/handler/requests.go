package handler

import (
	"strings"

	"cosmossdk.io/math"

	oracleModels "stakeport/internal/oracle/models"
	"stakeport/pkg/domain"
	dErrors "stakeport/pkg/domain-errors"
)

// ReportPriceRequest is the body for POST /oracle/report.
type ReportPriceRequest struct {
	PoolID     string `json:"pool_id"`
	OperatorID string `json:"operator_id"`
	Price      string `json:"price"`

	parsedPoolID     domain.ID
	parsedOperatorID domain.ID
	parsedPrice      math.LegacyDec
}

// Validate validates and parses the request.
func (r *ReportPriceRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	var err error
	if r.parsedPoolID, err = domain.ParseID(r.PoolID); err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "pool_id is not a valid id")
	}
	if r.parsedOperatorID, err = domain.ParseID(r.OperatorID); err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "operator_id is not a valid id")
	}
	if r.parsedPrice, err = math.LegacyNewDecFromStr(strings.TrimSpace(r.Price)); err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "price is not a valid decimal")
	}
	return nil
}

func (r *ReportPriceRequest) ParsedPoolID() domain.ID     { return r.parsedPoolID }
func (r *ReportPriceRequest) ParsedOperatorID() domain.ID { return r.parsedOperatorID }
func (r *ReportPriceRequest) ParsedPrice() math.LegacyDec { return r.parsedPrice }

// SetParamsRequest is the body for POST /params/oracle.
type SetParamsRequest struct {
	OraclePosition              string `json:"oracle_position"`
	PeriodPriceIncreaseLimit    string `json:"period_price_increase_limit"`
	PeriodPriceDecreaseLimit    string `json:"period_price_decrease_limit"`
	BootstrapPriceIncreaseLimit string `json:"bootstrap_price_increase_limit"`
	BootstrapPriceDecreaseLimit string `json:"bootstrap_price_decrease_limit"`
	MonopolyThreshold           string `json:"monopoly_threshold"`
	PeriodSeconds               int64  `json:"period_seconds"`

	parsed oracleModels.OracleParams
}

// Validate validates and parses the request.
func (r *SetParamsRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	position, err := domain.ParseAddress(strings.TrimSpace(r.OraclePosition))
	if err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "oracle_position is not a valid address")
	}
	r.parsed.OraclePosition = position
	r.parsed.PeriodSeconds = r.PeriodSeconds

	fields := []struct {
		name   string
		raw    string
		target *math.LegacyDec
	}{
		{"period_price_increase_limit", r.PeriodPriceIncreaseLimit, &r.parsed.PeriodPriceIncreaseLimit},
		{"period_price_decrease_limit", r.PeriodPriceDecreaseLimit, &r.parsed.PeriodPriceDecreaseLimit},
		{"bootstrap_price_increase_limit", r.BootstrapPriceIncreaseLimit, &r.parsed.BootstrapPriceIncreaseLimit},
		{"bootstrap_price_decrease_limit", r.BootstrapPriceDecreaseLimit, &r.parsed.BootstrapPriceDecreaseLimit},
		{"monopoly_threshold", r.MonopolyThreshold, &r.parsed.MonopolyThreshold},
	}
	for _, f := range fields {
		if *f.target, err = math.LegacyNewDecFromStr(strings.TrimSpace(f.raw)); err != nil {
			return dErrors.Newf(dErrors.CodeBadRequest, "%s is not a valid decimal", f.name)
		}
	}
	return nil
}

// ParsedParams returns the validated params.
func (r *SetParamsRequest) ParsedParams() *oracleModels.OracleParams {
	params := r.parsed
	return &params
}
