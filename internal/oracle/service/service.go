// Package service implements the oracle price engine: validated per-pool
// price reports with bounded deltas, a monopoly cap on reporting operators,
// and governance-gated parameter updates.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cosmossdk.io/math"

	"stakeport/internal/external"
	"stakeport/internal/oracle/metrics"
	"stakeport/internal/oracle/models"
	"stakeport/internal/oracle/ports"
	regmodels "stakeport/internal/registry/models"
	"stakeport/pkg/domain"
	dErrors "stakeport/pkg/domain-errors"
	"stakeport/pkg/platform/audit"
	"stakeport/pkg/platform/sentinel"
	"stakeport/pkg/requestcontext"
)

// Rejection reasons used as metric labels.
const (
	reasonUnauthorized = "unauthorized"
	reasonMonopoly     = "monopoly"
	reasonStale        = "stale_report"
	reasonPriceBound   = "price_bound"
)

// Config carries the oracle constants fixed at startup. Runtime-adjustable
// parameters live in the params store.
type Config struct {
	// OraclePeriod is the cache TTL for accepted prices.
	OraclePeriod time.Duration

	// BootstrapPeriod is how long after initiation a pool stays inside the
	// relaxed bootstrap price band.
	BootstrapPeriod time.Duration
}

type Service struct {
	prices         ports.PriceStore
	params         ports.ParamsStore
	registry       ports.Registry
	governance     ports.GovernanceView
	ledger         external.TokenLedger
	cache          ports.PriceCache
	cfg            Config
	metrics        *metrics.Metrics
	auditPublisher ports.AuditPublisher
	logger         *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher ports.AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithPriceCache enables the hot read cache for accepted prices.
func WithPriceCache(cache ports.PriceCache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

func New(prices ports.PriceStore, params ports.ParamsStore, registry ports.Registry, governance ports.GovernanceView, ledger external.TokenLedger, cfg Config, opts ...Option) (*Service, error) {
	if prices == nil {
		return nil, fmt.Errorf("price store is required")
	}
	if params == nil {
		return nil, fmt.Errorf("params store is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if governance == nil {
		return nil, fmt.Errorf("governance view is required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("token ledger is required")
	}

	svc := &Service{
		prices:     prices,
		params:     params,
		registry:   registry,
		governance: governance,
		ledger:     ledger,
		cfg:        cfg,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc, nil
}

// Bootstrap seeds the oracle params singleton. Idempotent: existing params
// are left untouched.
func (s *Service) Bootstrap(ctx context.Context, initial *models.OracleParams) error {
	if _, err := s.params.Get(ctx); err == nil {
		return nil
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read oracle params")
	}
	if err := validateParams(initial); err != nil {
		return err
	}
	if err := s.params.Set(ctx, initial); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to seed oracle params")
	}
	return nil
}

// Params returns the current oracle parameters.
func (s *Service) Params(ctx context.Context) (*models.OracleParams, error) {
	params, err := s.params.Get(ctx)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "oracle params not initialized")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read oracle params")
	}
	return params, nil
}

// SetParams replaces the oracle parameters. Only the governance address may
// call this; every field is validated before the swap.
func (s *Service) SetParams(ctx context.Context, params *models.OracleParams) error {
	governance, err := s.governance.GovernanceAddress(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve governance address")
	}
	caller := requestcontext.Caller(ctx)
	if caller != governance {
		return dErrors.New(dErrors.CodeUnauthorized, "only governance may set oracle params")
	}
	if err := validateParams(params); err != nil {
		return err
	}
	if err := s.params.Set(ctx, params); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store oracle params")
	}
	s.emit(ctx, audit.EventOracleParamsSet, domain.ID{}, caller, string(params.OraclePosition))
	return nil
}

// PoolPrice returns the latest accepted price for a pool, consulting the hot
// cache before the durable store.
func (s *Service) PoolPrice(ctx context.Context, poolID domain.ID) (math.LegacyDec, error) {
	if s.cache != nil {
		price, ok, err := s.cache.Get(ctx, poolID)
		if err != nil {
			s.logger.WarnContext(ctx, "price cache read failed", "pool", poolID.String(), "error", err.Error())
		} else if ok {
			return price, nil
		}
	}

	point, err := s.LatestPrice(ctx, poolID)
	if err != nil {
		return math.LegacyDec{}, err
	}
	s.cachePrice(ctx, poolID, point.Price)
	return point.Price, nil
}

// LatestPrice returns the full last accepted price point for a pool.
func (s *Service) LatestPrice(ctx context.Context, poolID domain.ID) (*models.PricePoint, error) {
	point, err := s.prices.Get(ctx, poolID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "no price recorded for pool %s", poolID)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read price point")
	}
	return point, nil
}

// Report is one oracle price submission: the pool being priced and the
// operator the report is attributed to for the monopoly check.
type Report struct {
	PoolID     domain.ID
	OperatorID domain.ID
	Price      math.LegacyDec
}

// ReportPrice validates and applies one price report. Rejections are strict:
// an out-of-band price fails the whole report and no state changes. On an
// accepted price increase the protocol fee share of the yield is minted
// against the pool's receipt supply.
func (s *Service) ReportPrice(ctx context.Context, report Report) (*models.PricePoint, error) {
	params, err := s.Params(ctx)
	if err != nil {
		return nil, err
	}

	caller := requestcontext.Caller(ctx)
	if caller != params.OraclePosition {
		return nil, s.reject(ctx, report.PoolID, caller, reasonUnauthorized,
			dErrors.New(dErrors.CodeUnauthorized, "caller is not the oracle position"))
	}
	if report.Price.IsNil() || !report.Price.IsPositive() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "price must be positive")
	}

	pool, err := s.registry.Get(ctx, report.PoolID)
	if err != nil {
		return nil, err
	}
	if pool.Type != domain.TypePool {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "entity %s is not a pool", report.PoolID)
	}
	if !pool.Initiated {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "pool %s is not initiated", report.PoolID)
	}

	operator, err := s.registry.Get(ctx, report.OperatorID)
	if err != nil {
		return nil, err
	}
	if operator.Type != domain.TypeOperator {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "entity %s is not an operator", report.OperatorID)
	}

	total, err := s.registry.TotalActiveValidators(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read validator aggregate")
	}
	if ExceedsMonopoly(operator.ValidatorCount, total, params.MonopolyThreshold) {
		s.emit(ctx, audit.EventMonopolyFlag, report.OperatorID, caller, "validator share over threshold")
		return nil, s.reject(ctx, report.PoolID, caller, reasonMonopoly,
			dErrors.Newf(dErrors.CodeExceedsMax, "operator %s validator share exceeds monopoly threshold", report.OperatorID))
	}

	now := requestcontext.Now(ctx)
	periodIndex := params.PeriodIndex(now)

	last, err := s.prices.Get(ctx, report.PoolID)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		// First report seeds the price; there is no prior point to bound
		// against.
		last = nil
	case err != nil:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read price point")
	default:
		if last.PeriodIndex >= periodIndex {
			return nil, s.reject(ctx, report.PoolID, caller, reasonStale,
				dErrors.Newf(dErrors.CodeStaleReport, "pool %s already has a report for this period", report.PoolID))
		}
		if err := s.checkBounds(report.Price, last, pool, params, now, periodIndex); err != nil {
			return nil, s.reject(ctx, report.PoolID, caller, reasonPriceBound, err)
		}
		if err := s.mintYieldFee(ctx, report.PoolID, pool.EffectiveFee(), last.Price, report.Price); err != nil {
			return nil, err
		}
	}

	point := &models.PricePoint{
		PoolID:      report.PoolID,
		Price:       report.Price,
		PeriodIndex: periodIndex,
		UpdatedAt:   now,
	}
	if err := s.prices.Set(ctx, point); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store price point")
	}
	s.cachePrice(ctx, report.PoolID, report.Price)

	if s.metrics != nil {
		s.metrics.RecordAccepted(report.PoolID.String(), report.Price.MustFloat64())
	}
	s.emit(ctx, audit.EventPriceAccepted, report.PoolID, caller, report.Price.String())
	return point, nil
}

// checkBounds enforces the per-period price band. The band widens with the
// number of elapsed periods and switches to the bootstrap limits while the
// pool is inside its bootstrap window.
func (s *Service) checkBounds(price math.LegacyDec, last *models.PricePoint, pool *regmodels.Entity, params *models.OracleParams, now time.Time, periodIndex int64) error {
	increase, decrease := params.PeriodPriceIncreaseLimit, params.PeriodPriceDecreaseLimit
	if pool.InBootstrap(now, s.cfg.BootstrapPeriod) {
		increase, decrease = params.BootstrapPriceIncreaseLimit, params.BootstrapPriceDecreaseLimit
	}

	periods := math.LegacyNewDec(periodIndex - last.PeriodIndex)
	ceiling := last.Price.Mul(math.LegacyOneDec().Add(increase.Mul(periods)))
	floor := last.Price.Mul(math.LegacyOneDec().Sub(decrease.Mul(periods)))
	if floor.IsNegative() {
		floor = math.LegacyZeroDec()
	}

	if price.GT(ceiling) || price.LT(floor) {
		return dErrors.Newf(dErrors.CodePriceBound, "price %s outside allowed band [%s, %s]", price, floor, ceiling)
	}
	return nil
}

// mintYieldFee mints the protocol's share of a price increase against the
// pool's receipt supply: (governance fee + maintainer fee) applied to the
// yield fraction of the supply.
func (s *Service) mintYieldFee(ctx context.Context, poolID domain.ID, maintainerFee, lastPrice, price math.LegacyDec) error {
	if !price.GT(lastPrice) {
		return nil
	}
	governanceFee, err := s.governance.GovernanceFee(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve governance fee")
	}
	feeFraction := governanceFee.Add(maintainerFee)
	if !feeFraction.IsPositive() {
		return nil
	}

	supply, err := s.ledger.TotalSupply(ctx, poolID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read receipt supply")
	}
	if !supply.IsPositive() {
		return nil
	}

	yield := price.Sub(lastPrice).Quo(price)
	amount := math.LegacyNewDecFromInt(supply).Mul(yield).Mul(feeFraction).TruncateInt()
	if !amount.IsPositive() {
		return nil
	}
	if err := s.ledger.Mint(ctx, poolID, amount); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to mint yield fee")
	}
	return nil
}

// validateParams rejects a params set that could wedge the oracle: a missing
// position, a negative limit, a threshold outside [0, 1], or a zero period.
func validateParams(p *models.OracleParams) error {
	if p == nil {
		return dErrors.New(dErrors.CodeBadRequest, "params are required")
	}
	if p.OraclePosition.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "oracle position is required")
	}
	limits := map[string]math.LegacyDec{
		"period price increase limit":    p.PeriodPriceIncreaseLimit,
		"period price decrease limit":    p.PeriodPriceDecreaseLimit,
		"bootstrap price increase limit": p.BootstrapPriceIncreaseLimit,
		"bootstrap price decrease limit": p.BootstrapPriceDecreaseLimit,
	}
	for name, limit := range limits {
		if limit.IsNil() || limit.IsNegative() {
			return dErrors.Newf(dErrors.CodeInvalidInput, "%s must be a non-negative fraction", name)
		}
	}
	if p.MonopolyThreshold.IsNil() || p.MonopolyThreshold.IsNegative() || p.MonopolyThreshold.GT(math.LegacyOneDec()) {
		return dErrors.New(dErrors.CodeInvalidInput, "monopoly threshold must be within [0, 1]")
	}
	if p.PeriodSeconds <= 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "period seconds must be positive")
	}
	return nil
}

// ExceedsMonopoly reports whether an operator's share of all active
// validators is over the threshold. A zero aggregate never trips the check.
func ExceedsMonopoly(operatorValidators, totalValidators uint64, threshold math.LegacyDec) bool {
	if totalValidators == 0 || operatorValidators == 0 {
		return false
	}
	share := math.LegacyNewDecFromInt(math.NewIntFromUint64(operatorValidators)).
		Quo(math.LegacyNewDecFromInt(math.NewIntFromUint64(totalValidators)))
	return share.GT(threshold)
}

func (s *Service) reject(ctx context.Context, poolID domain.ID, caller domain.Address, reason string, err error) error {
	if s.metrics != nil {
		s.metrics.RecordRejected(reason)
	}
	s.emit(ctx, audit.EventPriceRejected, poolID, caller, reason)
	return err
}

func (s *Service) cachePrice(ctx context.Context, poolID domain.ID, price math.LegacyDec) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, poolID, price, s.cfg.OraclePeriod); err != nil {
		s.logger.WarnContext(ctx, "price cache write failed", "pool", poolID.String(), "error", err.Error())
	}
}

func (s *Service) emit(ctx context.Context, action audit.AuditEvent, id domain.ID, actor domain.Address, reason string) {
	if s.auditPublisher == nil {
		return
	}
	event := audit.Event{
		Actor:     actor,
		EntityID:  id.String(),
		Action:    string(action),
		Reason:    reason,
		Timestamp: requestcontext.Now(ctx),
		RequestID: requestcontext.RequestID(ctx),
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", action, "error", err.Error())
	}
}
