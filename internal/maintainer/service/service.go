// Package service implements the maintainer and fee manager: delayed fee
// switching and the validator activation path that feeds the oracle's
// monopoly aggregate.
package service

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"cosmossdk.io/math"

	"stakeport/internal/external"
	"stakeport/internal/maintainer/ports"
	"stakeport/pkg/domain"
	dErrors "stakeport/pkg/domain-errors"
	"stakeport/pkg/platform/audit"
	"stakeport/pkg/requestcontext"
)

// Config carries the fee policy constants.
type Config struct {
	MaxMaintainerFee math.LegacyDec
	FeeSwitchDelay   time.Duration
}

type Service struct {
	registry       ports.Registry
	ledger         external.TokenLedger
	hasher         external.DepositDataHasher
	cfg            Config
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

func New(registry ports.Registry, ledger external.TokenLedger, hasher external.DepositDataHasher, cfg Config, opts ...Option) (*Service, error) {
	if registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("token ledger is required")
	}
	if hasher == nil {
		return nil, fmt.Errorf("deposit data hasher is required")
	}
	if cfg.FeeSwitchDelay <= 0 {
		return nil, fmt.Errorf("fee switch delay must be positive")
	}

	svc := &Service{
		registry: registry,
		ledger:   ledger,
		hasher:   hasher,
		cfg:      cfg,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc, nil
}

// SwitchFee queues a fee change that takes effect after the mandatory delay.
// The delay keeps maintainers from front-running fee hikes against active
// depositors: the active fee is untouched until activation.
func (s *Service) SwitchFee(ctx context.Context, id domain.ID, fee math.LegacyDec) error {
	entity, err := s.registry.Get(ctx, id)
	if err != nil {
		return err
	}
	caller := requestcontext.Caller(ctx)
	if caller != entity.Controller {
		return dErrors.Newf(dErrors.CodeUnauthorized, "caller is not the controller of %s", id)
	}
	if fee.IsNil() || fee.IsNegative() {
		return dErrors.New(dErrors.CodeInvalidInput, "fee must be a non-negative fraction")
	}
	if fee.GT(s.cfg.MaxMaintainerFee) {
		return dErrors.Newf(dErrors.CodeExceedsMax, "fee %s exceeds maximum %s", fee, s.cfg.MaxMaintainerFee)
	}

	effectiveAt := requestcontext.Now(ctx).Add(s.cfg.FeeSwitchDelay)
	if err := s.registry.QueueFeeSwitch(ctx, id, fee, effectiveAt); err != nil {
		return err
	}
	s.emit(ctx, audit.EventFeeSwitchQueued, id, caller, fee.String())
	return nil
}

// ActivatePendingFee commits a due fee switch. Callable by anyone; a missing
// or not-yet-due switch is a no-op, not an error.
func (s *Service) ActivatePendingFee(ctx context.Context, id domain.ID) (bool, error) {
	activated, err := s.registry.ActivateFeeSwitch(ctx, id)
	if err != nil {
		return false, err
	}
	if activated {
		s.emit(ctx, audit.EventFeeSwitchActive, id, requestcontext.Caller(ctx), "")
	}
	return activated, nil
}

// EffectiveFee returns the currently active fee; a pending switch is never
// visible here.
func (s *Service) EffectiveFee(ctx context.Context, id domain.ID) (math.LegacyDec, error) {
	entity, err := s.registry.Get(ctx, id)
	if err != nil {
		return math.LegacyDec{}, err
	}
	return entity.EffectiveFee(), nil
}

// ValidatorActivation is the input for onboarding one validator.
type ValidatorActivation struct {
	OperatorID            domain.ID
	PoolID                domain.ID
	Pubkey                []byte
	WithdrawalCredentials []byte
	Signature             []byte
	AmountGwei            uint64
}

// ActivateValidator onboards a validator for an operator into a pool: hashes
// the deposit data through the external hasher, mints receipt supply against
// the pool, and bumps the operator's validator count.
func (s *Service) ActivateValidator(ctx context.Context, act ValidatorActivation) ([32]byte, error) {
	var root [32]byte

	operator, err := s.registry.Get(ctx, act.OperatorID)
	if err != nil {
		return root, err
	}
	if operator.Type != domain.TypeOperator {
		return root, dErrors.Newf(dErrors.CodeInvalidInput, "entity %s is not an operator", act.OperatorID)
	}
	caller := requestcontext.Caller(ctx)
	if caller != operator.Controller && caller != operator.Maintainer {
		return root, dErrors.Newf(dErrors.CodeUnauthorized, "caller may not activate validators for %s", act.OperatorID)
	}

	pool, err := s.registry.Get(ctx, act.PoolID)
	if err != nil {
		return root, err
	}
	if pool.Type != domain.TypePool {
		return root, dErrors.Newf(dErrors.CodeInvalidInput, "entity %s is not a pool", act.PoolID)
	}
	if !pool.Initiated {
		return root, dErrors.Newf(dErrors.CodeInvalidInput, "pool %s is not initiated", act.PoolID)
	}
	if act.AmountGwei == 0 {
		return root, dErrors.New(dErrors.CodeBadRequest, "deposit amount is required")
	}

	root, err = s.hasher.ComputeDepositDataRoot(act.Pubkey, act.WithdrawalCredentials, act.Signature, act.AmountGwei)
	if err != nil {
		return root, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid deposit data")
	}

	if err := s.ledger.Mint(ctx, act.PoolID, math.NewIntFromUint64(act.AmountGwei)); err != nil {
		return root, dErrors.Wrap(err, dErrors.CodeInternal, "failed to mint receipt supply")
	}
	if err := s.registry.AddValidator(ctx, act.OperatorID); err != nil {
		return root, err
	}

	s.emit(ctx, audit.EventValidatorActivated, act.OperatorID, caller, hex.EncodeToString(root[:]))
	return root, nil
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
