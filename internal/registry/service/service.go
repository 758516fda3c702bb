// Package service implements the identity registry: typed id issuance and the
// per-entity records (controller, maintainer, fee state, validator counts)
// every other component reads through.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cosmossdk.io/math"

	"stakeport/internal/registry/models"
	"stakeport/internal/registry/ports"
	"stakeport/pkg/domain"
	dErrors "stakeport/pkg/domain-errors"
	"stakeport/pkg/platform/audit"
	"stakeport/pkg/platform/sentinel"
	"stakeport/pkg/requestcontext"
)

type Service struct {
	store          ports.EntityStore
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

func New(store ports.EntityStore, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("entity store is required")
	}

	svc := &Service{store: store}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc, nil
}

// Register creates a new entity record with initiated=false. It is reached
// through approved onboarding proposals (and bootstrap wiring), never from an
// unauthenticated route; uniqueness and type validity are enforced here.
func (s *Service) Register(ctx context.Context, name string, t domain.EntityType, controller, maintainer domain.Address) (*models.Entity, error) {
	if !t.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "invalid entity type %d", t)
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "entity name is required")
	}
	if controller.IsZero() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "controller address is required")
	}
	if maintainer.IsZero() {
		maintainer = controller
	}

	entity := &models.Entity{
		ID:         domain.GenerateID(name, t),
		Type:       t,
		Name:       name,
		Controller: controller,
		Maintainer: maintainer,
		Fee:        math.LegacyZeroDec(),
		CreatedAt:  requestcontext.Now(ctx),
	}

	if err := s.store.Create(ctx, entity); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Newf(dErrors.CodeConflict, "entity %s already registered", entity.ID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register entity")
	}

	s.emit(ctx, audit.EventEntityRegistered, entity.ID, controller, t.String())
	return entity, nil
}

// Get returns the entity record for id.
func (s *Service) Get(ctx context.Context, id domain.ID) (*models.Entity, error) {
	entity, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "entity %s not found", id)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load entity")
	}
	return entity, nil
}

// ListByType returns all entities of the given type.
func (s *Service) ListByType(ctx context.Context, t domain.EntityType) ([]*models.Entity, error) {
	entities, err := s.store.ListByType(ctx, t)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list entities")
	}
	return entities, nil
}

// SetController transfers control of an id. Only the current controller may
// call this directly; governance applies approved controller proposals through
// ReplaceController.
func (s *Service) SetController(ctx context.Context, id domain.ID, newController domain.Address) error {
	entity, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	caller := requestcontext.Caller(ctx)
	if caller != entity.Controller {
		return dErrors.Newf(dErrors.CodeUnauthorized, "caller is not the controller of %s", id)
	}
	return s.replaceController(ctx, entity, newController, caller)
}

// ReplaceController applies a controller change on behalf of an approved
// proposal. Callers must be the governance state machine; this is a component
// boundary contract, not an ambient permission.
func (s *Service) ReplaceController(ctx context.Context, id domain.ID, newController domain.Address) error {
	entity, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.replaceController(ctx, entity, newController, requestcontext.Caller(ctx))
}

func (s *Service) replaceController(ctx context.Context, entity *models.Entity, newController domain.Address, actor domain.Address) error {
	if newController.IsZero() {
		return dErrors.New(dErrors.CodeBadRequest, "new controller address is required")
	}
	entity.Controller = newController
	if err := s.store.Update(ctx, entity); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update controller")
	}
	s.emit(ctx, audit.EventControllerChanged, entity.ID, actor, newController.String())
	return nil
}

// SetMaintainer reassigns the delegated operational role. Controller only.
func (s *Service) SetMaintainer(ctx context.Context, id domain.ID, newMaintainer domain.Address) error {
	entity, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	caller := requestcontext.Caller(ctx)
	if caller != entity.Controller {
		return dErrors.Newf(dErrors.CodeUnauthorized, "caller is not the controller of %s", id)
	}
	if newMaintainer.IsZero() {
		return dErrors.New(dErrors.CodeBadRequest, "new maintainer address is required")
	}

	entity.Maintainer = newMaintainer
	if err := s.store.Update(ctx, entity); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update maintainer")
	}
	s.emit(ctx, audit.EventMaintainerChanged, id, caller, newMaintainer.String())
	return nil
}

// MarkInitiated records that onboarding completed. Idempotent: repeated calls
// keep the original initiation timestamp. Controller or maintainer may call.
func (s *Service) MarkInitiated(ctx context.Context, id domain.ID) error {
	entity, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	caller := requestcontext.Caller(ctx)
	if caller != entity.Controller && caller != entity.Maintainer {
		return dErrors.Newf(dErrors.CodeUnauthorized, "caller may not initiate %s", id)
	}
	if entity.Initiated {
		return nil
	}

	entity.Initiated = true
	entity.InitiatedAt = requestcontext.Now(ctx)
	if err := s.store.Update(ctx, entity); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark initiated")
	}
	s.emit(ctx, audit.EventEntityInitiated, id, caller, "")
	return nil
}

// QueueFeeSwitch records a pending fee change. The invariant that a pending
// switch cannot be altered before its effective time is enforced here; the fee
// bound and delay policy belong to the maintainer component.
func (s *Service) QueueFeeSwitch(ctx context.Context, id domain.ID, fee math.LegacyDec, effectiveAt time.Time) error {
	entity, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	now := requestcontext.Now(ctx)
	if entity.PendingFee != nil && now.Before(entity.PendingFee.EffectiveAt) {
		return dErrors.Newf(dErrors.CodeConflict, "fee switch already pending for %s", id)
	}

	entity.PendingFee = &models.PendingFeeSwitch{Fee: fee, EffectiveAt: effectiveAt}
	if err := s.store.Update(ctx, entity); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to queue fee switch")
	}
	return nil
}

// ActivateFeeSwitch commits a due pending fee. Returns false when nothing was
// pending or the delay has not elapsed; that is a no-op, not an error.
func (s *Service) ActivateFeeSwitch(ctx context.Context, id domain.ID) (bool, error) {
	entity, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	now := requestcontext.Now(ctx)
	if entity.PendingFee == nil || now.Before(entity.PendingFee.EffectiveAt) {
		return false, nil
	}

	entity.Fee = entity.PendingFee.Fee
	entity.PendingFee = nil
	if err := s.store.Update(ctx, entity); err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to activate fee switch")
	}
	return true, nil
}

// AddValidator increments an operator's active validator count. Reached from
// the maintainer component's validator activation path.
func (s *Service) AddValidator(ctx context.Context, operatorID domain.ID) error {
	entity, err := s.Get(ctx, operatorID)
	if err != nil {
		return err
	}
	if entity.Type != domain.TypeOperator {
		return dErrors.Newf(dErrors.CodeInvalidInput, "entity %s is not an operator", operatorID)
	}

	entity.ValidatorCount++
	if err := s.store.Update(ctx, entity); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record validator")
	}
	return nil
}

// TotalActiveValidators returns the monopoly aggregate denominator.
func (s *Service) TotalActiveValidators(ctx context.Context) (uint64, error) {
	total, err := s.store.TotalActiveValidators(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sum validators")
	}
	return total, nil
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
