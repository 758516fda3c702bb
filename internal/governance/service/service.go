// Package service implements the governance state machine: proposal lifecycle,
// senate elections with expiry, and governance-gated parameter updates.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cosmossdk.io/math"

	"stakeport/internal/governance/metrics"
	governanceModels "stakeport/internal/governance/models"
	"stakeport/internal/governance/ports"
	proposalModels "stakeport/internal/proposal/models"
	"stakeport/pkg/domain"
	dErrors "stakeport/pkg/domain-errors"
	"stakeport/pkg/platform/audit"
	"stakeport/pkg/platform/sentinel"
	"stakeport/pkg/requestcontext"
)

// Config carries the protocol constants the state machine needs.
type Config struct {
	ProposalTTL      time.Duration
	ElectionPeriod   time.Duration
	SenateQuorum     int
	MaxGovernanceFee math.LegacyDec
}

type Service struct {
	registry       ports.Registry
	proposals      ports.ProposalStore
	params         ports.ParamsStore
	cfg            Config
	auditPublisher ports.AuditPublisher
	metrics        *metrics.Metrics
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

func New(registry ports.Registry, proposals ports.ProposalStore, params ports.ParamsStore, cfg Config, opts ...Option) (*Service, error) {
	if registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if proposals == nil {
		return nil, fmt.Errorf("proposal store is required")
	}
	if params == nil {
		return nil, fmt.Errorf("params store is required")
	}
	if cfg.ProposalTTL <= 0 || cfg.ElectionPeriod <= 0 {
		return nil, fmt.Errorf("proposal TTL and election period must be positive")
	}

	svc := &Service{
		registry:  registry,
		proposals: proposals,
		params:    params,
		cfg:       cfg,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc, nil
}

// Bootstrap seeds the governance singleton and the initial senate entity.
// No-op when the singleton already exists, so restarts are safe.
func (s *Service) Bootstrap(ctx context.Context, governance domain.Address, senateName string, senateController domain.Address) error {
	if _, err := s.params.Get(ctx); err == nil {
		return nil
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load governance params")
	}

	senate, err := s.registry.Register(ctx, senateName, domain.TypeSenate, senateController, senateController)
	if err != nil && !dErrors.Is(err, dErrors.CodeConflict) {
		return err
	}
	senateID := domain.GenerateID(senateName, domain.TypeSenate)
	if senate != nil {
		senateID = senate.ID
	}

	now := requestcontext.Now(ctx)
	params := &governanceModels.GovernanceParams{
		Governance:    governance,
		Senate:        senateController,
		SenateID:      senateID,
		GovernanceFee: math.LegacyZeroDec(),
		SenateExpiry:  now.Add(s.cfg.ElectionPeriod),
		LastElection:  now,
		SenateQuorum:  s.cfg.SenateQuorum,
	}
	if err := s.params.Set(ctx, params); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store governance params")
	}
	return nil
}

// Params returns the governance singleton.
func (s *Service) Params(ctx context.Context) (*governanceModels.GovernanceParams, error) {
	params, err := s.params.Get(ctx)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "governance not bootstrapped")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load governance params")
	}
	return params, nil
}

// GovernanceAddress returns the current governance role holder.
func (s *Service) GovernanceAddress(ctx context.Context) (domain.Address, error) {
	params, err := s.Params(ctx)
	if err != nil {
		return "", err
	}
	return params.Governance, nil
}

// GovernanceFee returns the current protocol-level fee fraction.
func (s *Service) GovernanceFee(ctx context.Context) (math.LegacyDec, error) {
	params, err := s.Params(ctx)
	if err != nil {
		return math.LegacyDec{}, err
	}
	return params.GovernanceFee, nil
}

// Proposal returns the live proposal for id.
func (s *Service) Proposal(ctx context.Context, id domain.ID) (*proposalModels.Proposal, error) {
	p, err := s.proposals.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "no live proposal for %s", id)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load proposal")
	}
	return p, nil
}

// SubmitProposal records a new proposal. For an id that is already registered
// this proposes a controller change and only the current controller may
// submit it; for a brand-new id only governance may.
func (s *Service) SubmitProposal(ctx context.Context, name string, t domain.EntityType, proposedController domain.Address) (*proposalModels.Proposal, error) {
	if !t.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "invalid entity type %d", t)
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "proposal name is required")
	}
	if proposedController.IsZero() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "proposed controller is required")
	}

	params, err := s.Params(ctx)
	if err != nil {
		return nil, err
	}
	caller := requestcontext.Caller(ctx)
	id := domain.GenerateID(name, t)

	existing, err := s.registry.Get(ctx, id)
	switch {
	case err == nil:
		if authz := CanSubmitControllerChange(existing.Controller, caller); !authz.Allowed {
			return nil, authz.Err()
		}
	case dErrors.Is(err, dErrors.CodeNotFound):
		if authz := CanSubmitNewEntity(params, caller); !authz.Allowed {
			return nil, authz.Err()
		}
	default:
		return nil, err
	}

	now := requestcontext.Now(ctx)
	p := &proposalModels.Proposal{
		ID:         id,
		Type:       t,
		Name:       name,
		Controller: proposedController,
		CreatedAt:  now,
		Deadline:   now.Add(s.cfg.ProposalTTL),
	}
	if err := s.proposals.Create(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Newf(dErrors.CodeConflict, "a live proposal already exists for %s", id)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create proposal")
	}

	if s.metrics != nil {
		s.metrics.IncrementProposalsCreated()
	}
	s.emit(ctx, audit.EventProposalCreated, id, caller, t.String())
	return p, nil
}

// ApprovalStatus describes the outcome of an approval call.
type ApprovalStatus string

const (
	// StatusApproved: the proposal was applied and consumed.
	StatusApproved ApprovalStatus = "approved"
	// StatusVoteRecorded: a senate election vote was counted but the quorum
	// is not yet reached; the proposal stays live.
	StatusVoteRecorded ApprovalStatus = "vote_recorded"
)

// ApprovalOutcome reports what an ApproveProposal call did.
type ApprovalOutcome struct {
	Status ApprovalStatus `json:"status"`
	Votes  int            `json:"votes,omitempty"`
}

// ApproveProposal advances a pending proposal. Expired proposals transition to
// Expired as a side effect of the failed attempt so they cannot be replayed.
func (s *Service) ApproveProposal(ctx context.Context, id domain.ID) (*ApprovalOutcome, error) {
	p, err := s.Proposal(ctx, id)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	if p.IsExpired(now) {
		if err := s.expire(ctx, p); err != nil {
			return nil, err
		}
		return nil, dErrors.Newf(dErrors.CodeExpired, "proposal %s expired at %s", id, p.Deadline.UTC().Format(time.RFC3339))
	}

	params, err := s.Params(ctx)
	if err != nil {
		return nil, err
	}

	if p.Type == domain.TypeSenate {
		return s.approveSenate(ctx, p, params, now)
	}
	return s.approveEntity(ctx, p, params, now)
}

func (s *Service) approveEntity(ctx context.Context, p *proposalModels.Proposal, params *governanceModels.GovernanceParams, now time.Time) (*ApprovalOutcome, error) {
	caller := requestcontext.Caller(ctx)
	if authz := CanApproveEntity(params, caller, now); !authz.Allowed {
		s.emit(ctx, audit.EventApprovalRejected, p.ID, caller, authz.Reason)
		return nil, authz.Err()
	}

	if err := s.apply(ctx, p); err != nil {
		return nil, err
	}
	if err := s.proposals.Consume(ctx, p.ID); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to consume proposal")
	}

	if s.metrics != nil {
		s.metrics.IncrementProposalsApproved()
	}
	s.emit(ctx, audit.EventProposalApproved, p.ID, caller, p.Type.String())
	return &ApprovalOutcome{Status: StatusApproved}, nil
}

func (s *Service) approveSenate(ctx context.Context, p *proposalModels.Proposal, params *governanceModels.GovernanceParams, now time.Time) (*ApprovalOutcome, error) {
	// One election per cycle: a proposal created before the latest election
	// cannot renew the senate again.
	if params.LastElection.After(p.CreatedAt) {
		return nil, dErrors.New(dErrors.CodeConflict, "senate already renewed this cycle")
	}

	senateController := params.Senate
	if senateEntity, err := s.registry.Get(ctx, params.SenateID); err == nil {
		senateController = senateEntity.Controller
	}

	electors, err := s.electorControllers(ctx)
	if err != nil {
		return nil, err
	}

	caller := requestcontext.Caller(ctx)
	if authz := CanVoteSenate(senateController, electors, caller); !authz.Allowed {
		s.emit(ctx, audit.EventApprovalRejected, p.ID, caller, authz.Reason)
		return nil, authz.Err()
	}
	if p.HasVote(caller) {
		return nil, dErrors.New(dErrors.CodeConflict, "elector already voted on this proposal")
	}

	p.Votes = append(p.Votes, caller)
	if err := s.proposals.Update(ctx, p); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record vote")
	}
	s.emit(ctx, audit.EventSenateVoteCast, p.ID, caller, "")

	if !QuorumReached(p.Votes, senateController, params.SenateQuorum) {
		return &ApprovalOutcome{Status: StatusVoteRecorded, Votes: len(p.Votes)}, nil
	}

	if err := s.apply(ctx, p); err != nil {
		return nil, err
	}

	params.Senate = p.Controller
	params.SenateID = p.ID
	params.SenateExpiry = now.Add(s.cfg.ElectionPeriod)
	params.LastElection = now
	if err := s.params.Set(ctx, params); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store election result")
	}
	if err := s.proposals.Consume(ctx, p.ID); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to consume proposal")
	}

	if s.metrics != nil {
		s.metrics.IncrementProposalsApproved()
		s.metrics.RecordSenateElection(params.SenateExpiry.Unix())
	}
	s.emit(ctx, audit.EventSenateElected, p.ID, caller, p.Controller.String())
	return &ApprovalOutcome{Status: StatusApproved, Votes: len(p.Votes)}, nil
}

// apply materializes an approved proposal through the registry: a controller
// change for a known id, a fresh registration otherwise.
func (s *Service) apply(ctx context.Context, p *proposalModels.Proposal) error {
	_, err := s.registry.Get(ctx, p.ID)
	switch {
	case err == nil:
		return s.registry.ReplaceController(ctx, p.ID, p.Controller)
	case dErrors.Is(err, dErrors.CodeNotFound):
		_, err := s.registry.Register(ctx, p.Name, p.Type, p.Controller, p.Controller)
		return err
	default:
		return err
	}
}

// RejectOrExpire sweeps a proposal whose deadline passed. Callable by anyone;
// calling it on a still-live proposal is an error, not an expiry.
func (s *Service) RejectOrExpire(ctx context.Context, id domain.ID) error {
	p, err := s.Proposal(ctx, id)
	if err != nil {
		return err
	}
	now := requestcontext.Now(ctx)
	if !p.IsExpired(now) {
		return dErrors.Newf(dErrors.CodeConflict, "proposal %s has not reached its deadline", id)
	}
	return s.expire(ctx, p)
}

func (s *Service) expire(ctx context.Context, p *proposalModels.Proposal) error {
	if err := s.proposals.Consume(ctx, p.ID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to expire proposal")
	}
	if s.metrics != nil {
		s.metrics.IncrementProposalsExpired()
	}
	s.emit(ctx, audit.EventProposalExpired, p.ID, requestcontext.Caller(ctx), "")
	return nil
}

// SetGovernanceFee updates the protocol cut of reported yield.
func (s *Service) SetGovernanceFee(ctx context.Context, fee math.LegacyDec) error {
	params, err := s.Params(ctx)
	if err != nil {
		return err
	}
	caller := requestcontext.Caller(ctx)
	if authz := CanSetGovernanceFee(params, caller); !authz.Allowed {
		return authz.Err()
	}
	if fee.IsNil() || fee.IsNegative() {
		return dErrors.New(dErrors.CodeInvalidInput, "fee must be a non-negative fraction")
	}
	if fee.GT(s.cfg.MaxGovernanceFee) {
		return dErrors.Newf(dErrors.CodeExceedsMax, "fee %s exceeds maximum %s", fee, s.cfg.MaxGovernanceFee)
	}

	params.GovernanceFee = fee
	if err := s.params.Set(ctx, params); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store governance fee")
	}
	s.emit(ctx, audit.EventGovernanceFeeSet, params.SenateID, caller, fee.String())
	return nil
}

// electorControllers collects the controllers of initiated entities; they are
// the eligible voters for multi-party senate elections.
func (s *Service) electorControllers(ctx context.Context) (map[domain.Address]bool, error) {
	electors := make(map[domain.Address]bool)
	for _, t := range []domain.EntityType{domain.TypeOperator, domain.TypePool, domain.TypeSubPool} {
		entities, err := s.registry.ListByType(ctx, t)
		if err != nil {
			return nil, err
		}
		for _, e := range entities {
			if e.Initiated {
				electors[e.Controller] = true
			}
		}
	}
	return electors, nil
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
