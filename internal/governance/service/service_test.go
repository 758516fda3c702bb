package service

import (
	"context"
	"testing"
	"time"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/suite"

	governanceStore "stakeport/internal/governance/store"
	proposalStore "stakeport/internal/proposal/store"
	registryService "stakeport/internal/registry/service"
	registryStore "stakeport/internal/registry/store"
	"stakeport/pkg/domain"
	dErrors "stakeport/pkg/domain-errors"
	"stakeport/pkg/requestcontext"
)

var (
	governance = domain.Address("0x1111111111111111111111111111111111111111")
	senateCtrl = domain.Address("0x2222222222222222222222222222222222222222")
	alice      = domain.Address("0x3333333333333333333333333333333333333333")
	bob        = domain.Address("0x4444444444444444444444444444444444444444")
	carol      = domain.Address("0x5555555555555555555555555555555555555555")
)

const (
	proposalTTL    = 7 * 24 * time.Hour
	electionPeriod = 365 * 24 * time.Hour
)

type GovernanceServiceSuite struct {
	suite.Suite
	registry  *registryService.Service
	proposals *proposalStore.InMemoryProposalStore
	params    *governanceStore.InMemoryParamsStore
	service   *Service
	now       time.Time
}

func TestGovernanceServiceSuite(t *testing.T) {
	suite.Run(t, new(GovernanceServiceSuite))
}

func (s *GovernanceServiceSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.service = s.newService(1)

	s.Require().NoError(s.service.Bootstrap(s.ctx(governance), governance, "senate", senateCtrl))
}

// newService builds a fresh service over in-memory stores with the given
// senate quorum.
func (s *GovernanceServiceSuite) newService(quorum int) *Service {
	entityStore := registryStore.NewInMemoryEntityStore()
	registry, err := registryService.New(entityStore)
	s.Require().NoError(err)
	s.registry = registry
	s.proposals = proposalStore.NewInMemoryProposalStore()
	s.params = governanceStore.NewInMemoryParamsStore()

	svc, err := New(registry, s.proposals, s.params, Config{
		ProposalTTL:      proposalTTL,
		ElectionPeriod:   electionPeriod,
		SenateQuorum:     quorum,
		MaxGovernanceFee: math.LegacyMustNewDecFromStr("0.05"),
	})
	s.Require().NoError(err)
	return svc
}

func (s *GovernanceServiceSuite) ctx(caller domain.Address) context.Context {
	ctx := requestcontext.WithTime(context.Background(), s.now)
	return requestcontext.WithCaller(ctx, caller)
}

// onboard pushes a new entity through the full proposal flow and initiates it.
func (s *GovernanceServiceSuite) onboard(name string, t domain.EntityType, controller domain.Address) domain.ID {
	p, err := s.service.SubmitProposal(s.ctx(governance), name, t, controller)
	s.Require().NoError(err)
	_, err = s.service.ApproveProposal(s.ctx(governance), p.ID)
	s.Require().NoError(err)
	s.Require().NoError(s.registry.MarkInitiated(s.ctx(controller), p.ID))
	return p.ID
}

func (s *GovernanceServiceSuite) TestBootstrap() {
	s.Run("seeds the singleton and the senate entity", func() {
		params, err := s.service.Params(s.ctx(governance))
		s.Require().NoError(err)
		s.Equal(governance, params.Governance)
		s.Equal(senateCtrl, params.Senate)
		s.Equal(s.now.Add(electionPeriod), params.SenateExpiry)

		senate, err := s.registry.Get(s.ctx(governance), params.SenateID)
		s.Require().NoError(err)
		s.Equal(domain.TypeSenate, senate.Type)
		s.Equal(senateCtrl, senate.Controller)
	})

	s.Run("is idempotent", func() {
		s.Require().NoError(s.service.SetGovernanceFee(s.ctx(governance), math.LegacyMustNewDecFromStr("0.01")))
		s.Require().NoError(s.service.Bootstrap(s.ctx(governance), alice, "senate", alice))

		params, err := s.service.Params(s.ctx(governance))
		s.Require().NoError(err)
		s.Equal(governance, params.Governance)
		s.True(params.GovernanceFee.Equal(math.LegacyMustNewDecFromStr("0.01")))
	})
}

func (s *GovernanceServiceSuite) TestSubmitProposal() {
	s.Run("rejects malformed input", func() {
		_, err := s.service.SubmitProposal(s.ctx(governance), "", domain.TypePool, alice)
		s.True(dErrors.Is(err, dErrors.CodeBadRequest))
		_, err = s.service.SubmitProposal(s.ctx(governance), "p", domain.EntityType(42), alice)
		s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
		_, err = s.service.SubmitProposal(s.ctx(governance), "p", domain.TypePool, "")
		s.True(dErrors.Is(err, dErrors.CodeBadRequest))
	})

	s.Run("only governance proposes new ids", func() {
		_, err := s.service.SubmitProposal(s.ctx(alice), "pool-x", domain.TypePool, alice)
		s.True(dErrors.Is(err, dErrors.CodeUnauthorized))

		p, err := s.service.SubmitProposal(s.ctx(governance), "pool-x", domain.TypePool, alice)
		s.Require().NoError(err)
		s.Equal(domain.GenerateID("pool-x", domain.TypePool), p.ID)
		s.Equal(s.now.Add(proposalTTL), p.Deadline)
	})

	s.Run("one live proposal per id", func() {
		_, err := s.service.SubmitProposal(s.ctx(governance), "pool-x", domain.TypePool, bob)
		s.True(dErrors.Is(err, dErrors.CodeConflict))
	})

	s.Run("only the controller proposes a controller change", func() {
		id := s.onboard("op-sub", domain.TypeOperator, alice)

		_, err := s.service.SubmitProposal(s.ctx(governance), "op-sub", domain.TypeOperator, bob)
		s.True(dErrors.Is(err, dErrors.CodeUnauthorized))

		p, err := s.service.SubmitProposal(s.ctx(alice), "op-sub", domain.TypeOperator, bob)
		s.Require().NoError(err)
		s.Equal(id, p.ID)
	})
}

func (s *GovernanceServiceSuite) TestApproveEntity() {
	s.Run("only governance approves", func() {
		p, err := s.service.SubmitProposal(s.ctx(governance), "pool-a", domain.TypePool, alice)
		s.Require().NoError(err)

		_, err = s.service.ApproveProposal(s.ctx(alice), p.ID)
		s.True(dErrors.Is(err, dErrors.CodeUnauthorized))

		outcome, err := s.service.ApproveProposal(s.ctx(governance), p.ID)
		s.Require().NoError(err)
		s.Equal(StatusApproved, outcome.Status)

		entity, err := s.registry.Get(s.ctx(governance), p.ID)
		s.Require().NoError(err)
		s.Equal(alice, entity.Controller)
	})

	s.Run("approval consumes the proposal", func() {
		id := domain.GenerateID("pool-a", domain.TypePool)
		_, err := s.service.ApproveProposal(s.ctx(governance), id)
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})

	s.Run("approved controller change replaces the controller", func() {
		id := s.onboard("op-c", domain.TypeOperator, alice)
		p, err := s.service.SubmitProposal(s.ctx(alice), "op-c", domain.TypeOperator, bob)
		s.Require().NoError(err)

		_, err = s.service.ApproveProposal(s.ctx(governance), p.ID)
		s.Require().NoError(err)

		entity, err := s.registry.Get(s.ctx(governance), id)
		s.Require().NoError(err)
		s.Equal(bob, entity.Controller)
	})
}

func (s *GovernanceServiceSuite) TestProposalExpiry() {
	p, err := s.service.SubmitProposal(s.ctx(governance), "pool-ttl", domain.TypePool, alice)
	s.Require().NoError(err)
	deadline := p.Deadline

	s.Run("live proposal cannot be swept early", func() {
		s.now = deadline
		err := s.service.RejectOrExpire(s.ctx(carol), p.ID)
		s.True(dErrors.Is(err, dErrors.CodeConflict))
	})

	s.Run("approval exactly at the deadline still lands", func() {
		s.now = deadline
		outcome, err := s.service.ApproveProposal(s.ctx(governance), p.ID)
		s.Require().NoError(err)
		s.Equal(StatusApproved, outcome.Status)
	})

	s.Run("approval one second past the deadline expires the proposal", func() {
		p2, err := s.service.SubmitProposal(s.ctx(governance), "pool-ttl2", domain.TypePool, alice)
		s.Require().NoError(err)

		s.now = p2.Deadline.Add(time.Second)
		_, err = s.service.ApproveProposal(s.ctx(governance), p2.ID)
		s.True(dErrors.Is(err, dErrors.CodeExpired))

		// the failed attempt consumed it
		_, err = s.service.Proposal(s.ctx(governance), p2.ID)
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})

	s.Run("anyone sweeps an expired proposal", func() {
		p3, err := s.service.SubmitProposal(s.ctx(governance), "pool-ttl3", domain.TypePool, alice)
		s.Require().NoError(err)

		s.now = p3.Deadline.Add(time.Second)
		s.Require().NoError(s.service.RejectOrExpire(s.ctx(carol), p3.ID))
		_, err = s.service.Proposal(s.ctx(governance), p3.ID)
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})
}

func (s *GovernanceServiceSuite) TestSenateElection() {
	s.Run("only the senate controller elects at quorum one", func() {
		// the senate id already exists, so only its controller may propose
		// replacing it
		p, err := s.service.SubmitProposal(s.ctx(senateCtrl), "senate", domain.TypeSenate, alice)
		s.Require().NoError(err)

		_, err = s.service.ApproveProposal(s.ctx(governance), p.ID)
		s.True(dErrors.Is(err, dErrors.CodeUnauthorized))

		s.now = s.now.Add(time.Hour)
		outcome, err := s.service.ApproveProposal(s.ctx(senateCtrl), p.ID)
		s.Require().NoError(err)
		s.Equal(StatusApproved, outcome.Status)

		params, err := s.service.Params(s.ctx(governance))
		s.Require().NoError(err)
		s.Equal(alice, params.Senate)
		s.Equal(s.now.Add(electionPeriod), params.SenateExpiry)
		s.Equal(s.now, params.LastElection)

		senate, err := s.registry.Get(s.ctx(governance), params.SenateID)
		s.Require().NoError(err)
		s.Equal(alice, senate.Controller)
	})

	s.Run("one election per cycle", func() {
		// proposal created before the election above cannot renew again
		stale, err := s.service.SubmitProposal(s.ctx(governance), "senate-two", domain.TypeSenate, bob)
		s.Require().NoError(err)
		stale.CreatedAt = stale.CreatedAt.Add(-2 * time.Hour)
		s.Require().NoError(s.proposals.Update(s.ctx(governance), stale))

		_, err = s.service.ApproveProposal(s.ctx(alice), stale.ID)
		s.True(dErrors.Is(err, dErrors.CodeConflict))
	})
}

func (s *GovernanceServiceSuite) TestSenateQuorum() {
	s.service = s.newService(3)
	s.Require().NoError(s.service.Bootstrap(s.ctx(governance), governance, "senate", senateCtrl))

	s.onboard("op-alice", domain.TypeOperator, alice)
	s.onboard("pool-bob", domain.TypePool, bob)

	p, err := s.service.SubmitProposal(s.ctx(senateCtrl), "senate", domain.TypeSenate, carol)
	s.Require().NoError(err)

	s.Run("non-electors may not vote", func() {
		_, err := s.service.ApproveProposal(s.ctx(carol), p.ID)
		s.True(dErrors.Is(err, dErrors.CodeUnauthorized))
	})

	s.Run("elector votes accumulate once each", func() {
		outcome, err := s.service.ApproveProposal(s.ctx(alice), p.ID)
		s.Require().NoError(err)
		s.Equal(StatusVoteRecorded, outcome.Status)
		s.Equal(1, outcome.Votes)

		_, err = s.service.ApproveProposal(s.ctx(alice), p.ID)
		s.True(dErrors.Is(err, dErrors.CodeConflict))

		outcome, err = s.service.ApproveProposal(s.ctx(bob), p.ID)
		s.Require().NoError(err)
		s.Equal(StatusVoteRecorded, outcome.Status)
		s.Equal(2, outcome.Votes)
	})

	s.Run("the senate controller's vote completes the quorum", func() {
		outcome, err := s.service.ApproveProposal(s.ctx(senateCtrl), p.ID)
		s.Require().NoError(err)
		s.Equal(StatusApproved, outcome.Status)
		s.Equal(3, outcome.Votes)

		params, err := s.service.Params(s.ctx(governance))
		s.Require().NoError(err)
		s.Equal(carol, params.Senate)
	})
}

func (s *GovernanceServiceSuite) TestSenateVacancy() {
	s.onboard("op-v", domain.TypeOperator, alice)

	s.Run("a lapsed senate blocks entity approvals", func() {
		p, err := s.service.SubmitProposal(s.ctx(alice), "op-v", domain.TypeOperator, bob)
		s.Require().NoError(err)

		s.now = s.now.Add(electionPeriod).Add(time.Second)
		// the original proposal hit its own TTL long before the senate
		// lapsed; sweep it and resubmit at the later clock
		s.Require().NoError(s.service.RejectOrExpire(s.ctx(governance), p.ID))
		_, err = s.service.SubmitProposal(s.ctx(bob), "op-v", domain.TypeOperator, carol)
		s.True(dErrors.Is(err, dErrors.CodeUnauthorized)) // bob is not the controller

		p, err = s.service.SubmitProposal(s.ctx(alice), "op-v", domain.TypeOperator, bob)
		s.Require().NoError(err)

		_, err = s.service.ApproveProposal(s.ctx(governance), p.ID)
		s.True(dErrors.Is(err, dErrors.CodeSenateExpired))
	})

	s.Run("re-election restores approvals", func() {
		p, err := s.service.SubmitProposal(s.ctx(senateCtrl), "senate", domain.TypeSenate, senateCtrl)
		s.Require().NoError(err)
		outcome, err := s.service.ApproveProposal(s.ctx(senateCtrl), p.ID)
		s.Require().NoError(err)
		s.Equal(StatusApproved, outcome.Status)

		entityProposal, err := s.service.Proposal(s.ctx(governance), domain.GenerateID("op-v", domain.TypeOperator))
		s.Require().NoError(err)
		_, err = s.service.ApproveProposal(s.ctx(governance), entityProposal.ID)
		s.Require().NoError(err)
	})
}

func (s *GovernanceServiceSuite) TestSetGovernanceFee() {
	s.Run("non-governance is rejected", func() {
		err := s.service.SetGovernanceFee(s.ctx(alice), math.LegacyMustNewDecFromStr("0.01"))
		s.True(dErrors.Is(err, dErrors.CodeUnauthorized))
	})

	s.Run("negative fee is rejected", func() {
		err := s.service.SetGovernanceFee(s.ctx(governance), math.LegacyMustNewDecFromStr("-0.01"))
		s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
	})

	s.Run("fee above the maximum is rejected", func() {
		err := s.service.SetGovernanceFee(s.ctx(governance), math.LegacyMustNewDecFromStr("0.06"))
		s.True(dErrors.Is(err, dErrors.CodeExceedsMax))
	})

	s.Run("fee at the maximum is stored", func() {
		s.Require().NoError(s.service.SetGovernanceFee(s.ctx(governance), math.LegacyMustNewDecFromStr("0.05")))
		params, err := s.service.Params(s.ctx(governance))
		s.Require().NoError(err)
		s.True(params.GovernanceFee.Equal(math.LegacyMustNewDecFromStr("0.05")))
	})
}
