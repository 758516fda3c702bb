package service

import (
	"context"
	"testing"
	"time"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/suite"

	"stakeport/internal/external/fake"
	registryService "stakeport/internal/registry/service"
	registryStore "stakeport/internal/registry/store"
	"stakeport/pkg/domain"
	dErrors "stakeport/pkg/domain-errors"
	"stakeport/pkg/requestcontext"
)

var (
	opCtrl       = domain.Address("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	opMaintainer = domain.Address("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	outsider     = domain.Address("0xcccccccccccccccccccccccccccccccccccccccc")
)

const feeSwitchDelay = 7 * 24 * time.Hour

type MaintainerServiceSuite struct {
	suite.Suite
	registry *registryService.Service
	ledger   *fake.TokenLedger
	service  *Service
	now      time.Time

	operatorID domain.ID
	poolID     domain.ID
}

func TestMaintainerServiceSuite(t *testing.T) {
	suite.Run(t, new(MaintainerServiceSuite))
}

func (s *MaintainerServiceSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	entityStore := registryStore.NewInMemoryEntityStore()
	registry, err := registryService.New(entityStore)
	s.Require().NoError(err)
	s.registry = registry
	s.ledger = fake.NewTokenLedger()

	s.service, err = New(registry, s.ledger, fake.NewDepositDataHasher(), Config{
		MaxMaintainerFee: math.LegacyMustNewDecFromStr("0.10"),
		FeeSwitchDelay:   feeSwitchDelay,
	})
	s.Require().NoError(err)

	operator, err := registry.Register(s.ctx(opCtrl), "op-one", domain.TypeOperator, opCtrl, opMaintainer)
	s.Require().NoError(err)
	s.operatorID = operator.ID

	pool, err := registry.Register(s.ctx(opCtrl), "pool-one", domain.TypePool, opCtrl, "")
	s.Require().NoError(err)
	s.poolID = pool.ID
	s.Require().NoError(registry.MarkInitiated(s.ctx(opCtrl), pool.ID))
}

func (s *MaintainerServiceSuite) ctx(caller domain.Address) context.Context {
	ctx := requestcontext.WithTime(context.Background(), s.now)
	return requestcontext.WithCaller(ctx, caller)
}

func (s *MaintainerServiceSuite) activation() ValidatorActivation {
	return ValidatorActivation{
		OperatorID:            s.operatorID,
		PoolID:                s.poolID,
		Pubkey:                []byte{0x01, 0x02},
		WithdrawalCredentials: []byte{0x03},
		Signature:             []byte{0x04},
		AmountGwei:            32_000_000_000,
	}
}

func (s *MaintainerServiceSuite) TestSwitchFee() {
	fee := math.LegacyMustNewDecFromStr("0.04")

	s.Run("only the controller may switch", func() {
		err := s.service.SwitchFee(s.ctx(opMaintainer), s.operatorID, fee)
		s.True(dErrors.Is(err, dErrors.CodeUnauthorized))
	})

	s.Run("fee above the cap is rejected", func() {
		err := s.service.SwitchFee(s.ctx(opCtrl), s.operatorID, math.LegacyMustNewDecFromStr("0.11"))
		s.True(dErrors.Is(err, dErrors.CodeExceedsMax))
	})

	s.Run("negative fee is rejected", func() {
		err := s.service.SwitchFee(s.ctx(opCtrl), s.operatorID, math.LegacyMustNewDecFromStr("-0.01"))
		s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
	})

	s.Run("queued switch leaves the active fee untouched", func() {
		s.Require().NoError(s.service.SwitchFee(s.ctx(opCtrl), s.operatorID, fee))

		active, err := s.service.EffectiveFee(s.ctx(opCtrl), s.operatorID)
		s.Require().NoError(err)
		s.True(active.IsZero())

		entity, err := s.registry.Get(s.ctx(opCtrl), s.operatorID)
		s.Require().NoError(err)
		s.Require().NotNil(entity.PendingFee)
		s.Equal(s.now.Add(feeSwitchDelay), entity.PendingFee.EffectiveAt)
	})

	s.Run("pending switch cannot be replaced before the delay", func() {
		err := s.service.SwitchFee(s.ctx(opCtrl), s.operatorID, math.LegacyMustNewDecFromStr("0.05"))
		s.True(dErrors.Is(err, dErrors.CodeConflict))
	})
}

func (s *MaintainerServiceSuite) TestActivatePendingFee() {
	fee := math.LegacyMustNewDecFromStr("0.04")
	s.Require().NoError(s.service.SwitchFee(s.ctx(opCtrl), s.operatorID, fee))
	due := s.now.Add(feeSwitchDelay)

	s.Run("before the delay nothing activates", func() {
		s.now = due.Add(-time.Second)
		activated, err := s.service.ActivatePendingFee(s.ctx(outsider), s.operatorID)
		s.Require().NoError(err)
		s.False(activated)
	})

	s.Run("anyone may commit a due switch", func() {
		s.now = due
		activated, err := s.service.ActivatePendingFee(s.ctx(outsider), s.operatorID)
		s.Require().NoError(err)
		s.True(activated)

		active, err := s.service.EffectiveFee(s.ctx(outsider), s.operatorID)
		s.Require().NoError(err)
		s.True(active.Equal(fee))
	})

	s.Run("without a pending switch activation is a no-op", func() {
		activated, err := s.service.ActivatePendingFee(s.ctx(outsider), s.operatorID)
		s.Require().NoError(err)
		s.False(activated)
	})
}

func (s *MaintainerServiceSuite) TestActivateValidator() {
	s.Run("outsider may not activate", func() {
		_, err := s.service.ActivateValidator(s.ctx(outsider), s.activation())
		s.True(dErrors.Is(err, dErrors.CodeUnauthorized))
	})

	s.Run("target must be an operator", func() {
		act := s.activation()
		act.OperatorID = s.poolID
		_, err := s.service.ActivateValidator(s.ctx(opCtrl), act)
		s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
	})

	s.Run("pool must be initiated", func() {
		cold, err := s.registry.Register(s.ctx(opCtrl), "pool-cold", domain.TypePool, opCtrl, "")
		s.Require().NoError(err)

		act := s.activation()
		act.PoolID = cold.ID
		_, err = s.service.ActivateValidator(s.ctx(opCtrl), act)
		s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
	})

	s.Run("empty deposit data is rejected", func() {
		act := s.activation()
		act.Pubkey = nil
		_, err := s.service.ActivateValidator(s.ctx(opCtrl), act)
		s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
	})

	s.Run("activation mints supply and counts the validator", func() {
		root, err := s.service.ActivateValidator(s.ctx(opCtrl), s.activation())
		s.Require().NoError(err)
		s.NotEqual([32]byte{}, root)

		s.True(s.ledger.Supply(s.poolID).Equal(math.NewIntFromUint64(32_000_000_000)))

		operator, err := s.registry.Get(s.ctx(opCtrl), s.operatorID)
		s.Require().NoError(err)
		s.Equal(uint64(1), operator.ValidatorCount)
	})

	s.Run("the maintainer may activate too", func() {
		_, err := s.service.ActivateValidator(s.ctx(opMaintainer), s.activation())
		s.Require().NoError(err)

		operator, err := s.registry.Get(s.ctx(opCtrl), s.operatorID)
		s.Require().NoError(err)
		s.Equal(uint64(2), operator.ValidatorCount)
	})
}
