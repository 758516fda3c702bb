package service

import (
	"context"
	"testing"
	"time"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"stakeport/internal/external/fake"
	"stakeport/internal/oracle/models"
	"stakeport/internal/oracle/store"
	registryService "stakeport/internal/registry/service"
	registryStore "stakeport/internal/registry/store"
	"stakeport/pkg/domain"
	dErrors "stakeport/pkg/domain-errors"
	"stakeport/pkg/requestcontext"
)

var (
	governanceAddr = domain.Address("0x1111111111111111111111111111111111111111")
	oracleAddr     = domain.Address("0x2222222222222222222222222222222222222222")
	poolCtrl       = domain.Address("0x3333333333333333333333333333333333333333")
	intruder       = domain.Address("0x4444444444444444444444444444444444444444")
)

const (
	periodSeconds   = int64(24 * 60 * 60)
	period          = 24 * time.Hour
	bootstrapPeriod = 14 * 24 * time.Hour
)

// staticGovernance satisfies the governance view with fixed values.
type staticGovernance struct {
	addr domain.Address
	fee  math.LegacyDec
}

func (g staticGovernance) GovernanceAddress(context.Context) (domain.Address, error) {
	return g.addr, nil
}

func (g staticGovernance) GovernanceFee(context.Context) (math.LegacyDec, error) {
	return g.fee, nil
}

type OracleServiceSuite struct {
	suite.Suite
	registry *registryService.Service
	ledger   *fake.TokenLedger
	service  *Service
	now      time.Time

	poolID     domain.ID
	operatorID domain.ID
	whaleID    domain.ID
}

func TestOracleServiceSuite(t *testing.T) {
	suite.Run(t, new(OracleServiceSuite))
}

func (s *OracleServiceSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	registry, err := registryService.New(registryStore.NewInMemoryEntityStore())
	s.Require().NoError(err)
	s.registry = registry
	s.ledger = fake.NewTokenLedger()

	s.service, err = New(
		store.NewInMemoryPriceStore(),
		store.NewInMemoryParamsStore(),
		registry,
		staticGovernance{addr: governanceAddr, fee: math.LegacyMustNewDecFromStr("0.05")},
		s.ledger,
		Config{OraclePeriod: period, BootstrapPeriod: bootstrapPeriod},
	)
	s.Require().NoError(err)
	s.Require().NoError(s.service.Bootstrap(s.ctx(governanceAddr), s.defaultParams()))

	pool, err := registry.Register(s.ctx(poolCtrl), "pool-one", domain.TypePool, poolCtrl, "")
	s.Require().NoError(err)
	s.poolID = pool.ID
	s.Require().NoError(registry.MarkInitiated(s.ctx(poolCtrl), pool.ID))

	// Two operators: 2 of 10 validators stays under the 30% monopoly
	// threshold, 8 of 10 is over it.
	operator, err := registry.Register(s.ctx(poolCtrl), "op-small", domain.TypeOperator, poolCtrl, "")
	s.Require().NoError(err)
	s.operatorID = operator.ID
	whale, err := registry.Register(s.ctx(poolCtrl), "op-whale", domain.TypeOperator, poolCtrl, "")
	s.Require().NoError(err)
	s.whaleID = whale.ID
	for i := 0; i < 2; i++ {
		s.Require().NoError(registry.AddValidator(s.ctx(poolCtrl), operator.ID))
	}
	for i := 0; i < 8; i++ {
		s.Require().NoError(registry.AddValidator(s.ctx(poolCtrl), whale.ID))
	}
}

func (s *OracleServiceSuite) ctx(caller domain.Address) context.Context {
	ctx := requestcontext.WithTime(context.Background(), s.now)
	return requestcontext.WithCaller(ctx, caller)
}

func (s *OracleServiceSuite) defaultParams() *models.OracleParams {
	return &models.OracleParams{
		OraclePosition:              oracleAddr,
		PeriodPriceIncreaseLimit:    math.LegacyMustNewDecFromStr("0.05"),
		PeriodPriceDecreaseLimit:    math.LegacyMustNewDecFromStr("0.05"),
		BootstrapPriceIncreaseLimit: math.LegacyMustNewDecFromStr("0.20"),
		BootstrapPriceDecreaseLimit: math.LegacyMustNewDecFromStr("0.20"),
		MonopolyThreshold:           math.LegacyMustNewDecFromStr("0.30"),
		PeriodSeconds:               periodSeconds,
	}
}

func (s *OracleServiceSuite) report(price string) Report {
	return Report{
		PoolID:     s.poolID,
		OperatorID: s.operatorID,
		Price:      math.LegacyMustNewDecFromStr(price),
	}
}

// leaveBootstrap moves the clock past the pool's bootstrap window.
func (s *OracleServiceSuite) leaveBootstrap() {
	s.now = s.now.Add(bootstrapPeriod + period)
}

func (s *OracleServiceSuite) TestBootstrap() {
	s.Run("repeat bootstrap keeps the seeded params", func() {
		other := s.defaultParams()
		other.OraclePosition = intruder
		s.Require().NoError(s.service.Bootstrap(s.ctx(governanceAddr), other))

		params, err := s.service.Params(s.ctx(governanceAddr))
		s.Require().NoError(err)
		s.Equal(oracleAddr, params.OraclePosition)
	})
}

func (s *OracleServiceSuite) TestSetParams() {
	s.Run("only governance may replace params", func() {
		err := s.service.SetParams(s.ctx(oracleAddr), s.defaultParams())
		s.True(dErrors.Is(err, dErrors.CodeUnauthorized))
	})

	s.Run("missing oracle position is rejected", func() {
		params := s.defaultParams()
		params.OraclePosition = ""
		err := s.service.SetParams(s.ctx(governanceAddr), params)
		s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
	})

	s.Run("negative limit is rejected", func() {
		params := s.defaultParams()
		params.PeriodPriceDecreaseLimit = math.LegacyMustNewDecFromStr("-0.01")
		err := s.service.SetParams(s.ctx(governanceAddr), params)
		s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
	})

	s.Run("threshold above one is rejected", func() {
		params := s.defaultParams()
		params.MonopolyThreshold = math.LegacyMustNewDecFromStr("1.01")
		err := s.service.SetParams(s.ctx(governanceAddr), params)
		s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
	})

	s.Run("zero period is rejected", func() {
		params := s.defaultParams()
		params.PeriodSeconds = 0
		err := s.service.SetParams(s.ctx(governanceAddr), params)
		s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
	})

	s.Run("governance rotates the oracle position", func() {
		params := s.defaultParams()
		params.OraclePosition = intruder
		s.Require().NoError(s.service.SetParams(s.ctx(governanceAddr), params))

		got, err := s.service.Params(s.ctx(governanceAddr))
		s.Require().NoError(err)
		s.Equal(intruder, got.OraclePosition)
	})
}

func (s *OracleServiceSuite) TestReportValidation() {
	s.leaveBootstrap()

	s.Run("non-oracle caller is rejected", func() {
		_, err := s.service.ReportPrice(s.ctx(intruder), s.report("1.0"))
		s.True(dErrors.Is(err, dErrors.CodeUnauthorized))
	})

	s.Run("price must be positive", func() {
		_, err := s.service.ReportPrice(s.ctx(oracleAddr), s.report("0"))
		s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
	})

	s.Run("unknown pool is not found", func() {
		report := s.report("1.0")
		report.PoolID = domain.GenerateID("ghost", domain.TypePool)
		_, err := s.service.ReportPrice(s.ctx(oracleAddr), report)
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})

	s.Run("target must be a pool", func() {
		report := s.report("1.0")
		report.PoolID = s.operatorID
		_, err := s.service.ReportPrice(s.ctx(oracleAddr), report)
		s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
	})

	s.Run("uninitiated pool is rejected", func() {
		cold, err := s.registry.Register(s.ctx(poolCtrl), "pool-cold", domain.TypePool, poolCtrl, "")
		s.Require().NoError(err)

		report := s.report("1.0")
		report.PoolID = cold.ID
		_, err = s.service.ReportPrice(s.ctx(oracleAddr), report)
		s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
	})

	s.Run("attribution must be an operator", func() {
		report := s.report("1.0")
		report.OperatorID = s.poolID
		_, err := s.service.ReportPrice(s.ctx(oracleAddr), report)
		s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
	})
}

func (s *OracleServiceSuite) TestPriceBands() {
	s.leaveBootstrap()

	s.Run("first report seeds without a band check", func() {
		point, err := s.service.ReportPrice(s.ctx(oracleAddr), s.report("100"))
		s.Require().NoError(err)
		s.Equal(s.now.Unix()/periodSeconds, point.PeriodIndex)

		price, err := s.service.PoolPrice(s.ctx(oracleAddr), s.poolID)
		s.Require().NoError(err)
		s.True(price.Equal(math.LegacyNewDec(100)))
	})

	s.Run("second report in the same period is stale", func() {
		_, err := s.service.ReportPrice(s.ctx(oracleAddr), s.report("101"))
		s.True(dErrors.Is(err, dErrors.CodeStaleReport))
	})

	s.Run("report above the ceiling fails and changes nothing", func() {
		s.now = s.now.Add(period)
		_, err := s.service.ReportPrice(s.ctx(oracleAddr), s.report("106"))
		s.True(dErrors.Is(err, dErrors.CodePriceBound))

		last, err := s.service.LatestPrice(s.ctx(oracleAddr), s.poolID)
		s.Require().NoError(err)
		s.True(last.Price.Equal(math.LegacyNewDec(100)))
	})

	s.Run("report inside the band becomes the new anchor", func() {
		point, err := s.service.ReportPrice(s.ctx(oracleAddr), s.report("104"))
		s.Require().NoError(err)
		s.True(point.Price.Equal(math.LegacyNewDec(104)))
	})

	s.Run("report below the floor fails", func() {
		s.now = s.now.Add(period)
		_, err := s.service.ReportPrice(s.ctx(oracleAddr), s.report("98"))
		s.True(dErrors.Is(err, dErrors.CodePriceBound))
	})

	s.Run("missed periods widen the band", func() {
		// Two periods since the 104 anchor: the ceiling is 104 * 1.10.
		s.now = s.now.Add(period)
		point, err := s.service.ReportPrice(s.ctx(oracleAddr), s.report("114"))
		s.Require().NoError(err)
		s.True(point.Price.Equal(math.LegacyNewDec(114)))
	})
}

func (s *OracleServiceSuite) TestBootstrapBand() {
	// The pool was initiated in SetupTest; stay inside its bootstrap window.
	s.Run("bootstrap limit admits a wide first move", func() {
		_, err := s.service.ReportPrice(s.ctx(oracleAddr), s.report("100"))
		s.Require().NoError(err)

		s.now = s.now.Add(period)
		_, err = s.service.ReportPrice(s.ctx(oracleAddr), s.report("120"))
		s.Require().NoError(err)
	})

	s.Run("even the bootstrap band has a ceiling", func() {
		s.now = s.now.Add(period)
		_, err := s.service.ReportPrice(s.ctx(oracleAddr), s.report("145"))
		s.True(dErrors.Is(err, dErrors.CodePriceBound))

		_, err = s.service.ReportPrice(s.ctx(oracleAddr), s.report("144"))
		s.Require().NoError(err)
	})

	s.Run("the strict band returns after the window", func() {
		// Twelve periods later the window is over: the strict ceiling is
		// 144 * (1 + 0.05*12) = 230.4 while the bootstrap one would have
		// allowed 489.6.
		s.now = s.now.Add(12 * period)
		_, err := s.service.ReportPrice(s.ctx(oracleAddr), s.report("300"))
		s.True(dErrors.Is(err, dErrors.CodePriceBound))

		_, err = s.service.ReportPrice(s.ctx(oracleAddr), s.report("230"))
		s.Require().NoError(err)
	})
}

func (s *OracleServiceSuite) TestMonopoly() {
	s.leaveBootstrap()

	report := s.report("100")
	report.OperatorID = s.whaleID
	_, err := s.service.ReportPrice(s.ctx(oracleAddr), report)
	s.True(dErrors.Is(err, dErrors.CodeExceedsMax))

	// Nothing was recorded for the pool.
	_, err = s.service.LatestPrice(s.ctx(oracleAddr), s.poolID)
	s.True(dErrors.Is(err, dErrors.CodeNotFound))
}

func (s *OracleServiceSuite) TestYieldFeeMint() {
	s.leaveBootstrap()
	s.Require().NoError(s.ledger.Mint(context.Background(), s.poolID, math.NewInt(5200)))

	_, err := s.service.ReportPrice(s.ctx(oracleAddr), s.report("100"))
	s.Require().NoError(err)

	s.Run("a price increase mints the protocol share", func() {
		// Yield fraction (104-100)/104 on a supply of 5200 with a 5%
		// governance fee mints exactly 10.
		s.now = s.now.Add(period)
		_, err := s.service.ReportPrice(s.ctx(oracleAddr), s.report("104"))
		s.Require().NoError(err)
		s.True(s.ledger.Supply(s.poolID).Equal(math.NewInt(5210)))
	})

	s.Run("a price decrease mints nothing", func() {
		s.now = s.now.Add(period)
		_, err := s.service.ReportPrice(s.ctx(oracleAddr), s.report("100"))
		s.Require().NoError(err)
		s.True(s.ledger.Supply(s.poolID).Equal(math.NewInt(5210)))
	})
}

func TestExceedsMonopoly(t *testing.T) {
	threshold := math.LegacyMustNewDecFromStr("0.30")

	t.Run("zero aggregate never trips", func(t *testing.T) {
		assert.False(t, ExceedsMonopoly(5, 0, threshold))
	})

	t.Run("zero operator count never trips", func(t *testing.T) {
		assert.False(t, ExceedsMonopoly(0, 10, threshold))
	})

	t.Run("share at the threshold is allowed", func(t *testing.T) {
		assert.False(t, ExceedsMonopoly(3, 10, threshold))
	})

	t.Run("share over the threshold trips", func(t *testing.T) {
		assert.True(t, ExceedsMonopoly(4, 10, threshold))
	})
}
