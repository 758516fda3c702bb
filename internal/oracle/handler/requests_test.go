package handler

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/suite"

	"stakeport/pkg/domain"
)

// ReportPriceRequestSuite tests ReportPriceRequest validation and parsing.
type ReportPriceRequestSuite struct {
	suite.Suite
}

func TestReportPriceRequestSuite(t *testing.T) {
	suite.Run(t, new(ReportPriceRequestSuite))
}

func (s *ReportPriceRequestSuite) validRequest() *ReportPriceRequest {
	return &ReportPriceRequest{
		PoolID:     domain.GenerateID("pool-one", domain.TypePool).String(),
		OperatorID: domain.GenerateID("op-one", domain.TypeOperator).String(),
		Price:      "1.0425",
	}
}

func (s *ReportPriceRequestSuite) TestValidation() {
	s.Run("valid request passes and parses", func() {
		req := s.validRequest()
		s.Require().NoError(req.Validate())
		s.Equal(domain.GenerateID("pool-one", domain.TypePool), req.ParsedPoolID())
		s.Equal(domain.GenerateID("op-one", domain.TypeOperator), req.ParsedOperatorID())
		s.True(req.ParsedPrice().Equal(math.LegacyMustNewDecFromStr("1.0425")))
	})

	s.Run("malformed pool id rejected", func() {
		req := s.validRequest()
		req.PoolID = "0xzz"
		s.Error(req.Validate())
	})

	s.Run("malformed operator id rejected", func() {
		req := s.validRequest()
		req.OperatorID = "not-an-id"
		s.Error(req.Validate())
	})

	s.Run("non-decimal price rejected", func() {
		req := s.validRequest()
		req.Price = "1,04"
		s.Error(req.Validate())
	})
}

// SetParamsRequestSuite tests SetParamsRequest validation and parsing.
type SetParamsRequestSuite struct {
	suite.Suite
}

func TestSetParamsRequestSuite(t *testing.T) {
	suite.Run(t, new(SetParamsRequestSuite))
}

func (s *SetParamsRequestSuite) validRequest() *SetParamsRequest {
	return &SetParamsRequest{
		OraclePosition:              "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
		PeriodPriceIncreaseLimit:    "0.05",
		PeriodPriceDecreaseLimit:    "0.05",
		BootstrapPriceIncreaseLimit: "0.2",
		BootstrapPriceDecreaseLimit: "0.2",
		MonopolyThreshold:           "0.3",
		PeriodSeconds:               86400,
	}
}

func (s *SetParamsRequestSuite) TestValidation() {
	s.Run("valid request passes and parses", func() {
		req := s.validRequest()
		s.Require().NoError(req.Validate())

		params := req.ParsedParams()
		s.Equal(domain.Address("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"), params.OraclePosition)
		s.True(params.MonopolyThreshold.Equal(math.LegacyMustNewDecFromStr("0.3")))
		s.Equal(int64(86400), params.PeriodSeconds)
	})

	s.Run("malformed position rejected", func() {
		req := s.validRequest()
		req.OraclePosition = "governance"
		s.Error(req.Validate())
	})

	s.Run("non-decimal limit rejected", func() {
		req := s.validRequest()
		req.BootstrapPriceDecreaseLimit = "twenty"
		s.Error(req.Validate())
	})

	s.Run("missing threshold rejected", func() {
		req := s.validRequest()
		req.MonopolyThreshold = ""
		s.Error(req.Validate())
	})
}
