package handler

import (
	"strings"
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/suite"

	"stakeport/pkg/domain"
)

// SubmitProposalRequestSuite tests SubmitProposalRequest validation and parsing.
type SubmitProposalRequestSuite struct {
	suite.Suite
}

func TestSubmitProposalRequestSuite(t *testing.T) {
	suite.Run(t, new(SubmitProposalRequestSuite))
}

func (s *SubmitProposalRequestSuite) validRequest() *SubmitProposalRequest {
	return &SubmitProposalRequest{
		Name:       "pool-one",
		Type:       "pool",
		Controller: "0xAAaaAAaaAAaaAAaaAAaaAAaaAAaaAAaaAAaaAAaa",
	}
}

func (s *SubmitProposalRequestSuite) TestValidation() {
	s.Run("valid request passes and parses", func() {
		req := s.validRequest()
		s.Require().NoError(req.Validate())
		s.Equal(domain.TypePool, req.ParsedType())
		s.Equal(domain.Address("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"), req.ParsedController())
	})

	s.Run("name is trimmed", func() {
		req := s.validRequest()
		req.Name = "  pool-one  "
		s.Require().NoError(req.Validate())
		s.Equal("pool-one", req.Name)
	})

	s.Run("empty name rejected", func() {
		req := s.validRequest()
		req.Name = "   "
		s.Error(req.Validate())
	})

	s.Run("overlong name rejected", func() {
		req := s.validRequest()
		req.Name = strings.Repeat("a", 129)
		s.Error(req.Validate())
	})

	s.Run("unknown entity type rejected", func() {
		req := s.validRequest()
		req.Type = "committee"
		s.Error(req.Validate())
	})

	s.Run("malformed controller rejected", func() {
		req := s.validRequest()
		req.Controller = "0x123"
		s.Error(req.Validate())
	})
}

// SetGovernanceFeeRequestSuite tests SetGovernanceFeeRequest parsing.
type SetGovernanceFeeRequestSuite struct {
	suite.Suite
}

func TestSetGovernanceFeeRequestSuite(t *testing.T) {
	suite.Run(t, new(SetGovernanceFeeRequestSuite))
}

func (s *SetGovernanceFeeRequestSuite) TestValidation() {
	s.Run("decimal fee parses", func() {
		req := &SetGovernanceFeeRequest{Fee: " 0.05 "}
		s.Require().NoError(req.Validate())
		s.True(req.ParsedFee().Equal(math.LegacyMustNewDecFromStr("0.05")))
	})

	s.Run("non-decimal fee rejected", func() {
		req := &SetGovernanceFeeRequest{Fee: "five percent"}
		s.Error(req.Validate())
	})

	s.Run("empty fee rejected", func() {
		req := &SetGovernanceFeeRequest{}
		s.Error(req.Validate())
	})
}
