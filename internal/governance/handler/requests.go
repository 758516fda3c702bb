package handler

import (
	"strings"

	"cosmossdk.io/math"

	"stakeport/pkg/domain"
	dErrors "stakeport/pkg/domain-errors"
)

// SubmitProposalRequest is the HTTP request body for POST /proposals.
type SubmitProposalRequest struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Controller string `json:"controller"`

	// Parsed values (populated by Validate)
	parsedType       domain.EntityType
	parsedController domain.Address
}

// Validate validates and parses the request.
func (r *SubmitProposalRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeBadRequest, "name is required")
	}
	if len(r.Name) > 128 {
		return dErrors.New(dErrors.CodeBadRequest, "name must be at most 128 characters")
	}

	t, err := domain.ParseEntityType(r.Type)
	if err != nil {
		return dErrors.Newf(dErrors.CodeBadRequest, "invalid entity type %q", r.Type)
	}
	r.parsedType = t

	controller, err := domain.ParseAddress(r.Controller)
	if err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "controller is not a valid address")
	}
	r.parsedController = controller
	return nil
}

func (r *SubmitProposalRequest) ParsedType() domain.EntityType    { return r.parsedType }
func (r *SubmitProposalRequest) ParsedController() domain.Address { return r.parsedController }

// SetGovernanceFeeRequest is the HTTP request body for POST /params/governance/fee.
type SetGovernanceFeeRequest struct {
	Fee string `json:"fee"`

	parsedFee math.LegacyDec
}

// Validate validates and parses the request.
func (r *SetGovernanceFeeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	fee, err := math.LegacyNewDecFromStr(strings.TrimSpace(r.Fee))
	if err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "fee is not a valid decimal fraction")
	}
	r.parsedFee = fee
	return nil
}

func (r *SetGovernanceFeeRequest) ParsedFee() math.LegacyDec { return r.parsedFee }
