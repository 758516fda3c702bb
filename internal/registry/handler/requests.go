package handler

import (
	"strings"

	"stakeport/pkg/domain"
	dErrors "stakeport/pkg/domain-errors"
)

// SetAddressRequest is the body for controller and maintainer changes.
type SetAddressRequest struct {
	Address string `json:"address"`

	parsedAddress domain.Address
}

// Validate validates and parses the request.
func (r *SetAddressRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	addr, err := domain.ParseAddress(strings.TrimSpace(r.Address))
	if err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "address is not a valid address")
	}
	r.parsedAddress = addr
	return nil
}

func (r *SetAddressRequest) ParsedAddress() domain.Address { return r.parsedAddress }
