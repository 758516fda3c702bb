package handler

import (
	"encoding/hex"
	"strings"

	"cosmossdk.io/math"

	"stakeport/pkg/domain"
	dErrors "stakeport/pkg/domain-errors"
)

// SwitchFeeRequest is the body for POST /entities/{id}/fee.
type SwitchFeeRequest struct {
	Fee string `json:"fee"`

	parsedFee math.LegacyDec
}

// Validate validates and parses the request.
func (r *SwitchFeeRequest) Validate() error {
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

func (r *SwitchFeeRequest) ParsedFee() math.LegacyDec { return r.parsedFee }

// ActivateValidatorRequest is the body for POST /validators. Byte fields are
// hex encoded on the wire.
type ActivateValidatorRequest struct {
	OperatorID            string `json:"operator_id"`
	PoolID                string `json:"pool_id"`
	Pubkey                string `json:"pubkey"`
	WithdrawalCredentials string `json:"withdrawal_credentials"`
	Signature             string `json:"signature"`
	AmountGwei            uint64 `json:"amount_gwei"`

	parsedOperatorID domain.ID
	parsedPoolID     domain.ID
	parsedPubkey     []byte
	parsedWC         []byte
	parsedSignature  []byte
}

// Validate validates and parses the request.
func (r *ActivateValidatorRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	var err error
	if r.parsedOperatorID, err = domain.ParseID(r.OperatorID); err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "operator_id is not a valid id")
	}
	if r.parsedPoolID, err = domain.ParseID(r.PoolID); err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "pool_id is not a valid id")
	}
	if r.parsedPubkey, err = hexField(r.Pubkey); err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "pubkey must be hex encoded")
	}
	if r.parsedWC, err = hexField(r.WithdrawalCredentials); err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "withdrawal_credentials must be hex encoded")
	}
	if r.parsedSignature, err = hexField(r.Signature); err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "signature must be hex encoded")
	}
	if len(r.parsedPubkey) == 0 || len(r.parsedWC) == 0 || len(r.parsedSignature) == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "pubkey, withdrawal_credentials and signature are required")
	}
	if r.AmountGwei == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "amount_gwei is required")
	}
	return nil
}

func (r *ActivateValidatorRequest) ParsedOperatorID() domain.ID { return r.parsedOperatorID }
func (r *ActivateValidatorRequest) ParsedPoolID() domain.ID     { return r.parsedPoolID }
func (r *ActivateValidatorRequest) ParsedPubkey() []byte        { return r.parsedPubkey }
func (r *ActivateValidatorRequest) ParsedWC() []byte            { return r.parsedWC }
func (r *ActivateValidatorRequest) ParsedSignature() []byte     { return r.parsedSignature }

func hexField(s string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
}
