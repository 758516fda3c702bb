// Package external declares the collaborators the core consumes but does not
// implement: the receipt-token ledger, the beacon deposit-data hasher, and the
// price read surface downstream pools use. The core only talks to these
// interfaces and never inspects collaborator internals.
package external

import (
	"context"

	"cosmossdk.io/math"

	"stakeport/pkg/domain"
)

// TokenLedger is the multi-denomination receipt token ledger. The core mints
// on onboarding and price-driven yield, burns on withdrawal application.
type TokenLedger interface {
	Mint(ctx context.Context, id domain.ID, amount math.Int) error
	Burn(ctx context.Context, id domain.ID, amount math.Int) error
	BalanceOf(ctx context.Context, id domain.ID, account domain.Address) (math.Int, error)
	TotalSupply(ctx context.Context, id domain.ID) (math.Int, error)
}

// DepositDataHasher computes the beacon-chain deposit data root for a
// validator activation. Pure and stateless; the result is treated as opaque.
type DepositDataHasher interface {
	ComputeDepositDataRoot(pubkey, withdrawalCredentials, signature []byte, amountGwei uint64) ([32]byte, error)
}
