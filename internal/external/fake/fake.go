// Package fake provides in-process implementations of the external
// collaborator ports for tests and local runs.
package fake

import (
	"context"
	"fmt"
	"sync"

	"cosmossdk.io/math"
	"golang.org/x/crypto/sha3"

	"stakeport/pkg/domain"
)

// TokenLedger is an in-memory balance ledger.
type TokenLedger struct {
	mu     sync.Mutex
	supply map[domain.ID]math.Int
}

func NewTokenLedger() *TokenLedger {
	return &TokenLedger{supply: make(map[domain.ID]math.Int)}
}

func (l *TokenLedger) Mint(_ context.Context, id domain.ID, amount math.Int) error {
	if amount.IsNegative() {
		return fmt.Errorf("mint amount must not be negative")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	cur, ok := l.supply[id]
	if !ok {
		cur = math.ZeroInt()
	}
	l.supply[id] = cur.Add(amount)
	return nil
}

func (l *TokenLedger) Burn(_ context.Context, id domain.ID, amount math.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	cur, ok := l.supply[id]
	if !ok || cur.LT(amount) {
		return fmt.Errorf("insufficient supply for %s", id)
	}
	l.supply[id] = cur.Sub(amount)
	return nil
}

func (l *TokenLedger) BalanceOf(_ context.Context, id domain.ID, _ domain.Address) (math.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cur, ok := l.supply[id]; ok {
		return cur, nil
	}
	return math.ZeroInt(), nil
}

func (l *TokenLedger) TotalSupply(_ context.Context, id domain.ID) (math.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cur, ok := l.supply[id]; ok {
		return cur, nil
	}
	return math.ZeroInt(), nil
}

// Supply returns the minted supply for id. Test helper.
func (l *TokenLedger) Supply(id domain.ID) math.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cur, ok := l.supply[id]; ok {
		return cur
	}
	return math.ZeroInt()
}

// DepositDataHasher hashes deposit data deterministically. Stands in for the
// SSZ hash-tree-root computation, which lives outside the core.
type DepositDataHasher struct{}

func NewDepositDataHasher() *DepositDataHasher {
	return &DepositDataHasher{}
}

func (DepositDataHasher) ComputeDepositDataRoot(pubkey, withdrawalCredentials, signature []byte, amountGwei uint64) ([32]byte, error) {
	var root [32]byte
	if len(pubkey) == 0 || len(withdrawalCredentials) == 0 || len(signature) == 0 {
		return root, fmt.Errorf("deposit data fields must not be empty")
	}
	h := sha3.NewLegacyKeccak256()
	h.Write(pubkey)
	h.Write(withdrawalCredentials)
	h.Write(signature)
	h.Write(fmt.Appendf(nil, "%d", amountGwei))
	copy(root[:], h.Sum(nil))
	return root, nil
}
