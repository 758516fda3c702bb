// Package guard provides the single write lock that serializes every mutating
// operation of the core. The protocol is modeled after a one-transaction-at-a-
// time ledger: no two mutations may interleave partially, and reads must see
// either all of a mutation or none of it.
//
// The transport layer holds the write lock for the full validate-then-commit
// span of each mutating request and the read lock for query requests, so
// cross-store invariants (for example the operator monopoly aggregate) are
// always computed against a consistent snapshot. Services stay lock-free and
// may call each other without deadlocking.
package guard

import "sync"

// Guard is the shared serialization lock. One instance is constructed in main
// and applied by the router around every route group.
type Guard struct {
	mu sync.RWMutex
}

func New() *Guard {
	return &Guard{}
}

// Lock acquires the exclusive write lock.
func (g *Guard) Lock() { g.mu.Lock() }

// Unlock releases the exclusive write lock.
func (g *Guard) Unlock() { g.mu.Unlock() }

// RLock acquires a shared read lock.
func (g *Guard) RLock() { g.mu.RLock() }

// RUnlock releases a shared read lock.
func (g *Guard) RUnlock() { g.mu.RUnlock() }
