// Package domain defines the typed identifiers shared across the protocol core.
//
// Entity identifiers are derived deterministically from (name, type) with
// keccak-256, matching the on-chain derivation, so the same pair always maps to
// the same Id regardless of which node computes it.
package domain

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// EntityType classifies registered participants.
type EntityType uint64

const (
	TypeUnknown  EntityType = 0
	TypeSenate   EntityType = 1
	TypeOperator EntityType = 4
	TypePool     EntityType = 5
	TypeSubPool  EntityType = 6
)

// IsValid checks if the entity type is one of the supported variants.
func (t EntityType) IsValid() bool {
	switch t {
	case TypeSenate, TypeOperator, TypePool, TypeSubPool:
		return true
	}
	return false
}

// String returns the lowercase name used on the wire and in logs.
func (t EntityType) String() string {
	switch t {
	case TypeSenate:
		return "senate"
	case TypeOperator:
		return "operator"
	case TypePool:
		return "pool"
	case TypeSubPool:
		return "subpool"
	}
	return "unknown"
}

// ParseEntityType maps a wire name back to its variant.
func ParseEntityType(s string) (EntityType, error) {
	switch strings.ToLower(s) {
	case "senate":
		return TypeSenate, nil
	case "operator":
		return TypeOperator, nil
	case "pool":
		return TypePool, nil
	case "subpool":
		return TypeSubPool, nil
	}
	return TypeUnknown, fmt.Errorf("unknown entity type %q", s)
}

// ID is the fixed-width identifier of a registered entity.
type ID [32]byte

// GenerateID derives the identifier for (name, type). It is a pure function:
// no randomness, no registry lookups.
func GenerateID(name string, t EntityType) ID {
	h := sha3.NewLegacyKeccak256()
	var typ [8]byte
	binary.BigEndian.PutUint64(typ[:], uint64(t))
	h.Write(typ[:])
	h.Write([]byte(name))

	var id ID
	copy(id[:], h.Sum(nil))
	return id
}

// String renders the id as 0x-prefixed hex.
func (id ID) String() string {
	return "0x" + hex.EncodeToString(id[:])
}

// IsZero reports whether the id is the zero value.
func (id ID) IsZero() bool {
	return id == ID{}
}

// MarshalText renders the id as hex for JSON and log output.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText decodes the hex form.
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := ParseID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseID decodes a 0x-prefixed 32-byte hex string.
func ParseID(s string) (ID, error) {
	var id ID
	s = strings.TrimPrefix(s, "0x")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("invalid id encoding: %w", err)
	}
	if len(raw) != len(id) {
		return id, fmt.Errorf("invalid id length %d, want %d bytes", len(raw), len(id))
	}
	copy(id[:], raw)
	return id, nil
}

// Address identifies an external account (wallet or keeper) interacting with
// the core. Stored lowercase so comparisons are byte equality.
type Address string

// ParseAddress validates and normalizes a 0x-prefixed 20-byte hex address.
func ParseAddress(s string) (Address, error) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return "", fmt.Errorf("address must be 0x-prefixed")
	}
	body := s[2:]
	if len(body) != 40 {
		return "", fmt.Errorf("address must be 20 bytes, got %d hex chars", len(body))
	}
	if _, err := hex.DecodeString(body); err != nil {
		return "", fmt.Errorf("invalid address encoding: %w", err)
	}
	return Address("0x" + strings.ToLower(body)), nil
}

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool {
	return a == ""
}

// String returns the normalized form.
func (a Address) String() string {
	return string(a)
}
