// Package config centralizes environment-driven configuration so main stays
// lean. Protocol constants carry defaults that match the reference deployment;
// every value can be overridden through the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"cosmossdk.io/math"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
	PostgresURL   string
	RedisURL      string
}

// Protocol captures the governance and oracle constants. These are read once
// at startup; runtime-adjustable parameters (governance fee, oracle position,
// thresholds) live in the params stores and change only through governance.
type Protocol struct {
	// Governance
	ProposalTTL      time.Duration
	ElectionPeriod   time.Duration
	SenateQuorum     int
	MaxGovernanceFee math.LegacyDec
	MaxMaintainerFee math.LegacyDec
	FeeSwitchDelay   time.Duration

	// Oracle
	OraclePeriod                time.Duration
	PeriodPriceIncreaseLimit    math.LegacyDec
	PeriodPriceDecreaseLimit    math.LegacyDec
	BootstrapPeriod             time.Duration
	BootstrapPriceIncreaseLimit math.LegacyDec
	BootstrapPriceDecreaseLimit math.LegacyDec
	MonopolyThreshold           math.LegacyDec
}

// FromEnv builds the server config from environment variables.
func FromEnv() Server {
	addr := os.Getenv("STAKEPORT_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default - must be overridden in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:          addr,
		JWTSigningKey: jwtSigningKey,
		PostgresURL:   os.Getenv("STAKEPORT_POSTGRES_URL"),
		RedisURL:      os.Getenv("STAKEPORT_REDIS_URL"),
	}
}

// ProtocolFromEnv builds the protocol constants with overrides applied.
func ProtocolFromEnv() (Protocol, error) {
	p := DefaultProtocol()

	var err error
	if p.ProposalTTL, err = durationEnv("PROPOSAL_TTL", p.ProposalTTL); err != nil {
		return p, err
	}
	if p.ElectionPeriod, err = durationEnv("SENATE_ELECTION_PERIOD", p.ElectionPeriod); err != nil {
		return p, err
	}
	if p.SenateQuorum, err = intEnv("SENATE_QUORUM", p.SenateQuorum); err != nil {
		return p, err
	}
	if p.FeeSwitchDelay, err = durationEnv("FEE_SWITCH_DELAY", p.FeeSwitchDelay); err != nil {
		return p, err
	}
	if p.OraclePeriod, err = durationEnv("ORACLE_PERIOD", p.OraclePeriod); err != nil {
		return p, err
	}
	if p.BootstrapPeriod, err = durationEnv("ORACLE_BOOTSTRAP_PERIOD", p.BootstrapPeriod); err != nil {
		return p, err
	}
	if p.MaxGovernanceFee, err = decEnv("MAX_GOVERNANCE_FEE", p.MaxGovernanceFee); err != nil {
		return p, err
	}
	if p.MaxMaintainerFee, err = decEnv("MAX_MAINTAINER_FEE", p.MaxMaintainerFee); err != nil {
		return p, err
	}
	if p.PeriodPriceIncreaseLimit, err = decEnv("PERIOD_PRICE_INCREASE_LIMIT", p.PeriodPriceIncreaseLimit); err != nil {
		return p, err
	}
	if p.PeriodPriceDecreaseLimit, err = decEnv("PERIOD_PRICE_DECREASE_LIMIT", p.PeriodPriceDecreaseLimit); err != nil {
		return p, err
	}
	if p.BootstrapPriceIncreaseLimit, err = decEnv("BOOTSTRAP_PRICE_INCREASE_LIMIT", p.BootstrapPriceIncreaseLimit); err != nil {
		return p, err
	}
	if p.BootstrapPriceDecreaseLimit, err = decEnv("BOOTSTRAP_PRICE_DECREASE_LIMIT", p.BootstrapPriceDecreaseLimit); err != nil {
		return p, err
	}
	if p.MonopolyThreshold, err = decEnv("MONOPOLY_THRESHOLD", p.MonopolyThreshold); err != nil {
		return p, err
	}
	return p, nil
}

// DefaultProtocol returns the reference deployment constants.
func DefaultProtocol() Protocol {
	return Protocol{
		ProposalTTL:      7 * 24 * time.Hour,
		ElectionPeriod:   365 * 24 * time.Hour,
		SenateQuorum:     1,
		MaxGovernanceFee: math.LegacyMustNewDecFromStr("0.05"),
		MaxMaintainerFee: math.LegacyMustNewDecFromStr("0.10"),
		FeeSwitchDelay:   7 * 24 * time.Hour,

		OraclePeriod:                24 * time.Hour,
		PeriodPriceIncreaseLimit:    math.LegacyMustNewDecFromStr("0.05"),
		PeriodPriceDecreaseLimit:    math.LegacyMustNewDecFromStr("0.05"),
		BootstrapPeriod:             180 * 24 * time.Hour,
		BootstrapPriceIncreaseLimit: math.LegacyMustNewDecFromStr("0.20"),
		BootstrapPriceDecreaseLimit: math.LegacyMustNewDecFromStr("0.20"),
		MonopolyThreshold:           math.LegacyMustNewDecFromStr("0.01"),
	}
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func decEnv(key string, fallback math.LegacyDec) (math.LegacyDec, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := math.LegacyNewDecFromStr(v)
	if err != nil {
		return math.LegacyDec{}, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}
