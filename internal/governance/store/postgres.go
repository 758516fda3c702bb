package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cosmossdk.io/math"

	"stakeport/internal/governance/models"
	"stakeport/pkg/domain"
	"stakeport/pkg/platform/sentinel"
)

// PostgresParamsStore persists the governance singleton as a single row.
//
// Schema:
//
//	CREATE TABLE governance_params (
//	    singleton      BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (singleton),
//	    governance     TEXT NOT NULL,
//	    senate         TEXT NOT NULL,
//	    senate_id      TEXT NOT NULL,
//	    governance_fee TEXT NOT NULL,
//	    senate_expiry  TIMESTAMPTZ NOT NULL,
//	    last_election  TIMESTAMPTZ NOT NULL,
//	    senate_quorum  INT NOT NULL
//	);
type PostgresParamsStore struct {
	db *sql.DB
}

func NewPostgresParamsStore(db *sql.DB) *PostgresParamsStore {
	return &PostgresParamsStore{db: db}
}

func (s *PostgresParamsStore) Get(ctx context.Context) (*models.GovernanceParams, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT governance, senate, senate_id, governance_fee, senate_expiry, last_election, senate_quorum
		FROM governance_params WHERE singleton`)

	var (
		p        models.GovernanceParams
		gov      string
		senate   string
		senateID string
		fee      string
	)
	err := row.Scan(&gov, &senate, &senateID, &fee, &p.SenateExpiry, &p.LastElection, &p.SenateQuorum)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan governance params: %w", err)
	}

	p.Governance = domain.Address(gov)
	p.Senate = domain.Address(senate)
	if p.SenateID, err = domain.ParseID(senateID); err != nil {
		return nil, fmt.Errorf("scan senate id: %w", err)
	}
	if p.GovernanceFee, err = math.LegacyNewDecFromStr(fee); err != nil {
		return nil, fmt.Errorf("scan governance fee: %w", err)
	}
	return &p, nil
}

func (s *PostgresParamsStore) Set(ctx context.Context, p *models.GovernanceParams) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO governance_params
		    (singleton, governance, senate, senate_id, governance_fee, senate_expiry, last_election, senate_quorum)
		VALUES (TRUE, $1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (singleton) DO UPDATE SET
		    governance = EXCLUDED.governance,
		    senate = EXCLUDED.senate,
		    senate_id = EXCLUDED.senate_id,
		    governance_fee = EXCLUDED.governance_fee,
		    senate_expiry = EXCLUDED.senate_expiry,
		    last_election = EXCLUDED.last_election,
		    senate_quorum = EXCLUDED.senate_quorum`,
		p.Governance.String(), p.Senate.String(), p.SenateID.String(),
		p.GovernanceFee.String(), p.SenateExpiry, p.LastElection, p.SenateQuorum,
	)
	if err != nil {
		return fmt.Errorf("set governance params: %w", err)
	}
	return nil
}
