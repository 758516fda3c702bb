package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cosmossdk.io/math"

	"stakeport/internal/oracle/models"
	"stakeport/pkg/domain"
	"stakeport/pkg/platform/sentinel"
)

// PostgresPriceStore persists one price point per pool.
//
// Schema:
//
//	CREATE TABLE oracle_prices (
//	    pool_id      TEXT PRIMARY KEY,
//	    price        TEXT NOT NULL,
//	    period_index BIGINT NOT NULL,
//	    updated_at   TIMESTAMPTZ NOT NULL
//	);
type PostgresPriceStore struct {
	db *sql.DB
}

func NewPostgresPriceStore(db *sql.DB) *PostgresPriceStore {
	return &PostgresPriceStore{db: db}
}

func (s *PostgresPriceStore) Get(ctx context.Context, poolID domain.ID) (*models.PricePoint, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT pool_id, price, period_index, updated_at
		FROM oracle_prices WHERE pool_id = $1`, poolID.String())

	var (
		point models.PricePoint
		id    string
		price string
	)
	err := row.Scan(&id, &price, &point.PeriodIndex, &point.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan price point: %w", err)
	}

	if point.PoolID, err = domain.ParseID(id); err != nil {
		return nil, fmt.Errorf("scan pool id: %w", err)
	}
	if point.Price, err = math.LegacyNewDecFromStr(price); err != nil {
		return nil, fmt.Errorf("scan price: %w", err)
	}
	return &point, nil
}

func (s *PostgresPriceStore) Set(ctx context.Context, point *models.PricePoint) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO oracle_prices (pool_id, price, period_index, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (pool_id) DO UPDATE SET
		    price = EXCLUDED.price,
		    period_index = EXCLUDED.period_index,
		    updated_at = EXCLUDED.updated_at`,
		point.PoolID.String(), point.Price.String(), point.PeriodIndex, point.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("set price point: %w", err)
	}
	return nil
}

// PostgresParamsStore persists the oracle singleton as a single row.
//
// Schema:
//
//	CREATE TABLE oracle_params (
//	    singleton                      BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (singleton),
//	    oracle_position                TEXT NOT NULL,
//	    period_price_increase_limit    TEXT NOT NULL,
//	    period_price_decrease_limit    TEXT NOT NULL,
//	    bootstrap_price_increase_limit TEXT NOT NULL,
//	    bootstrap_price_decrease_limit TEXT NOT NULL,
//	    monopoly_threshold             TEXT NOT NULL,
//	    period_seconds                 BIGINT NOT NULL
//	);
type PostgresParamsStore struct {
	db *sql.DB
}

func NewPostgresParamsStore(db *sql.DB) *PostgresParamsStore {
	return &PostgresParamsStore{db: db}
}

func (s *PostgresParamsStore) Get(ctx context.Context) (*models.OracleParams, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT oracle_position, period_price_increase_limit, period_price_decrease_limit,
		       bootstrap_price_increase_limit, bootstrap_price_decrease_limit,
		       monopoly_threshold, period_seconds
		FROM oracle_params WHERE singleton`)

	var (
		p        models.OracleParams
		position string
		decs     [5]string
	)
	err := row.Scan(&position, &decs[0], &decs[1], &decs[2], &decs[3], &decs[4], &p.PeriodSeconds)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan oracle params: %w", err)
	}

	p.OraclePosition = domain.Address(position)
	targets := []*math.LegacyDec{
		&p.PeriodPriceIncreaseLimit, &p.PeriodPriceDecreaseLimit,
		&p.BootstrapPriceIncreaseLimit, &p.BootstrapPriceDecreaseLimit,
		&p.MonopolyThreshold,
	}
	for i, target := range targets {
		if *target, err = math.LegacyNewDecFromStr(decs[i]); err != nil {
			return nil, fmt.Errorf("scan oracle params: %w", err)
		}
	}
	return &p, nil
}

func (s *PostgresParamsStore) Set(ctx context.Context, p *models.OracleParams) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO oracle_params
		    (singleton, oracle_position, period_price_increase_limit, period_price_decrease_limit,
		     bootstrap_price_increase_limit, bootstrap_price_decrease_limit, monopoly_threshold, period_seconds)
		VALUES (TRUE, $1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (singleton) DO UPDATE SET
		    oracle_position = EXCLUDED.oracle_position,
		    period_price_increase_limit = EXCLUDED.period_price_increase_limit,
		    period_price_decrease_limit = EXCLUDED.period_price_decrease_limit,
		    bootstrap_price_increase_limit = EXCLUDED.bootstrap_price_increase_limit,
		    bootstrap_price_decrease_limit = EXCLUDED.bootstrap_price_decrease_limit,
		    monopoly_threshold = EXCLUDED.monopoly_threshold,
		    period_seconds = EXCLUDED.period_seconds`,
		p.OraclePosition.String(),
		p.PeriodPriceIncreaseLimit.String(), p.PeriodPriceDecreaseLimit.String(),
		p.BootstrapPriceIncreaseLimit.String(), p.BootstrapPriceDecreaseLimit.String(),
		p.MonopolyThreshold.String(), p.PeriodSeconds,
	)
	if err != nil {
		return fmt.Errorf("set oracle params: %w", err)
	}
	return nil
}
