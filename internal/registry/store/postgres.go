package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cosmossdk.io/math"
	"github.com/lib/pq"

	"stakeport/internal/registry/models"
	"stakeport/pkg/domain"
	"stakeport/pkg/platform/sentinel"
)

// PostgresEntityStore persists entity records in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE entities (
//	    id              TEXT PRIMARY KEY,
//	    entity_type     BIGINT NOT NULL,
//	    name            TEXT NOT NULL,
//	    controller      TEXT NOT NULL,
//	    maintainer      TEXT NOT NULL,
//	    initiated       BOOLEAN NOT NULL DEFAULT FALSE,
//	    initiated_at    TIMESTAMPTZ,
//	    fee             TEXT NOT NULL,
//	    pending_fee     TEXT,
//	    pending_fee_at  TIMESTAMPTZ,
//	    validator_count BIGINT NOT NULL DEFAULT 0,
//	    created_at      TIMESTAMPTZ NOT NULL
//	);
type PostgresEntityStore struct {
	db *sql.DB
}

func NewPostgresEntityStore(db *sql.DB) *PostgresEntityStore {
	return &PostgresEntityStore{db: db}
}

func (s *PostgresEntityStore) Create(ctx context.Context, e *models.Entity) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entities
		    (id, entity_type, name, controller, maintainer, initiated, initiated_at,
		     fee, pending_fee, pending_fee_at, validator_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		e.ID.String(), int64(e.Type), e.Name, e.Controller.String(), e.Maintainer.String(),
		e.Initiated, nullTime(e.InitiatedAt), e.EffectiveFee().String(),
		pendingFee(e), pendingFeeAt(e), int64(e.ValidatorCount), e.CreatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("create entity: %w", err)
	}
	return nil
}

func (s *PostgresEntityStore) Get(ctx context.Context, id domain.ID) (*models.Entity, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, entity_type, name, controller, maintainer, initiated, initiated_at,
		       fee, pending_fee, pending_fee_at, validator_count, created_at
		FROM entities WHERE id = $1`, id.String())
	return scanEntity(row)
}

func (s *PostgresEntityStore) Update(ctx context.Context, e *models.Entity) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE entities SET
		    controller = $2, maintainer = $3, initiated = $4, initiated_at = $5,
		    fee = $6, pending_fee = $7, pending_fee_at = $8, validator_count = $9
		WHERE id = $1`,
		e.ID.String(), e.Controller.String(), e.Maintainer.String(),
		e.Initiated, nullTime(e.InitiatedAt), e.EffectiveFee().String(),
		pendingFee(e), pendingFeeAt(e), int64(e.ValidatorCount),
	)
	if err != nil {
		return fmt.Errorf("update entity: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update entity: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresEntityStore) ListByType(ctx context.Context, t domain.EntityType) ([]*models.Entity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, entity_type, name, controller, maintainer, initiated, initiated_at,
		       fee, pending_fee, pending_fee_at, validator_count, created_at
		FROM entities WHERE entity_type = $1 ORDER BY created_at`, int64(t))
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	defer rows.Close()

	var out []*models.Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PostgresEntityStore) TotalActiveValidators(ctx context.Context) (uint64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(validator_count), 0) FROM entities WHERE entity_type = $1`,
		int64(domain.TypeOperator)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum validator counts: %w", err)
	}
	return uint64(total), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntity(row rowScanner) (*models.Entity, error) {
	var (
		e           models.Entity
		idStr       string
		typ         int64
		controller  string
		maintainer  string
		initiatedAt sql.NullTime
		feeStr      string
		pending     sql.NullString
		pendingAt   sql.NullTime
		validators  int64
	)
	err := row.Scan(&idStr, &typ, &e.Name, &controller, &maintainer, &e.Initiated,
		&initiatedAt, &feeStr, &pending, &pendingAt, &validators, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan entity: %w", err)
	}

	id, err := domain.ParseID(idStr)
	if err != nil {
		return nil, fmt.Errorf("scan entity id: %w", err)
	}
	fee, err := math.LegacyNewDecFromStr(feeStr)
	if err != nil {
		return nil, fmt.Errorf("scan entity fee: %w", err)
	}

	e.ID = id
	e.Type = domain.EntityType(typ)
	e.Controller = domain.Address(controller)
	e.Maintainer = domain.Address(maintainer)
	e.Fee = fee
	e.ValidatorCount = uint64(validators)
	if initiatedAt.Valid {
		e.InitiatedAt = initiatedAt.Time
	}
	if pending.Valid && pendingAt.Valid {
		pf, err := math.LegacyNewDecFromStr(pending.String)
		if err != nil {
			return nil, fmt.Errorf("scan pending fee: %w", err)
		}
		e.PendingFee = &models.PendingFeeSwitch{Fee: pf, EffectiveAt: pendingAt.Time}
	}
	return &e, nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

func pendingFee(e *models.Entity) sql.NullString {
	if e.PendingFee == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: e.PendingFee.Fee.String(), Valid: true}
}

func pendingFeeAt(e *models.Entity) sql.NullTime {
	if e.PendingFee == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: e.PendingFee.EffectiveAt, Valid: true}
}
