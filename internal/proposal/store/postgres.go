package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"stakeport/internal/proposal/models"
	"stakeport/pkg/domain"
	"stakeport/pkg/platform/sentinel"
)

// PostgresProposalStore persists the live proposal set in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE proposals (
//	    id          TEXT PRIMARY KEY,
//	    entity_type BIGINT NOT NULL,
//	    name        TEXT NOT NULL,
//	    controller  TEXT NOT NULL,
//	    created_at  TIMESTAMPTZ NOT NULL,
//	    deadline    TIMESTAMPTZ NOT NULL,
//	    votes       TEXT[] NOT NULL DEFAULT '{}'
//	);
type PostgresProposalStore struct {
	db *sql.DB
}

func NewPostgresProposalStore(db *sql.DB) *PostgresProposalStore {
	return &PostgresProposalStore{db: db}
}

func (s *PostgresProposalStore) Create(ctx context.Context, p *models.Proposal) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO proposals (id, entity_type, name, controller, created_at, deadline, votes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID.String(), int64(p.Type), p.Name, p.Controller.String(),
		p.CreatedAt, p.Deadline, pq.Array(addressStrings(p.Votes)),
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("create proposal: %w", err)
	}
	return nil
}

func (s *PostgresProposalStore) Get(ctx context.Context, id domain.ID) (*models.Proposal, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, entity_type, name, controller, created_at, deadline, votes
		FROM proposals WHERE id = $1`, id.String())

	var (
		p     models.Proposal
		idStr string
		typ   int64
		ctrl  string
		votes []string
	)
	err := row.Scan(&idStr, &typ, &p.Name, &ctrl, &p.CreatedAt, &p.Deadline, pq.Array(&votes))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan proposal: %w", err)
	}

	pid, err := domain.ParseID(idStr)
	if err != nil {
		return nil, fmt.Errorf("scan proposal id: %w", err)
	}
	p.ID = pid
	p.Type = domain.EntityType(typ)
	p.Controller = domain.Address(ctrl)
	for _, v := range votes {
		p.Votes = append(p.Votes, domain.Address(v))
	}
	return &p, nil
}

func (s *PostgresProposalStore) Update(ctx context.Context, p *models.Proposal) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE proposals SET votes = $2 WHERE id = $1`,
		p.ID.String(), pq.Array(addressStrings(p.Votes)),
	)
	if err != nil {
		return fmt.Errorf("update proposal: %w", err)
	}
	return affected(res)
}

func (s *PostgresProposalStore) Consume(ctx context.Context, id domain.ID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM proposals WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("consume proposal: %w", err)
	}
	return affected(res)
}

func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func addressStrings(addrs []domain.Address) []string {
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = a.String()
	}
	return out
}
