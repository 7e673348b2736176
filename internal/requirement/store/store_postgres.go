package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"reguard/internal/requirement/models"
	id "reguard/pkg/domain"
	"reguard/pkg/platform/sentinel"
	txcontext "reguard/pkg/platform/tx"
)

// Schema is applied by migrations and the integration test harness.
const Schema = `
CREATE TABLE IF NOT EXISTS requirements (
	id          UUID PRIMARY KEY,
	tenant_id   UUID NOT NULL,
	code        TEXT NOT NULL,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL,
	UNIQUE (tenant_id, code)
);
CREATE INDEX IF NOT EXISTS requirements_tenant_idx ON requirements (tenant_id);
`

// Postgres persists requirements in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed requirement store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Postgres) Create(ctx context.Context, req *models.Requirement) error {
	query := `
		INSERT INTO requirements (id, tenant_id, code, title, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT DO NOTHING
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(req.ID), uuid.UUID(req.TenantID),
		req.Code, req.Title, req.Description,
		req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert requirement: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert requirement: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

const requirementColumns = `id, tenant_id, code, title, description, created_at, updated_at`

func (s *Postgres) FindByID(ctx context.Context, tenantID id.TenantID, reqID id.RequirementID) (*models.Requirement, error) {
	query := `SELECT ` + requirementColumns + ` FROM requirements WHERE id = $1 AND tenant_id = $2`
	row := s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(reqID), uuid.UUID(tenantID))
	req, err := scanRequirement(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find requirement: %w", err)
	}
	return req, nil
}

func (s *Postgres) ListByTenant(ctx context.Context, tenantID id.TenantID) ([]*models.Requirement, error) {
	query := `SELECT ` + requirementColumns + ` FROM requirements WHERE tenant_id = $1 ORDER BY code`
	rows, err := s.execer(ctx).QueryContext(ctx, query, uuid.UUID(tenantID))
	if err != nil {
		return nil, fmt.Errorf("list requirements: %w", err)
	}
	defer rows.Close()

	var reqs []*models.Requirement
	for rows.Next() {
		req, err := scanRequirement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan requirement: %w", err)
		}
		reqs = append(reqs, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate requirements: %w", err)
	}
	return reqs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequirement(row rowScanner) (*models.Requirement, error) {
	var (
		reqID    uuid.UUID
		tenantID uuid.UUID
		req      models.Requirement
	)
	err := row.Scan(
		&reqID, &tenantID,
		&req.Code, &req.Title, &req.Description,
		&req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	req.ID = id.RequirementID(reqID)
	req.TenantID = id.TenantID(tenantID)
	return &req, nil
}
