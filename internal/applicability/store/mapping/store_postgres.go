package mapping

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"reguard/internal/applicability/models"
	id "reguard/pkg/domain"
	"reguard/pkg/platform/sentinel"
	txcontext "reguard/pkg/platform/tx"
)

// Schema is applied by migrations and the integration test harness.
const Schema = `
CREATE TABLE IF NOT EXISTS applicability_mappings (
	requirement_id  UUID NOT NULL,
	organization_id UUID NOT NULL,
	tenant_id       UUID NOT NULL,
	kind            TEXT NOT NULL,
	reason          TEXT NOT NULL DEFAULT '',
	created_by      UUID NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (requirement_id, organization_id)
);
CREATE INDEX IF NOT EXISTS applicability_mappings_tenant_idx ON applicability_mappings (tenant_id);
`

// Postgres persists manual overrides in PostgreSQL, one row per
// (requirement, organization) pair.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed mapping store.
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

// Upsert replaces the pair's mapping atomically via the composite primary
// key, so concurrent writers serialize as last-writer-wins. The replaced
// mapping (nil if none) is captured in the same statement.
func (s *Postgres) Upsert(ctx context.Context, m *models.Mapping) (*models.Mapping, error) {
	query := `
		INSERT INTO applicability_mappings (
			requirement_id, organization_id, tenant_id,
			kind, reason, created_by, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (requirement_id, organization_id) DO UPDATE
		SET kind = EXCLUDED.kind,
		    reason = EXCLUDED.reason,
		    created_by = EXCLUDED.created_by,
		    updated_at = EXCLUDED.updated_at
		WHERE applicability_mappings.tenant_id = EXCLUDED.tenant_id
		RETURNING
			(SELECT prior.kind FROM applicability_mappings prior
			 WHERE prior.requirement_id = $1 AND prior.organization_id = $2),
			(SELECT prior.reason FROM applicability_mappings prior
			 WHERE prior.requirement_id = $1 AND prior.organization_id = $2)
	`
	var priorKind, priorReason sql.NullString
	err := s.execer(ctx).QueryRowContext(ctx, query,
		uuid.UUID(m.RequirementID), uuid.UUID(m.OrganizationID), uuid.UUID(m.TenantID),
		string(m.Kind), m.Reason, uuid.UUID(m.CreatedBy),
		m.CreatedAt, m.UpdatedAt,
	).Scan(&priorKind, &priorReason)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Conflict row belongs to another tenant.
			return nil, sentinel.ErrConflict
		}
		return nil, fmt.Errorf("upsert applicability mapping: %w", err)
	}
	if !priorKind.Valid {
		return nil, nil
	}

	return &models.Mapping{
		RequirementID:  m.RequirementID,
		OrganizationID: m.OrganizationID,
		TenantID:       m.TenantID,
		Kind:           models.MappingKind(priorKind.String),
		Reason:         priorReason.String,
	}, nil
}

const mappingColumns = `requirement_id, organization_id, tenant_id, kind, reason, created_by, created_at, updated_at`

func (s *Postgres) Get(ctx context.Context, tenantID id.TenantID, reqID id.RequirementID, orgID id.OrganizationID) (*models.Mapping, error) {
	query := `
		SELECT ` + mappingColumns + `
		FROM applicability_mappings
		WHERE requirement_id = $1 AND organization_id = $2 AND tenant_id = $3
	`
	row := s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(reqID), uuid.UUID(orgID), uuid.UUID(tenantID))
	m, err := scanMapping(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find applicability mapping: %w", err)
	}
	return m, nil
}

func (s *Postgres) Delete(ctx context.Context, tenantID id.TenantID, reqID id.RequirementID, orgID id.OrganizationID) (*models.Mapping, error) {
	query := `
		DELETE FROM applicability_mappings
		WHERE requirement_id = $1 AND organization_id = $2 AND tenant_id = $3
		RETURNING ` + mappingColumns + `
	`
	row := s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(reqID), uuid.UUID(orgID), uuid.UUID(tenantID))
	m, err := scanMapping(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("delete applicability mapping: %w", err)
	}
	return m, nil
}

func (s *Postgres) ListByRequirement(ctx context.Context, tenantID id.TenantID, reqID id.RequirementID) ([]*models.Mapping, error) {
	query := `
		SELECT ` + mappingColumns + `
		FROM applicability_mappings
		WHERE requirement_id = $1 AND tenant_id = $2
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, uuid.UUID(reqID), uuid.UUID(tenantID))
	if err != nil {
		return nil, fmt.Errorf("list applicability mappings: %w", err)
	}
	defer rows.Close()

	var mappings []*models.Mapping
	for rows.Next() {
		m, err := scanMapping(rows)
		if err != nil {
			return nil, fmt.Errorf("scan applicability mapping: %w", err)
		}
		mappings = append(mappings, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applicability mappings: %w", err)
	}
	return mappings, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMapping(row rowScanner) (*models.Mapping, error) {
	var (
		reqID    uuid.UUID
		orgID    uuid.UUID
		tenantID uuid.UUID
		creator  uuid.UUID
		kind     string
		m        models.Mapping
	)
	err := row.Scan(&reqID, &orgID, &tenantID, &kind, &m.Reason, &creator, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.RequirementID = id.RequirementID(reqID)
	m.OrganizationID = id.OrganizationID(orgID)
	m.TenantID = id.TenantID(tenantID)
	m.Kind = models.MappingKind(kind)
	m.CreatedBy = id.UserID(creator)
	return &m, nil
}
