package rule

import (
	"context"
	"database/sql"
	"encoding/json"
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
CREATE TABLE IF NOT EXISTS applicability_rules (
	requirement_id UUID PRIMARY KEY,
	tenant_id      UUID NOT NULL,
	filter         JSONB NOT NULL,
	updated_by     UUID NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS applicability_rules_tenant_idx ON applicability_rules (tenant_id);
`

// Postgres persists automatic rules in PostgreSQL, one row per requirement.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed rule store.
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

// Upsert replaces the requirement's rule atomically via the primary-key
// conflict target, so concurrent writers never lose an update. The replaced
// rule (nil if none) is captured in the same statement.
func (s *Postgres) Upsert(ctx context.Context, rule *models.Rule) (*models.Rule, error) {
	payload, err := json.Marshal(rule.Filter)
	if err != nil {
		return nil, fmt.Errorf("marshal rule filter: %w", err)
	}

	query := `
		INSERT INTO applicability_rules (requirement_id, tenant_id, filter, updated_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (requirement_id) DO UPDATE
		SET filter = EXCLUDED.filter,
		    updated_by = EXCLUDED.updated_by,
		    updated_at = EXCLUDED.updated_at
		WHERE applicability_rules.tenant_id = EXCLUDED.tenant_id
		RETURNING (SELECT filter FROM applicability_rules prior WHERE prior.requirement_id = $1)
	`
	var priorPayload []byte
	err = s.execer(ctx).QueryRowContext(ctx, query,
		uuid.UUID(rule.RequirementID), uuid.UUID(rule.TenantID),
		payload, uuid.UUID(rule.UpdatedBy),
		rule.CreatedAt, rule.UpdatedAt,
	).Scan(&priorPayload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Conflict row belongs to another tenant, so the guarded
			// update matched nothing.
			return nil, sentinel.ErrConflict
		}
		return nil, fmt.Errorf("upsert applicability rule: %w", err)
	}
	if priorPayload == nil {
		return nil, nil
	}

	prior := &models.Rule{
		RequirementID: rule.RequirementID,
		TenantID:      rule.TenantID,
	}
	if err := json.Unmarshal(priorPayload, &prior.Filter); err != nil {
		return nil, fmt.Errorf("unmarshal prior rule filter: %w", err)
	}
	return prior, nil
}

func (s *Postgres) Get(ctx context.Context, tenantID id.TenantID, reqID id.RequirementID) (*models.Rule, error) {
	query := `
		SELECT requirement_id, tenant_id, filter, updated_by, created_at, updated_at
		FROM applicability_rules
		WHERE requirement_id = $1 AND tenant_id = $2
	`
	row := s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(reqID), uuid.UUID(tenantID))
	rule, err := scanRule(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find applicability rule: %w", err)
	}
	return rule, nil
}

func (s *Postgres) Delete(ctx context.Context, tenantID id.TenantID, reqID id.RequirementID) (*models.Rule, error) {
	query := `
		DELETE FROM applicability_rules
		WHERE requirement_id = $1 AND tenant_id = $2
		RETURNING requirement_id, tenant_id, filter, updated_by, created_at, updated_at
	`
	row := s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(reqID), uuid.UUID(tenantID))
	rule, err := scanRule(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("delete applicability rule: %w", err)
	}
	return rule, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(row rowScanner) (*models.Rule, error) {
	var (
		reqID    uuid.UUID
		tenantID uuid.UUID
		updater  uuid.UUID
		payload  []byte
		rule     models.Rule
	)
	err := row.Scan(&reqID, &tenantID, &payload, &updater, &rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, &rule.Filter); err != nil {
		return nil, fmt.Errorf("unmarshal rule filter: %w", err)
	}
	rule.RequirementID = id.RequirementID(reqID)
	rule.TenantID = id.TenantID(tenantID)
	rule.UpdatedBy = id.UserID(updater)
	return &rule, nil
}
