package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"reguard/internal/org/models"
	id "reguard/pkg/domain"
	"reguard/pkg/platform/sentinel"
	txcontext "reguard/pkg/platform/tx"
)

// Schema is applied by migrations and the integration test harness.
const Schema = `
CREATE TABLE IF NOT EXISTS organizations (
	id                      UUID PRIMARY KEY,
	tenant_id               UUID NOT NULL,
	name                    TEXT NOT NULL,
	kii_category            INT,
	pdn_level               INT,
	is_financial            BOOLEAN,
	is_healthcare           BOOLEAN,
	is_government           BOOLEAN,
	processes_foreign_data  BOOLEAN,
	employee_count          INT,
	created_at              TIMESTAMPTZ NOT NULL,
	updated_at              TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS organizations_tenant_idx ON organizations (tenant_id);
`

// Postgres persists organizations in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed organization store.
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

func (s *Postgres) Create(ctx context.Context, org *models.Organization) error {
	query := `
		INSERT INTO organizations (
			id, tenant_id, name, kii_category, pdn_level,
			is_financial, is_healthcare, is_government,
			processes_foreign_data, employee_count, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(org.ID), uuid.UUID(org.TenantID), org.Name,
		org.Attributes.KIICategory, org.Attributes.PDNLevel,
		org.Attributes.IsFinancial, org.Attributes.IsHealthcare, org.Attributes.IsGovernment,
		org.Attributes.ProcessesForeignData, org.Attributes.EmployeeCount,
		org.CreatedAt, org.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert organization: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert organization: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

const organizationColumns = `
	id, tenant_id, name, kii_category, pdn_level,
	is_financial, is_healthcare, is_government,
	processes_foreign_data, employee_count, created_at, updated_at
`

func (s *Postgres) FindByID(ctx context.Context, tenantID id.TenantID, orgID id.OrganizationID) (*models.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE id = $1 AND tenant_id = $2`
	row := s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(orgID), uuid.UUID(tenantID))
	org, err := scanOrganization(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find organization: %w", err)
	}
	return org, nil
}

func (s *Postgres) ListByTenant(ctx context.Context, tenantID id.TenantID) ([]*models.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE tenant_id = $1 ORDER BY name`
	rows, err := s.execer(ctx).QueryContext(ctx, query, uuid.UUID(tenantID))
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	defer rows.Close()

	var orgs []*models.Organization
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, fmt.Errorf("scan organization: %w", err)
		}
		orgs = append(orgs, org)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate organizations: %w", err)
	}
	return orgs, nil
}

// UpdateAttributes replaces the attribute profile and returns the previous
// one. The row is locked for the duration of the surrounding transaction so
// concurrent updates serialize.
func (s *Postgres) UpdateAttributes(ctx context.Context, tenantID id.TenantID, orgID id.OrganizationID, attrs models.Attributes, now time.Time) (models.Attributes, error) {
	execer := s.execer(ctx)

	selectQuery := `
		SELECT kii_category, pdn_level, is_financial, is_healthcare, is_government,
		       processes_foreign_data, employee_count
		FROM organizations
		WHERE id = $1 AND tenant_id = $2
		FOR UPDATE
	`
	var prior models.Attributes
	err := execer.QueryRowContext(ctx, selectQuery, uuid.UUID(orgID), uuid.UUID(tenantID)).Scan(
		&prior.KIICategory, &prior.PDNLevel,
		&prior.IsFinancial, &prior.IsHealthcare, &prior.IsGovernment,
		&prior.ProcessesForeignData, &prior.EmployeeCount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Attributes{}, sentinel.ErrNotFound
		}
		return models.Attributes{}, fmt.Errorf("load organization attributes: %w", err)
	}

	updateQuery := `
		UPDATE organizations
		SET kii_category = $3, pdn_level = $4, is_financial = $5, is_healthcare = $6,
		    is_government = $7, processes_foreign_data = $8, employee_count = $9,
		    updated_at = $10
		WHERE id = $1 AND tenant_id = $2
	`
	if _, err := execer.ExecContext(ctx, updateQuery,
		uuid.UUID(orgID), uuid.UUID(tenantID),
		attrs.KIICategory, attrs.PDNLevel,
		attrs.IsFinancial, attrs.IsHealthcare, attrs.IsGovernment,
		attrs.ProcessesForeignData, attrs.EmployeeCount,
		now,
	); err != nil {
		return models.Attributes{}, fmt.Errorf("update organization attributes: %w", err)
	}
	return prior, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrganization(row rowScanner) (*models.Organization, error) {
	var (
		orgID    uuid.UUID
		tenantID uuid.UUID
		org      models.Organization
	)
	err := row.Scan(
		&orgID, &tenantID, &org.Name,
		&org.Attributes.KIICategory, &org.Attributes.PDNLevel,
		&org.Attributes.IsFinancial, &org.Attributes.IsHealthcare, &org.Attributes.IsGovernment,
		&org.Attributes.ProcessesForeignData, &org.Attributes.EmployeeCount,
		&org.CreatedAt, &org.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	org.ID = id.OrganizationID(orgID)
	org.TenantID = id.TenantID(tenantID)
	return &org, nil
}
