package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"reguard/internal/access"
	"reguard/internal/auditlog"
	"reguard/internal/org/models"
	id "reguard/pkg/domain"
	dErrors "reguard/pkg/domain-errors"
	"reguard/pkg/platform/sentinel"
	"reguard/pkg/platform/tx"
	"reguard/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

// Store persists organizations and their attribute profiles.
type Store interface {
	Create(ctx context.Context, org *models.Organization) error
	FindByID(ctx context.Context, tenantID id.TenantID, orgID id.OrganizationID) (*models.Organization, error)
	ListByTenant(ctx context.Context, tenantID id.TenantID) ([]*models.Organization, error)
	UpdateAttributes(ctx context.Context, tenantID id.TenantID, orgID id.OrganizationID, attrs models.Attributes, now time.Time) (prior models.Attributes, err error)
}

// AuditRecorder appends an entry describing a mutation this service performed.
type AuditRecorder interface {
	Record(ctx context.Context, actx access.Context, rec auditlog.Record) (auditlog.EntryID, error)
}

// Service manages the organization dictionary. Attribute profile updates are
// the one operation with governance weight: they feed rule evaluation, so
// they are audited field by field.
type Service struct {
	gate   *access.Gate
	store  Store
	audit  AuditRecorder
	tx     tx.Runner
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithTxRunner sets the transaction runner; defaults to the in-memory runner.
func WithTxRunner(runner tx.Runner) Option {
	return func(s *Service) { s.tx = runner }
}

// NewService constructs the organization service.
func NewService(gate *access.Gate, store Store, audit AuditRecorder, opts ...Option) *Service {
	s := &Service{
		gate:   gate,
		store:  store,
		audit:  audit,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = tx.NewMemoryRunner()
	}
	return s
}

// Create registers a new organization in the caller's tenant.
func (s *Service) Create(ctx context.Context, actx access.Context, name string, attrs models.Attributes) (*models.Organization, error) {
	if err := s.gate.Require(actx, access.PermissionOrganizationsManage); err != nil {
		return nil, err
	}

	org, err := models.NewOrganization(id.NewOrganizationID(), actx.TenantID(), name, attrs, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, org); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "organization already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create organization")
	}

	s.logger.InfoContext(ctx, "organization created",
		"tenant_id", actx.TenantID(),
		"organization_id", org.ID,
	)
	return org, nil
}

// Get returns one organization in the caller's tenant.
func (s *Service) Get(ctx context.Context, actx access.Context, orgID id.OrganizationID) (*models.Organization, error) {
	if err := s.gate.RequireAuthenticated(actx); err != nil {
		return nil, err
	}
	org, err := s.store.FindByID(ctx, actx.TenantID(), orgID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "organization not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load organization")
	}
	return org, nil
}

// List returns every organization in the caller's tenant.
func (s *Service) List(ctx context.Context, actx access.Context) ([]*models.Organization, error) {
	if err := s.gate.RequireAuthenticated(actx); err != nil {
		return nil, err
	}
	orgs, err := s.store.ListByTenant(ctx, actx.TenantID())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list organizations")
	}
	return orgs, nil
}

// UpdateAttributes replaces the organization's whole attribute profile and
// audits every changed field. The update and its audit entry commit
// atomically.
func (s *Service) UpdateAttributes(ctx context.Context, actx access.Context, orgID id.OrganizationID, attrs models.Attributes) error {
	if err := attrs.Validate(); err != nil {
		return err
	}
	if err := s.gate.Require(actx, access.PermissionOrganizationsManage); err != nil {
		return err
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		prior, err := s.store.UpdateAttributes(txCtx, actx.TenantID(), orgID, attrs, requestcontext.Now(txCtx))
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "organization not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update organization attributes")
		}

		changes := DiffAttributes(prior, attrs)
		if len(changes) == 0 {
			return nil
		}
		_, err = s.audit.Record(txCtx, actx, auditlog.Record{
			EventType:    auditlog.EventOrgAttributesUpdated,
			ResourceType: auditlog.ResourceOrganization,
			ResourceID:   orgID.String(),
			Changes:      changes,
		})
		return err
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "organization attributes updated",
		"tenant_id", actx.TenantID(),
		"organization_id", orgID,
	)
	return nil
}

// Audit field names for attribute changes. The rollback applier parses the
// same names, so they are part of the stored payload format.
const (
	fieldKIICategory          = "kii_category"
	fieldPDNLevel             = "pdn_level"
	fieldIsFinancial          = "is_financial"
	fieldIsHealthcare         = "is_healthcare"
	fieldIsGovernment         = "is_government"
	fieldProcessesForeignData = "processes_foreign_data"
	fieldEmployeeCount        = "employee_count"

	valueNone = "none"
)

// DiffAttributes serializes the changed fields between two profiles, one
// scalar per field name.
func DiffAttributes(prior, next models.Attributes) []auditlog.FieldChange {
	var changes []auditlog.FieldChange
	appendInt := func(field string, p, n *int) {
		if pv, nv := encodeInt(p), encodeInt(n); pv != nv {
			changes = append(changes, auditlog.FieldChange{Field: field, Prior: pv, New: nv})
		}
	}
	appendBool := func(field string, p, n *bool) {
		if pv, nv := encodeBool(p), encodeBool(n); pv != nv {
			changes = append(changes, auditlog.FieldChange{Field: field, Prior: pv, New: nv})
		}
	}

	appendInt(fieldKIICategory, prior.KIICategory, next.KIICategory)
	appendInt(fieldPDNLevel, prior.PDNLevel, next.PDNLevel)
	appendBool(fieldIsFinancial, prior.IsFinancial, next.IsFinancial)
	appendBool(fieldIsHealthcare, prior.IsHealthcare, next.IsHealthcare)
	appendBool(fieldIsGovernment, prior.IsGovernment, next.IsGovernment)
	appendBool(fieldProcessesForeignData, prior.ProcessesForeignData, next.ProcessesForeignData)
	appendInt(fieldEmployeeCount, prior.EmployeeCount, next.EmployeeCount)
	return changes
}

func encodeInt(v *int) string {
	if v == nil {
		return valueNone
	}
	return strconv.Itoa(*v)
}

func encodeBool(v *bool) string {
	if v == nil {
		return valueNone
	}
	return strconv.FormatBool(*v)
}

func decodeInt(raw string) (*int, error) {
	if raw == valueNone {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func decodeBool(raw string) (*bool, error) {
	if raw == valueNone {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
