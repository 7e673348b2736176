package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"reguard/internal/access"
	"reguard/internal/applicability/metrics"
	"reguard/internal/applicability/models"
	"reguard/internal/auditlog"
	orgmodels "reguard/internal/org/models"
	reqmodels "reguard/internal/requirement/models"
	id "reguard/pkg/domain"
	dErrors "reguard/pkg/domain-errors"
	"reguard/pkg/platform/sentinel"
	"reguard/pkg/platform/tx"
	"reguard/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

// RuleStore persists the one-per-requirement automatic rule.
type RuleStore interface {
	Upsert(ctx context.Context, rule *models.Rule) (prior *models.Rule, err error)
	Get(ctx context.Context, tenantID id.TenantID, reqID id.RequirementID) (*models.Rule, error)
	Delete(ctx context.Context, tenantID id.TenantID, reqID id.RequirementID) (*models.Rule, error)
}

// MappingStore persists manual overrides keyed by (requirement, organization).
type MappingStore interface {
	Upsert(ctx context.Context, m *models.Mapping) (prior *models.Mapping, err error)
	Delete(ctx context.Context, tenantID id.TenantID, reqID id.RequirementID, orgID id.OrganizationID) (*models.Mapping, error)
	ListByRequirement(ctx context.Context, tenantID id.TenantID, reqID id.RequirementID) ([]*models.Mapping, error)
}

// RequirementDirectory looks up requirements in the tenant's dictionary.
type RequirementDirectory interface {
	FindByID(ctx context.Context, tenantID id.TenantID, reqID id.RequirementID) (*reqmodels.Requirement, error)
}

// OrganizationDirectory looks up organizations and their attribute profiles.
type OrganizationDirectory interface {
	FindByID(ctx context.Context, tenantID id.TenantID, orgID id.OrganizationID) (*orgmodels.Organization, error)
	ListByTenant(ctx context.Context, tenantID id.TenantID) ([]*orgmodels.Organization, error)
}

// AuditRecorder appends an entry describing a mutation this service performed.
type AuditRecorder interface {
	Record(ctx context.Context, actx access.Context, rec auditlog.Record) (auditlog.EntryID, error)
}

// Service decides which requirements apply to which organizations: automatic
// rules evaluated against attribute profiles, with manual overrides on top.
// Every mutation is audited in the same transaction.
type Service struct {
	gate         *access.Gate
	requirements RequirementDirectory
	orgs         OrganizationDirectory
	rules        RuleStore
	mappings     MappingStore
	audit        AuditRecorder
	tx           tx.Runner
	logger       *slog.Logger
	metrics      *metrics.Metrics
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

// WithMetrics attaches module metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService constructs the applicability service.
func NewService(
	gate *access.Gate,
	requirements RequirementDirectory,
	orgs OrganizationDirectory,
	rules RuleStore,
	mappings MappingStore,
	audit AuditRecorder,
	opts ...Option,
) *Service {
	s := &Service{
		gate:         gate,
		requirements: requirements,
		orgs:         orgs,
		rules:        rules,
		mappings:     mappings,
		audit:        audit,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = tx.NewMemoryRunner()
	}
	return s
}

// SetAutomaticRule replaces the requirement's automatic rule. The prior rule
// and the new one are captured in the audit entry, which commits atomically
// with the upsert.
func (s *Service) SetAutomaticRule(ctx context.Context, actx access.Context, reqID id.RequirementID, filter models.FilterRule) error {
	if err := filter.Validate(); err != nil {
		return err
	}
	if err := s.gate.Require(actx, access.PermissionRequirementsManage); err != nil {
		return err
	}
	if err := s.requirementExists(ctx, actx, reqID); err != nil {
		return err
	}

	now := requestcontext.Now(ctx)
	rule := &models.Rule{
		RequirementID: reqID,
		TenantID:      actx.TenantID(),
		Filter:        filter,
		UpdatedBy:     actx.UserID(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		prior, err := s.rules.Upsert(txCtx, rule)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store applicability rule")
		}

		priorValue := valueNone
		if prior != nil {
			priorValue, err = encodeFilter(prior.Filter)
			if err != nil {
				return err
			}
		}
		newValue, err := encodeFilter(filter)
		if err != nil {
			return err
		}

		_, err = s.audit.Record(txCtx, actx, auditlog.Record{
			EventType:    auditlog.EventRuleUpdated,
			ResourceType: auditlog.ResourceApplicabilityRule,
			ResourceID:   reqID.String(),
			Changes: []auditlog.FieldChange{
				{Field: fieldFilter, Prior: priorValue, New: newValue},
			},
		})
		return err
	})
	if err != nil {
		return err
	}

	s.metrics.IncrementMutation("set_rule")
	s.logger.InfoContext(ctx, "automatic rule set",
		"tenant_id", actx.TenantID(),
		"requirement_id", reqID,
	)
	return nil
}

// DeleteAutomaticRule removes the requirement's automatic rule, returning it
// to the applies-to-all default. Succeeds as a no-op, without an audit entry,
// when no rule is stored. Manual overrides are untouched.
func (s *Service) DeleteAutomaticRule(ctx context.Context, actx access.Context, reqID id.RequirementID) error {
	if err := s.gate.Require(actx, access.PermissionRequirementsManage); err != nil {
		return err
	}
	if err := s.requirementExists(ctx, actx, reqID); err != nil {
		return err
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		deleted, err := s.rules.Delete(txCtx, actx.TenantID(), reqID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete applicability rule")
		}

		priorValue, err := encodeFilter(deleted.Filter)
		if err != nil {
			return err
		}
		_, err = s.audit.Record(txCtx, actx, auditlog.Record{
			EventType:    auditlog.EventRuleUpdated,
			ResourceType: auditlog.ResourceApplicabilityRule,
			ResourceID:   reqID.String(),
			Changes: []auditlog.FieldChange{
				{Field: fieldFilter, Prior: priorValue, New: valueNone},
			},
		})
		return err
	})
	if err != nil {
		return err
	}

	s.metrics.IncrementMutation("delete_rule")
	return nil
}

// AddManualOverride upserts an administrator decision for one organization,
// replacing any prior override for the pair.
func (s *Service) AddManualOverride(ctx context.Context, actx access.Context, reqID id.RequirementID, orgID id.OrganizationID, kind models.MappingKind, reason string) error {
	if !kind.Manual() {
		return dErrors.Newf(dErrors.CodeValidation, "mapping kind %q is not a manual override", kind)
	}
	if err := s.gate.Require(actx, access.PermissionRequirementsManage); err != nil {
		return err
	}
	if err := s.requirementExists(ctx, actx, reqID); err != nil {
		return err
	}
	if _, err := s.orgs.FindByID(ctx, actx.TenantID(), orgID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "organization not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load organization")
	}

	now := requestcontext.Now(ctx)
	mapping := &models.Mapping{
		RequirementID:  reqID,
		OrganizationID: orgID,
		TenantID:       actx.TenantID(),
		Kind:           kind,
		Reason:         strings.TrimSpace(reason),
		CreatedBy:      actx.UserID(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		prior, err := s.mappings.Upsert(txCtx, mapping)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store manual override")
		}

		priorKind, priorReason := valueNone, ""
		if prior != nil {
			priorKind, priorReason = string(prior.Kind), prior.Reason
		}
		_, err = s.audit.Record(txCtx, actx, auditlog.Record{
			EventType:    auditlog.EventOverrideAdded,
			ResourceType: auditlog.ResourceApplicabilityMapping,
			ResourceID:   MappingResourceID(reqID, orgID),
			Changes: []auditlog.FieldChange{
				{Field: fieldKind, Prior: priorKind, New: string(mapping.Kind)},
				{Field: fieldReason, Prior: priorReason, New: mapping.Reason},
			},
		})
		return err
	})
	if err != nil {
		return err
	}

	s.metrics.IncrementMutation("add_override")
	s.logger.InfoContext(ctx, "manual override added",
		"tenant_id", actx.TenantID(),
		"requirement_id", reqID,
		"organization_id", orgID,
		"kind", kind,
	)
	return nil
}

// RemoveManualOverride deletes the pair's manual override. Succeeds as a
// no-op, without an audit entry, when no override exists.
func (s *Service) RemoveManualOverride(ctx context.Context, actx access.Context, reqID id.RequirementID, orgID id.OrganizationID) error {
	if err := s.gate.Require(actx, access.PermissionRequirementsManage); err != nil {
		return err
	}
	if err := s.requirementExists(ctx, actx, reqID); err != nil {
		return err
	}

	removed := false
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		deleted, err := s.mappings.Delete(txCtx, actx.TenantID(), reqID, orgID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete manual override")
		}

		_, err = s.audit.Record(txCtx, actx, auditlog.Record{
			EventType:    auditlog.EventOverrideRemoved,
			ResourceType: auditlog.ResourceApplicabilityMapping,
			ResourceID:   MappingResourceID(reqID, orgID),
			Changes: []auditlog.FieldChange{
				{Field: fieldKind, Prior: string(deleted.Kind), New: valueNone},
				{Field: fieldReason, Prior: deleted.Reason, New: ""},
			},
		})
		if err != nil {
			return err
		}
		removed = true
		return nil
	})
	if err != nil {
		return err
	}

	if removed {
		s.metrics.IncrementMutation("remove_override")
	}
	return nil
}

// Resolve computes the requirement's applicability picture across every
// organization in the tenant. Manual overrides always win over the automatic
// verdict; a requirement with no stored rule applies to every organization.
//
// The rule, organization list and override set are read inside one
// transaction so a single call evaluates against one consistent snapshot.
func (s *Service) Resolve(ctx context.Context, actx access.Context, reqID id.RequirementID) (*models.Result, error) {
	if err := s.gate.RequireAuthenticated(actx); err != nil {
		return nil, err
	}

	start := time.Now()
	var (
		rule     *models.Rule
		orgs     []*orgmodels.Organization
		mappings []*models.Mapping
	)
	err := s.tx.RunInSnapshot(ctx, func(txCtx context.Context) error {
		if err := s.requirementExists(txCtx, actx, reqID); err != nil {
			return err
		}

		var err error
		rule, err = s.rules.Get(txCtx, actx.TenantID(), reqID)
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load applicability rule")
		}
		orgs, err = s.orgs.ListByTenant(txCtx, actx.TenantID())
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list organizations")
		}
		mappings, err = s.mappings.ListByRequirement(txCtx, actx.TenantID(), reqID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list manual overrides")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	overrides := make(map[id.OrganizationID]*models.Mapping, len(mappings))
	for _, m := range mappings {
		overrides[m.OrganizationID] = m
	}

	result := &models.Result{RequirementID: reqID}
	for _, org := range orgs {
		verdict := models.OrganizationVerdict{
			OrganizationID:   org.ID,
			OrganizationName: org.Name,
		}
		if m, ok := overrides[org.ID]; ok {
			verdict.Kind = m.Kind
			verdict.Reason = m.Reason
		} else {
			verdict.Kind = automaticVerdict(rule, org.Attributes)
		}
		result.Verdicts = append(result.Verdicts, verdict)

		result.Totals.Organizations++
		if verdict.Applies() {
			result.Totals.Applicable++
		}
		switch verdict.Kind {
		case models.KindAutomaticInclude:
			result.Totals.AutomaticInclude++
		case models.KindAutomaticExclude:
			result.Totals.AutomaticExclude++
		case models.KindManualInclude:
			result.Totals.ManualInclude++
		case models.KindManualExclude:
			result.Totals.ManualExclude++
		}
		s.metrics.IncrementVerdict(string(verdict.Kind))
	}
	sort.Slice(result.Verdicts, func(i, j int) bool {
		return result.Verdicts[i].OrganizationName < result.Verdicts[j].OrganizationName
	})

	s.metrics.ObserveResolveLatency(time.Since(start))
	return result, nil
}

// automaticVerdict evaluates the rule-derived verdict for one organization.
// No stored rule means universal applicability.
func automaticVerdict(rule *models.Rule, attrs orgmodels.Attributes) models.MappingKind {
	if rule == nil {
		return models.KindAutomaticInclude
	}
	if rule.Filter.Matches(attrs) {
		return models.KindAutomaticInclude
	}
	return models.KindAutomaticExclude
}

func (s *Service) requirementExists(ctx context.Context, actx access.Context, reqID id.RequirementID) error {
	if _, err := s.requirements.FindByID(ctx, actx.TenantID(), reqID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "requirement not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load requirement")
	}
	return nil
}

const (
	fieldFilter = "filter"
	fieldKind   = "kind"
	fieldReason = "reason"

	valueNone = "none"
)

// MappingResourceID composes the audit resource id for one override pair.
func MappingResourceID(reqID id.RequirementID, orgID id.OrganizationID) string {
	return reqID.String() + "/" + orgID.String()
}

// ParseMappingResourceID splits a composite override resource id.
func ParseMappingResourceID(raw string) (id.RequirementID, id.OrganizationID, error) {
	reqRaw, orgRaw, ok := strings.Cut(raw, "/")
	if !ok {
		return id.RequirementID{}, id.OrganizationID{}, fmt.Errorf("malformed mapping resource id %q", raw)
	}
	reqID, err := id.ParseRequirementID(reqRaw)
	if err != nil {
		return id.RequirementID{}, id.OrganizationID{}, err
	}
	orgID, err := id.ParseOrganizationID(orgRaw)
	if err != nil {
		return id.RequirementID{}, id.OrganizationID{}, err
	}
	return reqID, orgID, nil
}

func encodeFilter(filter models.FilterRule) (string, error) {
	payload, err := json.Marshal(filter)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode rule filter")
	}
	return string(payload), nil
}
