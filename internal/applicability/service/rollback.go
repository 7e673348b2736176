package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"reguard/internal/applicability/models"
	"reguard/internal/auditlog"
	id "reguard/pkg/domain"
	"reguard/pkg/platform/sentinel"
	"reguard/pkg/requestcontext"
)

// mappingReader extends MappingStore with the point lookup the appliers need
// to capture current state before restoring. Both store implementations
// satisfy it.
type mappingReader interface {
	MappingStore
	Get(ctx context.Context, tenantID id.TenantID, reqID id.RequirementID, orgID id.OrganizationID) (*models.Mapping, error)
}

// RuleApplier restores the prior automatic rule captured by an audit entry.
type RuleApplier struct {
	rules        RuleStore
	requirements RequirementDirectory
}

// NewRuleApplier constructs the inverse applier for automatic rules.
func NewRuleApplier(rules RuleStore, requirements RequirementDirectory) *RuleApplier {
	return &RuleApplier{rules: rules, requirements: requirements}
}

// Restore writes back the rule state recorded as the entry's prior value.
// When the requirement itself no longer exists there is nothing to restore.
func (a *RuleApplier) Restore(ctx context.Context, entry *auditlog.Entry) (auditlog.RestoreResult, error) {
	reqID, err := id.ParseRequirementID(entry.ResourceID)
	if err != nil {
		return auditlog.RestoreResult{}, fmt.Errorf("rule rollback: %w", err)
	}
	change, ok := auditlog.ChangeByField(entry.Changes, fieldFilter)
	if !ok {
		return auditlog.RestoreResult{}, fmt.Errorf("rule rollback: entry %d carries no filter change", entry.ID)
	}

	if _, err := a.requirements.FindByID(ctx, entry.TenantID, reqID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return auditlog.RestoreResult{}, nil
		}
		return auditlog.RestoreResult{}, fmt.Errorf("rule rollback: %w", err)
	}

	currentValue := valueNone
	current, err := a.rules.Get(ctx, entry.TenantID, reqID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return auditlog.RestoreResult{}, fmt.Errorf("rule rollback: %w", err)
	}
	if current != nil {
		currentValue, err = encodeFilter(current.Filter)
		if err != nil {
			return auditlog.RestoreResult{}, err
		}
	}

	if change.Prior == valueNone {
		if _, err := a.rules.Delete(ctx, entry.TenantID, reqID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return auditlog.RestoreResult{}, fmt.Errorf("rule rollback: %w", err)
		}
	} else {
		var filter models.FilterRule
		if err := json.Unmarshal([]byte(change.Prior), &filter); err != nil {
			return auditlog.RestoreResult{}, fmt.Errorf("rule rollback: decode prior filter: %w", err)
		}
		now := requestcontext.Now(ctx)
		if _, err := a.rules.Upsert(ctx, &models.Rule{
			RequirementID: reqID,
			TenantID:      entry.TenantID,
			Filter:        filter,
			UpdatedBy:     entry.ActorID,
			CreatedAt:     now,
			UpdatedAt:     now,
		}); err != nil {
			return auditlog.RestoreResult{}, fmt.Errorf("rule rollback: %w", err)
		}
	}

	return auditlog.RestoreResult{
		Restored: true,
		Changes: []auditlog.FieldChange{
			{Field: fieldFilter, Prior: currentValue, New: change.Prior},
		},
	}, nil
}

// MappingApplier restores the prior manual override captured by an audit
// entry.
type MappingApplier struct {
	mappings mappingReader
	orgs     OrganizationDirectory
}

// NewMappingApplier constructs the inverse applier for manual overrides.
func NewMappingApplier(mappings mappingReader, orgs OrganizationDirectory) *MappingApplier {
	return &MappingApplier{mappings: mappings, orgs: orgs}
}

// Restore writes back the override state recorded as the entry's prior
// values. When the organization no longer exists there is nothing to restore.
func (a *MappingApplier) Restore(ctx context.Context, entry *auditlog.Entry) (auditlog.RestoreResult, error) {
	reqID, orgID, err := ParseMappingResourceID(entry.ResourceID)
	if err != nil {
		return auditlog.RestoreResult{}, fmt.Errorf("override rollback: %w", err)
	}
	kindChange, ok := auditlog.ChangeByField(entry.Changes, fieldKind)
	if !ok {
		return auditlog.RestoreResult{}, fmt.Errorf("override rollback: entry %d carries no kind change", entry.ID)
	}
	reasonChange, _ := auditlog.ChangeByField(entry.Changes, fieldReason)

	if _, err := a.orgs.FindByID(ctx, entry.TenantID, orgID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return auditlog.RestoreResult{}, nil
		}
		return auditlog.RestoreResult{}, fmt.Errorf("override rollback: %w", err)
	}

	currentKind, currentReason := valueNone, ""
	current, err := a.mappings.Get(ctx, entry.TenantID, reqID, orgID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return auditlog.RestoreResult{}, fmt.Errorf("override rollback: %w", err)
	}
	if current != nil {
		currentKind, currentReason = string(current.Kind), current.Reason
	}

	if kindChange.Prior == valueNone {
		if _, err := a.mappings.Delete(ctx, entry.TenantID, reqID, orgID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return auditlog.RestoreResult{}, fmt.Errorf("override rollback: %w", err)
		}
	} else {
		kind := models.MappingKind(kindChange.Prior)
		if !kind.Manual() {
			return auditlog.RestoreResult{}, fmt.Errorf("override rollback: entry %d records non-manual kind %q", entry.ID, kind)
		}
		now := requestcontext.Now(ctx)
		if _, err := a.mappings.Upsert(ctx, &models.Mapping{
			RequirementID:  reqID,
			OrganizationID: orgID,
			TenantID:       entry.TenantID,
			Kind:           kind,
			Reason:         reasonChange.Prior,
			CreatedBy:      entry.ActorID,
			CreatedAt:      now,
			UpdatedAt:      now,
		}); err != nil {
			return auditlog.RestoreResult{}, fmt.Errorf("override rollback: %w", err)
		}
	}

	return auditlog.RestoreResult{
		Restored: true,
		Changes: []auditlog.FieldChange{
			{Field: fieldKind, Prior: currentKind, New: kindChange.Prior},
			{Field: fieldReason, Prior: currentReason, New: reasonChange.Prior},
		},
	}, nil
}
