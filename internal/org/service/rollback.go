package service

import (
	"context"
	"errors"
	"fmt"

	"reguard/internal/auditlog"
	"reguard/internal/org/models"
	id "reguard/pkg/domain"
	"reguard/pkg/platform/sentinel"
	"reguard/pkg/requestcontext"
)

// AttributesApplier restores the prior attribute profile captured by an
// audit entry.
type AttributesApplier struct {
	store Store
}

// NewAttributesApplier constructs the inverse applier for attribute updates.
func NewAttributesApplier(store Store) *AttributesApplier {
	return &AttributesApplier{store: store}
}

// Restore rewinds each field recorded in the entry to its prior value, on top
// of the organization's current profile. Fields the entry never touched keep
// their current values. When the organization no longer exists there is
// nothing to restore.
func (a *AttributesApplier) Restore(ctx context.Context, entry *auditlog.Entry) (auditlog.RestoreResult, error) {
	orgID, err := id.ParseOrganizationID(entry.ResourceID)
	if err != nil {
		return auditlog.RestoreResult{}, fmt.Errorf("attributes rollback: %w", err)
	}

	org, err := a.store.FindByID(ctx, entry.TenantID, orgID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return auditlog.RestoreResult{}, nil
		}
		return auditlog.RestoreResult{}, fmt.Errorf("attributes rollback: %w", err)
	}

	restored := org.Attributes
	if err := rewindAttributes(&restored, entry.Changes); err != nil {
		return auditlog.RestoreResult{}, fmt.Errorf("attributes rollback: %w", err)
	}

	current, err := a.store.UpdateAttributes(ctx, entry.TenantID, orgID, restored, requestcontext.Now(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return auditlog.RestoreResult{}, nil
		}
		return auditlog.RestoreResult{}, fmt.Errorf("attributes rollback: %w", err)
	}

	return auditlog.RestoreResult{
		Restored: true,
		Changes:  DiffAttributes(current, restored),
	}, nil
}

func rewindAttributes(attrs *models.Attributes, changes []auditlog.FieldChange) error {
	for _, change := range changes {
		var err error
		switch change.Field {
		case fieldKIICategory:
			attrs.KIICategory, err = decodeInt(change.Prior)
		case fieldPDNLevel:
			attrs.PDNLevel, err = decodeInt(change.Prior)
		case fieldIsFinancial:
			attrs.IsFinancial, err = decodeBool(change.Prior)
		case fieldIsHealthcare:
			attrs.IsHealthcare, err = decodeBool(change.Prior)
		case fieldIsGovernment:
			attrs.IsGovernment, err = decodeBool(change.Prior)
		case fieldProcessesForeignData:
			attrs.ProcessesForeignData, err = decodeBool(change.Prior)
		case fieldEmployeeCount:
			attrs.EmployeeCount, err = decodeInt(change.Prior)
		default:
			return fmt.Errorf("unknown attribute field %q", change.Field)
		}
		if err != nil {
			return fmt.Errorf("decode prior %s: %w", change.Field, err)
		}
	}
	return nil
}
