// Package models defines organizations and the attribute profile that
// applicability rules evaluate against.
package models

import (
	"time"

	id "reguard/pkg/domain"
	dErrors "reguard/pkg/domain-errors"
)

// Critical information infrastructure significance categories (1 highest).
const (
	KIICategoryMin = 1
	KIICategoryMax = 3
)

// Personal data protection levels (1 strictest).
const (
	PDNLevelMin = 1
	PDNLevelMax = 4
)

// Attributes is the per-organization fact profile used for rule evaluation.
// Every field is optional: nil means "not recorded", and a rule clause that
// references an unrecorded attribute never matches.
type Attributes struct {
	KIICategory          *int  `json:"kii_category,omitempty"`
	PDNLevel             *int  `json:"pdn_level,omitempty"`
	IsFinancial          *bool `json:"is_financial,omitempty"`
	IsHealthcare         *bool `json:"is_healthcare,omitempty"`
	IsGovernment         *bool `json:"is_government,omitempty"`
	ProcessesForeignData *bool `json:"processes_foreign_data,omitempty"`
	EmployeeCount        *int  `json:"employee_count,omitempty"`
}

// Validate checks range constraints on the recorded fields.
func (a Attributes) Validate() error {
	if a.KIICategory != nil && (*a.KIICategory < KIICategoryMin || *a.KIICategory > KIICategoryMax) {
		return dErrors.Newf(dErrors.CodeValidation, "kii category must be between %d and %d", KIICategoryMin, KIICategoryMax)
	}
	if a.PDNLevel != nil && (*a.PDNLevel < PDNLevelMin || *a.PDNLevel > PDNLevelMax) {
		return dErrors.Newf(dErrors.CodeValidation, "pdn level must be between %d and %d", PDNLevelMin, PDNLevelMax)
	}
	if a.EmployeeCount != nil && *a.EmployeeCount < 0 {
		return dErrors.New(dErrors.CodeValidation, "employee count must not be negative")
	}
	return nil
}

// Organization is a member of a tenant that requirements may apply to.
type Organization struct {
	ID         id.OrganizationID
	TenantID   id.TenantID
	Name       string
	Attributes Attributes
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewOrganization validates invariants and constructs an organization.
func NewOrganization(orgID id.OrganizationID, tenantID id.TenantID, name string, attrs Attributes, now time.Time) (*Organization, error) {
	if orgID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "organization id is required")
	}
	if tenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tenant id is required")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "organization name is required")
	}
	if err := attrs.Validate(); err != nil {
		return nil, err
	}
	return &Organization{
		ID:         orgID,
		TenantID:   tenantID,
		Name:       name,
		Attributes: attrs,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}
