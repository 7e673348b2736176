package models

import (
	"slices"
	"time"

	orgmodels "reguard/internal/org/models"
	"reguard/pkg/domain"
	dErrors "reguard/pkg/domain-errors"
)

// FilterRule is the automatic applicability predicate attached to a
// requirement. Every set clause is ANDed; a clause that references an
// attribute the organization has not recorded fails rather than being
// skipped, so an under-specified profile never auto-matches.
//
// Absence of the whole rule (no row stored) means the requirement applies
// to every organization; that case is decided by the caller, not here.
type FilterRule struct {
	KIICategories        []int `json:"kii_categories,omitempty"`
	PDNLevels            []int `json:"pdn_levels,omitempty"`
	IsFinancial          *bool `json:"is_financial,omitempty"`
	IsHealthcare         *bool `json:"is_healthcare,omitempty"`
	IsGovernment         *bool `json:"is_government,omitempty"`
	ProcessesForeignData *bool `json:"processes_foreign_data,omitempty"`
	MinEmployees         *int  `json:"min_employees,omitempty"`
	MaxEmployees         *int  `json:"max_employees,omitempty"`
}

// HasClauses reports whether at least one clause is set.
func (r FilterRule) HasClauses() bool {
	return len(r.KIICategories) > 0 || len(r.PDNLevels) > 0 ||
		r.IsFinancial != nil || r.IsHealthcare != nil || r.IsGovernment != nil ||
		r.ProcessesForeignData != nil ||
		r.MinEmployees != nil || r.MaxEmployees != nil
}

// Validate enforces the construction invariants of a rule. Rules are never
// created empty; an empty rule stored by older data is still evaluable.
func (r FilterRule) Validate() error {
	if !r.HasClauses() {
		return dErrors.New(dErrors.CodeValidation, "rule must contain at least one clause")
	}
	for _, c := range r.KIICategories {
		if c < 1 || c > 3 {
			return dErrors.Newf(dErrors.CodeValidation, "kii category %d out of range", c)
		}
	}
	for _, l := range r.PDNLevels {
		if l < 1 || l > 4 {
			return dErrors.Newf(dErrors.CodeValidation, "pdn level %d out of range", l)
		}
	}
	if r.MinEmployees != nil && *r.MinEmployees < 0 {
		return dErrors.New(dErrors.CodeValidation, "minimum employee count cannot be negative")
	}
	if r.MaxEmployees != nil && *r.MaxEmployees < 0 {
		return dErrors.New(dErrors.CodeValidation, "maximum employee count cannot be negative")
	}
	if r.MinEmployees != nil && r.MaxEmployees != nil && *r.MinEmployees > *r.MaxEmployees {
		return dErrors.New(dErrors.CodeValidation, "minimum employee count exceeds maximum")
	}
	return nil
}

// Matches evaluates the rule against an organization's attribute profile.
// A rule with zero clauses matches nothing.
func (r FilterRule) Matches(attrs orgmodels.Attributes) bool {
	if !r.HasClauses() {
		return false
	}
	if len(r.KIICategories) > 0 {
		if attrs.KIICategory == nil || !slices.Contains(r.KIICategories, *attrs.KIICategory) {
			return false
		}
	}
	if len(r.PDNLevels) > 0 {
		if attrs.PDNLevel == nil || !slices.Contains(r.PDNLevels, *attrs.PDNLevel) {
			return false
		}
	}
	if !boolClauseMatches(r.IsFinancial, attrs.IsFinancial) {
		return false
	}
	if !boolClauseMatches(r.IsHealthcare, attrs.IsHealthcare) {
		return false
	}
	if !boolClauseMatches(r.IsGovernment, attrs.IsGovernment) {
		return false
	}
	if !boolClauseMatches(r.ProcessesForeignData, attrs.ProcessesForeignData) {
		return false
	}
	if r.MinEmployees != nil {
		if attrs.EmployeeCount == nil || *attrs.EmployeeCount < *r.MinEmployees {
			return false
		}
	}
	if r.MaxEmployees != nil {
		if attrs.EmployeeCount == nil || *attrs.EmployeeCount > *r.MaxEmployees {
			return false
		}
	}
	return true
}

func boolClauseMatches(want, have *bool) bool {
	if want == nil {
		return true
	}
	return have != nil && *have == *want
}

// Rule binds a FilterRule to a requirement. One per requirement, upsertable.
type Rule struct {
	RequirementID domain.RequirementID
	TenantID      domain.TenantID
	Filter        FilterRule
	UpdatedBy     domain.UserID
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// MappingKind classifies how an organization ended up in (or out of) a
// requirement's scope.
type MappingKind string

const (
	// KindAutomaticInclude and KindAutomaticExclude are verdicts derived
	// purely from rule evaluation; they are never stored as overrides.
	KindAutomaticInclude MappingKind = "automatic_include"
	KindAutomaticExclude MappingKind = "automatic_exclude"

	// KindManualInclude and KindManualExclude are administrator-asserted
	// overrides; they always win over the automatic verdict.
	KindManualInclude MappingKind = "manual_include"
	KindManualExclude MappingKind = "manual_exclude"
)

// Manual reports whether the kind is an administrator override.
func (k MappingKind) Manual() bool {
	return k == KindManualInclude || k == KindManualExclude
}

// ParseOverrideKind maps the request-level include/exclude choice to the
// stored manual kind.
func ParseOverrideKind(raw string) (MappingKind, error) {
	switch raw {
	case "include":
		return KindManualInclude, nil
	case "exclude":
		return KindManualExclude, nil
	default:
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown override kind %q", raw)
	}
}

// Mapping is a stored manual override for one (requirement, organization)
// pair. At most one exists per pair; upserting replaces the prior one.
type Mapping struct {
	RequirementID  domain.RequirementID
	OrganizationID domain.OrganizationID
	TenantID       domain.TenantID
	Kind           MappingKind
	Reason         string
	CreatedBy      domain.UserID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// OrganizationVerdict is one organization's resolved standing for a
// requirement.
type OrganizationVerdict struct {
	OrganizationID   domain.OrganizationID
	OrganizationName string
	Kind             MappingKind
	Reason           string
}

// Applies reports whether the verdict puts the organization in scope.
func (v OrganizationVerdict) Applies() bool {
	return v.Kind == KindAutomaticInclude || v.Kind == KindManualInclude
}

// Result is the computed applicability picture for one requirement.
// It is recomputed on every read and never persisted.
type Result struct {
	RequirementID domain.RequirementID
	Verdicts      []OrganizationVerdict
	Totals        Totals
}

// Totals aggregates final verdicts per kind bucket.
type Totals struct {
	Organizations    int
	Applicable       int
	AutomaticInclude int
	AutomaticExclude int
	ManualInclude    int
	ManualExclude    int
}
