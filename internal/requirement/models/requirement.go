package models

import (
	"strings"
	"time"

	"reguard/pkg/domain"
	dErrors "reguard/pkg/domain-errors"
)

// Requirement is a compliance obligation in the tenant's dictionary.
// Which organizations it applies to is decided elsewhere; the dictionary
// only carries identity and descriptive fields.
type Requirement struct {
	ID          domain.RequirementID
	TenantID    domain.TenantID
	Code        string
	Title       string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewRequirement builds a dictionary entry, enforcing construction invariants.
func NewRequirement(tenantID domain.TenantID, code, title, description string, now time.Time) (*Requirement, error) {
	code = strings.TrimSpace(code)
	title = strings.TrimSpace(title)
	if tenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "tenant id is required")
	}
	if code == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "requirement code is required")
	}
	if title == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "requirement title is required")
	}

	return &Requirement{
		ID:          domain.NewRequirementID(),
		TenantID:    tenantID,
		Code:        code,
		Title:       title,
		Description: strings.TrimSpace(description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
