// Package domain defines typed identifiers shared across the application.
//
// Each entity gets its own UUID-backed type so that a RequirementID can never
// be passed where an OrganizationID is expected. The compiler enforces what
// would otherwise be a runtime tenancy bug.
package domain

import (
	"fmt"

	"github.com/google/uuid"
)

type (
	// TenantID identifies an isolated customer boundary. Every record in the
	// system belongs to exactly one tenant.
	TenantID uuid.UUID

	// UserID identifies an authenticated principal.
	UserID uuid.UUID

	// OrganizationID identifies an organization within a tenant.
	OrganizationID uuid.UUID

	// RequirementID identifies a regulatory requirement within a tenant.
	RequirementID uuid.UUID
)

func (id TenantID) String() string       { return uuid.UUID(id).String() }
func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id OrganizationID) String() string { return uuid.UUID(id).String() }
func (id RequirementID) String() string  { return uuid.UUID(id).String() }

func (id TenantID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id OrganizationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id RequirementID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }

// parseUUID rejects empty strings, malformed UUIDs, and the nil UUID. The nil
// UUID is never a valid entity identifier and accepting it would let an
// unauthenticated zero value slip through tenant scoping.
func parseUUID(raw string, kind string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, fmt.Errorf("%s is required", kind)
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %w", kind, err)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%s must not be the nil UUID", kind)
	}
	return parsed, nil
}

// ParseTenantID parses and validates a tenant identifier.
func ParseTenantID(raw string) (TenantID, error) {
	parsed, err := parseUUID(raw, "tenant id")
	return TenantID(parsed), err
}

// ParseUserID parses and validates a user identifier.
func ParseUserID(raw string) (UserID, error) {
	parsed, err := parseUUID(raw, "user id")
	return UserID(parsed), err
}

// ParseOrganizationID parses and validates an organization identifier.
func ParseOrganizationID(raw string) (OrganizationID, error) {
	parsed, err := parseUUID(raw, "organization id")
	return OrganizationID(parsed), err
}

// ParseRequirementID parses and validates a requirement identifier.
func ParseRequirementID(raw string) (RequirementID, error) {
	parsed, err := parseUUID(raw, "requirement id")
	return RequirementID(parsed), err
}

// NewTenantID returns a fresh random tenant identifier.
func NewTenantID() TenantID { return TenantID(uuid.New()) }

// NewUserID returns a fresh random user identifier.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewOrganizationID returns a fresh random organization identifier.
func NewOrganizationID() OrganizationID { return OrganizationID(uuid.New()) }

// NewRequirementID returns a fresh random requirement identifier.
func NewRequirementID() RequirementID { return RequirementID(uuid.New()) }
