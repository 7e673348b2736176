// Package access implements the tenant-scoped access-control gate.
//
// A Context is built once per operation from the authenticated principal and
// is immutable afterwards: permission changes made concurrently by another
// actor never affect an in-flight operation.
package access

// Permission names a capability a principal may hold.
type Permission string

const (
	// PermissionRequirementsManage covers applicability rules and manual
	// overrides on requirements.
	PermissionRequirementsManage Permission = "requirements:manage"

	// PermissionOrganizationsManage covers organization attribute updates.
	PermissionOrganizationsManage Permission = "organizations:manage"

	// PermissionAuditView covers reading the audit trail.
	PermissionAuditView Permission = "audit:view"

	// PermissionAuditRollback covers reverting a logged mutation. Rollback
	// can touch any audited resource, so this stays admin-only by default.
	PermissionAuditRollback Permission = "audit:rollback"
)

// Role is a named bundle of permissions assigned to a principal.
type Role string

const (
	RoleAdmin             Role = "admin"
	RoleComplianceOfficer Role = "compliance_officer"
	RoleAuditor           Role = "auditor"
	RoleViewer            Role = "viewer"
)

// PermissionSet is an immutable-by-convention set of permissions. It is
// populated at context construction and never mutated afterwards.
type PermissionSet map[Permission]struct{}

// NewPermissionSet builds a set from the given permissions.
func NewPermissionSet(perms ...Permission) PermissionSet {
	set := make(PermissionSet, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

// Has reports whether the set contains p.
func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// clone returns an independent copy so a Context cannot be mutated through a
// shared map.
func (s PermissionSet) clone() PermissionSet {
	out := make(PermissionSet, len(s))
	for p := range s {
		out[p] = struct{}{}
	}
	return out
}
