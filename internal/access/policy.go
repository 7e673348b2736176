package access

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	dErrors "reguard/pkg/domain-errors"
)

// Policy maps roles to the permissions they grant. It is resolved once at
// startup; per-request resolution happens only from this immutable table.
type Policy struct {
	roles map[Role][]Permission
}

// DefaultPolicy returns the built-in role matrix.
func DefaultPolicy() *Policy {
	return &Policy{roles: map[Role][]Permission{
		RoleAdmin: {
			PermissionRequirementsManage,
			PermissionOrganizationsManage,
			PermissionAuditView,
			PermissionAuditRollback,
		},
		RoleComplianceOfficer: {
			PermissionRequirementsManage,
			PermissionOrganizationsManage,
			PermissionAuditView,
		},
		RoleAuditor: {
			PermissionAuditView,
		},
		RoleViewer: {},
	}}
}

// policyFile is the on-disk YAML shape:
//
//	roles:
//	  admin: ["requirements:manage", "audit:rollback"]
//	  auditor: ["audit:view"]
type policyFile struct {
	Roles map[string][]string `yaml:"roles"`
}

// knownPermissions guards the policy file against typos: an unknown
// permission string would otherwise silently grant nothing.
var knownPermissions = map[Permission]struct{}{
	PermissionRequirementsManage:  {},
	PermissionOrganizationsManage: {},
	PermissionAuditView:           {},
	PermissionAuditRollback:       {},
}

// LoadPolicy reads a role matrix from a YAML file. Roles absent from the file
// fall back to the default matrix.
func LoadPolicy(path string) (*Policy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}

	var file policyFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse policy file: %w", err)
	}

	policy := DefaultPolicy()
	for role, perms := range file.Roles {
		resolved := make([]Permission, 0, len(perms))
		for _, p := range perms {
			perm := Permission(p)
			if _, ok := knownPermissions[perm]; !ok {
				return nil, dErrors.Newf(dErrors.CodeValidation, "unknown permission %q for role %q", p, role)
			}
			resolved = append(resolved, perm)
		}
		policy.roles[Role(role)] = resolved
	}
	return policy, nil
}

// PermissionsFor resolves the union of permissions granted by the roles.
// Unknown roles grant nothing.
func (p *Policy) PermissionsFor(roles []Role) PermissionSet {
	set := NewPermissionSet()
	for _, role := range roles {
		for _, perm := range p.roles[role] {
			set[perm] = struct{}{}
		}
	}
	return set
}
