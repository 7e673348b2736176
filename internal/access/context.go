package access

import (
	"context"

	id "reguard/pkg/domain"
	dErrors "reguard/pkg/domain-errors"
)

// Context is the per-operation security context: the authenticated principal,
// the tenant it belongs to, and the permission set resolved at construction
// time. The core trusts it completely and performs no further authentication.
type Context struct {
	userID      id.UserID
	tenantID    id.TenantID
	permissions PermissionSet
}

// NewContext builds a security context. Both IDs are required; the permission
// set is copied so later mutations of the argument cannot leak in.
func NewContext(userID id.UserID, tenantID id.TenantID, permissions PermissionSet) (Context, error) {
	if userID.IsNil() {
		return Context{}, dErrors.New(dErrors.CodeUnauthorized, "principal is required")
	}
	if tenantID.IsNil() {
		return Context{}, dErrors.New(dErrors.CodeUnauthorized, "tenant is required")
	}
	return Context{
		userID:      userID,
		tenantID:    tenantID,
		permissions: permissions.clone(),
	}, nil
}

// UserID returns the authenticated principal.
func (c Context) UserID() id.UserID { return c.userID }

// TenantID returns the tenant every store read and write is scoped to.
func (c Context) TenantID() id.TenantID { return c.tenantID }

// Can reports whether the principal holds the permission.
func (c Context) Can(p Permission) bool { return c.permissions.Has(p) }

// IsZero reports whether the context carries no authenticated principal.
func (c Context) IsZero() bool { return c.userID.IsNil() || c.tenantID.IsNil() }

type contextKey struct{}

// WithContext stores the security context in a request context.
func WithContext(ctx context.Context, actx Context) context.Context {
	return context.WithValue(ctx, contextKey{}, actx)
}

// FromContext extracts the security context set by the auth middleware.
func FromContext(ctx context.Context) (Context, bool) {
	actx, ok := ctx.Value(contextKey{}).(Context)
	return actx, ok
}
