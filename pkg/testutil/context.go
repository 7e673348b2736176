package testutil

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"reguard/internal/access"
	id "reguard/pkg/domain"
)

// NewAccessContext builds an authenticated access context for a fresh user
// and tenant holding the given permissions.
func NewAccessContext(t *testing.T, perms ...access.Permission) access.Context {
	t.Helper()
	return NewAccessContextForTenant(t, id.NewTenantID(), perms...)
}

// NewAccessContextForTenant builds an authenticated access context bound to
// an existing tenant.
func NewAccessContextForTenant(t *testing.T, tenantID id.TenantID, perms ...access.Permission) access.Context {
	t.Helper()
	actx, err := access.NewContext(id.NewUserID(), tenantID, access.NewPermissionSet(perms...))
	require.NoError(t, err, "failed to build access context")
	return actx
}

// WithAccessContext attaches an access context to the request, simulating
// what the auth middleware does for authenticated requests.
func WithAccessContext(req *http.Request, actx access.Context) *http.Request {
	return req.WithContext(access.WithContext(req.Context(), actx))
}
