package access

import (
	"log/slog"

	dErrors "reguard/pkg/domain-errors"
)

// Gate evaluates whether a security context satisfies a required permission.
// It fails closed: a zero context or an empty permission set denies everything.
type Gate struct {
	logger *slog.Logger
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithLogger attaches a logger for denial visibility.
func WithLogger(logger *slog.Logger) GateOption {
	return func(g *Gate) { g.logger = logger }
}

// NewGate constructs a Gate.
func NewGate(opts ...GateOption) *Gate {
	g := &Gate{}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Require returns nil when the context holds the permission. It must be
// called before any mutation of shared state. Unauthenticated contexts get
// unauthorized, authenticated ones without the permission get forbidden.
func (g *Gate) Require(actx Context, permission Permission) error {
	if actx.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if !actx.Can(permission) {
		if g.logger != nil {
			g.logger.Warn("permission denied",
				"user_id", actx.UserID(),
				"tenant_id", actx.TenantID(),
				"permission", permission,
			)
		}
		return dErrors.Newf(dErrors.CodeForbidden, "missing permission %q", permission)
	}
	return nil
}

// Check is the non-throwing probe: true only when the context is
// authenticated and holds the permission.
func (g *Gate) Check(actx Context, permission Permission) bool {
	return !actx.IsZero() && actx.Can(permission)
}

// RequireAuthenticated enforces the floor for read operations: the caller
// must be an authenticated member of some tenant, no named permission needed.
func (g *Gate) RequireAuthenticated(actx Context) error {
	if actx.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	return nil
}
