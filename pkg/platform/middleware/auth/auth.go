// Package auth turns bearer tokens into the immutable security context the
// rest of the core consumes. Everything below this middleware trusts the
// context completely, so this is the only place claims are inspected.
package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"reguard/internal/access"
	"reguard/internal/access/revocation"
	"reguard/internal/access/token"
	id "reguard/pkg/domain"
	"reguard/pkg/requestcontext"
)

// Validator verifies a raw bearer token and returns its claims.
type Validator interface {
	ValidateToken(tokenString string) (*token.Claims, error)
}

// RequireAuth validates the bearer token, rejects revoked tokens, resolves
// the principal's permission set from the role policy once, and stores the
// resulting access.Context for handlers. Requests without a usable token get
// a 401 and never reach the core.
func RequireAuth(validator Validator, policy *access.Policy, denylist revocation.Denylist, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(raw)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			if denylist != nil && claims.ID != "" {
				revoked, err := denylist.IsRevoked(ctx, claims.ID)
				if err != nil {
					logger.ErrorContext(ctx, "revocation check failed",
						"error", err,
						"request_id", requestID,
					)
				}
				if revoked {
					writeUnauthorized(w, "Token has been revoked")
					return
				}
			}

			actx, err := buildContext(claims, policy)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - unusable claims",
					"error", err,
					"request_id", requestID,
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(access.WithContext(ctx, actx)))
		})
	}
}

// buildContext resolves claims into an immutable security context. The
// permission set is fixed here; later role changes do not affect this request.
func buildContext(claims *token.Claims, policy *access.Policy) (access.Context, error) {
	userID, err := id.ParseUserID(claims.UserID)
	if err != nil {
		return access.Context{}, err
	}
	tenantID, err := id.ParseTenantID(claims.TenantID)
	if err != nil {
		return access.Context{}, err
	}

	roles := make([]access.Role, 0, len(claims.Roles))
	for _, r := range claims.Roles {
		roles = append(roles, access.Role(r))
	}
	return access.NewContext(userID, tenantID, policy.PermissionsFor(roles))
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
