// Package requestid assigns every request a correlation ID. Audit entry
// metadata and log lines carry it, so one ID follows a request from the
// edge into the audit log.
package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"reguard/pkg/requestcontext"
)

// Header is the request/response header carrying the correlation ID.
const Header = "X-Request-ID"

// Middleware reuses the caller-supplied X-Request-ID when present and
// generates one otherwise. The ID is echoed on the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(Header)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(Header, requestID)

		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
