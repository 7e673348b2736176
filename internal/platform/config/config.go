// Package config builds runtime configuration from the environment so main
// stays lean. Absent variables fall back to development defaults; an empty
// DATABASE_URL selects the in-memory stores.
package config

import (
	"os"
	"time"
)

// Server captures everything cmd/server needs to wire the process.
type Server struct {
	Addr          string
	DatabaseURL   string
	RedisURL      string
	JWTSigningKey string
	JWTIssuer     string
	RolesFile     string
	DevSeed       bool
}

// ShutdownTimeout bounds graceful shutdown of the HTTP server and the
// audit worker drain.
const ShutdownTimeout = 10 * time.Second

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	addr := os.Getenv("REGUARD_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default - must be overridden in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	issuer := os.Getenv("JWT_ISSUER")
	if issuer == "" {
		issuer = "reguard"
	}

	return Server{
		Addr:          addr,
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		JWTSigningKey: jwtSigningKey,
		JWTIssuer:     issuer,
		RolesFile:     os.Getenv("ROLES_FILE"),
		DevSeed:       os.Getenv("REGUARD_DEV_SEED") == "true",
	}
}
