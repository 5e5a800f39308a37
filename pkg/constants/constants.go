// Package constants defines shared constants for the token lifecycle service.
package constants

import "time"

// ================================================================================
// Service Identity
// ================================================================================

const (
	// ServiceName is used for tracer names, metric namespaces and log fields
	ServiceName = "tokenlife"

	// DefaultLedgerNamespace scopes revocation entries inside a shared store
	DefaultLedgerNamespace = "tokenlife:revoked:"
)

// ================================================================================
// Token Defaults
// ================================================================================

const (
	// DefaultExpiresIn is the token lifetime applied when the caller gives none
	DefaultExpiresIn = "5h"

	// DefaultAlgorithm is the symmetric algorithm used when only a secret is configured
	DefaultAlgorithm = "HS256"

	// InsecureDefaultSecret is used when no key material is configured at all.
	// It exists for development only; a warning is logged whenever it is selected.
	InsecureDefaultSecret = "not a secret"

	// RevokedMessage is the message carried by RevokedError
	RevokedMessage = "Token is invalid"
)

// ================================================================================
// Claim Names
// ================================================================================

const (
	ClaimAuth     = "auth"
	ClaimAccess   = "access"
	ClaimData     = "data"
	ClaimIssuedAt = "iat"
	ClaimExpires  = "exp"
	ClaimID       = "jti"
)

// ================================================================================
// Sweep & Store Defaults
// ================================================================================

const (
	// DefaultSweepInterval is how often the scheduler runs cleanup
	DefaultSweepInterval = 10 * time.Minute

	// DefaultScanPageSize bounds each page fetched while iterating a store
	DefaultScanPageSize = 256

	// DefaultShutdownTimeout is the graceful shutdown timeout
	DefaultShutdownTimeout = 15 * time.Second
)

// Store drivers
const (
	StoreDriverMemory   = "memory"
	StoreDriverRedis    = "redis"
	StoreDriverSQLite   = "sqlite"
	StoreDriverPostgres = "postgres"
)

// ================================================================================
// Logging Constants
// ================================================================================

// LogLevel represents the severity level of log messages
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// ================================================================================
// Context Keys
// ================================================================================

// ContextKey represents keys used in context.Context
type ContextKey string

const (
	// ContextKeyLogger carries a request-scoped logger.Logger
	ContextKeyLogger ContextKey = "logger"

	// ContextKeyTraceID is the key for distributed trace ID in context
	ContextKeyTraceID ContextKey = "trace_id"
)
