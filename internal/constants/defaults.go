// Package constants provides shared constant values used throughout the application.
//
// The defaults.go file holds fallback values applied when configuration leaves a
// setting empty.
package constants

import "time"

// Pagination.
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Core configuration defaults.
const (
	// DefaultServerPort is the default HTTP server port.
	DefaultServerPort = 8080

	// DefaultDBMaxConnections is the default maximum number of open database connections.
	DefaultDBMaxConnections = 20

	// DefaultDBMinConnections is the default number of idle connections kept around.
	DefaultDBMinConnections = 5

	// DefaultLogLevel is the default logging verbosity level.
	DefaultLogLevel = "info"

	// DefaultLogFormat is the default logging output format.
	DefaultLogFormat = "json"
)

// Environment names.
const (
	EnvDevelopment = "development"
	EnvTesting     = "testing"
	EnvProduction  = "production"
)

// MaxRequestBodySize is the maximum size in bytes for HTTP request bodies.
const MaxRequestBodySize = 1048576

// Password hashing defaults.
const (
	// HashAlgorithmBcrypt selects golang.org/x/crypto/bcrypt.
	HashAlgorithmBcrypt = "bcrypt"

	// HashAlgorithmArgon2id selects golang.org/x/crypto/argon2 in its id variant.
	HashAlgorithmArgon2id = "argon2id"

	// DefaultBcryptCost is the bcrypt work factor.
	DefaultBcryptCost = 10

	// DefaultPasswordHashMemory is the Argon2id memory cost in KiB.
	DefaultPasswordHashMemory = 64 * 1024

	// DefaultPasswordHashIterations is the Argon2id time cost.
	DefaultPasswordHashIterations = 3

	// DefaultPasswordHashParallelism is the Argon2id thread count.
	DefaultPasswordHashParallelism = 2

	// DefaultPasswordHashSaltLength is the random salt length in bytes.
	DefaultPasswordHashSaltLength = 16

	// DefaultPasswordHashKeyLength is the derived key length in bytes.
	DefaultPasswordHashKeyLength = 32

	// DevPasswordHashMemory keeps development startup fast.
	DevPasswordHashMemory = 16 * 1024

	// DevPasswordHashIterations keeps development startup fast.
	DevPasswordHashIterations = 1
)

// Password reset defaults.
const (
	// DefaultResetTokenExpiry is how long a freshly issued reset token stays redeemable.
	DefaultResetTokenExpiry = 60 * time.Minute

	// DefaultResetCooldown is the minimum gap between two reset emails for one user.
	DefaultResetCooldown = 30 * time.Second

	// DefaultMinPasswordLength is the shortest password the reset flow accepts.
	DefaultMinPasswordLength = 6

	// DefaultResetURL is the link template; %s is replaced by the raw token.
	DefaultResetURL = "http://localhost:3000/reset-password?token=%s&email=%s"

	// ResetTokenBytes is the random payload size of a reset token (256 bits).
	ResetTokenBytes = 32

	// ResetTokenRetention is how long expired reset rows are kept before purging.
	ResetTokenRetention = 24 * time.Hour
)

// Contact form defaults.
const (
	DefaultContactWindow      = 3600 * time.Second
	DefaultContactMaxRequests = 5
)

// Mail defaults.
const (
	DefaultMailFrom     = "no-reply@taskhub.local"
	DefaultMailFromName = "TaskHub"
	DefaultSMTPPort     = 587
)

// Auth defaults.
const (
	// DefaultJWTIssuer is the issuer claim value for JWT tokens.
	DefaultJWTIssuer = "taskhub-api"

	// BearerTokenPrefix is the prefix for Authorization header bearer tokens.
	BearerTokenPrefix = "Bearer "
)

// Metrics defaults.
const (
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "taskhub"
)
