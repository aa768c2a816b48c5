package constants

import "time"

const (
	DefaultReadTimeout     = 5 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
)

const (
	DBConnectionTimeout   = 30 * time.Second
	DBQueryTimeout        = 15 * time.Second
	DBHealthCheckTimeout  = 5 * time.Second
	DBConnMaxLifetime     = 1 * time.Hour
	DBConnMaxIdleTime     = 30 * time.Minute
	DBMaintenanceInterval = 1 * time.Hour
)

const (
	DefaultJWTExpiry = 24 * time.Hour
)

const (
	DefaultMailSendTimeout = 5 * time.Second
	// ResetDeliveryTimeout bounds a background reset email across both transports.
	ResetDeliveryTimeout = 3 * DefaultMailSendTimeout
	// DefaultResponseDelay is jittered to between 0.8x and 1.6x, 20-40ms.
	DefaultResponseDelay = 25 * time.Millisecond
)

const (
	DefaultLimiterSweepInterval = 5 * time.Minute
	DefaultClientTimeout        = 10 * time.Second
)
