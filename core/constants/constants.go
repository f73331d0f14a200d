package constants

import "time"

// Database defaults
const (
	DatabaseSSLMode         = "disable"
	DatabaseMaxOpenConns    = 25
	DatabaseMaxIdleConns    = 5
	DatabaseConnMaxLifetime = 30 // minutes
)

// DefaultTimeout bounds every service-level operation.
const DefaultTimeout = 10 * time.Second

// Token scopes
const (
	ScopeTokenAccess  = "access"
	ScopeTokenRefresh = "refresh"
)

// Party lifecycle defaults. RestoreGraceWindow is the canonical window a
// host has to bring an expired party back; the product settled on 5
// minutes, configurable through PARTY_RESTORE_GRACE_MINUTES.
const (
	DefaultPartyDuration = 30 * time.Minute
	RestoreGraceWindow   = 5 * time.Minute
	ExpiredPruneInterval = 45 * time.Second
	PartyLockWait        = 2 * time.Second
	MinPartySize         = 1
	MaxPartySize         = 8
)

// Live channel defaults
const (
	LiveSendBuffer   = 16
	LiveDedupWindow  = 512 // remembered (member, ts) keys per subscriber
	LiveChannelScope = "live:party:"
)

// Redis key prefixes
const (
	RedisKeyOccupancy = "party:occupancy:"
)
