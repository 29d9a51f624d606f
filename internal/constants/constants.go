package constants

import "time"

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 30 * time.Second
	ShutdownTimeout    = 5 * time.Second
)

// OpenDota's free tier allows ~60 calls per minute. A full player step costs
// up to five calls (profile + recent matches + three match details), so the
// sync loop spaces players PlayerSyncDelay apart to stay under the ceiling.
const (
	OpenDotaRequestsPerMinute = 60
	OpenDotaBurst             = 10

	PlayerSyncDelay     = 5 * time.Second
	RegionLookupDelay   = 300 * time.Millisecond
	RegionLookupMatches = 3
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	DefaultSyncInterval = 1 * time.Hour
	DefaultTokenTTL     = 8 * time.Hour
)
