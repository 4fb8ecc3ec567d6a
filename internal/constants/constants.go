package constants

import "time"

const (
	// Per-relay attempt budget. A slow relay gets cancelled so the next one
	// in the rotation can be tried.
	RelayTimeout = 10 * time.Second

	// Upstream 429 handling: fixed backoff, bounded retries of the whole
	// logical request starting again from the first relay.
	RateLimitBackoff = 2 * time.Second
	RateLimitRetries = 2
)

const (
	// Minimum spacing between participants in the enrichment pipeline. Each
	// participant costs two upstream calls, so this keeps the request rate
	// under the development-key quota.
	DefaultEnrichInterval = 300 * time.Millisecond

	TopMasteryCount = 3
)

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 30 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	SearchSuggestionLimit = 10
)
