package gateway

import "errors"

var (
	// ErrForbidden means the upstream rejected the credential. No relay can
	// fix that, so the rotation short-circuits as soon as it is seen.
	ErrForbidden = errors.New("upstream API key invalid or expired")

	// ErrRateLimited is returned once the 429 retry budget is exhausted.
	ErrRateLimited = errors.New("upstream rate limit exceeded")

	// errNotFound is internal: Get converts it to a nil result, because an
	// upstream 404 is a valid state ("no active game"), not a failure.
	errNotFound = errors.New("upstream 404")
)
