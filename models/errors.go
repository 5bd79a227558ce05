package models

import "errors"

var (
	// ErrSourceUnavailable marks an upstream call that failed or returned a
	// non-success status. Optional sources recover locally by substituting
	// null/absent values.
	ErrSourceUnavailable = errors.New("upstream source unavailable")

	// ErrRateLimited marks an upstream-reported throughput rejection. It is
	// a SourceUnavailable for the single call that hit it.
	ErrRateLimited = errors.New("upstream rate limit exceeded")

	// ErrSuperseded marks a response that arrived after a newer request for
	// the same logical slot; callers discard it silently.
	ErrSuperseded = errors.New("response superseded by newer request")
)

// Unavailable reports whether err is a recoverable upstream availability
// failure rather than a hard error such as malformed top-level JSON.
func Unavailable(err error) bool {
	return errors.Is(err, ErrSourceUnavailable) || errors.Is(err, ErrRateLimited)
}
