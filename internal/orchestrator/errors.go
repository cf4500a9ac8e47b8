package orchestrator

import (
	"errors"
	"strings"
)

// ErrRetryNotAllowed is returned when a retry request fails its gate:
// wrong workflow status, exhausted retry budget, or a non-retryable last
// error.
var ErrRetryNotAllowed = errors.New("retry not allowed")

// ErrNotCancellable is returned when cancellation targets a workflow that
// is not currently processing.
var ErrNotCancellable = errors.New("workflow is not processing")

// retryablePatterns are matched case-insensitively against failure
// messages. A hit classifies the failure as transient.
var retryablePatterns = []string{
	"timeout",
	"timed out",
	"connection",
	"network",
	"temporary",
	"rate limit",
	"service unavailable",
	"internal server error",
}

// isRetryable classifies a failure message. Unknown failures are treated
// as permanent.
func isRetryable(message string) bool {
	lowered := strings.ToLower(message)
	for _, p := range retryablePatterns {
		if strings.Contains(lowered, p) {
			return true
		}
	}
	return false
}
