package news

import (
	"errors"
	"fmt"
)

// ErrInvalidInput marks user-correctable input problems (bad date, unknown
// enum value, malformed body).
var ErrInvalidInput = errors.New("invalid input")

// ErrRateLimited is returned when the daily manual-fetch budget is spent.
var ErrRateLimited = errors.New("rate limit exceeded")

// UpstreamError reports a non-success response from an external feed. The
// status and detail are surfaced to the caller as-is.
type UpstreamError struct {
	Upstream string
	Status   int
	Detail   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Upstream, e.Status, e.Detail)
}
