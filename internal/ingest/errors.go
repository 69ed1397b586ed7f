package ingest

import (
	"fmt"
	"time"
)

// HTTPStatusError is a non-2xx response from a data URL.
type HTTPStatusError struct {
	URL        string
	StatusCode int
	RetryAfter time.Duration
}

func (e *HTTPStatusError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("fetch %s: status=%d (retry after %ds)", e.URL, e.StatusCode, int(e.RetryAfter.Seconds()))
	}
	return fmt.Sprintf("fetch %s: status=%d", e.URL, e.StatusCode)
}

// Retryable reports whether the status is worth another attempt.
func (e *HTTPStatusError) Retryable() bool {
	return e.StatusCode == 429 || (e.StatusCode >= 500 && e.StatusCode <= 599)
}

// UnreachableError indicates the data host could not be reached.
type UnreachableError struct {
	Host string
	Err  error
}

func (e *UnreachableError) Error() string {
	if e == nil {
		return "unreachable"
	}
	if e.Host != "" {
		return fmt.Sprintf("host unreachable at %s: %v", e.Host, e.Err)
	}
	return fmt.Sprintf("host unreachable: %v", e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }
