package executor

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// HeaderRateLimitReset carries the epoch second at which the rate limit window resets.
	HeaderRateLimitReset = "X-RateLimit-Reset"

	rateLimitMarker = "rate limit exceeded"
)

// Policy controls how many attempts a call gets and how long the executor
// waits between them.
type Policy struct {
	MaxAttempts          int
	BackoffUnit          time.Duration
	RateLimitFloor       time.Duration
	RateLimitPadding     time.Duration
	RateLimitDefaultWait time.Duration
}

// DefaultPolicy returns five attempts with 1s, 2s, 4s, 8s transient backoff
// and a rate-limit wait of at least ten seconds.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:          5,
		BackoffUnit:          time.Second,
		RateLimitFloor:       10 * time.Second,
		RateLimitPadding:     time.Second,
		RateLimitDefaultWait: 60 * time.Second,
	}
}

// Validate checks the policy bounds.
func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got %d", p.MaxAttempts)
	}
	if p.MaxAttempts > 20 {
		return fmt.Errorf("max attempts must not exceed 20, got %d", p.MaxAttempts)
	}
	if p.BackoffUnit < 0 || p.RateLimitFloor < 0 || p.RateLimitPadding < 0 || p.RateLimitDefaultWait < 0 {
		return fmt.Errorf("retry durations cannot be negative")
	}
	return nil
}

// Backoff returns the transient wait after the given zero-based attempt: 2^attempt units.
func (p Policy) Backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	return p.BackoffUnit * time.Duration(int64(1)<<uint(attempt))
}

// RateLimitWait returns max(reset - now + padding, floor). A missing or
// unparsable reset header is treated as now + RateLimitDefaultWait.
func (p Policy) RateLimitWait(header http.Header, now time.Time) time.Duration {
	reset := now.Add(p.RateLimitDefaultWait)
	if raw := strings.TrimSpace(header.Get(HeaderRateLimitReset)); raw != "" {
		if epoch, err := strconv.ParseInt(raw, 10, 64); err == nil {
			reset = time.Unix(epoch, 0)
		}
	}
	wait := reset.Sub(now) + p.RateLimitPadding
	if wait < p.RateLimitFloor {
		return p.RateLimitFloor
	}
	return wait
}

// Classify maps a status code and body to an Outcome. It does not know
// about attempts, so it never returns OutcomeExhaustedRetries.
func Classify(statusCode int, body []byte) Outcome {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return OutcomeSuccess
	case statusCode == http.StatusForbidden && isRateLimitBody(body):
		return OutcomeRateLimited
	case statusCode == http.StatusNotFound || statusCode == http.StatusConflict:
		return OutcomeNotFoundOrConflict
	default:
		return OutcomeTransientServerError
	}
}

func isRateLimitBody(body []byte) bool {
	return strings.Contains(strings.ToLower(string(body)), rateLimitMarker)
}
