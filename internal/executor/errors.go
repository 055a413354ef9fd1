package executor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/go-github/v74/github"
)

// Outcome is the classification of a single HTTP exchange, or of a whole
// call when it is ExhaustedRetries.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeRateLimited
	OutcomeNotFoundOrConflict
	OutcomeTransientServerError
	OutcomeExhaustedRetries
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeRateLimited:
		return "rate_limited"
	case OutcomeNotFoundOrConflict:
		return "not_found_or_conflict"
	case OutcomeTransientServerError:
		return "transient_server_error"
	case OutcomeExhaustedRetries:
		return "exhausted_retries"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

var (
	ErrNotFound         = errors.New("resource not found")
	ErrConflict         = errors.New("resource conflict")
	ErrRetriesExhausted = errors.New("retries exhausted")
)

// APIError is returned by Executor.Do for every failed call. StatusCode is
// zero when the last attempt never received a response.
type APIError struct {
	Outcome    Outcome
	Method     string
	Path       string
	StatusCode int
	Body       string
	Attempts   int
	Cause      error
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", e.Method, e.Path)
	switch e.Outcome {
	case OutcomeNotFoundOrConflict:
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	case OutcomeExhaustedRetries:
		fmt.Fprintf(&b, ": retries exhausted after %d attempt(s)", e.Attempts)
		if e.StatusCode != 0 {
			fmt.Fprintf(&b, ", last status %d", e.StatusCode)
		}
	default:
		fmt.Fprintf(&b, ": %s", e.Outcome)
	}
	if msg := e.Message(); msg != "" {
		fmt.Fprintf(&b, ": %s", msg)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *APIError) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is match the package sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == 404
	case ErrConflict:
		return e.StatusCode == 409
	case ErrRetriesExhausted:
		return e.Outcome == OutcomeExhaustedRetries
	}
	return false
}

// Message extracts the GitHub error message from the body, falling back to
// a trimmed copy of the raw body.
func (e *APIError) Message() string {
	if e.Body == "" {
		return ""
	}
	var resp github.ErrorResponse
	if err := json.Unmarshal([]byte(e.Body), &resp); err == nil && resp.Message != "" {
		return resp.Message
	}
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return body
}

// IsNotFound reports whether err is an API 404.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict reports whether err is an API 409.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// StatusCode returns the final HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
