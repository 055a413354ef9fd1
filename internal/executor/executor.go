package executor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/go-github/v74/github"
	"github.com/kenil-gopani/automated-pull-shark-repo/internal/clock"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	// DefaultBaseURL is the public GitHub REST endpoint.
	DefaultBaseURL = "https://api.github.com/"

	mediaTypeV3 = "application/vnd.github.v3+json"
	apiVersion  = "2022-11-28"

	headerAPIVersion = "X-GitHub-Api-Version"
)

// Request describes one REST call. Path is relative to the API base URL and
// may start with a slash.
type Request struct {
	Method string
	Path   string
	Body   any
	Query  url.Values
	Header map[string]string
}

func (r Request) String() string {
	return r.Method + " " + r.Path
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return fmt.Errorf("empty response body")
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

// Options configures an Executor.
type Options struct {
	Token   string
	BaseURL string
	Policy  Policy
	Clock   clock.Clock
	Logger  *zap.Logger
	// UserAgent replaces the go-github default when set.
	UserAgent string
	// HTTPClient is the transport wrapped by the token source. Nil uses http.DefaultClient.
	HTTPClient *http.Client
}

// Executor issues GitHub REST calls and retries them according to its Policy.
type Executor struct {
	client     *github.Client
	httpClient *http.Client
	policy     Policy
	clock      clock.Clock
	logger     *zap.Logger
}

// New builds an Executor with a bearer-token transport.
func New(opts Options) (*Executor, error) {
	token := strings.TrimSpace(opts.Token)
	if token == "" {
		return nil, fmt.Errorf("github token is required")
	}
	policy := opts.Policy
	if policy == (Policy{}) {
		policy = DefaultPolicy()
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid retry policy: %w", err)
	}
	ctx := context.Background()
	if opts.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, opts.HTTPClient)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(ctx, ts)
	client := github.NewClient(httpClient)
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api base url %q: %w", baseURL, err)
	}
	client.BaseURL = parsed
	if opts.UserAgent != "" {
		client.UserAgent = opts.UserAgent
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		client:     client,
		httpClient: httpClient,
		policy:     policy,
		clock:      clk,
		logger:     logger,
	}, nil
}

// Policy returns the executor's retry policy.
func (e *Executor) Policy() Policy {
	return e.policy
}

// Do performs req, retrying rate-limited, transient and connection failures.
// A 2xx response is returned as is. 404 and 409 fail on the spot. Everything
// else fails with OutcomeExhaustedRetries once the attempt budget is spent.
func (e *Executor) Do(ctx context.Context, req Request) (*Response, error) {
	var (
		result  *Response
		attempt int
		wait    time.Duration
	)
	maxAttempts := e.policy.MaxAttempts
	backoff := ClockBackoff(ctx, e.clock, func() time.Duration { return wait })
	err := retry.Do(ctx, retry.WithMaxRetries(uint64(maxAttempts-1), backoff), func(ctx context.Context) error {
		current := attempt
		attempt++
		resp, err := e.send(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if attempt >= maxAttempts {
				return &APIError{
					Outcome:  OutcomeExhaustedRetries,
					Method:   req.Method,
					Path:     req.Path,
					Attempts: attempt,
					Cause:    err,
				}
			}
			wait = e.policy.Backoff(current)
			e.logger.Warn("request failed, retrying",
				zap.String("request", req.String()),
				zap.Int("attempt", attempt),
				zap.Duration("wait", wait),
				zap.Error(err))
			return retry.RetryableError(err)
		}
		switch Classify(resp.StatusCode, resp.Body) {
		case OutcomeSuccess:
			result = resp
			return nil
		case OutcomeNotFoundOrConflict:
			return e.failure(OutcomeNotFoundOrConflict, req, resp, attempt)
		case OutcomeRateLimited:
			// No reset wait on the last attempt: nothing would follow it.
			if attempt >= maxAttempts {
				return e.failure(OutcomeExhaustedRetries, req, resp, attempt)
			}
			wait = e.policy.RateLimitWait(resp.Header, e.clock.Now())
			e.logger.Warn("rate limit exceeded, waiting for reset",
				zap.String("request", req.String()),
				zap.Int("attempt", attempt),
				zap.Duration("wait", wait))
			return retry.RetryableError(e.failure(OutcomeRateLimited, req, resp, attempt))
		default:
			if attempt >= maxAttempts {
				return e.failure(OutcomeExhaustedRetries, req, resp, attempt)
			}
			wait = e.policy.Backoff(current)
			e.logger.Warn("unexpected status, retrying",
				zap.String("request", req.String()),
				zap.Int("attempt", attempt),
				zap.Int("status", resp.StatusCode),
				zap.Duration("wait", wait))
			return retry.RetryableError(e.failure(OutcomeTransientServerError, req, resp, attempt))
		}
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, &APIError{
			Outcome:  OutcomeExhaustedRetries,
			Method:   req.Method,
			Path:     req.Path,
			Attempts: attempt,
			Cause:    ErrRetriesExhausted,
		}
	}
	e.logger.Debug("request succeeded",
		zap.String("request", req.String()),
		zap.Int("status", result.StatusCode),
		zap.Int("attempts", attempt))
	return result, nil
}

func (e *Executor) failure(outcome Outcome, req Request, resp *Response, attempt int) *APIError {
	return &APIError{
		Outcome:    outcome,
		Method:     req.Method,
		Path:       req.Path,
		StatusCode: resp.StatusCode,
		Body:       string(resp.Body),
		Attempts:   attempt,
	}
}

// send performs a single HTTP exchange and reads the full body.
func (e *Executor) send(ctx context.Context, req Request) (*Response, error) {
	urlStr := strings.TrimPrefix(req.Path, "/")
	if len(req.Query) > 0 {
		urlStr += "?" + req.Query.Encode()
	}
	httpReq, err := e.client.NewRequest(req.Method, urlStr, req.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq = httpReq.WithContext(ctx)
	httpReq.Header.Set("Accept", mediaTypeV3)
	httpReq.Header.Set(headerAPIVersion, apiVersion)
	for k, v := range req.Header {
		httpReq.Header.Set(k, v)
	}
	httpResp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()
	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
	}, nil
}

// ClockBackoff adapts a clock to retry.Backoff. Next sleeps on clk for the
// duration returned by delay and reports zero to retry.Do, so every wait is
// observable through the injected clock. An interrupted sleep is surfaced by
// retry.Do as the context error.
func ClockBackoff(ctx context.Context, clk clock.Clock, delay func() time.Duration) retry.Backoff {
	return retry.BackoffFunc(func() (time.Duration, bool) {
		// retry.Do checks the context right after Next returns.
		_ = clk.Sleep(ctx, delay())
		return 0, false
	})
}
