// Package httpx wraps outbound HTTP calls with a single retry policy shared
// by every network client in the service.
package httpx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy controls how many times a request is attempted and how the
// backoff between attempts grows.
type RetryPolicy struct {
	MaxAttempts     uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy is the policy applied to all affiliate-network and
// Shopify traffic.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
	}
}

// StatusError reports a non-2xx response that survived all retry attempts.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("unexpected status %s: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("unexpected status %s", e.Status)
}

// Retryable reports whether the status code is worth another attempt.
// Rate limits and server errors are transient; everything else is not.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Do executes the request produced by build, retrying transient failures
// according to the policy. The build func is invoked once per attempt so the
// request body can be re-created. On success the caller owns the response
// body; on failure the body has already been drained and closed.
func Do(ctx context.Context, client *http.Client, policy RetryPolicy, build func() (*http.Request, error)) (*http.Response, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = policy.InitialInterval
	bo.MaxInterval = policy.MaxInterval

	attempt := func() (*http.Response, error) {
		req, err := build()
		if err != nil {
			return nil, backoff.Permanent(err)
		}

		resp, err := client.Do(req.WithContext(ctx))
		if err != nil {
			return nil, err
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()

		serr := &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(body)}
		if serr.Retryable() {
			return nil, serr
		}
		return nil, backoff.Permanent(error(serr))
	}

	return backoff.RetryWithData(attempt,
		backoff.WithContext(backoff.WithMaxRetries(bo, policy.MaxAttempts-1), ctx))
}
