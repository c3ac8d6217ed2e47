package sources

import (
	"context"
	"errors"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// BackoffType selects how retry delays grow.
type BackoffType string

// Backoff strategies.
const (
	BackoffNone        BackoffType = "none"
	BackoffLinear      BackoffType = "linear"
	BackoffExponential BackoffType = "exponential"
)

// CalculateBackoff computes the delay for the next retry attempt.
func CalculateBackoff(
	strategy BackoffType,
	attempt int,
	initialDelay time.Duration,
	maxDelay time.Duration,
) time.Duration {
	switch strategy {
	case BackoffNone:
		return initialDelay
	case BackoffLinear:
		// 1s, 2s, 3s...
		delay := time.Duration(attempt) * initialDelay
		if maxDelay > 0 && delay > maxDelay {
			return maxDelay
		}
		return delay
	case BackoffExponential:
		// 2s, 4s, 8s...
		if attempt > 62 {
			return maxDelay
		}
		delay := time.Duration(1<<attempt) * initialDelay
		if maxDelay > 0 && (delay > maxDelay || delay <= 0) {
			return maxDelay
		}
		return delay
	default:
		return initialDelay
	}
}

// retryBackoff adapts a strategy to the retrying HTTP client, honoring
// Retry-After on 429 and 503 responses.
func retryBackoff(strategy BackoffType) retryablehttp.Backoff {
	return func(minDelay, maxDelay time.Duration, attempt int, resp *http.Response) time.Duration {
		if resp != nil && (resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable) {
			return retryablehttp.DefaultBackoff(minDelay, maxDelay, attempt, resp)
		}
		return CalculateBackoff(strategy, attempt, minDelay, maxDelay)
	}
}

// checkRetry retries transient network errors, 429 and 5xx other than 501.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return isTransientError(err), nil
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return true, nil
	case resp.StatusCode == http.StatusNotImplemented:
		return false, nil
	case resp.StatusCode >= 500:
		return true, nil
	}
	return false, nil
}

// isTransientError checks if an error is likely to be temporary.
func isTransientError(err error) bool {
	if err == nil {
		return false
	}

	// Context errors stop retrying.
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsTemporary {
		return true
	}

	return false
}
