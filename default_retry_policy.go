package client

import (
	"context"
	"crypto/tls"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// RetryStatusCodes are the response codes [DefaultRetryPolicy] retries.
var RetryStatusCodes = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// RetryMethods are the HTTP methods eligible for retries.
var RetryMethods = map[string]bool{
	http.MethodHead:    true,
	http.MethodGet:     true,
	http.MethodPut:     true,
	http.MethodPost:    true,
	http.MethodDelete:  true,
	http.MethodOptions: true,
	http.MethodPatch:   true,
}

// DefaultRetryPolicy is the default retry condition used by [Client]. It
// retries on HTTP 429, 500, 502, 503 and 504, on connection errors and on
// attempts that ran past the per-attempt timeout. It does not retry once the
// caller's context is done, nor on certificate verification failures.
//
// Supply a custom function via [WithRetryPolicy] to override this behaviour.
func DefaultRetryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	// Don't retry once the caller's deadline or cancellation has fired
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	if err != nil {
		// The caller's context is still live here, so a deadline error came
		// from the per-attempt timeout
		if errors.Is(err, context.Canceled) {
			return false, err
		}

		// A bad certificate will not get better on the next attempt
		var verifyErr *tls.CertificateVerificationError
		if errors.As(err, &verifyErr) {
			return false, err
		}

		return true, nil
	}

	return RetryStatusCodes[resp.StatusCode], nil
}

type retryMethodKey struct{}

type attemptsKey struct{}

// methodAwarePolicy skips retries for methods outside [RetryMethods].
func methodAwarePolicy(policy retryablehttp.CheckRetry) retryablehttp.CheckRetry {
	return func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if method, ok := ctx.Value(retryMethodKey{}).(string); ok && !RetryMethods[method] {
			return false, nil
		}
		return policy(ctx, resp, err)
	}
}

// ExponentialBackoff waits factor * 2^(n-1) seconds before retry n, capped at
// max. A Retry-After header on the previous response takes precedence.
func ExponentialBackoff(factor float64) retryablehttp.Backoff {
	return func(_, maxWait time.Duration, attemptNum int, resp *http.Response) time.Duration {
		if d, ok := retryAfter(resp, time.Now()); ok {
			return d
		}

		// attemptNum is zero for the first retry
		wait := factor * math.Exp2(float64(attemptNum)) * float64(time.Second)
		if maxWait > 0 && wait > float64(maxWait) {
			return maxWait
		}
		if wait <= 0 || math.IsNaN(wait) {
			return 0
		}

		return time.Duration(math.Round(wait))
	}
}

// retryAfter parses Retry-After as delay-seconds or an HTTP date.
func retryAfter(resp *http.Response, now time.Time) (time.Duration, bool) {
	if resp == nil {
		return 0, false
	}

	v := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if v == "" {
		return 0, false
	}

	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second, true
	}

	if t, err := http.ParseTime(v); err == nil {
		d := t.Sub(now)
		if d < 0 {
			d = 0
		}
		return d, true
	}

	return 0, false
}

// passthroughErrorHandler hands the last response back once retries are
// exhausted instead of turning it into an error.
func passthroughErrorHandler(resp *http.Response, err error, _ int) (*http.Response, error) {
	if err != nil {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		return nil, err
	}

	return resp, nil
}

// countAttempt records every attempt on the counter carried by the request
// context.
func countAttempt(_ retryablehttp.Logger, req *http.Request, _ int) {
	if n, ok := req.Context().Value(attemptsKey{}).(*atomic.Int32); ok {
		n.Add(1)
	}
}
