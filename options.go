package client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/peteraglen/taf-go-client/logging"
)

type Option func(*Options)

type Options struct {
	retryMaxWaitTime time.Duration
	requestLogger    RequestLogger
	logContext       *logging.Context
	retryPolicy      retryablehttp.CheckRetry
	transport        *http.Transport
	userAgent        string
}

func newClientOptions() *Options {
	return &Options{
		retryMaxWaitTime: 120 * time.Second,
		retryPolicy:      DefaultRetryPolicy,
		transport:        cleanhttp.DefaultPooledTransport(),
	}
}

// WithRetryMaxWaitTime caps the computed exponential backoff. It does not
// cap a server supplied Retry-After.
func WithRetryMaxWaitTime(maxWaitTime time.Duration) Option {
	return func(o *Options) {
		if maxWaitTime >= 100*time.Millisecond {
			o.retryMaxWaitTime = maxWaitTime
		}
	}
}

// WithRequestLogger receives the session's internal warnings and errors.
// Defaults to the client's logging context.
func WithRequestLogger(logger RequestLogger) Option {
	return func(o *Options) {
		if logger != nil {
			o.requestLogger = logger
		}
	}
}

// WithLogContext sets the logging context used for request records. The
// caller owns its lifecycle and level. Without it the client creates its own
// context logging to stderr at the config's log level.
func WithLogContext(lc *logging.Context) Option {
	return func(o *Options) {
		if lc != nil {
			o.logContext = lc
		}
	}
}

func WithRetryPolicy(policy retryablehttp.CheckRetry) Option {
	return func(o *Options) {
		if policy != nil {
			o.retryPolicy = policy
		}
	}
}

// WithTransport sets the pooled transport underneath the retry layer. The
// transport is cloned; TLS verification still follows the config.
func WithTransport(transport *http.Transport) Option {
	return func(o *Options) {
		if transport != nil {
			o.transport = transport
		}
	}
}

func WithUserAgent(userAgent string) Option {
	return func(o *Options) {
		o.userAgent = strings.TrimSpace(userAgent)
	}
}

func (o *Options) Validate() error {
	if o.retryMaxWaitTime < 100*time.Millisecond {
		return errors.New("retryMaxWaitTime must be at least 100ms")
	}

	if o.retryMaxWaitTime > time.Hour {
		return fmt.Errorf("retryMaxWaitTime must not exceed %s", time.Hour)
	}

	if o.retryPolicy == nil {
		return errors.New("retryPolicy must not be nil")
	}

	if o.transport == nil {
		return errors.New("transport must not be nil")
	}

	return nil
}
