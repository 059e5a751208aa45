package client

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/peteraglen/taf-go-client/logging"
)

func TestNewClientOptions(t *testing.T) {
	t.Parallel()

	opts := newClientOptions()

	if opts.retryMaxWaitTime != 120*time.Second {
		t.Errorf("expected retryMaxWaitTime=120s, got %v", opts.retryMaxWaitTime)
	}

	if opts.retryPolicy == nil {
		t.Error("expected retryPolicy to be set")
	}

	if opts.transport == nil {
		t.Error("expected transport to be set")
	}

	if opts.requestLogger != nil {
		t.Error("expected requestLogger to default to the log context")
	}
}

func TestWithRetryMaxWaitTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    time.Duration
		expected time.Duration
	}{
		{"valid", 5 * time.Second, 5 * time.Second},
		{"minimum valid", 100 * time.Millisecond, 100 * time.Millisecond},
		{"below minimum ignored", 50 * time.Millisecond, 120 * time.Second}, // default is 120s
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := newClientOptions()
			WithRetryMaxWaitTime(tt.input)(opts)

			if opts.retryMaxWaitTime != tt.expected {
				t.Errorf("expected retryMaxWaitTime=%v, got %v", tt.expected, opts.retryMaxWaitTime)
			}
		})
	}
}

func TestWithRequestLogger(t *testing.T) {
	t.Parallel()

	t.Run("valid logger", func(t *testing.T) {
		t.Parallel()

		opts := newClientOptions()
		logger := logging.Discard()
		WithRequestLogger(logger)(opts)

		if opts.requestLogger != logger {
			t.Error("expected requestLogger to be set")
		}
	})

	t.Run("nil ignored", func(t *testing.T) {
		t.Parallel()

		opts := newClientOptions()
		WithRequestLogger(nil)(opts)

		if opts.requestLogger != nil {
			t.Error("nil logger should be ignored")
		}
	})
}

func TestWithLogContext(t *testing.T) {
	t.Parallel()

	opts := newClientOptions()
	lc := logging.Discard()

	WithLogContext(lc)(opts)
	if opts.logContext != lc {
		t.Error("expected logContext to be set")
	}

	WithLogContext(nil)(opts)
	if opts.logContext != lc {
		t.Error("nil log context should be ignored")
	}
}

func TestWithRetryPolicy(t *testing.T) {
	t.Parallel()

	t.Run("valid policy", func(t *testing.T) {
		t.Parallel()

		opts := newClientOptions()
		policy := func(_ context.Context, _ *http.Response, _ error) (bool, error) { return false, nil }
		WithRetryPolicy(policy)(opts)

		retry, _ := opts.retryPolicy(context.Background(), &http.Response{StatusCode: 500}, nil)
		if retry {
			t.Error("expected custom policy to be used")
		}
	})

	t.Run("nil ignored", func(t *testing.T) {
		t.Parallel()

		opts := newClientOptions()
		WithRetryPolicy(nil)(opts)

		if opts.retryPolicy == nil {
			t.Error("nil policy should be ignored")
		}
	})
}

func TestWithTransport(t *testing.T) {
	t.Parallel()

	opts := newClientOptions()
	transport := &http.Transport{MaxIdleConns: 7}

	WithTransport(transport)(opts)
	if opts.transport != transport {
		t.Error("expected transport to be set")
	}

	WithTransport(nil)(opts)
	if opts.transport != transport {
		t.Error("nil transport should be ignored")
	}
}

func TestWithUserAgent(t *testing.T) {
	t.Parallel()

	opts := newClientOptions()
	WithUserAgent("  taf/1.0 ")(opts)

	if opts.userAgent != "taf/1.0" {
		t.Errorf("expected userAgent=taf/1.0, got %q", opts.userAgent)
	}
}

func TestOptionsValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		modify    func(*Options)
		wantError string
	}{
		{
			name:      "valid defaults",
			modify:    func(_ *Options) {},
			wantError: "",
		},
		{
			name:      "retryMaxWaitTime below minimum",
			modify:    func(o *Options) { o.retryMaxWaitTime = 50 * time.Millisecond },
			wantError: "retryMaxWaitTime must be at least 100ms",
		},
		{
			name:      "retryMaxWaitTime exceeds max",
			modify:    func(o *Options) { o.retryMaxWaitTime = 2 * time.Hour },
			wantError: "retryMaxWaitTime must not exceed 1h0m0s",
		},
		{
			name:      "nil retryPolicy",
			modify:    func(o *Options) { o.retryPolicy = nil },
			wantError: "retryPolicy must not be nil",
		},
		{
			name:      "nil transport",
			modify:    func(o *Options) { o.transport = nil },
			wantError: "transport must not be nil",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := newClientOptions()
			tt.modify(opts)

			err := opts.Validate()

			if tt.wantError == "" {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("expected error containing %q, got nil", tt.wantError)
				} else if err.Error() != tt.wantError {
					t.Errorf("expected error %q, got %q", tt.wantError, err.Error())
				}
			}
		})
	}
}
