package client

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultTimeout       = 10 * time.Second
	DefaultMaxRetries    = 3
	DefaultBackoffFactor = 0.3
	DefaultLogLevel      = "INFO"
)

var configValidator = newConfigValidator()

// Config describes how to reach a target API. It is immutable once built by
// [NewConfig]; build a new Config and a new [Client] to change behaviour.
type Config struct {
	v configValues
}

type configValues struct {
	BaseURL        string            `json:"base_url" validate:"required"`
	Timeout        time.Duration     `json:"timeout" validate:"gte=0"`
	MaxRetries     int               `json:"max_retries" validate:"gte=0,lte=100"`
	BackoffFactor  float64           `json:"backoff_factor" validate:"gte=0"`
	VerifySSL      bool              `json:"verify_ssl"`
	APIKey         string            `json:"api_key"`
	DefaultHeaders map[string]string `json:"default_headers"`
	LogLevel       string            `json:"log_level"`
}

type ConfigOption func(*configValues)

// NewConfig validates and returns a Config for baseURL. Only baseURL is
// required; everything else has a default.
func NewConfig(baseURL string, opts ...ConfigOption) (Config, error) {
	v := configValues{
		BaseURL:        strings.TrimSpace(baseURL),
		Timeout:        DefaultTimeout,
		MaxRetries:     DefaultMaxRetries,
		BackoffFactor:  DefaultBackoffFactor,
		VerifySSL:      true,
		DefaultHeaders: map[string]string{},
		LogLevel:       DefaultLogLevel,
	}

	for _, opt := range opts {
		opt(&v)
	}

	if err := configValidator.Struct(v); err != nil {
		return Config{}, toConfigError(err)
	}

	return Config{v: v}, nil
}

func newConfigValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

func toConfigError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ConfigError{Field: "config", Reason: err.Error(), Err: err}
	}

	e := verrs[0]

	var reason string
	switch e.Tag() {
	case "required":
		reason = "is required"
	case "gte":
		reason = fmt.Sprintf("must be at least %s", e.Param())
	case "lte":
		reason = fmt.Sprintf("must not exceed %s", e.Param())
	default:
		reason = fmt.Sprintf("failed %q validation", e.Tag())
	}

	return &ConfigError{Field: e.Field(), Reason: reason, Err: err}
}

func (c Config) isZero() bool {
	return c.v.BaseURL == ""
}

func (c Config) BaseURL() string { return c.v.BaseURL }

// Timeout is the per-request timeout used when a call has no override.
// Zero disables it.
func (c Config) Timeout() time.Duration { return c.v.Timeout }

func (c Config) MaxRetries() int { return c.v.MaxRetries }

func (c Config) BackoffFactor() float64 { return c.v.BackoffFactor }

func (c Config) VerifySSL() bool { return c.v.VerifySSL }

// APIKey returns the bearer token and whether one is set.
func (c Config) APIKey() (string, bool) {
	return c.v.APIKey, c.v.APIKey != ""
}

// DefaultHeaders returns a copy of the headers merged into every request.
func (c Config) DefaultHeaders() map[string]string {
	return maps.Clone(c.v.DefaultHeaders)
}

func (c Config) LogLevel() string { return c.v.LogLevel }

func (c Config) String() string {
	key := ""
	if c.v.APIKey != "" {
		key = redactedValue
	}

	return fmt.Sprintf("Config{base_url=%s timeout=%s max_retries=%d backoff_factor=%g verify_ssl=%t api_key=%q log_level=%s}",
		c.v.BaseURL, c.v.Timeout, c.v.MaxRetries, c.v.BackoffFactor, c.v.VerifySSL, key, c.v.LogLevel)
}

func WithTimeout(timeout time.Duration) ConfigOption {
	return func(v *configValues) {
		v.Timeout = timeout
	}
}

func WithMaxRetries(retries int) ConfigOption {
	return func(v *configValues) {
		v.MaxRetries = retries
	}
}

func WithBackoffFactor(factor float64) ConfigOption {
	return func(v *configValues) {
		v.BackoffFactor = factor
	}
}

func WithVerifySSL(verify bool) ConfigOption {
	return func(v *configValues) {
		v.VerifySSL = verify
	}
}

// WithAPIKey sets the token sent as "Authorization: Bearer <key>".
func WithAPIKey(key string) ConfigOption {
	return func(v *configValues) {
		v.APIKey = strings.TrimSpace(key)
	}
}

func WithDefaultHeader(header, value string) ConfigOption {
	return func(v *configValues) {
		header = strings.TrimSpace(header)
		if header == "" {
			return
		}
		v.DefaultHeaders[header] = value
	}
}

// WithDefaultHeaders merges headers into the default header set.
func WithDefaultHeaders(headers map[string]string) ConfigOption {
	return func(v *configValues) {
		for header, value := range headers {
			WithDefaultHeader(header, value)(v)
		}
	}
}

func WithLogLevel(level string) ConfigOption {
	return func(v *configValues) {
		if level = strings.TrimSpace(level); level != "" {
			v.LogLevel = strings.ToUpper(level)
		}
	}
}
