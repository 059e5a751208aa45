// Package config loads API client and harness settings from the environment
// and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	client "github.com/peteraglen/taf-go-client"
	"github.com/peteraglen/taf-go-client/logging"
)

// Environment variable names.
const (
	EnvBaseURL        = "API_BASE_URL"
	EnvTimeout        = "API_TIMEOUT"
	EnvMaxRetries     = "API_MAX_RETRIES"
	EnvBackoffFactor  = "API_BACKOFF_FACTOR"
	EnvVerifySSL      = "API_VERIFY_SSL"
	EnvToken          = "API_TOKEN"
	EnvDefaultHeaders = "API_DEFAULT_HEADERS"
	EnvLogLevel       = "API_LOG_LEVEL"
	EnvReportsDir     = "REPORTS_DIR"
	EnvLogToFile      = "API_LOG_TO_FILE"
	EnvDetailedLogs   = "API_DETAILED_LOGS"
)

var defaults = map[string]any{
	EnvBaseURL:        "https://httpbin.org",
	EnvTimeout:        10,
	EnvMaxRetries:     2,
	EnvBackoffFactor:  0.2,
	EnvVerifySSL:      true,
	EnvToken:          "",
	EnvDefaultHeaders: "",
	EnvLogLevel:       client.DefaultLogLevel,
	EnvReportsDir:     "reports",
	EnvLogToFile:      true,
	EnvDetailedLogs:   true,
}

// Settings is the resolved environment. Timeout is in seconds.
type Settings struct {
	BaseURL       string  `mapstructure:"api_base_url"`
	Timeout       float64 `mapstructure:"api_timeout"`
	MaxRetries    int     `mapstructure:"api_max_retries"`
	BackoffFactor float64 `mapstructure:"api_backoff_factor"`
	VerifySSL     bool    `mapstructure:"api_verify_ssl"`
	Token         string  `mapstructure:"api_token"`
	LogLevel      string  `mapstructure:"api_log_level"`
	ReportsDir    string  `mapstructure:"reports_dir"`
	LogToFile     bool    `mapstructure:"api_log_to_file"`
	DetailedLogs  bool    `mapstructure:"api_detailed_logs"`

	RawDefaultHeaders string `mapstructure:"api_default_headers"`
	// DefaultHeaders is parsed from RawDefaultHeaders. Invalid JSON leaves it
	// empty and adds an entry to Warnings.
	DefaultHeaders map[string]string `mapstructure:"-"`

	// Warnings collects non-fatal problems found while loading, to be logged
	// once logging is configured.
	Warnings []string `mapstructure:"-"`

	console io.Writer
}

type LoadOption func(*loadOptions)

type loadOptions struct {
	envFiles []string
	console  io.Writer
}

// WithEnvFiles replaces the default ".env" file list. Missing files are
// skipped.
func WithEnvFiles(paths ...string) LoadOption {
	return func(o *loadOptions) {
		o.envFiles = slices.Clone(paths)
	}
}

// WithConsole sets the writer used for the detailed log mirror. Defaults to
// os.Stdout.
func WithConsole(w io.Writer) LoadOption {
	return func(o *loadOptions) {
		if w != nil {
			o.console = w
		}
	}
}

// Load resolves Settings from, in order of precedence, the process
// environment, the .env files and the built-in defaults.
func Load(opts ...LoadOption) (*Settings, error) {
	o := &loadOptions{
		envFiles: []string{".env"},
		console:  os.Stdout,
	}
	for _, opt := range opts {
		opt(o)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	for _, path := range o.envFiles {
		values, err := godotenv.Read(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
		}

		// File values only replace defaults; the environment still wins.
		for key, value := range values {
			v.SetDefault(key, value)
		}
	}

	v.AutomaticEnv()

	s := &Settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	s.DefaultHeaders = map[string]string{}
	if raw := strings.TrimSpace(s.RawDefaultHeaders); raw != "" {
		headers, err := parseHeaders(raw)
		if err != nil {
			s.Warnings = append(s.Warnings, fmt.Sprintf("ignoring %s: %v", EnvDefaultHeaders, err))
		} else {
			s.DefaultHeaders = headers
		}
	}

	s.console = o.console

	return s, nil
}

func parseHeaders(raw string) (map[string]string, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil, fmt.Errorf("invalid JSON object: %w", err)
	}

	headers := make(map[string]string, len(obj))
	for key, value := range obj {
		switch t := value.(type) {
		case string:
			headers[key] = t
		case nil:
		default:
			headers[key] = fmt.Sprint(t)
		}
	}

	return headers, nil
}

// ClientConfig builds the validated client configuration.
func (s *Settings) ClientConfig() (client.Config, error) {
	return client.NewConfig(s.BaseURL,
		client.WithTimeout(time.Duration(s.Timeout*float64(time.Second))),
		client.WithMaxRetries(s.MaxRetries),
		client.WithBackoffFactor(s.BackoffFactor),
		client.WithVerifySSL(s.VerifySSL),
		client.WithAPIKey(s.Token),
		client.WithDefaultHeaders(s.DefaultHeaders),
		client.WithLogLevel(s.LogLevel),
	)
}

// LogOptions builds the logging configuration. The console mirror is only
// set when detailed logs are enabled.
func (s *Settings) LogOptions() logging.Options {
	opts := logging.Options{
		Level:       s.LogLevel,
		WriteToFile: s.LogToFile,
		ReportsDir:  s.ReportsDir,
	}
	if s.DetailedLogs {
		opts.Console = s.console
		if opts.Console == nil {
			opts.Console = os.Stdout
		}
	}
	return opts
}
