package client

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/net/publicsuffix"

	"github.com/peteraglen/taf-go-client/logging"
)

// Client is an API client bound to one [Config]. It owns a single pooled
// session shared by all calls and is safe for concurrent use.
type Client struct {
	config     Config
	options    *Options
	session    *resty.Client
	retry      *retryablehttp.Client
	transport  *http.Transport
	headers    map[string]string
	logContext *logging.Context
	log        *slog.Logger
}

// RequestOptions are the per-call settings accepted by [Client.Request]. A
// nil *RequestOptions is the same as the zero value.
type RequestOptions struct {
	// Params are appended to the URL query.
	Params url.Values
	// JSON is serialized as the request body when non-nil.
	JSON any
	// Headers are merged over the session headers for this call only; they
	// win on key collision.
	Headers map[string]string
	// Timeout overrides the config timeout when positive. It applies to
	// each attempt separately; backoff waits between attempts are not
	// counted. Bound the whole call through ctx.
	Timeout time.Duration
}

func (o *RequestOptions) clone() RequestOptions {
	if o == nil {
		return RequestOptions{}
	}
	return *o
}

// New returns a ready to use client for cfg.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.isZero() {
		return nil, &ConfigError{Field: "base_url", Reason: "is required"}
	}

	options := newClientOptions()
	for _, opt := range opts {
		opt(options)
	}

	if err := options.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	lc := options.logContext
	if lc == nil {
		var err error
		lc, err = logging.New(logging.Options{Level: cfg.LogLevel(), Console: os.Stderr})
		if err != nil {
			return nil, fmt.Errorf("failed to configure logging: %w", err)
		}
	}

	requestLogger := options.requestLogger
	if requestLogger == nil {
		requestLogger = lc
	}

	logger := lc.Logger().With("component", "api_client")

	transport := options.transport.Clone()
	if transport.TLSClientConfig == nil {
		transport.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	transport.TLSClientConfig.InsecureSkipVerify = !cfg.VerifySSL()

	retry := retryablehttp.NewClient()
	retry.HTTPClient = &http.Client{Transport: &attemptTimeoutTransport{base: transport}}
	retry.Logger = logger
	retry.RetryMax = cfg.MaxRetries()
	retry.RetryWaitMin = 0
	retry.RetryWaitMax = options.retryMaxWaitTime
	retry.CheckRetry = methodAwarePolicy(options.retryPolicy)
	retry.Backoff = ExponentialBackoff(cfg.BackoffFactor())
	retry.ErrorHandler = passthroughErrorHandler
	retry.RequestLogHook = countAttempt

	httpClient := retry.StandardClient()

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	httpClient.Jar = jar

	headers := make(map[string]string)
	for header, value := range cfg.DefaultHeaders() {
		headers[http.CanonicalHeaderKey(header)] = value
	}
	if key, ok := cfg.APIKey(); ok {
		headers["Authorization"] = "Bearer " + key
	}
	if options.userAgent != "" {
		headers["User-Agent"] = options.userAgent
	}

	session := resty.NewWithClient(httpClient).
		SetLogger(requestLogger).
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal).
		SetHeaders(headers)

	return &Client{
		config:     cfg,
		options:    options,
		session:    session,
		retry:      retry,
		transport:  transport,
		headers:    headers,
		logContext: lc,
		log:        logger,
	}, nil
}

func (c *Client) Config() Config {
	return c.config
}

// LogContext returns the logging context the client writes to.
func (c *Client) LogContext() *logging.Context {
	return c.logContext
}

// Headers returns a copy of the session headers sent with every request.
func (c *Client) Headers() map[string]string {
	return maps.Clone(c.headers)
}

// URL resolves path against the base URL. Absolute http(s) URLs are
// returned unchanged.
func (c *Client) URL(path string) string {
	return joinURL(c.config.BaseURL(), path)
}

func joinURL(baseURL, path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}

	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// Request sends one request through the session's retry policy and returns
// the final response. Non-2xx responses are returned, not raised; only
// transport failures produce a [TransportError].
func (c *Client) Request(ctx context.Context, method, path string, opts *RequestOptions) (*Response, error) {
	if c == nil {
		return nil, ErrNilClient
	}

	o := opts.clone()
	method = strings.ToUpper(strings.TrimSpace(method))
	target := c.URL(path)
	requestID := uuid.NewString()

	var payload []byte
	if o.JSON != nil {
		var err error
		payload, err = json.Marshal(o.JSON)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s %s request body: %w", method, target, err)
		}
	}

	timeout := o.Timeout
	if timeout <= 0 {
		timeout = c.config.Timeout()
	}

	var attempts atomic.Int32
	ctx = context.WithValue(ctx, retryMethodKey{}, method)
	ctx = context.WithValue(ctx, attemptTimeoutKey{}, timeout)
	ctx = context.WithValue(ctx, attemptsKey{}, &attempts)

	req := c.session.R().SetContext(ctx)
	if len(o.Params) > 0 {
		req.SetQueryParamsFromValues(o.Params)
	}
	if payload != nil {
		if !c.hasHeader("Content-Type", o.Headers) {
			req.SetHeader("Content-Type", "application/json")
		}
		req.SetBody(payload)
	}
	if len(o.Headers) > 0 {
		req.SetHeaders(o.Headers)
	}

	if c.log.Enabled(ctx, slog.LevelDebug) {
		c.logRequest(ctx, method, target, requestID, o, req.Header, payload)
	}

	start := time.Now()
	resp, err := req.Execute(method, target)
	elapsed := time.Since(start)

	status := 0
	if err == nil && resp != nil {
		status = resp.StatusCode()
	}
	c.log.InfoContext(ctx, fmt.Sprintf("%s %s in %dms", method, target, elapsed.Milliseconds()),
		"status", status,
		"attempts", attempts.Load(),
		"request_id", requestID,
	)

	if err != nil {
		return nil, &TransportError{Method: method, URL: target, Err: err}
	}

	return &Response{
		Method:     method,
		URL:        target,
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Body:       resp.Body(),
		Duration:   elapsed,
		Attempts:   int(attempts.Load()),
	}, nil
}

// hasHeader reports whether the session or the per-call headers already set
// header.
func (c *Client) hasHeader(header string, callHeaders map[string]string) bool {
	header = http.CanonicalHeaderKey(header)
	if _, ok := c.headers[header]; ok {
		return true
	}
	for key := range callHeaders {
		if http.CanonicalHeaderKey(key) == header {
			return true
		}
	}
	return false
}

func (c *Client) logRequest(ctx context.Context, method, target, requestID string, o RequestOptions, callHeaders http.Header, payload []byte) {
	merged := make(http.Header, len(c.headers)+len(callHeaders))
	for header, value := range c.headers {
		merged.Set(header, value)
	}
	maps.Copy(merged, callHeaders)

	var body any
	if payload != nil {
		body = truncate(string(payload), maxLoggedBody)
	}

	c.log.DebugContext(ctx, fmt.Sprintf("HTTP %s %s", method, target),
		"params", o.Params,
		"headers", redactHTTPHeader(merged),
		"body", body,
		"request_id", requestID,
	)
}

func (c *Client) Get(ctx context.Context, path string, opts *RequestOptions) (*Response, error) {
	return c.Request(ctx, http.MethodGet, path, opts)
}

func (c *Client) Post(ctx context.Context, path string, opts *RequestOptions) (*Response, error) {
	return c.Request(ctx, http.MethodPost, path, opts)
}

func (c *Client) Put(ctx context.Context, path string, opts *RequestOptions) (*Response, error) {
	return c.Request(ctx, http.MethodPut, path, opts)
}

func (c *Client) Patch(ctx context.Context, path string, opts *RequestOptions) (*Response, error) {
	return c.Request(ctx, http.MethodPatch, path, opts)
}

func (c *Client) Delete(ctx context.Context, path string, opts *RequestOptions) (*Response, error) {
	return c.Request(ctx, http.MethodDelete, path, opts)
}

func (c *Client) Head(ctx context.Context, path string, opts *RequestOptions) (*Response, error) {
	return c.Request(ctx, http.MethodHead, path, opts)
}

func (c *Client) Options(ctx context.Context, path string, opts *RequestOptions) (*Response, error) {
	return c.Request(ctx, http.MethodOptions, path, opts)
}

// RequestJSON sends the request, returns a [StatusError] for 4xx and 5xx
// responses and otherwise decodes the JSON body. Every *JSON helper goes
// through it.
func (c *Client) RequestJSON(ctx context.Context, method, path string, opts *RequestOptions) (any, error) {
	resp, err := c.Request(ctx, method, path, opts)
	if err != nil {
		return nil, err
	}

	if err := resp.RaiseForStatus(); err != nil {
		return nil, err
	}

	return resp.Decode()
}

func (c *Client) GetJSON(ctx context.Context, path string, opts *RequestOptions) (any, error) {
	return c.RequestJSON(ctx, http.MethodGet, path, opts)
}

// PostJSON sends body as JSON; body replaces any JSON set in opts.
func (c *Client) PostJSON(ctx context.Context, path string, body any, opts *RequestOptions) (any, error) {
	return c.RequestJSON(ctx, http.MethodPost, path, withJSON(opts, body))
}

func (c *Client) PutJSON(ctx context.Context, path string, body any, opts *RequestOptions) (any, error) {
	return c.RequestJSON(ctx, http.MethodPut, path, withJSON(opts, body))
}

func (c *Client) PatchJSON(ctx context.Context, path string, body any, opts *RequestOptions) (any, error) {
	return c.RequestJSON(ctx, http.MethodPatch, path, withJSON(opts, body))
}

func (c *Client) DeleteJSON(ctx context.Context, path string, opts *RequestOptions) (any, error) {
	return c.RequestJSON(ctx, http.MethodDelete, path, opts)
}

func withJSON(opts *RequestOptions, body any) *RequestOptions {
	o := opts.clone()
	o.JSON = body
	return &o
}

// DoJSON is the typed form of [Client.RequestJSON].
func DoJSON[T any](ctx context.Context, c *Client, method, path string, opts *RequestOptions) (T, error) {
	var out T

	resp, err := c.Request(ctx, method, path, opts)
	if err != nil {
		return out, err
	}

	if err := resp.RaiseForStatus(); err != nil {
		return out, err
	}

	if err := resp.Unmarshal(&out); err != nil {
		var zero T
		return zero, err
	}

	return out, nil
}

// Ping sends GET path and fails unless the response is 2xx.
func (c *Client) Ping(ctx context.Context, path string) error {
	resp, err := c.Get(ctx, path, nil)
	if err != nil {
		return fmt.Errorf("failed to ping API: %w", err)
	}

	if !resp.IsSuccess() {
		return fmt.Errorf("failed to ping API: %w", resp.statusError())
	}

	return nil
}

// Close releases idle pooled connections. The client stays usable.
func (c *Client) Close() {
	if c == nil {
		return
	}
	c.transport.CloseIdleConnections()
}
