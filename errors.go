package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
)

// ErrNilClient is returned when a method is called on a nil [Client].
var ErrNilClient = errors.New("api client is nil")

var errEmptyBody = errors.New("response body is empty")

// ConfigError is returned by [NewConfig] when a field fails validation.
type ConfigError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid client config: %s %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// TransportError is a request that never produced a response: connection
// refused, DNS failure, TLS failure or timeout, after retries were exhausted.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Timeout reports whether the request failed because a deadline elapsed.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}

	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// StatusError is returned by [Response.RaiseForStatus] and the JSON helpers
// for 4xx and 5xx responses.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Message    string
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: http %d %s: %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode), e.Message)
}

// IsHTTPStatus reports whether err is a [StatusError] with the given code.
func IsHTTPStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

// DecodeError is returned when a response body is not valid JSON.
type DecodeError struct {
	Err  error
	Body []byte
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("invalid JSON response body: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ShapeError is returned when decoded JSON does not have the expected shape,
// e.g. an indexed lookup on a body that is not a list.
type ShapeError struct {
	Expected JSONType
	Actual   JSONType
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("response JSON is not %s (got %s)", e.Expected.article(), e.Actual)
}

// IndexError is returned for a list index outside the decoded array.
type IndexError struct {
	Index  int
	Length int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("index %d out of range for list of length %d", e.Index, e.Length)
}

// TypeMismatchError is returned by [CheckTypes] for the first key that is
// missing or holds a value of the wrong JSON type.
type TypeMismatchError struct {
	Key      string
	Expected JSONType
	Actual   JSONType
	Missing  bool
}

func (e *TypeMismatchError) Error() string {
	if e.Missing {
		return fmt.Sprintf("key %q is missing, expected %s", e.Key, e.Expected)
	}

	return fmt.Sprintf("key %q is %s, expected %s", e.Key, e.Actual, e.Expected)
}

// errorMessage picks a readable message out of an error response body,
// falling back to the raw body.
func errorMessage(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return "(empty error body)"
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, key := range []string{"message", "detail", "error"} {
			if s, ok := payload[key].(string); ok && s != "" {
				return s
			}
		}
	}

	return truncate(trimmed, maxLoggedBody)
}
