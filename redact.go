package client

import (
	"net/http"
	"strings"
	"unicode/utf8"
)

const (
	redactedValue = "<redacted>"
	maxLoggedBody = 512
)

var sensitiveHeaders = map[string]struct{}{
	"authorization": {},
	"x-api-key":     {},
}

// RedactHeaders returns a copy of headers with credential values replaced by
// "<redacted>". The input map is not modified.
func RedactHeaders(headers map[string]string) map[string]string {
	redacted := make(map[string]string, len(headers))
	for key, value := range headers {
		if isSensitiveHeader(key) {
			value = redactedValue
		}
		redacted[key] = value
	}
	return redacted
}

func isSensitiveHeader(key string) bool {
	_, ok := sensitiveHeaders[strings.ToLower(strings.TrimSpace(key))]
	return ok
}

// redactHTTPHeader flattens h for logging.
func redactHTTPHeader(h http.Header) map[string]string {
	flat := make(map[string]string, len(h))
	for key, values := range h {
		flat[key] = strings.Join(values, ", ")
	}
	return RedactHeaders(flat)
}

// truncate cuts s to at most n characters.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}

	runes := []rune(s)
	return string(runes[:n])
}
