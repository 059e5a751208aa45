package client

import (
	"net/http"
	"strings"
	"testing"
)

func TestRedactHeaders(t *testing.T) {
	t.Parallel()

	input := map[string]string{
		"Authorization": "Bearer abc",
		"AUTHORIZATION": "Bearer def",
		"x-api-key":     "k1",
		"X-API-Key":     "k2",
		"X-Custom":      "visible",
		"Accept":        "application/json",
	}

	out := RedactHeaders(input)

	for key, value := range out {
		lower := strings.ToLower(key)
		if lower == "authorization" || lower == "x-api-key" {
			if value != "<redacted>" {
				t.Errorf("expected %s to be redacted, got %s", key, value)
			}
			continue
		}
		if value != input[key] {
			t.Errorf("expected %s=%s unchanged, got %s", key, input[key], value)
		}
	}

	if len(out) != len(input) {
		t.Errorf("expected %d keys, got %d", len(input), len(out))
	}

	// Input must not be mutated
	if input["Authorization"] != "Bearer abc" || input["x-api-key"] != "k1" {
		t.Errorf("input was mutated: %v", input)
	}
}

func TestRedactHeaders_Empty(t *testing.T) {
	t.Parallel()

	if out := RedactHeaders(nil); len(out) != 0 {
		t.Errorf("expected empty map, got %v", out)
	}
}

func TestRedactHTTPHeader(t *testing.T) {
	t.Parallel()

	h := http.Header{}
	h.Set("Authorization", "Bearer abc")
	h.Add("Accept", "text/plain")
	h.Add("Accept", "application/json")

	out := redactHTTPHeader(h)

	if out["Authorization"] != "<redacted>" {
		t.Errorf("expected Authorization to be redacted, got %s", out["Authorization"])
	}

	if out["Accept"] != "text/plain, application/json" {
		t.Errorf("expected joined Accept values, got %s", out["Accept"])
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	if got := truncate("hello", 10); got != "hello" {
		t.Errorf("expected hello, got %s", got)
	}

	if got := truncate(strings.Repeat("é", 600), 512); len([]rune(got)) != 512 {
		t.Errorf("expected 512 characters, got %d", len([]rune(got)))
	}
}
