package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

func TestResource_Path(t *testing.T) {
	t.Parallel()

	users := (&Client{}).Resource("/users/")

	tests := []struct {
		sub      string
		expected string
	}{
		{"", "/users/"},
		{"42", "/users/42"},
		{"/42/", "/users/42/"},
	}

	for _, tt := range tests {
		if got := users.Path(tt.sub); got != tt.expected {
			t.Errorf("sub %q: expected %s, got %s", tt.sub, tt.expected, got)
		}
	}
}

func TestResource_Verbs(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var seen []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Method+" "+r.URL.Path)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL+"/api/")
	users := c.Resource("/users")
	ctx := context.Background()

	calls := []func() (*Response, error){
		func() (*Response, error) { return users.Get(ctx, "", nil) },
		func() (*Response, error) { return users.Post(ctx, "", &RequestOptions{JSON: map[string]string{"name": "x"}}) },
		func() (*Response, error) { return users.Put(ctx, "1", nil) },
		func() (*Response, error) { return users.Patch(ctx, "1", nil) },
		func() (*Response, error) { return users.Delete(ctx, "/1", nil) },
	}

	for _, call := range calls {
		if _, err := call(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	expected := []string{
		"GET /api/users",
		"POST /api/users",
		"PUT /api/users/1",
		"PATCH /api/users/1",
		"DELETE /api/users/1",
	}

	if len(seen) != len(expected) {
		t.Fatalf("expected %d requests, got %d: %v", len(expected), len(seen), seen)
	}

	for i := range expected {
		if seen[i] != expected[i] {
			t.Errorf("request %d: expected %s, got %s", i, expected[i], seen[i])
		}
	}
}
