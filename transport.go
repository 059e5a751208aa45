package client

import (
	"context"
	"io"
	"net/http"
	"time"
)

type attemptTimeoutKey struct{}

// attemptTimeoutTransport gives every round trip its own deadline, read from
// the request context. It sits below the retry layer so backoff and
// Retry-After waits never count against the timeout.
type attemptTimeoutTransport struct {
	base http.RoundTripper
}

func (t *attemptTimeoutTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	timeout, ok := req.Context().Value(attemptTimeoutKey{}).(time.Duration)
	if !ok || timeout <= 0 {
		return t.base.RoundTrip(req)
	}

	ctx, cancel := context.WithTimeout(req.Context(), timeout)

	resp, err := t.base.RoundTrip(req.WithContext(ctx))
	if err != nil {
		cancel()
		return nil, err
	}

	// The deadline also covers reading the body, so it is released on Close.
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}

	return resp, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
