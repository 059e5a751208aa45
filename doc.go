// Package client provides the HTTP API client used by the test automation
// harness.
//
// The client wraps [github.com/go-resty/resty/v2] for the session (persistent
// headers, request building) and mounts a
// [github.com/hashicorp/go-retryablehttp] round tripper underneath it for
// retries, on top of one pooled transport.
//
// # Basic Usage
//
//	cfg, err := client.NewConfig("https://api.example.com",
//	    client.WithAPIKey("my-token"),
//	    client.WithMaxRetries(5),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	c, err := client.New(cfg, client.WithLogContext(lc))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close()
//
//	resp, err := c.Get(ctx, "/status/200", nil)
//
// # Configuration
//
// [Config] is immutable and validated by [NewConfig]; only the base URL is
// required. Client behaviour that is not part of the config (logging,
// transport, retry policy override) is supplied as [Option] functions passed
// to [New]. Invalid option values are silently ignored and the default is
// retained.
//
// # Retry Behaviour
//
// [DefaultRetryPolicy] retries on HTTP 429, 500, 502, 503 and 504 and on
// connection errors, for HEAD, GET, PUT, POST, DELETE, OPTIONS and PATCH.
// The wait before retry n is backoff_factor * 2^(n-1) seconds unless the
// server sent Retry-After, which wins. When retries run out the last
// response is returned as is; [Client.Request] and the verb methods never
// turn a status code into an error. The *JSON helpers do, through
// [Response.RaiseForStatus].
//
// # Authentication
//
// [WithAPIKey] adds "Authorization: Bearer <key>" to the session headers.
// A per-call Authorization header replaces it for that call only.
//
// # Logging
//
// Each request emits a debug record before sending (method, URL, params,
// headers with Authorization and X-Api-Key redacted, first 512 characters of
// the JSON body) and an info record "<METHOD> <URL> in <N>ms" afterwards.
// Records go to a [logging.Context] owned by the caller.
package client
