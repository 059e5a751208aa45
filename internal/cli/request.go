package cli

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	client "github.com/peteraglen/taf-go-client"
)

type requestFlags struct {
	data    string
	headers []string
	params  []string
	timeout time.Duration
	fail    bool
}

func newRequestCmd(a *app) *cobra.Command {
	f := &requestFlags{}

	cmd := &cobra.Command{
		Use:   "request <method> <path>",
		Short: "Send one request and print the response",
		Long: `Send one request through the configured client, with retries, and print
the status line followed by the response body.

Examples:
  taf request GET /status/200
  taf request POST /anything --data '{"hello": "world"}'
  taf request GET /anything -H X-Env=qa -p page=2 --fail`,
		Args: cobra.ExactArgs(2),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			opts, err := f.requestOptions()
			if err != nil {
				return err
			}

			resp, err := a.client.Request(cmd.Context(), args[0], args[1], opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			writef(out, "%s %s -> %d (%d attempts, %dms)\n",
				resp.Method, resp.URL, resp.StatusCode, resp.Attempts, resp.Duration.Milliseconds())
			if len(resp.Body) > 0 {
				writef(out, "%s\n", resp.Text())
			}

			if f.fail {
				return resp.RaiseForStatus()
			}
			return nil
		}),
	}

	cmd.Flags().StringVarP(&f.data, "data", "d", "", "JSON request body")
	cmd.Flags().StringArrayVarP(&f.headers, "header", "H", nil, "request header as key=value, repeatable")
	cmd.Flags().StringArrayVarP(&f.params, "param", "p", nil, "query parameter as key=value, repeatable")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "timeout for each attempt, defaults to API_TIMEOUT")
	cmd.Flags().BoolVar(&f.fail, "fail", false, "exit with an error on 4xx and 5xx responses")

	return cmd
}

func (f *requestFlags) requestOptions() (*client.RequestOptions, error) {
	opts := &client.RequestOptions{Timeout: f.timeout}

	if f.data != "" {
		if !json.Valid([]byte(f.data)) {
			return nil, fmt.Errorf("--data is not valid JSON")
		}
		opts.JSON = json.RawMessage(f.data)
	}

	if len(f.headers) > 0 {
		opts.Headers = make(map[string]string, len(f.headers))
		for _, h := range f.headers {
			key, value, err := splitPair(h)
			if err != nil {
				return nil, fmt.Errorf("invalid --header: %w", err)
			}
			opts.Headers[key] = value
		}
	}

	if len(f.params) > 0 {
		opts.Params = url.Values{}
		for _, p := range f.params {
			key, value, err := splitPair(p)
			if err != nil {
				return nil, fmt.Errorf("invalid --param: %w", err)
			}
			opts.Params.Add(key, value)
		}
	}

	return opts, nil
}

// splitPair accepts key=value and the curl style "key: value".
func splitPair(s string) (string, string, error) {
	sep := "="
	if i := strings.IndexAny(s, "=:"); i >= 0 {
		sep = s[i : i+1]
	}

	key, value, ok := strings.Cut(s, sep)
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", "", fmt.Errorf("expected key=value, got %q", s)
	}

	return key, strings.TrimSpace(value), nil
}
