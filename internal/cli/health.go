package cli

import (
	"context"
	"fmt"
	"net/http"
	"reflect"

	"github.com/spf13/cobra"

	client "github.com/peteraglen/taf-go-client"
)

type healthCheck struct {
	name string
	run  func(ctx context.Context, c *client.Client) error
}

var healthChecks = []healthCheck{
	{name: "get_status_ok", run: checkStatusOK},
	{name: "post_json_echo", run: checkJSONEcho},
	{name: "default_headers_roundtrip", run: checkHeadersEcho},
}

func newHealthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Run the smoke checks against an httpbin compatible API",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			failed := 0
			for _, check := range healthChecks {
				a.logContext.TestName(check.name)

				if err := check.run(cmd.Context(), a.client); err != nil {
					failed++
					a.logContext.Errorf("%s failed: %v", check.name, err)
					writef(out, "FAIL %s: %v\n", check.name, err)
					continue
				}

				writef(out, "PASS %s\n", check.name)
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d health checks failed", failed, len(healthChecks))
			}
			return nil
		}),
	}
}

func checkStatusOK(ctx context.Context, c *client.Client) error {
	resp, err := c.Get(ctx, "/status/200", nil)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("expected status 200, got %d", resp.StatusCode)
	}
	return nil
}

func checkJSONEcho(ctx context.Context, c *client.Client) error {
	payload := map[string]any{"hello": "world"}

	body, err := c.PostJSON(ctx, "/anything", payload, nil)
	if err != nil {
		return err
	}

	obj, ok := body.(map[string]any)
	if !ok {
		return fmt.Errorf("expected a JSON object, got %s", client.TypeOf(body))
	}

	if !reflect.DeepEqual(obj["json"], payload) {
		return fmt.Errorf("expected echoed json %v, got %v", payload, obj["json"])
	}
	return nil
}

func checkHeadersEcho(ctx context.Context, c *client.Client) error {
	resp, err := c.Get(ctx, "/anything", nil)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("expected status 200, got %d", resp.StatusCode)
	}

	body, err := resp.Decode()
	if err != nil {
		return err
	}

	obj, _ := body.(map[string]any)
	headers, ok := obj["headers"].(map[string]any)
	if !ok {
		return fmt.Errorf("response has no headers object")
	}

	if _, ok := headers["User-Agent"]; !ok {
		return fmt.Errorf("User-Agent was not echoed")
	}
	return nil
}
