// Package cli implements the taf command line: ad hoc requests and health
// checks against the configured API.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	client "github.com/peteraglen/taf-go-client"
	"github.com/peteraglen/taf-go-client/config"
	"github.com/peteraglen/taf-go-client/logging"
)

// Version is reported in the User-Agent header. Set at build time.
var Version = "dev"

type app struct {
	envFiles []string
	baseURL  string
	logLevel string

	logContext *logging.Context
	client     *client.Client
}

// NewRootCmd returns the taf command tree. Log mirror output goes to the
// command's error stream; results go to its output stream.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "taf",
		Short:         "Send requests to the configured API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringSliceVar(&a.envFiles, "env-file", []string{".env"}, "env files to load, missing files are skipped")
	root.PersistentFlags().StringVar(&a.baseURL, "base-url", "", "override API_BASE_URL")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override API_LOG_LEVEL")

	root.AddCommand(newRequestCmd(a), newHealthCmd(a))

	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	settings, err := config.Load(
		config.WithEnvFiles(a.envFiles...),
		config.WithConsole(cmd.ErrOrStderr()),
	)
	if err != nil {
		return err
	}

	if a.baseURL != "" {
		settings.BaseURL = a.baseURL
	}
	if a.logLevel != "" {
		settings.LogLevel = a.logLevel
	}

	cfg, err := settings.ClientConfig()
	if err != nil {
		return err
	}

	lc, err := logging.New(settings.LogOptions())
	if err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}

	for _, warning := range settings.Warnings {
		lc.Warnf("%s", warning)
	}

	c, err := client.New(cfg,
		client.WithLogContext(lc),
		client.WithUserAgent("taf/"+Version),
	)
	if err != nil {
		_ = lc.Close()
		return err
	}

	a.logContext = lc
	a.client = c

	return nil
}

// run wraps a command body so the client and log file are released even
// when the body fails.
func (a *app) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			err = errors.Join(err, a.teardown())
		}()
		return fn(cmd, args)
	}
}

func (a *app) teardown() error {
	if a.client != nil {
		a.client.Close()
	}
	if a.logContext != nil {
		return a.logContext.Close()
	}
	return nil
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := NewRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)

		var statusErr *client.StatusError
		if errors.As(err, &statusErr) {
			return 2
		}
		return 1
	}

	return 0
}

func writef(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
