package logging

import (
	"bytes"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"Warning", slog.LevelWarn},
		{"warn", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"CRITICAL", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestConfigure_ResetsHandlers(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	opts := Options{
		Level:       "INFO",
		WriteToFile: true,
		ReportsDir:  "reports",
		Console:     &bytes.Buffer{},
		Fs:          fs,
	}

	lc, err := New(opts)
	require.NoError(t, err)
	assert.Equal(t, 2, lc.HandlerCount())

	for i := 0; i < 3; i++ {
		require.NoError(t, lc.Configure(opts))
		assert.Equal(t, 2, lc.HandlerCount())
	}

	require.NoError(t, lc.Close())
	assert.Equal(t, 0, lc.HandlerCount())
}

func TestConfigure_WritesFile(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	lc, err := New(Options{
		Level:       "DEBUG",
		WriteToFile: true,
		ReportsDir:  "out",
		Filename:    "run.log",
		Fs:          fs,
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("out", "run.log"), lc.LogFile())

	_, _, line, _ := runtime.Caller(0)
	lc.Logger().Info("GET https://example.com/a in 12ms", "status", 200)
	lc.Logger().Debug("debug line")
	require.NoError(t, lc.Close())

	data, err := afero.ReadFile(fs, filepath.Join("out", "run.log"))
	require.NoError(t, err)

	content := string(data)
	assert.Contains(t, content, "INFO")
	assert.Contains(t, content, "GET https://example.com/a in 12ms")
	assert.Contains(t, content, "status=200")
	assert.Contains(t, content, "DEBU")
	assert.Contains(t, content, "debug line")

	// Records carry the timestamp and the logging call site
	assert.Regexp(t, `\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}`, content)
	assert.Contains(t, content, fmt.Sprintf("logging_test.go:%d", line+1))
	assert.Contains(t, content, fmt.Sprintf("logging_test.go:%d", line+2))
	assert.NotContains(t, content, "handler.go:")
	assert.NotContains(t, content, "logging.go:")
}

func TestPrintfLogger_CallSite(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	lc, err := New(Options{Level: "DEBUG", WriteToFile: true, Filename: "run.log", Fs: fs})
	require.NoError(t, err)

	_, _, line, _ := runtime.Caller(0)
	lc.Warnf("slow response: %dms", 900)
	lc.TestName("test_get_status_ok")
	require.NoError(t, lc.Close())

	data, err := afero.ReadFile(fs, filepath.Join("reports", "run.log"))
	require.NoError(t, err)

	content := string(data)
	assert.Contains(t, content, fmt.Sprintf("logging_test.go:%d", line+1))
	assert.Contains(t, content, fmt.Sprintf("logging_test.go:%d", line+2))
	assert.NotContains(t, content, "logging.go:")
}

func TestConfigure_GeneratedFilename(t *testing.T) {
	t.Parallel()

	lc, err := New(Options{WriteToFile: true, Fs: afero.NewMemMapFs()})
	require.NoError(t, err)
	defer lc.Close()

	name := filepath.Base(lc.LogFile())
	assert.True(t, strings.HasPrefix(name, "test_log_"), "unexpected file name %s", name)
	assert.True(t, strings.HasSuffix(name, ".log"), "unexpected file name %s", name)
	assert.Equal(t, "reports", filepath.Dir(lc.LogFile()))
}

func TestConfigure_FailureKeepsPreviousHandlers(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	lc, err := New(Options{Console: &buf})
	require.NoError(t, err)

	err = lc.Configure(Options{WriteToFile: true, Fs: afero.NewReadOnlyFs(afero.NewMemMapFs())})
	require.Error(t, err)
	assert.Equal(t, 1, lc.HandlerCount())

	lc.Logger().Info("still here")
	assert.Contains(t, buf.String(), "still here")
}

func TestLevelFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	lc, err := New(Options{Level: "WARN", Console: &buf})
	require.NoError(t, err)

	lc.Logger().Info("quiet")
	lc.Logger().Warn("loud")

	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")

	lc.SetLevel("debug")
	assert.Equal(t, slog.LevelDebug, lc.Level())

	lc.Logger().Debug("now visible")
	assert.Contains(t, buf.String(), "now visible")
}

func TestLogger_FollowsReconfigure(t *testing.T) {
	t.Parallel()

	var first, second bytes.Buffer
	lc, err := New(Options{Console: &first})
	require.NoError(t, err)

	logger := lc.Logger().With("component", "api")
	logger.Info("one")

	require.NoError(t, lc.Configure(Options{Console: &second}))
	logger.Info("two")

	assert.Contains(t, first.String(), "one")
	assert.NotContains(t, first.String(), "two")
	assert.Contains(t, second.String(), "two")
	assert.Contains(t, second.String(), "component=api")
}

func TestTestName_IgnoresLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	lc, err := New(Options{Level: "ERROR", Console: &buf})
	require.NoError(t, err)

	lc.TestName("test_get_status_ok")

	assert.Contains(t, buf.String(), "=== test_get_status_ok")
}

func TestPrintfLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	lc, err := New(Options{Level: "WARN", Console: &buf})
	require.NoError(t, err)

	lc.Debugf("hidden %d", 1)
	lc.Warnf("retrying %s\n", "GET")
	lc.Errorf("failed: %v", "boom")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "retrying GET")
	assert.Contains(t, out, "failed: boom")
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	lc := Discard()

	assert.Equal(t, 0, lc.HandlerCount())
	assert.Empty(t, lc.LogFile())
	lc.Logger().Error("dropped")
	require.NoError(t, lc.Close())
}
