// Package logging holds the explicit logging context shared by API clients
// and test code. A [Context] is created once, passed by reference and
// reconfigured in place; it never touches the process-wide slog default.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lmittmann/tint"
	"github.com/spf13/afero"
)

const (
	// TimeFormat is used for every record timestamp.
	TimeFormat = "2006-01-02 15:04:05"

	defaultReportsDir = "reports"
	fileStampFormat   = "2006-01-02_15-04-05"
)

type Options struct {
	// Level is the minimum level name (DEBUG, INFO, WARN, ERROR). Unknown
	// names fall back to INFO.
	Level string
	// WriteToFile creates a timestamped log file under ReportsDir.
	WriteToFile bool
	// ReportsDir defaults to "reports".
	ReportsDir string
	// Filename overrides the generated test_log_<timestamp>.log name.
	Filename string
	// Console mirrors every record to this writer when set.
	Console io.Writer
	// Fs is the filesystem used for the reports directory. Defaults to the OS.
	Fs afero.Fs
}

func (o Options) withDefaults() Options {
	if strings.TrimSpace(o.ReportsDir) == "" {
		o.ReportsDir = defaultReportsDir
	}
	if o.Fs == nil {
		o.Fs = afero.NewOsFs()
	}
	return o
}

// Context owns the active handler set and level. The logger returned by
// [Context.Logger] stays valid across [Context.Configure] calls.
type Context struct {
	mu       sync.RWMutex
	level    slog.LevelVar
	handlers []slog.Handler
	closers  []io.Closer
	logFile  string
	logger   *slog.Logger
}

// New returns a Context configured with opts.
func New(opts Options) (*Context, error) {
	c := &Context{}
	c.logger = slog.New(&handler{lc: c})

	if err := c.Configure(opts); err != nil {
		return nil, err
	}

	return c, nil
}

// Discard returns a Context without handlers.
func Discard() *Context {
	c := &Context{}
	c.logger = slog.New(&handler{lc: c})
	return c
}

// Configure replaces the handler set and level. Previously opened log files
// are closed; handlers are never accumulated across calls. On error the
// previous configuration stays active.
func (c *Context) Configure(opts Options) error {
	opts = opts.withDefaults()

	var (
		handlers []slog.Handler
		closers  []io.Closer
		logFile  string
	)

	if opts.Console != nil {
		handlers = append(handlers, tint.NewHandler(opts.Console, &tint.Options{
			Level:      slog.LevelDebug,
			AddSource:  true,
			TimeFormat: TimeFormat,
			NoColor:    !isTerminal(opts.Console),
		}))
	}

	if opts.WriteToFile {
		f, path, err := openLogFile(opts)
		if err != nil {
			return err
		}

		closers = append(closers, f)
		logFile = path
		handlers = append(handlers, log.NewWithOptions(f, log.Options{
			Level:           log.DebugLevel,
			TimeFormat:      TimeFormat,
			ReportTimestamp: true,
			ReportCaller:    true,
			Formatter:       log.TextFormatter,
		}))
	}

	c.mu.Lock()
	previous := c.closers
	c.handlers = handlers
	c.closers = closers
	c.logFile = logFile
	c.level.Set(ParseLevel(opts.Level))
	c.mu.Unlock()

	return closeAll(previous)
}

func openLogFile(opts Options) (afero.File, string, error) {
	if err := opts.Fs.MkdirAll(opts.ReportsDir, 0o755); err != nil {
		return nil, "", fmt.Errorf("failed to create reports directory %s: %w", opts.ReportsDir, err)
	}

	name := opts.Filename
	if strings.TrimSpace(name) == "" {
		name = fmt.Sprintf("test_log_%s.log", time.Now().Format(fileStampFormat))
	}

	path := filepath.Join(opts.ReportsDir, name)

	f, err := opts.Fs.OpenFile(path, osAppendFlags, 0o644)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	return f, path, nil
}

// Logger returns the context's logger.
func (c *Context) Logger() *slog.Logger {
	return c.logger
}

// HandlerCount reports how many handlers are active.
func (c *Context) HandlerCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.handlers)
}

func (c *Context) Level() slog.Level {
	return c.level.Level()
}

// SetLevel changes the minimum level without touching the handlers.
func (c *Context) SetLevel(level string) {
	c.level.Set(ParseLevel(level))
}

// LogFile is the path of the active log file, or "" when file logging is off.
func (c *Context) LogFile() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.logFile
}

// Close closes log files and drops all handlers.
func (c *Context) Close() error {
	c.mu.Lock()
	previous := c.closers
	c.handlers = nil
	c.closers = nil
	c.logFile = ""
	c.mu.Unlock()

	return closeAll(previous)
}

// TestName writes a title record for a test regardless of the active level.
func (c *Context) TestName(name string) {
	r := newRecord(slog.LevelInfo, 2, "=== "+name)
	_ = c.dispatch(context.Background(), r, nil)
}

func (c *Context) Errorf(format string, v ...any) {
	c.logf(slog.LevelError, format, v...)
}

func (c *Context) Warnf(format string, v ...any) {
	c.logf(slog.LevelWarn, format, v...)
}

func (c *Context) Debugf(format string, v ...any) {
	c.logf(slog.LevelDebug, format, v...)
}

func (c *Context) logf(level slog.Level, format string, v ...any) {
	if level < c.level.Level() {
		return
	}

	msg := strings.TrimRight(fmt.Sprintf(format, v...), "\n")
	_ = c.dispatch(context.Background(), newRecord(level, 3, msg), nil)
}

// newRecord attributes the record to the caller skip frames above it.
func newRecord(level slog.Level, skip int, msg string) slog.Record {
	var pcs [1]uintptr
	runtime.Callers(skip+1, pcs[:])

	return slog.NewRecord(time.Now(), level, msg, pcs[0])
}

func (c *Context) dispatch(ctx context.Context, r slog.Record, ops []func(slog.Handler) slog.Handler) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var errs []error
	for _, h := range c.handlers {
		for _, op := range ops {
			h = op(h)
		}
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func closeAll(closers []io.Closer) error {
	var errs []error
	for _, cl := range closers {
		if err := cl.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// ParseLevel maps a level name to a slog level, case-insensitively.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "critical", "fatal":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
