package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"prepcoach/internal/config"
)

// Options describes logger construction parameters.
//
// Records at Level or above go to FilePath in Format. Console, when set,
// additionally receives human-readable records at ConsoleLevel or above.
type Options struct {
	Level        string
	Format       string
	FilePath     string
	Console      io.Writer
	ConsoleLevel string
}

// New constructs a slog logger using the provided options.
func New(opts Options) (*slog.Logger, error) {
	level := parseLevel(opts.Level)
	levelVar := new(slog.LevelVar)
	levelVar.Set(level)
	addSource := level <= slog.LevelDebug

	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "console"
	}

	var handlers []slog.Handler
	if path := strings.TrimSpace(opts.FilePath); path != "" {
		file, err := openLogFile(path)
		if err != nil {
			return nil, err
		}
		switch format {
		case "json":
			handlers = append(handlers, newJSONHandler(file, levelVar, addSource))
		case "console":
			handlers = append(handlers, newPrettyHandler(file, levelVar, addSource))
		default:
			return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
		}
	}

	if opts.Console != nil {
		consoleLevel := new(slog.LevelVar)
		if strings.TrimSpace(opts.ConsoleLevel) == "" {
			consoleLevel.Set(slog.LevelWarn)
		} else {
			consoleLevel.Set(parseLevel(opts.ConsoleLevel))
		}
		handlers = append(handlers, newPrettyHandler(opts.Console, consoleLevel, false))
	}

	return slog.New(newContextHandler(newFanoutHandler(handlers...))), nil
}

// NewFromConfig creates a logger that writes the daily log file under
// paths.log_dir. When verbose is set, debug output is mirrored to stderr;
// otherwise only warnings and errors reach the terminal.
func NewFromConfig(cfg *config.Config, verbose bool) (*slog.Logger, error) {
	consoleLevel := "warn"
	if verbose {
		consoleLevel = "debug"
	}
	if cfg == nil {
		return New(Options{Level: "info", Format: "console", Console: os.Stderr, ConsoleLevel: consoleLevel})
	}

	var logPath string
	if cfg.Paths.LogDir != "" {
		if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure log directory: %w", err)
		}
		logPath = filepath.Join(cfg.Paths.LogDir, DailyLogName(time.Now()))
	}

	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	return New(Options{
		Level:        level,
		Format:       cfg.Logging.Format,
		FilePath:     logPath,
		Console:      os.Stderr,
		ConsoleLevel: consoleLevel,
	})
}

// DailyLogName returns the log file name used for the given day.
func DailyLogName(day time.Time) string {
	return "prepcoach-" + day.Format("2006-01-02") + ".log"
}

// LogFilePattern matches every file produced by DailyLogName.
const LogFilePattern = "prepcoach-*.log"

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func openLogFile(path string) (io.Writer, error) {
	switch path {
	case "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure log directory: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return file, nil
}
