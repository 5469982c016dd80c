package logx

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"gemlaunch/internal/paths"
)

// Options controls where log records go.
type Options struct {
	Level   string
	Verbose bool
	Stderr  io.Writer
}

// New creates a logger that writes to a timestamped file inside the user's
// logs directory, and additionally to stderr when Verbose is set. The returned
// closer should be closed when logging is no longer needed.
func New(u paths.UserPaths, opts Options) (*log.Logger, io.Closer, error) {
	if err := u.EnsureLogsDir(); err != nil {
		return nil, nil, err
	}

	filename := time.Now().Format("20060102-150405") + ".log"
	filePath := filepath.Join(u.LogsDir, filename)
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	var out io.Writer = file
	if opts.Verbose {
		stderr := opts.Stderr
		if stderr == nil {
			stderr = os.Stderr
		}
		out = io.MultiWriter(file, stderr)
	}

	level, err := ParseLevel(opts.Level)
	if err != nil {
		_ = file.Close()
		return nil, nil, err
	}
	if opts.Verbose && level > log.DebugLevel {
		level = log.DebugLevel
	}

	logger := log.NewWithOptions(out, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.000",
		Prefix:          paths.AppName,
	})
	return logger, file, nil
}

// ParseLevel maps a level name to a log level; empty means info.
func ParseLevel(name string) (log.Level, error) {
	if name == "" {
		return log.InfoLevel, nil
	}
	level, err := log.ParseLevel(name)
	if err != nil {
		return log.InfoLevel, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, nil
}

// Discard returns a logger that drops every record.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// OrDiscard returns logger, or a discarding logger when it is nil.
func OrDiscard(logger *log.Logger) *log.Logger {
	if logger == nil {
		return Discard()
	}
	return logger
}
