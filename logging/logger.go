// Package logging - logger.go
//
// This file sets up the structured logger shared by every component.
//
// Log Destinations:
//   - Console: human-readable zerolog console writer (stderr)
//   - File: data/logs/run_<YYYYMMDD_HHMMSS>.log, one file per run, JSON lines
//
// Levels:
//   - DEBUG: pixel values, coordinates, per-detector results
//   - INFO: important events (startup, config loaded, attack finished)
//   - WARN: degraded-but-continuing paths (no tile found, default resolution)
//   - ERROR: I/O failures that skip a cycle
//
// The logger is created once by New and handed to constructors; nothing in
// the module reads a package-level logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultDir is where run logs are written
const DefaultDir = "data/logs"

// Options controls logger construction
type Options struct {
	Dir     string    // Log directory (default data/logs); empty file output when NoFile is set
	Level   string    // debug, info, warn, error (default info)
	Console io.Writer // Console destination (default os.Stderr)
	NoFile  bool      // Skip the per-run log file
	Now     func() time.Time
}

// Logger owns the run log file and the zerolog logger writing to it
type Logger struct {
	zerolog.Logger
	file *os.File
}

// New creates the logger. The run file is truncated if it already exists.
func New(opts Options) (*Logger, error) {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	writers := []io.Writer{zerolog.ConsoleWriter{Out: console, TimeFormat: "15:04:05.000"}}

	l := &Logger{}
	if !opts.NoFile {
		dir := opts.Dir
		if dir == "" {
			dir = DefaultDir
		}
		now := time.Now
		if opts.Now != nil {
			now = opts.Now
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		name := filepath.Join(dir, "run_"+now().Format("20060102_150405")+".log")
		file, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		l.file = file
		writers = append(writers, file)
	}

	l.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(ParseLevel(opts.Level)).
		With().Timestamp().Logger()
	l.Info().Msg("logger initialized")
	return l, nil
}

// SetLevel changes the level after the config has been resolved
func (l *Logger) SetLevel(level string) {
	l.Logger = l.Logger.Level(ParseLevel(level))
	l.Debug().Str("level", level).Msg("log level set from config")
}

// Path returns the run log file path, or "" when logging to console only
func (l *Logger) Path() string {
	if l.file == nil {
		return ""
	}
	return l.file.Name()
}

// Close closes the log file
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	l.Info().Msg("logger closing")
	return l.file.Close()
}

// ParseLevel maps a config string to a zerolog level, defaulting to info
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "trace":
		return zerolog.TraceLevel
	default:
		return zerolog.InfoLevel
	}
}
