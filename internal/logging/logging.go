// Package logging builds the process-wide slog handler from configuration.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects level, format and destination of log output.
type Options struct {
	Level      string // debug, info, warn or error
	Format     string // json, text or logfmt
	File       string // rotate into this file instead of Writer
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
	Writer     io.Writer // defaults to stderr
}

// DefaultOptions logs info and above as JSON to stderr.
func DefaultOptions() Options {
	return Options{
		Level:      "info",
		Format:     "json",
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 28,
	}
}

// ParseLevel maps a level name to its slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

func charmLevel(l slog.Level) charmlog.Level {
	switch {
	case l <= slog.LevelDebug:
		return charmlog.DebugLevel
	case l <= slog.LevelInfo:
		return charmlog.InfoLevel
	case l <= slog.LevelWarn:
		return charmlog.WarnLevel
	}
	return charmlog.ErrorLevel
}

// NewHandler builds a handler for opts. The returned closer releases the log
// file, if any, and is never nil.
func NewHandler(opts Options) (slog.Handler, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}

	var w io.Writer = os.Stderr
	if opts.Writer != nil {
		w = opts.Writer
	}
	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		rot := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
		}
		w, closer = rot, rot
	}

	switch strings.ToLower(opts.Format) {
	case "", "json":
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}), closer, nil
	case "text", "logfmt":
		formatter := charmlog.TextFormatter
		if strings.EqualFold(opts.Format, "logfmt") {
			formatter = charmlog.LogfmtFormatter
		}
		logger := charmlog.NewWithOptions(w, charmlog.Options{
			Level:           charmLevel(level),
			ReportTimestamp: true,
			TimeFormat:      time.TimeOnly,
			Formatter:       formatter,
		})
		return logger, closer, nil
	}
	_ = closer.Close()
	return nil, nil, fmt.Errorf("unknown log format %q", opts.Format)
}

// Setup installs the handler for opts as the slog default and returns a
// function that flushes and closes the destination.
func Setup(opts Options) (func() error, error) {
	h, closer, err := NewHandler(opts)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(slog.New(h))
	return closer.Close, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
