// Package logging builds the zerolog logger shared by the CLI, the MCP server
// and bot runs.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// EnvLevel overrides the configured console level.
const EnvLevel = "SKEYE_LOG_LEVEL"

// Options configures Setup.
type Options struct {
	// Level is the console level: debug, info, warn or error. Empty means info.
	Level string
	// File, when set, receives every record at debug level as JSON, rotated
	// by size.
	File string
	// Console receives human-readable output. Nil means stderr; stdout is
	// reserved for the MCP protocol.
	Console io.Writer
	// NoColor disables ANSI colours on the console.
	NoColor bool
}

// ParseLevel converts a level name into a zerolog level.
func ParseLevel(s string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return zerolog.InfoLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "disabled", "off":
		return zerolog.Disabled, nil
	}
	return zerolog.NoLevel, fmt.Errorf("unknown log level %q", s)
}

// Setup creates a logger from opts. The returned cleanup closes the log file
// and must be called once logging is done.
func Setup(opts Options) (zerolog.Logger, func(), error) {
	name := opts.Level
	if env := os.Getenv(EnvLevel); env != "" {
		name = env
	}
	level, err := ParseLevel(name)
	if err != nil {
		return zerolog.Nop(), func() {}, err
	}

	out := opts.Console
	if out == nil {
		out = os.Stderr
	}
	console := zerolog.ConsoleWriter{Out: out, NoColor: opts.NoColor, TimeFormat: time.Kitchen}

	writers := []io.Writer{
		&zerolog.FilteredLevelWriter{Writer: zerolog.LevelWriterAdapter{Writer: console}, Level: level},
	}
	cleanup := func() {}
	minLevel := level

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return zerolog.Nop(), cleanup, fmt.Errorf("failed to create log directory: %w", err)
		}
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			LocalTime:  true,
		}
		writers = append(writers, &zerolog.FilteredLevelWriter{
			Writer: zerolog.LevelWriterAdapter{Writer: lj},
			Level:  zerolog.DebugLevel,
		})
		minLevel = zerolog.DebugLevel
		cleanup = func() {
			if err := lj.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "failed to close log file: %v\n", err)
			}
		}
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(minLevel).
		With().Timestamp().Logger()
	return logger, cleanup, nil
}
