// Package logger configures the process-wide zerolog logger and builds the
// categorized events the rest of langsite logs through.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is the application-wide logger type, aliased to zerolog.Logger.
type Logger = zerolog.Logger

// Event is an alias for zerolog.Event to allow building log entries without importing zerolog.
type Event = zerolog.Event

// Output modes.
const (
	OutputStdout = "stdout"
	OutputFile   = "file"
	OutputBoth   = "both"
)

const consoleTimeFormat = "2006-01-02 15:04:05"

// Options selects the level, format and destination of log lines.
type Options struct {
	Level string
	// Format is "json" or "console".
	Format   string
	Output   string
	FilePath string
}

// Init installs the global logger described by opts. Problems with the file
// destination are logged once the logger is up instead of failing startup.
func Init(opts Options) {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	mode := strings.ToLower(strings.TrimSpace(opts.Output))
	if mode == "" {
		mode = OutputStdout
	}
	jsonFormat := strings.EqualFold(strings.TrimSpace(opts.Format), "json")

	var writers []io.Writer
	var warnings []string
	if mode == OutputStdout || mode == OutputBoth {
		writers = append(writers, formatWriter(os.Stdout, jsonFormat))
	}
	if mode == OutputFile || mode == OutputBoth {
		file, err := openLogFile(opts.FilePath)
		if err != nil {
			warnings = append(warnings, err.Error())
		} else {
			writers = append(writers, formatWriter(file, jsonFormat))
		}
	}
	if len(writers) == 0 {
		writers = append(writers, formatWriter(os.Stdout, false))
		warnings = append(warnings, fmt.Sprintf("no usable log output for mode %q, falling back to stdout console", mode))
	}

	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level)))
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
		if opts.Level != "" {
			warnings = append(warnings, fmt.Sprintf("invalid log level %q, defaulting to info", opts.Level))
		}
	}
	zerolog.SetGlobalLevel(level)

	var output io.Writer = writers[0]
	if len(writers) > 1 {
		output = zerolog.MultiLevelWriter(writers...)
	}
	log.Logger = zerolog.New(output).Level(level).With().Timestamp().Str("service", "langsite").Logger()

	for _, warning := range warnings {
		log.Warn().Msg(warning)
	}
	log.Info().
		Str("level", level.String()).
		Str("output_mode", mode).
		Bool("json", jsonFormat).
		Str("log_file_path", opts.FilePath).
		Msg("Logger initialized")
}

func formatWriter(w io.Writer, jsonFormat bool) io.Writer {
	if jsonFormat {
		return w
	}
	return zerolog.ConsoleWriter{Out: w, TimeFormat: consoleTimeFormat}
}

func openLogFile(path string) (*os.File, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("file logging requested without a log file path; disabling file logging")
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %q, disabling file logging: %w", path, err)
	}
	return file, nil
}

// Get returns a pointer to the configured logger instance
func Get() *zerolog.Logger {
	return &log.Logger
}

// SetOutput redirects log output, keeping the level. Tests point it at a buffer.
func SetOutput(w io.Writer) {
	log.Logger = log.Output(w)
}

// HTTPEvent logs HTTP request events with standardized fields.
func HTTPEvent(method, path string, status int, durationMs float64) *zerolog.Event {
	e := log.Info()
	if status >= 500 {
		e = log.Warn()
	}
	return e.
		Str("event_category", "http").
		Str("method", method).
		Str("path", path).
		Int("status", status).
		Float64("duration_ms", durationMs)
}

// HTTPError logs HTTP error events.
func HTTPError(method, path string, status int, err error) *zerolog.Event {
	return log.Error().
		Str("event_category", "http").
		Str("method", method).
		Str("path", path).
		Int("status", status).
		Err(err)
}

// AuthEvent logs a call to the remote authentication service.
func AuthEvent(operation, outcome string, durationMs float64) *zerolog.Event {
	e := log.Info()
	if outcome != "success" {
		e = log.Warn()
	}
	return e.
		Str("event_category", "auth").
		Str("operation", operation).
		Str("outcome", outcome).
		Float64("duration_ms", durationMs)
}

// LanguageEvent logs a language routing decision.
func LanguageEvent(requested, resolved, reason string) *zerolog.Event {
	return log.Debug().
		Str("event_category", "language").
		Str("requested", requested).
		Str("resolved", resolved).
		Str("reason", reason)
}

// PanicEvent logs panic recovery events.
func PanicEvent(err any, stack string) *zerolog.Event {
	return log.Error().
		Str("event_category", "panic").
		Interface("error", err).
		Str("stack", stack)
}
