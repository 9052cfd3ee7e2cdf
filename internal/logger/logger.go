package logger

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	defaultLogger zerolog.Logger
	once          sync.Once
)

// Init initializes the default logger with a JSON writer on os.Stderr.
// The level comes from LOG_LEVEL (debug, info, warn, error); unset or
// unrecognized values fall back to info. Initialization happens only once.
func Init() {
	once.Do(func() {
		zerolog.TimeFieldFormat = time.RFC3339
		level := parseLevel(os.Getenv("LOG_LEVEL"))
		defaultLogger = zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	})
}

// Get returns the initialized default logger, initializing it if needed.
func Get() zerolog.Logger {
	Init()
	return defaultLogger
}

// SetLevel adjusts the default logger's level after Init, for example once
// configuration has been loaded.
func SetLevel(raw string) {
	Init()
	defaultLogger = defaultLogger.Level(parseLevel(raw))
}

func parseLevel(raw string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// fields appends alternating key/value args to an event. Odd trailing keys are
// ignored rather than logged as malformed pairs.
func fields(e *zerolog.Event, args []any) *zerolog.Event {
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, args[i+1])
	}
	return e
}

// Info logs an informational message using the default logger.
func Info(msg string, args ...any) {
	l := Get()
	fields(l.Info(), args).Msg(msg)
}

// Warn logs a warning message using the default logger.
func Warn(msg string, args ...any) {
	l := Get()
	fields(l.Warn(), args).Msg(msg)
}

// Error logs an error message with an attached error using the default logger.
func Error(msg string, err error, args ...any) {
	l := Get()
	fields(l.Error().Err(err), args).Msg(msg)
}

// Debug logs a debug message using the default logger.
func Debug(msg string, args ...any) {
	l := Get()
	fields(l.Debug(), args).Msg(msg)
}

// Fatal logs the message and error, then exits the process. Reserved for
// startup misconfiguration; running pipelines never call it.
func Fatal(msg string, err error, args ...any) {
	l := Get()
	fields(l.Fatal().Err(err), args).Msg(msg)
}
