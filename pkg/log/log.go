// Package log builds the zerolog logger used by pipewalk binaries.
// Library packages take a logr.Logger; Logr adapts the zerolog
// instance for them.
package log

import (
	"io"
	"os"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zerologr"
	"github.com/rs/zerolog"
)

// New creates the process logger. Inside a cluster it emits JSON to
// stderr; everywhere else a human-readable console writer.
func New(level zerolog.Level) *zerolog.Logger {
	var output io.Writer
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		output = os.Stderr
	} else {
		output = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "2006-01-02T15:04:05.999Z07:00"}
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	logger := zerolog.New(output).Level(level).With().Timestamp().Logger()
	return &logger
}

// Logr adapts a zerolog logger for packages that take logr.Logger.
func Logr(logger *zerolog.Logger) logr.Logger {
	zerologr.NameFieldName = "logger"
	zerologr.NameSeparator = "/"
	return zerologr.New(logger)
}
