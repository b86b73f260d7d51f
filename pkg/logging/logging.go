// Package logging builds the zerolog.Logger every binary in this module
// runs with. It is the Go port of br_tester.br_logging: a console writer,
// an optional sibling run-log file, and a hook that forwards info-and-up
// records onto the event bus as Log events.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/aoyoqui/benderr/pkg/appconfig"
)

// EventPublisher is the subset of eventbus.Server a logging hook needs.
// Declaring it here rather than importing pkg/eventbus keeps logging
// free of a dependency on the bus's transport.
type EventPublisher interface {
	PublishLog(level, message string)
}

// busHook forwards every record at or above its threshold onto an
// EventPublisher, mirroring SignalEmitterHandler's unconditional
// propagation of formatted log lines.
type busHook struct {
	publisher EventPublisher
	threshold zerolog.Level
}

func (h busHook) Run(_ *zerolog.Event, level zerolog.Level, msg string) {
	if h.publisher == nil || level < h.threshold || msg == "" {
		return
	}
	h.publisher.PublishLog(level.String(), msg)
}

// LogFileName returns the sibling run-log name for a report emitted at
// the same start time.
func LogFileName(start time.Time) string {
	return start.UTC().Format("20060102_150405") + "_run.log"
}

// Setup builds a zerolog.Logger per cfg: a human-readable console writer
// when cfg.LogToConsole is set, and, when cfg.LogToFile is set and
// outputDir is non-empty, a sibling file at
// <outputDir>/<LogFileName(start)>. The returned path is empty when file
// logging is disabled. Callers must call the returned closer once logging
// is no longer needed.
func Setup(cfg appconfig.LoggingConfig, outputDir string, start time.Time) (zerolog.Logger, string, func() error, error) {
	var writers []io.Writer
	closer := func() error { return nil }

	if cfg.LogToConsole {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	logPath := ""
	if cfg.LogToFile && outputDir != "" {
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return zerolog.Logger{}, "", closer, fmt.Errorf("creating output dir: %w", err)
		}
		logPath = filepath.Join(outputDir, LogFileName(start))
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Logger{}, "", closer, fmt.Errorf("opening run log: %w", err)
		}
		writers = append(writers, f)
		closer = f.Close
	}

	if len(writers) == 0 {
		writers = append(writers, io.Discard)
	}

	level := consoleLevel(cfg.LogLevelConsole)
	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().Timestamp().Logger()

	return logger, logPath, closer, nil
}

// WithBusHook returns logger augmented with a hook that forwards
// info-and-up records to publisher.
func WithBusHook(logger zerolog.Logger, publisher EventPublisher) zerolog.Logger {
	return logger.Hook(busHook{publisher: publisher, threshold: zerolog.InfoLevel})
}

func consoleLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}
