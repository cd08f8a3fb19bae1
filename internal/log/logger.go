package log

import (
	"context"
	"io"
	"log/slog"
)

// Logger is an slog.Logger with an extra Critical method.
// It satisfies crawler.Sink.
type Logger struct {
	*slog.Logger
}

// Critical logs at LevelCritical.
func (l *Logger) Critical(msg string, args ...any) {
	l.Log(context.Background(), LevelCritical, msg, args...)
}

// Options configures NewEventLogger.
type Options struct {
	// Console receives colored output. Nil disables the console.
	Console io.Writer

	// File receives the same events without color. Nil disables it.
	File io.Writer

	// Verbosity selects the lowest tier shown (see LevelForVerbosity).
	Verbosity int

	// Color enables ANSI colors on the console.
	Color bool
}

// LevelForVerbosity maps a user verbosity to the lowest slog level shown.
//
//	1  found forms only (critical)
//	2  also crawled sites and "nothing found" (warning and up)
//	3  everything, including hyperlinks and debug detail
//
// Values above 3 behave like 3; values below 1 behave like 1.
func LevelForVerbosity(verbosity int) slog.Level {
	switch {
	case verbosity <= 1:
		return LevelCritical
	case verbosity == 2:
		return slog.LevelWarn
	default:
		return slog.LevelDebug
	}
}

// NewEventLogger builds the crawl event logger: a tier handler per
// destination, fanned out, behind a SecureHandler.
func NewEventLogger(opts Options) *Logger {
	level := LevelForVerbosity(opts.Verbosity)

	handlers := make(fanoutHandler, 0, 2)
	if opts.Console != nil {
		handlers = append(handlers, NewTierHandler(opts.Console, level, opts.Color))
	}
	if opts.File != nil {
		handlers = append(handlers, NewTierHandler(opts.File, level, false))
	}

	var h slog.Handler = handlers
	if len(handlers) == 0 {
		h = slog.DiscardHandler
	}

	return &Logger{Logger: slog.New(NewSecureHandler(h))}
}

// Discard returns a Logger that drops every event.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler)}
}
