package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
)

// newLogger returns a logger writing to w at level with short timestamps
// (e.g. "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

type ctxKey int

const (
	loggerKey ctxKey = iota
	settingsKey
)

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached by the root command, or
// log.Default() when there is none.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

func withSettings(ctx context.Context, s settings) context.Context {
	return context.WithValue(ctx, settingsKey, s)
}

// settingsFromContext returns the settings loaded by the root command, or
// the defaults when there are none.
func settingsFromContext(ctx context.Context) settings {
	if s, ok := ctx.Value(settingsKey).(settings); ok {
		return s
	}
	return defaultSettings()
}
