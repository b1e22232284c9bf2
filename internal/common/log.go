package common

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	logOnce  sync.Once
	logger   *slog.Logger
	logLevel = newLevelVar(os.Getenv("LOG_LEVEL"))
)

func newLevelVar(level string) *slog.LevelVar {
	v := new(slog.LevelVar)
	v.Set(ParseLevel(level))
	return v
}

// Logger returns the process-wide text logger writing to stderr. The initial
// level comes from LOG_LEVEL; SetLevel changes it for every logger.
func Logger() *slog.Logger {
	logOnce.Do(func() {
		logger = NewLogger(os.Stderr)
	})
	return logger
}

// NewLogger builds a text logger that shares the process level.
func NewLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
}

// SetLevel accepts debug, info, warn or error; anything else means info.
func SetLevel(level string) {
	logLevel.Set(ParseLevel(level))
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
