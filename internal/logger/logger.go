package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide JSON slog.Logger. Every record carries a
// "service" attribute so the luna server and the migrate CLI can be told
// apart in an aggregated stream.
func New(service string, level slog.Level) *slog.Logger {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(h).With("service", service)
}
