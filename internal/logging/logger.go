package logging

import (
	"log/slog"
	"os"
)

// SetupLogger builds the process-wide JSON logger. An unknown level string
// falls back to info.
func SetupLogger(level string) *slog.Logger {
	lvl := new(slog.LevelVar)
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl.Set(slog.LevelInfo)
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler)
}
