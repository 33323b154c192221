// Package logging constructs the process-wide, level-configurable
// JSON structured logger. Call sites attach their own attributes
// (room_id, user_id) per call rather than through a
// context-threading wrapper, since slog.Logger.With already composes.
package logging

import (
	"log/slog"
	"os"
)

// NewLogger builds a JSON structured logger at the given level
// ("debug", "info", "warn", "error"; unparseable values default to
// info).
func NewLogger(level string) *slog.Logger {
	lvl := new(slog.Level)
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		*lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
		Level:     lvl,
	})
	return slog.New(handler)
}
