package server

import (
	"io"
	"log/slog"

	"github.com/iudanet/gamelib/internal/server/config"
)

// NewLogger создает slog.Logger по настройкам: JSON или текст, заданный уровень
func NewLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
