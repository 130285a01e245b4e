package app

import (
	"log/slog"
	"os"
)

// NewLogger returns a configured slog.Logger based on configuration.
// The "pretty" format is plain text for local use; production
// deployments set LOG_FORMAT=json.
func NewLogger(cfg *Config) *slog.Logger {
	var logger *slog.Logger
	if cfg != nil && cfg.LogFormat == "json" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true}))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}
	slog.SetDefault(logger)
	return logger
}
