package config

import (
	"log/slog"
	"os"
)

// EnvLogLevel overrides the configured log level when set
const EnvLogLevel = "PIEMIXER_LOG"

// SlogLevel maps a level name to its slog level, defaulting to info
func SlogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupLogging installs the default slog logger at the configured level.
// $PIEMIXER_LOG takes precedence over the config file.
func SetupLogging(cfg *Config) {
	level := cfg.Logging.Level
	if env := os.Getenv(EnvLogLevel); env != "" {
		level = env
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: SlogLevel(level),
	})
	slog.SetDefault(slog.New(handler))
}
