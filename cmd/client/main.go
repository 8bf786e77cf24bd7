package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"werewolf-client/internal/config"
)

const (
	releaseVersion = "0.4.0"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}

	cfg := config.Default()
	cobra.CheckErr(newCmd(cfg).Execute())
}

// newLogger builds the process logger. The screen owns stdout, so logs go
// to stderr.
func newLogger(cfg *config.Config) *slog.Logger {
	logOpts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	var logger *slog.Logger
	if cfg.Logging.Format == "json" {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, logOpts))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stderr, logOpts))
	}

	slog.SetDefault(logger)
	return logger
}

func parseLogLevel(level string) slog.Level {
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
