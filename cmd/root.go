// Package cmd implements the acebot command line interface.
package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/communique/acebot/internal/config"
	"github.com/communique/acebot/internal/log"
)

var (
	flagLogJSON  bool
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "acebot",
	Short: "acebot is a retrieval-augmented backend for the African creative economy database",
	Long: `acebot indexes articles and documents about Africa's creative economy
into a vector store and answers questions over them.

Run "acebot serve" to start the HTTP API.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagLogJSON, "log-json", false, "emit JSON logs")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level (debug, info, warn, error)")
}

// loadConfig loads and validates configuration, and builds the logger the
// subcommands share.
func loadConfig() (*config.Config, log.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("validating configuration: %w", err)
	}

	logger := log.New(log.Config{Level: parseLevel(flagLogLevel), JSON: flagLogJSON})
	return cfg, logger, nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
