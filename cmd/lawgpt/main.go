// Command lawgpt serves intent-routed search and explanation of Indian bare
// acts, builds act corpora, and runs agents as NATS workers.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/lawgpt/internal/config"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "lawgpt",
		Short:         "Search and explain Indian bare acts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML); defaults to $LAWGPT_CONFIG")

	load := func() (config.Config, *slog.Logger, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return config.Config{}, nil, fmt.Errorf("load config: %w", err)
		}
		return cfg, newLogger(cfg.Server.LogLevel), nil
	}

	cmd.AddCommand(serveCmd(load), ingestCmd(load), agentCmd(load))
	return cmd
}

type loader func() (config.Config, *slog.Logger, error)

func newLogger(level string) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
