package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/germanamz/openrouter-mcp/pkg/config"
	"github.com/germanamz/openrouter-mcp/pkg/modeladapter/usage"
)

// loadDotEnv loads environment variables from path. Missing files are ignored.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// setup loads and validates the configuration and builds the logger. Logs
// always go to stderr: stdout carries the MCP protocol.
func setup(cmd *cobra.Command, g *globalFlags) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return config.Config{}, nil, err
	}

	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, nil, err
	}

	log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.Level()}))

	return cfg, log, nil
}

// logUsage writes the accumulated upstream usage.
func logUsage(cmd *cobra.Command, log *slog.Logger, tracker *usage.Tracker) {
	if tracker.Count() == 0 {
		return
	}

	total := tracker.Total()
	log.InfoContext(cmd.Context(), "usage summary",
		"calls", tracker.Count(),
		"input_tokens", total.InputTokens,
		"output_tokens", total.OutputTokens,
		"cost", total.Cost,
	)

	for name, tc := range tracker.ByModel() {
		log.DebugContext(cmd.Context(), "model usage",
			"model", name,
			"input_tokens", tc.InputTokens,
			"output_tokens", tc.OutputTokens,
			"cost", tc.Cost,
		)
	}
}
