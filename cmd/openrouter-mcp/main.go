package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

const serverName = "openrouter"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	envFile    string
	logLevel   string
	tools      []string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "openrouter-mcp",
		Short: "MCP server for OpenRouter models",
		Long: `openrouter-mcp exposes OpenRouter chat, image generation, embeddings and the
model catalog as MCP tools over stdio. Running it without a subcommand serves.`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return loadDotEnv(g.envFile)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, g)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "openrouter-mcp.yaml", "path to configuration file (ignored if missing)")
	pf.StringVar(&g.envFile, "env", ".env", "path to .env file (ignored if missing)")
	pf.StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn or error (overrides log_level)")
	pf.StringSliceVar(&g.tools, "tools", nil, "comma-separated tools to expose (default: all)")

	root.AddCommand(newServeCmd(g), newModelsCmd(g))

	return root
}
