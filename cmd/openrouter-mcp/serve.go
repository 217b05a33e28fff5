package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/germanamz/openrouter-mcp/pkg/config"
	"github.com/germanamz/openrouter-mcp/pkg/providers/openrouter"
	"github.com/germanamz/openrouter-mcp/pkg/routertools"
	"github.com/germanamz/openrouter-mcp/pkg/tools/mcpserver"
	"github.com/germanamz/openrouter-mcp/pkg/tools/toolbox"
)

func newServeCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve MCP over stdio (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, g)
		},
	}
}

func runServe(cmd *cobra.Command, g *globalFlags) error {
	cfg, log, err := setup(cmd, g)
	if err != nil {
		return err
	}

	client := openrouter.New(cfg, openrouter.WithLogger(log))

	tb, err := buildToolBox(client, cfg, log, g.tools)
	if err != nil {
		return err
	}

	srv := mcpserver.New(serverName, version,
		mcpserver.WithInstructions(routertools.Instructions),
		mcpserver.WithLogger(log),
	)
	srv.Register(tb.Tools()...)

	err = srv.Serve(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())

	logUsage(cmd, log, client.UsageTracker())

	if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return nil
	}

	return err
}

// buildToolBox registers the router tools with the standard middleware
// chain and narrows them to only when it is non-empty.
func buildToolBox(client routertools.Client, cfg config.Config, log *slog.Logger, only []string) (*toolbox.ToolBox, error) {
	tb := toolbox.New()
	routertools.New(client, cfg, log).Register(tb)
	tb.Use(
		toolbox.Recovery(log),
		toolbox.Logger(log),
		toolbox.Timeout(cfg.ToolCallTimeout()),
	)

	if len(only) == 0 {
		return tb, nil
	}

	var unknown []string
	for _, name := range only {
		if _, ok := tb.Get(strings.TrimSpace(name)); !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown tools %s (available: %s)",
			strings.Join(unknown, ", "), strings.Join(tb.Names(), ", "))
	}

	return tb.Filter(only), nil
}
