package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"

	"github.com/germanamz/openrouter-mcp/pkg/tools/toolbox"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MCPServer serves tools over the MCP protocol using the official MCP Go SDK.
type MCPServer struct {
	server *mcp.Server
	log    *slog.Logger
	names  []string
}

// Option customizes an MCPServer.
type Option func(*options)

type options struct {
	instructions string
	log          *slog.Logger
}

// WithInstructions sets the usage instructions sent to clients on initialize.
func WithInstructions(s string) Option {
	return func(o *options) { o.instructions = s }
}

// WithLogger sets the logger for server lifecycle events.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) { o.log = log }
}

// New creates a new MCPServer with the given name and version.
func New(name, version string, opts ...Option) *MCPServer {
	o := options{log: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}

	var serverOpts *mcp.ServerOptions
	if o.instructions != "" {
		serverOpts = &mcp.ServerOptions{Instructions: o.instructions}
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    name,
		Version: version,
	}, serverOpts)

	return &MCPServer{server: server, log: o.log}
}

// Register adds tools to the server.
func (s *MCPServer) Register(tools ...toolbox.Tool) {
	for _, t := range tools {
		s.server.AddTool(toSDKTool(t), toSDKHandler(t.Handler))
		s.names = append(s.names, t.Name)
	}
}

// Serve starts serving MCP requests. It reads requests from in and writes
// responses to out. It blocks until ctx is cancelled or the transport closes.
func (s *MCPServer) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	transport := &mcp.IOTransport{
		Reader: io.NopCloser(in),
		Writer: nopWriteCloser{out},
	}

	return s.run(ctx, transport)
}

// run starts the server with the given transport. Exported via Serve for
// production use; called directly by tests with InMemoryTransport.
func (s *MCPServer) run(ctx context.Context, transport mcp.Transport) error {
	s.log.InfoContext(ctx, "mcp server started", "tools", s.names)

	err := s.server.Run(ctx, transport)

	s.log.InfoContext(ctx, "mcp server stopped", "error", err)

	return err
}

// toSDKTool converts a toolbox.Tool to an SDK *mcp.Tool.
func toSDKTool(t toolbox.Tool) *mcp.Tool {
	schema := t.InputSchema
	if schema == nil {
		schema = json.RawMessage(`{"type":"object"}`)
	}

	return &mcp.Tool{
		Name:        t.Name,
		Description: t.Description,
		InputSchema: schema,
	}
}

// toSDKHandler wraps a toolbox.Handler as an SDK ToolHandler. Handler errors
// are reported to the client as error results, not protocol errors.
func toSDKHandler(h toolbox.Handler) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.Params.Arguments
		if args == nil {
			args = json.RawMessage("{}")
		}
		result, err := h(ctx, args)
		if err != nil {
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
				IsError: true,
			}, nil
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: result}},
		}, nil
	}
}

// nopWriteCloser wraps an io.Writer as an io.WriteCloser with a no-op Close.
type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
