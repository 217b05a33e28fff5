// Package routertools implements the MCP tools exposed by the server: chat,
// generate_image, embed, list_models and find_models. Each tool decodes and
// validates its JSON arguments, resolves the model (falling back to the
// configured default for its capability), calls the OpenRouter client and
// shapes the result for the calling agent.
package routertools

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/germanamz/openrouter-mcp/pkg/config"
	"github.com/germanamz/openrouter-mcp/pkg/providers/model"
	"github.com/germanamz/openrouter-mcp/pkg/providers/openrouter"
	"github.com/germanamz/openrouter-mcp/pkg/tools/toolbox"
)

// Instructions is the server-level usage summary sent to MCP clients.
const Instructions = `OpenRouter MCP Server provides access to hundreds of AI models through OpenRouter.

Available tools:
- chat: Text completion with any model
- generate_image: Image generation with image models, saved to a file
- embed: Embedding vectors for one or more texts
- list_models: List available models, optionally by capability
- find_models: Search for models by id or name

Requires the OPENROUTER_API_KEY environment variable.`

// Client is the subset of the OpenRouter client the tools use.
type Client interface {
	Chat(ctx context.Context, p openrouter.ChatParams) (openrouter.ChatResult, error)
	GenerateImage(ctx context.Context, p openrouter.ImageParams) ([]openrouter.Image, error)
	Embed(ctx context.Context, p openrouter.EmbedParams) (openrouter.EmbedResult, error)
	ListModels(ctx context.Context) ([]model.Descriptor, error)
	FindModels(ctx context.Context, term string) ([]model.Descriptor, error)
	RefreshModels()
}

// Service holds what the tool handlers share: the client, the immutable
// configuration and a validator. Handlers keep no per-call state on it.
type Service struct {
	client   Client
	cfg      config.Config
	validate *validator.Validate
	log      *slog.Logger
}

// New creates a Service. A nil logger discards output.
func New(client Client, cfg config.Config, log *slog.Logger) *Service {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &Service{
		client:   client,
		cfg:      cfg,
		validate: newValidator(),
		log:      log,
	}
}

// Tools returns the five tools.
func (s *Service) Tools() []toolbox.Tool {
	return []toolbox.Tool{
		{Name: "chat", Description: chatDescription, InputSchema: json.RawMessage(chatSchema), Handler: s.chat},
		{Name: "generate_image", Description: imageDescription, InputSchema: json.RawMessage(imageSchema), Handler: s.generateImage},
		{Name: "embed", Description: embedDescription, InputSchema: json.RawMessage(embedSchema), Handler: s.embed},
		{Name: "list_models", Description: listModelsDescription, InputSchema: json.RawMessage(listModelsSchema), Handler: s.listModels},
		{Name: "find_models", Description: findModelsDescription, InputSchema: json.RawMessage(findModelsSchema), Handler: s.findModels},
	}
}

// Register adds the tools to tb.
func (s *Service) Register(tb *toolbox.ToolBox) {
	tb.Register(s.Tools()...)
}

// resolveModel returns the explicit model or the default for kind.
func (s *Service) resolveModel(explicit string, kind config.Kind) (string, error) {
	if m := strings.TrimSpace(explicit); m != "" {
		return m, nil
	}

	if m, ok := s.cfg.DefaultFor(kind); ok {
		return m, nil
	}

	return "", &ConfigurationError{Kind: kind, EnvVar: config.EnvVar(kind)}
}

// marshal encodes a tool result as compact JSON text.
func marshal(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}

	return string(b), nil
}
