// Package openrouter is the client for the OpenRouter HTTP API. It covers
// chat completions, image generation (through chat completions with image
// output modalities), embeddings and the model catalog.
package openrouter

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/germanamz/openrouter-mcp/pkg/catalog"
	"github.com/germanamz/openrouter-mcp/pkg/config"
	"github.com/germanamz/openrouter-mcp/pkg/modeladapter"
	"github.com/germanamz/openrouter-mcp/pkg/providers/model"
)

const (
	completionsPath = "/chat/completions"
	embeddingsPath  = "/embeddings"
)

// Client talks to the OpenRouter API.
type Client struct {
	modeladapter.ModelAdapter

	modelsURL string
	catalog   *catalog.Cache
	log       *slog.Logger
	retrySet  bool
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.Client = hc }
}

// WithLogger sets the logger used for request and retry diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithRetryPolicy replaces the retry policy derived from the configuration.
// A nil policy disables retries.
func WithRetryPolicy(p *modeladapter.RetryPolicy) Option {
	return func(c *Client) {
		c.Retry = p
		c.retrySet = true
	}
}

// New creates a Client from cfg. The catalog is cached for cfg.CatalogTTL()
// unless caching is disabled in the configuration.
func New(cfg config.Config, opts ...Option) *Client {
	c := &Client{
		modelsURL: cfg.Catalog.URL,
		log:       slog.New(slog.DiscardHandler),
	}
	c.BaseURL = cfg.BaseURL
	c.Auth = modeladapter.Auth{Key: cfg.APIKey}
	c.Timeout = cfg.RequestTimeout()
	c.Headers = map[string]string{}
	if cfg.Referer != "" {
		c.Headers["HTTP-Referer"] = cfg.Referer
	}
	if cfg.Title != "" {
		c.Headers["X-Title"] = cfg.Title
	}

	for _, opt := range opts {
		opt(c)
	}

	if !c.retrySet {
		c.Retry = modeladapter.NewRetryPolicy(modeladapter.RetryOpts{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   cfg.BaseDelay(),
			MaxDelay:    cfg.MaxDelay(),
			Logger:      c.log,
		})
	}

	if c.modelsURL == "" {
		c.modelsURL = config.DefaultCatalogURL
	}
	if !cfg.Catalog.Disabled {
		c.catalog = catalog.New(cfg.CatalogTTL(), c.fetchModels)
	}

	return c
}

// ListModels returns the full catalog, served from the cache when enabled.
func (c *Client) ListModels(ctx context.Context) ([]model.Descriptor, error) {
	if c.catalog == nil {
		return c.fetchModels(ctx)
	}

	return c.catalog.Get(ctx)
}

// FindModels returns the catalog entries whose id or name contains term,
// case-insensitively, in catalog order.
func (c *Client) FindModels(ctx context.Context, term string) ([]model.Descriptor, error) {
	models, err := c.ListModels(ctx)
	if err != nil {
		return nil, err
	}

	return model.Find(models, term), nil
}

// RefreshModels drops the cached catalog. It is a no-op when caching is
// disabled.
func (c *Client) RefreshModels() {
	if c.catalog != nil {
		c.catalog.Refresh()
	}
}
