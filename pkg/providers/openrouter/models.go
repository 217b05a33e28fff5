package openrouter

import (
	"context"
	"fmt"

	"github.com/germanamz/openrouter-mcp/pkg/providers/model"
)

// apiModel accepts both the public /models shape (id, architecture.*) and the
// frontend catalog shape (slug, top-level modalities).
type apiModel struct {
	ID                  string          `json:"id"`
	Slug                string          `json:"slug"`
	Name                string          `json:"name"`
	ContextLength       int             `json:"context_length"`
	Architecture        apiArchitecture `json:"architecture"`
	InputModalities     []string        `json:"input_modalities"`
	OutputModalities    []string        `json:"output_modalities"`
	SupportedParameters []string        `json:"supported_parameters"`
	Pricing             apiPricing      `json:"pricing"`
	TopProvider         struct {
		ContextLength int `json:"context_length"`
	} `json:"top_provider"`
}

type apiArchitecture struct {
	InputModalities  []string `json:"input_modalities"`
	OutputModalities []string `json:"output_modalities"`
}

type apiPricing struct {
	Prompt     string `json:"prompt"`
	Completion string `json:"completion"`
}

type apiModelsResponse struct {
	Data []apiModel `json:"data"`
}

// fetchModels loads the catalog from upstream, bypassing the cache.
func (c *Client) fetchModels(ctx context.Context) ([]model.Descriptor, error) {
	var resp apiModelsResponse
	if err := c.GetJSON(ctx, c.modelsURL, &resp); err != nil {
		return nil, fmt.Errorf("openrouter: list models: %w", err)
	}

	models := make([]model.Descriptor, 0, len(resp.Data))
	for _, m := range resp.Data {
		d, ok := m.descriptor()
		if !ok {
			continue
		}
		models = append(models, d)
	}

	c.log.DebugContext(ctx, "fetched model catalog", "models", len(models))

	return models, nil
}

// descriptor converts a catalog entry. Entries without an identifier are
// skipped.
func (m apiModel) descriptor() (model.Descriptor, bool) {
	id := m.ID
	if id == "" {
		id = m.Slug
	}
	if id == "" {
		return model.Descriptor{}, false
	}

	name := m.Name
	if name == "" {
		name = id
	}

	ctxLen := m.ContextLength
	if ctxLen == 0 {
		ctxLen = m.TopProvider.ContextLength
	}

	in := m.Architecture.InputModalities
	if len(in) == 0 {
		in = m.InputModalities
	}
	out := m.Architecture.OutputModalities
	if len(out) == 0 {
		out = m.OutputModalities
	}

	return model.Descriptor{
		ID:            id,
		Name:          name,
		ContextLength: ctxLen,
		Capabilities: model.DeriveCapabilities(model.Traits{
			InputModalities:     in,
			OutputModalities:    out,
			SupportedParameters: m.SupportedParameters,
			ContextLength:       ctxLen,
		}),
		Pricing: model.Pricing{
			Prompt:     m.Pricing.Prompt,
			Completion: m.Pricing.Completion,
		},
	}, true
}
