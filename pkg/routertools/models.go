package routertools

import (
	"context"
	"encoding/json"

	"github.com/germanamz/openrouter-mcp/pkg/providers/model"
)

const listModelsDescription = `List available OpenRouter models, optionally filtered by capability:
"vision" (can analyze images), "image_gen" (can generate images), "embedding" (produces embeddings),
"tools" (supports tool calling) or "long_context" (100k+ context window).
Set "refresh" to reload the cached catalog.`

const findModelsDescription = `Search models by id or display name (case-insensitive substring, e.g. "claude", "gpt", "gemini").
"limit" caps the number of results; 0 or omitted returns every match.`

type listModelsArgs struct {
	Capability string `json:"capability"`
	Refresh    bool   `json:"refresh"`
}

type findModelsArgs struct {
	SearchTerm string `json:"search_term" validate:"notblank"`
	Limit      *int   `json:"limit" validate:"omitempty,gte=0"`
}

type modelSummary struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	ContextLength int                `json:"context_length"`
	Capabilities  []model.Capability `json:"capabilities"`
	Pricing       *model.Pricing     `json:"pricing,omitempty"`
}

func summarize(models []model.Descriptor, withPricing bool) []modelSummary {
	out := make([]modelSummary, len(models))
	for i, m := range models {
		out[i] = modelSummary{
			ID:            m.ID,
			Name:          m.Name,
			ContextLength: m.ContextLength,
			Capabilities:  m.Capabilities,
		}
		if withPricing {
			p := m.Pricing
			out[i].Pricing = &p
		}
		if out[i].Capabilities == nil {
			out[i].Capabilities = []model.Capability{}
		}
	}

	return out
}

func (s *Service) listModels(ctx context.Context, input json.RawMessage) (string, error) {
	var args listModelsArgs
	if err := s.decode(input, &args); err != nil {
		return "", err
	}

	var capability model.Capability
	if args.Capability != "" {
		c, err := model.ParseCapability(args.Capability)
		if err != nil {
			return "", &ValidationError{Field: "capability", Reason: err.Error()}
		}
		capability = c
	}

	if args.Refresh {
		s.client.RefreshModels()
	}

	models, err := s.client.ListModels(ctx)
	if err != nil {
		return "", err
	}

	return marshal(summarize(model.Filter(models, capability), true))
}

func (s *Service) findModels(ctx context.Context, input json.RawMessage) (string, error) {
	var args findModelsArgs
	if err := s.decode(input, &args); err != nil {
		return "", err
	}

	found, err := s.client.FindModels(ctx, args.SearchTerm)
	if err != nil {
		return "", err
	}

	if args.Limit != nil && *args.Limit > 0 && len(found) > *args.Limit {
		found = found[:*args.Limit]
	}

	return marshal(summarize(found, false))
}
