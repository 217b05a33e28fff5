package routertools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	"github.com/germanamz/openrouter-mcp/pkg/config"
	"github.com/germanamz/openrouter-mcp/pkg/providers/openrouter"
)

const embedDescription = `Create embeddings for a single text or a list of texts.
A string input returns {"model","embedding"}; a list returns {"model","embeddings"} in input order.
If "model" is omitted DEFAULT_EMBEDDING_MODEL is used.`

// EmbeddingInput is a single string or a list of strings.
type EmbeddingInput struct {
	Values []string
	Single bool
}

// UnmarshalJSON accepts a JSON string or an array of strings.
func (in *EmbeddingInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	switch {
	case bytes.Equal(data, []byte("null")):
		*in = EmbeddingInput{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*in = EmbeddingInput{Values: []string{s}, Single: true}

		return nil
	case len(data) > 0 && data[0] == '[':
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return errors.New("input: list items must be strings")
		}
		*in = EmbeddingInput{Values: list}

		return nil
	default:
		return errors.New("input: must be a string or a list of strings")
	}
}

type embedArgs struct {
	Model          string         `json:"model"`
	Input          EmbeddingInput `json:"input"`
	EncodingFormat string         `json:"encoding_format" validate:"omitempty,oneof=float base64"`
	Dimensions     *int           `json:"dimensions" validate:"omitempty,gt=0"`
}

type embedUsage struct {
	PromptTokens int     `json:"prompt_tokens"`
	Cost         float64 `json:"cost,omitempty"`
}

type embedSingleResult struct {
	Model     string            `json:"model"`
	Embedding openrouter.Vector `json:"embedding"`
	Usage     embedUsage        `json:"usage"`
}

type embedListResult struct {
	Model      string              `json:"model"`
	Embeddings []openrouter.Vector `json:"embeddings"`
	Usage      embedUsage          `json:"usage"`
}

func (s *Service) embed(ctx context.Context, input json.RawMessage) (string, error) {
	var args embedArgs
	if err := s.decode(input, &args); err != nil {
		return "", err
	}

	if len(args.Input.Values) == 0 {
		return "", &ValidationError{Field: "input", Reason: "is required"}
	}

	m, err := s.resolveModel(args.Model, config.KindEmbedding)
	if err != nil {
		return "", err
	}

	res, err := s.client.Embed(ctx, openrouter.EmbedParams{
		Model:          m,
		Input:          args.Input.Values,
		Single:         args.Input.Single,
		EncodingFormat: args.EncodingFormat,
		Dimensions:     args.Dimensions,
	})
	if err != nil {
		return "", err
	}

	usage := embedUsage{PromptTokens: res.Usage.InputTokens, Cost: res.Usage.Cost}

	if args.Input.Single {
		return marshal(embedSingleResult{Model: res.Model, Embedding: res.Vectors[0], Usage: usage})
	}

	return marshal(embedListResult{Model: res.Model, Embeddings: res.Vectors, Usage: usage})
}
