package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/germanamz/openrouter-mcp/pkg/modeladapter"
	"github.com/germanamz/openrouter-mcp/pkg/modeladapter/usage"
)

// ErrNoEmbeddings is returned when an embeddings response carries no vector.
var ErrNoEmbeddings = errors.New("openrouter: no embeddings in response")

// ErrEmbeddingCount is returned when the number of vectors differs from the
// number of inputs.
var ErrEmbeddingCount = errors.New("openrouter: embedding count does not match inputs")

// Encoding formats accepted by the embeddings endpoint.
const (
	EncodingFloat  = "float"
	EncodingBase64 = "base64"
)

// EmbedParams describes an embeddings request. With Single set and exactly
// one input, the input is sent as a bare string rather than a list.
type EmbedParams struct {
	Model          string
	Input          []string
	Single         bool
	EncodingFormat string
	Dimensions     *int
}

// Vector is one embedding: a float vector, or a base64 string when the
// base64 encoding format was requested.
type Vector struct {
	Float  []float64
	Base64 string
}

// MarshalJSON encodes the vector as a JSON number array or string.
func (v Vector) MarshalJSON() ([]byte, error) {
	if v.Float == nil {
		return json.Marshal(v.Base64)
	}

	return json.Marshal(v.Float)
}

// UnmarshalJSON accepts a JSON number array or a base64 string.
func (v *Vector) UnmarshalJSON(data []byte) error {
	if s := strings.TrimSpace(string(data)); strings.HasPrefix(s, `"`) {
		v.Float = nil
		return json.Unmarshal(data, &v.Base64)
	}

	v.Base64 = ""

	return json.Unmarshal(data, &v.Float)
}

// EmbedResult holds the vectors in input order.
type EmbedResult struct {
	Model   string
	Vectors []Vector
	Usage   usage.TokenCount
}

// Embed requests embeddings for the given inputs.
func (c *Client) Embed(ctx context.Context, p EmbedParams) (EmbedResult, error) {
	req := apiEmbedRequest{
		Model:          p.Model,
		Input:          p.Input,
		EncodingFormat: p.EncodingFormat,
		Dimensions:     p.Dimensions,
	}
	if p.Single && len(p.Input) == 1 {
		req.Input = p.Input[0]
	}

	var resp apiEmbedResponse
	if err := c.PostJSON(ctx, embeddingsPath, req, &resp); err != nil {
		return EmbedResult{}, fmt.Errorf("openrouter: %w", err)
	}

	m := resp.Model
	if m == "" {
		m = p.Model
	}
	tc := usage.TokenCount{
		Model:       m,
		InputTokens: resp.Usage.PromptTokens,
		Cost:        resp.Usage.Cost,
	}
	c.Usage.Add(tc)
	c.log.DebugContext(ctx, "embeddings", "model", m, "inputs", len(p.Input), "input_tokens", tc.InputTokens)

	if len(resp.Data) == 0 {
		return EmbedResult{}, ErrNoEmbeddings
	}
	if len(resp.Data) != len(p.Input) {
		return EmbedResult{}, fmt.Errorf("%w: got %d vectors for %d inputs", ErrEmbeddingCount, len(resp.Data), len(p.Input))
	}

	slices.SortStableFunc(resp.Data, func(a, b apiEmbedding) int { return a.Index - b.Index })

	vectors := make([]Vector, len(resp.Data))
	for i, d := range resp.Data {
		vectors[i] = d.Embedding
	}

	return EmbedResult{Model: m, Vectors: vectors, Usage: tc}, nil
}

type apiEmbedRequest struct {
	Model          string `json:"model"`
	Input          any    `json:"input"`
	EncodingFormat string `json:"encoding_format,omitempty"`
	Dimensions     *int   `json:"dimensions,omitempty"`
}

type apiEmbedResponse struct {
	Model string         `json:"model"`
	Data  []apiEmbedding `json:"data"`
	Usage apiUsage       `json:"usage"`
	Error *apiError      `json:"error,omitempty"`
}

// ReportedError surfaces an error object embedded in a 2xx response.
func (r *apiEmbedResponse) ReportedError() *modeladapter.APIError {
	if r.Error == nil {
		return nil
	}

	return r.Error.toAPIError()
}

type apiEmbedding struct {
	Index     int    `json:"index"`
	Embedding Vector `json:"embedding"`
}
