package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/germanamz/openrouter-mcp/pkg/modeladapter"
	"github.com/germanamz/openrouter-mcp/pkg/modeladapter/usage"
)

// ErrEmptyChoices is returned when the upstream answers without any choice.
var ErrEmptyChoices = errors.New("openrouter: empty choices in response")

// Message roles accepted by the chat endpoint.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat message. When ImageURLs is set the content is sent as
// a multi-part array with the text part first.
type Message struct {
	Role      string
	Content   string
	ImageURLs []string
}

// MarshalJSON encodes the message in the chat completions wire format.
func (m Message) MarshalJSON() ([]byte, error) {
	if len(m.ImageURLs) == 0 {
		return json.Marshal(apiMessage{Role: m.Role, Content: m.Content})
	}

	parts := make([]apiContentPart, 0, len(m.ImageURLs)+1)
	if m.Content != "" {
		parts = append(parts, apiContentPart{Type: "text", Text: m.Content})
	}
	for _, u := range m.ImageURLs {
		parts = append(parts, apiContentPart{Type: "image_url", ImageURL: &apiURL{URL: u}})
	}

	return json.Marshal(apiMessage{Role: m.Role, Content: parts})
}

// ChatParams describes a chat completion request. Nil pointers and empty
// values are omitted from the payload.
type ChatParams struct {
	Model            string
	Messages         []Message
	MaxTokens        *int
	Temperature      *float64
	TopP             *float64
	TopK             *int
	FrequencyPenalty *float64
	PresencePenalty  *float64
	Seed             *int
	Stop             []string
	ResponseFormat   json.RawMessage // Passed through verbatim, e.g. {"type":"json_object"}.
	ReasoningEffort  string          // low, medium or high.
}

// ChatResult is the first choice of a chat completion.
type ChatResult struct {
	Text         string
	Model        string
	FinishReason string
	Usage        usage.TokenCount
}

// Chat sends a chat completion request and returns the first choice.
func (c *Client) Chat(ctx context.Context, p ChatParams) (ChatResult, error) {
	req := apiChatRequest{
		Model:            p.Model,
		Messages:         p.Messages,
		MaxTokens:        p.MaxTokens,
		Temperature:      p.Temperature,
		TopP:             p.TopP,
		TopK:             p.TopK,
		FrequencyPenalty: p.FrequencyPenalty,
		PresencePenalty:  p.PresencePenalty,
		Seed:             p.Seed,
		Stop:             p.Stop,
		ResponseFormat:   p.ResponseFormat,
	}
	if p.ReasoningEffort != "" {
		req.Reasoning = &apiReasoning{Effort: p.ReasoningEffort}
	}

	resp, err := c.complete(ctx, req)
	if err != nil {
		return ChatResult{}, err
	}

	choice := resp.Choices[0]
	res := ChatResult{
		Model:        resp.Model,
		FinishReason: choice.FinishReason,
		Usage:        resp.tokenCount(p.Model),
	}
	if choice.Message.Content != nil {
		res.Text = *choice.Message.Content
	}

	return res, nil
}

// complete posts a chat completions request, records usage and guarantees at
// least one choice in the response.
func (c *Client) complete(ctx context.Context, req apiChatRequest) (apiChatResponse, error) {
	var resp apiChatResponse
	if err := c.PostJSON(ctx, completionsPath, req, &resp); err != nil {
		return apiChatResponse{}, fmt.Errorf("openrouter: %w", err)
	}

	tc := resp.tokenCount(req.Model)
	c.Usage.Add(tc)
	c.log.DebugContext(ctx, "chat completion",
		"model", tc.Model,
		"input_tokens", tc.InputTokens,
		"output_tokens", tc.OutputTokens,
	)

	if len(resp.Choices) == 0 {
		return apiChatResponse{}, ErrEmptyChoices
	}

	return resp, nil
}

// --- request types ---

type apiChatRequest struct {
	Model            string          `json:"model"`
	Messages         []Message       `json:"messages"`
	MaxTokens        *int            `json:"max_tokens,omitempty"`
	Temperature      *float64        `json:"temperature,omitempty"`
	TopP             *float64        `json:"top_p,omitempty"`
	TopK             *int            `json:"top_k,omitempty"`
	FrequencyPenalty *float64        `json:"frequency_penalty,omitempty"`
	PresencePenalty  *float64        `json:"presence_penalty,omitempty"`
	Seed             *int            `json:"seed,omitempty"`
	Stop             []string        `json:"stop,omitempty"`
	ResponseFormat   json.RawMessage `json:"response_format,omitempty"`
	Reasoning        *apiReasoning   `json:"reasoning,omitempty"`

	// Image generation.
	Modalities   []string        `json:"modalities,omitempty"`
	ImageConfig  *apiImageConfig `json:"image_config,omitempty"`
	N            int             `json:"n,omitempty"`
	Background   string          `json:"background,omitempty"`
	Quality      string          `json:"quality,omitempty"`
	OutputFormat string          `json:"output_format,omitempty"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type apiContentPart struct {
	Type     string  `json:"type"`
	Text     string  `json:"text,omitempty"`
	ImageURL *apiURL `json:"image_url,omitempty"`
}

type apiURL struct {
	URL string `json:"url"`
}

type apiReasoning struct {
	Effort string `json:"effort"`
}

type apiImageConfig struct {
	AspectRatio string `json:"aspect_ratio,omitempty"`
	ImageSize   string `json:"image_size,omitempty"`
}

// --- response types ---

type apiError struct {
	Code    json.RawMessage `json:"code"`
	Message string          `json:"message"`
}

func (e *apiError) toAPIError() *modeladapter.APIError {
	return &modeladapter.APIError{
		Code:    modeladapter.ErrorCode(e.Code),
		Message: e.Message,
	}
}

type apiChatResponse struct {
	ID      string      `json:"id"`
	Model   string      `json:"model"`
	Choices []apiChoice `json:"choices"`
	Usage   apiUsage    `json:"usage"`
	Error   *apiError   `json:"error,omitempty"`
}

// ReportedError surfaces an error object embedded in a 2xx response, either
// at the top level or on the first choice.
func (r *apiChatResponse) ReportedError() *modeladapter.APIError {
	if r.Error != nil {
		return r.Error.toAPIError()
	}
	if len(r.Choices) > 0 && r.Choices[0].Error != nil {
		return r.Choices[0].Error.toAPIError()
	}

	return nil
}

func (r *apiChatResponse) tokenCount(requested string) usage.TokenCount {
	m := r.Model
	if m == "" {
		m = requested
	}

	return usage.TokenCount{
		Model:        m,
		InputTokens:  r.Usage.PromptTokens,
		OutputTokens: r.Usage.CompletionTokens,
		Cost:         r.Usage.Cost,
	}
}

type apiChoice struct {
	Message      apiRespMessage `json:"message"`
	FinishReason string         `json:"finish_reason"`
	Error        *apiError      `json:"error,omitempty"`
}

type apiRespMessage struct {
	Role    string     `json:"role"`
	Content *string    `json:"content"`
	Images  []apiImage `json:"images,omitempty"`
}

type apiImage struct {
	Type     string `json:"type"`
	ImageURL apiURL `json:"image_url"`
}

type apiUsage struct {
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	Cost             float64 `json:"cost"`
}
