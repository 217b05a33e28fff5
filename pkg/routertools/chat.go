package routertools

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/germanamz/openrouter-mcp/pkg/config"
	"github.com/germanamz/openrouter-mcp/pkg/providers/openrouter"
)

const chatDescription = `Send a chat completion request to any OpenRouter model and return the response text.
Pass either "prompt" (a single user message) or "messages" (a full conversation).
If "model" is omitted the configured default for the task is used (DEFAULT_TEXT_MODEL, DEFAULT_CODE_MODEL or DEFAULT_VISION_MODEL).`

var jsonObjectFormat = json.RawMessage(`{"type":"json_object"}`)

type chatMessage struct {
	Role    string `json:"role" validate:"required,oneof=system user assistant"`
	Content string `json:"content" validate:"required"`
}

type chatArgs struct {
	Model            string          `json:"model"`
	Prompt           string          `json:"prompt"`
	Messages         []chatMessage   `json:"messages" validate:"omitempty,dive"`
	System           string          `json:"system"`
	AssistantPrefill string          `json:"assistant_prefill"`
	MaxTokens        *int            `json:"max_tokens" validate:"omitempty,gt=0"`
	Temperature      *float64        `json:"temperature" validate:"omitempty,gte=0,lte=2"`
	TopP             *float64        `json:"top_p" validate:"omitempty,gte=0,lte=1"`
	TopK             *int            `json:"top_k" validate:"omitempty,gte=0"`
	FrequencyPenalty *float64        `json:"frequency_penalty" validate:"omitempty,gte=-2,lte=2"`
	PresencePenalty  *float64        `json:"presence_penalty" validate:"omitempty,gte=-2,lte=2"`
	Seed             *int            `json:"seed"`
	Stop             []string        `json:"stop"`
	JSONMode         bool            `json:"json_mode"`
	ResponseFormat   json.RawMessage `json:"response_format"`
	ReasoningEffort  string          `json:"reasoning_effort" validate:"omitempty,oneof=low medium high"`
	Task             string          `json:"task" validate:"omitempty,oneof=text code vision"`
	ImageURLs        []string        `json:"image_urls" validate:"omitempty,dive,url"`
}

func (s *Service) chat(ctx context.Context, input json.RawMessage) (string, error) {
	var args chatArgs
	if err := s.decode(input, &args); err != nil {
		return "", err
	}

	if err := args.check(); err != nil {
		return "", err
	}

	m, err := s.resolveModel(args.Model, args.kind())
	if err != nil {
		return "", err
	}

	res, err := s.client.Chat(ctx, openrouter.ChatParams{
		Model:            m,
		Messages:         args.messages(),
		MaxTokens:        args.MaxTokens,
		Temperature:      args.Temperature,
		TopP:             args.TopP,
		TopK:             args.TopK,
		FrequencyPenalty: args.FrequencyPenalty,
		PresencePenalty:  args.PresencePenalty,
		Seed:             args.Seed,
		Stop:             args.Stop,
		ResponseFormat:   args.responseFormat(),
		ReasoningEffort:  args.ReasoningEffort,
	})
	if err != nil {
		return "", err
	}

	return res.Text, nil
}

// check enforces the rules the struct tags cannot express.
func (a *chatArgs) check() error {
	hasPrompt := a.hasPrompt()
	hasMessages := len(a.Messages) > 0

	switch {
	case hasPrompt && hasMessages:
		return &ValidationError{Field: "prompt", Reason: "provide prompt or messages, not both"}
	case !hasPrompt && !hasMessages:
		return &ValidationError{Field: "prompt", Reason: "prompt or messages must be provided"}
	}

	if rf := a.responseFormatRaw(); rf != nil {
		var obj map[string]any
		if err := json.Unmarshal(rf, &obj); err != nil {
			return &ValidationError{Field: "response_format", Reason: "must be a JSON object"}
		}
	}

	return nil
}

// hasPrompt reports whether prompt carries more than whitespace.
func (a *chatArgs) hasPrompt() bool {
	return strings.TrimSpace(a.Prompt) != ""
}

// kind picks the default-model slot. Image inputs imply vision unless the
// caller names a task.
func (a *chatArgs) kind() config.Kind {
	switch a.Task {
	case "code":
		return config.KindCode
	case "vision":
		return config.KindVision
	case "text":
		return config.KindText
	}

	if len(a.ImageURLs) > 0 {
		return config.KindVision
	}

	return config.KindText
}

// messages builds the conversation: optional system prompt, the prompt or the
// caller's messages, image inputs on the last user turn and an optional
// assistant prefill.
func (a *chatArgs) messages() []openrouter.Message {
	msgs := make([]openrouter.Message, 0, len(a.Messages)+3)

	if a.System != "" {
		msgs = append(msgs, openrouter.Message{Role: openrouter.RoleSystem, Content: a.System})
	}

	if a.hasPrompt() {
		msgs = append(msgs, openrouter.Message{Role: openrouter.RoleUser, Content: a.Prompt})
	}
	for _, m := range a.Messages {
		msgs = append(msgs, openrouter.Message{Role: m.Role, Content: m.Content})
	}

	if len(a.ImageURLs) > 0 {
		last := -1
		for i := range msgs {
			if msgs[i].Role == openrouter.RoleUser {
				last = i
			}
		}
		if last < 0 {
			msgs = append(msgs, openrouter.Message{Role: openrouter.RoleUser})
			last = len(msgs) - 1
		}
		msgs[last].ImageURLs = a.ImageURLs
	}

	if a.AssistantPrefill != "" {
		msgs = append(msgs, openrouter.Message{Role: openrouter.RoleAssistant, Content: a.AssistantPrefill})
	}

	return msgs
}

// responseFormat returns the explicit response_format, else json_object when
// json_mode is set.
func (a *chatArgs) responseFormat() json.RawMessage {
	if rf := a.responseFormatRaw(); rf != nil {
		return rf
	}
	if a.JSONMode {
		return jsonObjectFormat
	}

	return nil
}

func (a *chatArgs) responseFormatRaw() json.RawMessage {
	rf := bytes.TrimSpace(a.ResponseFormat)
	if len(rf) == 0 || bytes.Equal(rf, []byte("null")) {
		return nil
	}

	return rf
}
