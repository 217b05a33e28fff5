package openrouter_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/germanamz/openrouter-mcp/pkg/config"
	"github.com/germanamz/openrouter-mcp/pkg/modeladapter"
	"github.com/germanamz/openrouter-mcp/pkg/providers/model"
	"github.com/germanamz/openrouter-mcp/pkg/providers/openrouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) config.Config {
	return config.Config{
		APIKey:  "test-key",
		BaseURL: baseURL,
		Referer: "https://example.com/app",
		Title:   "Test App",
	}
}

func instantRetry(attempts int) *modeladapter.RetryPolicy {
	p := modeladapter.NewRetryPolicy(modeladapter.RetryOpts{MaxAttempts: attempts, BaseDelay: time.Millisecond})
	p.SetSleepFunc(func(context.Context, time.Duration) error { return nil })

	return p
}

func newTestClient(t *testing.T, cfg func(*config.Config), handler http.HandlerFunc) *openrouter.Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := testConfig(srv.URL)
	if cfg != nil {
		cfg(&c)
	}

	return openrouter.New(c, openrouter.WithHTTPClient(srv.Client()), openrouter.WithRetryPolicy(instantRetry(3)))
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("failed to encode response: %v", err)
	}
}

func readBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}

	var req map[string]any
	if err := json.Unmarshal(body, &req); err != nil {
		t.Fatalf("failed to unmarshal body: %v", err)
	}

	return req
}

func textResponse(text string) map[string]any {
	return map[string]any{
		"id":    "gen-1",
		"model": "openai/gpt-4o",
		"choices": []map[string]any{
			{
				"message":       map[string]any{"role": "assistant", "content": text},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]any{"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15, "cost": 0.0001},
	}
}

func ptr[T any](v T) *T { return &v }

func TestNew_Defaults(t *testing.T) {
	c := openrouter.New(testConfig("https://example.com/api/v1"))

	assert.Equal(t, "https://example.com/api/v1", c.BaseURL)
	assert.Equal(t, "test-key", c.Auth.Key)
	assert.Equal(t, config.DefaultTimeout, c.Timeout)
	require.NotNil(t, c.Retry)
	assert.Equal(t, config.DefaultMaxAttempts, c.Retry.MaxAttempts())
	assert.Equal(t, "https://example.com/app", c.Headers["HTTP-Referer"])
	assert.Equal(t, "Test App", c.Headers["X-Title"])
}

func TestNew_RetryDisabled(t *testing.T) {
	c := openrouter.New(testConfig("https://example.com"), openrouter.WithRetryPolicy(nil))
	assert.Nil(t, c.Retry)
}

func TestChat_SimpleText(t *testing.T) {
	c := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "https://example.com/app", r.Header.Get("HTTP-Referer"))
		assert.Equal(t, "Test App", r.Header.Get("X-Title"))

		req := readBody(t, r)
		assert.Equal(t, "openai/gpt-4o", req["model"])
		assert.InDelta(t, 0.2, req["temperature"], 1e-9)
		assert.InDelta(t, 0.9, req["top_p"], 1e-9)
		assert.InDelta(t, 256, req["max_tokens"], 1e-9)
		assert.Equal(t, map[string]any{"effort": "high"}, req["reasoning"])
		assert.Equal(t, map[string]any{"type": "json_object"}, req["response_format"])
		assert.Equal(t, []any{"END"}, req["stop"])

		msgs, _ := req["messages"].([]any)
		if !assert.Len(t, msgs, 2) {
			return
		}
		assert.Equal(t, map[string]any{"role": "system", "content": "be brief"}, msgs[0])
		assert.Equal(t, map[string]any{"role": "user", "content": "hi"}, msgs[1])

		writeJSON(t, w, textResponse("hello"))
	})

	res, err := c.Chat(context.Background(), openrouter.ChatParams{
		Model: "openai/gpt-4o",
		Messages: []openrouter.Message{
			{Role: openrouter.RoleSystem, Content: "be brief"},
			{Role: openrouter.RoleUser, Content: "hi"},
		},
		MaxTokens:       ptr(256),
		Temperature:     ptr(0.2),
		TopP:            ptr(0.9),
		Stop:            []string{"END"},
		ResponseFormat:  json.RawMessage(`{"type":"json_object"}`),
		ReasoningEffort: "high",
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", res.Text)
	assert.Equal(t, "stop", res.FinishReason)
	assert.Equal(t, 12, res.Usage.InputTokens)
	assert.Equal(t, 3, res.Usage.OutputTokens)

	total := c.UsageTracker().Total()
	assert.Equal(t, 15, total.Total())
	assert.Equal(t, 1, c.UsageTracker().Count())
}

func TestChat_OmitsUnsetOptions(t *testing.T) {
	c := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		req := readBody(t, r)
		for _, key := range []string{"max_tokens", "temperature", "top_p", "top_k", "seed", "stop", "response_format", "reasoning", "modalities", "image_config", "n"} {
			assert.NotContains(t, req, key)
		}
		writeJSON(t, w, textResponse("ok"))
	})

	_, err := c.Chat(context.Background(), openrouter.ChatParams{
		Model:    "m",
		Messages: []openrouter.Message{{Role: openrouter.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
}

func TestChat_VisionParts(t *testing.T) {
	c := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		req := readBody(t, r)
		msgs, _ := req["messages"].([]any)
		if !assert.Len(t, msgs, 1) {
			return
		}

		msg, _ := msgs[0].(map[string]any)
		assert.Equal(t, []any{
			map[string]any{"type": "text", "text": "what is this?"},
			map[string]any{"type": "image_url", "image_url": map[string]any{"url": "https://example.com/cat.png"}},
		}, msg["content"])

		writeJSON(t, w, textResponse("a cat"))
	})

	res, err := c.Chat(context.Background(), openrouter.ChatParams{
		Model: "m",
		Messages: []openrouter.Message{{
			Role:      openrouter.RoleUser,
			Content:   "what is this?",
			ImageURLs: []string{"https://example.com/cat.png"},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, "a cat", res.Text)
}

func TestChat_EmptyChoices(t *testing.T) {
	c := newTestClient(t, nil, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]any{"choices": []any{}})
	})

	_, err := c.Chat(context.Background(), openrouter.ChatParams{Model: "m"})
	require.ErrorIs(t, err, openrouter.ErrEmptyChoices)
}

func TestChat_UnauthorizedNotRetried(t *testing.T) {
	var calls atomic.Int32

	c := newTestClient(t, nil, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":401,"message":"No auth credentials found"}}`))
	})

	_, err := c.Chat(context.Background(), openrouter.ChatParams{Model: "m"})
	require.Error(t, err)

	var apiErr *modeladapter.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Contains(t, err.Error(), "invalid API key")
	assert.Contains(t, err.Error(), "No auth credentials found")
	assert.Equal(t, int32(1), calls.Load())
}

func TestChat_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32

	c := newTestClient(t, nil, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeJSON(t, w, textResponse("finally"))
	})

	res, err := c.Chat(context.Background(), openrouter.ChatParams{Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, "finally", res.Text)
	assert.Equal(t, int32(3), calls.Load())
}

func TestChat_ExhaustedRetries(t *testing.T) {
	var calls atomic.Int32

	c := newTestClient(t, nil, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.Chat(context.Background(), openrouter.ChatParams{Model: "m"})
	require.Error(t, err)

	var retryErr *modeladapter.RetryError
	require.ErrorAs(t, err, &retryErr)
	assert.Equal(t, 3, retryErr.Attempts)

	var apiErr *modeladapter.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)
	assert.Equal(t, int32(3), calls.Load())
}

func TestChat_ErrorInsideSuccessfulResponse(t *testing.T) {
	c := newTestClient(t, nil, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]any{
			"error": map[string]any{"code": 400, "message": "model not found"},
		})
	})

	_, err := c.Chat(context.Background(), openrouter.ChatParams{Model: "nope/nope"})

	var apiErr *modeladapter.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Code)
	assert.Equal(t, "model not found", apiErr.Message)
}

func TestChat_CancelledContext(t *testing.T) {
	c := newTestClient(t, nil, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, textResponse("late"))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Chat(ctx, openrouter.ChatParams{Model: "m"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestGenerateImage(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)

	c := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)

		req := readBody(t, r)
		assert.Equal(t, "google/gemini-2.5-flash-image", req["model"])
		assert.Equal(t, []any{"image", "text"}, req["modalities"])
		assert.Equal(t, map[string]any{"aspect_ratio": "16:9", "image_size": "2K"}, req["image_config"])
		assert.InDelta(t, 1, req["n"], 1e-9)
		assert.Equal(t, "transparent", req["background"])
		assert.Equal(t, "high", req["quality"])
		assert.Equal(t, "webp", req["output_format"])

		msgs, _ := req["messages"].([]any)
		assert.Equal(t, []any{map[string]any{"role": "user", "content": "a red fox"}}, msgs)

		writeJSON(t, w, map[string]any{
			"choices": []map[string]any{{
				"message": map[string]any{
					"role":    "assistant",
					"content": "",
					"images": []map[string]any{
						{"type": "image_url", "image_url": map[string]any{"url": dataURL}},
					},
				},
			}},
		})
	})

	images, err := c.GenerateImage(context.Background(), openrouter.ImageParams{
		Model:        "google/gemini-2.5-flash-image",
		Prompt:       "a red fox",
		AspectRatio:  "16:9",
		Size:         "2K",
		Background:   "transparent",
		Quality:      "high",
		OutputFormat: "webp",
	})
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, "image/png", images[0].MIMEType)
	assert.Equal(t, png, images[0].Data)
}

func TestGenerateImage_NoImages(t *testing.T) {
	c := newTestClient(t, nil, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, textResponse("I cannot draw that"))
	})

	_, err := c.GenerateImage(context.Background(), openrouter.ImageParams{Model: "m", Prompt: "x"})
	require.ErrorIs(t, err, openrouter.ErrNoImages)
}

func TestDecodeDataURL(t *testing.T) {
	img, err := openrouter.DecodeDataURL("data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("jpg")))
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", img.MIMEType)
	assert.Equal(t, []byte("jpg"), img.Data)

	for _, bad := range []string{
		"https://example.com/a.png",
		"data:image/png;base64",
		"data:image/png,plain",
		"data:image/png;base64,***",
	} {
		_, err := openrouter.DecodeDataURL(bad)
		assert.Error(t, err, bad)
	}
}

func TestEmbed_SingleInput(t *testing.T) {
	c := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)

		req := readBody(t, r)
		assert.Equal(t, "openai/text-embedding-3-small", req["model"])
		assert.Equal(t, "hello", req["input"])
		assert.InDelta(t, 3, req["dimensions"], 1e-9)
		assert.NotContains(t, req, "encoding_format")

		writeJSON(t, w, map[string]any{
			"model": "openai/text-embedding-3-small",
			"data":  []map[string]any{{"index": 0, "embedding": []float64{0.1, 0.2, 0.3}}},
			"usage": map[string]any{"prompt_tokens": 1, "total_tokens": 1},
		})
	})

	res, err := c.Embed(context.Background(), openrouter.EmbedParams{
		Model:      "openai/text-embedding-3-small",
		Input:      []string{"hello"},
		Single:     true,
		Dimensions: ptr(3),
	})
	require.NoError(t, err)
	require.Len(t, res.Vectors, 1)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, res.Vectors[0].Float)
	assert.Equal(t, 1, res.Usage.InputTokens)
}

func TestEmbed_ListOrderedByIndex(t *testing.T) {
	c := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		req := readBody(t, r)
		assert.Equal(t, []any{"a", "b"}, req["input"])

		writeJSON(t, w, map[string]any{
			"data": []map[string]any{
				{"index": 1, "embedding": []float64{2}},
				{"index": 0, "embedding": []float64{1}},
			},
		})
	})

	res, err := c.Embed(context.Background(), openrouter.EmbedParams{Model: "m", Input: []string{"a", "b"}})
	require.NoError(t, err)
	require.Len(t, res.Vectors, 2)
	assert.Equal(t, []float64{1}, res.Vectors[0].Float)
	assert.Equal(t, []float64{2}, res.Vectors[1].Float)
	assert.Equal(t, "m", res.Model)
}

func TestEmbed_Base64(t *testing.T) {
	c := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		req := readBody(t, r)
		assert.Equal(t, "base64", req["encoding_format"])

		writeJSON(t, w, map[string]any{
			"data": []map[string]any{{"index": 0, "embedding": "AAAAAA=="}},
		})
	})

	res, err := c.Embed(context.Background(), openrouter.EmbedParams{
		Model:          "m",
		Input:          []string{"x"},
		EncodingFormat: openrouter.EncodingBase64,
	})
	require.NoError(t, err)
	require.Len(t, res.Vectors, 1)
	assert.Nil(t, res.Vectors[0].Float)
	assert.Equal(t, "AAAAAA==", res.Vectors[0].Base64)

	out, err := json.Marshal(res.Vectors[0])
	require.NoError(t, err)
	assert.JSONEq(t, `"AAAAAA=="`, string(out))
}

func TestEmbed_Empty(t *testing.T) {
	c := newTestClient(t, nil, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]any{"data": []any{}})
	})

	_, err := c.Embed(context.Background(), openrouter.EmbedParams{Model: "m", Input: []string{"x"}})
	require.ErrorIs(t, err, openrouter.ErrNoEmbeddings)
}

func TestEmbed_CountMismatch(t *testing.T) {
	c := newTestClient(t, nil, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]any{
			"data": []map[string]any{{"index": 0, "embedding": []float64{1}}},
		})
	})

	_, err := c.Embed(context.Background(), openrouter.EmbedParams{Model: "m", Input: []string{"a", "b"}})
	require.ErrorIs(t, err, openrouter.ErrEmbeddingCount)
	assert.Contains(t, err.Error(), "got 1 vectors for 2 inputs")
}

var catalogBody = map[string]any{
	"data": []map[string]any{
		{
			"id":             "openai/gpt-4o",
			"name":           "OpenAI: GPT-4o",
			"context_length": 128000,
			"architecture": map[string]any{
				"input_modalities":  []string{"text", "image"},
				"output_modalities": []string{"text"},
			},
			"supported_parameters": []string{"tools", "temperature"},
			"pricing":              map[string]any{"prompt": "0.0000025", "completion": "0.00001"},
		},
		{
			"id":   "google/gemini-2.5-flash-image",
			"name": "Google: Nano Banana",
			"architecture": map[string]any{
				"input_modalities":  []string{"text", "image"},
				"output_modalities": []string{"image", "text"},
			},
			"top_provider": map[string]any{"context_length": 32768},
		},
		{"name": "no id, skipped"},
	},
}

func TestListModels(t *testing.T) {
	c := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/models", r.URL.Path)
		writeJSON(t, w, catalogBody)
	})

	models, err := c.ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 2)

	assert.Equal(t, model.Descriptor{
		ID:            "openai/gpt-4o",
		Name:          "OpenAI: GPT-4o",
		ContextLength: 128000,
		Capabilities:  []model.Capability{model.Vision, model.Tools, model.LongContext},
		Pricing:       model.Pricing{Prompt: "0.0000025", Completion: "0.00001"},
	}, models[0])

	assert.Equal(t, 32768, models[1].ContextLength)
	assert.Equal(t, []model.Capability{model.Vision, model.ImageGen}, models[1].Capabilities)
}

func TestListModels_FrontendShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/frontend/models", r.URL.Path)
		writeJSON(t, w, map[string]any{
			"data": []map[string]any{{
				"slug":              "black-forest-labs/flux",
				"name":              "FLUX",
				"input_modalities":  []string{"text"},
				"output_modalities": []string{"image"},
			}},
		})
	}))
	t.Cleanup(srv.Close)

	cfg := testConfig("https://unused.invalid/api/v1")
	cfg.Catalog.URL = srv.URL + "/frontend/models"
	c := openrouter.New(cfg, openrouter.WithHTTPClient(srv.Client()), openrouter.WithRetryPolicy(nil))

	models, err := c.ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, "black-forest-labs/flux", models[0].ID)
	assert.Equal(t, []model.Capability{model.ImageGen}, models[0].Capabilities)
}

func TestListModels_Cached(t *testing.T) {
	var calls atomic.Int32

	c := newTestClient(t, nil, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		writeJSON(t, w, catalogBody)
	})

	for range 3 {
		_, err := c.ListModels(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), calls.Load())

	c.RefreshModels()
	_, err := c.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestListModels_CacheDisabled(t *testing.T) {
	var calls atomic.Int32

	c := newTestClient(t, func(cfg *config.Config) {
		cfg.Catalog.Disabled = true
	}, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		writeJSON(t, w, catalogBody)
	})

	for range 2 {
		_, err := c.ListModels(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), calls.Load())

	c.RefreshModels() // no-op
}

func TestFindModels(t *testing.T) {
	c := newTestClient(t, nil, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, catalogBody)
	})

	found, err := c.FindModels(context.Background(), "BANANA")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "google/gemini-2.5-flash-image", found[0].ID)

	none, err := c.FindModels(context.Background(), "zzz-no-match")
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.NotNil(t, none)
}

func TestListModels_UpstreamError(t *testing.T) {
	c := newTestClient(t, nil, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := c.ListModels(context.Background())

	var apiErr *modeladapter.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
}
