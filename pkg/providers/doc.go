// Package providers groups the upstream model providers.
//
// It is organized into sub-packages:
//   - [github.com/germanamz/openrouter-mcp/pkg/providers/model]: provider-agnostic
//     catalog types (descriptors, capabilities, pricing) and their filters
//   - [github.com/germanamz/openrouter-mcp/pkg/providers/openrouter]: the OpenRouter
//     client for chat, image generation, embeddings and the model catalog
//
// Shared HTTP plumbing lives in [github.com/germanamz/openrouter-mcp/pkg/modeladapter].
package providers
