// Package modeladapter provides the HTTP plumbing shared by upstream model API
// clients.
//
// It contains:
//   - [ModelAdapter], an embeddable base struct with auth, custom headers, a
//     per-attempt timeout and JSON helpers that run through a [RetryPolicy]
//   - [APIError] and [NetworkError], the typed failures returned for upstream
//     status codes and transport errors
//   - [RetryPolicy], bounded exponential backoff with jitter and Retry-After support
//   - [github.com/germanamz/openrouter-mcp/pkg/modeladapter/usage]: thread-safe token usage tracker
//
// This package contains no provider-specific code; concrete clients live in
// separate packages that import modeladapter.
package modeladapter
