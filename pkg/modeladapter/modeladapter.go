package modeladapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/germanamz/openrouter-mcp/pkg/modeladapter/usage"
)

// maxErrorBody caps how much of a failed response is kept for error reporting.
const maxErrorBody = 64 << 10

// Auth holds authentication settings for an upstream API.
type Auth struct {
	Key    string // API key value.
	Header string // Header name (default: "Authorization").
	Scheme string // Scheme prefix (default: "Bearer" when Header is "Authorization").
}

// ErrorReporter is implemented by response types that can carry an error
// object inside a 2xx response. A non-nil result fails the attempt and goes
// through the retry policy like a non-2xx status would.
type ErrorReporter interface {
	ReportedError() *APIError
}

// ModelAdapter holds shared state for upstream API clients. Embed it in
// concrete client structs to get HTTP helpers, auth, custom headers, bounded
// retries and usage tracking.
type ModelAdapter struct {
	Auth    Auth              // Authentication settings.
	BaseURL string            // API base URL (no trailing slash).
	Client  *http.Client      // HTTP client; falls back to a default client.
	Headers map[string]string // Extra headers applied to every request.
	Timeout time.Duration     // Per-attempt request timeout (0 = none beyond the client's).
	Retry   *RetryPolicy      // Retry policy; nil means a single attempt.
	Usage   usage.Tracker     // Token usage tracker.

	clientOnce    sync.Once
	defaultClient *http.Client
}

// New creates a ModelAdapter with the given settings.
// A nil client falls back to a default client at call time.
func New(baseURL string, auth Auth, client *http.Client) ModelAdapter {
	return ModelAdapter{
		Auth:    auth,
		BaseURL: baseURL,
		Client:  client,
	}
}

// UsageTracker returns the adapter's token usage tracker.
func (a *ModelAdapter) UsageTracker() *usage.Tracker { return &a.Usage }

// httpClient returns the configured client or a cached default client with a 10-minute timeout.
func (a *ModelAdapter) httpClient() *http.Client {
	if a.Client != nil {
		return a.Client
	}

	a.clientOnce.Do(func() {
		a.defaultClient = &http.Client{Timeout: 10 * time.Minute}
	})

	return a.defaultClient
}

// NewRequest builds an *http.Request with the base URL, auth, and custom
// headers already applied. An absolute http(s) path is used as is.
func (a *ModelAdapter) NewRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	url := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		url = a.BaseURL + path
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}

	// Apply auth.
	if a.Auth.Key != "" {
		header := a.Auth.Header
		if header == "" {
			header = "Authorization"
		}

		value := a.Auth.Key
		if header == "Authorization" {
			scheme := a.Auth.Scheme
			if scheme == "" {
				scheme = "Bearer"
			}

			value = scheme + " " + value
		} else if a.Auth.Scheme != "" {
			value = a.Auth.Scheme + " " + value
		}

		req.Header.Set(header, value)
	}

	// Apply custom headers.
	for k, v := range a.Headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

// Do sends the request using the configured HTTP client.
func (a *ModelAdapter) Do(req *http.Request) (*http.Response, error) {
	return a.httpClient().Do(req) //nolint:gosec // URL is built from trusted BaseURL config, not user input.
}

// PostJSON marshals payload as JSON, sends a POST to the given path and
// unmarshals the response body into dest. If dest is nil the response body is
// discarded after the status check.
func (a *ModelAdapter) PostJSON(ctx context.Context, path string, payload any, dest any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	return a.doJSON(ctx, http.MethodPost, path, body, dest)
}

// GetJSON sends a GET to the given path and unmarshals the response into dest.
func (a *ModelAdapter) GetJSON(ctx context.Context, path string, dest any) error {
	return a.doJSON(ctx, http.MethodGet, path, nil, dest)
}

// doJSON runs a single JSON exchange through the retry policy.
func (a *ModelAdapter) doJSON(ctx context.Context, method, path string, body []byte, dest any) error {
	attempt := func(ctx context.Context) error {
		return a.attemptJSON(ctx, method, path, body, dest)
	}

	if a.Retry == nil {
		return attempt(ctx)
	}

	return a.Retry.Do(ctx, attempt)
}

// attemptJSON performs one HTTP round trip. Non-2xx statuses become
// *APIError; transport failures become *NetworkError unless ctx itself is done.
func (a *ModelAdapter) attemptJSON(ctx context.Context, method, path string, body []byte, dest any) error {
	if a.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := a.NewRequest(ctx, method, path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return newAPIError(resp, respBody, time.Now())
	}

	if dest == nil {
		return nil
	}

	// Earlier attempts may have decoded into dest already.
	if v := reflect.ValueOf(dest); v.Kind() == reflect.Pointer && !v.IsNil() {
		v.Elem().SetZero()
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		if ctx.Err() != nil {
			return &NetworkError{Err: err}
		}

		return fmt.Errorf("decode response: %w", err)
	}

	if r, ok := dest.(ErrorReporter); ok {
		if apiErr := r.ReportedError(); apiErr != nil {
			apiErr.Status = resp.StatusCode
			return apiErr
		}
	}

	return nil
}
