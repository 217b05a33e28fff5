package modeladapter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// statusHints are prepended to upstream messages for statuses whose cause is
// usually on the caller's side.
var statusHints = map[int]string{
	http.StatusBadRequest:      "bad request, check parameters",
	http.StatusUnauthorized:    "invalid API key, check OPENROUTER_API_KEY",
	http.StatusPaymentRequired: "insufficient credits, add funds at openrouter.ai",
	http.StatusForbidden:       "content flagged by moderation",
	http.StatusTooManyRequests: "rate limited, wait before retrying",
}

// APIError is returned when the upstream API answers with a non-2xx status or
// embeds an error object in an otherwise successful response. It preserves
// the provider's status code and message.
type APIError struct {
	Status     int           // HTTP status code.
	Code       int           // Provider error code from the body (0 when absent).
	Message    string        // Provider error message, or the raw body.
	Body       string        // Raw response body.
	RetryAfter time.Duration // Server-suggested wait before retrying (0 when absent).
}

func (e *APIError) Error() string {
	code := e.Status
	if e.Code != 0 {
		code = e.Code
	}

	msg := e.Message
	if hint, ok := statusHints[code]; ok {
		if msg == "" {
			msg = hint
		} else {
			msg = hint + ": " + msg
		}
	}

	return fmt.Sprintf("upstream error %d: %s", code, msg)
}

// Temporary reports whether the failure belongs to the transient class:
// request timeout, rate limiting or a server-side error.
func (e *APIError) Temporary() bool {
	code := e.Status
	if e.Code != 0 {
		code = e.Code
	}

	return code == http.StatusRequestTimeout ||
		code == http.StatusTooManyRequests ||
		code >= http.StatusInternalServerError
}

// NetworkError wraps a transport-level failure (connection refused, reset,
// per-attempt timeout). It is always considered transient.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return "network error: " + e.Err.Error() }

func (e *NetworkError) Unwrap() error { return e.Err }

// Temporary always reports true.
func (e *NetworkError) Temporary() bool { return true }

// errorEnvelope is the `{"error":{...}}` object the API returns on failure.
type errorEnvelope struct {
	Error *errorBody `json:"error"`
}

type errorBody struct {
	Code    json.RawMessage `json:"code"`
	Message string          `json:"message"`
}

// ParseError extracts the provider code and message from an error payload.
// The bool is false when body carries no error object.
func ParseError(body []byte) (code int, message string, ok bool) {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil || env.Error == nil {
		return 0, "", false
	}

	return ErrorCode(env.Error.Code), env.Error.Message, true
}

// ErrorCode parses a provider error code. The code is numeric on OpenRouter
// but some upstream providers send strings; anything else yields zero.
func ErrorCode(raw json.RawMessage) int {
	n, err := strconv.Atoi(strings.Trim(string(raw), `"`))
	if err != nil {
		return 0
	}

	return n
}

// newAPIError builds an APIError from a failed response.
func newAPIError(resp *http.Response, body []byte, now time.Time) *APIError {
	e := &APIError{
		Status: resp.StatusCode,
		Body:   string(body),
	}

	if code, msg, ok := ParseError(body); ok {
		e.Code = code
		e.Message = msg
	} else {
		e.Message = strings.TrimSpace(string(body))
	}

	e.RetryAfter = ParseRetryAfter(resp.Header.Get("Retry-After"))
	if e.RetryAfter == 0 {
		e.RetryAfter = parseRateLimitReset(resp.Header.Get("X-RateLimit-Reset"), now)
	}

	return e
}

// ParseRetryAfter parses the Retry-After header value as either seconds (integer)
// or an HTTP-date (RFC 7231). Returns zero if unparseable or if the date is in the past.
func ParseRetryAfter(val string) time.Duration {
	if val == "" {
		return 0
	}

	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}

	if t, err := http.ParseTime(val); err == nil {
		d := time.Until(t)
		if d > 0 {
			return d
		}

		return 0
	}

	return 0
}

// parseRateLimitReset parses an X-RateLimit-Reset header holding a Unix
// timestamp in milliseconds and returns the wait relative to now.
func parseRateLimitReset(val string, now time.Time) time.Duration {
	if val == "" {
		return 0
	}

	ms, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}

	if d := time.UnixMilli(ms).Sub(now); d > 0 {
		return d
	}

	return 0
}
