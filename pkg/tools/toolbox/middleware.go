package toolbox

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
)

// Logger logs the start and outcome of every tool call. Each call gets a
// random id so interleaved calls can be told apart.
func Logger(log *slog.Logger) Middleware {
	return func(name string, next Handler) Handler {
		return func(ctx context.Context, input json.RawMessage) (string, error) {
			l := log.With("tool", name, "call_id", uuid.NewString())
			start := time.Now()

			l.DebugContext(ctx, "tool call started", "args_bytes", len(input))

			out, err := next(ctx, input)

			elapsed := time.Since(start)
			if err != nil {
				l.WarnContext(ctx, "tool call failed", "duration", elapsed, "error", err)
				return out, err
			}

			l.InfoContext(ctx, "tool call finished", "duration", elapsed, "result_bytes", len(out))

			return out, nil
		}
	}
}

// Timeout bounds each call with d. A non-positive d leaves calls unbounded.
func Timeout(d time.Duration) Middleware {
	return func(_ string, next Handler) Handler {
		if d <= 0 {
			return next
		}

		return func(ctx context.Context, input json.RawMessage) (string, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()

			return next(ctx, input)
		}
	}
}

// Recovery turns a panicking handler into an error result.
func Recovery(log *slog.Logger) Middleware {
	return func(name string, next Handler) Handler {
		return func(ctx context.Context, input json.RawMessage) (out string, err error) {
			defer func() {
				if r := recover(); r != nil {
					log.ErrorContext(ctx, "tool panicked", "tool", name, "panic", r, "stack", string(debug.Stack()))
					out, err = "", fmt.Errorf("%s: internal error: %v", name, r)
				}
			}()

			return next(ctx, input)
		}
	}
}
