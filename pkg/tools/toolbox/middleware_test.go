package toolbox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	h := Logger(log)("echo", echoHandler)
	out, err := h(context.Background(), json.RawMessage(`{"a":1}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, out)

	logged := buf.String()
	assert.Contains(t, logged, "tool call started")
	assert.Contains(t, logged, "tool call finished")
	assert.Contains(t, logged, "tool=echo")
	assert.Contains(t, logged, "call_id=")
}

func TestLogger_Error(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	h := Logger(log)("fail", errorHandler)
	_, err := h(context.Background(), nil)
	require.EqualError(t, err, "tool failed")

	assert.Contains(t, buf.String(), "tool call failed")
	assert.Contains(t, buf.String(), "error=\"tool failed\"")
}

func TestTimeout(t *testing.T) {
	slow := func(ctx context.Context, _ json.RawMessage) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}

	h := Timeout(10*time.Millisecond)("slow", slow)
	_, err := h(context.Background(), nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTimeout_Disabled(t *testing.T) {
	h := Timeout(0)("echo", func(ctx context.Context, _ json.RawMessage) (string, error) {
		_, ok := ctx.Deadline()
		assert.False(t, ok)
		return "ok", nil
	})

	out, err := h(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestRecovery(t *testing.T) {
	h := Recovery(slog.New(slog.DiscardHandler))("boom", func(context.Context, json.RawMessage) (string, error) {
		panic("kaboom")
	})

	out, err := h(context.Background(), nil)
	require.Error(t, err)
	assert.Empty(t, out)
	assert.Contains(t, err.Error(), "boom: internal error: kaboom")
}

func TestRecovery_PassesThrough(t *testing.T) {
	want := errors.New("plain")
	h := Recovery(slog.New(slog.DiscardHandler))("x", func(context.Context, json.RawMessage) (string, error) {
		return "", want
	})

	_, err := h(context.Background(), nil)
	assert.ErrorIs(t, err, want)
}
