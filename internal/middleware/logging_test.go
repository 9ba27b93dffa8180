package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCtxHandlerAddsContextValues(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(&ctxHandler{slog.NewJSONHandler(&buf, nil)})

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	ctx = WithUserID(ctx, 12)
	ctx = context.WithValue(ctx, TraceIDKey, "trace-1")
	logger.With("component", "test").InfoContext(ctx, "hello")

	out := buf.String()
	assert.Contains(t, out, `"request_id":"req-1"`)
	assert.Contains(t, out, `"user_id":12`)
	assert.Contains(t, out, `"trace_id":"trace-1"`)
	assert.Contains(t, out, `"component":"test"`)
}

func TestContextMiddlewarePropagatesLocals(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("requestid", "abc")
		c.Locals("traceID", "t-1")
		return c.Next()
	})
	app.Use(ContextMiddleware())

	var gotRequestID, gotTraceID string
	app.Get("/", func(c *fiber.Ctx) error {
		gotRequestID, _ = c.UserContext().Value(RequestIDKey).(string)
		gotTraceID, _ = c.UserContext().Value(TraceIDKey).(string)
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, "abc", gotRequestID)
	assert.Equal(t, "t-1", gotTraceID)
}

func TestConfigureLoggerLevels(t *testing.T) {
	t.Cleanup(func() { ConfigureLogger("test", "") })

	ConfigureLogger("production", "error")
	assert.False(t, Logger.Enabled(context.Background(), slog.LevelWarn))
	assert.True(t, Logger.Enabled(context.Background(), slog.LevelError))

	ConfigureLogger("development", "debug")
	assert.True(t, Logger.Enabled(context.Background(), slog.LevelDebug))
}
