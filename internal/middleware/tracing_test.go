package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"picfeed/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := observability.Tracer
	observability.Tracer = tp.Tracer("test")
	t.Cleanup(func() { observability.Tracer = prev })
	return rec
}

func spanAttrs(s sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := map[attribute.Key]attribute.Value{}
	for _, kv := range s.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestTracingMiddleware_DomainAttributes(t *testing.T) {
	rec := recordSpans(t)

	app := fiber.New()
	app.Use(TracingMiddleware())
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userID", uint(5))
		return c.Next()
	})
	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }
	app.Get("/api/posts/:id", ok)
	app.Get("/api/home/feed", ok)
	app.Get("/api/users/:username", ok)
	app.Delete("/api/comments/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusInternalServerError) })

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/api/posts/7", nil),
		httptest.NewRequest(http.MethodGet, "/api/home/feed", nil),
		httptest.NewRequest(http.MethodGet, "/api/users/alice", nil),
		httptest.NewRequest(http.MethodDelete, "/api/comments/3", nil),
	} {
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Header.Get("X-Trace-ID"))
	}

	spans := rec.Ended()
	require.Len(t, spans, 4)

	post := spanAttrs(spans[0])
	assert.Equal(t, "GET /api/posts/:id", spans[0].Name())
	assert.Equal(t, int64(7), post["post.id"].AsInt64())
	assert.Equal(t, int64(5), post["viewer.id"].AsInt64())
	assert.Equal(t, "/api/posts/:id", post["http.route"].AsString())

	feed := spanAttrs(spans[1])
	assert.Equal(t, "top", feed["feed.kind"].AsString())

	profile := spanAttrs(spans[2])
	assert.Equal(t, "alice", profile["profile.username"].AsString())

	comment := spanAttrs(spans[3])
	assert.Equal(t, int64(3), comment["comment.id"].AsInt64())
	assert.Equal(t, codes.Error, spans[3].Status().Code)
}
