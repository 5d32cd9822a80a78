package middleware

import (
	"fmt"
	"strconv"
	"strings"

	"picfeed/internal/observability"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// feedRoutes maps feed endpoints to the feed.kind span attribute.
var feedRoutes = map[string]string{
	"/api/posts/feed": "chronological",
	"/api/home/feed":  "top",
}

// routeParamAttrs maps route parameters to span attribute keys.
var routeParamAttrs = map[string]string{
	"id":       "",
	"username": "profile.username",
}

// TracingMiddleware opens a server span per request. The span is named after
// the matched route template and tagged with the viewer, the addressed post,
// comment or profile and, on feed routes, the feed kind.
func TracingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := otel.GetTextMapPropagator().Extract(c.UserContext(), propagation.HeaderCarrier(c.GetReqHeaders()))

		ctx, span := observability.Tracer.Start(ctx, c.Method()+" "+c.Path(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", c.Method()),
				attribute.String("url.path", c.Path()),
				attribute.String("client.address", c.IP()),
			),
		)
		defer span.End()

		traceID := span.SpanContext().TraceID().String()
		c.Locals("traceID", traceID)
		c.Set("X-Trace-ID", traceID)
		if requestID := c.Locals("requestid"); requestID != nil {
			span.SetAttributes(attribute.String("request.id", fmt.Sprintf("%v", requestID)))
		}
		c.SetUserContext(ctx)

		err := c.Next()

		// Route and params are only known once routing has matched.
		route := c.Route().Path
		span.SetName(c.Method() + " " + route)
		span.SetAttributes(attribute.String("http.route", route))
		span.SetAttributes(routeAttributes(c, route)...)

		status := c.Response().StatusCode()
		span.SetAttributes(attribute.Int("http.response.status_code", status))
		if uid, ok := c.Locals("userID").(uint); ok {
			span.SetAttributes(attribute.Int64("viewer.id", int64(uid)))
		}
		if err != nil {
			span.RecordError(err)
		}
		if status >= fiber.StatusInternalServerError {
			span.SetStatus(codes.Error, strconv.Itoa(status))
		}
		return err
	}
}

// routeAttributes derives domain attributes from the matched route.
func routeAttributes(c *fiber.Ctx, route string) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	if kind, ok := feedRoutes[route]; ok {
		attrs = append(attrs, attribute.String("feed.kind", kind))
	}
	for _, name := range c.Route().Params {
		key, ok := routeParamAttrs[name]
		if !ok {
			continue
		}
		value := c.Params(name)
		if key == "" {
			key = idAttrKey(route)
			if id, err := strconv.ParseInt(value, 10, 64); err == nil {
				attrs = append(attrs, attribute.Int64(key, id))
				continue
			}
		}
		attrs = append(attrs, attribute.String(key, value))
	}
	return attrs
}

// idAttrKey names the :id parameter after the resource it addresses.
func idAttrKey(route string) string {
	switch {
	case strings.HasPrefix(route, "/api/comments/"):
		return "comment.id"
	case strings.HasPrefix(route, "/api/posts/"):
		return "post.id"
	}
	return "resource.id"
}
