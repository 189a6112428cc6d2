package middleware

import (
	"strings"

	"sudonet/internal/observability"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// untracedPrefixes are polled endpoints and the long-lived feed socket.
var untracedPrefixes = []string{"/health/", "/metrics", "/api/ws/", "/api/swagger/"}

func traced(path string) bool {
	for _, p := range untracedPrefixes {
		if strings.HasPrefix(path, p) {
			return false
		}
	}
	return true
}

// TracingMiddleware starts a server span per API request. Spans are named
// after the route template so post ids and handles stay out of span names;
// the ids are recorded as attributes instead.
func TracingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !traced(c.Path()) {
			return c.Next()
		}

		ctx := otel.GetTextMapPropagator().Extract(c.UserContext(), propagation.HeaderCarrier(c.GetReqHeaders()))
		ctx, span := observability.Tracer.Start(ctx, c.Method()+" "+c.Path(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Method()),
				attribute.String("http.path", c.Path()),
				attribute.String("http.ip", c.IP()),
				attribute.String("http.user_agent", c.Get(fiber.HeaderUserAgent)),
			),
		)
		defer span.End()

		traceID := span.SpanContext().TraceID().String()
		c.Locals("traceID", traceID)
		if requestID, ok := c.Locals("requestid").(string); ok {
			span.SetAttributes(attribute.String("request.id", requestID))
		}
		c.Set("X-Trace-ID", traceID)
		c.SetUserContext(ctx)

		err := c.Next()

		route := c.Route().Path
		if route != "" && route != "/" {
			span.SetName(c.Method() + " " + route)
			span.SetAttributes(attribute.String("http.route", route))
		}
		switch {
		case strings.HasPrefix(route, "/api/posts/:id"):
			if id := c.Params("id"); id != "" {
				span.SetAttributes(observability.AttrPostID.String(id))
			}
		case strings.HasPrefix(route, "/api/profiles/:handle"):
			span.SetAttributes(observability.AttrHandle.String(c.Params("handle")))
		}

		status := c.Response().StatusCode()
		span.SetAttributes(attribute.Int("http.status_code", status))
		if err != nil {
			span.RecordError(err)
		}
		if err != nil || status >= fiber.StatusInternalServerError {
			span.SetStatus(codes.Error, "request failed")
		}
		if userID, ok := c.Locals("userID").(string); ok && userID != "" {
			span.SetAttributes(attribute.String("user.id", userID))
		}
		return err
	}
}
