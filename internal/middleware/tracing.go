package middleware

import (
	"fmt"
	"strconv"
	"strings"

	"messenger/internal/observability"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TracingMiddleware adds OpenTelemetry tracing to requests. Once the route
// has run, the span is renamed after the matched pattern and tagged with the
// room or friend request the path addresses.
func TracingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		headers := propagation.MapCarrier{}
		c.Request().Header.VisitAll(func(k, v []byte) {
			headers.Set(string(k), string(v))
		})
		ctx := otel.GetTextMapPropagator().Extract(c.UserContext(), headers)

		ctx, span := observability.Tracer.Start(ctx, c.Method()+" "+c.Path(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Method()),
				attribute.String("http.path", c.Path()),
				attribute.String("http.ip", c.IP()),
				attribute.String("http.user_agent", c.Get("User-Agent")),
			),
		)
		defer span.End()

		traceID := span.SpanContext().TraceID().String()
		c.Locals("traceID", traceID)
		if requestID := c.Locals("requestid"); requestID != nil {
			span.SetAttributes(attribute.String("http.request_id", fmt.Sprintf("%v", requestID)))
		}
		c.Set("X-Trace-ID", traceID)
		c.SetUserContext(ctx)

		err := c.Next()

		route := c.Route().Path
		span.SetName(c.Method() + " " + route)
		span.SetAttributes(
			attribute.String("http.route", route),
			attribute.Int("http.status_code", c.Response().StatusCode()),
		)
		span.SetAttributes(routeAttrs(c, route)...)
		if err != nil {
			span.RecordError(err)
		}
		if userID, ok := c.Locals("userID").(uint); ok {
			span.SetAttributes(observability.UserIDAttr(userID))
		}

		return err
	}
}

// routeAttrs maps the path parameters of the matched route onto domain
// span attributes.
func routeAttrs(c *fiber.Ctx, route string) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	if id, ok := paramID(c, "roomId"); ok {
		attrs = append(attrs, observability.RoomIDAttr(id))
	}
	id, ok := paramID(c, "id")
	if !ok {
		return attrs
	}
	switch {
	case strings.Contains(route, "/message-rooms/"):
		attrs = append(attrs, observability.RoomIDAttr(id))
	case strings.Contains(route, "/friend-requests/"):
		attrs = append(attrs, observability.FriendRequestIDAttr(id))
	}
	return attrs
}

func paramID(c *fiber.Ctx, name string) (uint, bool) {
	raw := c.Params(name)
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
