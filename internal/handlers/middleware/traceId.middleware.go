package middleware

import (
	"digitaldome/internal/logger"

	goLogger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	TraceIDHeader   = "X-Trace-ID"
	TraceIDLocalKey = "traceID"
)

// TraceID carries the caller's trace ID through the request, minting one
// when the header is absent. The ID lands in the response header, Fiber
// locals, and both logger context keys so handler and controller logs
// share the same trace.
func (m *Middleware) TraceID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		traceID := c.Get(TraceIDHeader)
		if traceID == "" {
			traceID = uuid.New().String()
		}

		c.Set(TraceIDHeader, traceID)
		c.Locals(TraceIDLocalKey, traceID)

		ctx := goLogger.ContextWithTraceID(c.Context(), traceID)
		c.SetUserContext(logger.ContextWithTraceID(ctx, traceID))

		return c.Next()
	}
}

// GetTraceID retrieves the trace ID from Fiber locals.
func GetTraceID(c *fiber.Ctx) string {
	traceID, _ := c.Locals(TraceIDLocalKey).(string)
	return traceID
}
