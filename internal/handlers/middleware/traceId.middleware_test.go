package middleware

import (
	"net/http/httptest"
	"testing"

	"digitaldome/internal/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestTraceID_PropagatesIncomingHeader(t *testing.T) {
	app := fiber.New()
	m := &Middleware{}
	app.Use(m.TraceID())

	var localID, contextID string
	app.Get("/", func(c *fiber.Ctx) error {
		localID = GetTraceID(c)
		contextID = logger.TraceIDFromContext(c.UserContext())
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(TraceIDHeader, "trace-abc-123")

	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, "trace-abc-123", resp.Header.Get(TraceIDHeader))
	assert.Equal(t, "trace-abc-123", localID)
	assert.Equal(t, "trace-abc-123", contextID)
}

func TestTraceID_GeneratesWhenMissing(t *testing.T) {
	app := fiber.New()
	m := &Middleware{}
	app.Use(m.TraceID())

	var localID string
	app.Get("/", func(c *fiber.Ctx) error {
		localID = GetTraceID(c)
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	assert.NoError(t, err)
	assert.NotEmpty(t, localID)
	assert.Equal(t, localID, resp.Header.Get(TraceIDHeader))
}
