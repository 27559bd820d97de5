package handlers

import (
	"errors"

	"digitaldome/internal/app"
	"digitaldome/internal/handlers/middleware"
	"digitaldome/internal/logger"
	"digitaldome/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type Handler struct {
	middleware middleware.Middleware
	log        logger.Logger
	router     fiber.Router
}

func Router(router fiber.Router, app *app.App) (err error) {
	setupWebSocketRoute(router, app)

	api := router.Group("/api")
	HealthHandler(api, app.Config)
	NewAuthHandler(*app, api).Register()
	NewEntityHandler(*app, api).Register()
	NewTrackingHandler(*app, api).Register()
	NewIntegrationHandler(*app, api).Register()

	return nil
}

func setupWebSocketRoute(router fiber.Router, app *app.App) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/ws", websocket.New(func(c *websocket.Conn) {
		app.Websocket.HandleWebSocket(c)
	}))
}

// statusForError maps domain errors onto HTTP statuses. Anything
// unrecognized is a 500 and should be logged by the caller.
func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrUnknownEntityType):
		return fiber.StatusBadRequest
	case errors.Is(err, models.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, models.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, models.ErrImport):
		return fiber.StatusBadRequest
	case errors.Is(err, models.ErrUpstreamUnavailable):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
