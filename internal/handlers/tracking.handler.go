package handlers

import (
	"digitaldome/internal/app"
	trackingController "digitaldome/internal/controllers/tracking"
	"digitaldome/internal/handlers/middleware"
	"digitaldome/internal/services"

	logger "digitaldome/internal/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type TrackingHandler struct {
	Handler
	trackingController trackingController.TrackingControllerInterface
	authService        *services.AuthService
}

func NewTrackingHandler(app app.App, router fiber.Router) *TrackingHandler {
	log := logger.New("handlers").File("tracking_handler")
	return &TrackingHandler{
		trackingController: app.Controllers.Tracking,
		authService:        app.Services.Auth,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *TrackingHandler) Register() {
	tracking := h.router.Group("/tracking", h.middleware.RequireAuth(h.authService))

	tracking.Get("/stats", h.getStats)
	tracking.Get("", h.listTracking)
	tracking.Post("", h.upsertTracking)
	tracking.Get("/:type/:entityId", h.getTracking)
	tracking.Delete("/:id", h.deleteTracking)
}

func (h *TrackingHandler) upsertTracking(c *fiber.Ctx) error {
	log := logger.New("handlers").TraceFromContext(c.UserContext()).File("tracking_handler").Function("upsertTracking")

	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	var req trackingController.UpsertTrackingRequest
	if err := c.BodyParser(&req); err != nil {
		log.Warn("Invalid request body", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	tracking, err := h.trackingController.Upsert(c.UserContext(), user, &req)
	if err != nil {
		status := statusForError(err)
		if status == fiber.StatusInternalServerError {
			_ = log.Err("Failed to upsert tracking record", err, "userID", user.ID, "entityID", req.EntityID)
			return c.Status(status).JSON(fiber.Map{"error": "Failed to save tracking record"})
		}
		if status == fiber.StatusNotFound {
			return c.Status(status).JSON(fiber.Map{"error": "Entity not found"})
		}
		return c.Status(status).JSON(fiber.Map{"error": "Invalid tracking data"})
	}

	return c.JSON(fiber.Map{
		"tracking": tracking,
	})
}

func (h *TrackingHandler) getTracking(c *fiber.Ctx) error {
	log := logger.New("handlers").TraceFromContext(c.UserContext()).File("tracking_handler").Function("getTracking")

	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	entityID, err := uuid.Parse(c.Params("entityId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid entity ID",
		})
	}

	tracking, err := h.trackingController.Get(c.UserContext(), user, c.Params("type"), entityID)
	if err != nil {
		status := statusForError(err)
		if status == fiber.StatusInternalServerError {
			_ = log.Err("Failed to retrieve tracking record", err, "userID", user.ID, "entityID", entityID)
			return c.Status(status).JSON(fiber.Map{"error": "Failed to retrieve tracking record"})
		}
		return c.Status(status).JSON(fiber.Map{"error": "Unknown entity type"})
	}

	// A nil record means the user has not tracked this entity yet
	return c.JSON(fiber.Map{
		"tracking": tracking,
	})
}

func (h *TrackingHandler) listTracking(c *fiber.Ctx) error {
	log := logger.New("handlers").TraceFromContext(c.UserContext()).File("tracking_handler").Function("listTracking")

	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	req := trackingController.ListTrackingRequest{
		Type:   c.Query("type"),
		Status: c.Query("status"),
	}

	records, err := h.trackingController.List(c.UserContext(), user, &req)
	if err != nil {
		status := statusForError(err)
		if status == fiber.StatusInternalServerError {
			_ = log.Err("Failed to list tracking records", err, "userID", user.ID)
			return c.Status(status).JSON(fiber.Map{"error": "Failed to list tracking records"})
		}
		return c.Status(status).JSON(fiber.Map{"error": "Invalid list parameters"})
	}

	return c.JSON(fiber.Map{
		"tracking": records,
	})
}

func (h *TrackingHandler) deleteTracking(c *fiber.Ctx) error {
	log := logger.New("handlers").TraceFromContext(c.UserContext()).File("tracking_handler").Function("deleteTracking")

	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	trackingID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid tracking ID",
		})
	}

	if err := h.trackingController.Delete(c.UserContext(), user, trackingID); err != nil {
		status := statusForError(err)
		if status == fiber.StatusInternalServerError {
			_ = log.Err("Failed to delete tracking record", err, "userID", user.ID, "trackingID", trackingID)
			return c.Status(status).JSON(fiber.Map{"error": "Failed to delete tracking record"})
		}
		return c.Status(status).JSON(fiber.Map{"error": "Tracking record not found"})
	}

	return c.Status(fiber.StatusNoContent).Send(nil)
}

func (h *TrackingHandler) getStats(c *fiber.Ctx) error {
	log := logger.New("handlers").TraceFromContext(c.UserContext()).File("tracking_handler").Function("getStats")

	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	stats, err := h.trackingController.Stats(c.UserContext(), user)
	if err != nil {
		_ = log.Err("Failed to retrieve user stats", err, "userID", user.ID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve stats",
		})
	}

	return c.JSON(stats)
}
