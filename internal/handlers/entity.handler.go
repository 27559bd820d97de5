package handlers

import (
	"digitaldome/internal/app"
	entityController "digitaldome/internal/controllers/entities"
	trackingController "digitaldome/internal/controllers/tracking"
	"digitaldome/internal/handlers/middleware"
	"digitaldome/internal/services"

	logger "digitaldome/internal/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type EntityHandler struct {
	Handler
	entityController   entityController.EntityControllerInterface
	trackingController trackingController.TrackingControllerInterface
	authService        *services.AuthService
}

func NewEntityHandler(app app.App, router fiber.Router) *EntityHandler {
	log := logger.New("handlers").File("entity_handler")
	return &EntityHandler{
		entityController:   app.Controllers.Entity,
		trackingController: app.Controllers.Tracking,
		authService:        app.Services.Auth,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *EntityHandler) Register() {
	entities := h.router.Group("/entities")

	// Catalog reads work anonymously; a session widens visibility to the
	// viewer's own pending and draft records.
	read := entities.Group("/", h.middleware.OptionalAuth(h.authService))
	read.Get("", h.listEntities)
	read.Get("/search", h.searchEntities)
	read.Get("/tags", h.listTags)
	read.Get("/platforms", h.listPlatforms)
	read.Get("/slug/:slug", h.getEntityBySlug)

	protected := entities.Group("/", h.middleware.RequireAuth(h.authService))
	protected.Get("/drafts", h.getDrafts)
	protected.Post("", h.createEntity)
	protected.Put("/:id", h.updateEntity)
	protected.Delete("/:id", h.deleteEntity)

	moderation := entities.Group("/", h.middleware.RequireAuth(h.authService), h.middleware.RequireModerator())
	moderation.Get("/pending", h.getPendingApproval)
	moderation.Post("/:id/approve", h.approveEntity)

	read.Get("/:id/ratings", h.getRatingSummary)
	read.Get("/:id", h.getEntityByID)
}

func (h *EntityHandler) listEntities(c *fiber.Ctx) error {
	log := logger.New("handlers").TraceFromContext(c.UserContext()).File("entity_handler").Function("listEntities")

	req := entityController.ListEntitiesRequest{
		Type:   c.Query("type"),
		Tag:    c.Query("tag"),
		Limit:  c.QueryInt("limit"),
		Offset: c.QueryInt("offset"),
	}

	entities, err := h.entityController.List(c.UserContext(), middleware.GetUser(c), &req)
	if err != nil {
		status := statusForError(err)
		if status == fiber.StatusInternalServerError {
			_ = log.Err("Failed to list entities", err)
			return c.Status(status).JSON(fiber.Map{"error": "Failed to list entities"})
		}
		return c.Status(status).JSON(fiber.Map{"error": "Invalid list parameters"})
	}

	return c.JSON(fiber.Map{
		"entities": entities,
	})
}

func (h *EntityHandler) searchEntities(c *fiber.Ctx) error {
	log := logger.New("handlers").TraceFromContext(c.UserContext()).File("entity_handler").Function("searchEntities")

	req := entityController.SearchEntitiesRequest{
		Query:    c.Query("q"),
		Type:     c.Query("type"),
		Strategy: c.Query("strategy"),
		Limit:    c.QueryInt("limit"),
	}

	results, err := h.entityController.Search(c.UserContext(), middleware.GetUser(c), &req)
	if err != nil {
		status := statusForError(err)
		if status == fiber.StatusInternalServerError {
			_ = log.Err("Failed to search entities", err, "query", req.Query)
			return c.Status(status).JSON(fiber.Map{"error": "Failed to search entities"})
		}
		return c.Status(status).JSON(fiber.Map{"error": "Invalid search parameters"})
	}

	return c.JSON(fiber.Map{
		"results": results,
	})
}

func (h *EntityHandler) listTags(c *fiber.Ctx) error {
	log := logger.New("handlers").TraceFromContext(c.UserContext()).File("entity_handler").Function("listTags")

	typeLabel := c.Query("type")
	if typeLabel == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "type parameter is required",
		})
	}

	tags, err := h.entityController.ListTags(c.UserContext(), typeLabel)
	if err != nil {
		status := statusForError(err)
		if status == fiber.StatusInternalServerError {
			_ = log.Err("Failed to list tags", err, "type", typeLabel)
			return c.Status(status).JSON(fiber.Map{"error": "Failed to list tags"})
		}
		return c.Status(status).JSON(fiber.Map{"error": "Unknown entity type"})
	}

	return c.JSON(fiber.Map{
		"tags": tags,
	})
}

func (h *EntityHandler) listPlatforms(c *fiber.Ctx) error {
	log := logger.New("handlers").TraceFromContext(c.UserContext()).File("entity_handler").Function("listPlatforms")

	platforms, err := h.entityController.ListPlatforms(c.UserContext())
	if err != nil {
		_ = log.Err("Failed to list platforms", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list platforms",
		})
	}

	return c.JSON(fiber.Map{
		"platforms": platforms,
	})
}

func (h *EntityHandler) getEntityByID(c *fiber.Ctx) error {
	log := logger.New("handlers").TraceFromContext(c.UserContext()).File("entity_handler").Function("getEntityByID")

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid entity ID",
		})
	}

	entity, err := h.entityController.GetByID(c.UserContext(), middleware.GetUser(c), id)
	if err != nil {
		status := statusForError(err)
		if status == fiber.StatusInternalServerError {
			_ = log.Err("Failed to retrieve entity", err, "entityID", id)
			return c.Status(status).JSON(fiber.Map{"error": "Failed to retrieve entity"})
		}
		return c.Status(status).JSON(fiber.Map{"error": "Entity not found"})
	}

	return c.JSON(fiber.Map{
		"entity": entity,
	})
}

func (h *EntityHandler) getEntityBySlug(c *fiber.Ctx) error {
	log := logger.New("handlers").TraceFromContext(c.UserContext()).File("entity_handler").Function("getEntityBySlug")

	entity, err := h.entityController.GetBySlug(c.UserContext(), middleware.GetUser(c), c.Params("slug"))
	if err != nil {
		status := statusForError(err)
		if status == fiber.StatusInternalServerError {
			_ = log.Err("Failed to retrieve entity", err, "slug", c.Params("slug"))
			return c.Status(status).JSON(fiber.Map{"error": "Failed to retrieve entity"})
		}
		return c.Status(status).JSON(fiber.Map{"error": "Entity not found"})
	}

	return c.JSON(fiber.Map{
		"entity": entity,
	})
}

func (h *EntityHandler) getRatingSummary(c *fiber.Ctx) error {
	log := logger.New("handlers").TraceFromContext(c.UserContext()).File("entity_handler").Function("getRatingSummary")

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid entity ID",
		})
	}

	// Rating aggregation sits on the tracking controller but is exposed
	// beside the entity it describes.
	summary, err := h.trackingController.RatingSummary(c.UserContext(), middleware.GetUser(c), id)
	if err != nil {
		status := statusForError(err)
		if status == fiber.StatusInternalServerError {
			_ = log.Err("Failed to aggregate ratings", err, "entityID", id)
			return c.Status(status).JSON(fiber.Map{"error": "Failed to aggregate ratings"})
		}
		return c.Status(status).JSON(fiber.Map{"error": "Entity not found"})
	}

	return c.JSON(fiber.Map{
		"ratings": summary,
	})
}

func (h *EntityHandler) createEntity(c *fiber.Ctx) error {
	log := logger.New("handlers").TraceFromContext(c.UserContext()).File("entity_handler").Function("createEntity")

	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	var req entityController.CreateEntityRequest
	if err := c.BodyParser(&req); err != nil {
		log.Warn("Invalid request body", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	response, err := h.entityController.Create(c.UserContext(), user, &req)
	if err != nil {
		status := statusForError(err)
		if status == fiber.StatusInternalServerError {
			_ = log.Err("Failed to create entity", err, "userID", user.ID)
			return c.Status(status).JSON(fiber.Map{"error": "Failed to create entity"})
		}
		if status == fiber.StatusConflict {
			return c.Status(status).JSON(fiber.Map{"error": "An entity with this name already exists"})
		}
		return c.Status(status).JSON(fiber.Map{"error": "Invalid entity data"})
	}

	return c.Status(fiber.StatusCreated).JSON(response)
}

func (h *EntityHandler) updateEntity(c *fiber.Ctx) error {
	log := logger.New("handlers").TraceFromContext(c.UserContext()).File("entity_handler").Function("updateEntity")

	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid entity ID",
		})
	}

	var req entityController.UpdateEntityRequest
	if err := c.BodyParser(&req); err != nil {
		log.Warn("Invalid request body", "error", err, "entityID", id)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	entity, err := h.entityController.Update(c.UserContext(), user, id, &req)
	if err != nil {
		status := statusForError(err)
		if status == fiber.StatusInternalServerError {
			_ = log.Err("Failed to update entity", err, "entityID", id)
			return c.Status(status).JSON(fiber.Map{"error": "Failed to update entity"})
		}
		if status == fiber.StatusNotFound {
			return c.Status(status).JSON(fiber.Map{"error": "Entity not found"})
		}
		return c.Status(status).JSON(fiber.Map{"error": "Invalid entity data"})
	}

	return c.JSON(fiber.Map{
		"entity": entity,
	})
}

func (h *EntityHandler) deleteEntity(c *fiber.Ctx) error {
	log := logger.New("handlers").TraceFromContext(c.UserContext()).File("entity_handler").Function("deleteEntity")

	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid entity ID",
		})
	}

	if err := h.entityController.Delete(c.UserContext(), user, id); err != nil {
		status := statusForError(err)
		if status == fiber.StatusInternalServerError {
			_ = log.Err("Failed to delete entity", err, "entityID", id)
			return c.Status(status).JSON(fiber.Map{"error": "Failed to delete entity"})
		}
		return c.Status(status).JSON(fiber.Map{"error": "Entity not found"})
	}

	return c.Status(fiber.StatusNoContent).Send(nil)
}

func (h *EntityHandler) approveEntity(c *fiber.Ctx) error {
	log := logger.New("handlers").TraceFromContext(c.UserContext()).File("entity_handler").Function("approveEntity")

	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid entity ID",
		})
	}

	entity, err := h.entityController.Approve(c.UserContext(), user, id)
	if err != nil {
		status := statusForError(err)
		if status == fiber.StatusInternalServerError {
			_ = log.Err("Failed to approve entity", err, "entityID", id)
			return c.Status(status).JSON(fiber.Map{"error": "Failed to approve entity"})
		}
		if status == fiber.StatusNotFound {
			return c.Status(status).JSON(fiber.Map{"error": "Entity not found"})
		}
		return c.Status(status).JSON(fiber.Map{"error": "Entity cannot be approved"})
	}

	return c.JSON(fiber.Map{
		"entity": entity,
	})
}

func (h *EntityHandler) getPendingApproval(c *fiber.Ctx) error {
	log := logger.New("handlers").TraceFromContext(c.UserContext()).File("entity_handler").Function("getPendingApproval")

	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	entities, err := h.entityController.PendingApproval(c.UserContext(), user)
	if err != nil {
		status := statusForError(err)
		if status == fiber.StatusInternalServerError {
			_ = log.Err("Failed to list pending entities", err)
			return c.Status(status).JSON(fiber.Map{"error": "Failed to list pending entities"})
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Moderator access required"})
	}

	return c.JSON(fiber.Map{
		"entities": entities,
	})
}

func (h *EntityHandler) getDrafts(c *fiber.Ctx) error {
	log := logger.New("handlers").TraceFromContext(c.UserContext()).File("entity_handler").Function("getDrafts")

	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	entities, err := h.entityController.Drafts(c.UserContext(), user)
	if err != nil {
		_ = log.Err("Failed to list drafts", err, "userID", user.ID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list drafts",
		})
	}

	return c.JSON(fiber.Map{
		"entities": entities,
	})
}
