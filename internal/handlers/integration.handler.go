package handlers

import (
	"time"

	"digitaldome/internal/app"
	integrationController "digitaldome/internal/controllers/integrations"
	"digitaldome/internal/handlers/middleware"
	"digitaldome/internal/services"

	logger "digitaldome/internal/logger"

	"github.com/gofiber/fiber/v2"
)

type IntegrationHandler struct {
	Handler
	integrationController integrationController.IntegrationControllerInterface
	authService           *services.AuthService
}

func NewIntegrationHandler(app app.App, router fiber.Router) *IntegrationHandler {
	log := logger.New("handlers").File("integration_handler")
	return &IntegrationHandler{
		integrationController: app.Controllers.Integration,
		authService:           app.Services.Auth,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *IntegrationHandler) Register() {
	integrations := h.router.Group("/integrations", h.middleware.RequireAuth(h.authService))

	integrations.Post("/import/:importer", h.importFile)
	integrations.Get("/export", h.exportCSV)
}

func (h *IntegrationHandler) importFile(c *fiber.Ctx) error {
	log := logger.New("handlers").TraceFromContext(c.UserContext()).File("integration_handler").Function("importFile")

	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	importerName := c.Params("importer")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "CSV file is required",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		_ = log.Err("Failed to open uploaded file", err, "userID", user.ID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read uploaded file",
		})
	}
	defer func() {
		_ = file.Close()
	}()

	summary, err := h.integrationController.Import(c.UserContext(), user, importerName, file)
	if err != nil {
		status := statusForError(err)
		if status == fiber.StatusInternalServerError {
			_ = log.Err("Import failed", err, "userID", user.ID, "importer", importerName)
			return c.Status(status).JSON(fiber.Map{"error": "Import failed"})
		}
		return c.Status(status).JSON(fiber.Map{"error": "Invalid import file"})
	}

	return c.JSON(fiber.Map{
		"summary": summary,
	})
}

func (h *IntegrationHandler) exportCSV(c *fiber.Ctx) error {
	log := logger.New("handlers").TraceFromContext(c.UserContext()).File("integration_handler").Function("exportCSV")

	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	filename := "digitaldome-export-" + time.Now().Format("2006-01-02") + ".csv"
	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)

	if err := h.integrationController.Export(c.UserContext(), user, c.Response().BodyWriter()); err != nil {
		_ = log.Err("Export failed", err, "userID", user.ID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Export failed",
		})
	}

	return nil
}
