package integrationController

import (
	"context"
	"io"

	"digitaldome/config"
	"digitaldome/internal/events"
	"digitaldome/internal/logger"
	. "digitaldome/internal/models"
	"digitaldome/internal/services"
)

// IntegrationController fronts the CSV import and export pipelines.
type IntegrationController struct {
	importService *services.ImportService
	exportService *services.ExportService
	eventBus      *events.EventBus
	Config        config.Config
}

type IntegrationControllerInterface interface {
	Import(ctx context.Context, user *User, importerName string, file io.Reader) (*services.ImportSummary, error)
	Export(ctx context.Context, user *User, w io.Writer) error
}

func New(
	services services.Service,
	eventBus *events.EventBus,
	config config.Config,
) IntegrationControllerInterface {
	return &IntegrationController{
		importService: services.Import,
		exportService: services.Export,
		eventBus:      eventBus,
		Config:        config,
	}
}

func (c *IntegrationController) Import(
	ctx context.Context,
	user *User,
	importerName string,
	file io.Reader,
) (*services.ImportSummary, error) {
	log := logger.NewWithContext(ctx, "integrationController").Function("Import")

	summary, err := c.importService.Import(ctx, user, importerName, file)
	if err != nil {
		return nil, err
	}

	_ = c.eventBus.PublishToUser(user.ID, events.IMPORT_COMPLETE, map[string]any{
		"importer": importerName,
		"entities": summary.EntitiesCreated,
		"tracking": summary.TrackingImported,
		"skipped":  summary.RowsSkipped,
	})

	log.Info("Import finished", "userID", user.ID, "importer", importerName)
	return summary, nil
}

func (c *IntegrationController) Export(ctx context.Context, user *User, w io.Writer) error {
	return c.exportService.Export(ctx, user, w)
}
