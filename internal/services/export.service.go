package services

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"

	"digitaldome/internal/logger"
	. "digitaldome/internal/models"
	"digitaldome/internal/repositories"
)

// exportHeader is the dome CSV column set. ImportService understands the
// same columns, so an exported file can be imported back.
var exportHeader = []string{"Title", "Type", "Status", "Rating", "Notes"}

// ExportService serializes a user's tracking records to CSV. Rows stream
// through a chunked cursor so memory stays bounded regardless of how much
// the user tracks.
type ExportService struct {
	trackingRepo repositories.TrackingRepository
	log          logger.Logger
}

func NewExportService(trackingRepo repositories.TrackingRepository) *ExportService {
	return &ExportService{
		trackingRepo: trackingRepo,
		log:          logger.New("ExportService"),
	}
}

// Export writes the header and one row per tracking record to w.
func (s *ExportService) Export(ctx context.Context, user *User, w io.Writer) error {
	log := s.log.Function("Export")

	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeader); err != nil {
		return log.Err("failed to write export header", err)
	}

	err := s.trackingRepo.ForEachUserBatch(ctx, user.ID, func(batch []*TrackingObject) error {
		for _, tracking := range batch {
			if tracking.Entity == nil {
				// Orphaned rows are the prune job's problem, not the export's.
				continue
			}

			rating := ""
			if tracking.Rating != nil {
				rating = strconv.Itoa(*tracking.Rating)
			}

			row := []string{
				tracking.Entity.Name,
				string(tracking.EntityKind),
				tracking.Status.Display(),
				rating,
				tracking.Notes,
			}
			if err := writer.Write(row); err != nil {
				return err
			}
		}

		writer.Flush()
		return writer.Error()
	})
	if err != nil {
		return log.Err("failed to export tracking records", err, "userID", user.ID)
	}

	writer.Flush()
	return writer.Error()
}
