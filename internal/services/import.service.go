package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"digitaldome/internal/database"
	"digitaldome/internal/logger"
	. "digitaldome/internal/models"

	"github.com/gabriel-vasile/mimetype"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	ImporterGoodreads = "goodreads_csv"
	ImporterSimkl     = "simkl_csv"
	ImporterDome      = "dome_csv"
)

var allowedImportMIMETypes = []string{"text/csv", "text/plain"}

// goodreadsStatuses maps the Goodreads "Exclusive Shelf" vocabulary.
var goodreadsStatuses = map[string]TrackingStatus{
	"read":              StatusCompleted,
	"currently-reading": StatusInProgress,
	"to-read":           StatusPlanned,
}

// simklStatuses maps the Simkl "Watchlist" vocabulary.
var simklStatuses = map[string]TrackingStatus{
	"dropped":       StatusDropped,
	"watching":      StatusInProgress,
	"plan to watch": StatusPlanned,
	"on hold":       StatusOnHold,
	"completed":     StatusCompleted,
}

// ImportSummary reports what an import run accomplished. Malformed rows
// are skipped individually rather than aborting the batch.
type ImportSummary struct {
	EntitiesCreated  int      `json:"entitiesCreated"`
	TrackingImported int      `json:"trackingImported"`
	RowsSkipped      int      `json:"rowsSkipped"`
	RowErrors        []string `json:"rowErrors,omitempty"`
}

// ImportService converts external CSV exports into draft entities plus
// tracking records for the importing user. Each format runs two passes
// over the same rows: pass one bulk-creates entity shells ignoring name
// conflicts, pass two attaches tracking records by name lookup.
type ImportService struct {
	db                 database.DB
	transactionService *TransactionService
	log                logger.Logger
}

func NewImportService(db database.DB, transactionService *TransactionService) *ImportService {
	return &ImportService{
		db:                 db,
		transactionService: transactionService,
		log:                logger.New("ImportService"),
	}
}

// Import validates and runs the named importer over the uploaded file.
func (s *ImportService) Import(
	ctx context.Context,
	user *User,
	importerName string,
	file io.Reader,
) (*ImportSummary, error) {
	log := s.log.Function("Import")

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, log.Err("failed to read upload", err)
	}

	if err := validateImportMIME(content); err != nil {
		return nil, err
	}

	rows, header, err := parseCSV(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrImport, err.Error())
	}

	summary := &ImportSummary{}
	err = s.transactionService.Execute(ctx, func(txCtx context.Context, _ *gorm.DB) error {
		switch importerName {
		case ImporterGoodreads:
			return s.importGoodreads(txCtx, user, header, rows, summary)
		case ImporterSimkl:
			return s.importSimkl(txCtx, user, header, rows, summary)
		case ImporterDome:
			return s.importDome(txCtx, user, header, rows, summary)
		default:
			return fmt.Errorf("%w: unknown importer %q", ErrImport, importerName)
		}
	})
	if err != nil {
		return nil, err
	}

	log.Info(
		"Import completed",
		"importer", importerName,
		"userID", user.ID,
		"entities", summary.EntitiesCreated,
		"tracking", summary.TrackingImported,
		"skipped", summary.RowsSkipped,
	)
	return summary, nil
}

func validateImportMIME(content []byte) error {
	detected := mimetype.Detect(content)
	for _, allowed := range allowedImportMIMETypes {
		if detected.Is(allowed) {
			return nil
		}
	}
	return fmt.Errorf("%w: invalid file type %s", ErrImport, detected.String())
}

// parseCSV reads every record and returns rows as column-name maps.
func parseCSV(content []byte) ([]map[string]string, []string, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("missing header row")
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}

		row := make(map[string]string, len(header))
		for i, column := range header {
			if i < len(record) {
				row[column] = record[i]
			}
		}
		rows = append(rows, row)
	}

	return rows, header, nil
}

func requireColumns(header []string, required ...string) error {
	present := make(map[string]bool, len(header))
	for _, column := range header {
		present[column] = true
	}
	for _, column := range required {
		if !present[column] {
			return fmt.Errorf("%w: missing column %q", ErrImport, column)
		}
	}
	return nil
}

func (s *ImportService) importGoodreads(
	ctx context.Context,
	user *User,
	header []string,
	rows []map[string]string,
	summary *ImportSummary,
) error {
	if err := requireColumns(
		header,
		"Book Id", "Title", "Author", "Exclusive Shelf", "My Rating",
	); err != nil {
		return err
	}

	// Pass 1: entity shells.
	for i, row := range rows {
		if row["Title"] == "" {
			s.skipRow(summary, i, "missing title")
			continue
		}

		authors := []string{row["Author"]}
		authors = append(authors, strings.Split(row["Additional Authors"], ",")...)
		cleaned := make(pq.StringArray, 0, len(authors))
		for _, author := range authors {
			author = strings.Join(strings.Fields(author), " ")
			if author != "" {
				cleaned = append(cleaned, author)
			}
		}

		var publishDate *time.Time
		if year := row["Original Publication Year"]; year != "" {
			if date, ok := parseDate(year); ok {
				publishDate = &date
			}
		}

		book := &Entity{
			Kind:        KindBook,
			Name:        row["Title"],
			Author:      cleaned,
			PublishDate: publishDate,
			CreatedByID: &user.ID,
		}
		created, err := s.createShell(ctx, book)
		if err != nil {
			s.skipRow(summary, i, err.Error())
			continue
		}
		if created {
			summary.EntitiesCreated++
		}
	}

	// Pass 2: tracking records.
	for i, row := range rows {
		if row["Title"] == "" {
			continue
		}

		status, ok := goodreadsStatuses[row["Exclusive Shelf"]]
		if !ok {
			s.skipRow(summary, i, fmt.Sprintf("unknown shelf %q", row["Exclusive Shelf"]))
			continue
		}

		rating, err := parseImportRating(row["My Rating"], 1)
		if err != nil {
			s.skipRow(summary, i, err.Error())
			continue
		}

		notes := buildProvenanceNotes(
			row["My Review"],
			fmt.Sprintf("Imported from Goodreads (id: %s)", row["Book Id"]),
		)

		created, err := s.createTracking(ctx, user, KindBook, row["Title"], status, rating, notes)
		if err != nil {
			s.skipRow(summary, i, err.Error())
			continue
		}
		if created {
			summary.TrackingImported++
		}
	}

	return nil
}

func (s *ImportService) importSimkl(
	ctx context.Context,
	user *User,
	header []string,
	rows []map[string]string,
	summary *ImportSummary,
) error {
	if err := requireColumns(
		header,
		"SIMKL_ID", "Title", "Type", "Watchlist", "Rating",
	); err != nil {
		return err
	}

	kindForRow := func(row map[string]string) EntityKind {
		if row["Type"] == "movie" {
			return KindMovie
		}
		return KindShow
	}

	// Pass 1: entity shells.
	for i, row := range rows {
		if row["Title"] == "" {
			s.skipRow(summary, i, "missing title")
			continue
		}

		var releaseDate *time.Time
		if year := row["Year"]; year != "" && year != "0" {
			if date, ok := parseDate(year); ok {
				releaseDate = &date
			}
		}

		entity := &Entity{
			Kind:        kindForRow(row),
			Name:        row["Title"],
			ReleaseDate: releaseDate,
			CreatedByID: &user.ID,
		}
		created, err := s.createShell(ctx, entity)
		if err != nil {
			s.skipRow(summary, i, err.Error())
			continue
		}
		if created {
			summary.EntitiesCreated++
		}
	}

	// Pass 2: tracking records.
	for i, row := range rows {
		if row["Title"] == "" {
			continue
		}

		status, ok := simklStatuses[row["Watchlist"]]
		if !ok {
			s.skipRow(summary, i, fmt.Sprintf("unknown watchlist %q", row["Watchlist"]))
			continue
		}

		// Simkl rates on a 0-10 scale; halve it to fit 1-5.
		rating, err := parseImportRating(row["Rating"], 2)
		if err != nil {
			s.skipRow(summary, i, err.Error())
			continue
		}

		notes := buildProvenanceNotes(
			row["Memo"],
			fmt.Sprintf("Imported from Simkl (id: %s)", row["SIMKL_ID"]),
		)

		created, err := s.createTracking(
			ctx, user, kindForRow(row), row["Title"], status, rating, notes,
		)
		if err != nil {
			s.skipRow(summary, i, err.Error())
			continue
		}
		if created {
			summary.TrackingImported++
		}
	}

	return nil
}

// importDome re-imports a file produced by ExportService, making
// export-then-import a round trip.
func (s *ImportService) importDome(
	ctx context.Context,
	user *User,
	header []string,
	rows []map[string]string,
	summary *ImportSummary,
) error {
	if err := requireColumns(header, "Title", "Type", "Status"); err != nil {
		return err
	}

	// Pass 1: entity shells.
	for i, row := range rows {
		if row["Title"] == "" {
			s.skipRow(summary, i, "missing title")
			continue
		}

		kind, err := ParseEntityKind(row["Type"])
		if err != nil {
			s.skipRow(summary, i, fmt.Sprintf("unknown type %q", row["Type"]))
			continue
		}

		entity := &Entity{
			Kind:        kind,
			Name:        row["Title"],
			CreatedByID: &user.ID,
		}
		created, err := s.createShell(ctx, entity)
		if err != nil {
			s.skipRow(summary, i, err.Error())
			continue
		}
		if created {
			summary.EntitiesCreated++
		}
	}

	// Pass 2: tracking records.
	for i, row := range rows {
		if row["Title"] == "" {
			continue
		}

		kind, err := ParseEntityKind(row["Type"])
		if err != nil {
			continue
		}

		status, ok := ParseTrackingStatusLabel(row["Status"])
		if !ok {
			s.skipRow(summary, i, fmt.Sprintf("unknown status %q", row["Status"]))
			continue
		}

		rating, err := parseImportRating(row["Rating"], 1)
		if err != nil {
			s.skipRow(summary, i, err.Error())
			continue
		}

		created, err := s.createTracking(
			ctx, user, kind, row["Title"], status, rating,
			truncateRunes(row["Notes"], MaxTrackingNotesLength),
		)
		if err != nil {
			s.skipRow(summary, i, err.Error())
			continue
		}
		if created {
			summary.TrackingImported++
		}
	}

	return nil
}

// createShell inserts an entity, ignoring conflicts with existing names.
// Returns whether a new row was actually written.
func (s *ImportService) createShell(ctx context.Context, entity *Entity) (bool, error) {
	result := s.db.SQLWithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(entity)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (s *ImportService) createTracking(
	ctx context.Context,
	user *User,
	kind EntityKind,
	title string,
	status TrackingStatus,
	rating *int,
	notes string,
) (bool, error) {
	var entity Entity
	err := s.db.SQLWithContext(ctx).
		First(&entity, "kind = ? AND lower(name) = lower(?)", kind, title).Error
	if err != nil {
		return false, fmt.Errorf("entity %q not found after pass 1", title)
	}

	tracking := &TrackingObject{
		EntityID:   entity.ID,
		EntityKind: kind,
		UserID:     user.ID,
		Status:     status,
		Rating:     rating,
		Notes:      notes,
	}

	result := s.db.SQLWithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(tracking)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (s *ImportService) skipRow(summary *ImportSummary, index int, reason string) {
	summary.RowsSkipped++
	summary.RowErrors = append(summary.RowErrors, fmt.Sprintf("row %d: %s", index+1, reason))
}

// parseImportRating converts a source rating to the 1-5 scale, dividing
// by the source scale factor. Zero means unrated.
func parseImportRating(value string, divisor int) (*int, error) {
	if value == "" {
		return nil, nil
	}

	rating, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return nil, fmt.Errorf("unparseable rating %q", value)
	}
	if rating == 0 {
		return nil, nil
	}

	rating /= divisor
	if rating < MinRating {
		rating = MinRating
	}
	if rating > MaxRating {
		return nil, fmt.Errorf("rating %q out of range", value)
	}

	return &rating, nil
}

// buildProvenanceNotes appends the source annotation to the user's notes,
// trimming the notes so the annotation always survives the length cap.
func buildProvenanceNotes(notes, provenance string) string {
	if notes != "" {
		notes += "\n\n"
	}

	budget := MaxTrackingNotesLength - len([]rune(provenance))
	runes := []rune(notes)
	if budget < 0 {
		return string([]rune(provenance)[:MaxTrackingNotesLength])
	}
	if len(runes) > budget {
		runes = runes[:budget]
	}

	return string(runes) + provenance
}
