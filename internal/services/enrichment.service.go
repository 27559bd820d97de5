package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"digitaldome/internal/logger"
	. "digitaldome/internal/models"
	"digitaldome/internal/repositories"

	"github.com/gosimple/slug"
	"gorm.io/datatypes"
)

// EnrichmentService fills missing entity detail fields from external
// metadata providers. It only ever writes fields the user left unset;
// hand-entered values always win. Provider failures come back as warnings
// so a save never fails because an upstream was down.
type EnrichmentService struct {
	tmdb         *TMDBService
	igdb         *IGDBService
	openai       *OpenAIService
	storage      *StorageService
	tagRepo      repositories.TagRepository
	platformRepo repositories.PlatformRepository
	log          logger.Logger
}

func NewEnrichmentService(
	tmdb *TMDBService,
	igdb *IGDBService,
	openai *OpenAIService,
	storage *StorageService,
	tagRepo repositories.TagRepository,
	platformRepo repositories.PlatformRepository,
) *EnrichmentService {
	return &EnrichmentService{
		tmdb:         tmdb,
		igdb:         igdb,
		openai:       openai,
		storage:      storage,
		tagRepo:      tagRepo,
		platformRepo: platformRepo,
		log:          logger.New("EnrichmentService"),
	}
}

// Enrich looks the entity up by name with the provider for its kind and
// fills any unset detail fields. Returns human-readable warnings for
// anything it could not complete.
func (s *EnrichmentService) Enrich(ctx context.Context, entity *Entity) []string {
	log := s.log.Function("Enrich")

	var warnings []string
	var err error

	switch entity.Kind {
	case KindMovie:
		warnings, err = s.enrichMovie(ctx, entity)
	case KindShow:
		warnings, err = s.enrichShow(ctx, entity)
	case KindGame:
		warnings, err = s.enrichGame(ctx, entity)
	case KindBook:
		warnings, err = s.enrichBook(ctx, entity)
	default:
		return []string{fmt.Sprintf("no metadata provider for kind %q", entity.Kind)}
	}

	if err != nil {
		log.Warn("enrichment degraded", "kind", entity.Kind, "name", entity.Name, "error", err)
		warnings = append(warnings, "external metadata lookup failed, saved without enrichment")
	}

	return warnings
}

func (s *EnrichmentService) enrichMovie(ctx context.Context, entity *Entity) ([]string, error) {
	if !s.tmdb.Enabled() {
		return []string{"TMDB is not configured"}, nil
	}

	results, err := s.tmdb.SearchMovies(entity.Name)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return []string{"no TMDB match for " + entity.Name}, nil
	}

	details, err := s.tmdb.MovieDetails(results[0].ID)
	if err != nil {
		return nil, err
	}

	s.snapshotMetadata(entity, details)

	var warnings []string
	if entity.Description == "" {
		entity.Description = truncateRunes(details.Overview, MaxEntityDescriptionLength)
	}
	if entity.ReleaseDate == nil {
		if date, ok := parseDate(details.ReleaseDate); ok {
			entity.ReleaseDate = &date
		}
	}
	if entity.LengthMinutes == nil && details.Runtime > 0 {
		runtime := details.Runtime
		entity.LengthMinutes = &runtime
	}
	if len(entity.Director) == 0 {
		for _, crew := range details.Credits.Crew {
			if crew.Job == "Director" {
				entity.Director = append(entity.Director, crew.Name)
			}
		}
	}
	if len(entity.Cast) == 0 {
		for i, cast := range details.Credits.Cast {
			if i >= 10 {
				break
			}
			entity.Cast = append(entity.Cast, cast.Name)
		}
	}
	if entity.IMDBURL == nil && details.IMDBID != "" {
		imdbURL := "https://www.imdb.com/title/" + details.IMDBID
		entity.IMDBURL = &imdbURL
	}

	warnings = append(warnings, s.attachPoster(entity, details.PosterPath)...)
	return warnings, nil
}

func (s *EnrichmentService) enrichShow(ctx context.Context, entity *Entity) ([]string, error) {
	if !s.tmdb.Enabled() {
		return []string{"TMDB is not configured"}, nil
	}

	results, err := s.tmdb.SearchShows(entity.Name)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return []string{"no TMDB match for " + entity.Name}, nil
	}

	details, err := s.tmdb.ShowDetails(results[0].ID)
	if err != nil {
		return nil, err
	}

	s.snapshotMetadata(entity, details)

	var warnings []string
	if entity.Description == "" {
		entity.Description = truncateRunes(details.Overview, MaxEntityDescriptionLength)
	}
	if entity.ReleaseDate == nil {
		if date, ok := parseDate(details.FirstAir); ok {
			entity.ReleaseDate = &date
		}
	}
	if len(entity.Creator) == 0 {
		for _, creator := range details.CreatedBy {
			entity.Creator = append(entity.Creator, creator.Name)
		}
	}
	if len(entity.Stars) == 0 {
		for i, cast := range details.Credits.Cast {
			if i >= 10 {
				break
			}
			entity.Stars = append(entity.Stars, cast.Name)
		}
	}

	warnings = append(warnings, s.attachPoster(entity, details.PosterPath)...)
	return warnings, nil
}

func (s *EnrichmentService) enrichGame(ctx context.Context, entity *Entity) ([]string, error) {
	if !s.igdb.Enabled() {
		return []string{"IGDB is not configured"}, nil
	}

	games, err := s.igdb.SearchGames(entity.Name)
	if err != nil {
		return nil, err
	}
	if len(games) == 0 {
		return []string{"no IGDB match for " + entity.Name}, nil
	}

	game := games[0]
	s.snapshotMetadata(entity, game)

	var warnings []string
	if entity.Description == "" {
		entity.Description = truncateRunes(game.Summary, MaxEntityDescriptionLength)
	}
	if entity.ReleaseDate == nil && game.FirstReleaseDate > 0 {
		date := time.Unix(game.FirstReleaseDate, 0).UTC()
		entity.ReleaseDate = &date
	}
	for _, company := range game.InvolvedCompanies {
		if entity.Developer == nil && company.Developer {
			name := company.Company.Name
			entity.Developer = &name
		}
		if entity.Publisher == nil && company.Publisher {
			name := company.Company.Name
			entity.Publisher = &name
		}
	}

	// Platform labels route through the alias registry so "PS5" and
	// "PlayStation 5" land on the same canonical row.
	if len(entity.Platforms) == 0 && len(game.Platforms) > 0 {
		labels := make([]string, 0, len(game.Platforms))
		for _, platform := range game.Platforms {
			labels = append(labels, platform.Name)
		}
		platforms, err := s.platformRepo.ResolveBatch(ctx, labels)
		if err != nil {
			warnings = append(warnings, "could not resolve platform labels")
		} else {
			entity.Platforms = platforms
		}
	}

	if len(entity.Tags) == 0 && len(game.Genres) > 0 {
		labels := make([]string, 0, len(game.Genres))
		for _, genre := range game.Genres {
			labels = append(labels, genre.Name)
		}
		tags, err := s.tagRepo.ResolveBatch(ctx, KindGame, labels)
		if err != nil {
			warnings = append(warnings, "could not resolve genre labels")
		} else {
			entity.Tags = tags
		}
	}

	return warnings, nil
}

type bookCompletion struct {
	Author      []string `json:"author"`
	PublishDate string   `json:"publish_date"`
	Description string   `json:"description"`
}

func (s *EnrichmentService) enrichBook(ctx context.Context, entity *Entity) ([]string, error) {
	if !s.openai.Enabled() {
		return []string{"OpenAI is not configured"}, nil
	}

	prompt := fmt.Sprintf(
		`Provide metadata for the book titled %q as JSON with keys "author" (array of strings), "publish_date" (YYYY-MM-DD of first publication), and "description" (one short paragraph). Use null for anything you are not certain of.`,
		entity.Name,
	)

	var completion bookCompletion
	err := s.openai.CompleteJSON(
		"You are a book metadata service. Answer only with JSON.",
		prompt,
		&completion,
	)
	if err != nil {
		return nil, err
	}

	s.snapshotMetadata(entity, completion)

	if len(entity.Author) == 0 {
		entity.Author = completion.Author
	}
	if entity.PublishDate == nil {
		if date, ok := parseDate(completion.PublishDate); ok {
			entity.PublishDate = &date
		}
	}
	if entity.Description == "" {
		entity.Description = truncateRunes(completion.Description, MaxEntityDescriptionLength)
	}

	return nil, nil
}

// snapshotMetadata stores the raw provider payload on the entity so a
// later re-enrichment or debugging session can see what came back.
func (s *EnrichmentService) snapshotMetadata(entity *Entity, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		s.log.Warn("failed to snapshot metadata payload", "error", err)
		return
	}
	entity.Metadata = datatypes.JSON(raw)
}

func (s *EnrichmentService) attachPoster(entity *Entity, posterPath string) []string {
	if entity.ImagePath != nil || posterPath == "" {
		return nil
	}

	body, err := s.tmdb.DownloadPoster(posterPath)
	if err != nil {
		return []string{"could not download poster image"}
	}
	defer func() {
		_ = body.Close()
	}()

	// Slug may not be set yet when enrichment runs before the first save.
	name := entity.Slug
	if name == "" {
		name = slug.Make(string(entity.Kind) + "-" + entity.Name)
	}

	relPath, err := s.storage.Save("posters", name+".jpg", body)
	if err != nil {
		return []string{"could not store poster image"}
	}

	entity.ImagePath = &relPath
	return nil
}

func parseDate(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"2006-01-02", "2006"} {
		if date, err := time.Parse(layout, value); err == nil {
			return date, true
		}
	}
	return time.Time{}, false
}

func truncateRunes(value string, max int) string {
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return string(runes[:max])
}
