package services

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"digitaldome/config"
	"digitaldome/internal/logger"
	"digitaldome/internal/models"
)

// TMDBService queries The Movie Database for movie and show metadata.
// All failures surface as ErrUpstreamUnavailable so enrichment can
// degrade to a warning instead of failing the save.
type TMDBService struct {
	client   *http.Client
	baseURL  string
	imageURL string
	apiKey   string
	log      logger.Logger
}

type TMDBSearchResult struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	PosterPath   string  `json:"poster_path"`
	Popularity   float64 `json:"popularity"`
}

type tmdbSearchResponse struct {
	Results []TMDBSearchResult `json:"results"`
}

type TMDBCredit struct {
	Name string `json:"name"`
	Job  string `json:"job"`
}

type TMDBDetails struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Name        string `json:"name"`
	Overview    string `json:"overview"`
	ReleaseDate string `json:"release_date"`
	FirstAir    string `json:"first_air_date"`
	Runtime     int    `json:"runtime"`
	PosterPath  string `json:"poster_path"`
	IMDBID      string `json:"imdb_id"`
	CreatedBy   []struct {
		Name string `json:"name"`
	} `json:"created_by"`
	Credits struct {
		Cast []TMDBCredit `json:"cast"`
		Crew []TMDBCredit `json:"crew"`
	} `json:"credits"`
}

func NewTMDBService(config config.Config) *TMDBService {
	return &TMDBService{
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
		baseURL:  "https://api.themoviedb.org/3",
		imageURL: "https://image.tmdb.org/t/p/w500",
		apiKey:   config.TMDBAPIKey,
		log:      logger.New("TMDBService"),
	}
}

// Enabled reports whether an API key is configured.
func (t *TMDBService) Enabled() bool {
	return t.apiKey != ""
}

// SearchMovies returns candidate matches for a title.
func (t *TMDBService) SearchMovies(query string) ([]TMDBSearchResult, error) {
	return t.search("movie", query)
}

// SearchShows returns candidate matches for a show title.
func (t *TMDBService) SearchShows(query string) ([]TMDBSearchResult, error) {
	return t.search("tv", query)
}

func (t *TMDBService) search(mediaType, query string) ([]TMDBSearchResult, error) {
	log := t.log.Function("search")

	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}

	endpoint := fmt.Sprintf(
		"%s/search/%s?query=%s",
		t.baseURL,
		mediaType,
		url.QueryEscape(query),
	)

	var response tmdbSearchResponse
	if err := t.getJSON(endpoint, &response); err != nil {
		_ = log.Err("TMDB search failed", err, "type", mediaType, "query", query)
		return nil, models.ErrUpstreamUnavailable
	}

	return response.Results, nil
}

// MovieDetails fetches full metadata with credits for one movie.
func (t *TMDBService) MovieDetails(id int) (*TMDBDetails, error) {
	return t.details("movie", id)
}

// ShowDetails fetches full metadata with credits for one show.
func (t *TMDBService) ShowDetails(id int) (*TMDBDetails, error) {
	return t.details("tv", id)
}

func (t *TMDBService) details(mediaType string, id int) (*TMDBDetails, error) {
	log := t.log.Function("details")

	endpoint := fmt.Sprintf(
		"%s/%s/%s?append_to_response=credits",
		t.baseURL,
		mediaType,
		strconv.Itoa(id),
	)

	var details TMDBDetails
	if err := t.getJSON(endpoint, &details); err != nil {
		_ = log.Err("TMDB details failed", err, "type", mediaType, "id", id)
		return nil, models.ErrUpstreamUnavailable
	}

	return &details, nil
}

// DownloadPoster streams a poster image. Caller closes the reader.
func (t *TMDBService) DownloadPoster(posterPath string) (io.ReadCloser, error) {
	log := t.log.Function("DownloadPoster")

	if posterPath == "" {
		return nil, fmt.Errorf("posterPath cannot be empty")
	}

	resp, err := t.client.Get(t.imageURL + posterPath)
	if err != nil {
		_ = log.Err("failed to download poster", err, "path", posterPath)
		return nil, models.ErrUpstreamUnavailable
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		_ = log.Error("poster download returned error", "statusCode", resp.StatusCode)
		return nil, models.ErrUpstreamUnavailable
	}

	return resp.Body, nil
}

func (t *TMDBService) getJSON(endpoint string, out any) error {
	log := t.log.Function("getJSON")

	req, err := http.NewRequest("GET", endpoint, nil)
	if err != nil {
		return log.Err("failed to create request", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return log.Err("failed to make request", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Warn("Failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("TMDB API error: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return log.Err("failed to decode response", err)
	}

	return nil
}
