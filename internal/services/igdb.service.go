package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"digitaldome/config"
	"digitaldome/internal/logger"
	"digitaldome/internal/models"
)

// IGDBService queries IGDB for game metadata. IGDB authenticates with a
// Twitch client-credentials token, cached until shortly before expiry.
type IGDBService struct {
	client       *http.Client
	baseURL      string
	tokenURL     string
	clientID     string
	clientSecret string
	log          logger.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

type IGDBGame struct {
	ID               int     `json:"id"`
	Name             string  `json:"name"`
	Summary          string  `json:"summary"`
	FirstReleaseDate int64   `json:"first_release_date"`
	Rating           float64 `json:"rating"`
	Genres           []struct {
		Name string `json:"name"`
	} `json:"genres"`
	Platforms []struct {
		Name string `json:"name"`
	} `json:"platforms"`
	InvolvedCompanies []struct {
		Developer bool `json:"developer"`
		Publisher bool `json:"publisher"`
		Company   struct {
			Name string `json:"name"`
		} `json:"company"`
	} `json:"involved_companies"`
	Cover struct {
		URL string `json:"url"`
	} `json:"cover"`
}

type twitchTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

func NewIGDBService(config config.Config) *IGDBService {
	return &IGDBService{
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
		baseURL:      "https://api.igdb.com/v4",
		tokenURL:     "https://id.twitch.tv/oauth2/token",
		clientID:     config.IGDBClientID,
		clientSecret: config.IGDBClientSecret,
		log:          logger.New("IGDBService"),
	}
}

// Enabled reports whether Twitch credentials are configured.
func (s *IGDBService) Enabled() bool {
	return s.clientID != "" && s.clientSecret != ""
}

// SearchGames returns candidate matches for a game title, with companies,
// platforms, and genres expanded.
func (s *IGDBService) SearchGames(query string) ([]IGDBGame, error) {
	log := s.log.Function("SearchGames")

	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}

	token, err := s.token()
	if err != nil {
		return nil, models.ErrUpstreamUnavailable
	}

	// IGDB takes an Apicalypse query in the request body.
	body := fmt.Sprintf(
		`search %q; fields name,summary,first_release_date,rating,genres.name,platforms.name,involved_companies.developer,involved_companies.publisher,involved_companies.company.name,cover.url; limit 10;`,
		query,
	)

	req, err := http.NewRequest("POST", s.baseURL+"/games", strings.NewReader(body))
	if err != nil {
		return nil, log.Err("failed to create request", err)
	}
	req.Header.Set("Client-ID", s.clientID)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		_ = log.Err("IGDB request failed", err, "query", query)
		return nil, models.ErrUpstreamUnavailable
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Warn("Failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		_ = log.Error("IGDB API error", "statusCode", resp.StatusCode)
		return nil, models.ErrUpstreamUnavailable
	}

	var games []IGDBGame
	if err := json.NewDecoder(resp.Body).Decode(&games); err != nil {
		_ = log.Err("failed to decode IGDB response", err)
		return nil, models.ErrUpstreamUnavailable
	}

	return games, nil
}

// token returns a valid app access token, refreshing when the cached one
// is missing or about to expire.
func (s *IGDBService) token() (string, error) {
	log := s.log.Function("token")

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.accessToken != "" && time.Now().Before(s.tokenExpiry.Add(-time.Minute)) {
		return s.accessToken, nil
	}

	form := url.Values{
		"client_id":     {s.clientID},
		"client_secret": {s.clientSecret},
		"grant_type":    {"client_credentials"},
	}

	resp, err := s.client.PostForm(s.tokenURL, form)
	if err != nil {
		return "", log.Err("failed to request twitch token", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Warn("Failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return "", log.Error("twitch token error", "statusCode", resp.StatusCode)
	}

	var token twitchTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", log.Err("failed to decode twitch token", err)
	}
	if token.AccessToken == "" {
		return "", log.ErrMsg("twitch returned empty access token")
	}

	s.accessToken = token.AccessToken
	s.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)

	return s.accessToken, nil
}
