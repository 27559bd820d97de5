package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"digitaldome/config"
	"digitaldome/internal/logger"
	"digitaldome/internal/models"
)

// OpenAIService fills metadata gaps for kinds without a structured API,
// primarily books. Responses are requested as strict JSON so answers can
// be unmarshaled straight into enrichment payloads.
type OpenAIService struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
	log     logger.Logger
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func NewOpenAIService(config config.Config) *OpenAIService {
	model := config.OpenAIModel
	if model == "" {
		model = "gpt-4o-mini"
	}

	return &OpenAIService{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: "https://api.openai.com/v1",
		apiKey:  config.OpenAIAPIKey,
		model:   model,
		log:     logger.New("OpenAIService"),
	}
}

// Enabled reports whether an API key is configured.
func (s *OpenAIService) Enabled() bool {
	return s.apiKey != ""
}

// CompleteJSON sends the prompt and unmarshals the model's JSON answer
// into out. Transport, quota, and malformed-JSON failures all map to
// ErrUpstreamUnavailable.
func (s *OpenAIService) CompleteJSON(system, prompt string, out any) error {
	log := s.log.Function("CompleteJSON")

	request := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
	}
	request.ResponseFormat.Type = "json_object"

	payload, err := json.Marshal(request)
	if err != nil {
		return log.Err("failed to marshal request", err)
	}

	req, err := http.NewRequest("POST", s.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return log.Err("failed to create request", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		_ = log.Err("OpenAI request failed", err)
		return models.ErrUpstreamUnavailable
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Warn("Failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		_ = log.Error("OpenAI API error", "statusCode", resp.StatusCode)
		return models.ErrUpstreamUnavailable
	}

	var response chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		_ = log.Err("failed to decode OpenAI response", err)
		return models.ErrUpstreamUnavailable
	}
	if len(response.Choices) == 0 {
		_ = log.ErrMsg("OpenAI returned no choices")
		return models.ErrUpstreamUnavailable
	}

	content := response.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(content), out); err != nil {
		_ = log.Err("OpenAI answer was not valid JSON", err)
		return fmt.Errorf("%w: malformed completion", models.ErrUpstreamUnavailable)
	}

	return nil
}
