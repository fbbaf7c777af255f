package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// requestTimeout bounds buffered upstream calls. Streaming calls are bounded
// by the caller's context instead, since a healthy stream can outlive any
// fixed timeout.
const requestTimeout = 120 * time.Second

// Service forwards translated chat-completion requests to the GitHub Models
// inference endpoint. It holds no mutable state beyond its HTTP clients, so
// a single instance serves all requests concurrently.
type Service struct {
	config       *Config
	httpClient   *http.Client
	streamClient *http.Client
}

// NewService creates a forwarding service for the given configuration.
func NewService(cfg *Config) *Service {
	return &Service{
		config:       cfg,
		httpClient:   &http.Client{Timeout: requestTimeout},
		streamClient: &http.Client{},
	}
}

// Config returns the service's configuration.
func (s *Service) Config() *Config {
	return s.config
}

// Forward sends the rewritten request body to the upstream chat-completions
// endpoint and returns the raw response for the handler to relay. The caller
// owns resp.Body.
func (s *Service) Forward(ctx context.Context, payload map[string]interface{}, stream bool) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := s.config.ModelsURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.GitHubToken)
	req.Header.Set("User-Agent", "github-models-proxy/"+Version)
	req.Header.Set("X-Request-ID", uuid.New().String())

	client := s.httpClient
	if stream {
		client = s.streamClient
		req.Header.Set("Accept", "text/event-stream")
	}
	return client.Do(req)
}

// SubmitTestPrompt sends a single-turn prompt to the upstream endpoint and
// returns the reply text. The --test-prompt flag uses it to verify the
// credential and connectivity end to end.
func (s *Service) SubmitTestPrompt(ctx context.Context, prompt string) (string, error) {
	payload := map[string]interface{}{
		"model": s.config.DefaultModel,
		"messages": []interface{}{
			map[string]interface{}{"role": "user", "content": prompt},
		},
		"temperature": 0.5,
		"max_tokens":  1000,
	}

	resp, err := s.Forward(ctx, payload, false)
	if err != nil {
		return "", fmt.Errorf("API call failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API returned error: %s - %s", resp.Status, string(body))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("no choices in response")
	}
	return parsed.Choices[0].Message.Content, nil
}
