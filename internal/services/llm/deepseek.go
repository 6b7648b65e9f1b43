package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ternarybob/intake/internal/common"
)

// DeepSeekProvider is the default provider. DeepSeek exposes an
// OpenAI-compatible chat completions API, so the client is a plain
// HTTP JSON client rather than an SDK binding.
type DeepSeekProvider struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

var _ Provider = (*DeepSeekProvider)(nil)

// NewDeepSeekProvider creates a DeepSeek chat completions client.
func NewDeepSeekProvider(cfg *common.DeepSeekConfig) *DeepSeekProvider {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.deepseek.com"
	}
	return &DeepSeekProvider{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		httpClient: &http.Client{},
	}
}

func (p *DeepSeekProvider) Name() string {
	return common.LLMProviderDeepSeek
}

func (p *DeepSeekProvider) DefaultModel() string {
	return p.model
}

type deepseekRequest struct {
	Model       string            `json:"model"`
	Messages    []deepseekMessage `json:"messages"`
	Temperature float32           `json:"temperature"`
	Stream      bool              `json:"stream"`
}

type deepseekMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type deepseekResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate sends a single-turn chat completion request.
func (p *DeepSeekProvider) Generate(ctx context.Context, prompt, model string) (string, error) {
	if model == "" {
		model = p.model
	}

	reqBody := deepseekRequest{
		Model:       model,
		Messages:    []deepseekMessage{{Role: "user", Content: prompt}},
		Temperature: 0.1,
		Stream:      false,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("deepseek request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &HTTPStatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var parsed deepseekResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("empty response from DeepSeek API")
	}

	return parsed.Choices[0].Message.Content, nil
}
