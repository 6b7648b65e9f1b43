package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/ternarybob/intake/internal/common"
	"google.golang.org/genai"
)

// GeminiProvider generates completions through the Google Gemini API.
// The client is created lazily on first use because genai.NewClient
// needs a context.
type GeminiProvider struct {
	cfg *common.GeminiConfig

	mu     sync.Mutex
	client *genai.Client
}

var _ Provider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a Gemini provider from config.
func NewGeminiProvider(cfg *common.GeminiConfig) *GeminiProvider {
	return &GeminiProvider{cfg: cfg}
}

func (p *GeminiProvider) Name() string {
	return common.LLMProviderGemini
}

func (p *GeminiProvider) DefaultModel() string {
	return p.cfg.Model
}

func (p *GeminiProvider) getClient(ctx context.Context) (*genai.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return p.client, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  p.cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	p.client = client
	return client, nil
}

// Generate sends a single-turn content generation request.
func (p *GeminiProvider) Generate(ctx context.Context, prompt, model string) (string, error) {
	client, err := p.getClient(ctx)
	if err != nil {
		return "", err
	}

	if model == "" {
		model = p.cfg.Model
	}

	config := &genai.GenerateContentConfig{}
	if p.cfg.Temperature > 0 {
		config.Temperature = genai.Ptr(p.cfg.Temperature)
	}

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{genai.NewPartFromText(prompt)},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("empty response from Gemini API")
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty text in Gemini response")
	}

	return text, nil
}
