package llm

import (
	"context"
	"strings"

	"github.com/ternarybob/intake/internal/common"
)

// Provider is one configured text-completion backend.
type Provider interface {
	// Generate sends a single-prompt completion request and returns
	// the raw response text. Implementations do not retry; the
	// gateway owns the retry budget.
	Generate(ctx context.Context, prompt, model string) (string, error)

	// Name returns the provider identifier (deepseek, gemini, claude).
	Name() string

	// DefaultModel returns the model used when none is requested.
	DefaultModel() string
}

// Credentials is the immutable snapshot of provider availability built
// once at startup. Call paths never read the environment.
type Credentials struct {
	available map[string]bool
}

// NewCredentials records which providers have a configured API key.
func NewCredentials(cfg *common.LLMConfig) *Credentials {
	return &Credentials{
		available: map[string]bool{
			common.LLMProviderDeepSeek: cfg.DeepSeek.APIKey != "",
			common.LLMProviderGemini:   cfg.Gemini.APIKey != "",
			common.LLMProviderClaude:   cfg.Claude.APIKey != "",
		},
	}
}

// Available reports whether the provider has a credential.
func (c *Credentials) Available(provider string) bool {
	return c.available[provider]
}

// recognizedProvider maps a model string to its provider family.
// Model strings can be:
//   - "claude-sonnet-4-20250514" or "claude/..." -> claude
//   - "gemini-2.5-flash" or "gemini/..." -> gemini
//   - "deepseek-chat" or "deepseek/..." -> deepseek
//
// The second return is false for model strings from families with no
// configured provider (e.g. "gpt-4o"); the gateway substitutes the
// default provider for those.
func recognizedProvider(model string) (string, bool) {
	m := strings.ToLower(model)

	if strings.HasPrefix(m, "claude/") || strings.HasPrefix(m, "anthropic/") || strings.HasPrefix(m, "claude-") {
		return common.LLMProviderClaude, true
	}
	if strings.HasPrefix(m, "gemini/") || strings.HasPrefix(m, "google/") || strings.HasPrefix(m, "gemini-") {
		return common.LLMProviderGemini, true
	}
	if strings.HasPrefix(m, "deepseek/") || strings.HasPrefix(m, "deepseek-") {
		return common.LLMProviderDeepSeek, true
	}

	return "", false
}

// DetectProvider determines the provider for a model string, falling
// back to the default provider for empty or unrecognized models.
func DetectProvider(model, defaultProvider string) string {
	if provider, ok := recognizedProvider(model); ok {
		return provider
	}
	return defaultProvider
}

// NormalizeModel removes a provider prefix from a model name if present.
func NormalizeModel(model string) string {
	prefixes := []string{"claude/", "anthropic/", "gemini/", "google/", "deepseek/"}
	for _, prefix := range prefixes {
		if strings.HasPrefix(strings.ToLower(model), prefix) {
			return model[len(prefix):]
		}
	}
	return model
}
