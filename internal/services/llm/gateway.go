package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/intake/internal/common"
	"github.com/ternarybob/intake/internal/interfaces"
	"github.com/ternarybob/intake/internal/models"
	"golang.org/x/time/rate"
)

// Gateway is the uniform entry point to all text-completion providers.
// It routes by model string, substitutes the default provider when a
// requested provider has no credential, rate-limits and circuit-breaks
// per provider, and retries transient failures with exponential
// backoff. Stateless across invocations beyond read-only configuration.
type Gateway struct {
	cfg       *common.LLMConfig
	creds     *Credentials
	providers map[string]Provider
	limiters  map[string]*rate.Limiter
	breakers  map[string]*gobreaker.CircuitBreaker[string]
	retry     *RetryConfig
	timeout   time.Duration
	logger    arbor.ILogger
}

var _ interfaces.ModelGateway = (*Gateway)(nil)

// NewGateway creates a gateway over all configured providers. The
// credential snapshot is built once at startup and passed in; the
// gateway never reads the environment.
func NewGateway(cfg *common.LLMConfig, creds *Credentials, logger arbor.ILogger) *Gateway {
	providers := map[string]Provider{
		common.LLMProviderDeepSeek: NewDeepSeekProvider(&cfg.DeepSeek),
		common.LLMProviderGemini:   NewGeminiProvider(&cfg.Gemini),
		common.LLMProviderClaude:   NewClaudeProvider(&cfg.Claude),
	}

	perSecond := cfg.RatePerSecond
	if perSecond <= 0 {
		perSecond = 5
	}

	limiters := make(map[string]*rate.Limiter, len(providers))
	breakers := make(map[string]*gobreaker.CircuitBreaker[string], len(providers))
	for name := range providers {
		limiters[name] = rate.NewLimiter(rate.Limit(perSecond), int(perSecond)+1)
		breakers[name] = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
			Name:        "llm-" + name,
			MaxRequests: 2,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.Requests >= 10 &&
					float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
			},
		})
	}

	retryCfg := NewDefaultRetryConfig()
	if cfg.MaxRetries > 0 {
		retryCfg.MaxRetries = cfg.MaxRetries
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Gateway{
		cfg:       cfg,
		creds:     creds,
		providers: providers,
		limiters:  limiters,
		breakers:  breakers,
		retry:     retryCfg,
		timeout:   timeout,
		logger:    logger,
	}
}

// Available reports whether the provider has a configured credential.
func (g *Gateway) Available(provider string) bool {
	return g.creds.Available(provider)
}

// Invoke routes the prompt to the provider selected by modelID.
func (g *Gateway) Invoke(ctx context.Context, prompt, modelID string) (*interfaces.InvokeResult, error) {
	providerName, recognized := recognizedProvider(modelID)
	model := NormalizeModel(modelID)
	if !recognized {
		providerName = g.cfg.DefaultProvider
	}

	result := &interfaces.InvokeResult{
		Provider: providerName,
		Model:    model,
	}

	// A model from an unconfigured family, or a recognized provider
	// without a credential, substitutes the default provider/model.
	needsSubstitution := (!recognized && modelID != "") || !g.creds.Available(providerName)

	if needsSubstitution {
		if !g.creds.Available(g.cfg.DefaultProvider) {
			return nil, fmt.Errorf("%w: no credential for %s or default provider %s",
				models.ErrModelUnavailable, providerName, g.cfg.DefaultProvider)
		}

		substituted := g.providers[g.cfg.DefaultProvider]
		result.Substituted = true
		result.SubstitutionNotice = fmt.Sprintf(
			"no provider configured for model %q; substituted %s/%s",
			modelID, substituted.Name(), substituted.DefaultModel())
		providerName = g.cfg.DefaultProvider
		model = substituted.DefaultModel()

		g.logger.Info().
			Str("requested_model", modelID).
			Str("provider", providerName).
			Str("model", model).
			Msg("Substituted default provider")
	}

	provider := g.providers[providerName]
	if model == "" {
		model = provider.DefaultModel()
	}
	result.Provider = providerName
	result.Model = model

	if err := g.limiters[providerName].Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", models.ErrModel, err)
	}

	text, err := g.breakers[providerName].Execute(func() (string, error) {
		return g.invokeWithRetry(ctx, provider, prompt, model, result)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit open for provider %s", models.ErrModelUnavailable, providerName)
		}
		return nil, err
	}

	result.Text = text
	return result, nil
}

// invokeWithRetry runs the retry loop for a single invocation. Each
// attempt carries a hard timeout detached from caller cancellation so
// an in-flight call runs to completion even if the caller disconnects.
func (g *Gateway) invokeWithRetry(ctx context.Context, provider Provider, prompt, model string, result *interfaces.InvokeResult) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= g.retry.MaxRetries; attempt++ {
		result.Attempts = attempt + 1

		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.timeout)
		text, err := provider.Generate(callCtx, prompt, model)
		cancel()

		if err == nil {
			return text, nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return "", fmt.Errorf("%w: %s (%s): %v", models.ErrModelUnavailable, provider.Name(), model, err)
		}
		if attempt == g.retry.MaxRetries {
			break
		}

		backoff := g.retry.Backoff(attempt)
		g.logger.Warn().
			Str("provider", provider.Name()).
			Str("model", model).
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Err(err).
			Msg("Retrying model invocation")

		<-time.After(backoff)
	}

	return "", fmt.Errorf("%w: %s (%s) after %d attempts: %v",
		models.ErrModel, provider.Name(), model, result.Attempts, lastErr)
}
