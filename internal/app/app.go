package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/intake/internal/common"
	"github.com/ternarybob/intake/internal/handlers"
	"github.com/ternarybob/intake/internal/interfaces"
	"github.com/ternarybob/intake/internal/pipeline"
	"github.com/ternarybob/intake/internal/services/agents"
	"github.com/ternarybob/intake/internal/services/extractor"
	"github.com/ternarybob/intake/internal/services/llm"
	"github.com/ternarybob/intake/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Pipeline services
	Gateway      interfaces.ModelGateway
	Extractor    interfaces.TextExtractor
	Classifier   interfaces.Classifier
	Orchestrator *pipeline.Orchestrator

	// HTTP handlers
	ProcessHandler *handlers.ProcessHandler
	MemoryHandler  *handlers.MemoryHandler
	APIHandler     *handlers.APIHandler
}

// New wires the application together. Credentials are snapshotted once
// here; nothing downstream reads the environment.
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	storageManager, err := badger.NewManager(logger, &config.Storage.Badger, config.Memory.EntryTTL())
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	overlayStoredCredentials(storageManager.KeyValueStorage(), &config.LLM)

	creds := llm.NewCredentials(&config.LLM)
	gateway := llm.NewGateway(&config.LLM, creds, logger)

	textExtractor := extractor.NewService(logger)
	classifier := agents.NewClassifierAgent(gateway, logger)
	jsonAgent := agents.NewJSONAgent(gateway, logger)
	emailAgent := agents.NewEmailAgent(gateway, logger)

	orchestrator := pipeline.NewOrchestrator(
		textExtractor,
		classifier,
		jsonAgent,
		emailAgent,
		storageManager.MemoryStorage(),
		logger,
	)

	app := &App{
		Config:         config,
		Logger:         logger,
		StorageManager: storageManager,
		Gateway:        gateway,
		Extractor:      textExtractor,
		Classifier:     classifier,
		Orchestrator:   orchestrator,
		ProcessHandler: handlers.NewProcessHandler(orchestrator, logger),
		MemoryHandler:  handlers.NewMemoryHandler(storageManager.MemoryStorage(), logger),
		APIHandler:     handlers.NewAPIHandler(),
	}

	logger.Info().
		Str("default_provider", config.LLM.DefaultProvider).
		Bool("deepseek_available", creds.Available(common.LLMProviderDeepSeek)).
		Bool("gemini_available", creds.Available(common.LLMProviderGemini)).
		Bool("claude_available", creds.Available(common.LLMProviderClaude)).
		Msg("Application wired")

	return app, nil
}

// overlayStoredCredentials fills API keys left empty by config/env from
// the key/value store. Config always wins; the store is the fallback so
// credentials survive restarts without living in a file.
func overlayStoredCredentials(kv interfaces.KeyValueStorage, cfg *common.LLMConfig) {
	ctx := context.Background()
	fill := func(target *string, key string) {
		if *target != "" {
			return
		}
		if value, err := kv.Get(ctx, key); err == nil {
			*target = value
		}
	}
	fill(&cfg.DeepSeek.APIKey, "deepseek_api_key")
	fill(&cfg.Gemini.APIKey, "gemini_api_key")
	fill(&cfg.Claude.APIKey, "claude_api_key")
}

// Close releases application resources.
func (a *App) Close() error {
	if a.StorageManager != nil {
		return a.StorageManager.Close()
	}
	return nil
}
