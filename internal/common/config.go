package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// LLM provider identifiers. DeepSeek is the default provider the
// gateway substitutes when a requested provider has no credential.
const (
	LLMProviderDeepSeek = "deepseek"
	LLMProviderGemini   = "gemini"
	LLMProviderClaude   = "claude"
)

// Config represents the application configuration
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Logging     LoggingConfig `toml:"logging"`
	LLM         LLMConfig     `toml:"llm"`
	Memory      MemoryConfig  `toml:"memory"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"gte=0,lte=65535"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path" validate:"required"`
	ResetOnStartup bool   `toml:"reset_on_startup"`
}

type LoggingConfig struct {
	Level  string   `toml:"level" validate:"oneof=debug info warn error"`
	Format string   `toml:"format"`
	Output []string `toml:"output"`
}

// LLMConfig holds provider credentials and gateway behavior. API keys
// may come from the environment; the gateway only ever sees the
// immutable credential snapshot built from this at startup.
type LLMConfig struct {
	DefaultProvider string  `toml:"default_provider" validate:"oneof=deepseek gemini claude"`
	TimeoutSeconds  int     `toml:"timeout_seconds" validate:"gt=0"`
	MaxRetries      int     `toml:"max_retries" validate:"gte=0"`
	RatePerSecond   float64 `toml:"rate_per_second"`

	DeepSeek DeepSeekConfig `toml:"deepseek"`
	Gemini   GeminiConfig   `toml:"gemini"`
	Claude   ClaudeConfig   `toml:"claude"`
}

type DeepSeekConfig struct {
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
	BaseURL string `toml:"base_url"`
}

type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	Temperature float32 `toml:"temperature"`
}

type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float32 `toml:"temperature"`
}

type MemoryConfig struct {
	TTL string `toml:"ttl"` // duration string, e.g. "720h" (30 days)
}

// EntryTTL parses the configured memory TTL, defaulting to 30 days.
func (m MemoryConfig) EntryTTL() time.Duration {
	if m.TTL == "" {
		return 30 * 24 * time.Hour
	}
	d, err := time.ParseDuration(m.TTL)
	if err != nil || d <= 0 {
		return 30 * 24 * time.Hour
	}
	return d
}

// NewDefaultConfig returns a config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8085,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/intake",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout"},
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderDeepSeek,
			TimeoutSeconds:  30,
			MaxRetries:      3,
			RatePerSecond:   5,
			DeepSeek: DeepSeekConfig{
				Model:   "deepseek-chat",
				BaseURL: "https://api.deepseek.com",
			},
			Gemini: GeminiConfig{
				Model:       "gemini-2.5-flash",
				Temperature: 0.1,
			},
			Claude: ClaudeConfig{
				Model:       "claude-sonnet-4-20250514",
				MaxTokens:   4096,
				Temperature: 0.1,
			},
		},
		Memory: MemoryConfig{
			TTL: "720h",
		},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files; environment variables override all files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("INTAKE_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("INTAKE_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("INTAKE_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if badgerPath := os.Getenv("INTAKE_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	if level := os.Getenv("INTAKE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("INTAKE_LOG_OUTPUT"); output != "" {
		config.Logging.Output = strings.Split(output, ",")
	}

	if provider := os.Getenv("INTAKE_LLM_DEFAULT_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = provider
	}
	if key := os.Getenv("DEEPSEEK_API_KEY"); key != "" {
		config.LLM.DeepSeek.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		config.LLM.Gemini.APIKey = key
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		config.LLM.Claude.APIKey = key
	}

	if ttl := os.Getenv("INTAKE_MEMORY_TTL"); ttl != "" {
		config.Memory.TTL = ttl
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}
