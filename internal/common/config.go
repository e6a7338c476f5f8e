package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"`
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
	Crawler     CrawlerConfig   `toml:"crawler"`
	Ingest      IngestConfig    `toml:"ingest"`
	LLM         LLMConfig       `toml:"llm"`
	Chat        ChatConfig      `toml:"chat"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
	Telegram    TelegramConfig  `toml:"telegram"`
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
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// CrawlerConfig bounds recursive crawls and the page fetcher.
type CrawlerConfig struct {
	MaxDepth           int           `toml:"max_depth" validate:"gte=1"`
	MaxPages           int           `toml:"max_pages" validate:"gte=1"`
	MaxConcurrency     int           `toml:"max_concurrency" validate:"gte=1"`
	MaxContentLength   int           `toml:"max_content_length"` // 0 = unlimited
	UserAgent          string        `toml:"user_agent"`
	RequestTimeout     time.Duration `toml:"request_timeout"`
	RequestsPerSecond  float64       `toml:"requests_per_second"` // per-domain politeness limit
	EnableJavaScript   bool          `toml:"enable_javascript"`   // chromedp rendering for SPAs
	JavaScriptWaitTime time.Duration `toml:"javascript_wait_time"`
}

// IngestConfig controls chunking and embedding retry behavior.
type IngestConfig struct {
	MaxChunkBytes      int           `toml:"max_chunk_bytes" validate:"gte=1"`
	EmbedRetryAttempts int           `toml:"embed_retry_attempts" validate:"gte=1"`
	EmbedRetryBackoff  time.Duration `toml:"embed_retry_backoff"`
	EmbeddingDimension int           `toml:"embedding_dimension" validate:"gte=1"`
}

// LLMConfig selects and configures the AI provider.
type LLMConfig struct {
	Provider string       `toml:"provider" validate:"oneof=gemini claude"`
	Gemini   GeminiConfig `toml:"gemini"`
	Claude   ClaudeConfig `toml:"claude"`
}

// GeminiConfig contains Google Gemini API configuration. Gemini always serves
// embeddings; it serves chat when it is the selected provider.
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	ChatModel   string  `toml:"chat_model"`
	EmbedModel  string  `toml:"embed_model"`
	Timeout     string  `toml:"timeout"`
	Temperature float32 `toml:"temperature"`
}

// ClaudeConfig contains Anthropic Claude API configuration.
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Timeout     string  `toml:"timeout"`
	Temperature float32 `toml:"temperature"`
}

type ChatConfig struct {
	MaxDocuments  int     `toml:"max_documents" validate:"gte=1"`
	MinSimilarity float64 `toml:"min_similarity" validate:"gte=0,lte=1"`
}

// SchedulerConfig controls the periodic re-index sweep.
type SchedulerConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"` // cron expression
}

// TelegramConfig configures the webhook intake and bot reply sender.
type TelegramConfig struct {
	BotToken  string `toml:"bot_token"`
	BotHandle string `toml:"bot_handle"`
	APIBase   string `toml:"api_base"` // override for tests
}

// DefaultConfig returns configuration defaults applied before any file or
// environment override.
func DefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 6010,
			Host: "0.0.0.0",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/colligo",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
		Crawler: CrawlerConfig{
			MaxDepth:           2,
			MaxPages:           50,
			MaxConcurrency:     4,
			MaxContentLength:   0,
			UserAgent:          "colligo/1.0",
			RequestTimeout:     30 * time.Second,
			RequestsPerSecond:  2,
			EnableJavaScript:   true,
			JavaScriptWaitTime: 3 * time.Second,
		},
		Ingest: IngestConfig{
			MaxChunkBytes:      9000,
			EmbedRetryAttempts: 3,
			EmbedRetryBackoff:  2 * time.Second,
			EmbeddingDimension: 768,
		},
		LLM: LLMConfig{
			Provider: "gemini",
			Gemini: GeminiConfig{
				ChatModel:   "gemini-2.0-flash",
				EmbedModel:  "gemini-embedding-001",
				Timeout:     "5m",
				Temperature: 0.7,
			},
			Claude: ClaudeConfig{
				Model:       "claude-sonnet-4-20250514",
				MaxTokens:   8192,
				Timeout:     "5m",
				Temperature: 0.7,
			},
		},
		Chat: ChatConfig{
			MaxDocuments:  10,
			MinSimilarity: 0.35,
		},
		Scheduler: SchedulerConfig{
			Enabled:  false,
			Schedule: "0 3 * * *",
		},
		Telegram: TelegramConfig{
			APIBase: "https://api.telegram.org",
		},
	}
}

// LoadFromFiles loads configuration in priority order: defaults, then each
// file (later files override earlier ones), then environment variables.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := DefaultConfig()

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// ApplyFlagOverrides applies command-line overrides (highest priority).
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// applyEnvOverrides maps COLLIGO_* environment variables onto config fields.
// Secrets are the primary use; structural settings belong in the TOML file.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("COLLIGO_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Server.Port = port
		}
	}
	if v := os.Getenv("COLLIGO_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("COLLIGO_LLM_PROVIDER"); v != "" {
		config.LLM.Provider = v
	}
	if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
		config.LLM.Gemini.APIKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		config.LLM.Claude.APIKey = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		config.Telegram.BotToken = v
	}
}
