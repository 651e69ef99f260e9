package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Pathstore persistence; disabled without an API key
	PathstoreURL    string
	PathstoreAPIKey string

	// Claude generation; disabled without an API key
	AnthropicAPIKey string
	AnthropicModel  string
	ContextTokens   int
	MaxOutputTokens int

	// Generation worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Editor sessions
	SessionTTL       time.Duration
	CharacterLimit   int
	HistoryDepth     int
	TextBlockContent string

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("BLOCKDOC_API_KEY"),

		PathstoreURL:    envOr("PATHSTORE_URL", "http://localhost:8080"),
		PathstoreAPIKey: os.Getenv("PATHSTORE_API_KEY"),

		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  envOr("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),
		ContextTokens:   envInt("CONTEXT_TOKENS", 2000),
		MaxOutputTokens: envInt("MAX_OUTPUT_TOKENS", 2048),

		WorkerCount:  envInt("WORKER_COUNT", 2),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 50),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 10485760), // 10MB

		SessionTTL:       envDuration("SESSION_TTL", 2*time.Hour),
		CharacterLimit:   envInt("CHARACTER_LIMIT", 10000),
		HistoryDepth:     envInt("HISTORY_DEPTH", 100),
		TextBlockContent: envOr("TEXT_BLOCK_CONTENT", "paragraph+"),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 50
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10485760
	}
	if cfg.ContextTokens < 0 {
		cfg.ContextTokens = 2000
	}
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = 2048
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 2 * time.Hour
	}
	if cfg.CharacterLimit < 0 {
		cfg.CharacterLimit = 10000
	}
	if cfg.HistoryDepth <= 0 {
		cfg.HistoryDepth = 100
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("BLOCKDOC_API_KEY is required")
	}
	switch c.TextBlockContent {
	case "paragraph+", "block+":
	default:
		return fmt.Errorf("TEXT_BLOCK_CONTENT must be paragraph+ or block+, got %q", c.TextBlockContent)
	}
	return nil
}

// PersistenceEnabled reports whether pathstore routes are served.
func (c Config) PersistenceEnabled() bool { return c.PathstoreAPIKey != "" }

// GenerationEnabled reports whether AI generation routes are served.
func (c Config) GenerationEnabled() bool { return c.AnthropicAPIKey != "" }

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
