package config

import (
	"fmt"
	"os"
	"time"

	"bakerybot/backend/pkg/errors"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// App
	Port string
	Env  string

	// Neo4j
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string

	// Embedding (OpenAI-compatible endpoint, e.g. Ollama /v1)
	EmbeddingURL   string
	EmbeddingModel string

	// Fallback generation (Ollama /api/generate)
	FallbackURL     string
	FallbackModel   string
	FallbackTimeout time.Duration

	// LINE channel
	LineChannelToken  string
	LineChannelSecret string
	LineAPIURL        string

	// Catalog
	CatalogBaseURL string

	// Matching
	SimilarityThreshold float64 // cache hit decision knob
	NameThreshold       float64 // remembered-name paraphrase check

	// Request handling
	RequestTimeout time.Duration
	SessionTTL     time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		Env:                 getEnv("ENV", "development"),
		Neo4jURI:            getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:           getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:       getEnv("NEO4J_PASSWORD", "password"),
		EmbeddingURL:        getEnv("EMBEDDING_URL", "http://localhost:11434"),
		EmbeddingModel:      getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
		FallbackURL:         getEnv("FALLBACK_URL", "http://localhost:11434"),
		FallbackModel:       getEnv("FALLBACK_MODEL", "supachai/llama-3-typhoon-v1.5"),
		FallbackTimeout:     getEnvDuration("FALLBACK_TIMEOUT", 20*time.Second),
		LineChannelToken:    getEnv("LINE_CHANNEL_TOKEN", ""),
		LineChannelSecret:   getEnv("LINE_CHANNEL_SECRET", ""),
		LineAPIURL:          getEnv("LINE_API_URL", "https://api.line.me"),
		CatalogBaseURL:      getEnv("CATALOG_BASE_URL", "https://www.bakeryclick.com"),
		SimilarityThreshold: getEnvFloat("SIMILARITY_THRESHOLD", 0.7),
		NameThreshold:       getEnvFloat("NAME_THRESHOLD", 0.7),
		RequestTimeout:      getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		SessionTTL:          getEnvDuration("SESSION_TTL", 30*time.Minute),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.Neo4jURI == "" {
		return errors.NewConfigMissingRequired("NEO4J_URI")
	}
	if c.Neo4jUser == "" {
		return errors.NewConfigMissingRequired("NEO4J_USER")
	}
	if c.Neo4jPassword == "" {
		return errors.NewConfigMissingRequired("NEO4J_PASSWORD")
	}
	if c.EmbeddingURL == "" {
		return errors.NewConfigMissingRequired("EMBEDDING_URL")
	}
	if c.FallbackURL == "" {
		return errors.NewConfigMissingRequired("FALLBACK_URL")
	}
	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold >= 1 {
		return fmt.Errorf("SIMILARITY_THRESHOLD must be in (0, 1), got %v", c.SimilarityThreshold)
	}
	// LINE credentials are optional for development (local curl testing)
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var result float64
		if _, err := fmt.Sscanf(value, "%f", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
