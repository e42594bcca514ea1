package config

import (
	"testing"
	"time"

	"bakerybot/backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Port:                "8080",
		Env:                 "development",
		Neo4jURI:            "bolt://localhost:7687",
		Neo4jUser:           "neo4j",
		Neo4jPassword:       "password",
		EmbeddingURL:        "http://localhost:11434",
		EmbeddingModel:      "nomic-embed-text",
		FallbackURL:         "http://localhost:11434",
		FallbackModel:       "supachai/llama-3-typhoon-v1.5",
		FallbackTimeout:     20 * time.Second,
		SimilarityThreshold: 0.7,
		NameThreshold:       0.7,
		RequestTimeout:      30 * time.Second,
		SessionTTL:          30 * time.Minute,
	}
}

func TestValidate_MissingRequiredFieldIsTyped(t *testing.T) {
	tests := []struct {
		field string
		mut   func(*Config)
	}{
		{"NEO4J_URI", func(c *Config) { c.Neo4jURI = "" }},
		{"NEO4J_USER", func(c *Config) { c.Neo4jUser = "" }},
		{"NEO4J_PASSWORD", func(c *Config) { c.Neo4jPassword = "" }},
		{"EMBEDDING_URL", func(c *Config) { c.EmbeddingURL = "" }},
		{"FALLBACK_URL", func(c *Config) { c.FallbackURL = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			cfg := validConfig()
			tt.mut(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsErrorType(err, errors.ErrorTypeConfig))

			var missing *errors.ErrConfigMissingRequired
			require.ErrorAs(t, err, &missing)
			assert.Equal(t, tt.field, missing.Field)
		})
	}
}

func TestValidate_ThresholdRange(t *testing.T) {
	for _, threshold := range []float64{0, -0.1, 1, 1.5} {
		cfg := validConfig()
		cfg.SimilarityThreshold = threshold
		assert.Error(t, cfg.Validate(), "threshold %v must be rejected", threshold)
	}

	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}
