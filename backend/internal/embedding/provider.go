package embedding

import (
	"context"
	"math"
	"sync"

	"bakerybot/backend/pkg/errors"
	"bakerybot/backend/pkg/logger"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Embedder turns text into unit-length vectors for cosine matching
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Provider wraps an OpenAI-compatible embeddings endpoint (Ollama exposes one
// under /v1). Vectors are normalized to unit length so cosine similarity
// reduces to a dot product, and cached per process keyed by exact text
type Provider struct {
	client  *openai.Client
	model   string
	baseURL string

	mu    sync.RWMutex
	cache map[string][]float32

	logger *zap.Logger
}

// NewProvider creates a new embedding provider
func NewProvider(baseURL, model string) *Provider {
	// The endpoint ignores the key but the client requires one
	config := openai.DefaultConfig("dummy-key")
	config.BaseURL = baseURL + "/v1"

	return &Provider{
		client:  openai.NewClientWithConfig(config),
		model:   model,
		baseURL: baseURL,
		cache:   make(map[string][]float32),
		logger:  logger.Get(),
	}
}

// Embed returns the unit-length vector for a single text
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds several texts in one request, serving cached texts
// locally and preserving input order in the result
func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))

	var missing []string
	var missingIdx []int
	p.mu.RLock()
	for i, text := range texts {
		if vec, ok := p.cache[text]; ok {
			result[i] = vec
		} else {
			missing = append(missing, text)
			missingIdx = append(missingIdx, i)
		}
	}
	p.mu.RUnlock()

	if len(missing) == 0 {
		return result, nil
	}

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: missing,
		Model: openai.EmbeddingModel(p.model),
	})
	if err != nil {
		p.logger.Error("Embedding request failed",
			zap.Error(err),
			zap.String("model", p.model),
			zap.Int("texts", len(missing)),
		)
		return nil, errors.NewEmbeddingUnavailable(p.baseURL, err)
	}
	if len(resp.Data) != len(missing) {
		return nil, errors.NewEmbeddingUnavailable(p.baseURL, nil)
	}

	p.mu.Lock()
	for i, data := range resp.Data {
		vec := normalize(data.Embedding)
		result[missingIdx[i]] = vec
		p.cache[missing[i]] = vec
	}
	p.mu.Unlock()

	p.logger.Debug("Embeddings generated",
		zap.String("model", p.model),
		zap.Int("requested", len(texts)),
		zap.Int("cache_misses", len(missing)),
	)

	return result, nil
}

// normalize scales a vector to unit length; zero vectors pass through
func normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out
}
