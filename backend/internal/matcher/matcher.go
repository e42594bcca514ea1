package matcher

import (
	"context"
	"errors"

	"bakerybot/backend/internal/embedding"
	"bakerybot/backend/pkg/logger"
	"go.uber.org/zap"
)

// ErrEmptyCorpus is returned when there is nothing to match against
var ErrEmptyCorpus = errors.New("corpus is empty")

// Match is the best candidate for a query and its cosine score.
// Whether the score clears the decision threshold is the caller's call
type Match struct {
	Question string
	Score    float64
}

// Matcher finds the nearest known question to a query by cosine similarity
type Matcher struct {
	embedder embedding.Embedder
	logger   *zap.Logger
}

// New creates a matcher over the given embedder
func New(embedder embedding.Embedder) *Matcher {
	return &Matcher{
		embedder: embedder,
		logger:   logger.Get(),
	}
}

// Match embeds the query and every corpus question and returns the argmax by
// dot product (vectors are unit length). Ties resolve to the earliest corpus
// entry, so results are deterministic for a fixed corpus order
func (m *Matcher) Match(ctx context.Context, query string, corpus []string) (Match, error) {
	if len(corpus) == 0 {
		return Match{}, ErrEmptyCorpus
	}

	queryVec, err := m.embedder.Embed(ctx, query)
	if err != nil {
		return Match{}, err
	}

	corpusVecs, err := m.embedder.EmbedBatch(ctx, corpus)
	if err != nil {
		return Match{}, err
	}

	bestIdx := 0
	bestScore := dot(queryVec, corpusVecs[0])
	for i := 1; i < len(corpusVecs); i++ {
		if score := dot(queryVec, corpusVecs[i]); score > bestScore {
			bestIdx = i
			bestScore = score
		}
	}

	m.logger.Debug("Similarity match computed",
		zap.String("query", query),
		zap.String("best", corpus[bestIdx]),
		zap.Float64("score", bestScore),
		zap.Int("corpus_size", len(corpus)),
	)

	return Match{Question: corpus[bestIdx], Score: bestScore}, nil
}

// Similar reports whether the query is close to any of the candidate
// phrasings. Used for paraphrase checks like "what's my name"
func (m *Matcher) Similar(ctx context.Context, query string, candidates []string, threshold float64) (bool, error) {
	if len(candidates) == 0 {
		return false, nil
	}
	best, err := m.Match(ctx, query, candidates)
	if err != nil {
		return false, err
	}
	return best.Score > threshold, nil
}

// dot computes the dot product over the shared prefix of two vectors.
// Length mismatch only happens when the embedding model changed mid-process
func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
