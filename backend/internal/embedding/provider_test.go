package embedding

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"bakerybot/backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbeddingServer serves /v1/embeddings with one fixed vector per input
// text, counting requests so cache behavior is observable
func fakeEmbeddingServer(t *testing.T, vectors map[string][]float32, calls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		require.Equal(t, "/v1/embeddings", r.URL.Path)

		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		type item struct {
			Object    string    `json:"object"`
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		resp := struct {
			Object string `json:"object"`
			Data   []item `json:"data"`
			Model  string `json:"model"`
		}{Object: "list", Model: req.Model}

		for i, text := range req.Input {
			vec, ok := vectors[text]
			if !ok {
				vec = []float32{1, 1}
			}
			resp.Data = append(resp.Data, item{Object: "embedding", Embedding: vec, Index: i})
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestEmbed_NormalizesToUnitLength(t *testing.T) {
	var calls int32
	server := fakeEmbeddingServer(t, map[string][]float32{
		"สวัสดี": {3, 4},
	}, &calls)
	defer server.Close()

	p := NewProvider(server.URL, "nomic-embed-text")
	vec, err := p.Embed(context.Background(), "สวัสดี")
	require.NoError(t, err)

	require.Len(t, vec, 2)
	assert.InDelta(t, 0.6, vec[0], 1e-6)
	assert.InDelta(t, 0.8, vec[1], 1e-6)

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-6)
}

func TestEmbed_SecondCallServedFromCache(t *testing.T) {
	var calls int32
	server := fakeEmbeddingServer(t, nil, &calls)
	defer server.Close()

	p := NewProvider(server.URL, "nomic-embed-text")
	ctx := context.Background()

	first, err := p.Embed(ctx, "สวัสดี")
	require.NoError(t, err)
	second, err := p.Embed(ctx, "สวัสดี")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestEmbedBatch_PreservesInputOrder(t *testing.T) {
	var calls int32
	server := fakeEmbeddingServer(t, map[string][]float32{
		"a": {1, 0},
		"b": {0, 1},
		"c": {0, -1},
	}, &calls)
	defer server.Close()

	p := NewProvider(server.URL, "nomic-embed-text")
	ctx := context.Background()

	// Warm the cache with "b" so the follow-up batch mixes hits and misses
	_, err := p.Embed(ctx, "b")
	require.NoError(t, err)

	vecs, err := p.EmbedBatch(ctx, []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.Equal(t, []float32{1, 0}, vecs[0])
	assert.Equal(t, []float32{0, 1}, vecs[1])
	assert.Equal(t, []float32{0, -1}, vecs[2])

	// "b" was cached, so the second request only carried "a" and "c"
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestEmbedBatch_AllCachedSkipsRequest(t *testing.T) {
	var calls int32
	server := fakeEmbeddingServer(t, nil, &calls)
	defer server.Close()

	p := NewProvider(server.URL, "nomic-embed-text")
	ctx := context.Background()

	_, err := p.EmbedBatch(ctx, []string{"x", "y"})
	require.NoError(t, err)
	_, err = p.EmbedBatch(ctx, []string{"y", "x"})
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestEmbed_BackendDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // immediately, so the port refuses connections

	p := NewProvider(server.URL, "nomic-embed-text")
	_, err := p.Embed(context.Background(), "สวัสดี")
	require.Error(t, err)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeEmbedding))
}

func TestNormalize_ZeroVectorPassesThrough(t *testing.T) {
	zero := []float32{0, 0, 0}
	assert.Equal(t, zero, normalize(zero))
}
