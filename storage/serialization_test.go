package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/sitesearch/core"
)

func sampleBundle() *core.ArticleEmbedding {
	generated := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	return &core.ArticleEmbedding{
		ArticleID:   "ts-generics",
		Title:       "TypeScript Generics",
		GeneratedAt: generated,
		Model:       core.ModelInfo{Name: "embeddinggemma", Provider: "openai", Dimension: 3},
		Metadata:    core.GenerationStats{TotalChunks: 2, TotalTokens: 9, ProcessingTimeMs: 42},
		Chunks: []core.ChunkEmbedding{
			{
				Chunk:     core.ContentChunk{ID: "metadata", Content: "# TypeScript Generics", Type: core.ChunkTypeMetadata, TokenCount: 6},
				Embedding: core.NewEmbeddingVector([]float32{0.1, -0.25, 0.5}, "embeddinggemma", generated),
			},
			{
				Chunk: core.ContentChunk{
					ID: "code-intro", Content: "```ts\nlet x = 1\n```", Type: core.ChunkTypeCode,
					SectionID: "intro", SectionTitle: "Intro", Order: 2.5, TokenCount: 3,
				},
				Embedding: core.NewEmbeddingVector([]float32{1, 0, 0}, "embeddinggemma", generated),
			},
		},
	}
}

func TestArticleEmbeddingDocument(t *testing.T) {
	data, err := MarshalArticleEmbedding(sampleBundle())
	require.NoError(t, err)

	text := string(data)
	for _, key := range []string{
		"articleId: ts-generics", "generatedAt:", "model:", "provider: openai",
		"totalChunks: 2", "processingTimeMs: 42", "chunks:", "sectionId: intro",
		"embedding:", "createdAt:", "values: [",
	} {
		assert.Contains(t, text, key)
	}
	// Optional section fields are omitted for chunks outside a section.
	assert.Equal(t, 1, strings.Count(text, "sectionId:"))

	got, err := UnmarshalArticleEmbedding(data)
	require.NoError(t, err)
	assert.Equal(t, sampleBundle(), got)
}

func TestUnmarshalArticleEmbedding_JSON(t *testing.T) {
	data := []byte(`{
    "articleId": "a1",
    "title": "A",
    "generatedAt": "2025-01-02T03:04:05Z",
    "model": {"name": "m", "provider": "p", "dimension": 2},
    "metadata": {"totalChunks": 1, "totalTokens": 1, "processingTimeMs": 5},
    "chunks": [{
      "id": "introduction", "content": "hi", "type": "introduction", "order": 1, "tokenCount": 1,
      "embedding": {"dimension": 2, "model": "m", "createdAt": "2025-01-02T03:04:05Z", "values": [0.5, 0.5]}
    }]
  }`)

	got, err := UnmarshalArticleEmbedding(data)
	require.NoError(t, err)
	assert.Equal(t, "a1", got.ArticleID)
	assert.Equal(t, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), got.GeneratedAt)
	require.Len(t, got.Chunks, 1)
	assert.Equal(t, []float32{0.5, 0.5}, got.Chunks[0].Embedding.Values)
}

func TestUnmarshalArticleEmbedding_Errors(t *testing.T) {
	t.Run("dimension mismatch", func(t *testing.T) {
		bundle := sampleBundle()
		bundle.Chunks[0].Embedding.Dimension = 4
		data, err := MarshalArticleEmbedding(bundle)
		require.NoError(t, err)

		_, err = UnmarshalArticleEmbedding(data)
		assert.ErrorIs(t, err, ErrSerializationFailed)
		assert.ErrorIs(t, err, core.ErrDimensionMismatch)
	})

	t.Run("bad timestamp", func(t *testing.T) {
		_, err := UnmarshalArticleEmbedding([]byte("articleId: a\ngeneratedAt: yesterday\n"))
		assert.ErrorIs(t, err, ErrSerializationFailed)
	})

	t.Run("unknown chunk type", func(t *testing.T) {
		data := []byte("articleId: a\nchunks:\n  - id: x\n    type: sidebar\n")
		_, err := UnmarshalArticleEmbedding(data)
		assert.ErrorIs(t, err, ErrSerializationFailed)
	})

	t.Run("future version", func(t *testing.T) {
		_, err := UnmarshalArticleEmbedding([]byte("version: 2\narticleId: a\n"))
		assert.ErrorIs(t, err, ErrUnsupportedVersion)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := UnmarshalArticleEmbedding([]byte("articleId: [unterminated"))
		assert.ErrorIs(t, err, ErrSerializationFailed)
	})

	t.Run("nil bundle", func(t *testing.T) {
		_, err := MarshalArticleEmbedding(nil)
		assert.ErrorIs(t, err, ErrSerializationFailed)
	})
}

func TestCheckpointDocument(t *testing.T) {
	cp := &core.Checkpoint{
		Name:          "reembed:nomic",
		LastArticleID: "b",
		Processed:     2,
		UpdatedAt:     time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
	}
	data, err := MarshalCheckpoint(cp)
	require.NoError(t, err)

	got, err := UnmarshalCheckpoint(data)
	require.NoError(t, err)
	assert.Equal(t, cp, got)
}
