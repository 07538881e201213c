package ingestion

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/sitesearch/ai"
	"github.com/poiesic/sitesearch/ai/mock"
	"github.com/poiesic/sitesearch/chunker"
	"github.com/poiesic/sitesearch/core"
	"github.com/poiesic/sitesearch/storage"
	"github.com/poiesic/sitesearch/storage/badger"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testDocument(id string) *core.ContentDocument {
	return &core.ContentDocument{
		ID:           id,
		Metadata:     core.DocumentMetadata{Title: "Doc " + id, Tags: []string{"typescript"}},
		Introduction: "An introduction.",
		Sections: []core.Section{
			{ID: "one", Title: "One", Content: "First section."},
			{
				ID: "two", Title: "Two", Content: "Second section.",
				CodeSnippet: &core.CodeSnippet{Language: "ts", Code: "let a = 1"},
				Practices:   []core.Practice{{Title: "P", Description: "Do it."}},
			},
		},
		Footer:    &core.Footer{Title: "End", Content: "Bye."},
		UpdatedAt: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}

func setupGenerator(t *testing.T, embedder *mock.MockEmbedder, opts ...GeneratorOption) (*Generator, storage.EmbeddingRepository, *fakeClock) {
	t.Helper()
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	clock := newFakeClock()
	opts = append([]GeneratorOption{WithClock(clock.Now), WithRetryDelay(time.Millisecond)}, opts...)
	g, err := NewGenerator(repo, embedder, opts...)
	require.NoError(t, err)
	return g, repo, clock
}

func TestNewGenerator_Validation(t *testing.T) {
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	defer backend.Close()

	_, err = NewGenerator(nil, mock.NewMockEmbedder())
	assert.ErrorIs(t, err, ErrRepositoryRequired)

	_, err = NewGenerator(repo, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	_, err = NewGenerator(repo, mock.NewMockEmbedder(), WithMaxAttempts(0))
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
}

func TestGenerator_Generate(t *testing.T) {
	embedder := mock.NewMockEmbedder().WithDimension(8)
	g, _, _ := setupGenerator(t, embedder)
	doc := testDocument("generics")

	bundle, err := g.Generate(context.Background(), doc)
	require.NoError(t, err)

	chunks := chunker.Chunk(doc)
	require.Len(t, bundle.Chunks, len(chunks), "one pair per chunk")
	for i := range chunks {
		assert.Equal(t, chunks[i], bundle.Chunks[i].Chunk, "chunk order preserved")
		assert.Equal(t, mock.Vector(chunks[i].Content, 8), bundle.Chunks[i].Embedding.Values)
		assert.Equal(t, 8, bundle.Chunks[i].Embedding.Dimension)
		assert.Equal(t, "mock-embedding", bundle.Chunks[i].Embedding.Model)
	}

	assert.Equal(t, "generics", bundle.ArticleID)
	assert.Equal(t, "Doc generics", bundle.Title)
	assert.Equal(t, core.ModelInfo{Name: "mock-embedding", Provider: "mock", Dimension: 8}, bundle.Model)
	assert.Equal(t, len(chunks), bundle.Metadata.TotalChunks)
	assert.Equal(t, chunker.TotalTokens(chunks), bundle.Metadata.TotalTokens)
	assert.Equal(t, 1, embedder.CallCount(), "one batched provider call")
}

func TestGenerator_RetriesProviderErrors(t *testing.T) {
	attempts := 0
	embedder := mock.NewMockEmbedder().WithDimension(4)
	embedder.WithEmbedTextsFunc(func(ctx context.Context, texts []string) ([][]float32, error) {
		attempts++
		if attempts < 3 {
			return nil, ai.ErrProviderFailed
		}
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = mock.Vector(text, 4)
		}
		return out, nil
	})
	g, _, _ := setupGenerator(t, embedder)

	_, err := g.Generate(context.Background(), testDocument("a"))
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestGenerator_ProviderFailureSurfaces(t *testing.T) {
	embedder := mock.NewMockEmbedder().WithEmbedTextsFunc(func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, ai.ErrProviderFailed
	})
	g, _, _ := setupGenerator(t, embedder)

	_, err := g.Generate(context.Background(), testDocument("a"))
	assert.ErrorIs(t, err, ai.ErrProviderFailed)
	assert.Equal(t, 3, embedder.CallCount(), "default three attempts")
}

func TestGenerator_CountMismatchIsFatal(t *testing.T) {
	embedder := mock.NewMockEmbedder().WithDimension(2).WithEmbedTextsFunc(func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{1, 0}}, nil
	})
	g, repo, _ := setupGenerator(t, embedder)
	ctx := context.Background()

	_, err := g.GenerateAndSave(ctx, testDocument("a"))
	require.ErrorIs(t, err, ErrCountMismatch)
	assert.Contains(t, err.Error(), "expected 7, got 1")
	assert.Equal(t, 1, embedder.CallCount(), "count mismatch is not retried")

	stored, err := repo.LoadArticleEmbedding(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, stored, "nothing saved on failure")
}

func TestGenerator_FailureLeavesStoredBundle(t *testing.T) {
	embedder := mock.NewMockEmbedder().WithDimension(4)
	g, repo, clock := setupGenerator(t, embedder)
	ctx := context.Background()
	doc := testDocument("a")

	first, err := g.GenerateAndSave(ctx, doc)
	require.NoError(t, err)

	embedder.WithEmbedTextsFunc(func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("network down")
	})
	clock.Advance(time.Hour)
	_, err = g.GenerateAndSave(ctx, doc)
	require.Error(t, err)

	stored, err := repo.LoadArticleEmbedding(ctx, "a")
	require.NoError(t, err)
	assert.True(t, first.GeneratedAt.Equal(stored.GeneratedAt))
}

func TestGenerator_DimensionMismatchNotRetried(t *testing.T) {
	embedder := mock.NewMockEmbedder().WithEmbedTextsFunc(func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, ai.ErrDimensionMismatch
	})
	g, _, _ := setupGenerator(t, embedder)

	_, err := g.Generate(context.Background(), testDocument("a"))
	assert.ErrorIs(t, err, ai.ErrDimensionMismatch)
	assert.Equal(t, 1, embedder.CallCount())
}

func TestGenerator_InvalidDocument(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	g, _, _ := setupGenerator(t, embedder)

	doc := testDocument("a")
	doc.Metadata.Title = ""
	_, err := g.Generate(context.Background(), doc)
	assert.ErrorIs(t, err, core.ErrInvalidDocument)
	assert.Equal(t, 0, embedder.CallCount())

	_, err = g.GenerateAndSave(context.Background(), nil)
	assert.ErrorIs(t, err, core.ErrInvalidDocument)
}

func TestGenerator_NeedsRegeneration(t *testing.T) {
	embedder := mock.NewMockEmbedder().WithDimension(4)
	g, _, clock := setupGenerator(t, embedder)
	ctx := context.Background()
	doc := testDocument("staleness")

	t.Run("nothing stored", func(t *testing.T) {
		stale, err := g.NeedsRegeneration(ctx, doc)
		require.NoError(t, err)
		assert.True(t, stale)
	})

	t.Run("fresh after generate and save", func(t *testing.T) {
		_, err := g.GenerateAndSave(ctx, doc)
		require.NoError(t, err)

		stale, err := g.NeedsRegeneration(ctx, doc)
		require.NoError(t, err)
		assert.False(t, stale)
	})

	t.Run("content updated after generation", func(t *testing.T) {
		clock.Advance(time.Minute)
		doc.UpdatedAt = clock.Now()

		stale, err := g.NeedsRegeneration(ctx, doc)
		require.NoError(t, err)
		assert.True(t, stale)

		_, err = g.GenerateAndSave(ctx, doc)
		require.NoError(t, err)
		stale, err = g.NeedsRegeneration(ctx, doc)
		require.NoError(t, err)
		assert.False(t, stale, "equal timestamps are not stale")
	})

	t.Run("model changed", func(t *testing.T) {
		embedder.WithModel("other-model")
		defer embedder.WithModel("mock-embedding")

		stale, err := g.NeedsRegeneration(ctx, doc)
		require.NoError(t, err)
		assert.True(t, stale)
	})
}

func TestGenerator_EnsureFresh(t *testing.T) {
	embedder := mock.NewMockEmbedder().WithDimension(4)
	g, _, _ := setupGenerator(t, embedder)
	ctx := context.Background()
	doc := testDocument("fresh")

	bundle, regenerated, err := g.EnsureFresh(ctx, doc)
	require.NoError(t, err)
	assert.True(t, regenerated)
	require.NotNil(t, bundle)

	again, regenerated, err := g.EnsureFresh(ctx, doc)
	require.NoError(t, err)
	assert.False(t, regenerated)
	assert.True(t, bundle.GeneratedAt.Equal(again.GeneratedAt))
	assert.Equal(t, 1, embedder.CallCount())
}

func TestGenerator_ConcurrentSameItem(t *testing.T) {
	embedder := mock.NewMockEmbedder().WithDimension(4)
	g, _, _ := setupGenerator(t, embedder)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := g.EnsureFresh(ctx, testDocument("shared"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, embedder.CallCount(), "serialized runs see the fresh bundle")
}

func TestGenerator_Reembed(t *testing.T) {
	g, repo, clock := setupGenerator(t, mock.NewMockEmbedder().WithDimension(4))
	ctx := context.Background()
	doc := testDocument("a")

	original, err := g.GenerateAndSave(ctx, doc)
	require.NoError(t, err)

	next := mock.NewMockEmbedder().WithDimension(6).WithModel("next-model")
	g2, err := NewGenerator(repo, next, WithClock(clock.Now))
	require.NoError(t, err)
	clock.Advance(time.Hour)

	bundle, err := g2.Reembed(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, bundle)
	assert.Equal(t, "next-model", bundle.Model.Name)
	assert.Equal(t, 6, bundle.Model.Dimension)
	assert.Equal(t, original.Title, bundle.Title)
	assert.Equal(t, original.ContentChunks(), bundle.ContentChunks(), "chunks carried over")
	assert.True(t, bundle.GeneratedAt.Equal(original.GeneratedAt), "generation time carried over")

	stored, err := repo.LoadArticleEmbedding(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "next-model", stored.Model.Name)

	missing, err := g2.Reembed(ctx, "absent")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGenerator_ReembedKeepsEditedContentStale(t *testing.T) {
	g, _, clock := setupGenerator(t, mock.NewMockEmbedder().WithDimension(4))
	ctx := context.Background()
	doc := testDocument("a")

	_, err := g.GenerateAndSave(ctx, doc)
	require.NoError(t, err)

	clock.Advance(time.Hour)
	doc.UpdatedAt = clock.Now()
	doc.Sections[0].Content = "Rewritten first section."

	stale, err := g.NeedsRegeneration(ctx, doc)
	require.NoError(t, err)
	require.True(t, stale)

	clock.Advance(time.Hour)
	_, err = g.Reembed(ctx, "a")
	require.NoError(t, err)

	stale, err = g.NeedsRegeneration(ctx, doc)
	require.NoError(t, err)
	assert.True(t, stale, "reembedding old chunks must not hide the edit")

	bundle, regenerated, err := g.EnsureFresh(ctx, doc)
	require.NoError(t, err)
	assert.True(t, regenerated)
	found := false
	for _, c := range bundle.ContentChunks() {
		if c.SectionID == "one" {
			assert.Contains(t, c.Content, "Rewritten first section.")
			found = true
		}
	}
	assert.True(t, found)
}
