package sitesearch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/sitesearch/ai/mock"
	"github.com/poiesic/sitesearch/core"
	"github.com/poiesic/sitesearch/ingestion"
	"github.com/poiesic/sitesearch/reembed"
	"github.com/poiesic/sitesearch/storage/filestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDocument(id string) *core.ContentDocument {
	return &core.ContentDocument{
		ID:   id,
		Kind: core.KindArticle,
		Metadata: core.DocumentMetadata{
			Title: "Concurrency in Go",
			Tags:  []string{"go", "concurrency"},
		},
		Introduction: "Goroutines and channels are the building blocks.",
		Sections: []core.Section{
			{ID: "goroutines", Title: "Goroutines", Content: "A goroutine is a lightweight thread."},
			{ID: "channels", Title: "Channels", Content: "Channels connect goroutines."},
		},
		UpdatedAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestNewDatabase(t *testing.T) {
	t.Run("create new database", func(t *testing.T) {
		tmpDir := filepath.Join(t.TempDir(), "test_db")
		db, err := NewDatabase(tmpDir, WithProvider(mock.NewMockProvider()))
		require.NoError(t, err)
		require.NotNil(t, db)
		defer db.Close()

		assert.NotNil(t, db.Repository())
		assert.NotNil(t, db.CheckpointRepository())
		assert.NotNil(t, db.Index())
		assert.NotNil(t, db.backend)
		assert.NotNil(t, db.logger)
	})

	t.Run("default provider", func(t *testing.T) {
		db, err := NewDatabase(t.TempDir())
		require.NoError(t, err)
		defer db.Close()

		assert.Equal(t, "embeddinggemma", db.Provider().Embedder().ModelName())
	})

	t.Run("error with invalid path", func(t *testing.T) {
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		err := os.WriteFile(tmpFile, []byte("test"), 0644)
		require.NoError(t, err)

		db, err := NewDatabase(tmpFile, WithProvider(mock.NewMockProvider()))
		assert.Error(t, err)
		assert.Nil(t, db)
	})

	t.Run("file store", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "embeddings")
		db, err := NewDatabase("", WithInMemory(), WithFileStore(dir), WithProvider(mock.NewMockProvider()))
		require.NoError(t, err)
		defer db.Close()

		store, ok := db.Repository().(*filestore.Store)
		require.True(t, ok)
		assert.Equal(t, dir, store.Dir())
	})
}

func TestDatabase_Close(t *testing.T) {
	provider := mock.NewMockProvider()
	db, err := NewDatabase(t.TempDir(), WithProvider(provider))
	require.NoError(t, err)
	require.NotNil(t, db)

	err = db.Close()
	assert.NoError(t, err)
	assert.True(t, provider.(*mock.MockProvider).Closed())
}

func TestDatabase_FactoryMethods(t *testing.T) {
	db, err := NewDatabase("", WithInMemory(), WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	defer db.Close()

	t.Run("can create generator", func(t *testing.T) {
		generator, err := db.NewGenerator()
		require.NoError(t, err)
		assert.Equal(t, db.Repository(), generator.Repository())
	})

	t.Run("can create ingestion pipeline", func(t *testing.T) {
		pipeline, err := db.NewIngestionPipeline()
		require.NoError(t, err)
		require.NotNil(t, pipeline)
		pipeline.Release()
	})

	t.Run("can create reembedder", func(t *testing.T) {
		reembedder, err := db.NewReembedder(reembed.DefaultConfig(), nil)
		require.NoError(t, err)
		require.NotNil(t, reembedder)
	})

	t.Run("can create search service", func(t *testing.T) {
		service, err := db.NewSearchService()
		require.NoError(t, err)
		require.NotNil(t, service)
	})

	t.Run("can create mcp server", func(t *testing.T) {
		server, err := db.NewMCPServer()
		require.NoError(t, err)
		require.NotNil(t, server)
	})
}

func TestDatabase_EndToEnd(t *testing.T) {
	ctx := context.Background()
	db, err := NewDatabase("", WithInMemory(), WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	defer db.Close()

	doc := testDocument("go-concurrency")

	t.Run("pipeline registers generated bundles", func(t *testing.T) {
		pipeline, err := db.NewIngestionPipeline(ingestion.WithPoolSize(2))
		require.NoError(t, err)
		defer pipeline.Release()

		stats, err := pipeline.Run(ctx, []*core.ContentDocument{doc}, ingestion.RunOptions{})
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Generated)

		assert.Equal(t, []string{"go-concurrency"}, db.Index().Items())
		assert.NotZero(t, db.Index().Len())
	})

	t.Run("load index from store", func(t *testing.T) {
		db.Index().Clear()
		require.Zero(t, db.Index().Len())

		lookup := func(id string) (core.ItemMetadata, bool) {
			if id == doc.ID {
				return doc.ItemMetadata(), true
			}
			return core.ItemMetadata{}, false
		}
		n, err := db.LoadIndex(ctx, lookup)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		sections := db.Index().SectionsByItem("go-concurrency")
		require.NotEmpty(t, sections)
		assert.Equal(t, "Concurrency in Go", sections[0].ItemTitle)
	})

	t.Run("search loaded index", func(t *testing.T) {
		service, err := db.NewSearchService()
		require.NoError(t, err)

		resp := service.TextSearch(ctx, "channels", 5)
		require.NotEmpty(t, resp.Results)
		assert.Equal(t, "channels", resp.Results[0].Section.SectionID)
	})
}
