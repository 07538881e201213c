package filestore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/sitesearch/core"
	"github.com/poiesic/sitesearch/storage"
)

func makeBundle(id string, generated time.Time) *core.ArticleEmbedding {
	return &core.ArticleEmbedding{
		ArticleID:   id,
		Title:       "Title",
		GeneratedAt: generated,
		Model:       core.ModelInfo{Name: "m", Provider: "p", Dimension: 2},
		Chunks: []core.ChunkEmbedding{{
			Chunk:     core.ContentChunk{ID: "introduction", Content: "hello", Type: core.ChunkTypeIntroduction, Order: 1, TokenCount: 2},
			Embedding: core.NewEmbeddingVector([]float32{1, 0}, "m", generated),
		}},
	}
}

func TestStore_SaveLoad(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	generated := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	got, err := store.LoadArticleEmbedding(ctx, "generics")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, store.SaveArticleEmbedding(ctx, makeBundle("generics", generated)))

	got, err = store.LoadArticleEmbedding(ctx, "generics")
	require.NoError(t, err)
	assert.Equal(t, makeBundle("generics", generated), got)

	data, err := os.ReadFile(filepath.Join(store.Dir(), "generics.yaml"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "version: 1\narticleId: generics\n"))
}

func TestStore_EscapesIDs(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.SaveArticleEmbedding(ctx, makeBundle("labs/type-explorer", time.Now())))
	require.NoError(t, store.SaveArticleEmbedding(ctx, makeBundle("arrays", time.Now())))

	ids, err := store.ListArticleIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"arrays", "labs/type-explorer"}, ids)

	got, err := store.LoadArticleEmbedding(ctx, "labs/type-explorer")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "labs/type-explorer", got.ArticleID)
}

func TestStore_DotPrefixedIDs(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, id := range []string{".net-interop", "..", "arrays"} {
		require.NoError(t, store.SaveArticleEmbedding(ctx, makeBundle(id, time.Now())))
	}

	t.Run("listed", func(t *testing.T) {
		ids, err := store.ListArticleIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"..", ".net-interop", "arrays"}, ids)
	})

	t.Run("loadable", func(t *testing.T) {
		got, err := store.LoadArticleEmbedding(ctx, ".net-interop")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, ".net-interop", got.ArticleID)
	})

	t.Run("file is not hidden", func(t *testing.T) {
		_, err := os.Stat(filepath.Join(store.Dir(), "%2Enet-interop.yaml"))
		assert.NoError(t, err)
	})

	t.Run("deletable", func(t *testing.T) {
		require.NoError(t, store.DeleteArticleEmbedding(ctx, ".net-interop"))
		ids, err := store.ListArticleIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"..", "arrays"}, ids)
	})
}

func TestStore_Delete(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.SaveArticleEmbedding(ctx, makeBundle("a", time.Now())))
	require.NoError(t, store.DeleteArticleEmbedding(ctx, "a"))
	assert.ErrorIs(t, store.DeleteArticleEmbedding(ctx, "a"), storage.ErrNotFound)

	ids, err := store.ListArticleIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestStore_ConcurrentWritersSameItem(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, store.SaveArticleEmbedding(ctx, makeBundle("shared", base.Add(time.Duration(i)*time.Minute))))
		}(i)
	}
	wg.Wait()

	got, err := store.LoadArticleEmbedding(ctx, "shared")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Len(t, got.Chunks, 1)
}

func TestStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("chunks: [oops"), 0o644))
	_, err = store.LoadArticleEmbedding(context.Background(), "broken")
	assert.ErrorIs(t, err, storage.ErrSerializationFailed)
}

func TestStore_Closed(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = store.ListArticleIDs(context.Background())
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}
