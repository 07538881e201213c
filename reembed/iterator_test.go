package reembed

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, it *ArticleIterator, after string) [][]string {
	t.Helper()
	var batches [][]string
	err := it.ForEach(context.Background(), after, func(ids []string) error {
		batches = append(batches, append([]string(nil), ids...))
		return nil
	})
	require.NoError(t, err)
	return batches
}

func TestArticleIterator_Batches(t *testing.T) {
	store := seedStore(t, 5)
	it := NewArticleIterator(store.repo, 2)

	assert.Equal(t, [][]string{
		{"article-00", "article-01"},
		{"article-02", "article-03"},
		{"article-04"},
	}, collect(t, it, ""))
}

func TestArticleIterator_After(t *testing.T) {
	store := seedStore(t, 5)
	it := NewArticleIterator(store.repo, 10)

	assert.Equal(t, [][]string{{"article-02", "article-03", "article-04"}}, collect(t, it, "article-01"))
	assert.Empty(t, collect(t, it, "article-04"))
	assert.Equal(t, [][]string{{"article-00", "article-01", "article-02", "article-03", "article-04"}},
		collect(t, it, "a"), "after need not be a stored ID")
}

func TestArticleIterator_DefaultBatchSize(t *testing.T) {
	store := seedStore(t, 0)
	assert.Equal(t, DefaultBatchSize, NewArticleIterator(store.repo, 0).batchSize)
}

func TestArticleIterator_StopsOnError(t *testing.T) {
	store := seedStore(t, 4)
	it := NewArticleIterator(store.repo, 1)
	boom := errors.New("boom")

	calls := 0
	err := it.ForEach(context.Background(), "", func(ids []string) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestArticleIterator_CancelledContext(t *testing.T) {
	store := seedStore(t, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewArticleIterator(store.repo, 1).ForEach(ctx, "", func([]string) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
