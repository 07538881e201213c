package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/poiesic/sitesearch/core"
	"github.com/poiesic/sitesearch/index"
)

type chunkSpec struct {
	id      string
	title   string
	content string
	typ     core.ChunkType
	vector  []float32
}

func register(idx *index.Index, meta core.ItemMetadata, specs ...chunkSpec) {
	chunks := make([]core.ContentChunk, 0, len(specs))
	var embeddings []core.ChunkEmbedding
	for i, s := range specs {
		typ := s.typ
		if typ == "" {
			typ = core.ChunkTypeSection
		}
		c := core.ContentChunk{
			ID:           s.id,
			Content:      s.content,
			Type:         typ,
			SectionID:    s.id,
			SectionTitle: s.title,
			Order:        float64(i + 2),
			TokenCount:   core.EstimateTokens(s.content),
		}
		chunks = append(chunks, c)
		if s.vector != nil {
			embeddings = append(embeddings, core.ChunkEmbedding{
				Chunk:     c,
				Embedding: core.NewEmbeddingVector(s.vector, "test-model", time.Time{}),
			})
		}
	}
	idx.RegisterSections(meta, chunks, embeddings)
}

// hybridIndex holds one item with three sections:
//
//	s1: title and body match "generics", vector [1,0]
//	s2: body matches once, vector [0,1]
//	s3: no text match, vector [1,0]
func hybridIndex(t *testing.T) *index.Index {
	t.Helper()
	idx := index.New()
	register(idx, core.ItemMetadata{Slug: "a", Title: "Alpha guide", Kind: core.KindArticle},
		chunkSpec{id: "s1", title: "Generics", content: "generics generics", vector: []float32{1, 0}},
		chunkSpec{id: "s2", title: "Other", content: "about generics", vector: []float32{0, 1}},
		chunkSpec{id: "s3", title: "Third", content: "unrelated words", vector: []float32{1, 0}},
	)
	require.Equal(t, 3, idx.Len())
	return idx
}

func newTestEngine(t *testing.T, idx *index.Index, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(idx, opts...)
	require.NoError(t, err)
	return e
}

func chunkIDs(results []Result) []string {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.Section.ChunkID
	}
	return ids
}
