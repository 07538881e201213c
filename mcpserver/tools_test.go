package mcpserver

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/sitesearch/ai/mock"
	"github.com/poiesic/sitesearch/core"
	"github.com/poiesic/sitesearch/index"
	"github.com/poiesic/sitesearch/search"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	idx := index.New()
	chunks := []core.ContentChunk{
		{ID: "section-intro", Type: core.ChunkTypeSection, SectionID: "intro", SectionTitle: "Generics", Content: "Generics let you reuse code.", Order: 2},
		{ID: "code-intro", Type: core.ChunkTypeCode, SectionID: "intro", SectionTitle: "Generics", Content: "```ts\nfunction id<T>(x: T) {}\n```", Order: 2.5},
	}
	embeddings := []core.ChunkEmbedding{
		{Chunk: chunks[0], Embedding: core.NewEmbeddingVector([]float32{1, 0}, "m", time.Time{})},
		{Chunk: chunks[1], Embedding: core.NewEmbeddingVector([]float32{0, 1}, "m", time.Time{})},
	}
	idx.RegisterSections(core.ItemMetadata{Slug: "ts-generics", Title: "TypeScript Generics", Kind: core.KindArticle}, chunks, embeddings)

	embedder := mock.NewMockEmbedder().WithDimension(2).WithEmbedTextFunc(func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0}, nil
	})
	service, err := search.NewService(idx, embedder)
	require.NoError(t, err)
	return NewServer(service, idx, nil)
}

func callTool(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func decodeResponse(t *testing.T, result *mcp.CallToolResult) responseView {
	t.Helper()
	require.False(t, result.IsError, resultText(t, result))
	var view responseView
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &view))
	return view
}

func TestHandleTextSearch(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleTextSearch(context.Background(), callTool("text_search", map[string]interface{}{
		"query": "generics",
		"limit": float64(5),
	}))
	require.NoError(t, err)

	view := decodeResponse(t, result)
	assert.Equal(t, "generics", view.Query)
	assert.Equal(t, "text", view.SearchType)
	require.NotEmpty(t, view.Results)
	first := view.Results[0]
	assert.Equal(t, "text", first.Type)
	assert.Equal(t, "ts-generics:section-intro", first.Key)
	assert.Equal(t, "TypeScript Generics", first.ItemTitle)
	assert.Nil(t, first.Similarity)
	assert.NotEmpty(t, first.Snippet)
}

func TestHandleVectorSearch(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleVectorSearch(context.Background(), callTool("vector_search", map[string]interface{}{
		"query": "reuse",
	}))
	require.NoError(t, err)

	view := decodeResponse(t, result)
	assert.Equal(t, "vector", view.SearchType)
	require.Len(t, view.Results, 1)
	require.NotNil(t, view.Results[0].Similarity)
	assert.InDelta(t, 1.0, *view.Results[0].Similarity, 1e-9)
}

func TestHandleHybridSearch_Filters(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleHybridSearch(context.Background(), callTool("hybrid_search", map[string]interface{}{
		"query":        "generics",
		"section_type": "code",
	}))
	require.NoError(t, err)

	view := decodeResponse(t, result)
	assert.Equal(t, "hybrid", view.SearchType)
	for _, r := range view.Results {
		assert.Equal(t, "code", r.ChunkType)
	}
}

func TestHandleSearch_InvalidArguments(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name string
		args interface{}
	}{
		{"not an object", "generics"},
		{"missing query", map[string]interface{}{}},
		{"blank query", map[string]interface{}{"query": "  "}},
		{"limit too large", map[string]interface{}{"query": "x", "limit": float64(500)}},
		{"bad section type", map[string]interface{}{"query": "x", "section_type": "sidebar"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := mcp.CallToolRequest{Params: mcp.CallToolParams{Name: "text_search", Arguments: tt.args}}
			result, err := s.handleTextSearch(ctx, request)
			require.NoError(t, err)
			assert.True(t, result.IsError)
		})
	}
}

func TestHandleIndexStatus(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleIndexStatus(context.Background(), callTool("index_status", nil))
	require.NoError(t, err)

	var status map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &status))
	assert.Equal(t, float64(1), status["items"])
	assert.Equal(t, float64(2), status["sections"])
	assert.Equal(t, float64(2), status["embedded_sections"])
	assert.Equal(t, true, status["vector_search_ready"])
}

func TestSnippet(t *testing.T) {
	short := "short text"
	assert.Equal(t, short, snippet(short))

	long := make([]rune, snippetRunes+10)
	for i := range long {
		long[i] = 'é'
	}
	got := []rune(snippet(string(long)))
	assert.Len(t, got, snippetRunes+1)
}
