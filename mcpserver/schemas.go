package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/poiesic/sitesearch/core"
)

func searchProperties() map[string]interface{} {
	return map[string]interface{}{
		"query": map[string]interface{}{
			"type":        "string",
			"description": "Search query",
		},
		"limit": map[string]interface{}{
			"type":        "integer",
			"description": "Maximum number of results to return (1-100)",
			"default":     defaultLimit,
			"minimum":     1,
			"maximum":     maxLimit,
		},
		"item": map[string]interface{}{
			"type":        "string",
			"description": "Restrict results to one article, doc, or lab slug",
		},
		"section_type": map[string]interface{}{
			"type":        "string",
			"description": "Restrict results to one chunk type",
			"enum": []string{
				string(core.ChunkTypeMetadata),
				string(core.ChunkTypeIntroduction),
				string(core.ChunkTypeSection),
				string(core.ChunkTypeCode),
				string(core.ChunkTypeFooter),
			},
		},
	}
}

func textSearchTool() mcp.Tool {
	return mcp.Tool{
		Name:        "text_search",
		Description: "Keyword search over site content, ranked by title, tag, and body matches",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: searchProperties(),
			Required:   []string{"query"},
		},
	}
}

func vectorSearchTool() mcp.Tool {
	return mcp.Tool{
		Name:        "vector_search",
		Description: "Semantic search over site content using embedding similarity",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: searchProperties(),
			Required:   []string{"query"},
		},
	}
}

func hybridSearchTool() mcp.Tool {
	return mcp.Tool{
		Name:        "hybrid_search",
		Description: "Combined keyword and semantic search; falls back to keyword search when embeddings are unavailable",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: searchProperties(),
			Required:   []string{"query"},
		},
	}
}

func indexStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_status",
		Description: "Report how many items and sections are indexed",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
