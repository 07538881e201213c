// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/poiesic/sitesearch/core"
	"github.com/poiesic/sitesearch/search"
)

const (
	defaultLimit = 10
	maxLimit     = 100
	snippetRunes = 240
)

type resultView struct {
	Type         string   `json:"type"`
	Key          string   `json:"key"`
	Item         string   `json:"item"`
	ItemTitle    string   `json:"item_title"`
	Kind         string   `json:"kind"`
	SectionID    string   `json:"section_id,omitempty"`
	SectionTitle string   `json:"section_title,omitempty"`
	ChunkType    string   `json:"chunk_type"`
	Score        float64  `json:"score"`
	Similarity   *float64 `json:"similarity,omitempty"`
	TextScore    *float64 `json:"text_score,omitempty"`
	VectorScore  *float64 `json:"vector_score,omitempty"`
	Snippet      string   `json:"snippet"`
}

type responseView struct {
	Query      string       `json:"query"`
	SearchType string       `json:"search_type"`
	Total      int          `json:"total"`
	Fallback   bool         `json:"fallback,omitempty"`
	Results    []resultView `json:"results"`
}

func (s *Server) handleTextSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.runSearch(ctx, request, search.SearchTypeText)
}

func (s *Server) handleVectorSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.runSearch(ctx, request, search.SearchTypeVector)
}

func (s *Server) handleHybridSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.runSearch(ctx, request, search.SearchTypeHybrid)
}

func (s *Server) runSearch(ctx context.Context, request mcp.CallToolRequest, searchType search.SearchType) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments"), nil
	}

	query := strings.TrimSpace(getStringDefault(args, "query", ""))
	if query == "" {
		return mcp.NewToolResultError("query parameter is required and cannot be empty"), nil
	}
	limit := getIntDefault(args, "limit", defaultLimit)
	if limit < 1 || limit > maxLimit {
		return mcp.NewToolResultError(fmt.Sprintf("limit must be between 1 and %d", maxLimit)), nil
	}
	sectionType := core.ChunkType(getStringDefault(args, "section_type", ""))
	if sectionType != "" && !sectionType.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("unknown section_type %q", sectionType)), nil
	}

	resp := s.service.Search(ctx, search.Request{
		Filter: search.Filter{
			ItemSlug:    getStringDefault(args, "item", ""),
			SectionType: sectionType,
		},
		Query: query,
		Type:  searchType,
		Limit: limit,
	})
	s.logger.Debug("tool search", "type", searchType, "query", query, "results", resp.Total, "fallback", resp.Fallback)
	return mcp.NewToolResultText(formatJSON(newResponseView(resp))), nil
}

func (s *Server) handleIndexStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap := s.index.Snapshot()
	embedded := 0
	for _, section := range snap.Sections() {
		if section.HasEmbedding() {
			embedded++
		}
	}
	status := map[string]interface{}{
		"items":               len(snap.Items()),
		"sections":            snap.Len(),
		"embedded_sections":   embedded,
		"vector_search_ready": embedded > 0,
	}
	return mcp.NewToolResultText(formatJSON(status)), nil
}

func newResponseView(resp *search.Response) responseView {
	view := responseView{
		Query:      resp.Query,
		SearchType: string(resp.SearchType),
		Total:      resp.Total,
		Fallback:   resp.Fallback,
		Results:    make([]resultView, 0, len(resp.Results)),
	}
	for _, r := range resp.Results {
		v := resultView{
			Type:         string(r.Type),
			Key:          r.Section.Key,
			Item:         r.Section.ItemSlug,
			ItemTitle:    r.Section.ItemTitle,
			Kind:         r.Section.ItemKind,
			SectionID:    r.Section.SectionID,
			SectionTitle: r.Section.SectionTitle,
			ChunkType:    string(r.Section.Type),
			Score:        r.Score,
			TextScore:    r.TextScore,
			VectorScore:  r.VectorScore,
			Snippet:      snippet(r.Section.PlainText),
		}
		if r.Type == search.ResultTypeVector || r.Type == search.ResultTypeMerged {
			sim := r.Similarity
			v.Similarity = &sim
		}
		view.Results = append(view.Results, v)
	}
	return view
}

func snippet(text string) string {
	runes := []rune(text)
	if len(runes) <= snippetRunes {
		return text
	}
	return string(runes[:snippetRunes]) + "…"
}

// formatJSON formats a value as indented JSON
func formatJSON(data interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}
