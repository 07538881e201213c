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

package index

import (
	"strings"
	"unicode/utf8"

	"github.com/poiesic/sitesearch/core"
)

// SearchableSection joins one chunk to its item's metadata, with a plain-text
// rendering and flags used for filtering and display.
type SearchableSection struct {
	Key       string // "{itemSlug}:{chunkId}"
	ItemSlug  string
	ItemTitle string
	ItemKind  string
	Author    string
	Tags      []string

	ChunkID      string
	Type         core.ChunkType
	SectionID    string
	SectionTitle string
	Order        float64

	Content         string
	PlainText       string
	HasCodeSnippet  bool
	HasPractices    bool
	ContentLength   int
	EstimatedTokens int

	Embedding []float32 // nil when the chunk has no stored vector
}

// HasEmbedding reports whether the section carries a vector.
func (s *SearchableSection) HasEmbedding() bool {
	return len(s.Embedding) > 0
}

// SectionKey builds the lookup key for a chunk of an item.
func SectionKey(slug, chunkID string) string {
	return slug + ":" + chunkID
}

type sectionFlags struct {
	code      bool
	practices bool
}

// buildSections projects chunks into searchable sections. Embeddings are
// matched to chunks by chunk ID.
func buildSections(meta core.ItemMetadata, chunks []core.ContentChunk, embeddings []core.ChunkEmbedding) []SearchableSection {
	vectors := make(map[string][]float32, len(embeddings))
	for _, ce := range embeddings {
		if len(ce.Embedding.Values) > 0 {
			vectors[ce.Chunk.ID] = ce.Embedding.Values
		}
	}

	// A section owns a code snippet if any of its chunks is code, and
	// practices if it has more than one section-typed chunk.
	flags := make(map[string]*sectionFlags)
	textChunks := make(map[string]int)
	for _, c := range chunks {
		if c.SectionID == "" {
			continue
		}
		f, ok := flags[c.SectionID]
		if !ok {
			f = &sectionFlags{}
			flags[c.SectionID] = f
		}
		switch c.Type {
		case core.ChunkTypeCode:
			f.code = true
		case core.ChunkTypeSection:
			textChunks[c.SectionID]++
			if textChunks[c.SectionID] > 1 {
				f.practices = true
			}
		}
	}

	tags := append([]string(nil), meta.Tags...)
	out := make([]SearchableSection, 0, len(chunks))
	for _, c := range chunks {
		s := SearchableSection{
			Key:             SectionKey(meta.Slug, c.ID),
			ItemSlug:        meta.Slug,
			ItemTitle:       meta.Title,
			ItemKind:        meta.Kind,
			Author:          meta.Author,
			Tags:            tags,
			ChunkID:         c.ID,
			Type:            c.Type,
			SectionID:       c.SectionID,
			SectionTitle:    c.SectionTitle,
			Order:           c.Order,
			Content:         c.Content,
			PlainText:       StripMarkdown(c.Content),
			ContentLength:   utf8.RuneCountInString(c.Content),
			EstimatedTokens: core.EstimateTokens(c.Content),
			Embedding:       vectors[c.ID],
		}
		if f, ok := flags[c.SectionID]; ok {
			s.HasCodeSnippet = f.code
			s.HasPractices = f.practices
		}
		if c.Type == core.ChunkTypeCode || strings.Contains(c.Content, "```") {
			s.HasCodeSnippet = true
		}
		out = append(out, s)
	}
	return out
}
