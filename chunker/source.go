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

package chunker

import (
	"fmt"
	"strings"

	"github.com/poiesic/sitesearch/core"
)

// Chunk ordering. Sections start at SectionBaseOrder; sub-chunks take
// fractional offsets from their owning section.
const (
	MetadataOrder     = 0
	IntroductionOrder = 1
	SectionBaseOrder  = 2
	FooterOrder       = 1_000_000

	PracticeOffset = 0.1
	PracticeStep   = 0.01
	CodeOffset     = 0.5
)

// Source is one slot of a document that renders to a single chunk.
// Implementations are MetadataSource, IntroductionSource, SectionSource,
// PracticeSource, CodeSource and FooterSource.
type Source interface {
	Type() core.ChunkType
	Render() core.ContentChunk
}

// MetadataSource renders the document header.
type MetadataSource struct {
	Metadata core.DocumentMetadata
}

func (s MetadataSource) Type() core.ChunkType { return core.ChunkTypeMetadata }

func (s MetadataSource) Render() core.ContentChunk {
	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(s.Metadata.Title)
	if s.Metadata.Description != "" {
		b.WriteString("\n\n")
		b.WriteString(s.Metadata.Description)
	}
	if len(s.Metadata.Tags) > 0 {
		b.WriteString("\n\nTags: ")
		b.WriteString(strings.Join(s.Metadata.Tags, ", "))
	}
	if s.Metadata.Author != "" {
		b.WriteString("\nAuthor: ")
		b.WriteString(s.Metadata.Author)
	}
	return newChunk("metadata", b.String(), core.ChunkTypeMetadata, "", "", MetadataOrder)
}

// IntroductionSource renders the optional introduction.
type IntroductionSource struct {
	Text string
}

func (s IntroductionSource) Type() core.ChunkType { return core.ChunkTypeIntroduction }

func (s IntroductionSource) Render() core.ContentChunk {
	return newChunk("introduction", s.Text, core.ChunkTypeIntroduction, "", "", IntroductionOrder)
}

// SectionSource renders a section's main chunk.
type SectionSource struct {
	Section core.Section
	Order   float64
}

func (s SectionSource) Type() core.ChunkType { return core.ChunkTypeSection }

func (s SectionSource) Render() core.ContentChunk {
	var b strings.Builder
	b.WriteString("## ")
	b.WriteString(s.Section.Title)
	if s.Section.Subtitle != "" {
		b.WriteString("\n\n### ")
		b.WriteString(s.Section.Subtitle)
	}
	b.WriteString("\n\n")
	b.WriteString(s.Section.Content)
	return newChunk("section-"+s.Section.ID, b.String(), core.ChunkTypeSection,
		s.Section.ID, s.Section.Title, s.Order)
}

// PracticeSource renders one practice of a section. Practice chunks are
// section-typed and carry their owner's section fields.
type PracticeSource struct {
	SectionID    string
	SectionTitle string
	Index        int
	Practice     core.Practice
	Order        float64
}

func (s PracticeSource) Type() core.ChunkType { return core.ChunkTypeSection }

func (s PracticeSource) Render() core.ContentChunk {
	content := "### " + s.Practice.Title + "\n\n" + s.Practice.Description
	id := fmt.Sprintf("practice-%s-%d", s.SectionID, s.Index)
	return newChunk(id, content, core.ChunkTypeSection, s.SectionID, s.SectionTitle, s.Order)
}

// CodeSource renders a section's code snippet as a fenced block.
type CodeSource struct {
	SectionID    string
	SectionTitle string
	Snippet      core.CodeSnippet
	Order        float64
}

func (s CodeSource) Type() core.ChunkType { return core.ChunkTypeCode }

func (s CodeSource) Render() core.ContentChunk {
	var b strings.Builder
	b.WriteString("Code example: ")
	b.WriteString(s.SectionTitle)
	if s.Snippet.Filename != "" {
		b.WriteString(" (")
		b.WriteString(s.Snippet.Filename)
		b.WriteString(")")
	}
	b.WriteString("\n\n```")
	b.WriteString(s.Snippet.Language)
	b.WriteString("\n")
	b.WriteString(strings.TrimRight(s.Snippet.Code, "\n"))
	b.WriteString("\n```")
	return newChunk("code-"+s.SectionID, b.String(), core.ChunkTypeCode,
		s.SectionID, s.SectionTitle, s.Order)
}

// FooterSource renders the closing footer.
type FooterSource struct {
	Footer core.Footer
}

func (s FooterSource) Type() core.ChunkType { return core.ChunkTypeFooter }

func (s FooterSource) Render() core.ContentChunk {
	content := "## " + s.Footer.Title + "\n\n" + s.Footer.Content
	return newChunk("footer", content, core.ChunkTypeFooter, "", "", FooterOrder)
}

func newChunk(id, content string, typ core.ChunkType, sectionID, sectionTitle string, order float64) core.ContentChunk {
	return core.ContentChunk{
		ID:           id,
		Content:      content,
		Type:         typ,
		SectionID:    sectionID,
		SectionTitle: sectionTitle,
		Order:        order,
		TokenCount:   core.EstimateTokens(content),
	}
}
