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
	"sort"

	"github.com/poiesic/sitesearch/core"
)

// Sources flattens doc into its chunk sources in document order.
// Missing introduction or footer slots produce no source.
func Sources(doc *core.ContentDocument) []Source {
	if doc == nil {
		return nil
	}

	sources := []Source{MetadataSource{Metadata: doc.Metadata}}
	if doc.Introduction != "" {
		sources = append(sources, IntroductionSource{Text: doc.Introduction})
	}

	for i, section := range doc.Sections {
		order := float64(SectionBaseOrder + i)
		sources = append(sources, SectionSource{Section: section, Order: order})

		for j, p := range section.Practices {
			sources = append(sources, PracticeSource{
				SectionID:    section.ID,
				SectionTitle: section.Title,
				Index:        j,
				Practice:     p,
				Order:        order + PracticeOffset + PracticeStep*float64(j),
			})
		}

		if section.CodeSnippet != nil {
			sources = append(sources, CodeSource{
				SectionID:    section.ID,
				SectionTitle: section.Title,
				Snippet:      *section.CodeSnippet,
				Order:        order + CodeOffset,
			})
		}
	}

	if doc.Footer != nil {
		sources = append(sources, FooterSource{Footer: *doc.Footer})
	}
	return sources
}

// Chunk renders every source of doc and returns the chunks sorted by order.
// It is deterministic: the same document always yields the same chunks.
func Chunk(doc *core.ContentDocument) []core.ContentChunk {
	sources := Sources(doc)
	chunks := make([]core.ContentChunk, 0, len(sources))
	for _, s := range sources {
		chunks = append(chunks, s.Render())
	}
	sort.SliceStable(chunks, func(i, j int) bool {
		return chunks[i].Order < chunks[j].Order
	})
	return chunks
}

// TotalTokens sums the token estimates of chunks.
func TotalTokens(chunks []core.ContentChunk) int {
	total := 0
	for _, c := range chunks {
		total += c.TokenCount
	}
	return total
}
