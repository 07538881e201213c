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

package core

import (
	"encoding/binary"
	"time"
	"unicode/utf8"

	"github.com/go-crypt/x/blake2b"
)

// ID is a fixed-width identifier derived from an article's identity.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// ChunkType classifies the slot a chunk was cut from.
type ChunkType string

const (
	ChunkTypeMetadata     ChunkType = "metadata"
	ChunkTypeIntroduction ChunkType = "introduction"
	ChunkTypeSection      ChunkType = "section"
	ChunkTypeCode         ChunkType = "code"
	ChunkTypeFooter       ChunkType = "footer"
)

// Valid reports whether t is one of the known chunk types.
func (t ChunkType) Valid() bool {
	switch t {
	case ChunkTypeMetadata, ChunkTypeIntroduction, ChunkTypeSection, ChunkTypeCode, ChunkTypeFooter:
		return true
	}
	return false
}

// ContentChunk is a unit of embeddable text. Chunks are immutable once the
// chunker has produced them.
type ContentChunk struct {
	ID           string
	Content      string
	Type         ChunkType
	SectionID    string // Set when the chunk belongs to a named section
	SectionTitle string
	Order        float64 // Fractional so sub-chunks sort right after their section
	TokenCount   int
}

// EstimateTokens approximates the token count of text at four characters per token,
// rounded up. It is used for batching and cost estimates only.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + 3) / 4
}

// EmbeddingVector is a fixed-dimension vector plus its provenance.
type EmbeddingVector struct {
	Values    []float32
	Dimension int
	Model     string
	CreatedAt time.Time
}

// NewEmbeddingVector wraps values, deriving Dimension from their length.
func NewEmbeddingVector(values []float32, model string, createdAt time.Time) EmbeddingVector {
	return EmbeddingVector{
		Values:    values,
		Dimension: len(values),
		Model:     model,
		CreatedAt: createdAt,
	}
}

// ChunkEmbedding pairs one chunk with its vector. Regeneration replaces the
// pair as a whole.
type ChunkEmbedding struct {
	Chunk     ContentChunk
	Embedding EmbeddingVector
}

// ModelInfo describes the embedding model that produced a bundle.
type ModelInfo struct {
	Name      string
	Provider  string
	Dimension int
}

// GenerationStats aggregates figures about one generation run.
type GenerationStats struct {
	TotalChunks      int
	TotalTokens      int
	ProcessingTimeMs int64
}

// ArticleEmbedding is the full embedding bundle for one content item.
type ArticleEmbedding struct {
	ArticleID   string
	Title       string
	GeneratedAt time.Time
	Model       ModelInfo
	Metadata    GenerationStats
	Chunks      []ChunkEmbedding
}

// ContentChunks returns the chunks of the bundle in stored order.
func (a *ArticleEmbedding) ContentChunks() []ContentChunk {
	out := make([]ContentChunk, len(a.Chunks))
	for i := range a.Chunks {
		out[i] = a.Chunks[i].Chunk
	}
	return out
}

// ItemMetadata is the per-item information joined onto every searchable section.
type ItemMetadata struct {
	Slug   string
	Title  string
	Tags   []string
	Author string
	Kind   string
}

// Checkpoint records how far a resumable batch job has progressed.
type Checkpoint struct {
	Name          string // Job identifier, e.g. "reembed:nomic-embed-text"
	LastArticleID string // Last article fully processed, in ListArticleIDs order
	Processed     int
	UpdatedAt     time.Time
}
