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

package storage

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/poiesic/sitesearch/core"
)

// FormatVersion is the version written into every stored document.
// Documents without a version field are read as version 1.
const FormatVersion = 1

type modelDoc struct {
	Name      string `yaml:"name"`
	Provider  string `yaml:"provider"`
	Dimension int    `yaml:"dimension"`
}

type statsDoc struct {
	TotalChunks      int   `yaml:"totalChunks"`
	TotalTokens      int   `yaml:"totalTokens"`
	ProcessingTimeMs int64 `yaml:"processingTimeMs"`
}

type vectorDoc struct {
	Dimension int       `yaml:"dimension"`
	Model     string    `yaml:"model"`
	CreatedAt string    `yaml:"createdAt"`
	Values    []float32 `yaml:"values,flow"`
}

type chunkDoc struct {
	ID           string    `yaml:"id"`
	Content      string    `yaml:"content"`
	Type         string    `yaml:"type"`
	SectionID    string    `yaml:"sectionId,omitempty"`
	SectionTitle string    `yaml:"sectionTitle,omitempty"`
	Order        float64   `yaml:"order"`
	TokenCount   int       `yaml:"tokenCount"`
	Embedding    vectorDoc `yaml:"embedding"`
}

type articleDoc struct {
	Version     int        `yaml:"version"`
	ArticleID   string     `yaml:"articleId"`
	Title       string     `yaml:"title"`
	GeneratedAt string     `yaml:"generatedAt"`
	Model       modelDoc   `yaml:"model"`
	Metadata    statsDoc   `yaml:"metadata"`
	Chunks      []chunkDoc `yaml:"chunks"`
}

type checkpointDoc struct {
	Name          string `yaml:"name"`
	LastArticleID string `yaml:"lastArticleId"`
	Processed     int    `yaml:"processed"`
	UpdatedAt     string `yaml:"updatedAt"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %w", ErrSerializationFailed, field, err)
	}
	return t, nil
}

// MarshalArticleEmbedding serializes a bundle to its YAML document form.
func MarshalArticleEmbedding(bundle *core.ArticleEmbedding) ([]byte, error) {
	if bundle == nil {
		return nil, fmt.Errorf("%w: bundle is nil", ErrSerializationFailed)
	}

	doc := articleDoc{
		Version:     FormatVersion,
		ArticleID:   bundle.ArticleID,
		Title:       bundle.Title,
		GeneratedAt: formatTime(bundle.GeneratedAt),
		Model: modelDoc{
			Name:      bundle.Model.Name,
			Provider:  bundle.Model.Provider,
			Dimension: bundle.Model.Dimension,
		},
		Metadata: statsDoc{
			TotalChunks:      bundle.Metadata.TotalChunks,
			TotalTokens:      bundle.Metadata.TotalTokens,
			ProcessingTimeMs: bundle.Metadata.ProcessingTimeMs,
		},
		Chunks: make([]chunkDoc, len(bundle.Chunks)),
	}

	for i, ce := range bundle.Chunks {
		doc.Chunks[i] = chunkDoc{
			ID:           ce.Chunk.ID,
			Content:      ce.Chunk.Content,
			Type:         string(ce.Chunk.Type),
			SectionID:    ce.Chunk.SectionID,
			SectionTitle: ce.Chunk.SectionTitle,
			Order:        ce.Chunk.Order,
			TokenCount:   ce.Chunk.TokenCount,
			Embedding: vectorDoc{
				Dimension: ce.Embedding.Dimension,
				Model:     ce.Embedding.Model,
				CreatedAt: formatTime(ce.Embedding.CreatedAt),
				Values:    ce.Embedding.Values,
			},
		}
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalArticleEmbedding parses a stored document (YAML or JSON) and
// validates every vector against its declared dimension.
func UnmarshalArticleEmbedding(data []byte) (*core.ArticleEmbedding, error) {
	var doc articleDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	if doc.Version == 0 {
		doc.Version = FormatVersion
	}
	if doc.Version != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)
	}

	generatedAt, err := parseTime("generatedAt", doc.GeneratedAt)
	if err != nil {
		return nil, err
	}

	bundle := &core.ArticleEmbedding{
		ArticleID:   doc.ArticleID,
		Title:       doc.Title,
		GeneratedAt: generatedAt,
		Model: core.ModelInfo{
			Name:      doc.Model.Name,
			Provider:  doc.Model.Provider,
			Dimension: doc.Model.Dimension,
		},
		Metadata: core.GenerationStats{
			TotalChunks:      doc.Metadata.TotalChunks,
			TotalTokens:      doc.Metadata.TotalTokens,
			ProcessingTimeMs: doc.Metadata.ProcessingTimeMs,
		},
		Chunks: make([]core.ChunkEmbedding, len(doc.Chunks)),
	}

	for i, c := range doc.Chunks {
		createdAt, err := parseTime("createdAt", c.Embedding.CreatedAt)
		if err != nil {
			return nil, err
		}
		chunkType := core.ChunkType(c.Type)
		if !chunkType.Valid() {
			return nil, fmt.Errorf("%w: chunk %s: unknown type %q", ErrSerializationFailed, c.ID, c.Type)
		}
		bundle.Chunks[i] = core.ChunkEmbedding{
			Chunk: core.ContentChunk{
				ID:           c.ID,
				Content:      c.Content,
				Type:         chunkType,
				SectionID:    c.SectionID,
				SectionTitle: c.SectionTitle,
				Order:        c.Order,
				TokenCount:   c.TokenCount,
			},
			Embedding: core.EmbeddingVector{
				Values:    c.Embedding.Values,
				Dimension: c.Embedding.Dimension,
				Model:     c.Embedding.Model,
				CreatedAt: createdAt,
			},
		}
	}

	if err := core.ValidateArticleEmbedding(bundle); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return bundle, nil
}

// MarshalCheckpoint serializes a checkpoint to YAML.
func MarshalCheckpoint(cp *core.Checkpoint) ([]byte, error) {
	data, err := yaml.Marshal(&checkpointDoc{
		Name:          cp.Name,
		LastArticleID: cp.LastArticleID,
		Processed:     cp.Processed,
		UpdatedAt:     formatTime(cp.UpdatedAt),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalCheckpoint deserializes a checkpoint.
func UnmarshalCheckpoint(data []byte) (*core.Checkpoint, error) {
	var doc checkpointDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	updatedAt, err := parseTime("updatedAt", doc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &core.Checkpoint{
		Name:          doc.Name,
		LastArticleID: doc.LastArticleID,
		Processed:     doc.Processed,
		UpdatedAt:     updatedAt,
	}, nil
}
