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

package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/sitesearch/ai"
	"github.com/poiesic/sitesearch/chunker"
	"github.com/poiesic/sitesearch/core"
	"github.com/poiesic/sitesearch/storage"
)

const (
	defaultMaxAttempts = 3
	defaultRetryDelay  = 500 * time.Millisecond
)

// Generator produces and persists embedding bundles for content documents.
// It is safe for concurrent use; calls for the same document are serialized.
type Generator struct {
	repository  storage.EmbeddingRepository
	embedder    ai.Embedder
	maxAttempts int
	retryDelay  time.Duration
	now         func() time.Time
	locks       *keyedMutex
	logger      *slog.Logger
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator) error

// WithMaxAttempts sets how many times a failing provider call is attempted.
// Default is 3.
func WithMaxAttempts(n int) GeneratorOption {
	return func(g *Generator) error {
		if n <= 0 {
			return ErrInvalidMaxAttempts
		}
		g.maxAttempts = n
		return nil
	}
}

// WithRetryDelay sets the base backoff delay, doubled after every failed attempt.
// Default is 500ms.
func WithRetryDelay(d time.Duration) GeneratorOption {
	return func(g *Generator) error {
		g.retryDelay = d
		return nil
	}
}

// WithClock sets the time source used for generatedAt and processing time.
func WithClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) error {
		if now != nil {
			g.now = now
		}
		return nil
	}
}

// WithGeneratorLogger sets a custom logger.
// Default is slog.Default().
func WithGeneratorLogger(logger *slog.Logger) GeneratorOption {
	return func(g *Generator) error {
		if logger == nil {
			logger = slog.Default()
		}
		g.logger = logger
		return nil
	}
}

// NewGenerator creates a Generator that stores bundles in repository.
func NewGenerator(repository storage.EmbeddingRepository, embedder ai.Embedder, opts ...GeneratorOption) (*Generator, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	g := &Generator{
		repository:  repository,
		embedder:    embedder,
		maxAttempts: defaultMaxAttempts,
		retryDelay:  defaultRetryDelay,
		now:         time.Now,
		locks:       newKeyedMutex(),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}
	g.logger = g.logger.With("component", "generator")
	return g, nil
}

// Embedder returns the embedder bundles are generated with.
func (g *Generator) Embedder() ai.Embedder {
	return g.embedder
}

// NeedsRegeneration reports whether doc's stored embeddings are missing or stale.
// A bundle is stale when the document was updated after it was generated, or
// when it was produced by a model other than the current embedder's.
func (g *Generator) NeedsRegeneration(ctx context.Context, doc *core.ContentDocument) (bool, error) {
	if doc == nil {
		return false, core.ValidateDocument(doc)
	}
	stored, err := g.repository.LoadArticleEmbedding(ctx, doc.ID)
	if err != nil {
		return false, err
	}
	return g.isStale(doc, stored), nil
}

func (g *Generator) isStale(doc *core.ContentDocument, stored *core.ArticleEmbedding) bool {
	switch {
	case stored == nil:
		return true
	case doc.UpdatedAt.After(stored.GeneratedAt):
		return true
	case stored.Model.Name != g.embedder.ModelName():
		return true
	}
	return false
}

// Generate chunks doc, embeds every chunk in one batch and returns the bundle.
// Nothing is persisted.
func (g *Generator) Generate(ctx context.Context, doc *core.ContentDocument) (*core.ArticleEmbedding, error) {
	if err := core.ValidateDocument(doc); err != nil {
		return nil, err
	}

	return g.EmbedChunks(ctx, doc.ID, doc.Metadata.Title, chunker.Chunk(doc))
}

// EmbedChunks embeds already-built chunks in one batch and returns the bundle
// for articleID. Nothing is persisted.
func (g *Generator) EmbedChunks(ctx context.Context, articleID, title string, chunks []core.ContentChunk) (*core.ArticleEmbedding, error) {
	start := g.now()
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	g.logger.Debug("embedding chunks", "article", articleID, "chunks", len(chunks), "tokens", chunker.TotalTokens(chunks))

	var vectors [][]float32
	err := RetryWithBackoff(ctx, func() error {
		v, err := g.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			if errors.Is(err, ai.ErrDimensionMismatch) {
				return Permanent(err)
			}
			return err
		}
		vectors = v
		return nil
	}, g.maxAttempts, g.retryDelay)
	if err != nil {
		return nil, fmt.Errorf("generate %s: %w", articleID, err)
	}

	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("generate %s: %w: expected %d, got %d", articleID, ErrCountMismatch, len(chunks), len(vectors))
	}

	generatedAt := g.now().UTC()
	model := g.embedder.ModelName()
	pairs := make([]core.ChunkEmbedding, len(chunks))
	for i := range chunks {
		pairs[i] = core.ChunkEmbedding{
			Chunk:     chunks[i],
			Embedding: core.NewEmbeddingVector(vectors[i], model, generatedAt),
		}
	}

	return &core.ArticleEmbedding{
		ArticleID:   articleID,
		Title:       title,
		GeneratedAt: generatedAt,
		Model: core.ModelInfo{
			Name:      model,
			Provider:  g.embedder.ProviderName(),
			Dimension: g.embedder.Dimension(),
		},
		Metadata: core.GenerationStats{
			TotalChunks:      len(chunks),
			TotalTokens:      chunker.TotalTokens(chunks),
			ProcessingTimeMs: g.now().Sub(start).Milliseconds(),
		},
		Chunks: pairs,
	}, nil
}

// GenerateAndSave generates a fresh bundle for doc and replaces the stored one.
// The stored bundle is untouched when generation fails.
func (g *Generator) GenerateAndSave(ctx context.Context, doc *core.ContentDocument) (*core.ArticleEmbedding, error) {
	if doc == nil {
		return nil, core.ValidateDocument(doc)
	}
	unlock := g.locks.lock(doc.ID)
	defer unlock()
	return g.generateAndSave(ctx, doc)
}

func (g *Generator) generateAndSave(ctx context.Context, doc *core.ContentDocument) (*core.ArticleEmbedding, error) {
	bundle, err := g.Generate(ctx, doc)
	if err != nil {
		g.logger.Error("generation failed", "article", doc.ID, "err", err)
		return nil, err
	}
	if err := g.repository.SaveArticleEmbedding(ctx, bundle); err != nil {
		return nil, fmt.Errorf("save %s: %w", doc.ID, err)
	}
	g.logger.Info("generated embeddings", "article", doc.ID,
		"chunks", bundle.Metadata.TotalChunks, "tokens", bundle.Metadata.TotalTokens,
		"ms", bundle.Metadata.ProcessingTimeMs)
	return bundle, nil
}

// EnsureFresh returns doc's stored bundle, regenerating it first when stale.
// regenerated reports whether a new bundle was produced.
func (g *Generator) EnsureFresh(ctx context.Context, doc *core.ContentDocument) (bundle *core.ArticleEmbedding, regenerated bool, err error) {
	if doc == nil {
		return nil, false, core.ValidateDocument(doc)
	}
	unlock := g.locks.lock(doc.ID)
	defer unlock()

	stored, err := g.repository.LoadArticleEmbedding(ctx, doc.ID)
	if err != nil {
		return nil, false, err
	}
	if !g.isStale(doc, stored) {
		return stored, false, nil
	}

	bundle, err = g.generateAndSave(ctx, doc)
	if err != nil {
		return nil, false, err
	}
	return bundle, true, nil
}

// Reembed replaces a stored bundle with one built from the same chunks by the
// current embedder. Source documents are not needed. It returns nil, nil when
// nothing is stored for articleID. The stored GeneratedAt is kept: it records
// when the chunks were cut, which is what staleness is measured against.
func (g *Generator) Reembed(ctx context.Context, articleID string) (*core.ArticleEmbedding, error) {
	unlock := g.locks.lock(articleID)
	defer unlock()

	stored, err := g.repository.LoadArticleEmbedding(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", articleID, err)
	}
	if stored == nil {
		return nil, nil
	}

	bundle, err := g.EmbedChunks(ctx, articleID, stored.Title, stored.ContentChunks())
	if err != nil {
		return nil, err
	}
	bundle.GeneratedAt = stored.GeneratedAt
	if err := g.repository.SaveArticleEmbedding(ctx, bundle); err != nil {
		return nil, fmt.Errorf("save %s: %w", articleID, err)
	}
	g.logger.Debug("reembedded article", "article", articleID,
		"from", stored.Model.Name, "to", bundle.Model.Name, "chunks", len(bundle.Chunks))
	return bundle, nil
}

// Repository returns the repository bundles are saved to.
func (g *Generator) Repository() storage.EmbeddingRepository {
	return g.repository
}
