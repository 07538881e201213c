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
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/poiesic/sitesearch/core"
	"github.com/poiesic/sitesearch/storage"
)

const defaultLoadConcurrency = 8

// MetadataLookup resolves display metadata for a stored article ID.
type MetadataLookup func(articleID string) (core.ItemMetadata, bool)

// Loader rebuilds an Index from stored bundles.
type Loader struct {
	repo        storage.EmbeddingRepository
	lookup      MetadataLookup
	concurrency int
	logger      *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLoadConcurrency bounds the number of bundles read at once.
func WithLoadConcurrency(n int) LoaderOption {
	return func(l *Loader) {
		if n > 0 {
			l.concurrency = n
		}
	}
}

// WithLoaderLogger sets a custom logger.
func WithLoaderLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoader creates a Loader. lookup may be nil, in which case metadata
// comes from the bundle itself.
func NewLoader(repo storage.EmbeddingRepository, lookup MetadataLookup, opts ...LoaderOption) *Loader {
	l := &Loader{
		repo:        repo,
		lookup:      lookup,
		concurrency: defaultLoadConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads every stored bundle and replaces the contents of idx with them.
// It returns the number of items registered. idx is left untouched on error.
func (l *Loader) Load(ctx context.Context, idx *Index) (int, error) {
	ids, err := l.repo.ListArticleIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list stored articles: %w", err)
	}

	regs := make([]Registration, len(ids))
	present := make([]bool, len(ids))
	var mu sync.Mutex
	missing := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			bundle, err := l.repo.LoadArticleEmbedding(gctx, id)
			if err != nil {
				return fmt.Errorf("failed to load article %s: %w", id, err)
			}
			if bundle == nil {
				mu.Lock()
				missing++
				mu.Unlock()
				return nil
			}
			regs[i] = RegistrationFromBundle(l.metadata(bundle), bundle)
			present[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	out := regs[:0]
	for i := range regs {
		if present[i] {
			out = append(out, regs[i])
		}
	}
	idx.Reset(out)
	l.logger.Info("search index loaded", "items", len(out), "sections", idx.Len(), "missing", missing)
	return len(out), nil
}

func (l *Loader) metadata(bundle *core.ArticleEmbedding) core.ItemMetadata {
	if l.lookup != nil {
		if meta, ok := l.lookup(bundle.ArticleID); ok {
			if meta.Slug == "" {
				meta.Slug = bundle.ArticleID
			}
			if meta.Title == "" {
				meta.Title = bundle.Title
			}
			return meta
		}
	}
	return core.ItemMetadata{
		Slug:  bundle.ArticleID,
		Title: bundle.Title,
		Kind:  core.KindArticle,
	}
}
