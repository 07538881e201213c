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

package badger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/sitesearch/core"
	"github.com/poiesic/sitesearch/storage"
)

// EmbeddingRepository implements storage.EmbeddingRepository for BadgerDB.
type EmbeddingRepository struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.EmbeddingRepository = (*EmbeddingRepository)(nil)

// NewEmbeddingRepository creates a new EmbeddingRepository on an open backend.
// Closing the repository does not close the backend.
func NewEmbeddingRepository(backend *Backend) (*EmbeddingRepository, error) {
	if backend == nil || backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	return &EmbeddingRepository{
		backend: backend,
		logger:  slog.Default().With("component", "badger-embeddings"),
	}, nil
}

// SaveArticleEmbedding writes the bundle and its listing key in one transaction.
func (r *EmbeddingRepository) SaveArticleEmbedding(ctx context.Context, bundle *core.ArticleEmbedding) error {
	if err := core.ValidateArticleEmbedding(bundle); err != nil {
		return err
	}
	data, err := storage.MarshalArticleEmbedding(bundle)
	if err != nil {
		return err
	}

	err = r.backend.Update(func(tx *badger.Txn) error {
		if err := tx.Set(makeArticleEmbeddingKey(bundle.ArticleID), data); err != nil {
			return err
		}
		return tx.Set(makeArticleIndexKey(bundle.ArticleID), []byte(bundle.ArticleID))
	})
	if err != nil {
		return err
	}

	r.logger.Debug("saved article embedding", "article", bundle.ArticleID, "chunks", len(bundle.Chunks))
	return nil
}

// LoadArticleEmbedding retrieves the stored bundle for an article.
// Returns nil, nil if no bundle exists.
func (r *EmbeddingRepository) LoadArticleEmbedding(ctx context.Context, articleID string) (*core.ArticleEmbedding, error) {
	var bundle *core.ArticleEmbedding
	err := r.backend.View(func(tx *badger.Txn) error {
		item, err := tx.Get(makeArticleEmbeddingKey(articleID))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}

		return item.Value(func(val []byte) error {
			var unmarshalErr error
			bundle, unmarshalErr = storage.UnmarshalArticleEmbedding(val)
			return unmarshalErr
		})
	})
	if err != nil {
		return nil, err
	}

	if bundle != nil && bundle.ArticleID != articleID {
		// Hash collision between two slugs
		r.logger.Warn("stored bundle belongs to another article", "requested", articleID, "stored", bundle.ArticleID)
		return nil, nil
	}
	return bundle, nil
}

// DeleteArticleEmbedding removes an article's bundle and listing key.
func (r *EmbeddingRepository) DeleteArticleEmbedding(ctx context.Context, articleID string) error {
	return r.backend.Update(func(tx *badger.Txn) error {
		if _, err := tx.Get(makeArticleIndexKey(articleID)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		if err := tx.Delete(makeArticleEmbeddingKey(articleID)); err != nil {
			return err
		}
		return tx.Delete(makeArticleIndexKey(articleID))
	})
}

// ListArticleIDs returns every stored article ID in ascending order.
func (r *EmbeddingRepository) ListArticleIDs(ctx context.Context) ([]string, error) {
	prefix := articleIndexKeyPrefix()
	keys, err := r.backend.keysWithPrefix(prefix)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(keys))
	for _, key := range keys {
		ids = append(ids, string(bytes.TrimPrefix(key, prefix)))
	}
	return ids, nil
}

// Close is a no-op; the backend owns the database handle.
func (r *EmbeddingRepository) Close() error {
	return nil
}
