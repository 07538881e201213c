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

package reembed

import (
	"context"
	"sort"

	"github.com/poiesic/sitesearch/storage"
)

const (
	// DefaultBatchSize is the default number of articles in each batch
	DefaultBatchSize = 10
)

// ArticleIterator iterates over stored article IDs in batches.
type ArticleIterator struct {
	repo      storage.EmbeddingRepository
	batchSize int
}

// NewArticleIterator creates a new article iterator.
// batchSize: number of articles in each batch (defaults when <= 0)
func NewArticleIterator(repo storage.EmbeddingRepository, batchSize int) *ArticleIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &ArticleIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// ForEach calls fn with successive batches of stored IDs greater than after
// (all IDs when after is empty). Iteration stops on the first error from fn.
// Context cancellation is checked between batches.
func (it *ArticleIterator) ForEach(ctx context.Context, after string, fn func(ids []string) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	ids, err := it.repo.ListArticleIDs(ctx)
	if err != nil {
		return err
	}
	ids = remaining(ids, after)

	for i := 0; i < len(ids); i += it.batchSize {
		end := min(i+it.batchSize, len(ids))
		if err := fn(ids[i:end]); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	return nil
}

// remaining returns the suffix of sorted ids strictly greater than after.
func remaining(ids []string, after string) []string {
	if after == "" {
		return ids
	}
	return ids[sort.SearchStrings(ids, after+"\x00"):]
}
