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
	"fmt"

	"github.com/poiesic/sitesearch/ingestion"
)

// BatchProcessor re-embeds batches of stored articles.
type BatchProcessor struct {
	generator   *ingestion.Generator
	skipCurrent bool
}

// NewBatchProcessor creates a new batch processor.
// skipCurrent: leave bundles already produced by the generator's model alone
func NewBatchProcessor(generator *ingestion.Generator, skipCurrent bool) *BatchProcessor {
	return &BatchProcessor{
		generator:   generator,
		skipCurrent: skipCurrent,
	}
}

// Process re-embeds each article in ids and returns how many bundles were
// rewritten. It stops at the first failure.
func (bp *BatchProcessor) Process(ctx context.Context, ids []string) (int, error) {
	rewritten := 0
	for _, id := range ids {
		if bp.skipCurrent {
			current, err := bp.isCurrent(ctx, id)
			if err != nil {
				return rewritten, err
			}
			if current {
				continue
			}
		}

		bundle, err := bp.generator.Reembed(ctx, id)
		if err != nil {
			return rewritten, fmt.Errorf("failed to reembed %s: %w", id, err)
		}
		if bundle != nil {
			rewritten++
		}
	}
	return rewritten, nil
}

func (bp *BatchProcessor) isCurrent(ctx context.Context, id string) (bool, error) {
	stored, err := bp.generator.Repository().LoadArticleEmbedding(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to load %s: %w", id, err)
	}
	embedder := bp.generator.Embedder()
	return stored != nil &&
		stored.Model.Name == embedder.ModelName() &&
		stored.Model.Dimension == embedder.Dimension(), nil
}
