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
	"io"
	"time"

	"github.com/poiesic/sitesearch/ai"
	"github.com/poiesic/sitesearch/core"
	"github.com/poiesic/sitesearch/ingestion"
	"github.com/poiesic/sitesearch/storage"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of articles between checkpoints
	BatchSize int

	// ReportInterval is how often to report progress (number of articles)
	ReportInterval int

	// MaxRetries is the maximum number of attempts per embedding call
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// SkipCurrent leaves bundles already built by the target model untouched
	SkipCurrent bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: 10,
		MaxRetries:     3,
		RetryDelay:     500 * time.Millisecond,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.MaxRetries <= 0 {
		return ingestion.ErrInvalidMaxAttempts
	}
	return nil
}

// CheckpointName returns the checkpoint key used for a target model.
func CheckpointName(model string) string {
	return "reembed:" + model
}

// Reembedder orchestrates re-embedding every stored article.
type Reembedder struct {
	repo        storage.EmbeddingRepository
	checkpoints storage.CheckpointRepository
	embedder    ai.Embedder
	config      *Config
	progress    io.Writer
	processor   *BatchProcessor
	iterator    *ArticleIterator
}

// NewReembedder creates a new reembedder. checkpoints may be nil, in which
// case runs always start from the beginning.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(repo storage.EmbeddingRepository, checkpoints storage.CheckpointRepository, embedder ai.Embedder, config *Config, progress io.Writer) (*Reembedder, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if progress == nil {
		progress = io.Discard
	}

	generator, err := ingestion.NewGenerator(repo, embedder,
		ingestion.WithMaxAttempts(config.MaxRetries),
		ingestion.WithRetryDelay(config.RetryDelay),
	)
	if err != nil {
		return nil, err
	}

	return &Reembedder{
		repo:        repo,
		checkpoints: checkpoints,
		embedder:    embedder,
		config:      config,
		progress:    progress,
		processor:   NewBatchProcessor(generator, config.SkipCurrent),
		iterator:    NewArticleIterator(repo, config.BatchSize),
	}, nil
}

// Run re-embeds all stored articles with the configured embedder, resuming
// from the checkpoint for the embedder's model if one exists. The checkpoint
// is removed when the run completes.
func (r *Reembedder) Run(ctx context.Context) error {
	ids, err := r.repo.ListArticleIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list articles: %w", err)
	}

	total := len(ids)
	if total == 0 {
		fmt.Fprintf(r.progress, "No articles found in store (0 articles)\n")
		return nil
	}

	name := CheckpointName(r.embedder.ModelName())
	checkpoint, err := r.loadCheckpoint(ctx, name)
	if err != nil {
		return err
	}
	if checkpoint.LastArticleID != "" {
		fmt.Fprintf(r.progress, "Resuming after %s (%d of %d articles done)\n",
			checkpoint.LastArticleID, checkpoint.Processed, total)
	} else {
		fmt.Fprintf(r.progress, "Starting reembedding of %d articles with %s (batch size: %d)\n",
			total, r.embedder.ModelName(), r.config.BatchSize)
	}

	tracker := ingestion.NewProgressTracker(r.progress, total, r.config.ReportInterval, "articles")
	tracker.Start()
	tracker.Increment(checkpoint.Processed)

	rewritten := 0
	err = r.iterator.ForEach(ctx, checkpoint.LastArticleID, func(batch []string) error {
		n, err := r.processor.Process(ctx, batch)
		rewritten += n
		if err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}

		checkpoint.LastArticleID = batch[len(batch)-1]
		checkpoint.Processed += len(batch)
		tracker.Increment(len(batch))
		return r.saveCheckpoint(ctx, checkpoint)
	})
	if err != nil {
		return err
	}

	tracker.Finish()
	if r.checkpoints != nil {
		if err := r.checkpoints.DeleteCheckpoint(ctx, name); err != nil {
			return fmt.Errorf("failed to clear checkpoint: %w", err)
		}
	}

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding complete. Rewrote %d of %d articles in %v\n",
		rewritten, total, elapsed.Round(time.Millisecond))

	return nil
}

func (r *Reembedder) loadCheckpoint(ctx context.Context, name string) (*core.Checkpoint, error) {
	if r.checkpoints == nil {
		return &core.Checkpoint{Name: name}, nil
	}
	checkpoint, err := r.checkpoints.LoadCheckpoint(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if checkpoint == nil {
		checkpoint = &core.Checkpoint{Name: name}
	}
	return checkpoint, nil
}

func (r *Reembedder) saveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error {
	if r.checkpoints == nil {
		return nil
	}
	if err := r.checkpoints.SaveCheckpoint(ctx, checkpoint); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}
