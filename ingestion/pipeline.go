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
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/sitesearch/core"
)

// Pipeline runs generation for many documents concurrently on a worker pool.
type Pipeline struct {
	generator   *Generator
	pool        *ants.Pool
	onGenerated func(doc *core.ContentDocument, bundle *core.ArticleEmbedding)
	logger      *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithOnGenerated registers a callback invoked after each bundle is saved.
// It may be called from several workers at once.
func WithOnGenerated(fn func(doc *core.ContentDocument, bundle *core.ArticleEmbedding)) Option {
	return func(p *Pipeline) error {
		p.onGenerated = fn
		return nil
	}
}

// NewPipeline creates a new generation pipeline.
func NewPipeline(generator *Generator, opts ...Option) (*Pipeline, error) {
	if generator == nil {
		return nil, ErrGeneratorRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		generator: generator,
		pool:      pool,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// RunOptions holds optional parameters for a pipeline run.
type RunOptions struct {
	Force          bool      // Regenerate even when stored embeddings are fresh
	Progress       io.Writer // Where to print progress; nil disables output
	ReportInterval int       // Report progress every N documents (default 10)
}

// ItemError records a failed document.
type ItemError struct {
	ArticleID string
	Err       error
}

// Statistics summarizes a pipeline run.
type Statistics struct {
	Generated int
	Skipped   int
	Failed    int
	Errors    []ItemError
	Duration  time.Duration
}

// Run generates embeddings for every document, skipping fresh ones unless
// opts.Force is set. It waits for all submitted work before returning.
// The returned error is reserved for pool failures; per-document failures
// are reported in Statistics.
func (p *Pipeline) Run(ctx context.Context, docs []*core.ContentDocument, opts RunOptions) (*Statistics, error) {
	interval := opts.ReportInterval
	if interval <= 0 {
		interval = 10
	}
	progress := NewProgressTracker(opts.Progress, len(docs), interval, "articles")
	progress.Start()

	stats := &Statistics{}
	var mu sync.Mutex
	var wg sync.WaitGroup
	start := time.Now()

	record := func(id string, generated bool, err error) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case err != nil:
			stats.Failed++
			stats.Errors = append(stats.Errors, ItemError{ArticleID: id, Err: err})
		case generated:
			stats.Generated++
		default:
			stats.Skipped++
		}
		progress.Increment(1)
	}

	var submitErr error
	for _, doc := range docs {
		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			id := ""
			if doc != nil {
				id = doc.ID
			}
			if err := ctx.Err(); err != nil {
				record(id, false, err)
				return
			}
			bundle, generated, err := p.process(ctx, doc, opts.Force)
			if err == nil && generated && p.onGenerated != nil {
				p.onGenerated(doc, bundle)
			}
			record(id, generated, err)
		})
		if err != nil {
			wg.Done()
			submitErr = err
			break
		}
	}
	wg.Wait()
	progress.Finish()

	stats.Duration = time.Since(start)
	p.logger.Info("pipeline run complete",
		"generated", stats.Generated, "skipped", stats.Skipped, "failed", stats.Failed,
		"duration", stats.Duration)
	return stats, submitErr
}

func (p *Pipeline) process(ctx context.Context, doc *core.ContentDocument, force bool) (*core.ArticleEmbedding, bool, error) {
	if force {
		bundle, err := p.generator.GenerateAndSave(ctx, doc)
		return bundle, err == nil, err
	}
	return p.generator.EnsureFresh(ctx, doc)
}

// Release releases resources including worker pools.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
