package storage

import (
	"context"

	"github.com/poiesic/sitesearch/core"
)

// EmbeddingRepository persists one embedding bundle per content item.
type EmbeddingRepository interface {
	// SaveArticleEmbedding stores the bundle keyed by its ArticleID,
	// replacing any previous bundle for that item wholesale.
	SaveArticleEmbedding(ctx context.Context, bundle *core.ArticleEmbedding) error

	// LoadArticleEmbedding returns the stored bundle for articleID.
	// Returns nil, nil if nothing has been generated yet.
	LoadArticleEmbedding(ctx context.Context, articleID string) (*core.ArticleEmbedding, error)

	// DeleteArticleEmbedding removes the stored bundle.
	// Returns ErrNotFound if no bundle exists.
	DeleteArticleEmbedding(ctx context.Context, articleID string) error

	// ListArticleIDs returns the IDs of every stored bundle in ascending order.
	ListArticleIDs(ctx context.Context) ([]string, error)

	// Close closes the storage backend and releases resources.
	Close() error
}

// CheckpointRepository persists progress markers for resumable batch jobs.
type CheckpointRepository interface {
	// SaveCheckpoint persists a checkpoint, stamping UpdatedAt.
	SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error

	// LoadCheckpoint retrieves the checkpoint for a job.
	// Returns nil, nil if no checkpoint exists.
	LoadCheckpoint(ctx context.Context, name string) (*core.Checkpoint, error)

	// DeleteCheckpoint removes the checkpoint for a job. Missing checkpoints are ignored.
	DeleteCheckpoint(ctx context.Context, name string) error
}
